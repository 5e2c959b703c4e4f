package analysis

import "github.com/stuartshay/path-worker/internal/geodesy"

// Stats is the statistics block produced for a finished path. Time
// dependent fields are zero when the path has no time channel, elevation
// fields are zero when it has no elevation channel.
type Stats struct {
	Duration    float64             `json:"duration"`
	BoundingBox geodesy.BoundingBox `json:"bbox"`
	Distance    float64             `json:"distance"`
	Points      int                 `json:"nPoints"`
	Pace        float64             `json:"pace"`
	Moving      MovingStats         `json:"movingStats"`
	Elevation   ElevationStats      `json:"elevations"`
	Hills       []Hill              `json:"hills"`
	Splits      Splits              `json:"splits"`
	Segments    SegmentStats        `json:"p2p"`
}

// MovingStats covers only the segments travelled above the moving speed
// threshold
type MovingStats struct {
	Time     float64 `json:"movingTime"`
	Distance float64 `json:"movingDist"`
	Pace     float64 `json:"movingPace"`
}

// ElevationStats summarises climbing. Descent is negative.
type ElevationStats struct {
	Ascent    float64 `json:"ascent"`
	Descent   float64 `json:"descent"`
	Max       float64 `json:"maxElev"`
	Min       float64 `json:"minElev"`
	Lumpiness float64 `json:"lumpiness"`
}

// Hill is a run of consistent slope whose filtered height change exceeds
// HillThreshold
type Hill struct {
	HeightDelta float64  `json:"dHeight"`
	Distance    float64  `json:"dDist"`
	Duration    float64  `json:"dTime"`
	Pace        float64  `json:"pace"`
	AscentRate  float64  `json:"ascRate"`
	Gradient    Gradient `json:"gradient"`
}

// Gradient holds percentage gradients for a hill
type Gradient struct {
	Max     float64 `json:"max"`
	Average float64 `json:"ave"`
}

// Split marks the sample at which a whole kilometer or mile was completed
// and the pace in minutes per unit since the previous marker
type Split struct {
	SampleIndex int     `json:"index"`
	Pace        float64 `json:"pace"`
}

// Splits holds the kilometer and mile markers
type Splits struct {
	Km   []Split `json:"kmSplits"`
	Mile []Split `json:"mileSplits"`
}

// SegmentStats describes point-to-point segment lengths in meters
type SegmentStats struct {
	Max     float64 `json:"max"`
	Average float64 `json:"ave"`
}
