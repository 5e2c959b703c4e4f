// Package analysis turns a finished point sequence into path statistics
// and a shape category.
package analysis

import (
	"math"

	"github.com/stuartshay/path-worker/internal/geodesy"
)

// Category describes the overall shape of a path
type Category string

// Shape categories
const (
	Circular   Category = "Circular"
	OutAndBack Category = "Out and back"
	OneWay     Category = "One way"
	Hybrid     Category = "Hybrid"
)

const (
	// MatchDistance is the distance in meters under which two points are
	// considered coincident
	MatchDistance = 25.0

	// MatchBuffer is the number of points skipped ahead before matching,
	// so a point never matches its own neighbours
	MatchBuffer = 50

	// SharedUpper is the shared-point percentage above which a path is out
	// and back
	SharedUpper = 90.0

	// SharedLower is the shared-point percentage below which a path is
	// circular or one way
	SharedLower = 10.0
)

// SharedPercent returns the percentage of points revisited later in the
// path. Each point i is matched against the first point at least
// MatchBuffer positions ahead that lies within MatchDistance. At most half
// of the points can match, hence the factor of two.
func SharedPercent(coords []geodesy.Coordinate) float64 {
	pathSize := len(coords) - 1
	if pathSize < 1 {
		return 0
	}

	matches := 0
	for i := 0; i < pathSize-MatchBuffer; i++ {
		for j := i + MatchBuffer; j < pathSize; j++ {
			d := geodesy.Distance(coords[i], coords[j])
			if d < MatchDistance {
				matches++
				break
			}
			// the next few points are still too far away to match
			if d > MatchDistance*10 {
				j += int(math.Round(d / MatchDistance))
			}
		}
	}

	return float64(matches) / float64(pathSize) * 100 * 2
}

// Categorize classifies the shape of a path from its coordinates
func Categorize(coords []geodesy.Coordinate) Category {
	if len(coords) < 2 {
		return OneWay
	}

	shared := SharedPercent(coords)
	closed := geodesy.Distance(coords[0], coords[len(coords)-1]) < MatchDistance*10

	switch {
	case shared > SharedUpper:
		return OutAndBack
	case shared < SharedLower && closed:
		return Circular
	case shared < SharedLower:
		return OneWay
	default:
		return Hybrid
	}
}
