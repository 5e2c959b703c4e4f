package analysis

import (
	"github.com/stuartshay/path-worker/internal/geodesy"
	"github.com/stuartshay/path-worker/internal/points"
)

// Analyze computes path statistics in a single forward pass over seq.
// Without a time channel the duration, pace, moving and split pace fields
// are zero; without an elevation channel the elevation block is zero and
// no hills are reported.
func Analyze(seq points.Sequence, bbox geodesy.BoundingBox) Stats {
	stats := Stats{
		BoundingBox: bbox,
		Points:      seq.Len(),
		Hills:       []Hill{},
		Splits:      Splits{Km: []Split{}, Mile: []Split{}},
	}
	if seq.Len() < 2 {
		return stats
	}

	hasTime := seq.Channels.Has(points.Time)
	hasElev := seq.Channels.Has(points.Elevation)
	pathSize := seq.PathSize()
	first := seq.Samples[0]

	var (
		dist   distanceAcc
		moving movingAcc
		km     = newSplitAcc(1, hasTime)
		mile   = newSplitAcc(KmToMile, hasTime)
		elev   = newElevationAcc(first.Elev)
		slope  = newSlopeAcc(first.Elev, hasTime)
	)

	for i := 1; i <= pathSize; i++ {
		prev, cur := seq.Samples[i-1], seq.Samples[i]
		final := i == pathSize

		d := geodesy.Distance(prev.Coordinate, cur.Coordinate)
		dist.add(d)

		if hasTime {
			moving.add(d, cur.Time)
		}

		km.add(i, dist.total, moving.duration, final)
		mile.add(i, dist.total, moving.duration, final)

		if hasElev {
			dElev := cur.Elev - prev.Elev
			elev.add(dElev, cur.Elev)
			slope.add(d, dElev, cur.Elev, dist.total, moving.duration, final)
		}
	}

	stats.Distance = dist.total
	stats.Segments = SegmentStats{
		Max:     dist.maxSegment,
		Average: ratio(dist.total, float64(pathSize)),
	}
	stats.Splits = Splits{Km: km.splits, Mile: mile.splits}

	if hasTime {
		stats.Duration = moving.duration
		stats.Pace = ratio(moving.duration/60, dist.total/1000)
		stats.Moving = MovingStats{
			Time:     moving.time,
			Distance: moving.distance,
			Pace:     ratio(moving.time/60, moving.distance/1000),
		}
	}

	if hasElev {
		stats.Elevation = ElevationStats{
			Ascent:    elev.ascent,
			Descent:   elev.descent,
			Max:       elev.max,
			Min:       elev.min,
			Lumpiness: ratio(elev.ascent-elev.descent, dist.total),
		}
		stats.Hills = slope.hills
	}

	return stats
}
