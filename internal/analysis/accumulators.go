package analysis

import "math"

const (
	// KmToMile converts kilometers to miles
	KmToMile = 0.6213711922

	// FilterAlpha is the low-pass filter weight given to a new elevation
	FilterAlpha = 0.3

	// GradientThreshold is the gradient in percent above which a slope is
	// ascending (or below the negation of which it is descending)
	GradientThreshold = 2.0

	// HillThreshold is the minimum filtered height change in meters of a
	// reported hill
	HillThreshold = 20.0

	// MovingSpeedThreshold is the speed in km/h above which a segment counts
	// as moving
	MovingSpeedThreshold = 1.4
)

// distanceAcc tracks cumulative and maximum segment distance
type distanceAcc struct {
	total      float64
	maxSegment float64
}

func (a *distanceAcc) add(d float64) {
	a.total += d
	if d > a.maxSegment {
		a.maxSegment = d
	}
}

// movingAcc tracks total duration and the time and distance spent moving
type movingAcc struct {
	duration float64
	time     float64
	distance float64
}

func (a *movingAcc) add(d, dt float64) {
	a.duration += dt
	switch {
	case dt == 0:
		// distance covered in no time is moving at unbounded speed
		if d > 0 {
			a.distance += d
		}
	case dt > 0 && (d/1000)/(dt/3600) > MovingSpeedThreshold:
		a.time += dt
		a.distance += d
	}
}

// splitAcc records a marker each time cumulative distance passes another
// whole unit. scale converts kilometers into the unit.
type splitAcc struct {
	scale     float64
	splits    []Split
	lastTime  float64
	lastDist  float64
	timeKnown bool
}

func newSplitAcc(scale float64, timeKnown bool) *splitAcc {
	return &splitAcc{scale: scale, splits: []Split{}, timeKnown: timeKnown}
}

func (a *splitAcc) add(index int, distance, duration float64, final bool) {
	if distance*a.scale/(1000*float64(len(a.splits)+1)) < 1 && !final {
		return
	}

	var pace float64
	if a.timeKnown {
		dt := (duration - a.lastTime) / 60
		dd := (distance - a.lastDist) / 1000 * a.scale
		pace = ratio(dt, dd)
	}

	a.splits = append(a.splits, Split{SampleIndex: index, Pace: pace})
	a.lastTime = duration
	a.lastDist = distance
}

// elevationAcc tracks raw ascent, descent and extremes
type elevationAcc struct {
	ascent  float64
	descent float64
	max     float64
	min     float64
}

func newElevationAcc(first float64) *elevationAcc {
	return &elevationAcc{max: first, min: first}
}

func (a *elevationAcc) add(dElev, elev float64) {
	if dElev > 0 {
		a.ascent += dElev
	} else if dElev < 0 {
		a.descent += dElev
	}
	a.max = math.Max(a.max, elev)
	a.min = math.Min(a.min, elev)
}

// Slope is the instantaneous slope classification
type Slope int

// Slope states
const (
	Descending Slope = -1
	Flat       Slope = 0
	Ascending  Slope = 1
)

func classify(gradient float64) Slope {
	switch {
	case gradient > GradientThreshold:
		return Ascending
	case gradient < -GradientThreshold:
		return Descending
	default:
		return Flat
	}
}

// slopeAcc runs the gradient and hill state machine over low-pass filtered
// elevation. Filtered elevation and gradient are only updated at samples
// where the raw elevation changes; a run closes whenever the slope
// classification changes or the path ends.
type slopeAcc struct {
	filtered   float64
	eDist      float64
	slope      Slope
	classified bool

	// current run
	running   bool
	runSlope  Slope
	gradMax   float64
	d0, t0    float64
	e0        float64
	timeKnown bool

	hills []Hill
}

func newSlopeAcc(firstElev float64, timeKnown bool) *slopeAcc {
	return &slopeAcc{filtered: firstElev, timeKnown: timeKnown, hills: []Hill{}}
}

func (a *slopeAcc) add(d, dElev, elev, distance, duration float64, final bool) {
	a.eDist += d

	if dElev != 0 {
		last := a.filtered
		a.filtered = elev*FilterAlpha + a.filtered*(1-FilterAlpha)

		// coincident samples carry no gradient; keep the distance running
		if a.eDist > 0 {
			gradient := (a.filtered - last) / a.eDist * 100
			a.slope = classify(gradient)
			a.classified = true
			a.gradMax = math.Max(a.gradMax, math.Abs(gradient))
			a.eDist = 0
		}
	}

	if !a.running {
		if a.classified {
			a.running = true
			a.runSlope = a.slope
			a.e0 = a.filtered
			a.gradMax = 0
		}
		return
	}

	if a.slope != a.runSlope || final {
		a.close(distance, duration)
	}
}

// close ends the current run, emitting a hill when it climbed or dropped
// far enough, and starts a new run at the current sample
func (a *slopeAcc) close(distance, duration float64) {
	de := a.filtered - a.e0
	if math.Abs(de) > HillThreshold {
		dd := distance - a.d0
		hill := Hill{
			HeightDelta: de,
			Distance:    dd,
			Gradient: Gradient{
				Max:     a.signedGradMax(de),
				Average: ratio(de, dd) * 100,
			},
		}
		if a.timeKnown {
			dt := duration - a.t0
			hill.Duration = dt
			hill.Pace = ratio(dt/60, dd/1000)
			hill.AscentRate = ratio(de, dt/60)
		}
		a.hills = append(a.hills, hill)
	}

	a.d0 = distance
	a.t0 = duration
	a.e0 = a.filtered
	a.gradMax = 0
	a.runSlope = a.slope
}

func (a *slopeAcc) signedGradMax(de float64) float64 {
	switch {
	case a.runSlope == Ascending:
		return a.gradMax
	case a.runSlope == Descending:
		return -a.gradMax
	case de < 0:
		return -a.gradMax
	default:
		return a.gradMax
	}
}

// ratio divides, returning 0 rather than Inf or NaN for a zero divisor
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
