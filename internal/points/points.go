// Package points holds the normalized in-memory form of a trajectory: an
// ordered sequence of samples, each a coordinate plus optional elevation,
// elapsed time, heart rate and cadence channels.
package points

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stuartshay/path-worker/internal/geodesy"
)

// Channels is a bit mask of the optional per-sample channels present in a
// sequence. A channel is either present on every sample or on none.
type Channels uint8

// Optional sample channels
const (
	Elevation Channels = 1 << iota
	Time
	HeartRate
	Cadence
)

// Has reports whether every channel in c is present
func (m Channels) Has(c Channels) bool {
	return m&c == c
}

func (m Channels) String() string {
	var names []string
	for _, ch := range []struct {
		c    Channels
		name string
	}{
		{Elevation, "elevation"},
		{Time, "time"},
		{HeartRate, "heartRate"},
		{Cadence, "cadence"},
	} {
		if m.Has(ch.c) {
			names = append(names, ch.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ErrChannelLength is returned when a channel does not have one value per
// coordinate
var ErrChannelLength = errors.New("channel length does not match coordinate count")

// Sample is one recorded trajectory point. Optional fields are only
// meaningful when the owning Sequence has the matching channel.
type Sample struct {
	geodesy.Coordinate
	Elev      float64
	Time      float64 // seconds elapsed since the previous sample
	HeartRate int
	Cadence   int
}

// Sequence is an ordered, index-stable list of samples
type Sequence struct {
	Samples  []Sample
	Channels Channels
}

// Columns are the raw per-channel arrays a Sequence is built from. Nil
// slices mark absent channels.
type Columns struct {
	Coordinates []geodesy.Coordinate
	Elevations  []float64
	Times       []float64
	HeartRates  []int
	Cadences    []int
}

// New zips columns into a Sequence and computes its channel mask
func New(cols Columns) (Sequence, error) {
	n := len(cols.Coordinates)
	seq := Sequence{Samples: make([]Sample, n)}

	for i, c := range cols.Coordinates {
		seq.Samples[i].Coordinate = c
	}

	if cols.Elevations != nil {
		if len(cols.Elevations) != n {
			return Sequence{}, fmt.Errorf("elevation: %w (%d != %d)", ErrChannelLength, len(cols.Elevations), n)
		}
		for i, e := range cols.Elevations {
			seq.Samples[i].Elev = e
		}
		seq.Channels |= Elevation
	}

	if cols.Times != nil {
		if len(cols.Times) != n {
			return Sequence{}, fmt.Errorf("time: %w (%d != %d)", ErrChannelLength, len(cols.Times), n)
		}
		for i, t := range cols.Times {
			seq.Samples[i].Time = t
		}
		seq.Channels |= Time
	}

	if cols.HeartRates != nil {
		if len(cols.HeartRates) != n {
			return Sequence{}, fmt.Errorf("heart rate: %w (%d != %d)", ErrChannelLength, len(cols.HeartRates), n)
		}
		for i, hr := range cols.HeartRates {
			seq.Samples[i].HeartRate = hr
		}
		seq.Channels |= HeartRate
	}

	if cols.Cadences != nil {
		if len(cols.Cadences) != n {
			return Sequence{}, fmt.Errorf("cadence: %w (%d != %d)", ErrChannelLength, len(cols.Cadences), n)
		}
		for i, c := range cols.Cadences {
			seq.Samples[i].Cadence = c
		}
		seq.Channels |= Cadence
	}

	return seq, nil
}

// Len returns the number of samples
func (s Sequence) Len() int {
	return len(s.Samples)
}

// PathSize returns the number of segments, len-1
func (s Sequence) PathSize() int {
	if len(s.Samples) == 0 {
		return 0
	}
	return len(s.Samples) - 1
}

// Coordinates returns the sample positions in order
func (s Sequence) Coordinates() []geodesy.Coordinate {
	out := make([]geodesy.Coordinate, len(s.Samples))
	for i, p := range s.Samples {
		out[i] = p.Coordinate
	}
	return out
}

// WithElevations returns a copy of the sequence with elevations replaced
// and the elevation channel set
func (s Sequence) WithElevations(elevs []float64) (Sequence, error) {
	if len(elevs) != len(s.Samples) {
		return Sequence{}, fmt.Errorf("elevation: %w (%d != %d)", ErrChannelLength, len(elevs), len(s.Samples))
	}

	out := Sequence{
		Samples:  make([]Sample, len(s.Samples)),
		Channels: s.Channels | Elevation,
	}
	copy(out.Samples, s.Samples)
	for i := range out.Samples {
		out.Samples[i].Elev = elevs[i]
	}
	return out, nil
}

// Elevations returns the elevation column, or nil when absent
func (s Sequence) Elevations() []float64 {
	if !s.Channels.Has(Elevation) {
		return nil
	}
	out := make([]float64, len(s.Samples))
	for i, p := range s.Samples {
		out[i] = p.Elev
	}
	return out
}

// Times returns the elapsed-time column, or nil when absent
func (s Sequence) Times() []float64 {
	if !s.Channels.Has(Time) {
		return nil
	}
	out := make([]float64, len(s.Samples))
	for i, p := range s.Samples {
		out[i] = p.Time
	}
	return out
}

// HeartRates returns the heart rate column, or nil when absent
func (s Sequence) HeartRates() []int {
	if !s.Channels.Has(HeartRate) {
		return nil
	}
	out := make([]int, len(s.Samples))
	for i, p := range s.Samples {
		out[i] = p.HeartRate
	}
	return out
}

// Cadences returns the cadence column, or nil when absent
func (s Sequence) Cadences() []int {
	if !s.Channels.Has(Cadence) {
		return nil
	}
	out := make([]int, len(s.Samples))
	for i, p := range s.Samples {
		out[i] = p.Cadence
	}
	return out
}

// Without returns a copy with the given channels dropped
func (s Sequence) Without(c Channels) Sequence {
	out := Sequence{
		Samples:  make([]Sample, len(s.Samples)),
		Channels: s.Channels &^ c,
	}
	copy(out.Samples, s.Samples)
	for i := range out.Samples {
		if c.Has(Elevation) {
			out.Samples[i].Elev = 0
		}
		if c.Has(Time) {
			out.Samples[i].Time = 0
		}
		if c.Has(HeartRate) {
			out.Samples[i].HeartRate = 0
		}
		if c.Has(Cadence) {
			out.Samples[i].Cadence = 0
		}
	}
	return out
}
