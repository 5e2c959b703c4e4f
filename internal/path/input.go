package path

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stuartshay/path-worker/internal/elevation"
	"github.com/stuartshay/path-worker/internal/geodesy"
	"github.com/stuartshay/path-worker/internal/points"
)

// Type distinguishes recorded tracks from planned routes
type Type string

// Path types
const (
	Route Type = "route"
	Track Type = "track"
)

var (
	// ErrTooFewPoints is returned for inputs with fewer than two coordinates
	ErrTooFewPoints = errors.New("path needs at least two coordinates")

	// ErrPathType is returned for an unknown path type
	ErrPathType = errors.New("path type must be route or track")

	// ErrChannelLength is returned when an optional channel does not have one
	// value per coordinate
	ErrChannelLength = points.ErrChannelLength

	// ErrTimestamp is returned for timestamps that are not RFC 3339
	ErrTimestamp = errors.New("invalid timestamp")

	// ErrElevation wraps failures to obtain replacement elevations
	ErrElevation = errors.New("elevation reconciliation failed")
)

// BuildInput is the raw trajectory handed to the builder by a file reader
// or API call
type BuildInput struct {
	Coordinates [][2]float64 `json:"coordinates"`
	Elevations  Elevations   `json:"elevations"`
	PathType    Type         `json:"pathType"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Time        *TimeChannel `json:"time,omitempty"`
	HeartRate   []int        `json:"heartRate,omitempty"`
	Cadence     []int        `json:"cadence,omitempty"`
}

// Elevations are supplied elevations with the import status. A status
// containing elevation.DiscardedMarker means the values must be refetched.
type Elevations struct {
	Values []float64 `json:"values"`
	Status string    `json:"status"`
}

// Trusted reports whether the supplied values should be used as-is
func (e Elevations) Trusted() bool {
	return !elevation.NeedsRefetch(e.Status)
}

// TimeChannel holds sample times either as absolute ISO 8601 timestamps or
// as seconds elapsed since the previous sample. In JSON it is an array of
// strings or an array of numbers.
type TimeChannel struct {
	Timestamps []string
	Increments []float64
}

// UnmarshalJSON accepts a string array or a number array
func (tc *TimeChannel) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var increments []float64
	if err := json.Unmarshal(data, &increments); err == nil {
		*tc = TimeChannel{Increments: increments}
		return nil
	}

	var timestamps []string
	if err := json.Unmarshal(data, &timestamps); err != nil {
		return fmt.Errorf("time must be an array of timestamps or numbers: %w", err)
	}
	*tc = TimeChannel{Timestamps: timestamps}
	return nil
}

// MarshalJSON writes whichever representation is set
func (tc TimeChannel) MarshalJSON() ([]byte, error) {
	if tc.Timestamps != nil {
		return json.Marshal(tc.Timestamps)
	}
	return json.Marshal(tc.Increments)
}

// Len returns the number of samples in the channel
func (tc TimeChannel) Len() int {
	if tc.Timestamps != nil {
		return len(tc.Timestamps)
	}
	return len(tc.Increments)
}

// Resolve returns per-sample increments in seconds. For timestamps the
// first increment is 0 and the first timestamp is returned as start.
func (tc TimeChannel) Resolve() ([]float64, *time.Time, error) {
	if tc.Timestamps == nil {
		return tc.Increments, nil, nil
	}

	increments := make([]float64, len(tc.Timestamps))
	var start, prev time.Time
	for i, s := range tc.Timestamps {
		ts, err := parseTimestamp(s)
		if err != nil {
			return nil, nil, fmt.Errorf("%w at sample %d: %q", ErrTimestamp, i, s)
		}
		if i == 0 {
			start = ts
		} else {
			increments[i] = ts.Sub(prev).Seconds()
		}
		prev = ts
	}

	if len(tc.Timestamps) == 0 {
		return increments, nil, nil
	}
	return increments, &start, nil
}

// timestampLayouts are the ISO 8601 forms accepted for sample times.
// Timestamps without a zone designator are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var ts time.Time
		if ts, err = time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}

// Validate checks the input can be built without producing degenerate
// statistics
func (in BuildInput) Validate() error {
	n := len(in.Coordinates)
	if n < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewPoints, n)
	}

	if in.PathType != Route && in.PathType != Track {
		return fmt.Errorf("%w: got %q", ErrPathType, in.PathType)
	}

	if in.Elevations.Trusted() && len(in.Elevations.Values) > 0 && len(in.Elevations.Values) != n {
		return fmt.Errorf("elevation: %w (%d != %d)", ErrChannelLength, len(in.Elevations.Values), n)
	}

	// routes drop these channels, so their lengths do not matter
	if in.PathType == Route {
		return nil
	}

	if in.Time != nil && in.Time.Len() != n {
		return fmt.Errorf("time: %w (%d != %d)", ErrChannelLength, in.Time.Len(), n)
	}
	if in.HeartRate != nil && len(in.HeartRate) != n {
		return fmt.Errorf("heart rate: %w (%d != %d)", ErrChannelLength, len(in.HeartRate), n)
	}
	if in.Cadence != nil && len(in.Cadence) != n {
		return fmt.Errorf("cadence: %w (%d != %d)", ErrChannelLength, len(in.Cadence), n)
	}

	return nil
}

// columns assembles the sample columns. In strict mode an unreadable time
// channel fails; otherwise time, heart rate and cadence channels that do not
// line up with the coordinates are left out.
func (in BuildInput) columns(strict bool) (points.Columns, *time.Time, error) {
	n := len(in.Coordinates)
	fits := func(l int) bool { return strict || l == n }

	cols := points.Columns{
		Coordinates: in.coordinates(),
		Elevations:  in.trustedElevations(),
	}
	if in.HeartRate != nil && fits(len(in.HeartRate)) {
		cols.HeartRates = in.HeartRate
	}
	if in.Cadence != nil && fits(len(in.Cadence)) {
		cols.Cadences = in.Cadence
	}

	var start *time.Time
	if in.Time != nil && fits(in.Time.Len()) {
		times, ts, err := in.Time.Resolve()
		switch {
		case err == nil:
			cols.Times, start = times, ts
		case strict:
			return points.Columns{}, nil, err
		}
	}

	return cols, start, nil
}

// coordinates converts the raw pairs
func (in BuildInput) coordinates() []geodesy.Coordinate {
	coords := make([]geodesy.Coordinate, len(in.Coordinates))
	for i, c := range in.Coordinates {
		coords[i] = geodesy.NewCoordinate(c)
	}
	return coords
}

// trustedElevations returns supplied elevations, or nil when there are none
// or they were discarded
func (in BuildInput) trustedElevations() []float64 {
	if !in.Elevations.Trusted() || len(in.Elevations.Values) == 0 {
		return nil
	}
	return in.Elevations.Values
}
