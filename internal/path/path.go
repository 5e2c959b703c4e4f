// Package path builds finished route and track aggregates from raw
// trajectory input: simplification for routes, elevation reconciliation,
// shape categorisation and statistics.
package path

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/stuartshay/path-worker/internal/analysis"
	"github.com/stuartshay/path-worker/internal/geodesy"
	"github.com/stuartshay/path-worker/internal/points"
)

// Path is a finished, read-only route or track. It owns its point
// sequence; rebuild it to change anything.
type Path struct {
	Type          Type
	Name          string
	Description   string
	StartTime     *time.Time
	Category      analysis.Category
	BoundingBox   geodesy.BoundingBox
	Stats         analysis.Stats
	SimplifyRatio float64

	seq points.Sequence
}

// Sequence returns a copy of the path's samples
func (p *Path) Sequence() points.Sequence {
	samples := make([]points.Sample, len(p.seq.Samples))
	copy(samples, p.seq.Samples)
	return points.Sequence{Samples: samples, Channels: p.seq.Channels}
}

// Channels returns the optional channels present on the path
func (p *Path) Channels() points.Channels {
	return p.seq.Channels
}

// Document is the serialisable form of a Path handed to storage and API
// clients
type Document struct {
	ID       string            `json:"id,omitempty"`
	Geometry *geojson.Geometry `json:"geometry"`
	Info     Info              `json:"info"`
	Params   Params            `json:"params"`
	Stats    analysis.Stats    `json:"stats"`
}

// Info describes the path
type Info struct {
	Category    analysis.Category `json:"category"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	PathType    Type              `json:"pathType"`
	StartTime   *time.Time        `json:"startTime,omitempty"`
}

// Params holds the per-sample channels actually present on the path
type Params struct {
	Time      []float64 `json:"time,omitempty"`
	Elev      []float64 `json:"elev,omitempty"`
	HeartRate []int     `json:"heartRate,omitempty"`
	Cadence   []int     `json:"cadence,omitempty"`
}

// Document assembles the serialisable form of the path
func (p *Path) Document() Document {
	line := make(orb.LineString, len(p.seq.Samples))
	for i, s := range p.seq.Samples {
		line[i] = orb.Point{s.Lng, s.Lat}
	}

	return Document{
		Geometry: geojson.NewGeometry(line),
		Info: Info{
			Category:    p.Category,
			Name:        p.Name,
			Description: p.Description,
			PathType:    p.Type,
			StartTime:   p.StartTime,
		},
		Params: Params{
			Time:      p.seq.Times(),
			Elev:      p.seq.Elevations(),
			HeartRate: p.seq.HeartRates(),
			Cadence:   p.seq.Cadences(),
		},
		Stats: p.Stats,
	}
}

// Coordinates returns the document geometry as coordinates, or nil when
// the geometry is not a line string
func (d Document) Coordinates() []geodesy.Coordinate {
	if d.Geometry == nil {
		return nil
	}
	line, ok := d.Geometry.Coordinates.(orb.LineString)
	if !ok {
		return nil
	}

	coords := make([]geodesy.Coordinate, len(line))
	for i, pt := range line {
		coords[i] = geodesy.Coordinate{Lng: pt.Lon(), Lat: pt.Lat()}
	}
	return coords
}
