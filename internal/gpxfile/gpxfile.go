// Package gpxfile reads GPX documents into path build input.
package gpxfile

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/stuartshay/path-worker/internal/elevation"
	"github.com/stuartshay/path-worker/internal/path"
)

// ErrNoPoints is returned for GPX documents without track or route points
var ErrNoPoints = errors.New("gpx contains no track or route points")

// Parse converts a GPX document into build input. Track points win over
// route points. An empty pathType picks Track for track points and Route
// for route points.
//
// Elevations are kept only when every point has one; otherwise the status
// is marked discarded so the builder fetches them. Times are kept only when
// every point has a timestamp.
func Parse(data []byte, pathType path.Type) (path.BuildInput, error) {
	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return path.BuildInput{}, fmt.Errorf("parse gpx: %w", err)
	}

	in := path.BuildInput{
		Name:        doc.Name,
		Description: doc.Description,
	}

	var pts []gpx.GPXPoint
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			pts = append(pts, seg.Points...)
		}
		if in.Name == "" {
			in.Name = trk.Name
		}
		if in.Description == "" {
			in.Description = trk.Description
		}
	}
	in.PathType = path.Track

	fromRoutes := false
	if len(pts) == 0 {
		fromRoutes = true
		for _, rte := range doc.Routes {
			pts = append(pts, rte.Points...)
			if in.Name == "" {
				in.Name = rte.Name
			}
			if in.Description == "" {
				in.Description = rte.Description
			}
		}
		in.PathType = path.Route
	}

	if len(pts) == 0 {
		return path.BuildInput{}, ErrNoPoints
	}
	if pathType != "" {
		in.PathType = pathType
	}

	in.Coordinates = make([][2]float64, len(pts))
	elevs := make([]float64, len(pts))
	stamps := make([]string, len(pts))
	allElev, allTime := true, true
	raw := rawTimes(data, fromRoutes)
	if len(raw) != len(pts) {
		raw = nil
	}

	for i, p := range pts {
		in.Coordinates[i] = [2]float64{p.Longitude, p.Latitude}

		if p.Elevation.NotNull() {
			elevs[i] = p.Elevation.Value()
		} else {
			allElev = false
		}

		ts := p.Timestamp
		if raw != nil {
			if precise, err := time.Parse(time.RFC3339Nano, raw[i]); err == nil {
				ts = precise
			}
		}
		if ts.IsZero() {
			allTime = false
		} else {
			stamps[i] = ts.UTC().Format(time.RFC3339Nano)
		}
	}

	if allElev {
		in.Elevations = path.Elevations{Values: elevs}
	} else {
		in.Elevations = path.Elevations{Status: elevation.DiscardedMarker}
	}
	if allTime {
		in.Time = &path.TimeChannel{Timestamps: stamps}
	}

	return in, nil
}

type rawPoint struct {
	Time string `xml:"time"`
}

type rawGPX struct {
	Tracks []struct {
		Segments []struct {
			Points []rawPoint `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
	Routes []struct {
		Points []rawPoint `xml:"rtept"`
	} `xml:"rte"`
}

// rawTimes returns the unparsed <time> text of every track point, or of
// every route point when fromRoutes is set, in document order. gpxgo drops
// fractional seconds, so sub-second sampling is read from here. Returns
// nil when the document cannot be decoded a second time.
func rawTimes(data []byte, fromRoutes bool) []string {
	var doc rawGPX
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil
	}

	var times []string
	if fromRoutes {
		for _, rte := range doc.Routes {
			for _, p := range rte.Points {
				times = append(times, strings.TrimSpace(p.Time))
			}
		}
		return times
	}
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				times = append(times, strings.TrimSpace(p.Time))
			}
		}
	}
	return times
}
