package gpxfile

import (
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/stuartshay/path-worker/internal/path"
)

// Creator is written into the gpx root element
const Creator = "path-worker"

// Write renders a path document as a GPX 1.1 route. Each sample becomes a
// route point, with an elevation when the document carries them.
func Write(doc path.Document) ([]byte, error) {
	coords := doc.Coordinates()
	if len(coords) == 0 {
		return nil, ErrNoPoints
	}
	withElev := len(doc.Params.Elev) == len(coords)

	rte := gpx.GPXRoute{
		Name:        doc.Info.Name,
		Description: doc.Info.Description,
		Type:        string(doc.Info.PathType),
		Points:      make([]gpx.GPXPoint, len(coords)),
	}
	for i, c := range coords {
		pt := gpx.GPXPoint{Point: gpx.Point{Latitude: c.Lat, Longitude: c.Lng}}
		if withElev {
			pt.Elevation = *gpx.NewNullableFloat64(doc.Params.Elev[i])
		}
		rte.Points[i] = pt
	}

	g := gpx.GPX{
		Version:     "1.1",
		Creator:     Creator,
		Name:        doc.Info.Name,
		Description: doc.Info.Description,
		Routes:      []gpx.GPXRoute{rte},
	}

	data, err := g.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("write gpx: %w", err)
	}
	return data, nil
}
