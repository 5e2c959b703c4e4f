package database

import (
	"fmt"
	"time"

	"github.com/stuartshay/path-worker/internal/elevation"
	"github.com/stuartshay/path-worker/internal/path"
)

// TrackInputFromLocations turns a device's location history into track
// build input. Altitude becomes trusted elevation when every location has
// one, otherwise the elevations are marked discarded and refetched. The fix
// time, or the insert time when the fix time is missing, becomes the time
// channel. Locations must be in time order, as GetLocationsByDate returns them.
func TrackInputFromLocations(locations []Location) path.BuildInput {
	in := path.BuildInput{
		PathType:    path.Track,
		Coordinates: make([][2]float64, len(locations)),
		Elevations:  path.Elevations{Values: make([]float64, len(locations))},
	}
	stamps := make([]string, len(locations))
	allAltitude := true

	for i, loc := range locations {
		in.Coordinates[i] = [2]float64{loc.Longitude, loc.Latitude}
		in.Elevations.Values[i] = float64(loc.Altitude)
		allAltitude = allAltitude && loc.HasAltitude
		stamps[i] = locationTime(loc).Format(time.RFC3339)
	}
	if !allAltitude {
		in.Elevations = path.Elevations{Status: elevation.DiscardedMarker}
	}

	if len(locations) > 0 {
		first := locations[0]
		in.Name = fmt.Sprintf("%s %s", first.DeviceID, locationTime(first).Format("2006-01-02"))
		in.Time = &path.TimeChannel{Timestamps: stamps}
	}

	return in
}

func locationTime(loc Location) time.Time {
	if loc.Timestamp > 0 {
		return time.Unix(loc.Timestamp, 0).UTC()
	}
	return loc.CreatedAt.UTC()
}
