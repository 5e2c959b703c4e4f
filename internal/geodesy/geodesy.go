// Package geodesy provides great-circle primitives on a spherical Earth:
// Haversine distance, forward bearing and cross-track distance between
// geographic coordinates given in decimal degrees.
//
// The sphere is an approximation of the WGS84 ellipsoid. Errors of up to
// ~0.5% against Vincenty's formulae are accepted in exchange for speed.
package geodesy

import (
	"math"
)

const (
	// EarthRadiusKM is the equatorial radius of the Earth in kilometers
	EarthRadiusKM = 6378.137

	earthRadiusM = EarthRadiusKM * 1000
)

// Coordinate represents a GPS coordinate in decimal degrees
type Coordinate struct {
	Lng float64
	Lat float64
}

// NewCoordinate builds a Coordinate from a [lng, lat] pair
func NewCoordinate(lngLat [2]float64) Coordinate {
	return Coordinate{Lng: lngLat[0], Lat: lngLat[1]}
}

// LngLat returns the coordinate as a [lng, lat] pair
func (c Coordinate) LngLat() [2]float64 {
	return [2]float64{c.Lng, c.Lat}
}

// Distance calculates the great-circle distance in meters between two
// coordinates using the Haversine formula
//
// Formula:
// h = sin²(Δφ/2) + cos φ1 ⋅ cos φ2 ⋅ sin²(Δλ/2)
// d = 2 ⋅ R ⋅ asin(√h)
//
// where φ is latitude, λ is longitude and R is the Earth's radius.
func Distance(a, b Coordinate) float64 {
	lat1 := degreesToRadians(a.Lat)
	lat2 := degreesToRadians(b.Lat)
	lng1 := degreesToRadians(a.Lng)
	lng2 := degreesToRadians(b.Lng)

	sinLat := math.Sin((lat1 - lat2) / 2)
	sinLng := math.Sin((lng1 - lng2) / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	// rounding can push h fractionally above 1 for antipodal points
	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Bearing returns the initial bearing from a to b in radians, in the
// range (-π, π]
func Bearing(a, b Coordinate) float64 {
	lat1 := degreesToRadians(a.Lat)
	lat2 := degreesToRadians(b.Lat)
	deltaLng := degreesToRadians(b.Lng - a.Lng)

	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(deltaLng)
	y := math.Sin(deltaLng) * math.Cos(lat2)

	return math.Atan2(y, x)
}

// CrossTrackDistance returns the signed distance in meters of point p from
// the great circle through start and end. Positive values lie to the right
// of the direction of travel, negative values to the left.
func CrossTrackDistance(start, end, p Coordinate) float64 {
	angular := Distance(start, p) / earthRadiusM
	delta := Bearing(start, p) - Bearing(start, end)

	return math.Asin(math.Sin(angular)*math.Sin(delta)) * earthRadiusM
}

// PathDistance returns the summed length in meters of consecutive segments
func PathDistance(coords []Coordinate) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += Distance(coords[i-1], coords[i])
	}
	return total
}

// degreesToRadians converts degrees to radians
func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
