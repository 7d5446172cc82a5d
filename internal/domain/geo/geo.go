// Package geo provides great-circle distance math and geofence checks for
// on-site verification.
package geo

import "math"

// earthRadiusMiles is the mean radius of the Earth in statute miles.
const earthRadiusMiles = 3959.0

const milesToMeters = 1609.34

// DistanceMiles returns the haversine great-circle distance in miles between
// two coordinates.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

// MilesToMeters converts a distance in statute miles to meters.
func MilesToMeters(miles float64) float64 {
	return miles * milesToMeters
}

// Result is the outcome of a geofence check: whether the reported position is
// within the fence, and how far from the center it was.
type Result struct {
	Within        bool
	DistanceMiles float64
}

// WithinRadius checks a reported position against a circular geofence centered
// on (centerLat, centerLon) with the given radius in meters.
func WithinRadius(centerLat, centerLon, lat, lon float64, radiusM int) Result {
	miles := DistanceMiles(centerLat, centerLon, lat, lon)
	return Result{
		Within:        MilesToMeters(miles) <= float64(radiusM),
		DistanceMiles: miles,
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
