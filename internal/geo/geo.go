// Package geo provides the great-circle distance math behind geofenced
// check-ins. Coordinates are decimal degrees (float64 end to end); the only
// rounding point is the final distance, rounded to the nearest meter.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000

// Distance returns the great-circle distance between two points in whole
// meters, computed with the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) int {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return int(math.Round(earthRadiusMeters * c))
}

// WithinRadius reports whether the point (lat, lon) lies within radiusMeters
// of the center, along with the computed distance.
func WithinRadius(lat, lon, centerLat, centerLon float64, radiusMeters int) (bool, int) {
	d := Distance(lat, lon, centerLat, centerLon)
	return d <= radiusMeters, d
}
