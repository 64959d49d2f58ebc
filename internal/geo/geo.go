package geo

import "math"

const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters between two points.
// It is symmetric and monotonic in angular separation.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	if a > 1 {
		a = 1
	}
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}

// Within reports whether the two points lie at most radiusMeters apart.
func Within(lat1, lng1, lat2, lng2, radiusMeters float64) bool {
	return Haversine(lat1, lng1, lat2, lng2) <= radiusMeters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
