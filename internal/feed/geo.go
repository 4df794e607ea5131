package feed

import (
	"math"

	"tripshare/internal/model"
)

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two points.
func DistanceKm(a, b model.Coordinates) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(a.Lat))*math.Cos(degreesToRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// Nearby keeps experiences with coordinates within radiusKm of origin.
// Experiences without coordinates are dropped. Order is preserved.
func Nearby(experiences []model.Experience, origin model.Coordinates, radiusKm float64) []model.Experience {
	out := make([]model.Experience, 0, len(experiences))
	for _, exp := range experiences {
		if exp.Coordinates == nil {
			continue
		}
		if DistanceKm(origin, *exp.Coordinates) <= radiusKm {
			out = append(out, exp)
		}
	}
	return out
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
