// Package geo provides great-circle distance computation for the
// location consistency check.
package geo

import (
	"math"

	"github.com/toladimeji/crimewatch/internal/model"
)

// earthRadiusKM is the mean Earth radius.
const earthRadiusKM = 6371.0088

// DistanceKM returns the haversine great-circle distance between two
// coordinate pairs in kilometers. Symmetric, and zero iff the points are
// equal.
func DistanceKM(a, b model.Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}
