package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toladimeji/crimewatch/internal/model"
)

func TestDistanceKM_KnownPair(t *testing.T) {
	// Austin to Dallas is roughly 293 km great-circle.
	austin := model.Coordinates{Latitude: 30.2672, Longitude: -97.7431}
	dallas := model.Coordinates{Latitude: 32.7767, Longitude: -96.7970}

	d := DistanceKM(austin, dallas)
	assert.InDelta(t, 293, d, 5)
}

func TestDistanceKM_Symmetric(t *testing.T) {
	lagos := model.Coordinates{Latitude: 6.6018, Longitude: 3.3515}
	abuja := model.Coordinates{Latitude: 9.0765, Longitude: 7.3986}

	assert.InDelta(t, DistanceKM(lagos, abuja), DistanceKM(abuja, lagos), 1e-9)
}

func TestDistanceKM_ZeroForEqualPoints(t *testing.T) {
	p := model.Coordinates{Latitude: 6.6018, Longitude: 3.3515}
	assert.InDelta(t, 0, DistanceKM(p, p), 1e-9)
}

func TestDistanceKM_ShortDistance(t *testing.T) {
	// Two points ~1.1 km apart along a meridian.
	a := model.Coordinates{Latitude: 6.60, Longitude: 3.35}
	b := model.Coordinates{Latitude: 6.61, Longitude: 3.35}

	d := DistanceKM(a, b)
	assert.InDelta(t, 1.11, d, 0.05)
}
