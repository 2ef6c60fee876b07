package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm(t *testing.T) {
	// Sundarbans to Bhitarkanika is roughly 270km.
	d := DistanceKm(21.9497, 88.9468, 20.4500, 86.9000)
	assert.InDelta(t, 270, d, 15)

	assert.Zero(t, DistanceKm(11.45, 79.7833, 11.45, 79.7833))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(21.9497, 88.9468))
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(90.1, 0))
	assert.False(t, ValidCoordinates(0, -180.5))
}

func TestNearest(t *testing.T) {
	catalog := DefaultCatalog()

	// A point just off the Sundarbans should resolve there.
	site, dist, ok := catalog.Nearest(21.90, 88.90)
	require.True(t, ok)
	assert.Equal(t, "Sundarbans, West Bengal", site.Name)
	assert.Less(t, dist, 25.0)

	_, _, ok = NewCatalog(nil).Nearest(21.90, 88.90)
	assert.False(t, ok)
}

func TestNearestWithin(t *testing.T) {
	catalog := DefaultCatalog()

	_, _, ok := catalog.NearestWithin(21.90, 88.90, 50)
	assert.True(t, ok)

	// Central Europe is nowhere near the catalog.
	_, _, ok = catalog.NearestWithin(48.2, 16.3, 500)
	assert.False(t, ok)
}

func TestValidateRestorationSite(t *testing.T) {
	catalog := DefaultCatalog()

	inside := catalog.ValidateRestorationSite(21.9497, 88.9468)
	assert.True(t, inside.Valid)
	assert.Equal(t, "Sundarbans, West Bengal", inside.Site)
	assert.Equal(t, "high", inside.Grade)

	coastal := catalog.ValidateRestorationSite(15.0, 74.0)
	assert.True(t, coastal.Valid)
	assert.Equal(t, "medium", coastal.Grade)

	inland := catalog.ValidateRestorationSite(48.2, 16.3)
	assert.False(t, inland.Valid)
	assert.Equal(t, "low", inland.Grade)
}
