package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bluetrust/registry-backend/internal/domain"
)

func seededSimulator(seed int64) *Simulator {
	cfg := DefaultSimulatorConfig()
	cfg.Seed = seed
	return NewSimulator(cfg, nil)
}

func TestAssessDeterministicForSeed(t *testing.T) {
	ctx := context.Background()

	first, err := seededSimulator(42).Assess(ctx, 21.9497, 88.9468, 5.2)
	require.NoError(t, err)
	second, err := seededSimulator(42).Assess(ctx, 21.9497, 88.9468, 5.2)
	require.NoError(t, err)

	assert.Equal(t, first.VegetationIndex, second.VegetationIndex)
	assert.Equal(t, first.Change.Type, second.Change.Type)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestAssessUsesNearestReferenceSite(t *testing.T) {
	sim := seededSimulator(1)

	a, err := sim.Assess(context.Background(), 21.90, 88.90, 5.2)
	require.NoError(t, err)

	assert.Equal(t, "Sundarbans, West Bengal", a.ReferenceSite)
	assert.Equal(t, 0.94, a.Confidence)
}

func TestAssessIndexStaysInPlausibleRange(t *testing.T) {
	sim := seededSimulator(7)
	ctx := context.Background()

	for _, area := range []float64{0.5, 5.2, 50, 500} {
		a, err := sim.Assess(ctx, 20.45, 86.90, area)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, a.VegetationIndex, 50, "area %f", area)
		assert.LessOrEqual(t, a.VegetationIndex, 95, "area %f", area)
	}
}

func TestAssessFallsBackToBaseline(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.Seed = 3
	cfg.SiteToleranceKm = 100
	sim := NewSimulator(cfg, nil)

	// Vienna is outside any reference-site tolerance.
	a, err := sim.Assess(context.Background(), 48.2, 16.3, 2)
	require.NoError(t, err)
	assert.Empty(t, a.ReferenceSite)
	assert.Equal(t, cfg.DefaultConfidence, a.Confidence)
}

func TestAssessRejectsInvalidInput(t *testing.T) {
	sim := seededSimulator(1)
	ctx := context.Background()

	_, err := sim.Assess(ctx, 91, 0, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = sim.Assess(ctx, 20, 80, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = sim.Assess(ctx, 20, 80, -3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssessHonorsCancellation(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.Seed = 1
	cfg.Latency = 5 * time.Second
	sim := NewSimulator(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := sim.Assess(ctx, 21.9497, 88.9468, 5.2)
	assert.ErrorIs(t, err, domain.ErrOracleUnavailable)
}

func TestChangeDistributionIsConfiguration(t *testing.T) {
	cfg := DefaultSimulatorConfig()
	cfg.Seed = 9
	cfg.ChangeWeights = []ChangeWeight{{Type: ChangeDeforestation, Weight: 1.0}}
	sim := NewSimulator(cfg, nil)

	for i := 0; i < 5; i++ {
		a, err := sim.Assess(context.Background(), 21.9497, 88.9468, 5.2)
		require.NoError(t, err)
		assert.Equal(t, ChangeDeforestation, a.Change.Type)
	}
}

func TestTimeSeries(t *testing.T) {
	points := seededSimulator(5).TimeSeries(12)

	require.Len(t, points, 12)
	for _, p := range points {
		assert.GreaterOrEqual(t, p.VegetationIndex, 50)
		assert.LessOrEqual(t, p.VegetationIndex, 95)
		assert.NotEmpty(t, p.Date)
	}
}
