package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSeasonalPatternsTooShort(t *testing.T) {
	for _, in := range [][]float64{nil, {1, 2, 3}, {110, 90, 100, 100, 110, 90, 100}} {
		got := DetectSeasonalPatterns(in)
		assert.False(t, got.HasSeasonal)
		assert.Equal(t, [4]float64{1, 1, 1, 1}, got.SeasonalFactors)
		assert.Empty(t, got.PeakQuarters)
		assert.Empty(t, got.TroughQuarters)
	}
}

func TestDetectSeasonalPatterns(t *testing.T) {
	got := DetectSeasonalPatterns([]float64{110, 90, 100, 100, 110, 90, 100, 100})

	assert.True(t, got.HasSeasonal)
	assert.InDelta(t, 1.1, got.SeasonalFactors[0], 1e-9)
	assert.InDelta(t, 0.9, got.SeasonalFactors[1], 1e-9)
	assert.InDelta(t, 1.0, got.SeasonalFactors[2], 1e-9)
	assert.InDelta(t, 1.0, got.SeasonalFactors[3], 1e-9)
	assert.Equal(t, []int{1}, got.PeakQuarters)
	assert.Equal(t, []int{2}, got.TroughQuarters)
}

func TestDetectSeasonalPatternsMildCycle(t *testing.T) {
	// a 3% swing marks peaks and troughs without counting as seasonal
	got := DetectSeasonalPatterns([]float64{100, 100, 103, 97, 100, 100, 103, 97, 100, 100, 103, 97})

	assert.False(t, got.HasSeasonal)
	assert.Equal(t, []int{3}, got.PeakQuarters)
	assert.Equal(t, []int{4}, got.TroughQuarters)
}

func TestDetectSeasonalPatternsFlatOrNonPositive(t *testing.T) {
	flat := DetectSeasonalPatterns([]float64{5, 5, 5, 5, 5, 5, 5, 5})
	assert.False(t, flat.HasSeasonal)
	assert.Empty(t, flat.PeakQuarters)
	assert.Empty(t, flat.TroughQuarters)

	zero := DetectSeasonalPatterns(make([]float64, 8))
	assert.False(t, zero.HasSeasonal)
	assert.Equal(t, [4]float64{1, 1, 1, 1}, zero.SeasonalFactors)
}
