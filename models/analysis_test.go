package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeWeightsFillsDefaults(t *testing.T) {
	def := DefaultWeights()
	got := MergeWeights(def, &SimilarityWeights{
		SquareFeet: Float(0.5),
		Location:   Float(0),
		LotSize:    Float(-1),
	})

	assert.Equal(t, 0.5, got.SquareFeet)
	assert.Equal(t, 0.0, got.Location)
	assert.Equal(t, def.LotSize, got.LotSize, "negative override is ignored")
	assert.Equal(t, def.Bedrooms, got.Bedrooms)
	assert.Equal(t, DefaultWeights(), def, "defaults must not be mutated")
}

func TestMergeWeightsNilOverride(t *testing.T) {
	assert.Equal(t, DefaultWeights(), MergeWeights(DefaultWeights(), nil))
}

func TestRangesAreInclusive(t *testing.T) {
	ir := &IntRange{Min: Int(2), Max: Int(4)}
	assert.True(t, ir.Contains(2))
	assert.True(t, ir.Contains(4))
	assert.False(t, ir.Contains(5))

	fr := &FloatRange{Max: Float(2.5)}
	assert.True(t, fr.Contains(-100))
	assert.True(t, fr.Contains(2.5))
	assert.False(t, fr.Contains(2.51))

	var open *FloatRange
	assert.True(t, open.Contains(1e9))
}
