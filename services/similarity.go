package services

import (
	"math"

	"appraisal-analytics/models"
)

const (
	// yearBuiltHorizon is the age gap at which year-built similarity hits 0.
	yearBuiltHorizon = 50.0
	// locationHorizonKm is the distance at which location similarity hits 0.
	locationHorizonKm = 10.0
)

// SimilarityScorer computes a weighted [0,1] similarity between two
// properties. Attributes missing on either side are skipped and the result
// is renormalised by the weight that was actually applied.
type SimilarityScorer struct {
	weights models.WeightTable
}

// NewSimilarityScorer creates a scorer whose base table is the default table
// merged with override (which may be nil).
func NewSimilarityScorer(override *models.SimilarityWeights) *SimilarityScorer {
	return &SimilarityScorer{weights: models.MergeWeights(models.DefaultWeights(), override)}
}

type weightedSum struct {
	total   float64
	applied float64
}

func (w *weightedSum) add(similarity, weight float64) {
	if weight <= 0 {
		return
	}
	w.total += clamp(similarity, 0, 1) * weight
	w.applied += weight
}

func (w *weightedSum) result() float64 {
	if w.applied <= 0 {
		return 0
	}
	return clamp(w.total/w.applied, 0, 1)
}

// Score returns the similarity of candidate to base. A property is never
// similar to itself: equal IDs score 0. override, when non-nil, is merged on
// top of the scorer's own table for this call only.
func (s *SimilarityScorer) Score(base, candidate *models.Property, override *models.SimilarityWeights) float64 {
	if base == nil || candidate == nil || base.ID == candidate.ID {
		return 0
	}
	w := models.MergeWeights(s.weights, override)

	var sum weightedSum

	if base.PropertyType != "" && candidate.PropertyType != "" {
		sum.add(matchScore(base.PropertyType == candidate.PropertyType), w.PropertyType)
	}
	if base.Neighborhood != "" && candidate.Neighborhood != "" {
		sum.add(matchScore(base.Neighborhood == candidate.Neighborhood), w.Neighborhood)
	}
	if known(base.SquareFeet) && known(candidate.SquareFeet) {
		sum.add(proportionalSimilarity(*base.SquareFeet, *candidate.SquareFeet), w.SquareFeet)
	}
	if known(base.LotSize) && known(candidate.LotSize) {
		sum.add(proportionalSimilarity(*base.LotSize, *candidate.LotSize), w.LotSize)
	}
	if base.YearBuilt != nil && candidate.YearBuilt != nil {
		sum.add(yearBuiltSimilarity(*base.YearBuilt, *candidate.YearBuilt), w.YearBuilt)
	}
	if base.Bedrooms != nil && candidate.Bedrooms != nil {
		sum.add(bedroomSimilarity(*base.Bedrooms, *candidate.Bedrooms), w.Bedrooms)
	}
	if known(base.Bathrooms) && known(candidate.Bathrooms) {
		sum.add(bathroomSimilarity(*base.Bathrooms, *candidate.Bathrooms), w.Bathrooms)
	}
	if d, ok := distanceBetween(base, candidate); ok {
		sum.add(1-math.Min(d, locationHorizonKm)/locationHorizonKm, w.Location)
	}

	return sum.result()
}

// known reports whether an optional attribute is present and finite.
func known(v *float64) bool {
	return v != nil && isFinite(*v)
}

func matchScore(equal bool) float64 {
	if equal {
		return 1
	}
	return 0
}

// proportionalSimilarity is max(0, 1-|Δ|/base). A non-positive base has no
// meaningful proportion and scores 0.
func proportionalSimilarity(base, candidate float64) float64 {
	if !isFinite(base) || !isFinite(candidate) || base <= 0 {
		return 0
	}
	return math.Max(0, 1-math.Abs(candidate-base)/base)
}

func yearBuiltSimilarity(base, candidate int) float64 {
	diff := math.Abs(float64(candidate - base))
	return 1 - math.Min(diff, yearBuiltHorizon)/yearBuiltHorizon
}

func bedroomSimilarity(base, candidate int) float64 {
	switch diff := absInt(candidate - base); diff {
	case 0:
		return 1
	case 1:
		return 0.8
	case 2:
		return 0.4
	default:
		return 0
	}
}

func bathroomSimilarity(base, candidate float64) float64 {
	diff := math.Abs(candidate - base)
	switch {
	case diff == 0:
		return 1
	case diff <= 0.5:
		return 0.8
	case diff <= 1:
		return 0.6
	case diff <= 1.5:
		return 0.3
	default:
		return 0
	}
}
