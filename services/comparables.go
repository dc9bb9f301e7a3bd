package services

import (
	"sort"

	"appraisal-analytics/models"
	"appraisal-analytics/utils"
)

// DefaultMaxComparables is used when the caller passes a non-positive limit.
const DefaultMaxComparables = 5

// ComparableSelector filters a candidate pool and ranks the survivors by
// similarity to a subject property.
type ComparableSelector struct {
	scorer *SimilarityScorer
	logger *utils.Logger
}

// NewComparableSelector creates a selector that ranks with scorer.
func NewComparableSelector(scorer *SimilarityScorer, logger *utils.Logger) *ComparableSelector {
	return &ComparableSelector{scorer: scorer, logger: logger}
}

// Find returns up to maxResults comparables for base, best first. base
// itself (by ID) is never returned and candidates is not modified. Ties keep
// their original relative order.
func (c *ComparableSelector) Find(
	base *models.Property,
	candidates []models.Property,
	filters *models.ComparableFilters,
	maxResults int,
) []models.ComparablePropertyResult {
	results := make([]models.ComparablePropertyResult, 0)
	if base == nil {
		return results
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxComparables
	}

	var weights *models.SimilarityWeights
	if filters != nil {
		weights = filters.Weights
	}

	baseValue, baseHasValue := base.NumericValue()
	filtered := 0

	for i := range candidates {
		cand := &candidates[i]
		if cand.ID == base.ID {
			continue
		}
		if !passesFilters(base, cand, filters) {
			filtered++
			continue
		}

		r := models.ComparablePropertyResult{
			Property:        cand.Clone(),
			SimilarityScore: c.scorer.Score(base, cand, weights),
		}
		if d, ok := distanceBetween(base, cand); ok {
			r.DistanceKm = models.Float(d)
		}
		if v, ok := cand.NumericValue(); ok && baseHasValue {
			r.PriceDifference = models.Float(v - baseValue)
		}
		if base.SquareFeet != nil && cand.SquareFeet != nil {
			r.SizeDifference = models.Float(*cand.SquareFeet - *base.SquareFeet)
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	c.logger.Debug("[comps] %s: %d candidates, %d filtered out, %d returned",
		base.ID, len(candidates), filtered, len(results))
	return results
}

// passesFilters applies the hard constraints. Each check is skipped when the
// attribute it needs is missing on either side.
func passesFilters(base, cand *models.Property, f *models.ComparableFilters) bool {
	if f == nil {
		return true
	}

	if f.MaxDistanceKm != nil {
		if d, ok := distanceBetween(base, cand); ok && d > *f.MaxDistanceKm {
			return false
		}
	}
	if f.SameNeighborhood && base.Neighborhood != "" && cand.Neighborhood != "" &&
		base.Neighborhood != cand.Neighborhood {
		return false
	}
	if f.PropertyType != "" && cand.PropertyType != "" && cand.PropertyType != f.PropertyType {
		return false
	}
	if f.Bedrooms != nil && cand.Bedrooms != nil && !f.Bedrooms.Contains(*cand.Bedrooms) {
		return false
	}
	if f.Bathrooms != nil && cand.Bathrooms != nil && !f.Bathrooms.Contains(*cand.Bathrooms) {
		return false
	}
	if f.SquareFeet != nil && cand.SquareFeet != nil && !f.SquareFeet.Contains(*cand.SquareFeet) {
		return false
	}
	if f.YearBuilt != nil && cand.YearBuilt != nil && !f.YearBuilt.Contains(*cand.YearBuilt) {
		return false
	}
	if f.Value != nil {
		if v, ok := cand.NumericValue(); ok && !f.Value.Contains(v) {
			return false
		}
	}
	return true
}
