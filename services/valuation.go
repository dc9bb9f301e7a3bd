package services

import (
	"math"

	"appraisal-analytics/models"
	"appraisal-analytics/utils"
)

const (
	// valuationThresholdPct is the gap (in percent) beyond which a property
	// counts as under- or overvalued.
	valuationThresholdPct   = 10.0
	suggestedRangeFraction  = 0.05
	maxComparableConfidence = 85.0
)

// Baseline sources reported by AnalyzePropertyValue.
const (
	BaselineNeighborhood = "neighborhood"
	BaselineComparables  = "comparables"
	BaselineNone         = "none"
)

// ValuationAnalyzer compares a property's price against its market.
// It offers two independent analyses: a neighborhood price-per-square-foot
// baseline and a comparable-average estimate.
type ValuationAnalyzer struct {
	selector *ComparableSelector
	logger   *utils.Logger
}

// NewValuationAnalyzer creates an analyzer that finds comparables with selector.
func NewValuationAnalyzer(selector *ComparableSelector, logger *utils.Logger) *ValuationAnalyzer {
	return &ValuationAnalyzer{selector: selector, logger: logger}
}

// AnalyzePropertyValue classifies subject against the average price per
// square foot of its neighborhood peers, or of its comparables when it has
// no priced peers. Missing inputs leave the numeric fields at 0 and the
// status at fair-value.
func (a *ValuationAnalyzer) AnalyzePropertyValue(
	subject *models.Property,
	population []models.Property,
	filters *models.ComparableFilters,
) models.ValuationAnalysisResult {
	comps := a.selector.Find(subject, population, filters, DefaultMaxComparables)

	result := models.ValuationAnalysisResult{
		Property:             subject.Clone(),
		ValuationStatus:      models.FairValue,
		BaselineSource:       BaselineNone,
		ComparableProperties: comps,
	}

	subjectPPSF, hasPPSF := subject.PricePerSquareFoot()
	if hasPPSF {
		result.PricePerSquareFoot = subjectPPSF
	}

	if baseline, ok := neighborhoodBaseline(subject, population); ok {
		result.BaselinePricePerSquareFoot = baseline
		result.BaselineSource = BaselineNeighborhood
	} else if baseline, ok := comparableBaseline(comps); ok {
		result.BaselinePricePerSquareFoot = baseline
		result.BaselineSource = BaselineComparables
	}

	baseline := result.BaselinePricePerSquareFoot
	if hasPPSF && baseline > 0 {
		result.PercentageDifference = finite((subjectPPSF-baseline)/baseline*100, 0)
		switch {
		case result.PercentageDifference < -valuationThresholdPct:
			result.ValuationStatus = models.Undervalued
		case result.PercentageDifference > valuationThresholdPct:
			result.ValuationStatus = models.Overvalued
		}
	}

	if baseline > 0 && subject.SquareFeet != nil && *subject.SquareFeet > 0 {
		suggested := *subject.SquareFeet * baseline
		result.SuggestedValue = models.Float(suggested)
		result.ValueRangeMin = models.Float(suggested * (1 - suggestedRangeFraction))
		result.ValueRangeMax = models.Float(suggested * (1 + suggestedRangeFraction))
	}

	a.logger.Debug("[valuation] %s: ppsf=%.2f baseline=%.2f (%s) diff=%.1f%% → %s",
		subject.ID, result.PricePerSquareFoot, baseline, result.BaselineSource,
		result.PercentageDifference, result.ValuationStatus)
	return result
}

func neighborhoodBaseline(subject *models.Property, population []models.Property) (float64, bool) {
	if subject.Neighborhood == "" {
		return 0, false
	}
	var ppsf []float64
	for i := range population {
		p := &population[i]
		if p.ID == subject.ID || p.Neighborhood != subject.Neighborhood {
			continue
		}
		if v, ok := p.PricePerSquareFoot(); ok {
			ppsf = append(ppsf, v)
		}
	}
	if len(ppsf) == 0 {
		return 0, false
	}
	return mean(ppsf), true
}

func comparableBaseline(comps []models.ComparablePropertyResult) (float64, bool) {
	var ppsf []float64
	for i := range comps {
		if v, ok := comps[i].Property.PricePerSquareFoot(); ok {
			ppsf = append(ppsf, v)
		}
	}
	if len(ppsf) == 0 {
		return 0, false
	}
	return mean(ppsf), true
}

// EstimateFromComparables values subject as the mean value of its top-N
// comparables. Confidence is min(85, 50 + 5×count + 20×meanSimilarity) on a
// 0–100 scale; with no priced comparables there is no estimate and the
// confidence is 0.
func (a *ValuationAnalyzer) EstimateFromComparables(
	subject *models.Property,
	population []models.Property,
	filters *models.ComparableFilters,
	topN int,
) models.ComparableValuation {
	comps := a.selector.Find(subject, population, filters, topN)
	result := models.ComparableValuation{
		Property:    subject.Clone(),
		Comparables: comps,
	}

	var values, sims []float64
	for i := range comps {
		if v, ok := comps[i].Property.NumericValue(); ok {
			values = append(values, v)
			sims = append(sims, comps[i].SimilarityScore)
		}
	}

	subjectValue, hasValue := subject.NumericValue()

	if len(values) > 0 {
		result.EstimatedValue = models.Float(mean(values))

		lo, hi := values[0], values[0]
		for _, v := range values[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hasValue {
			lo = math.Min(lo, subjectValue)
			hi = math.Max(hi, subjectValue)
		}
		result.ValueRangeMin = models.Float(lo)
		result.ValueRangeMax = models.Float(hi)

		conf := 50 + 5*float64(len(values)) + 20*mean(sims)
		result.Confidence = clamp(conf, 0, maxComparableConfidence)
	}

	if hasValue {
		if pct, ok := marketPercentile(subject, subjectValue, population); ok {
			result.MarketPercentile = models.Float(pct)
		}
	}

	a.logger.Debug("[valuation] %s: %d priced comparables, confidence %.0f",
		subject.ID, len(values), result.Confidence)
	return result
}

// marketPercentile returns the share of other priced properties valued below
// value, counting ties as half, on a 0–100 scale.
func marketPercentile(subject *models.Property, value float64, population []models.Property) (float64, bool) {
	var below, equal, n float64
	for i := range population {
		p := &population[i]
		if p.ID == subject.ID {
			continue
		}
		v, ok := p.NumericValue()
		if !ok {
			continue
		}
		n++
		switch {
		case v < value:
			below++
		case v == value:
			equal++
		}
	}
	if n == 0 {
		return 0, false
	}
	return clamp((below+equal/2)/n*100, 0, 100), true
}
