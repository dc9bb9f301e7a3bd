package services

import (
	"math"
	"sort"
	"time"

	"appraisal-analytics/models"
)

// trendThreshold is the CAGR magnitude below which a trend is "stable".
const trendThreshold = 0.005

// TrendAnalyzer turns value histories into yearly series and summarises them.
type TrendAnalyzer struct {
	currentYear int
}

// NewTrendAnalyzer creates an analyzer. currentYear dates the single-point
// series built for properties without history; 0 means the wall-clock year.
func NewTrendAnalyzer(currentYear int) *TrendAnalyzer {
	return &TrendAnalyzer{currentYear: currentYear}
}

// CurrentYear returns the year used for current-value points.
func (t *TrendAnalyzer) CurrentYear() int {
	if t.currentYear > 0 {
		return t.currentYear
	}
	return time.Now().Year()
}

// ToTimeSeries converts a property's value history into a year-sorted series.
// Without usable history it falls back to one point holding the current
// value, and to an empty series when that is missing too.
func (t *TrendAnalyzer) ToTimeSeries(p *models.Property) []models.TimeSeriesPoint {
	series := make([]models.TimeSeriesPoint, 0)
	if p == nil {
		return series
	}
	for _, e := range p.ValueHistory.Entries() {
		series = append(series, models.TimeSeriesPoint{Year: e.Year, Value: e.Value})
	}
	if len(series) == 0 {
		if v, ok := p.NumericValue(); ok {
			series = append(series, models.TimeSeriesPoint{Year: t.CurrentYear(), Value: v})
		}
	}
	return series
}

// FillGaps returns a dense yearly series covering the input's span. Missing
// years are linearly interpolated between the nearest known years on either
// side and flagged Interpolated; a missing year without a known neighbour
// on both sides is omitted. Known points are copied unchanged.
func (t *TrendAnalyzer) FillGaps(series []models.TimeSeriesPoint) []models.TimeSeriesPoint {
	known := sortedCopy(series)
	if len(known) < 2 {
		return known
	}

	byYear := make(map[int]models.TimeSeriesPoint, len(known))
	for _, p := range known {
		byYear[p.Year] = p
	}

	first, last := known[0].Year, known[len(known)-1].Year
	out := make([]models.TimeSeriesPoint, 0, last-first+1)
	for year := first; year <= last; year++ {
		if p, ok := byYear[year]; ok {
			out = append(out, p)
			continue
		}
		prev, hasPrev := nearestKnown(known, year, -1)
		next, hasNext := nearestKnown(known, year, +1)
		if !hasPrev || !hasNext {
			continue
		}
		frac := float64(year-prev.Year) / float64(next.Year-prev.Year)
		out = append(out, models.TimeSeriesPoint{
			Year:         year,
			Value:        prev.Value + (next.Value-prev.Value)*frac,
			Interpolated: true,
		})
	}
	return out
}

// nearestKnown finds the closest point before (dir<0) or after (dir>0) year.
func nearestKnown(known []models.TimeSeriesPoint, year, dir int) (models.TimeSeriesPoint, bool) {
	if dir < 0 {
		for i := len(known) - 1; i >= 0; i-- {
			if known[i].Year < year {
				return known[i], true
			}
		}
		return models.TimeSeriesPoint{}, false
	}
	for _, p := range known {
		if p.Year > year {
			return p, true
		}
	}
	return models.TimeSeriesPoint{}, false
}

// AnalyzeTrend summarises the change between the first and last point.
// It needs at least two points spanning at least one year.
func (t *TrendAnalyzer) AnalyzeTrend(series []models.TimeSeriesPoint) (*models.TrendAnalysisResult, error) {
	if len(series) < 2 {
		return nil, &InsufficientDataError{Op: "analyze trend", Need: 2, Have: len(series)}
	}
	sorted := sortedCopy(series)
	start, end := sorted[0], sorted[len(sorted)-1]
	years := end.Year - start.Year
	if years < 1 {
		return nil, &InsufficientDataError{Op: "analyze trend", Reason: "series spans less than one year"}
	}

	total := end.Value - start.Value
	result := &models.TrendAnalysisResult{
		Direction:           models.TrendStable,
		TotalChange:         total,
		AverageAnnualChange: total / float64(years),
		StartValue:          start.Value,
		EndValue:            end.Value,
		Years:               years,
	}
	if g, ok := compoundGrowth(start.Value, end.Value, years); ok {
		result.GrowthRate = g
	}

	switch {
	case result.GrowthRate > trendThreshold:
		result.Direction = models.TrendUp
	case result.GrowthRate < -trendThreshold:
		result.Direction = models.TrendDown
	}
	return result, nil
}

// compoundGrowth is the CAGR (end/start)^(1/years)-1. It is undefined for a
// non-positive start, a negative end or a zero span.
func compoundGrowth(start, end float64, years int) (float64, bool) {
	if start <= 0 || end < 0 || years < 1 {
		return 0, false
	}
	g := math.Pow(end/start, 1/float64(years)) - 1
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return 0, false
	}
	return g, true
}

func sortedCopy(series []models.TimeSeriesPoint) []models.TimeSeriesPoint {
	out := make([]models.TimeSeriesPoint, len(series))
	copy(out, series)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
