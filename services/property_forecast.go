package services

import (
	"fmt"
	"math"

	"appraisal-analytics/models"
	"appraisal-analytics/utils"
)

const (
	// Histories at least this many years long use compound-growth ("ARIMA").
	arimaMinYears = 5
	// defaultGrowthRate is the conservative growth assumed without history.
	defaultGrowthRate = 0.03
	smoothingAlpha    = 0.5

	arimaBaseConfidence     = 0.8
	smoothingBaseConfidence = 0.65
	simpleTrendConfidence   = 0.4

	arimaMinSpread     = 0.03
	smoothingMinSpread = 0.05
	simpleTrendSpread  = 0.10
)

// PropertyForecaster projects a property's value straight from its value
// history, choosing the method from how much history there is.
type PropertyForecaster struct {
	trend  *TrendAnalyzer
	logger *utils.Logger
}

// NewPropertyForecaster creates a PropertyForecaster.
func NewPropertyForecaster(trend *TrendAnalyzer, logger *utils.Logger) *PropertyForecaster {
	return &PropertyForecaster{trend: trend, logger: logger}
}

// GenerateValueForecast projects p forward by years. Five or more observed
// years use compound growth (labelled ARIMA), two to four use smoothed
// growth (Exponential Smoothing), and anything shorter falls back to a
// Simple Trend of 3% a year from the current value. Gaps in the history are
// filled before fitting and lower the confidence in proportion to the
// interpolated share. Bands widen with the square root of the horizon. It
// fails only when p has no value at all.
func (f *PropertyForecaster) GenerateValueForecast(p *models.Property, years int) (*models.PropertyForecast, error) {
	if years < 1 {
		return nil, fmt.Errorf("value forecast: %w", ErrInvalidHorizon)
	}
	raw := f.trend.ToTimeSeries(p)
	if len(raw) == 0 {
		return nil, &InsufficientDataError{Op: "value forecast", Need: 1, Have: 0}
	}

	fc := f.forecastSeries(raw, years)
	fc.PropertyID = p.ID

	f.logger.Debug("[forecast] %s: %s from %d, growth %.4f, confidence %.2f",
		p.ID, fc.Method, fc.CurrentYear, fc.GrowthRate, fc.Confidence)
	return fc, nil
}

// forecastSeries projects a non-empty series of observed points.
func (f *PropertyForecaster) forecastSeries(observed []models.TimeSeriesPoint, years int) *models.PropertyForecast {
	observed = sortedCopy(observed)
	dense := f.trend.FillGaps(observed)
	last := dense[len(dense)-1]
	fc := &models.PropertyForecast{
		CurrentYear:  last.Year,
		CurrentValue: last.Value,
		Points:       make([]models.ForecastPoint, 0, years),
	}

	var spread float64
	trend, err := f.trend.AnalyzeTrend(dense)
	growth, growthOK := 0.0, false
	if err == nil {
		growth, growthOK = compoundGrowth(trend.StartValue, trend.EndValue, trend.Years)
	}
	// rates come from real observations; interpolated years would only
	// repeat the same step and understate volatility
	rates := yearOverYearGrowth(observed)
	sd := stdDev(rates)
	penalty := interpolationPenalty(dense)

	switch {
	case !growthOK:
		fc.Method = models.MethodSimpleTrend
		fc.GrowthRate = defaultGrowthRate
		fc.Confidence = clamp(simpleTrendConfidence-penalty, 0, 1)
		spread = simpleTrendSpread
	case len(observed) >= arimaMinYears:
		fc.Method = models.MethodARIMA
		fc.GrowthRate = growth
		fc.Confidence = clamp(arimaBaseConfidence-math.Min(0.4, sd*2)-penalty, 0, 1)
		spread = math.Max(arimaMinSpread, sd)
	default:
		fc.Method = models.MethodExponentialSmoothing
		fc.GrowthRate = smoothedGrowth(rates, growth)
		fc.Confidence = clamp(smoothingBaseConfidence-math.Min(0.3, sd*2)-penalty, 0, 1)
		spread = math.Max(smoothingMinSpread, 1.5*sd)
	}

	for h := 1; h <= years; h++ {
		v := finite(fc.CurrentValue*math.Pow(1+fc.GrowthRate, float64(h)), fc.CurrentValue)
		margin := math.Abs(v) * spread * math.Sqrt(float64(h))
		fc.Points = append(fc.Points, models.ForecastPoint{
			Year:       fc.CurrentYear + h,
			Value:      v,
			LowerBound: math.Max(0, v-margin),
			UpperBound: v + margin,
		})
	}
	return fc
}

// smoothedGrowth exponentially smooths year-over-year rates, most recent
// weighted highest. With no rates it returns fallback.
func smoothedGrowth(rates []float64, fallback float64) float64 {
	if len(rates) == 0 {
		return fallback
	}
	s := rates[0]
	for _, r := range rates[1:] {
		s = smoothingAlpha*r + (1-smoothingAlpha)*s
	}
	return s
}
