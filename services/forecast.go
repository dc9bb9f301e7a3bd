package services

import (
	"fmt"
	"math"

	"appraisal-analytics/models"
	"appraisal-analytics/utils"
)

const (
	minForecastPoints = 3
	// Series shorter than this lose fewPointsPenalty confidence.
	fewPointsThreshold = 5
	fewPointsPenalty   = 0.1
	// Confidence lost per unit fraction of interpolated points.
	interpolationPenaltyWeight = 0.3

	linearUncertainty      = 0.2
	exponentialUncertainty = 0.25
	averageUncertainty     = 0.15

	exponentialMaxConfidence = 0.9
	averageMaxConfidence     = 0.7
	maxGrowthVariancePenalty = 0.5
	movingAverageWindow      = 3

	linearR2Warning     = 0.7
	growthStdDevWarning = 0.1
)

// Forecaster projects a yearly series forward with a caller-selected model.
type Forecaster struct {
	trend  *TrendAnalyzer
	logger *utils.Logger
}

// NewForecaster creates a Forecaster; trend supplies CAGR for the
// exponential model.
func NewForecaster(trend *TrendAnalyzer, logger *utils.Logger) *Forecaster {
	return &Forecaster{trend: trend, logger: logger}
}

type modelFit struct {
	values      []float64
	confidence  float64
	uncertainty float64
	warnings    []string
}

// Forecast projects series forward by years using model. It needs at least
// three points. Prediction bands are symmetric around the predicted value
// and never narrow as the horizon grows.
func (f *Forecaster) Forecast(series []models.TimeSeriesPoint, years int, model models.ForecastModel) (*models.ForecastResult, error) {
	if years < 1 {
		return nil, fmt.Errorf("forecast: %w", ErrInvalidHorizon)
	}
	if len(series) < minForecastPoints {
		return nil, &InsufficientDataError{Op: "forecast", Need: minForecastPoints, Have: len(series)}
	}

	sorted := sortedCopy(series)
	penalty := interpolationPenalty(sorted)

	var (
		fit modelFit
		err error
	)
	switch model {
	case models.ModelLinear:
		fit = f.fitLinear(sorted, years, penalty)
	case models.ModelExponential:
		fit, err = f.fitExponential(sorted, years, penalty)
	case models.ModelAverage:
		fit = f.fitAverage(sorted, years, penalty)
	default:
		return nil, fmt.Errorf("forecast: %w: %q", ErrUnknownModel, model)
	}
	if err != nil {
		return nil, err
	}

	if len(sorted) < fewPointsThreshold {
		fit.confidence -= fewPointsPenalty
		fit.warnings = append(fit.warnings,
			fmt.Sprintf("only %d historical points available; forecast confidence reduced", len(sorted)))
	}
	confidence := clamp(fit.confidence, 0, 1)

	lastYear := sorted[len(sorted)-1].Year
	predictions := make([]models.ForecastPoint, 0, years)
	halfWidth, prevWidth := 0.0, 0.0
	for h := 1; h <= years; h++ {
		v := fit.values[h-1]
		u := (1 - confidence) * math.Abs(v) * fit.uncertainty * float64(h)
		halfWidth = math.Max(halfWidth, finite(u, 0))
		lower, upper := widenTo(v-halfWidth, v+halfWidth, prevWidth)
		prevWidth = upper - lower
		predictions = append(predictions, models.ForecastPoint{
			Year:       lastYear + h,
			Value:      v,
			LowerBound: lower,
			UpperBound: upper,
		})
	}

	warnings := fit.warnings
	if warnings == nil {
		warnings = []string{}
	}

	f.logger.Debug("[forecast] %s model over %d points: confidence %.2f, %d warnings",
		model, len(sorted), confidence, len(warnings))
	return &models.ForecastResult{
		Predictions: predictions,
		Model:       model,
		Confidence:  confidence,
		Warnings:    warnings,
	}, nil
}

// widenTo raises upper until upper-lower is at least width. Rounding at a
// new centre value can otherwise shave a few ulps off the band.
func widenTo(lower, upper, width float64) (float64, float64) {
	if upper-lower >= width {
		return lower, upper
	}
	upper = lower + width
	for upper-lower < width && !math.IsInf(upper, 1) {
		upper = math.Nextafter(upper, math.Inf(1))
	}
	return lower, upper
}

func interpolationPenalty(series []models.TimeSeriesPoint) float64 {
	if len(series) == 0 {
		return 0
	}
	interpolated := 0
	for _, p := range series {
		if p.Interpolated {
			interpolated++
		}
	}
	return interpolationPenaltyWeight * float64(interpolated) / float64(len(series))
}

// fitLinear regresses value on point index with ordinary least squares.
func (f *Forecaster) fitLinear(series []models.TimeSeriesPoint, years int, penalty float64) modelFit {
	slope, intercept, r2 := linearRegression(series)

	fit := modelFit{
		confidence:  r2 - penalty,
		uncertainty: linearUncertainty,
	}
	if r2 < linearR2Warning {
		fit.warnings = append(fit.warnings,
			fmt.Sprintf("weak linear fit (R² %.2f); values do not follow a straight line", r2))
	}

	n := len(series)
	for h := 1; h <= years; h++ {
		x := float64(n - 1 + h)
		fit.values = append(fit.values, math.Max(0, intercept+slope*x))
	}
	return fit
}

// linearRegression returns slope, intercept and R² of value against index.
// A single point yields a flat line with R² 0; a perfectly flat series
// fits exactly and yields R² 1.
func linearRegression(series []models.TimeSeriesPoint) (slope, intercept, r2 float64) {
	n := float64(len(series))
	if n == 0 {
		return 0, 0, 0
	}

	var sumX, sumY float64
	for i, p := range series {
		sumX += float64(i)
		sumY += p.Value
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for i, p := range series {
		dx := float64(i) - meanX
		sxx += dx * dx
		sxy += dx * (p.Value - meanY)
	}
	if sxx == 0 {
		return 0, meanY, 0
	}
	slope = sxy / sxx
	intercept = meanY - slope*meanX

	var ssRes, ssTot float64
	for i, p := range series {
		pred := intercept + slope*float64(i)
		ssRes += (p.Value - pred) * (p.Value - pred)
		ssTot += (p.Value - meanY) * (p.Value - meanY)
	}
	if ssTot == 0 {
		return slope, intercept, 1
	}
	return slope, intercept, clamp(1-ssRes/ssTot, 0, 1)
}

// fitExponential compounds the series CAGR from the last value.
func (f *Forecaster) fitExponential(series []models.TimeSeriesPoint, years int, penalty float64) (modelFit, error) {
	trend, err := f.trend.AnalyzeTrend(series)
	if err != nil {
		return modelFit{}, err
	}
	if _, ok := compoundGrowth(trend.StartValue, trend.EndValue, trend.Years); !ok {
		return modelFit{}, &InsufficientDataError{
			Op:     "exponential forecast",
			Reason: "growth rate is undefined for non-positive values",
		}
	}

	growthSD := stdDev(yearOverYearGrowth(series))
	fit := modelFit{
		confidence:  exponentialMaxConfidence - math.Min(maxGrowthVariancePenalty, growthSD*2) - penalty,
		uncertainty: exponentialUncertainty,
	}
	if growthSD > growthStdDevWarning {
		fit.warnings = append(fit.warnings,
			fmt.Sprintf("volatile growth history (std dev %.3f); compounding may overshoot", growthSD))
	}

	last := series[len(series)-1].Value
	for h := 1; h <= years; h++ {
		fit.values = append(fit.values, last*math.Pow(1+trend.GrowthRate, float64(h)))
	}
	return fit, nil
}

// yearOverYearGrowth returns the annualised growth between consecutive
// points, skipping pairs that start at a non-positive value.
func yearOverYearGrowth(series []models.TimeSeriesPoint) []float64 {
	rates := make([]float64, 0, len(series))
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		if g, ok := compoundGrowth(prev.Value, cur.Value, cur.Year-prev.Year); ok {
			rates = append(rates, g)
		}
	}
	return rates
}

// fitAverage holds the mean of the last few values flat.
func (f *Forecaster) fitAverage(series []models.TimeSeriesPoint, years int, penalty float64) modelFit {
	window := series
	if len(window) > movingAverageWindow {
		window = window[len(window)-movingAverageWindow:]
	}
	values := make([]float64, len(window))
	for i, p := range window {
		values[i] = p.Value
	}
	avg := mean(values)

	fit := modelFit{
		confidence:  averageMaxConfidence - penalty,
		uncertainty: averageUncertainty,
		warnings:    []string{"moving average ignores trend; it is less precise than the linear and exponential models"},
	}
	for h := 1; h <= years; h++ {
		fit.values = append(fit.values, avg)
	}
	return fit
}
