package models

// TimeSeriesPoint is one yearly observation. Interpolated points were
// synthesized by gap filling.
type TimeSeriesPoint struct {
	Year         int     `json:"year"`
	Value        float64 `json:"value"`
	Interpolated bool    `json:"interpolated"`
}

type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// TrendAnalysisResult summarises a series between its first and last point.
type TrendAnalysisResult struct {
	Direction           TrendDirection `json:"direction"`
	GrowthRate          float64        `json:"growth_rate"`
	AverageAnnualChange float64        `json:"average_annual_change"`
	TotalChange         float64        `json:"total_change"`
	StartValue          float64        `json:"start_value"`
	EndValue            float64        `json:"end_value"`
	Years               int            `json:"years"`
}

type ForecastModel string

const (
	ModelLinear      ForecastModel = "linear"
	ModelExponential ForecastModel = "exponential"
	ModelAverage     ForecastModel = "average"
)

// ForecastPoint is one projected year with its confidence band.
type ForecastPoint struct {
	Year       int     `json:"year"`
	Value      float64 `json:"value"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// Width returns UpperBound-LowerBound.
func (p ForecastPoint) Width() float64 {
	return p.UpperBound - p.LowerBound
}

// ForecastResult is the output of a caller-selected model.
type ForecastResult struct {
	Predictions []ForecastPoint `json:"predictions"`
	Model       ForecastModel   `json:"model"`
	Confidence  float64         `json:"confidence"`
	Warnings    []string        `json:"warnings"`
}

// Forecast methods chosen automatically by the per-property forecaster.
const (
	MethodARIMA                = "ARIMA"
	MethodExponentialSmoothing = "Exponential Smoothing"
	MethodSimpleTrend          = "Simple Trend"
)

// PropertyForecast is a projection made directly from a property's history.
type PropertyForecast struct {
	PropertyID   string          `json:"property_id"`
	Method       string          `json:"method"`
	CurrentYear  int             `json:"current_year"`
	CurrentValue float64         `json:"current_value"`
	GrowthRate   float64         `json:"growth_rate"`
	Confidence   float64         `json:"confidence"`
	Points       []ForecastPoint `json:"points"`
}

// NeighborhoodForecast aggregates the per-property forecasts of one area.
type NeighborhoodForecast struct {
	Neighborhood      string          `json:"neighborhood"`
	BaseYear          int             `json:"base_year"`
	PropertyCount     int             `json:"property_count"`
	ForecastedCount   int             `json:"forecasted_count"`
	AverageValue      float64         `json:"average_value"`
	AverageGrowthRate float64         `json:"average_growth_rate"`
	Points            []ForecastPoint `json:"points"`
}

// SeasonalPattern describes quarter-level cyclicality. Quarters are 1-based.
type SeasonalPattern struct {
	HasSeasonal     bool       `json:"has_seasonal"`
	SeasonalFactors [4]float64 `json:"seasonal_factors"`
	PeakQuarters    []int      `json:"peak_quarters"`
	TroughQuarters  []int      `json:"trough_quarters"`
}

// HorizonAccuracy is the backtest error for one forecast horizon.
type HorizonAccuracy struct {
	HorizonYears int     `json:"horizon_years"`
	MAPE         float64 `json:"mape"`
	Samples      int     `json:"samples"`
}

// ForecastAccuracy aggregates backtest errors across properties.
type ForecastAccuracy struct {
	MAPE             float64           `json:"mape"`
	RMSE             float64           `json:"rmse"`
	ReliabilityScore float64           `json:"reliability_score"`
	Samples          int               `json:"samples"`
	BackTestResults  []HorizonAccuracy `json:"back_test_results"`
}
