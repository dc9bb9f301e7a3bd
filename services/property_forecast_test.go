package services

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appraisal-analytics/models"
)

func newTestPropertyForecaster() *PropertyForecaster {
	return NewPropertyForecaster(NewTrendAnalyzer(2024), newTestLogger())
}

// growingHistory returns n yearly values ending in 2020, compounding at rate.
func growingHistory(n int, start, rate float64) models.ValueHistory {
	h := make(models.ValueHistory, n)
	for i := 0; i < n; i++ {
		year := 2020 - n + 1 + i
		h[strconv.Itoa(year)] = strconv.FormatFloat(start*math.Pow(1+rate, float64(i)), 'f', 6, 64)
	}
	return h
}

func TestGenerateValueForecastMethodSelection(t *testing.T) {
	tests := []struct {
		name    string
		history models.ValueHistory
		method  string
		growth  float64
	}{
		{"six years", growingHistory(6, 400000, 0.05), models.MethodARIMA, 0.05},
		{"five years", growingHistory(5, 400000, 0.04), models.MethodARIMA, 0.04},
		{"three years", growingHistory(3, 400000, 0.05), models.MethodExponentialSmoothing, 0.05},
		{"two years", growingHistory(2, 400000, 0.06), models.MethodExponentialSmoothing, 0.06},
		{"one year", growingHistory(1, 400000, 0), models.MethodSimpleTrend, defaultGrowthRate},
	}

	f := newTestPropertyForecaster()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Property{ID: "p", Value: "999999", ValueHistory: tt.history}
			got, err := f.GenerateValueForecast(&p, 4)
			require.NoError(t, err)

			assert.Equal(t, "p", got.PropertyID)
			assert.Equal(t, tt.method, got.Method)
			assert.InDelta(t, tt.growth, got.GrowthRate, 1e-9)
			assert.Equal(t, 2020, got.CurrentYear)
			require.Len(t, got.Points, 4)
			for i, pt := range got.Points {
				assert.Equal(t, 2021+i, pt.Year)
				assert.InDelta(t, got.CurrentValue*math.Pow(1+got.GrowthRate, float64(i+1)), pt.Value, 1e-6)
				assert.GreaterOrEqual(t, pt.LowerBound, 0.0)
				if i > 0 {
					assert.Greater(t, pt.Width(), got.Points[i-1].Width())
				}
			}
		})
	}
}

func TestGenerateValueForecastConfidence(t *testing.T) {
	f := newTestPropertyForecaster()

	arima := models.Property{ID: "a", ValueHistory: growingHistory(6, 400000, 0.05)}
	got, err := f.GenerateValueForecast(&arima, 1)
	require.NoError(t, err)
	assert.InDelta(t, arimaBaseConfidence, got.Confidence, 1e-6)
	// steady growth keeps the spread at its floor
	assert.InDelta(t, got.Points[0].Value*arimaMinSpread*2, got.Points[0].Width(), 1e-3)

	smooth := models.Property{ID: "s", ValueHistory: growingHistory(3, 400000, 0.05)}
	got, err = f.GenerateValueForecast(&smooth, 1)
	require.NoError(t, err)
	assert.InDelta(t, smoothingBaseConfidence, got.Confidence, 1e-6)
}

func TestGenerateValueForecastCurrentValueOnly(t *testing.T) {
	f := newTestPropertyForecaster()
	p := models.Property{ID: "v", Value: "350000"}

	got, err := f.GenerateValueForecast(&p, 2)
	require.NoError(t, err)

	assert.Equal(t, models.MethodSimpleTrend, got.Method)
	assert.Equal(t, 2024, got.CurrentYear)
	assert.Equal(t, simpleTrendConfidence, got.Confidence)
	require.Len(t, got.Points, 2)
	assert.InDelta(t, 360500, got.Points[0].Value, 1e-6)
	assert.InDelta(t, 360500*0.9, got.Points[0].LowerBound, 1e-6)
	assert.InDelta(t, 360500*1.1, got.Points[0].UpperBound, 1e-6)
}

func TestGenerateValueForecastSmoothsRecentGrowth(t *testing.T) {
	f := newTestPropertyForecaster()
	// 10% then 0% then 20%: smoothing weights the latest rate most
	p := models.Property{ID: "s", ValueHistory: models.ValueHistory{
		"2017": "100000",
		"2018": "110000",
		"2019": "110000",
		"2020": "132000",
	}}

	got, err := f.GenerateValueForecast(&p, 1)
	require.NoError(t, err)
	assert.Equal(t, models.MethodExponentialSmoothing, got.Method)
	assert.InDelta(t, 0.125, got.GrowthRate, 1e-9)
}

func TestGenerateValueForecastSparseHistory(t *testing.T) {
	f := newTestPropertyForecaster()
	p := models.Property{ID: "g", ValueHistory: models.ValueHistory{
		"2016": "400000",
		"2020": "480000",
	}}

	got, err := f.GenerateValueForecast(&p, 1)
	require.NoError(t, err)
	// two observations pick the method even though gap filling adds three years
	assert.Equal(t, models.MethodExponentialSmoothing, got.Method)
	assert.InDelta(t, math.Pow(1.2, 0.25)-1, got.GrowthRate, 1e-9)
	assert.InDelta(t, smoothingBaseConfidence-0.3*3.0/5, got.Confidence, 1e-9)
}

func TestGenerateValueForecastSparserHistoryIsNotMoreConfident(t *testing.T) {
	f := newTestPropertyForecaster()
	sparse := models.Property{ID: "sparse", ValueHistory: models.ValueHistory{
		"2010": "300000",
		"2020": "450000",
	}}
	dense := models.Property{ID: "dense", ValueHistory: models.ValueHistory{
		"2018": "400000",
		"2019": "420000",
		"2020": "441000",
	}}

	s, err := f.GenerateValueForecast(&sparse, 1)
	require.NoError(t, err)
	d, err := f.GenerateValueForecast(&dense, 1)
	require.NoError(t, err)

	assert.Equal(t, models.MethodExponentialSmoothing, s.Method)
	assert.Equal(t, models.MethodExponentialSmoothing, d.Method)
	assert.Less(t, s.Confidence, d.Confidence)
}

func TestGenerateValueForecastErrors(t *testing.T) {
	f := newTestPropertyForecaster()

	_, err := f.GenerateValueForecast(&models.Property{ID: "none"}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)

	p := models.Property{ID: "v", Value: "350000"}
	_, err = f.GenerateValueForecast(&p, 0)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestSmoothedGrowth(t *testing.T) {
	assert.Equal(t, 0.07, smoothedGrowth(nil, 0.07))
	assert.Equal(t, 0.1, smoothedGrowth([]float64{0.1}, 0))
	assert.InDelta(t, 0.125, smoothedGrowth([]float64{0.1, 0, 0.2}, 0), 1e-12)
}
