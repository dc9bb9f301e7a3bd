package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appraisal-analytics/models"
)

func newTestForecaster() *Forecaster {
	return NewForecaster(NewTrendAnalyzer(2024), newTestLogger())
}

var allModels = []models.ForecastModel{models.ModelLinear, models.ModelExponential, models.ModelAverage}

func TestForecastRequiresThreePoints(t *testing.T) {
	f := newTestForecaster()
	for _, m := range allModels {
		_, err := f.Forecast(series(100, 110), 3, m)
		require.Error(t, err, m)
		assert.True(t, errors.Is(err, ErrInsufficientData), m)

		var ide *InsufficientDataError
		require.True(t, errors.As(err, &ide))
		assert.Equal(t, minForecastPoints, ide.Need)
		assert.Equal(t, 2, ide.Have)
	}
}

func TestForecastShapeAndWidening(t *testing.T) {
	f := newTestForecaster()
	inputs := map[string][]models.TimeSeriesPoint{
		"rising":   series(100000, 104000, 111000),
		"falling":  series(300000, 200000, 120000),
		"choppy":   series(100000, 180000, 90000, 170000, 95000),
		"flat":     series(250000, 250000, 250000),
		"unsorted": {{Year: 2020, Value: 130}, {Year: 2018, Value: 100}, {Year: 2019, Value: 120}},
	}

	for name, s := range inputs {
		for _, m := range allModels {
			t.Run(name+"/"+string(m), func(t *testing.T) {
				got, err := f.Forecast(s, 5, m)
				require.NoError(t, err)
				require.Len(t, got.Predictions, 5)
				assert.Equal(t, m, got.Model)
				assert.GreaterOrEqual(t, got.Confidence, 0.0)
				assert.LessOrEqual(t, got.Confidence, 1.0)
				assert.NotNil(t, got.Warnings)

				lastYear := sortedCopy(s)[len(s)-1].Year
				for i, p := range got.Predictions {
					assert.Equal(t, lastYear+i+1, p.Year)
					assert.LessOrEqual(t, p.LowerBound, p.Value)
					assert.GreaterOrEqual(t, p.UpperBound, p.Value)
					if i > 0 {
						assert.GreaterOrEqual(t, p.Width(), got.Predictions[i-1].Width())
					}
				}
			})
		}
	}
}

func TestForecastBandNeverNarrowsOnFallingSeries(t *testing.T) {
	f := newTestForecaster()

	got, err := f.Forecast(series(300000, 200000, 120000), 5, models.ModelExponential)
	require.NoError(t, err)
	for i := 1; i < len(got.Predictions); i++ {
		prev, cur := got.Predictions[i-1], got.Predictions[i]
		assert.GreaterOrEqual(t, cur.UpperBound-cur.LowerBound, prev.UpperBound-prev.LowerBound, "horizon %d", i+1)
		assert.GreaterOrEqual(t, cur.UpperBound, cur.Value)
	}
}

func TestWidenTo(t *testing.T) {
	lower, upper := widenTo(10, 20, 5)
	assert.Equal(t, 10.0, lower)
	assert.Equal(t, 20.0, upper)

	lower, upper = widenTo(87040.00000000001, 99840.0, 12800)
	assert.Equal(t, 87040.00000000001, lower)
	assert.GreaterOrEqual(t, upper-lower, 12800.0)
}

func TestForecastLinear(t *testing.T) {
	f := newTestForecaster()

	got, err := f.Forecast(series(100, 110, 120, 130, 140), 3, models.ModelLinear)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
	assert.Empty(t, got.Warnings)
	for i, want := range []float64{150, 160, 170} {
		assert.InDelta(t, want, got.Predictions[i].Value, 1e-9)
		assert.InDelta(t, 0, got.Predictions[i].Width(), 1e-9)
	}
}

func TestForecastLinearNeverNegative(t *testing.T) {
	f := newTestForecaster()

	got, err := f.Forecast(series(300, 200, 100, 50, 10), 6, models.ModelLinear)
	require.NoError(t, err)
	for _, p := range got.Predictions {
		assert.GreaterOrEqual(t, p.Value, 0.0)
	}
}

func TestForecastLinearWarnings(t *testing.T) {
	f := newTestForecaster()

	few, err := f.Forecast(series(100, 110, 120), 2, models.ModelLinear)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, few.Confidence, 1e-9)
	require.Len(t, few.Warnings, 1)
	assert.Contains(t, few.Warnings[0], "historical points")

	noisy, err := f.Forecast(series(100, 200, 100, 200, 100), 2, models.ModelLinear)
	require.NoError(t, err)
	require.NotEmpty(t, noisy.Warnings)
	assert.Contains(t, noisy.Warnings[0], "R²")
}

func TestForecastInterpolationPenalty(t *testing.T) {
	f := newTestForecaster()
	s := series(100, 110, 120, 130, 140)
	s[1].Interpolated = true
	s[3].Interpolated = true

	got, err := f.Forecast(s, 2, models.ModelLinear)
	require.NoError(t, err)
	assert.InDelta(t, 1-0.3*2.0/5, got.Confidence, 1e-9)
}

func TestForecastExponential(t *testing.T) {
	f := newTestForecaster()

	got, err := f.Forecast(series(100000, 110000, 121000, 133100, 146410), 2, models.ModelExponential)
	require.NoError(t, err)

	assert.InDelta(t, exponentialMaxConfidence, got.Confidence, 1e-9)
	assert.Empty(t, got.Warnings)
	assert.InDelta(t, 161051, got.Predictions[0].Value, 1e-6)
	assert.InDelta(t, 177156.1, got.Predictions[1].Value, 1e-6)
}

func TestForecastExponentialVolatile(t *testing.T) {
	f := newTestForecaster()

	got, err := f.Forecast(series(100, 150, 100, 160, 120), 2, models.ModelExponential)
	require.NoError(t, err)
	require.NotEmpty(t, got.Warnings)
	assert.Contains(t, got.Warnings[0], "volatile")
	assert.Less(t, got.Confidence, exponentialMaxConfidence)
}

func TestForecastExponentialUndefinedGrowth(t *testing.T) {
	f := newTestForecaster()

	_, err := f.Forecast(series(0, 100, 200), 2, models.ModelExponential)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestForecastAverage(t *testing.T) {
	f := newTestForecaster()

	got, err := f.Forecast(series(100, 110, 120, 130, 140), 3, models.ModelAverage)
	require.NoError(t, err)

	assert.InDelta(t, averageMaxConfidence, got.Confidence, 1e-9)
	require.Len(t, got.Warnings, 1)
	for _, p := range got.Predictions {
		assert.InDelta(t, 130, p.Value, 1e-9)
	}
}

func TestForecastInvalidArguments(t *testing.T) {
	f := newTestForecaster()
	s := series(100, 110, 120)

	_, err := f.Forecast(s, 0, models.ModelLinear)
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	_, err = f.Forecast(s, 3, models.ForecastModel("prophet"))
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestForecastDeterministic(t *testing.T) {
	f := newTestForecaster()
	s := series(100000, 108000, 113000, 125000)

	for _, m := range allModels {
		a, err := f.Forecast(s, 4, m)
		require.NoError(t, err)
		b, err := f.Forecast(s, 4, m)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}
