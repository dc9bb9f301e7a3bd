package services

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appraisal-analytics/models"
)

func TestAnalyzeTrend(t *testing.T) {
	tests := []struct {
		name      string
		start     float64
		end       float64
		direction models.TrendDirection
		growth    float64
	}{
		{"doubling over a decade", 100000, 200000, models.TrendUp, math.Pow(2, 0.1) - 1},
		{"halving over a decade", 200000, 100000, models.TrendDown, math.Pow(0.5, 0.1) - 1},
		{"nearly flat", 100000, 100200, models.TrendStable, math.Pow(1.002, 0.1) - 1},
	}

	ta := NewTrendAnalyzer(2024)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ta.AnalyzeTrend([]models.TimeSeriesPoint{
				{Year: 2020, Value: tt.end},
				{Year: 2010, Value: tt.start},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.direction, got.Direction)
			assert.InDelta(t, tt.growth, got.GrowthRate, 1e-12)
			assert.Equal(t, 10, got.Years)
			assert.Equal(t, tt.start, got.StartValue)
			assert.Equal(t, tt.end, got.EndValue)
			assert.InDelta(t, tt.end-tt.start, got.TotalChange, 1e-9)
			assert.InDelta(t, (tt.end-tt.start)/10, got.AverageAnnualChange, 1e-9)
		})
	}
}

func TestAnalyzeTrendDoubling(t *testing.T) {
	got, err := NewTrendAnalyzer(0).AnalyzeTrend([]models.TimeSeriesPoint{
		{Year: 2010, Value: 100000},
		{Year: 2020, Value: 200000},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.0718, got.GrowthRate, 0.0001)
}

func TestAnalyzeTrendInsufficientData(t *testing.T) {
	ta := NewTrendAnalyzer(2024)

	_, err := ta.AnalyzeTrend([]models.TimeSeriesPoint{{Year: 2020, Value: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 2, ide.Need)
	assert.Equal(t, 1, ide.Have)

	_, err = ta.AnalyzeTrend([]models.TimeSeriesPoint{{Year: 2020, Value: 1}, {Year: 2020, Value: 2}})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestAnalyzeTrendZeroStart(t *testing.T) {
	got, err := NewTrendAnalyzer(2024).AnalyzeTrend([]models.TimeSeriesPoint{
		{Year: 2018, Value: 0},
		{Year: 2020, Value: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.GrowthRate)
	assert.Equal(t, models.TrendStable, got.Direction)
	assert.InDelta(t, 50, got.AverageAnnualChange, 1e-9)
}

func TestToTimeSeries(t *testing.T) {
	ta := NewTrendAnalyzer(2024)

	withHistory := models.Property{
		ID:    "h",
		Value: "450000",
		ValueHistory: models.ValueHistory{
			"2020": "$440,000",
			"2018": "400000",
			"oops": "1",
			"2019": "n/a",
		},
	}
	assert.Equal(t, []models.TimeSeriesPoint{
		{Year: 2018, Value: 400000},
		{Year: 2020, Value: 440000},
	}, ta.ToTimeSeries(&withHistory))

	valueOnly := models.Property{ID: "v", Value: "350000"}
	assert.Equal(t, []models.TimeSeriesPoint{{Year: 2024, Value: 350000}}, ta.ToTimeSeries(&valueOnly))

	empty := ta.ToTimeSeries(&models.Property{ID: "e"})
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestFillGaps(t *testing.T) {
	ta := NewTrendAnalyzer(2024)
	input := []models.TimeSeriesPoint{
		{Year: 2021, Value: 430000},
		{Year: 2018, Value: 400000},
	}
	snapshot := append([]models.TimeSeriesPoint(nil), input...)

	got := ta.FillGaps(input)

	require.Len(t, got, 4)
	assert.Equal(t, models.TimeSeriesPoint{Year: 2018, Value: 400000}, got[0])
	assert.Equal(t, 2019, got[1].Year)
	assert.InDelta(t, 410000, got[1].Value, 1e-6)
	assert.True(t, got[1].Interpolated)
	assert.Equal(t, 2020, got[2].Year)
	assert.InDelta(t, 420000, got[2].Value, 1e-6)
	assert.True(t, got[2].Interpolated)
	assert.Equal(t, models.TimeSeriesPoint{Year: 2021, Value: 430000}, got[3])

	assert.Equal(t, snapshot, input)
}

func TestFillGapsRoundTrip(t *testing.T) {
	ta := NewTrendAnalyzer(2024)
	known := []models.TimeSeriesPoint{
		{Year: 2012, Value: 210000},
		{Year: 2015, Value: 250000},
		{Year: 2016, Value: 262500},
		{Year: 2020, Value: 301000},
	}

	dense := ta.FillGaps(known)
	require.Len(t, dense, 9)

	var kept []models.TimeSeriesPoint
	for i, p := range dense {
		assert.Equal(t, 2012+i, p.Year)
		if !p.Interpolated {
			kept = append(kept, p)
		}
	}
	assert.Equal(t, known, kept)
}

func TestFillGapsShortSeries(t *testing.T) {
	ta := NewTrendAnalyzer(2024)
	assert.Empty(t, ta.FillGaps(nil))

	one := []models.TimeSeriesPoint{{Year: 2020, Value: 1}}
	assert.Equal(t, one, ta.FillGaps(one))
}

func TestCurrentYear(t *testing.T) {
	assert.Equal(t, 2031, NewTrendAnalyzer(2031).CurrentYear())
	assert.Greater(t, NewTrendAnalyzer(0).CurrentYear(), 2000)
}
