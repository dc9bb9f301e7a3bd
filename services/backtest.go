package services

import (
	"math"

	"appraisal-analytics/models"
	"appraisal-analytics/utils"
)

const (
	minBacktestYears = 4
	// A MAPE of this fraction (20%) or worse scores zero reliability.
	reliabilityMAPEScale = 0.2
)

var backtestHorizons = []int{1, 2}

// Backtester measures how well the per-property forecaster would have done
// had it been run from an earlier year.
type Backtester struct {
	forecaster *PropertyForecaster
	logger     *utils.Logger
}

// NewBacktester creates a Backtester around forecaster.
func NewBacktester(forecaster *PropertyForecaster, logger *utils.Logger) *Backtester {
	return &Backtester{forecaster: forecaster, logger: logger}
}

type backtestSample struct {
	horizon int
	ape     float64
	sqErr   float64
}

// GetForecastAccuracy backtests every property with at least four years of
// history at horizons of one and two years: history is cut back by the
// horizon, forecast forward, and compared to the last known value. With
// nothing to backtest it returns zero errors, zero reliability and an empty
// result list.
func (b *Backtester) GetForecastAccuracy(properties []models.Property) models.ForecastAccuracy {
	acc := models.ForecastAccuracy{BackTestResults: []models.HorizonAccuracy{}}

	var samples []backtestSample
	for i := range properties {
		samples = append(samples, b.backtestProperty(&properties[i])...)
	}
	if len(samples) == 0 {
		b.logger.Debug("[backtest] no backtestable properties among %d", len(properties))
		return acc
	}

	var apeSum, sqSum float64
	for _, s := range samples {
		apeSum += s.ape
		sqSum += s.sqErr
	}
	acc.Samples = len(samples)
	acc.MAPE = apeSum / float64(len(samples))
	acc.RMSE = math.Sqrt(sqSum / float64(len(samples)))
	acc.ReliabilityScore = clamp(1-(acc.MAPE/100)/reliabilityMAPEScale, 0, 1)

	for _, h := range backtestHorizons {
		var sum float64
		n := 0
		for _, s := range samples {
			if s.horizon == h {
				sum += s.ape
				n++
			}
		}
		if n > 0 {
			acc.BackTestResults = append(acc.BackTestResults, models.HorizonAccuracy{
				HorizonYears: h,
				MAPE:         sum / float64(n),
				Samples:      n,
			})
		}
	}

	b.logger.Debug("[backtest] %d samples: MAPE %.2f%%, RMSE %.0f, reliability %.2f",
		acc.Samples, acc.MAPE, acc.RMSE, acc.ReliabilityScore)
	return acc
}

func (b *Backtester) backtestProperty(p *models.Property) []backtestSample {
	entries := p.ValueHistory.Entries()
	if len(entries) < minBacktestYears {
		return nil
	}
	actual := entries[len(entries)-1]
	if actual.Value <= 0 {
		return nil
	}

	var out []backtestSample
	for _, h := range backtestHorizons {
		cutoff := actual.Year - h
		train := make([]models.TimeSeriesPoint, 0, len(entries))
		for _, e := range entries {
			if e.Year <= cutoff {
				train = append(train, models.TimeSeriesPoint{Year: e.Year, Value: e.Value})
			}
		}
		if len(train) == 0 {
			continue
		}

		ahead := actual.Year - train[len(train)-1].Year
		fc := b.forecaster.forecastSeries(train, ahead)
		predicted := fc.Points[ahead-1].Value

		diff := predicted - actual.Value
		out = append(out, backtestSample{
			horizon: h,
			ape:     math.Abs(diff) / actual.Value * 100,
			sqErr:   diff * diff,
		})
	}
	return out
}
