package services

import (
	"fmt"
	"math"

	"appraisal-analytics/models"
	"appraisal-analytics/utils"
)

// NeighborhoodForecaster fans per-property forecasts out over a worker pool
// and reduces them to one neighborhood projection.
type NeighborhoodForecaster struct {
	forecaster *PropertyForecaster
	workers    int
	logger     *utils.Logger
}

// NewNeighborhoodForecaster creates a NeighborhoodForecaster running at most
// workers forecasts at once.
func NewNeighborhoodForecaster(forecaster *PropertyForecaster, workers int, logger *utils.Logger) *NeighborhoodForecaster {
	return &NeighborhoodForecaster{forecaster: forecaster, workers: workers, logger: logger}
}

// ForecastAll runs GenerateValueForecast for every property concurrently.
// The result is index-aligned with properties; entries that could not be
// forecast are nil.
func (n *NeighborhoodForecaster) ForecastAll(properties []models.Property, years int) []*models.PropertyForecast {
	results := make([]*models.PropertyForecast, len(properties))
	pool := utils.NewWorkerPool(n.workers, 0)

	for i := range properties {
		idx := i
		pool.Submit(func() {
			fc, err := n.forecaster.GenerateValueForecast(&properties[idx], years)
			if err != nil {
				n.logger.Debug("[neighborhood] skipping %s: %v", properties[idx].ID, err)
				return
			}
			results[idx] = fc
		})
	}
	pool.Wait()
	return results
}

// Forecast projects the mean value of the properties in neighborhood using
// their mean growth rate. Each property's last known value is first rolled
// forward at its own growth rate to the latest year any member reaches, and
// the points are dated from that year. Reduction happens in input order, so
// the result does not depend on scheduling.
func (n *NeighborhoodForecaster) Forecast(properties []models.Property, neighborhood string, years int) (*models.NeighborhoodForecast, error) {
	if years < 1 {
		return nil, fmt.Errorf("neighborhood forecast: %w", ErrInvalidHorizon)
	}

	members := make([]models.Property, 0)
	for i := range properties {
		if properties[i].Neighborhood == neighborhood {
			members = append(members, properties[i])
		}
	}

	var forecasts []*models.PropertyForecast
	baseYear := 0
	for _, fc := range n.ForecastAll(members, years) {
		if fc == nil {
			continue
		}
		forecasts = append(forecasts, fc)
		baseYear = max(baseYear, fc.CurrentYear)
	}
	if len(forecasts) == 0 {
		return nil, &InsufficientDataError{Op: "neighborhood forecast", Need: 1, Have: 0}
	}

	values := make([]float64, 0, len(forecasts))
	growth := make([]float64, 0, len(forecasts))
	for _, fc := range forecasts {
		lag := float64(baseYear - fc.CurrentYear)
		values = append(values, finite(fc.CurrentValue*math.Pow(1+fc.GrowthRate, lag), fc.CurrentValue))
		growth = append(growth, fc.GrowthRate)
	}

	out := &models.NeighborhoodForecast{
		Neighborhood:      neighborhood,
		BaseYear:          baseYear,
		PropertyCount:     len(members),
		ForecastedCount:   len(values),
		AverageValue:      mean(values),
		AverageGrowthRate: mean(growth),
		Points:            make([]models.ForecastPoint, 0, years),
	}

	spread := math.Max(arimaMinSpread, stdDev(growth))
	for h := 1; h <= years; h++ {
		v := out.AverageValue * math.Pow(1+out.AverageGrowthRate, float64(h))
		margin := v * spread * math.Sqrt(float64(h))
		out.Points = append(out.Points, models.ForecastPoint{
			Year:       baseYear + h,
			Value:      v,
			LowerBound: math.Max(0, v-margin),
			UpperBound: v + margin,
		})
	}

	n.logger.Info("[neighborhood] %s: %d/%d properties forecast, mean growth %.2f%%",
		neighborhood, out.ForecastedCount, out.PropertyCount, out.AverageGrowthRate*100)
	return out, nil
}
