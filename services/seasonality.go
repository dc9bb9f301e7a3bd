package services

import "appraisal-analytics/models"

const (
	minSeasonalPoints = 8
	seasonalDeviation = 0.05
	peakFactor        = 1.02
	troughFactor      = 0.98
	quartersPerYear   = 4
)

// DetectSeasonalPatterns looks for quarter-level cycles in quarterly values
// that start at Q1. At least two years of data are needed; otherwise, or
// when the overall mean is not positive, every factor is 1.
func DetectSeasonalPatterns(quarterly []float64) models.SeasonalPattern {
	pattern := models.SeasonalPattern{
		SeasonalFactors: [4]float64{1, 1, 1, 1},
		PeakQuarters:    []int{},
		TroughQuarters:  []int{},
	}
	if len(quarterly) < minSeasonalPoints {
		return pattern
	}

	overall := mean(quarterly)
	if overall <= 0 || finite(overall, 0) != overall {
		return pattern
	}

	var sums [quartersPerYear]float64
	var counts [quartersPerYear]int
	for i, v := range quarterly {
		q := i % quartersPerYear
		sums[q] += v
		counts[q]++
	}

	for q := 0; q < quartersPerYear; q++ {
		factor := (sums[q] / float64(counts[q])) / overall
		pattern.SeasonalFactors[q] = factor

		if factor-1 > seasonalDeviation || 1-factor > seasonalDeviation {
			pattern.HasSeasonal = true
		}
		switch {
		case factor > peakFactor:
			pattern.PeakQuarters = append(pattern.PeakQuarters, q+1)
		case factor < troughFactor:
			pattern.TroughQuarters = append(pattern.TroughQuarters, q+1)
		}
	}
	return pattern
}
