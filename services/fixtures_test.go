package services

import (
	"appraisal-analytics/models"
	"appraisal-analytics/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

func newTestSelector() *ComparableSelector {
	return NewComparableSelector(NewSimilarityScorer(nil), newTestLogger())
}

// baseHome, closeHome and distantHome are the reference trio: closeHome
// nearly matches baseHome, distantHome differs in size, age, rooms,
// neighborhood and location.
func baseHome() models.Property {
	return models.Property{
		ID:           "base",
		Address:      "100 Oak Hill Dr",
		Neighborhood: "Oak Hill",
		PropertyType: "single-family",
		Value:        "500000",
		SquareFeet:   models.Float(2000),
		YearBuilt:    models.Int(2000),
		Bedrooms:     models.Int(3),
		Bathrooms:    models.Float(2),
		LotSize:      models.Float(6000),
		Latitude:     models.Float(32.750),
		Longitude:    models.Float(-97.330),
	}
}

func closeHome() models.Property {
	return models.Property{
		ID:           "close",
		Address:      "104 Oak Hill Dr",
		Neighborhood: "Oak Hill",
		PropertyType: "single-family",
		Value:        "520000",
		SquareFeet:   models.Float(2100),
		YearBuilt:    models.Int(2002),
		Bedrooms:     models.Int(3),
		Bathrooms:    models.Float(2),
		LotSize:      models.Float(6200),
		Latitude:     models.Float(32.755),
		Longitude:    models.Float(-97.335),
	}
}

func distantHome() models.Property {
	return models.Property{
		ID:           "distant",
		Address:      "9 Riverside Ct",
		Neighborhood: "Riverside",
		PropertyType: "single-family",
		Value:        "800000",
		SquareFeet:   models.Float(3500),
		YearBuilt:    models.Int(1970),
		Bedrooms:     models.Int(5),
		Bathrooms:    models.Float(3.5),
		LotSize:      models.Float(12000),
		Latitude:     models.Float(32.850),
		Longitude:    models.Float(-97.200),
	}
}

func condoHome() models.Property {
	return models.Property{
		ID:           "condo",
		Neighborhood: "Oak Hill",
		PropertyType: "condo",
		Value:        "300000",
		SquareFeet:   models.Float(1100),
		YearBuilt:    models.Int(2010),
		Bedrooms:     models.Int(2),
		Bathrooms:    models.Float(1),
		Latitude:     models.Float(32.752),
		Longitude:    models.Float(-97.332),
	}
}

// bareHome has no attributes at all.
func bareHome() models.Property {
	return models.Property{ID: "bare"}
}

func series(points ...float64) []models.TimeSeriesPoint {
	out := make([]models.TimeSeriesPoint, len(points))
	for i, v := range points {
		out[i] = models.TimeSeriesPoint{Year: 2016 + i, Value: v}
	}
	return out
}
