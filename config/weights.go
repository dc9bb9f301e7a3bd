package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"appraisal-analytics/models"
)

// Profile is a saved comparable-search setup: similarity weights plus the
// default hard filters.
//
//	weights:
//	  square_feet: 0.30
//	  location: 0.20
//	filters:
//	  same_neighborhood: true
//	  max_distance_km: 5
type Profile struct {
	Weights *models.SimilarityWeights `yaml:"weights"`
	Filters *models.ComparableFilters `yaml:"filters"`
}

// LoadProfile reads a YAML profile. Weights must be finite and
// non-negative; attributes left out keep their default weight.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := validateWeights(p.Weights); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	if p.Filters != nil && p.Filters.Weights != nil {
		if err := validateWeights(p.Filters.Weights); err != nil {
			return nil, fmt.Errorf("profile %s filters: %w", path, err)
		}
	}
	return &p, nil
}

func validateWeights(w *models.SimilarityWeights) error {
	if w == nil {
		return nil
	}
	fields := []struct {
		name  string
		value *float64
	}{
		{"property_type", w.PropertyType},
		{"square_feet", w.SquareFeet},
		{"year_built", w.YearBuilt},
		{"bedrooms", w.Bedrooms},
		{"bathrooms", w.Bathrooms},
		{"lot_size", w.LotSize},
		{"neighborhood", w.Neighborhood},
		{"location", w.Location},
	}
	var errs []error
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if v := *f.value; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			errs = append(errs, fmt.Errorf("weight %s must be a non-negative number, got %v", f.name, v))
		}
	}
	return errors.Join(errs...)
}
