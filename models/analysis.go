package models

// SimilarityWeights carries per-attribute weights. Nil fields are filled from
// the default table by MergeWeights.
type SimilarityWeights struct {
	PropertyType *float64 `json:"property_type,omitempty" yaml:"property_type,omitempty"`
	SquareFeet   *float64 `json:"square_feet,omitempty" yaml:"square_feet,omitempty"`
	YearBuilt    *float64 `json:"year_built,omitempty" yaml:"year_built,omitempty"`
	Bedrooms     *float64 `json:"bedrooms,omitempty" yaml:"bedrooms,omitempty"`
	Bathrooms    *float64 `json:"bathrooms,omitempty" yaml:"bathrooms,omitempty"`
	LotSize      *float64 `json:"lot_size,omitempty" yaml:"lot_size,omitempty"`
	Neighborhood *float64 `json:"neighborhood,omitempty" yaml:"neighborhood,omitempty"`
	Location     *float64 `json:"location,omitempty" yaml:"location,omitempty"`
}

// WeightTable is a fully resolved set of similarity weights.
type WeightTable struct {
	PropertyType float64
	SquareFeet   float64
	YearBuilt    float64
	Bedrooms     float64
	Bathrooms    float64
	LotSize      float64
	Neighborhood float64
	Location     float64
}

// DefaultWeights is the weight table used for any attribute the caller does
// not override.
//
//	propertyType 0.15  squareFeet 0.20  yearBuilt 0.10  bedrooms 0.15
//	bathrooms    0.10  lotSize    0.05  neighborhood 0.15  location 0.10
func DefaultWeights() WeightTable {
	return WeightTable{
		PropertyType: 0.15,
		SquareFeet:   0.20,
		YearBuilt:    0.10,
		Bedrooms:     0.15,
		Bathrooms:    0.10,
		LotSize:      0.05,
		Neighborhood: 0.15,
		Location:     0.10,
	}
}

// MergeWeights returns base with every non-nil field of override applied.
// Negative overrides are ignored. Neither argument is modified.
func MergeWeights(base WeightTable, override *SimilarityWeights) WeightTable {
	if override == nil {
		return base
	}
	pick := func(def float64, o *float64) float64 {
		if o == nil || *o < 0 {
			return def
		}
		return *o
	}
	return WeightTable{
		PropertyType: pick(base.PropertyType, override.PropertyType),
		SquareFeet:   pick(base.SquareFeet, override.SquareFeet),
		YearBuilt:    pick(base.YearBuilt, override.YearBuilt),
		Bedrooms:     pick(base.Bedrooms, override.Bedrooms),
		Bathrooms:    pick(base.Bathrooms, override.Bathrooms),
		LotSize:      pick(base.LotSize, override.LotSize),
		Neighborhood: pick(base.Neighborhood, override.Neighborhood),
		Location:     pick(base.Location, override.Location),
	}
}

// IntRange is an inclusive bound; nil ends are open.
type IntRange struct {
	Min *int `json:"min,omitempty" yaml:"min,omitempty"`
	Max *int `json:"max,omitempty" yaml:"max,omitempty"`
}

// Contains reports whether v lies inside the range.
func (r *IntRange) Contains(v int) bool {
	if r == nil {
		return true
	}
	return (r.Min == nil || v >= *r.Min) && (r.Max == nil || v <= *r.Max)
}

// FloatRange is an inclusive bound; nil ends are open.
type FloatRange struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Contains reports whether v lies inside the range.
func (r *FloatRange) Contains(v float64) bool {
	if r == nil {
		return true
	}
	return (r.Min == nil || v >= *r.Min) && (r.Max == nil || v <= *r.Max)
}

// ComparableFilters are hard constraints applied before ranking. A filter is
// skipped whenever the attribute it needs is missing.
type ComparableFilters struct {
	MaxDistanceKm    *float64           `json:"max_distance_km,omitempty" yaml:"max_distance_km,omitempty"`
	SameNeighborhood bool               `json:"same_neighborhood,omitempty" yaml:"same_neighborhood,omitempty"`
	PropertyType     string             `json:"property_type,omitempty" yaml:"property_type,omitempty"`
	Bedrooms         *IntRange          `json:"bedrooms,omitempty" yaml:"bedrooms,omitempty"`
	Bathrooms        *FloatRange        `json:"bathrooms,omitempty" yaml:"bathrooms,omitempty"`
	SquareFeet       *FloatRange        `json:"square_feet,omitempty" yaml:"square_feet,omitempty"`
	YearBuilt        *IntRange          `json:"year_built,omitempty" yaml:"year_built,omitempty"`
	Value            *FloatRange        `json:"value,omitempty" yaml:"value,omitempty"`
	Weights          *SimilarityWeights `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// ComparablePropertyResult is one ranked comparable. SimilarityScore is on
// the [0,1] scale.
type ComparablePropertyResult struct {
	Property        Property `json:"property"`
	SimilarityScore float64  `json:"similarity_score"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	PriceDifference *float64 `json:"price_difference,omitempty"`
	SizeDifference  *float64 `json:"size_difference,omitempty"`
}

// Percent returns the similarity score on the [0,100] scale.
func (r ComparablePropertyResult) Percent() float64 {
	return r.SimilarityScore * 100
}

type ValuationStatus string

const (
	Undervalued ValuationStatus = "undervalued"
	Overvalued  ValuationStatus = "overvalued"
	FairValue   ValuationStatus = "fair-value"
)

// ValuationAnalysisResult is the neighborhood-baseline valuation of one
// property.
type ValuationAnalysisResult struct {
	Property                   Property                   `json:"property"`
	ValuationStatus            ValuationStatus            `json:"valuation_status"`
	PricePerSquareFoot         float64                    `json:"price_per_square_foot"`
	BaselinePricePerSquareFoot float64                    `json:"baseline_price_per_square_foot"`
	BaselineSource             string                     `json:"baseline_source"`
	PercentageDifference       float64                    `json:"percentage_difference"`
	ComparableProperties       []ComparablePropertyResult `json:"comparable_properties"`
	SuggestedValue             *float64                   `json:"suggested_value,omitempty"`
	ValueRangeMin              *float64                   `json:"value_range_min,omitempty"`
	ValueRangeMax              *float64                   `json:"value_range_max,omitempty"`
}

// ComparableValuation is the comparable-average estimate of one property.
// Confidence is on the [0,100] scale.
type ComparableValuation struct {
	Property         Property                   `json:"property"`
	EstimatedValue   *float64                   `json:"estimated_value,omitempty"`
	ValueRangeMin    *float64                   `json:"value_range_min,omitempty"`
	ValueRangeMax    *float64                   `json:"value_range_max,omitempty"`
	MarketPercentile *float64                   `json:"market_percentile,omitempty"`
	Confidence       float64                    `json:"confidence"`
	Comparables      []ComparablePropertyResult `json:"comparables"`
}
