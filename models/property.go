package models

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Property is a single real-estate record. Every attribute is optional:
// string fields use "" for absent, numeric fields use nil. Monetary fields
// are kept as the decimal strings the data layer delivers and are read
// through ParseAmount.
type Property struct {
	ID           string `json:"id"`
	Address      string `json:"address,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	PropertyType string `json:"property_type,omitempty"`

	Value         string `json:"value,omitempty"`
	SalePrice     string `json:"sale_price,omitempty"`
	LandValue     string `json:"land_value,omitempty"`
	TaxAssessment string `json:"tax_assessment,omitempty"`

	SquareFeet *float64 `json:"square_feet,omitempty"`
	YearBuilt  *int     `json:"year_built,omitempty"`
	Bedrooms   *int     `json:"bedrooms,omitempty"`
	Bathrooms  *float64 `json:"bathrooms,omitempty"`
	LotSize    *float64 `json:"lot_size,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`

	ValueHistory ValueHistory `json:"value_history,omitempty"`

	SourceURL string `json:"source_url,omitempty"`
}

// ValueHistory maps a year ("2019") to a decimal-string value. It may be sparse.
type ValueHistory map[string]string

// Float returns a pointer to v, for building optional attributes.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building optional attributes.
func Int(v int) *int { return &v }

// NumericValue returns the parsed assessed/market value.
func (p *Property) NumericValue() (float64, bool) {
	return ParseAmount(p.Value)
}

// NumericSalePrice returns the parsed last sale price.
func (p *Property) NumericSalePrice() (float64, bool) {
	return ParseAmount(p.SalePrice)
}

// NumericLandValue returns the parsed land value.
func (p *Property) NumericLandValue() (float64, bool) {
	return ParseAmount(p.LandValue)
}

// NumericTaxAssessment returns the parsed tax assessment.
func (p *Property) NumericTaxAssessment() (float64, bool) {
	return ParseAmount(p.TaxAssessment)
}

// HasCoordinates reports whether both latitude and longitude are known and
// finite.
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil && isFinite(*p.Latitude) && isFinite(*p.Longitude)
}

// PricePerSquareFoot returns value/squareFeet, or false when either side is
// missing, not positive or not finite.
func (p *Property) PricePerSquareFoot() (float64, bool) {
	v, ok := p.NumericValue()
	if !ok || v <= 0 || p.SquareFeet == nil || *p.SquareFeet <= 0 || !isFinite(*p.SquareFeet) {
		return 0, false
	}
	r := v / *p.SquareFeet
	if !isFinite(r) {
		return 0, false
	}
	return r, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clone returns a copy of p whose value history can be modified without
// touching the original.
func (p Property) Clone() Property {
	if p.ValueHistory != nil {
		h := make(ValueHistory, len(p.ValueHistory))
		for k, v := range p.ValueHistory {
			h[k] = v
		}
		p.ValueHistory = h
	}
	return p
}

// YearValue is one parsed entry of a ValueHistory.
type YearValue struct {
	Year  int
	Value float64
}

// Entries parses the history into year-ordered pairs. Keys that are not
// years and values that are not amounts are dropped.
func (h ValueHistory) Entries() []YearValue {
	out := make([]YearValue, 0, len(h))
	for k, raw := range h {
		year, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			continue
		}
		v, ok := ParseAmount(raw)
		if !ok {
			continue
		}
		out = append(out, YearValue{Year: year, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
