package services

import (
	"fmt"
	"math"
	"sort"

	"appraisal-analytics/models"
)

const (
	defaultHistogramBins = 10
	// Residuals at or beyond this percentage get the full color.
	residualColorCap = 50.0
)

// HistogramBin is one bucket of a histogram. Max is exclusive except for
// the last bin.
type HistogramBin struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
	Label string  `json:"label"`
}

// Histogram buckets values into bins equal-width bins. Non-finite values are
// ignored; a single distinct value produces a single bin.
func Histogram(values []float64, bins int) []HistogramBin {
	if bins <= 0 {
		bins = defaultHistogramBins
	}
	clean := finiteValues(values)
	out := make([]HistogramBin, 0, bins)
	if len(clean) == 0 {
		return out
	}

	lo, hi := clean[0], clean[0]
	for _, v := range clean {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return append(out, HistogramBin{Min: lo, Max: hi, Count: len(clean), Label: binLabel(lo, hi)})
	}

	// Work in halves so hi-lo cannot overflow for values near ±MaxFloat64.
	halfLo := lo / 2
	step := (hi/2 - halfLo) / float64(bins)
	edge := func(i int) float64 {
		if i == bins {
			return hi
		}
		return 2 * (halfLo + step*float64(i))
	}
	for i := 0; i < bins; i++ {
		bMin, bMax := edge(i), edge(i+1)
		out = append(out, HistogramBin{Min: bMin, Max: bMax, Label: binLabel(bMin, bMax)})
	}
	for _, v := range clean {
		pos := (v/2 - halfLo) / step
		idx := bins - 1
		if pos < float64(bins) {
			idx = max(0, int(pos))
		}
		out[idx].Count++
	}
	return out
}

func binLabel(lo, hi float64) string {
	return fmt.Sprintf("%.0f–%.0f", lo, hi)
}

// Attributes understood by CorrelationMatrix.
const (
	AttrValue         = "value"
	AttrSalePrice     = "salePrice"
	AttrLandValue     = "landValue"
	AttrTaxAssessment = "taxAssessment"
	AttrSquareFeet    = "squareFeet"
	AttrYearBuilt     = "yearBuilt"
	AttrBedrooms      = "bedrooms"
	AttrBathrooms     = "bathrooms"
	AttrLotSize       = "lotSize"
)

// DefaultCorrelationAttributes is the attribute set used when none is given.
var DefaultCorrelationAttributes = []string{
	AttrValue, AttrSquareFeet, AttrYearBuilt, AttrBedrooms, AttrBathrooms, AttrLotSize,
}

// CorrelationAttributes lists every attribute CorrelationMatrix accepts.
var CorrelationAttributes = []string{
	AttrValue, AttrSalePrice, AttrLandValue, AttrTaxAssessment,
	AttrSquareFeet, AttrYearBuilt, AttrBedrooms, AttrBathrooms, AttrLotSize,
}

// IsCorrelationAttribute reports whether attr is accepted by
// CorrelationMatrix.
func IsCorrelationAttribute(attr string) bool {
	for _, a := range CorrelationAttributes {
		if a == attr {
			return true
		}
	}
	return false
}

// CorrelationCell is one entry of a correlation matrix.
type CorrelationCell struct {
	Row     string  `json:"row"`
	Col     string  `json:"col"`
	Value   float64 `json:"value"`
	Samples int     `json:"samples"`
}

// CorrelationMatrix returns Pearson correlations between every pair of
// attributes, row-major. Each cell uses only the properties that have both
// attributes; fewer than two such properties, or zero variance, gives 0.
func CorrelationMatrix(properties []models.Property, attributes []string) []CorrelationCell {
	if len(attributes) == 0 {
		attributes = DefaultCorrelationAttributes
	}
	cells := make([]CorrelationCell, 0, len(attributes)*len(attributes))
	for _, row := range attributes {
		for _, col := range attributes {
			var xs, ys []float64
			for i := range properties {
				x, okX := attributeValue(&properties[i], row)
				y, okY := attributeValue(&properties[i], col)
				if okX && okY {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			cells = append(cells, CorrelationCell{Row: row, Col: col, Value: pearson(xs, ys), Samples: len(xs)})
		}
	}
	return cells
}

// attributeValue reads one attribute; non-finite readings count as missing.
func attributeValue(p *models.Property, attr string) (float64, bool) {
	v, ok := rawAttribute(p, attr)
	if !ok || !isFinite(v) {
		return 0, false
	}
	return v, true
}

func rawAttribute(p *models.Property, attr string) (float64, bool) {
	switch attr {
	case AttrValue:
		return p.NumericValue()
	case AttrSalePrice:
		return p.NumericSalePrice()
	case AttrLandValue:
		return p.NumericLandValue()
	case AttrTaxAssessment:
		return p.NumericTaxAssessment()
	case AttrSquareFeet:
		if p.SquareFeet != nil {
			return *p.SquareFeet, true
		}
	case AttrYearBuilt:
		if p.YearBuilt != nil {
			return float64(*p.YearBuilt), true
		}
	case AttrBedrooms:
		if p.Bedrooms != nil {
			return float64(*p.Bedrooms), true
		}
	case AttrBathrooms:
		if p.Bathrooms != nil {
			return *p.Bathrooms, true
		}
	case AttrLotSize:
		if p.LotSize != nil {
			return *p.LotSize, true
		}
	}
	return 0, false
}

func pearson(xs, ys []float64) float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return clamp(sxy/math.Sqrt(sxx*syy), -1, 1)
}

// ResidualPoint places a valuation residual on a map.
type ResidualPoint struct {
	PropertyID string                 `json:"property_id"`
	Latitude   float64                `json:"latitude"`
	Longitude  float64                `json:"longitude"`
	Residual   float64                `json:"residual"`
	Status     models.ValuationStatus `json:"status"`
	Color      string                 `json:"color"`
}

// ResidualMap turns valuation results into colored map points. Overvalued
// properties shade toward red and undervalued toward green, with intensity
// proportional to the percentage gap up to 50%. Results without
// coordinates are left out.
func ResidualMap(results []models.ValuationAnalysisResult) []ResidualPoint {
	points := make([]ResidualPoint, 0, len(results))
	for i := range results {
		r := &results[i]
		if !r.Property.HasCoordinates() {
			continue
		}
		points = append(points, ResidualPoint{
			PropertyID: r.Property.ID,
			Latitude:   *r.Property.Latitude,
			Longitude:  *r.Property.Longitude,
			Residual:   r.PercentageDifference,
			Status:     r.ValuationStatus,
			Color:      ResidualColor(r.PercentageDifference),
		})
	}
	return points
}

// ResidualColor maps a percentage gap to a hex color: white at 0, pure red
// at +50% or more, pure green at −50% or less.
func ResidualColor(residual float64) string {
	intensity := clamp(math.Abs(finite(residual, 0))/residualColorCap, 0, 1)
	fade := int(math.Round(255 * (1 - intensity)))
	if residual >= 0 {
		return fmt.Sprintf("#ff%02x%02x", fade, fade)
	}
	return fmt.Sprintf("#%02xff%02x", fade, fade)
}

// Summary holds descriptive statistics of a sample.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// Describe computes descriptive statistics, ignoring non-finite values.
func Describe(values []float64) Summary {
	clean := finiteValues(values)
	if len(clean) == 0 {
		return Summary{}
	}
	sort.Float64s(clean)
	return Summary{
		Count:  len(clean),
		Mean:   mean(clean),
		Median: percentile(clean, 50),
		StdDev: stdDev(clean),
		Min:    clean[0],
		Max:    clean[len(clean)-1],
		P25:    percentile(clean, 25),
		P75:    percentile(clean, 75),
	}
}

// percentile interpolates linearly within a sorted sample.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

func finiteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// ChartRow is one year of a combined history/forecast chart.
type ChartRow struct {
	Year      int      `json:"year"`
	Actual    *float64 `json:"actual,omitempty"`
	Predicted *float64 `json:"predicted,omitempty"`
	Lower     *float64 `json:"lower,omitempty"`
	Upper     *float64 `json:"upper,omitempty"`
}

// ForecastChart merges a history series and its forecast into year-ordered
// rows. The last historical year also carries the predicted value so the
// two lines join up.
func ForecastChart(history []models.TimeSeriesPoint, predictions []models.ForecastPoint) []ChartRow {
	byYear := make(map[int]*ChartRow)
	row := func(year int) *ChartRow {
		if r, ok := byYear[year]; ok {
			return r
		}
		r := &ChartRow{Year: year}
		byYear[year] = r
		return r
	}

	for _, p := range history {
		row(p.Year).Actual = models.Float(p.Value)
	}
	if len(history) > 0 && len(predictions) > 0 {
		last := sortedCopy(history)[len(history)-1]
		r := row(last.Year)
		r.Predicted = models.Float(last.Value)
		r.Lower = models.Float(last.Value)
		r.Upper = models.Float(last.Value)
	}
	for _, p := range predictions {
		r := row(p.Year)
		r.Predicted = models.Float(p.Value)
		r.Lower = models.Float(p.LowerBound)
		r.Upper = models.Float(p.UpperBound)
	}

	out := make([]ChartRow, 0, len(byYear))
	for _, r := range byYear {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
