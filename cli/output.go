package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"appraisal-analytics/models"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// money renders whole dollars with thousands separators: "$1,250,000".
func money(v float64) string {
	s := decimal.NewFromFloat(v).Round(0).StringFixed(0)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String()
}

func optMoney(v *float64) string {
	if v == nil {
		return "-"
	}
	return money(*v)
}

func optFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func propertyValue(p *models.Property) string {
	if v, ok := p.NumericValue(); ok {
		return money(v)
	}
	return "-"
}

func label(p *models.Property) string {
	if p.Address != "" {
		return p.Address
	}
	return p.ID
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("─", len([]rune(title))))
}

func printSubject(w io.Writer, p *models.Property) {
	fmt.Fprintf(w, "%s (%s)\n", label(p), p.ID)
	fmt.Fprintf(w, "  %s, %s | value %s | %s sqft | %s bd / %s ba | built %s\n",
		orDash(p.Neighborhood), orDash(p.PropertyType), propertyValue(p),
		optFloat(p.SquareFeet, "%.0f"), optInt(p.Bedrooms), optFloat(p.Bathrooms, "%g"),
		optInt(p.YearBuilt))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printComparables(w io.Writer, comps []models.ComparablePropertyResult) {
	if len(comps) == 0 {
		fmt.Fprintln(w, "  No comparables found")
		return
	}
	fmt.Fprintf(w, "  %-3s %-12s %-30s %6s %9s %12s %10s %12s\n",
		"#", "ID", "Address", "Score", "Dist km", "Value", "Size diff", "Price diff")
	for i := range comps {
		c := &comps[i]
		fmt.Fprintf(w, "  %-3d %-12s %-30s %5.1f%% %9s %12s %10s %12s\n",
			i+1, truncate(c.Property.ID, 12), truncate(c.Property.Address, 30), c.Percent(),
			optFloat(c.DistanceKm, "%.2f"), propertyValue(&c.Property),
			optFloat(c.SizeDifference, "%+.0f"), optMoney(c.PriceDifference))
	}
}

func printValuation(w io.Writer, r *models.ValuationAnalysisResult) {
	heading(w, "Neighborhood valuation")
	fmt.Fprintf(w, "  Status          : %s\n", r.ValuationStatus)
	fmt.Fprintf(w, "  $/sqft          : %.2f\n", r.PricePerSquareFoot)
	fmt.Fprintf(w, "  Baseline $/sqft : %.2f (%s)\n", r.BaselinePricePerSquareFoot, r.BaselineSource)
	fmt.Fprintf(w, "  Difference      : %+.2f%%\n", r.PercentageDifference)
	if r.SuggestedValue != nil {
		fmt.Fprintf(w, "  Suggested value : %s (%s - %s)\n",
			money(*r.SuggestedValue), optMoney(r.ValueRangeMin), optMoney(r.ValueRangeMax))
	}
}

func printEstimate(w io.Writer, e *models.ComparableValuation) {
	heading(w, "Comparable estimate")
	if e.EstimatedValue == nil {
		fmt.Fprintln(w, "  No priced comparables, no estimate")
	} else {
		fmt.Fprintf(w, "  Estimated value   : %s (%s - %s)\n",
			money(*e.EstimatedValue), optMoney(e.ValueRangeMin), optMoney(e.ValueRangeMax))
	}
	fmt.Fprintf(w, "  Market percentile : %s\n", optFloat(e.MarketPercentile, "%.1f"))
	fmt.Fprintf(w, "  Confidence        : %.0f/100\n", e.Confidence)
	printComparables(w, e.Comparables)
}

func printForecastPoints(w io.Writer, points []models.ForecastPoint) {
	fmt.Fprintf(w, "  %-6s %14s %14s %14s\n", "Year", "Value", "Lower", "Upper")
	for _, p := range points {
		fmt.Fprintf(w, "  %-6d %14s %14s %14s\n", p.Year, money(p.Value), money(p.LowerBound), money(p.UpperBound))
	}
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintf(w, "  ! %s\n", msg)
	}
}
