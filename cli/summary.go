package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"appraisal-analytics/models"
	"appraisal-analytics/services"
)

const maxBarWidth = 40

type summaryReport struct {
	Market       *models.MarketReport       `json:"market"`
	Values       services.Summary           `json:"values"`
	ValueBins    []services.HistogramBin    `json:"value_histogram"`
	PPSFBins     []services.HistogramBin    `json:"price_per_sqft_histogram"`
	Correlations []services.CorrelationCell `json:"correlations"`
	Residuals    []services.ResidualPoint   `json:"residuals"`
}

func (a *app) summaryCmd() *cobra.Command {
	var (
		bins  int
		attrs []string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Market insights, distributions, correlations and valuation residuals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, attr := range attrs {
				if !services.IsCorrelationAttribute(attr) {
					return fmt.Errorf("unknown correlation attribute %q (want one of %s)",
						attr, strings.Join(services.CorrelationAttributes, ", "))
				}
			}
			props, err := a.loadProperties()
			if err != nil {
				return err
			}
			eng := a.engine()
			report := a.summarize(eng, props, bins, attrs)

			out := cmd.OutOrStdout()
			if a.asJSON {
				return writeJSON(out, report)
			}
			eng.insights.Print(out, report.Market)
			printSummary(out, report)
			return nil
		},
	}
	cmd.Flags().IntVar(&bins, "bins", 10, "histogram bins")
	cmd.Flags().StringSliceVar(&attrs, "correlate", nil, "attributes for the correlation matrix (default value, squareFeet, yearBuilt, bedrooms, bathrooms, lotSize)")
	return cmd
}

func (a *app) summarize(eng *engine, props []models.Property, bins int, attrs []string) *summaryReport {
	var values, ppsf []float64
	results := make([]models.ValuationAnalysisResult, 0, len(props))
	for i := range props {
		p := &props[i]
		if v, ok := p.NumericValue(); ok {
			values = append(values, v)
		}
		if r, ok := p.PricePerSquareFoot(); ok {
			ppsf = append(ppsf, r)
			results = append(results, eng.valuation.AnalyzePropertyValue(p, props, a.filters()))
		}
	}

	return &summaryReport{
		Market:       eng.insights.Generate(props),
		Values:       services.Describe(values),
		ValueBins:    services.Histogram(values, bins),
		PPSFBins:     services.Histogram(ppsf, bins),
		Correlations: services.CorrelationMatrix(props, attrs),
		Residuals:    services.ResidualMap(results),
	}
}

func printSummary(w io.Writer, r *summaryReport) {
	if r.Values.Count > 0 {
		heading(w, "Value distribution")
		fmt.Fprintf(w, "  mean %s | median %s | std dev %s | IQR %s - %s\n",
			money(r.Values.Mean), money(r.Values.Median), money(r.Values.StdDev),
			money(r.Values.P25), money(r.Values.P75))
		printHistogram(w, r.ValueBins)
	}
	if len(r.PPSFBins) > 0 {
		heading(w, "Price per square foot")
		printHistogram(w, r.PPSFBins)
	}

	heading(w, "Correlations")
	printCorrelations(w, r.Correlations)

	heading(w, "Valuation residuals")
	if len(r.Residuals) == 0 {
		fmt.Fprintln(w, "  No priced properties with coordinates")
		return
	}
	fmt.Fprintf(w, "  %-12s %10s %11s %9s  %-11s %s\n", "ID", "Lat", "Lon", "Residual", "Status", "Color")
	for _, p := range r.Residuals {
		fmt.Fprintf(w, "  %-12s %10.5f %11.5f %+8.1f%%  %-11s %s\n",
			truncate(p.PropertyID, 12), p.Latitude, p.Longitude, p.Residual, p.Status, p.Color)
	}
}

func printHistogram(w io.Writer, bins []services.HistogramBin) {
	peak := 0
	for _, b := range bins {
		peak = max(peak, b.Count)
	}
	for _, b := range bins {
		width := 0
		if peak > 0 {
			width = b.Count * maxBarWidth / peak
		}
		fmt.Fprintf(w, "  %-24s %s %d\n", b.Label, strings.Repeat("█", width), b.Count)
	}
}

// printCorrelations lays the row-major cells out as a square matrix.
func printCorrelations(w io.Writer, cells []services.CorrelationCell) {
	var attrs []string
	for _, c := range cells {
		if c.Row != cells[0].Row {
			break
		}
		attrs = append(attrs, c.Col)
	}
	if len(attrs) == 0 {
		fmt.Fprintln(w, "  No data")
		return
	}

	fmt.Fprintf(w, "  %-14s", "")
	for _, a := range attrs {
		fmt.Fprintf(w, " %10s", truncate(a, 10))
	}
	fmt.Fprintln(w)
	for i, c := range cells {
		if i%len(attrs) == 0 {
			fmt.Fprintf(w, "  %-14s", truncate(c.Row, 14))
		}
		fmt.Fprintf(w, " %10.2f", c.Value)
		if i%len(attrs) == len(attrs)-1 {
			fmt.Fprintln(w)
		}
	}
}
