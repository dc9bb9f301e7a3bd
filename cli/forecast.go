package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"appraisal-analytics/models"
	"appraisal-analytics/services"
)

const modelAuto = "auto"

type forecastReport struct {
	PropertyID    string                      `json:"property_id"`
	Model         string                      `json:"model"`
	Trend         *models.TrendAnalysisResult `json:"trend,omitempty"`
	History       services.Summary            `json:"history"`
	Result        *models.ForecastResult      `json:"result,omitempty"`
	ValueForecast *models.PropertyForecast    `json:"value_forecast,omitempty"`
	Chart         []services.ChartRow         `json:"chart"`
}

func parseModel(s string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case modelAuto, string(models.ModelLinear), string(models.ModelExponential), string(models.ModelAverage):
		return m, nil
	}
	return "", fmt.Errorf("%w: %q (want auto, linear, exponential or average)", services.ErrUnknownModel, s)
}

func (a *app) forecastCmd() *cobra.Command {
	var (
		model string
		years int
	)

	cmd := &cobra.Command{
		Use:   "forecast <property-id>",
		Short: "Forecast a property's value",
		Long: `Forecast a property's value from its value history.

--model auto picks the method from the length of the history. linear,
exponential and average fit that model to the gap-filled series and need at
least three years; with less history the command falls back to auto.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseModel(model)
			if err != nil {
				return err
			}
			if years <= 0 {
				years = a.cfg.ForecastYears
			}

			props, err := a.loadProperties()
			if err != nil {
				return err
			}
			subject, err := findProperty(props, args[0])
			if err != nil {
				return err
			}

			report, err := a.forecast(a.engine(), subject, m, years)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.asJSON {
				return writeJSON(out, report)
			}
			printSubject(out, subject)
			printForecastReport(out, report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", modelAuto, "auto, linear, exponential or average")
	cmd.Flags().IntVarP(&years, "years", "y", 0, "forecast horizon in years (default FORECAST_YEARS)")
	return cmd
}

func (a *app) forecast(eng *engine, p *models.Property, model string, years int) (*forecastReport, error) {
	raw := eng.trend.ToTimeSeries(p)
	series := eng.trend.FillGaps(raw)

	values := make([]float64, len(raw))
	for i, pt := range raw {
		values[i] = pt.Value
	}
	report := &forecastReport{PropertyID: p.ID, Model: model, History: services.Describe(values)}
	if trend, err := eng.trend.AnalyzeTrend(raw); err == nil {
		report.Trend = trend
	}

	if model != modelAuto {
		res, err := eng.forecaster.Forecast(series, years, models.ForecastModel(model))
		switch {
		case err == nil:
			report.Result = res
			report.Chart = services.ForecastChart(series, res.Predictions)
			return report, nil
		case errors.Is(err, services.ErrInsufficientData):
			a.logger.Warn("[forecast] %s: %v; falling back to auto", p.ID, err)
			report.Model = modelAuto
		default:
			return nil, err
		}
	}

	fc, err := eng.valueFcst.GenerateValueForecast(p, years)
	if err != nil {
		return nil, err
	}
	report.ValueForecast = fc
	report.Chart = services.ForecastChart(series, fc.Points)
	return report, nil
}

func printForecastReport(out io.Writer, r *forecastReport) {
	if r.Trend != nil {
		heading(out, "Trend")
		fmt.Fprintf(out, "  %s, CAGR %.2f%%, %s over %d years (%s/yr)\n",
			r.Trend.Direction, r.Trend.GrowthRate*100, money(r.Trend.TotalChange),
			r.Trend.Years, money(r.Trend.AverageAnnualChange))
	}
	if r.History.Count > 0 {
		fmt.Fprintf(out, "  History: %d points, mean %s, median %s, range %s - %s\n",
			r.History.Count, money(r.History.Mean), money(r.History.Median),
			money(r.History.Min), money(r.History.Max))
	}

	switch {
	case r.Result != nil:
		heading(out, fmt.Sprintf("Forecast (%s, confidence %.0f%%)", r.Result.Model, r.Result.Confidence*100))
		printForecastPoints(out, r.Result.Predictions)
		printWarnings(out, r.Result.Warnings)
	case r.ValueForecast != nil:
		fc := r.ValueForecast
		heading(out, fmt.Sprintf("Forecast (%s, confidence %.0f%%)", fc.Method, fc.Confidence*100))
		fmt.Fprintf(out, "  From %s in %d, growth %.2f%%/yr\n", money(fc.CurrentValue), fc.CurrentYear, fc.GrowthRate*100)
		printForecastPoints(out, fc.Points)
	}
}

func (a *app) neighborhoodCmd() *cobra.Command {
	var years int

	cmd := &cobra.Command{
		Use:   "neighborhood <name>",
		Short: "Project the mean value of a neighborhood",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if years <= 0 {
				years = a.cfg.ForecastYears
			}
			props, err := a.loadProperties()
			if err != nil {
				return err
			}

			fc, err := a.engine().neighborhood.Forecast(props, args[0], years)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.asJSON {
				return writeJSON(out, fc)
			}
			heading(out, "Neighborhood forecast: "+fc.Neighborhood)
			fmt.Fprintf(out, "  %d of %d properties forecast, mean value %s in %d, mean growth %.2f%%/yr\n",
				fc.ForecastedCount, fc.PropertyCount, money(fc.AverageValue), fc.BaseYear, fc.AverageGrowthRate*100)
			printForecastPoints(out, fc.Points)
			return nil
		},
	}
	cmd.Flags().IntVarP(&years, "years", "y", 0, "forecast horizon in years (default FORECAST_YEARS)")
	return cmd
}

func (a *app) backtestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backtest",
		Short: "Measure forecast accuracy on the collection's own history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := a.loadProperties()
			if err != nil {
				return err
			}
			acc := a.engine().backtester.GetForecastAccuracy(props)

			out := cmd.OutOrStdout()
			if a.asJSON {
				return writeJSON(out, acc)
			}
			heading(out, "Forecast accuracy")
			if acc.Samples == 0 {
				fmt.Fprintln(out, "  No property has enough history to backtest")
				return nil
			}
			fmt.Fprintf(out, "  Samples     : %d\n", acc.Samples)
			fmt.Fprintf(out, "  MAPE        : %.2f%%\n", acc.MAPE)
			fmt.Fprintf(out, "  RMSE        : %s\n", money(acc.RMSE))
			fmt.Fprintf(out, "  Reliability : %.0f/100\n", acc.ReliabilityScore*100)
			for _, h := range acc.BackTestResults {
				fmt.Fprintf(out, "  %d-year horizon: MAPE %.2f%% over %d samples\n", h.HorizonYears, h.MAPE, h.Samples)
			}
			return nil
		},
	}
}

func (a *app) seasonalityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seasonality <q1> <q2> <q3> <q4> <q1> ...",
		Short: "Detect quarterly seasonality in a value series starting at Q1",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]float64, 0, len(args))
			for _, s := range args {
				v, ok := models.ParseAmount(s)
				if !ok {
					return fmt.Errorf("not a number: %q", s)
				}
				values = append(values, v)
			}

			pattern := services.DetectSeasonalPatterns(values)
			out := cmd.OutOrStdout()
			if a.asJSON {
				return writeJSON(out, pattern)
			}
			heading(out, "Seasonality")
			fmt.Fprintf(out, "  Seasonal : %t\n", pattern.HasSeasonal)
			for q, f := range pattern.SeasonalFactors {
				fmt.Fprintf(out, "  Q%d factor: %.3f\n", q+1, f)
			}
			fmt.Fprintf(out, "  Peaks    : %v\n", pattern.PeakQuarters)
			fmt.Fprintf(out, "  Troughs  : %v\n", pattern.TroughQuarters)
			return nil
		},
	}
}
