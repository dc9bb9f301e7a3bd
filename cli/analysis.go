package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"appraisal-analytics/models"
)

func (a *app) compsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "comps <property-id>",
		Short: "Rank the most similar properties",
		Long: `Rank the collection by similarity to one property.

Filters and weight overrides come from the --weights profile.

Examples:
  appraise comps P-1001
  appraise comps P-1001 --max 10 --weights profiles/suburban.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := a.loadProperties()
			if err != nil {
				return err
			}
			subject, err := findProperty(props, args[0])
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = a.cfg.MaxComparables
			}

			comps := a.engine().selector.Find(subject, props, a.filters(), limit)
			out := cmd.OutOrStdout()
			if a.asJSON {
				return writeJSON(out, comps)
			}
			printSubject(out, subject)
			heading(out, fmt.Sprintf("Top %d comparables", limit))
			printComparables(out, comps)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "max", "n", 0, "max comparables (default MAX_COMPARABLES)")
	return cmd
}

type valueReport struct {
	Valuation models.ValuationAnalysisResult `json:"valuation"`
	Estimate  models.ComparableValuation     `json:"estimate"`
}

func (a *app) valueCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "value <property-id>",
		Short: "Value a property against its neighborhood and comparables",
		Long: `Run both valuation analyses for one property: the neighborhood
price-per-square-foot classification and the comparable-average estimate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := a.loadProperties()
			if err != nil {
				return err
			}
			subject, err := findProperty(props, args[0])
			if err != nil {
				return err
			}
			if top <= 0 {
				top = a.cfg.MaxComparables
			}

			eng := a.engine()
			report := valueReport{
				Valuation: eng.valuation.AnalyzePropertyValue(subject, props, a.filters()),
				Estimate:  eng.valuation.EstimateFromComparables(subject, props, a.filters(), top),
			}

			out := cmd.OutOrStdout()
			if a.asJSON {
				return writeJSON(out, report)
			}
			printSubject(out, subject)
			printValuation(out, &report.Valuation)
			printEstimate(out, &report.Estimate)
			return nil
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 0, "comparables used for the estimate (default MAX_COMPARABLES)")
	return cmd
}
