// Package cli provides the command-line interface for the appraisal
// analytics.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"appraisal-analytics/config"
	"appraisal-analytics/models"
	"appraisal-analytics/services"
	"appraisal-analytics/storage"
	"appraisal-analytics/utils"
)

const (
	sourceCSV      = "csv"
	sourcePostgres = "postgres"
)

// app carries the state shared by every command of one invocation.
type app struct {
	// flags
	source      string
	input       string
	weightsFile string
	debug       bool
	asJSON      bool

	cfg     *config.Config
	logger  *utils.Logger
	profile *config.Profile

	// logOut receives log lines; command output goes to cmd.OutOrStdout.
	logOut io.Writer
}

// Execute runs the root command against os.Args. An interrupt cancels the
// command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(os.Stderr).ExecuteContext(ctx)
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	a := &app{logOut: logOut}

	root := &cobra.Command{
		Use:   "appraise",
		Short: "Comparable selection, valuation and value forecasting for residential property",
		Long: `appraise loads a property collection from CSV or PostgreSQL and runs the
appraisal analytics over it: ranked comparables, valuation against the
neighborhood, value forecasts, neighborhood projections and backtests.

The scrape command fills the collection from listing pages.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.source, "source", sourceCSV, "property source: csv or postgres")
	flags.StringVarP(&a.input, "input", "i", "", "properties CSV path (default PROPERTIES_CSV)")
	flags.StringVarP(&a.weightsFile, "weights", "w", "", "YAML weights/filters profile (default WEIGHTS_FILE)")
	flags.BoolVar(&a.debug, "debug", false, "debug logging")
	flags.BoolVar(&a.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		a.compsCmd(),
		a.valueCmd(),
		a.forecastCmd(),
		a.neighborhoodCmd(),
		a.backtestCmd(),
		a.seasonalityCmd(),
		a.summaryCmd(),
		a.scrapeCmd(),
	)
	return root
}

// setup loads configuration, the logger and the optional weights profile.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.cfg = config.Load()

	level := a.cfg.LogLevel
	if a.debug {
		level = "debug"
	}
	a.logger = utils.NewLoggerTo(a.logOut, level)
	if !a.cfg.EnvFileLoaded {
		a.logger.Debug("[config] No .env file found, using system environment variables")
	}

	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	a.source = strings.ToLower(strings.TrimSpace(a.source))
	if a.source != sourceCSV && a.source != sourcePostgres {
		return fmt.Errorf("unknown source %q (want %s or %s)", a.source, sourceCSV, sourcePostgres)
	}
	if a.input == "" {
		a.input = a.cfg.PropertiesCSV
	}

	path := a.weightsFile
	if path == "" {
		path = a.cfg.WeightsFile
	}
	if path != "" {
		profile, err := config.LoadProfile(path)
		if err != nil {
			return err
		}
		a.profile = profile
		a.logger.Debug("[config] Loaded weights profile %s", path)
	}
	return nil
}

func (a *app) weights() *models.SimilarityWeights {
	if a.profile == nil {
		return nil
	}
	return a.profile.Weights
}

func (a *app) filters() *models.ComparableFilters {
	if a.profile == nil {
		return nil
	}
	return a.profile.Filters
}

// engine holds the analytics services for one invocation.
type engine struct {
	trend        *services.TrendAnalyzer
	selector     *services.ComparableSelector
	valuation    *services.ValuationAnalyzer
	forecaster   *services.Forecaster
	valueFcst    *services.PropertyForecaster
	neighborhood *services.NeighborhoodForecaster
	backtester   *services.Backtester
	insights     *services.InsightService
}

func (a *app) engine() *engine {
	trend := services.NewTrendAnalyzer(a.cfg.CurrentYear)
	selector := services.NewComparableSelector(services.NewSimilarityScorer(a.weights()), a.logger)
	valueFcst := services.NewPropertyForecaster(trend, a.logger)

	return &engine{
		trend:        trend,
		selector:     selector,
		valuation:    services.NewValuationAnalyzer(selector, a.logger),
		forecaster:   services.NewForecaster(trend, a.logger),
		valueFcst:    valueFcst,
		neighborhood: services.NewNeighborhoodForecaster(valueFcst, a.cfg.MaxConcurrency, a.logger),
		backtester:   services.NewBacktester(valueFcst, a.logger),
		insights:     services.NewInsightService(a.logger),
	}
}

// openReader returns the configured property source and a release func.
func (a *app) openReader() (storage.PropertyReader, func(), error) {
	if a.source == sourcePostgres {
		store, err := storage.NewPostgresStore(a.cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	return storage.NewCSVPropertyReader(a.input), func() {}, nil
}

// loadProperties reads the collection and drops repeated IDs, keeping the
// first occurrence.
func (a *app) loadProperties() ([]models.Property, error) {
	reader, release, err := a.openReader()
	if err != nil {
		return nil, err
	}
	defer release()

	props, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}

	seen := utils.NewKeySet()
	out := make([]models.Property, 0, len(props))
	for i := range props {
		if !seen.Add(props[i].ID) {
			a.logger.Warn("[cli] Duplicate property id %s, keeping the first", props[i].ID)
			continue
		}
		out = append(out, props[i])
	}
	a.logger.Info("[cli] Loaded %d properties from %s", len(out), a.source)
	return out, nil
}

func findProperty(props []models.Property, id string) (*models.Property, error) {
	for i := range props {
		if props[i].ID == id {
			return &props[i], nil
		}
	}
	return nil, fmt.Errorf("property %q not found", id)
}
