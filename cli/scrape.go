package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"appraisal-analytics/models"
	"appraisal-analytics/scraper/listing"
	"appraisal-analytics/services"
	"appraisal-analytics/storage"
)

func (a *app) scrapeCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Load listing pages into the property collection",
		Long: `Visit every LISTING_URLS page in a headless browser, save the raw listings
to CSV_OUTPUT_PATH, clean them into properties and write those to the
selected source (the --input CSV or PostgreSQL).

Examples:
  LISTING_URLS=https://homes.example.com/1,https://homes.example.com/2 appraise scrape
  appraise scrape --source postgres --replace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info("=== Listing load starting ===")
			a.logger.Info("Config: %d urls | concurrency: %d | rate: %dms | retries: %d",
				len(a.cfg.ListingURLs), a.cfg.MaxConcurrency, a.cfg.RateLimitMs, a.cfg.MaxRetries)

			raw, err := listing.New(a.cfg, a.logger).Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing load: %w", err)
			}

			a.logger.Info("Loaded %d raw listings, writing to CSV...", len(raw))
			if err := a.saveRaw(raw); err != nil {
				a.logger.Error("CSV write failed: %v", err)
			} else {
				a.logger.Info("Raw listings saved to %s", a.cfg.CSVOutputPath)
			}

			props := services.NewCleaner(a.logger).Clean(raw)
			if len(props) == 0 {
				return errors.New("all listings were dropped during cleaning")
			}
			a.logger.Info("Cleaned dataset: %d properties", len(props))

			if err := a.saveProperties(props, replace); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Done. Raw CSV: %s | %d properties stored in %s\n",
				a.cfg.CSVOutputPath, len(props), a.destination())
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "clear stored properties before writing (postgres)")
	return cmd
}

func (a *app) saveRaw(raw []*models.RawListing) error {
	w, err := storage.NewCSVWriter(a.cfg.CSVOutputPath)
	if err != nil {
		return err
	}
	return writeAndClose(w.WriteRaw, w.Close, raw)
}

func (a *app) saveProperties(props []models.Property, replace bool) error {
	if a.source != sourcePostgres {
		w, err := storage.NewPropertyCSVWriter(a.input)
		if err != nil {
			return err
		}
		return writeAndClose(w.Write, w.Close, props)
	}

	store, err := storage.NewPostgresStore(a.cfg.DSN())
	if err != nil {
		a.logger.Error("Make sure PostgreSQL is running: docker compose up -d")
		return err
	}
	if replace {
		if err := store.Clear(); err != nil {
			_ = store.Close()
			return err
		}
		a.logger.Info("Cleared stored properties")
	}
	return writeAndClose(store.Write, store.Close, props)
}

// writeAndClose always closes, reporting the write error first.
func writeAndClose[T any](write func(T) error, closeFn func() error, data T) error {
	werr := write(data)
	cerr := closeFn()
	if werr != nil {
		return werr
	}
	return cerr
}

func (a *app) destination() string {
	if a.source == sourcePostgres {
		return "PostgreSQL (properties table)"
	}
	return a.input
}
