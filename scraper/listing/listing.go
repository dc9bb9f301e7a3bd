package listing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"appraisal-analytics/config"
	"appraisal-analytics/models"
	"appraisal-analytics/utils"
)

// ErrNoURLs is returned by Load when no listing URLs are configured.
var ErrNoURLs = errors.New("no listing URLs configured (set LISTING_URLS)")

// Loader visits property listing pages in a headless browser and extracts
// the raw listing fields, preferring schema.org JSON-LD over page markup.
type Loader struct {
	cfg        *config.Config
	logger     *utils.Logger
	pool       *utils.WorkerPool
	visitedURL *utils.KeySet
	retry      *utils.RetryConfig

	mu       sync.Mutex
	listings []*models.RawListing
}

// New creates a ready-to-use Loader.
func New(cfg *config.Config, logger *utils.Logger) *Loader {
	return &Loader{
		cfg:        cfg,
		logger:     logger,
		pool:       utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		visitedURL: utils.NewKeySet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		listings: make([]*models.RawListing, 0),
	}
}

// Load visits every configured listing URL once. Pages that fail after all
// retries are logged and skipped; Load only fails when nothing could be
// loaded at all.
func (l *Loader) Load(ctx context.Context) ([]*models.RawListing, error) {
	urls := l.uniqueURLs()
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	l.logger.Info("[listing] Starting load: %d pages, concurrency %d, rate %dms",
		len(urls), l.pool.Size(), l.cfg.RateLimitMs)

	chromeBin := l.cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	l.logger.Info("[listing] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// start the browser once so the page tabs share it
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}

	var failed int
	var failedMu sync.Mutex
	for _, u := range urls {
		pageURL := u
		l.pool.Submit(func() {
			raw, err := l.loadPage(browserCtx, pageURL)
			if err != nil {
				l.logger.Warn("[listing] %s: %v", pageURL, err)
				failedMu.Lock()
				failed++
				failedMu.Unlock()
				return
			}
			l.mu.Lock()
			l.listings = append(l.listings, raw)
			l.mu.Unlock()
			l.logger.Debug("[listing] Loaded %s via %s", pageURL, raw.Source)
		})
	}
	l.pool.Wait()

	l.logger.Info("[listing] Load complete: %d loaded, %d failed", len(l.listings), failed)
	if len(l.listings) == 0 {
		return nil, fmt.Errorf("all %d listing pages failed", len(urls))
	}
	return l.listings, nil
}

func (l *Loader) uniqueURLs() []string {
	var out []string
	for _, u := range l.cfg.ListingURLs {
		if !l.visitedURL.Add(u) {
			l.logger.Debug("[listing] Skipping duplicate: %s", u)
			continue
		}
		out = append(out, u)
	}
	return out
}

// loadPage opens one listing page in a new tab and extracts its fields.
func (l *Loader) loadPage(browserCtx context.Context, url string) (*models.RawListing, error) {
	var listing *models.RawListing

	err := l.retry.Do(browserCtx, "listing-page", func() error {
		ctx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		ctx, cancelTimeout := context.WithTimeout(ctx, 60*time.Second)
		defer cancelTimeout()

		var page pageData
		err := chromedp.Run(ctx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(2*time.Second),
			chromedp.Evaluate(extractScript, &page),
		)
		if err != nil {
			return fmt.Errorf("chromedp extract: %w", err)
		}

		listing = buildListing(url, page, time.Now())
		if listing.RawPrice == "" && listing.Address == "" && listing.Title == "" {
			return errors.New("page has no listing data")
		}
		return nil
	})

	return listing, err
}

// extractScript collects JSON-LD blocks and a DOM fallback in one pass.
const extractScript = `
(function() {
	var text = function(sel) {
		var el = document.querySelector(sel);
		return el ? (el.innerText || el.textContent || '').trim() : '';
	};
	var meta = function(name) {
		var el = document.querySelector('meta[property="' + name + '"], meta[name="' + name + '"]');
		return el ? (el.getAttribute('content') || '').trim() : '';
	};

	var blocks = [];
	var scripts = document.querySelectorAll('script[type="application/ld+json"]');
	for (var i = 0; i < scripts.length; i++) {
		blocks.push(scripts[i].textContent || '');
	}

	var facts = [];
	var factEls = document.querySelectorAll('[data-testid*="fact"], .facts li, .home-facts li, [class*="bed"], [class*="bath"], [class*="sqft"]');
	for (var j = 0; j < factEls.length && j < 60; j++) {
		var t = (factEls[j].innerText || '').trim();
		if (t) facts.push(t);
	}

	return {
		jsonld: blocks,
		dom: {
			title:        text('h1') || meta('og:title') || document.title,
			address:      text('[itemprop="streetAddress"]') || text('[data-testid*="address"]') || text('address'),
			neighborhood: text('[data-testid*="neighborhood"]') || text('[itemprop="addressLocality"]'),
			price:        text('[data-testid*="price"]') || text('[class*="price"]') || meta('product:price:amount'),
			latitude:     meta('place:location:latitude') || meta('geo.position').split(';')[0] || '',
			longitude:    meta('place:location:longitude') || (meta('geo.position').split(';')[1] || '')
		},
		facts: facts
	};
})()
`

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
