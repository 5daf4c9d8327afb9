package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibeckermayer/kuchikomi/internal/config"
	"github.com/ibeckermayer/kuchikomi/internal/observability"
	"github.com/ibeckermayer/kuchikomi/internal/output"
	"github.com/ibeckermayer/kuchikomi/internal/scraper"
	"github.com/ibeckermayer/kuchikomi/internal/store"
	"github.com/ibeckermayer/kuchikomi/internal/types"
)

// ErrStoreDisabled is returned by operations that need the review store
// when store.enabled is false.
var ErrStoreDisabled = errors.New("review store is disabled")

// App wires the scraper, the output writer and the optional review store.
type App struct {
	cfg      *config.Config
	launcher Launcher
	store    *store.Store // nil when disabled
	log      zerolog.Logger
	now      func() time.Time
}

// Result describes the outcome of a scrape or reparse.
type Result struct {
	types.ScrapeResult
	OutputPath  string
	SnapshotDir string
	RunID       int64 // zero unless the run was stored
}

// New creates a new App instance. st may be nil.
func New(cfg *config.Config, launcher Launcher, st *store.Store, log zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		launcher: launcher,
		store:    st,
		log:      log.With().Str("component", "app").Logger(),
		now:      time.Now,
	}
}

// OutputPath returns where the rows of a yado are written.
func (a *App) OutputPath(yadoNo string) string {
	return filepath.Join(a.cfg.Output.Dir, output.Filename(yadoNo))
}

// Scrape performs the full open -> paginate -> write flow for one yado.
// The browser is released on every return path. Nothing is written unless
// every page was extracted.
func (a *App) Scrape(ctx context.Context, yadoNo string) (*Result, error) {
	start := a.now()
	res, err := a.scrape(ctx, yadoNo, start)

	pages, reviews := 0, 0
	if res != nil {
		pages, reviews = res.Pages, len(res.Reviews)
	}
	observability.ObserveRun(yadoNo, pages, reviews, a.now().Sub(start), err)

	return res, err
}

func (a *App) scrape(ctx context.Context, yadoNo string, start time.Time) (_ *Result, err error) {
	log := a.log.With().Str("yado_no", yadoNo).Logger()
	url := a.cfg.ListingURL(yadoNo)

	comma, err := a.cfg.Comma()
	if err != nil {
		return nil, err
	}

	var snapshots *store.Snapshots
	if a.cfg.Scraping.KeepSnapshots {
		var cacheDir string
		if cacheDir, err = a.cfg.ResolvedCacheDir(); err != nil {
			return nil, err
		}
		if snapshots, err = store.NewSnapshots(cacheDir, yadoNo, start); err != nil {
			return nil, err
		}
		defer func() {
			if err == nil {
				return
			}
			if derr := snapshots.Discard(); derr != nil {
				log.Warn().Err(derr).Msg("failed to discard snapshots")
			}
		}()
	}

	log.Info().Str("url", url).Msg("opening listing")
	sess, err := a.launcher.Launch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open listing: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close browser")
		}
	}()

	opts := scraper.Options{
		PageDelay: a.cfg.Scraping.PageDelay.Duration,
		MaxPages:  a.cfg.Scraping.MaxPages,
		Logger:    log,
	}
	if snapshots != nil {
		opts.OnPage = func(n int, html string) error {
			_, err := snapshots.Save(n, html)
			return err
		}
	}

	reviews, pages, err := scraper.New(opts).Scrape(sess.Context(), sess.Page())
	if err != nil {
		return nil, err
	}
	log.Info().Int("pages", pages).Int("reviews", len(reviews)).Msg("scraped listing")

	res := &Result{
		ScrapeResult: types.ScrapeResult{YadoNo: yadoNo, URL: url, Pages: pages, Reviews: reviews},
		OutputPath:   a.OutputPath(yadoNo),
	}
	if err := output.NewCSVWriter(res.OutputPath, comma, a.cfg.Output.Header).WriteReviews(reviews); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", res.OutputPath, err)
	}
	log.Info().Str("path", res.OutputPath).Msg("wrote reviews")

	if snapshots != nil {
		if err := snapshots.Commit(); err != nil {
			return nil, err
		}
		res.SnapshotDir = snapshots.Dir()
	}

	if a.store != nil {
		runID, err := a.store.SaveRun(yadoNo, pages, reviews, start, a.now())
		if err != nil {
			return nil, fmt.Errorf("failed to store run: %w", err)
		}
		res.RunID = runID
		log.Debug().Int64("run_id", runID).Msg("stored run")
	}

	return res, nil
}

// Reparse rebuilds the output file of a yado from its latest page snapshots
// without opening a browser.
func (a *App) Reparse(ctx context.Context, yadoNo string) (*Result, error) {
	comma, err := a.cfg.Comma()
	if err != nil {
		return nil, err
	}
	cacheDir, err := a.cfg.ResolvedCacheDir()
	if err != nil {
		return nil, err
	}

	pages, dir, err := store.LatestSnapshots(cacheDir, yadoNo)
	if err != nil {
		return nil, err
	}

	var reviews []types.Review
	for _, path := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		html, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		pageReviews, err := scraper.ExtractReviews(string(html))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		reviews = append(reviews, pageReviews...)
	}

	res := &Result{
		ScrapeResult: types.ScrapeResult{YadoNo: yadoNo, URL: a.cfg.ListingURL(yadoNo), Pages: len(pages), Reviews: reviews},
		OutputPath:   a.OutputPath(yadoNo),
		SnapshotDir:  dir,
	}
	if err := output.NewCSVWriter(res.OutputPath, comma, a.cfg.Output.Header).WriteReviews(reviews); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", res.OutputPath, err)
	}

	a.log.Info().Str("yado_no", yadoNo).Str("snapshots", dir).Int("reviews", len(reviews)).Msg("reparsed snapshots")
	return res, nil
}

// Runs lists the most recent stored runs of a yado.
func (a *App) Runs(yadoNo string, limit int) ([]store.Run, error) {
	if a.store == nil {
		return nil, ErrStoreDisabled
	}
	return a.store.ListRuns(yadoNo, limit)
}
