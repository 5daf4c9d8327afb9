package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibeckermayer/kuchikomi/internal/types"
)

// Options configures a Scraper. Zero values are usable.
type Options struct {
	// PageDelay is how long to wait after clicking "next".
	PageDelay time.Duration
	// MaxPages stops pagination after this many pages; 0 means no limit.
	MaxPages int
	// Extract parses a page snapshot; defaults to ExtractReviews.
	Extract ExtractFunc
	// OnPage, when set, receives every page snapshot before extraction.
	OnPage func(page int, html string) error
	Logger zerolog.Logger
}

// Scraper walks a paginated kuchikomi listing and collects every review
type Scraper struct {
	pageDelay time.Duration
	maxPages  int
	extract   ExtractFunc
	onPage    func(page int, html string) error
	log       zerolog.Logger
}

// New creates a new scraper
func New(opts Options) *Scraper {
	extract := opts.Extract
	if extract == nil {
		extract = ExtractReviews
	}
	return &Scraper{
		pageDelay: opts.PageDelay,
		maxPages:  opts.MaxPages,
		extract:   extract,
		onPage:    opts.OnPage,
		log:       opts.Logger.With().Str("component", "scraper").Logger(),
	}
}

// Scrape extracts the current page, follows "next" until the control
// disappears, and returns every review in page order along with the number
// of pages visited. Any failure aborts the whole scrape.
func (s *Scraper) Scrape(ctx context.Context, page Page) ([]types.Review, int, error) {
	var reviews []types.Review

	for n := 1; ; n++ {
		if err := page.WaitReviews(ctx); err != nil {
			return nil, n, fmt.Errorf("page %d: failed waiting for reviews: %w", n, err)
		}

		html, err := page.HTML(ctx)
		if err != nil {
			return nil, n, fmt.Errorf("page %d: failed to read page: %w", n, err)
		}

		if s.onPage != nil {
			if err := s.onPage(n, html); err != nil {
				return nil, n, fmt.Errorf("page %d: %w", n, err)
			}
		}

		pageReviews, err := s.extract(html)
		if err != nil {
			return nil, n, fmt.Errorf("page %d: failed to extract reviews: %w", n, err)
		}
		reviews = append(reviews, pageReviews...)
		s.log.Debug().Int("page", n).Int("reviews", len(pageReviews)).Msg("extracted page")

		if s.maxPages > 0 && n >= s.maxPages {
			s.log.Info().Int("max_pages", s.maxPages).Msg("page limit reached")
			return reviews, n, nil
		}

		more, err := page.HasNext(ctx)
		if err != nil {
			return nil, n, fmt.Errorf("page %d: failed to look for next link: %w", n, err)
		}
		if !more {
			return reviews, n, nil
		}

		label, err := page.Next(ctx)
		if err != nil {
			return nil, n, fmt.Errorf("page %d: failed to follow next link: %w", n, err)
		}
		s.log.Info().Str("page", label).Msg("next page")

		if err := sleep(ctx, s.pageDelay); err != nil {
			return nil, n, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
