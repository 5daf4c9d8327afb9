package app

import (
	"context"

	"github.com/ibeckermayer/kuchikomi/internal/browser"
	"github.com/ibeckermayer/kuchikomi/internal/config"
	"github.com/ibeckermayer/kuchikomi/internal/scraper"
)

// Session is an open listing page and the browser that renders it.
type Session interface {
	// Context is the context page actions must run under.
	Context() context.Context
	Page() scraper.Page
	Close() error
}

// Launcher opens a browser on a listing URL.
type Launcher interface {
	Launch(ctx context.Context, url string) (Session, error)
}

// ChromeLauncher launches headless Chrome through chromedp.
type ChromeLauncher struct {
	cfg config.ScrapingConfig
}

// NewChromeLauncher creates a launcher from the scraping config.
func NewChromeLauncher(cfg config.ScrapingConfig) *ChromeLauncher {
	return &ChromeLauncher{cfg: cfg}
}

type chromeSession struct {
	*browser.Session
	page *scraper.ChromePage
}

func (s *chromeSession) Page() scraper.Page {
	return s.page
}

func (l *ChromeLauncher) Launch(ctx context.Context, url string) (Session, error) {
	sess, err := browser.Open(ctx, browser.Options(browser.Settings{
		Headless:  l.cfg.Headless,
		Width:     l.cfg.WindowWidth,
		Height:    l.cfg.WindowHeight,
		UserAgent: l.cfg.UserAgent,
	}))
	if err != nil {
		return nil, err
	}

	if err := sess.SetAcceptLanguage(l.cfg.AcceptLanguage); err != nil {
		sess.Close()
		return nil, err
	}

	page := scraper.NewChromePage(l.cfg.WaitTimeout.Duration)
	if err := page.Open(sess.Context(), url); err != nil {
		sess.Close()
		return nil, err
	}

	return &chromeSession{Session: sess, page: page}, nil
}
