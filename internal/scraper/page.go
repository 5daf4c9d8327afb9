package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// Page is a listing page open in some browser.
type Page interface {
	// WaitReviews blocks until a review card is visible.
	WaitReviews(ctx context.Context) error
	// HTML returns a snapshot of the current DOM.
	HTML(ctx context.Context) (string, error)
	// HasNext reports whether a "next page" control exists.
	HasNext(ctx context.Context) (bool, error)
	// Next scrolls to the "next page" control, clicks it and returns its label.
	Next(ctx context.Context) (string, error)
}

// ChromePage drives a listing page through chromedp. Every ctx passed to
// its methods must derive from the browser session context.
type ChromePage struct {
	waitTimeout time.Duration
}

// NewChromePage creates a page whose element waits give up after waitTimeout.
func NewChromePage(waitTimeout time.Duration) *ChromePage {
	return &ChromePage{waitTimeout: waitTimeout}
}

// Open navigates the session tab to url.
func (p *ChromePage) Open(ctx context.Context, url string) error {
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	return nil
}

func (p *ChromePage) WaitReviews(ctx context.Context) error {
	if p.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.waitTimeout)
		defer cancel()
	}
	return chromedp.Run(ctx, chromedp.WaitVisible(ReviewCardXPath, chromedp.BySearch))
}

func (p *ChromePage) HTML(ctx context.Context) (string, error) {
	var html string
	err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *ChromePage) HasNext(ctx context.Context) (bool, error) {
	var nodes []*cdp.Node
	// AtLeast(0) returns immediately instead of waiting for a match
	err := chromedp.Run(ctx, chromedp.Nodes(NextLinkXPath, &nodes, chromedp.BySearch, chromedp.AtLeast(0)))
	if err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

func (p *ChromePage) Next(ctx context.Context) (string, error) {
	var label string
	err := chromedp.Run(ctx,
		chromedp.ScrollIntoView(NextLinkXPath, chromedp.BySearch),
		chromedp.Text(NextLinkXPath, &label, chromedp.BySearch),
		chromedp.Click(NextLinkXPath, chromedp.BySearch, chromedp.NodeVisible),
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(label), nil
}
