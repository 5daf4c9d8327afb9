// Package browser provides shared chromedp configuration and a scoped browser session.
package browser

import "github.com/chromedp/chromedp"

// DefaultUserAgent is sent when scraping.user_agent is empty
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Settings describes how the browser process is launched.
type Settings struct {
	Headless  bool
	Width     int
	Height    int
	UserAgent string
}

// Options returns the allocator options for a listing browser: the chromedp
// defaults plus the size, user agent and automation flags from s.
func Options(s Settings) []chromedp.ExecAllocatorOption {
	ua := s.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	width, height := s.Width, s.Height
	if width <= 0 || height <= 0 {
		width, height = 1280, 800
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.Headless),

		// keep navigator.webdriver unset for the listing's scripts
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		chromedp.UserAgent(ua),
		// desktop viewport, so the desktop listing markup is rendered
		chromedp.WindowSize(width, height),

		// a clean profile per run: no extensions, prompts or first-run pages
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if s.Headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	return opts
}
