package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Session owns one browser process and its first tab.
// Callers must Close it; Close is safe to call more than once.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// Open launches a browser with the given allocator options. The browser is
// started eagerly so launch failures are reported here rather than on the
// first action.
func Open(parent context.Context, opts []chromedp.ExecAllocatorOption) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

// Context returns the chromedp context bound to the session's tab.
func (s *Session) Context() context.Context {
	return s.ctx
}

// SetAcceptLanguage sends an Accept-Language header with every request of the tab.
func (s *Session) SetAcceptLanguage(lang string) error {
	if lang == "" {
		return nil
	}
	return chromedp.Run(s.ctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": lang}),
	)
}

// Close shuts the browser down gracefully and releases the allocator.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancel()
		s.allocCancel()
	})
	return s.closeErr
}
