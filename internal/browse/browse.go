package browse

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/DGFellow/product-research-agent/config"
)

// PageMeta is the best-effort identity of the current page.
type PageMeta struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Session wraps one headless-browser tab shared by every scraper tool.
// It is a single mutable resource: tools borrow it one at a time, so the
// orchestrator runs them sequentially.
type Session struct {
	cfg    config.BrowserConfig
	logger *log.Logger

	ctx          context.Context
	cancelTab    context.CancelFunc
	cancelAlloc  context.CancelFunc
	mu           sync.Mutex
	closed       bool
	started      bool
}

// NewSession builds a session; the browser process is not launched until
// Start is called.
func NewSession(cfg config.BrowserConfig) *Session {
	return &Session{
		cfg:    cfg,
		logger: log.New(log.Writer(), "[BROWSER] ", log.LstdFlags),
	}
}

// Start launches the browser and opens the shared tab. Failures are wrapped
// in SessionInitError; the caller treats them as fatal.
func (s *Session) Start(parent context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(s.cfg.UserAgent),
		chromedp.WindowSize(s.cfg.ViewportWidth, s.cfg.ViewportHeight),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Run a no-op to force browser startup so bring-up failures surface
	// here instead of on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return &SessionInitError{Err: err}
	}

	s.ctx = tabCtx
	s.cancelTab = cancelTab
	s.cancelAlloc = cancelAlloc
	s.started = true
	s.closed = false
	s.logger.Printf("browser session ready (headless=%v)", s.cfg.Headless)
	return nil
}

// Close releases the browser session. Safe to call repeatedly and safe to
// call even if Start never succeeded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.started {
		s.closed = true
		return
	}
	s.cancelTab()
	s.cancelAlloc()
	s.closed = true
	s.started = false
	s.logger.Printf("browser session closed")
}

// Navigate loads url, waits for the document to be ready, then sleeps the
// configured settle delay so late-rendering content lands before extraction.
func (s *Session) Navigate(ctx context.Context, url string) error {
	tctx, cancel := s.withTab(ctx, s.cfg.NavTimeout)
	defer cancel()

	if err := chromedp.Run(tctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
	); err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	return nil
}

// AwaitSelector blocks until a node matching selector is visible or the
// timeout elapses.
func (s *Session) AwaitSelector(ctx context.Context, selector string, timeout time.Duration) error {
	tctx, cancel := s.withTab(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(tctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return &ElementNotFoundError{Selector: selector, Err: err}
	}
	return nil
}

// PageMetadata returns the current URL and title. Best effort: extraction
// errors degrade to empty strings, never to a returned error.
func (s *Session) PageMetadata(ctx context.Context) PageMeta {
	tctx, cancel := s.withTab(ctx, 5*time.Second)
	defer cancel()

	var meta PageMeta
	if err := chromedp.Run(tctx, chromedp.Location(&meta.URL)); err != nil {
		s.logger.Printf("page url read failed: %v", err)
	}
	if err := chromedp.Run(tctx, chromedp.Title(&meta.Title)); err != nil {
		s.logger.Printf("page title read failed: %v", err)
	}
	return meta
}

// Evaluate runs a JS expression in the shared tab and unmarshals the result
// into out. Scrapers use it for card extraction.
func (s *Session) Evaluate(ctx context.Context, expr string, out interface{}) error {
	tctx, cancel := s.withTab(ctx, s.cfg.NavTimeout)
	defer cancel()
	return chromedp.Run(tctx, chromedp.Evaluate(expr, out))
}

// withTab derives a bounded context from the shared tab. The caller-supplied
// ctx only gates cancellation; chromedp actions must run against the tab's
// context chain to reach the browser.
func (s *Session) withTab(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	s.mu.Lock()
	tab := s.ctx
	s.mu.Unlock()
	if tab == nil {
		// Start was never called; produce a context that fails fast.
		return context.WithTimeout(ctx, time.Millisecond)
	}
	if timeout <= 0 {
		timeout = s.cfg.NavTimeout
	}
	tctx, cancel := context.WithTimeout(tab, timeout)
	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				cancel()
			case <-tctx.Done():
			}
		}()
	}
	return tctx, cancel
}
