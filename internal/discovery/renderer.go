package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/collector"
)

// RenderedPage is the outcome of one search-page load.
type RenderedPage struct {
	HTML      string
	UserAgent string
	Cookies   []collector.Cookie
}

// PageRenderer loads a URL with JavaScript enabled and returns the DOM
// plus the session cookies the page set.
type PageRenderer interface {
	Render(ctx context.Context, rawURL string) (RenderedPage, error)
	Close(ctx context.Context) error
}

// ChromedpRenderer renders pages using headless Chrome via chromedp. A
// single browser process is reused across cycles; each render runs in its
// own tab with a caller-enforced timeout.
type ChromedpRenderer struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
	timeout         time.Duration
	userAgent       string
}

// RendererConfig controls the headless browser.
type RendererConfig struct {
	UserAgent   string
	PageTimeout time.Duration
}

// NewChromedpRenderer starts a headless browser using the provided
// configuration and warms it up so the first render does not pay the
// process start cost.
func NewChromedpRenderer(cfg RendererConfig, logger *zap.Logger) (*ChromedpRenderer, error) {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 60 * time.Second
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &ChromedpRenderer{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
		timeout:         cfg.PageTimeout,
		userAgent:       cfg.UserAgent,
	}, nil
}

// Close tears down the chromedp allocator and browser contexts.
func (r *ChromedpRenderer) Close(_ context.Context) error {
	if r == nil {
		return nil
	}
	r.browserCancel()
	r.allocatorCancel()
	return nil
}

// Render navigates to rawURL, waits for the post containers to appear,
// and captures the DOM, the effective user agent, and the session
// cookies. The cookies feed the fetch gate so downloads present the same
// session that rendered the page.
func (r *ChromedpRenderer) Render(ctx context.Context, rawURL string) (RenderedPage, error) {
	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	var html, userAgent string
	var cookies []*network.Cookie
	tasks := chromedp.Tasks{
		network.Enable(),
		emulationTask(r.userAgent),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady(postContainerSelector, chromedp.ByQuery),
		chromedp.Evaluate("navigator.userAgent", &userAgent),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return RenderedPage{}, fmt.Errorf("chromedp run: %w", err)
	}

	return RenderedPage{
		HTML:      html,
		UserAgent: userAgent,
		Cookies:   convertCookies(cookies),
	}, nil
}

func emulationTask(userAgent string) chromedp.Action {
	if userAgent == "" {
		return chromedp.ActionFunc(func(context.Context) error { return nil })
	}
	return emulation.SetUserAgentOverride(userAgent)
}

func convertCookies(in []*network.Cookie) []collector.Cookie {
	out := make([]collector.Cookie, 0, len(in))
	for _, c := range in {
		out = append(out, collector.Cookie{
			Domain:  c.Domain,
			Path:    c.Path,
			Name:    c.Name,
			Value:   c.Value,
			Secure:  c.Secure,
			Expires: int64(c.Expires),
		})
	}
	return out
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
