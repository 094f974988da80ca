// Package headless renders pages with headless Chrome via chromedp.
package headless

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/policylab/policyscrape/internal/policy"
)

const (
	defaultNavTimeout = 30 * time.Second
	screenshotQuality = 90
)

// Config controls the headless renderer.
type Config struct {
	// MaxParallel caps concurrent browser tabs; <= 0 means unlimited.
	MaxParallel int
	UserAgent   string
	// DomainQPS limits fetches per domain; <= 0 disables the limiter.
	DomainQPS float64
}

// Renderer implements policy.Renderer for HTML pages.
type Renderer struct {
	cfg            Config
	sem            chan struct{}
	allocator      context.Context
	allocCancel    context.CancelFunc
	domainLimiters sync.Map
	logger         *zap.Logger
}

// New creates a Renderer. The browser process starts lazily on first fetch.
func New(cfg Config, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var sem chan struct{}
	if cfg.MaxParallel > 0 {
		sem = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Renderer{
		cfg:         cfg,
		sem:         sem,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Close tears down the browser allocator.
func (r *Renderer) Close() {
	r.allocCancel()
}

// Fetch navigates to the URL in a fresh tab and returns the rendered DOM,
// optionally with a full-page screenshot. Transport failures, including
// navigation timeouts, surface as *policy.NetworkError.
func (r *Renderer) Fetch(ctx context.Context, req policy.FetchRequest) (policy.RenderedPage, error) {
	release, err := r.acquireSlot(ctx)
	if err != nil {
		return policy.RenderedPage{}, &policy.NetworkError{URL: req.URL, Err: err}
	}
	defer release()

	if err := r.waitDomainBudget(ctx, req.URL); err != nil {
		return policy.RenderedPage{}, &policy.NetworkError{URL: req.URL, Err: err}
	}

	tabCtx, cancelTab := chromedp.NewContext(r.allocator)
	defer cancelTab()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultNavTimeout
	}
	taskCtx, cancelTask := context.WithTimeout(tabCtx, timeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	var markup string
	var shot []byte
	actions := []chromedp.Action{
		network.Enable(),
	}
	if r.cfg.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(r.cfg.UserAgent))
	}
	actions = append(actions,
		chromedp.Navigate(req.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if req.Screenshot {
		actions = append(actions, chromedp.FullScreenshot(&shot, screenshotQuality))
	}

	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return policy.RenderedPage{}, &policy.NetworkError{URL: req.URL, Err: fmt.Errorf("chromedp run: %w", err)}
	}

	return policy.RenderedPage{
		Markup:      markup,
		Screenshot:  shot,
		ContentType: "html",
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func (r *Renderer) acquireSlot(ctx context.Context) (func(), error) {
	if r.sem == nil {
		return func() {}, nil
	}
	select {
	case r.sem <- struct{}{}:
		return func() { <-r.sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire render slot: %w", ctx.Err())
	}
}

func (r *Renderer) waitDomainBudget(ctx context.Context, rawURL string) error {
	if r.cfg.DomainQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse render url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := r.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(r.cfg.DomainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait domain limiter: %w", err)
	}
	return nil
}

// forwardCancel propagates the caller's cancellation into a chromedp task
// context, which is derived from the allocator rather than the caller.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
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
