// Package collyfetcher implements a static-HTTP Renderer using gocolly, for
// documents the browser path cannot render usefully (PDF, plain text).
package collyfetcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/policylab/policyscrape/internal/policy"
)

const defaultTimeout = 30 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
}

// Fetcher implements policy.Renderer with a plain HTTP GET.
type Fetcher struct {
	cfg    Config
	base   *colly.Collector
	logger *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector()
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	return &Fetcher{cfg: cfg, base: c, logger: logger}
}

// Fetch executes one HTTP GET and classifies the response by Content-Type.
// Any transport failure surfaces as *policy.NetworkError.
func (f *Fetcher) Fetch(ctx context.Context, req policy.FetchRequest) (policy.RenderedPage, error) {
	collector := f.base.Clone()
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	collector.SetRequestTimeout(timeout)

	var (
		once     sync.Once
		body     []byte
		ctype    string
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		once.Do(func() {
			body = append([]byte{}, r.Body...)
			ctype = r.Headers.Get("Content-Type")
		})
	})
	collector.OnError(func(_ *colly.Response, err error) {
		once.Do(func() {
			if err == nil {
				err = errors.New("unknown colly error")
			}
			fetchErr = err
		})
	})

	if err := collector.Visit(req.URL); err != nil {
		return policy.RenderedPage{}, &policy.NetworkError{URL: req.URL, Err: err}
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return policy.RenderedPage{}, &policy.NetworkError{URL: req.URL, Err: err}
	}
	if fetchErr != nil {
		return policy.RenderedPage{}, &policy.NetworkError{URL: req.URL, Err: fetchErr}
	}
	if body == nil && ctype == "" {
		return policy.RenderedPage{}, &policy.NetworkError{URL: req.URL, Err: errors.New("fetch produced no response")}
	}

	contentType := classifyContentType(ctype)
	page := policy.RenderedPage{
		Raw:         body,
		ContentType: contentType,
		FetchedAt:   time.Now().UTC(),
	}
	if contentType == "html" || contentType == "plain" {
		page.Markup = string(body)
	}
	f.logger.Debug("static fetch complete",
		zap.String("url", req.URL),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(body)),
	)
	return page, nil
}

func classifyContentType(header string) string {
	switch {
	case strings.Contains(header, "application/pdf"):
		return "pdf"
	case strings.Contains(header, "text/html"):
		return "html"
	case strings.Contains(header, "text/plain"):
		return "plain"
	default:
		return "other"
	}
}
