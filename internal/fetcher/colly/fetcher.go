// Package collyfetcher implements hudoc.Getter using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/hudoc-downloader/internal/hudoc"
)

const defaultTimeout = 10 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// MaxBodySize caps response bodies in bytes; 0 means unlimited.
	MaxBodySize int
	Transport   http.RoundTripper
}

// Getter implements hudoc.Getter using the Colly collector.
type Getter struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Getter. Revisits are allowed so retries can hit the same URL.
func New(cfg Config) *Getter {
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	if cfg.Transport == nil {
		cfg.Transport = newHTTPTransport()
	}
	c.WithTransport(cfg.Transport)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	// Clones share the backend, so the timeout is set once here.
	c.SetRequestTimeout(cfg.Timeout)
	c.MaxBodySize = max(cfg.MaxBodySize, 0)
	return &Getter{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Get executes a single HTTP GET. Transport failures and non-2xx statuses
// are returned as errors.
func (g *Getter) Get(ctx context.Context, rawURL string) (hudoc.Response, error) {
	var (
		result   hudoc.Response
		fetchErr error
	)
	collector := g.buildCollector(time.Now(), &result, &fetchErr)
	if err := g.runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return hudoc.Response{}, err
	}
	return result, nil
}

func (g *Getter) buildCollector(start time.Time, result *hudoc.Response, fetchErr *error) *colly.Collector {
	collector := g.baseCollector.Clone()
	if g.cfg.UserAgent != "" {
		collector.UserAgent = g.cfg.UserAgent
	}
	g.configureCollectorHooks(collector, start, result, fetchErr)
	return collector
}

func (g *Getter) configureCollectorHooks(
	hooks collectorHooks,
	start time.Time,
	result *hudoc.Response,
	fetchErr *error,
) {
	hooks.OnResponse(func(r *colly.Response) {
		*result = hudoc.Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
			Truncated:  g.cfg.MaxBodySize > 0 && len(r.Body) >= g.cfg.MaxBodySize,
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		*fetchErr = err
	})
}

func (g *Getter) runCollector(ctx context.Context, collector *colly.Collector, rawURL string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
