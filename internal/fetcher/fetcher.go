// Package fetcher retrieves the rendered text of HUDOC documents, triggering
// server-side conversion and retrying when the first render comes back empty.
package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/hudoc-downloader/internal/hudoc"
	"github.com/JakeFAU/hudoc-downloader/internal/metrics"
)

// Defaults applied when Config leaves a field zero.
const (
	DefaultMaxAttempts     = 3
	DefaultConversionDelay = 2 * time.Second
)

// Config controls the retry budget.
type Config struct {
	MaxAttempts     int
	ConversionDelay time.Duration
}

// Fetcher implements hudoc.TextFetcher over a hudoc.Getter.
type Fetcher struct {
	getter  hudoc.Getter
	cfg     Config
	sleep   func(ctx context.Context, d time.Duration) error
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// New builds a Fetcher. recorder may be nil.
func New(getter hudoc.Getter, cfg Config, recorder *metrics.Recorder, logger *zap.Logger) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.ConversionDelay < 0 {
		cfg.ConversionDelay = DefaultConversionDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		getter:  getter,
		cfg:     cfg,
		sleep:   sleepContext,
		metrics: recorder,
		logger:  logger,
	}
}

// DocumentURL builds the conversion endpoint URL for req.
func DocumentURL(req hudoc.FetchRequest) string {
	return fmt.Sprintf("%s?library=%s&id=%s", req.BaseURL, req.Library, url.QueryEscape(req.DocID))
}

// Text returns the document's extracted text, or false once the attempt
// budget is spent. Failures are logged, never returned.
func (f *Fetcher) Text(ctx context.Context, req hudoc.FetchRequest) (string, bool) {
	target := DocumentURL(req)
	log := f.logger.With(zap.String("doc_id", req.DocID), zap.String("subsite", req.Subsite))
	log.Info("fetching document content", zap.String("url", target))

	m := newMachine(f.cfg.MaxAttempts, req.SourceLink != "")
	var text string
	for {
		switch m.state {
		case StateFetching:
			text = f.fetchOnce(ctx, log, req.Subsite, target, m.attempts+1)
			m.fetched(text != "")
		case StateTriggering:
			f.trigger(ctx, log, req)
			m.triggered()
		case StateWaitingForConversion:
			log.Info("waiting for conversion", zap.Duration("delay", f.cfg.ConversionDelay))
			err := f.sleep(ctx, f.cfg.ConversionDelay)
			if err != nil {
				log.Warn("conversion wait interrupted", zap.Error(err))
			}
			m.waited(err)
		case StateDone:
			return text, true
		case StateExhausted:
			log.Error("failed to fetch content", zap.Int("attempts", m.attempts))
			return "", false
		}
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, log *zap.Logger, subsite, target string, attempt int) string {
	start := time.Now()
	resp, err := f.getter.Get(ctx, target)
	if err != nil {
		f.metrics.ObserveFetch(subsite, metrics.ResultError, time.Since(start))
		log.Warn("fetch attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		return ""
	}
	if resp.Truncated {
		log.Warn("document body truncated at size cap",
			zap.Int("attempt", attempt),
			zap.Int("bytes", len(resp.Body)),
		)
	}
	text := ExtractText(resp.Body)
	if strings.TrimSpace(text) == "" {
		f.metrics.ObserveFetch(subsite, metrics.ResultEmpty, resp.Duration)
		log.Warn("empty content", zap.Int("attempt", attempt), zap.Duration("duration", resp.Duration))
		return ""
	}
	f.metrics.ObserveFetch(subsite, metrics.ResultOK, resp.Duration)
	log.Debug("fetched content",
		zap.Int("attempt", attempt),
		zap.Int("chars", len(text)),
		zap.Duration("duration", resp.Duration),
	)
	return text
}

// trigger hits the feed link, which makes the origin render the document.
func (f *Fetcher) trigger(ctx context.Context, log *zap.Logger, req hudoc.FetchRequest) {
	log.Info("triggering document conversion", zap.String("link", req.SourceLink))
	if _, err := f.getter.Get(ctx, req.SourceLink); err != nil {
		f.metrics.ObserveTrigger(req.Subsite, metrics.ResultError)
		log.Warn("conversion trigger failed", zap.Error(err))
		return
	}
	f.metrics.ObserveTrigger(req.Subsite, metrics.ResultOK)
	log.Debug("conversion trigger succeeded")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("sleep canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
