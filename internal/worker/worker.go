// Package worker implements the fetch-and-write pipeline for one feed item.
package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/hudoc-downloader/internal/hudoc"
	"github.com/JakeFAU/hudoc-downloader/internal/metrics"
	"github.com/JakeFAU/hudoc-downloader/internal/subsite"
)

// ErrMissingDocID is returned for items with no document identifier.
var ErrMissingDocID = errors.New("feed item has no document id")

// Worker fetches one document and hands it to the writer.
type Worker struct {
	fetcher hudoc.TextFetcher
	writer  hudoc.DocumentWriter
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// New constructs a Worker.
func New(
	fetcher hudoc.TextFetcher,
	writer hudoc.DocumentWriter,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		fetcher: fetcher,
		writer:  writer,
		metrics: recorder,
		logger:  logger,
	}
}

// Process fetches item from site and writes it. Fetch and write failures are
// logged and counted, not returned; only an unusable item is an error.
func (w *Worker) Process(ctx context.Context, site subsite.Site, item hudoc.FeedItem) error {
	if item.DocID == "" {
		return fmt.Errorf("%s item %q: %w", site.Name, item.SourceLink, ErrMissingDocID)
	}
	log := w.logger.With(zap.String("subsite", site.Name), zap.String("doc_id", item.DocID))
	log.Debug("processing document")

	text, ok := w.fetcher.Text(ctx, hudoc.FetchRequest{
		Subsite:    site.Name,
		DocID:      item.DocID,
		BaseURL:    site.BaseURL,
		Library:    site.Library,
		SourceLink: item.SourceLink,
	})
	if !ok {
		log.Warn("no content retrieved")
		w.metrics.ObserveDocument(site.Name, string(hudoc.OutcomeEmpty))
		return nil
	}

	outcome := w.writer.Write(ctx, hudoc.NewDocument(site.Name, item, text))
	w.metrics.ObserveDocument(site.Name, string(outcome))
	log.Debug("document processed", zap.String("outcome", string(outcome)))
	return nil
}
