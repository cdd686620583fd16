// Package dispatcher fans feed items out to a bounded pool of workers.
package dispatcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/hudoc-downloader/internal/feed"
	"github.com/JakeFAU/hudoc-downloader/internal/hudoc"
	"github.com/JakeFAU/hudoc-downloader/internal/subsite"
)

// DefaultThreads is the pool size used when a batch does not set one.
const DefaultThreads = 10

// Processor handles one feed item.
type Processor interface {
	Process(ctx context.Context, site subsite.Site, item hudoc.FeedItem) error
}

// Batch describes one feed run.
type Batch struct {
	RSSFile string
	// Subsite names the site; empty means detect it from the feed.
	Subsite string
	// Limit caps the number of items; 0 processes all of them.
	Limit   int
	Threads int
}

// Dispatcher runs batches and single links through a Processor.
type Dispatcher struct {
	sites      subsite.Table
	parser     *feed.Parser
	downloader *feed.Downloader
	processor  Processor
	logger     *zap.Logger
}

// New creates a Dispatcher.
func New(
	sites subsite.Table,
	parser *feed.Parser,
	downloader *feed.Downloader,
	processor Processor,
	logger *zap.Logger,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sites:      sites,
		parser:     parser,
		downloader: downloader,
		processor:  processor,
		logger:     logger,
	}
}

// RunBatch parses b.RSSFile and processes its items concurrently. Feed
// problems are logged and end the run without error; the first error from a
// task (including a recovered panic) is returned after all tasks finish.
func (d *Dispatcher) RunBatch(ctx context.Context, b Batch) error {
	site, items, err := d.parseBatch(b)
	if err != nil {
		d.logger.Error("failed to parse feed", zap.String("rss_file", b.RSSFile), zap.Error(err))
		return nil
	}
	if len(items) == 0 {
		d.logger.Error("no items to process", zap.String("rss_file", b.RSSFile))
		return nil
	}

	items = clamp(items, b.Limit)
	threads := b.Threads
	if threads <= 0 {
		threads = DefaultThreads
	}
	d.logger.Info("processing feed items",
		zap.String("subsite", site.Name),
		zap.Int("items", len(items)),
		zap.Int("threads", threads),
	)

	// A failing task does not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(threads)
	for _, item := range items {
		g.Go(func() error {
			return d.process(ctx, site, item)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch %s: %w", b.RSSFile, err)
	}
	d.logger.Info("batch complete", zap.String("subsite", site.Name), zap.Int("items", len(items)))
	return nil
}

// RunLink processes the single document addressed by link. An empty
// siteName detects the subsite from the link's hostname.
func (d *Dispatcher) RunLink(ctx context.Context, siteName, link string) error {
	site, err := d.resolve(siteName, link)
	if err != nil {
		return err
	}
	items := d.parser.ParseLink(link, site)
	if len(items) == 0 {
		d.logger.Error("no items to process", zap.String("link", link))
		return nil
	}
	return d.process(ctx, site, items[0])
}

// RunFeedURL downloads the feed at feedURL to a temp file and runs it as a
// batch. The temp file is always removed.
func (d *Dispatcher) RunFeedURL(ctx context.Context, b Batch, feedURL string) error {
	path, cleanup, err := d.downloader.ToTempFile(ctx, feedURL)
	defer cleanup()
	if err != nil {
		d.logger.Error("failed to download feed", zap.String("url", feedURL), zap.Error(err))
		return nil
	}
	b.RSSFile = path
	return d.RunBatch(ctx, b)
}

func (d *Dispatcher) parseBatch(b Batch) (subsite.Site, []hudoc.FeedItem, error) {
	if b.Subsite == "" {
		return d.parser.ParseFileDetect(b.RSSFile)
	}
	site, err := d.sites.Lookup(b.Subsite)
	if err != nil {
		return subsite.Site{}, nil, err
	}
	return site, d.parser.ParseFile(b.RSSFile, site), nil
}

func (d *Dispatcher) resolve(siteName, link string) (subsite.Site, error) {
	if siteName != "" {
		return d.sites.Lookup(siteName)
	}
	site, err := d.sites.DetectFromURL(link)
	if err != nil {
		return subsite.Site{}, fmt.Errorf("detect subsite: %w", err)
	}
	return site, nil
}

func (d *Dispatcher) process(ctx context.Context, site subsite.Site, item hudoc.FeedItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("task panicked", zap.String("doc_id", item.DocID), zap.Any("panic", r))
			err = fmt.Errorf("process %s: panic: %v", item.DocID, r)
		}
	}()
	return d.processor.Process(ctx, site, item)
}

func clamp(items []hudoc.FeedItem, limit int) []hudoc.FeedItem {
	if limit <= 0 || limit >= len(items) {
		return items
	}
	return items[:limit]
}
