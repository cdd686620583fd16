// Package feed turns HUDOC RSS feeds and single document links into
// FeedItems.
package feed

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/JakeFAU/hudoc-downloader/internal/hudoc"
	"github.com/JakeFAU/hudoc-downloader/internal/identifier"
	"github.com/JakeFAU/hudoc-downloader/internal/subsite"
)

// ErrSubsiteNotDetected is returned when a feed's links do not name a known subsite.
var ErrSubsiteNotDetected = errors.New("cannot detect subsite from feed")

// Parser reads RSS documents into FeedItems.
type Parser struct {
	sites     subsite.Table
	extractor *identifier.Extractor
	logger    *zap.Logger
}

// NewParser builds a Parser that resolves subsites against sites.
func NewParser(sites subsite.Table, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		sites:     sites,
		extractor: identifier.NewExtractor(logger),
		logger:    logger,
	}
}

// ParseFile parses the feed at path for a known subsite. A missing file or
// malformed XML is logged and yields no items.
func (p *Parser) ParseFile(path string, site subsite.Site) []hudoc.FeedItem {
	feed, ok := p.load(path)
	if !ok {
		return nil
	}
	return p.items(feed, site)
}

// ParseFileDetect parses the feed at path, inferring the subsite from the
// hostname of the first item's link.
func (p *Parser) ParseFileDetect(path string) (subsite.Site, []hudoc.FeedItem, error) {
	feed, ok := p.load(path)
	if !ok {
		return subsite.Site{}, nil, nil
	}
	if len(feed.Items) == 0 || strings.TrimSpace(feed.Items[0].Link) == "" {
		return subsite.Site{}, nil, fmt.Errorf("%w: first item has no link", ErrSubsiteNotDetected)
	}
	site, err := p.sites.DetectFromURL(feed.Items[0].Link)
	if err != nil {
		return subsite.Site{}, nil, fmt.Errorf("%w: %v", ErrSubsiteNotDetected, err)
	}
	p.logger.Debug("detected subsite", zap.String("subsite", site.Name))
	return site, p.items(feed, site), nil
}

// ParseLink builds the single item addressed by a document link.
func (p *Parser) ParseLink(link string, site subsite.Site) []hudoc.FeedItem {
	docID := p.extractor.FromLink(link, site.IDKey)
	if docID == "" {
		return nil
	}
	return []hudoc.FeedItem{{
		DocID:       docID,
		Title:       hudoc.DefaultTitle,
		Description: hudoc.DefaultDescription,
		SourceLink:  link,
	}}
}

func (p *Parser) load(path string) (*gofeed.Feed, bool) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.logger.Error("RSS file not found", zap.String("path", path))
		} else {
			p.logger.Error("failed to open RSS file", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}
	defer f.Close() //nolint:errcheck // read-only

	feed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		p.logger.Error("failed to parse RSS file", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	return feed, true
}

func (p *Parser) items(feed *gofeed.Feed, site subsite.Site) []hudoc.FeedItem {
	items := make([]hudoc.FeedItem, 0, len(feed.Items))
	for i, entry := range feed.Items {
		link := strings.TrimSpace(entry.Link)
		if link == "" {
			p.logger.Warn("feed item has no link", zap.Int("index", i))
			continue
		}
		docID := p.extractor.FromLink(link, site.IDKey)
		if docID == "" {
			continue
		}
		items = append(items, hudoc.FeedItem{
			DocID:       docID,
			Title:       orDefault(entry.Title, hudoc.DefaultTitle),
			Description: p.description(entry, site),
			Date:        p.pubDate(entry),
			SourceLink:  link,
		})
	}
	p.logger.Info("parsed feed items",
		zap.String("subsite", site.Name),
		zap.Int("items", len(items)),
		zap.Int("entries", len(feed.Items)),
	)
	return items
}

func (p *Parser) description(entry *gofeed.Item, site subsite.Site) string {
	if !site.HasDescription {
		return ""
	}
	return orDefault(entry.Description, hudoc.DefaultDescription)
}

func (p *Parser) pubDate(entry *gofeed.Item) *time.Time {
	raw := strings.TrimSpace(entry.Published)
	if raw == "" {
		return nil
	}
	parsed, err := mail.ParseDate(raw)
	if err != nil {
		p.logger.Warn("failed to parse pubDate", zap.String("pub_date", raw), zap.Error(err))
		return nil
	}
	return &parsed
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
