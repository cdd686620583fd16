package feed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/hudoc-downloader/internal/hudoc"
)

// rssTransformPath marks HUDOC links that return a feed instead of a document.
const rssTransformPath = "/app/transform/rss"

// IsFeedURL reports whether link points at a HUDOC RSS transform endpoint.
func IsFeedURL(link string) bool {
	return strings.Contains(link, rssTransformPath)
}

// Downloader stores remote feeds in temporary files for the Parser.
type Downloader struct {
	getter hudoc.Getter
	tmpDir string
	logger *zap.Logger
}

// NewDownloader builds a Downloader. An empty tmpDir uses os.TempDir.
func NewDownloader(getter hudoc.Getter, tmpDir string, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{getter: getter, tmpDir: tmpDir, logger: logger}
}

// ToTempFile fetches feedURL into a new temp file. The returned cleanup
// removes the file and is safe to call even when err is non-nil.
func (d *Downloader) ToTempFile(ctx context.Context, feedURL string) (string, func(), error) {
	noop := func() {}
	resp, err := d.getter.Get(ctx, feedURL)
	if err != nil {
		return "", noop, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}

	f, err := os.CreateTemp(d.tmpDir, "hudoc-rss-*.xml")
	if err != nil {
		return "", noop, fmt.Errorf("create temp feed file: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			d.logger.Warn("failed to remove temp feed file", zap.String("path", path), zap.Error(rmErr))
		}
	}

	if _, err := f.Write(resp.Body); err != nil {
		_ = f.Close()
		return path, cleanup, fmt.Errorf("write temp feed file: %w", err)
	}
	if err := f.Close(); err != nil {
		return path, cleanup, fmt.Errorf("close temp feed file: %w", err)
	}
	d.logger.Debug("downloaded feed",
		zap.String("url", feedURL),
		zap.String("path", path),
		zap.Int("bytes", len(resp.Body)),
	)
	return path, cleanup, nil
}
