// Package writer persists fetched documents as plain text files or as evid
// annotation bundles (markup file plus YAML sidecar).
package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/hudoc-downloader/internal/hudoc"
	"github.com/JakeFAU/hudoc-downloader/internal/subsite"
)

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// Config selects the output layout.
type Config struct {
	OutputDir string
	Evid      bool
	Markup    Markup
}

// Writer implements hudoc.DocumentWriter.
type Writer struct {
	cfg    Config
	sites  subsite.Table
	ids    hudoc.IDGenerator
	clock  hudoc.Clock
	logger *zap.Logger
}

// New builds a Writer. sites supplies the identifier keys used in metadata URLs.
func New(cfg Config, sites subsite.Table, ids hudoc.IDGenerator, clock hudoc.Clock, logger *zap.Logger) *Writer {
	if cfg.Markup == "" {
		cfg.Markup = MarkupTypst
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		cfg:    cfg,
		sites:  sites,
		ids:    ids,
		clock:  clock,
		logger: logger,
	}
}

// Write stores doc and reports what happened. I/O failures are logged with
// the document id and reported as hudoc.OutcomeFailed.
func (w *Writer) Write(ctx context.Context, doc hudoc.Document) hudoc.WriteOutcome {
	if err := ctx.Err(); err != nil {
		w.logger.Error("write canceled", zap.String("doc_id", doc.DocID), zap.Error(err))
		return hudoc.OutcomeFailed
	}
	if w.cfg.Evid {
		return w.writeEvid(doc)
	}
	return w.writePlain(doc)
}

// SanitizeID makes a document id safe for use in file names.
func SanitizeID(docID string) string {
	return strings.NewReplacer("/", "_", ":", "_", " ", "_").Replace(docID)
}

// PlainFilename is the plain-mode file name for (subsite, docID).
func PlainFilename(subsiteName, docID string) string {
	return fmt.Sprintf("%s_doc_%s.txt", subsiteName, SanitizeID(docID))
}

// PlainContent renders the plain-mode file body.
func PlainContent(title, description, text string) string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(title)
	b.WriteString("\n")
	if description != "" {
		b.WriteString("Description: ")
		b.WriteString(description)
		b.WriteString("\n\n")
	}
	b.WriteString(text)
	return b.String()
}

func (w *Writer) writePlain(doc hudoc.Document) hudoc.WriteOutcome {
	path := filepath.Join(w.cfg.OutputDir, PlainFilename(doc.Subsite, doc.DocID))
	log := w.logger.With(zap.String("doc_id", doc.DocID), zap.String("path", path))

	if err := os.MkdirAll(w.cfg.OutputDir, dirPerm); err != nil {
		log.Error("failed to create output dir", zap.Error(err))
		return hudoc.OutcomeFailed
	}
	content := PlainContent(doc.Title, doc.Description, doc.Text)
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		log.Error("failed to save file", zap.Error(err))
		return hudoc.OutcomeFailed
	}
	log.Info("saved document")
	return hudoc.OutcomeWritten
}
