package writer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/JakeFAU/hudoc-downloader/internal/hudoc"
)

const (
	metadataFilename = "info.yml"
	sourceFamilyTag  = "hudoc"
)

// Metadata is the evid sidecar record.
type Metadata struct {
	Authors      string   `yaml:"authors"`
	Dates        string   `yaml:"dates"`
	Label        string   `yaml:"label"`
	OriginalName string   `yaml:"original_name"`
	Tags         []string `yaml:"tags"`
	TimeAdded    string   `yaml:"time_added"`
	Title        string   `yaml:"title"`
	URL          string   `yaml:"url"`
	UUID         string   `yaml:"uuid"`
}

// BundleDir is the evid directory for doc under the configured output dir.
func (w *Writer) BundleDir(doc hudoc.Document) string {
	return filepath.Join(w.cfg.OutputDir, w.ids.StableID(doc.Subsite, doc.DocID))
}

func (w *Writer) writeEvid(doc hudoc.Document) hudoc.WriteOutcome {
	dir := w.BundleDir(doc)
	dirID := filepath.Base(dir)
	markupPath := filepath.Join(dir, w.cfg.Markup.Filename())
	metaPath := filepath.Join(dir, metadataFilename)
	log := w.logger.With(zap.String("doc_id", doc.DocID), zap.String("dir", dir))

	markupExists, metaExists := fileExists(markupPath), fileExists(metaPath)
	switch {
	case markupExists && metaExists:
		log.Info("document already downloaded, skipping")
		return hudoc.OutcomeSkipped
	case markupExists || metaExists:
		log.Warn("incomplete evid directory, rewriting both files",
			zap.Bool("markup_exists", markupExists),
			zap.Bool("metadata_exists", metaExists),
		)
	}

	meta, err := w.metadata(doc, dirID)
	if err != nil {
		log.Error("failed to build metadata", zap.Error(err))
		return hudoc.OutcomeFailed
	}
	markup, err := w.renderMarkup(doc, meta)
	if err != nil {
		log.Error("failed to render markup", zap.Error(err))
		return hudoc.OutcomeFailed
	}
	sidecar, err := MarshalMetadata(meta)
	if err != nil {
		log.Error("failed to encode metadata", zap.Error(err))
		return hudoc.OutcomeFailed
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		log.Error("failed to create evid dir", zap.Error(err))
		return hudoc.OutcomeFailed
	}
	if err := os.WriteFile(markupPath, markup, filePerm); err != nil {
		log.Error("failed to save evid markup", zap.String("path", markupPath), zap.Error(err))
		return hudoc.OutcomeFailed
	}
	if err := os.WriteFile(metaPath, sidecar, filePerm); err != nil {
		log.Error("failed to save evid metadata", zap.String("path", metaPath), zap.Error(err))
		return hudoc.OutcomeFailed
	}
	log.Info("saved evid bundle")
	return hudoc.OutcomeWritten
}

func (w *Writer) metadata(doc hudoc.Document, dirID string) (Metadata, error) {
	site, err := w.sites.Lookup(doc.Subsite)
	if err != nil {
		return Metadata{}, err
	}
	today := w.clock.Now().Format(time.DateOnly)
	date := today
	if doc.Date != nil {
		date = doc.Date.Format(time.DateOnly)
	}
	return Metadata{
		Authors:      doc.Subsite,
		Dates:        date,
		Label:        orDefault(doc.Description, hudoc.DefaultDescription),
		OriginalName: PlainFilename(doc.Subsite, doc.DocID),
		Tags:         []string{sourceFamilyTag, doc.Subsite},
		TimeAdded:    today,
		Title:        orDefault(doc.Title, hudoc.DefaultTitle),
		URL:          site.DocumentURL(doc.DocID),
		UUID:         dirID,
	}, nil
}

func (w *Writer) renderMarkup(doc hudoc.Document, meta Metadata) ([]byte, error) {
	data := templateData{
		Meta:   meta,
		SafeID: SanitizeID(doc.DocID),
		Body:   CollapseBlankLines(w.cfg.Markup.escape(doc.Text)),
	}
	var buf bytes.Buffer
	if err := w.cfg.Markup.template().Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute %s template: %w", w.cfg.Markup, err)
	}
	return buf.Bytes(), nil
}

// MarshalMetadata encodes meta as YAML with every scalar single-quoted.
func MarshalMetadata(meta Metadata) ([]byte, error) {
	var root yaml.Node
	if err := root.Encode(meta); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	singleQuote(&root)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flush metadata: %w", err)
	}
	return buf.Bytes(), nil
}

func singleQuote(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		n.Style = yaml.SingleQuotedStyle
	}
	for _, c := range n.Content {
		singleQuote(c)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
