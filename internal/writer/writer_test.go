package writer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/JakeFAU/hudoc-downloader/internal/hudoc"
	uuidgen "github.com/JakeFAU/hudoc-downloader/internal/id/uuid"
	"github.com/JakeFAU/hudoc-downloader/internal/subsite"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var today = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func newTestWriter(t *testing.T, cfg Config) (*Writer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	w := New(cfg, subsite.Default(), uuidgen.New(), fixedClock{t: today}, zap.New(core))
	return w, logs
}

func sampleDoc() hudoc.Document {
	date := time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC)
	return hudoc.Document{
		Text:        "First paragraph.\n\nSecond paragraph.",
		DocID:       "001-123456",
		Title:       "CASE OF TEST v. TEST",
		Description: "12345/20 - Chamber Judgment",
		Subsite:     "echr",
		Date:        &date,
	}
}

func TestSanitizeAndFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a_b_c_d", SanitizeID("a/b:c d"))
	assert.Equal(t, "echr_doc_001-123456.txt", PlainFilename("echr", "001-123456"))
	assert.Equal(t, "grevio_doc_x_y.txt", PlainFilename("grevio", "x/y"))
}

func TestPlainContent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Title: T\nDescription: D\n\nBody", PlainContent("T", "D", "Body"))
	assert.Equal(t, "Title: T\nBody", PlainContent("T", "", "Body"))
}

func TestWritePlain(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	w, logs := newTestWriter(t, Config{OutputDir: dir})

	outcome := w.Write(context.Background(), sampleDoc())
	require.Equal(t, hudoc.OutcomeWritten, outcome)

	got, err := os.ReadFile(filepath.Join(dir, "echr_doc_001-123456.txt"))
	require.NoError(t, err)
	assert.Equal(t,
		"Title: CASE OF TEST v. TEST\nDescription: 12345/20 - Chamber Judgment\n\nFirst paragraph.\n\nSecond paragraph.",
		string(got))
	assert.Equal(t, 1, logs.FilterMessage("saved document").Len())
}

func TestWritePlainOverwrites(t *testing.T) {
	t.Parallel()

	w, _ := newTestWriter(t, Config{})
	doc := sampleDoc()
	require.Equal(t, hudoc.OutcomeWritten, w.Write(context.Background(), doc))

	doc.Text = "changed"
	doc.Description = ""
	require.Equal(t, hudoc.OutcomeWritten, w.Write(context.Background(), doc))

	got, err := os.ReadFile(filepath.Join(w.cfg.OutputDir, "echr_doc_001-123456.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Title: CASE OF TEST v. TEST\nchanged", string(got))
}

func TestWritePlainFailureLogsDocID(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	w, logs := newTestWriter(t, Config{OutputDir: filepath.Join(blocker, "sub")})
	require.Equal(t, hudoc.OutcomeFailed, w.Write(context.Background(), sampleDoc()))

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "001-123456", entries[0].ContextMap()["doc_id"])
}

func TestWriteCanceledContext(t *testing.T) {
	t.Parallel()

	w, _ := newTestWriter(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, hudoc.OutcomeFailed, w.Write(ctx, sampleDoc()))
}

func TestWriteEvidTypst(t *testing.T) {
	t.Parallel()

	w, _ := newTestWriter(t, Config{Evid: true})
	doc := sampleDoc()
	doc.Text = "Art. #3 costs $5 under [rule]\n\n\n\nnext"

	require.Equal(t, hudoc.OutcomeWritten, w.Write(context.Background(), doc))

	dirID := uuidgen.New().StableID("echr", "001-123456")
	dir := filepath.Join(w.cfg.OutputDir, dirID)
	assert.Equal(t, dir, w.BundleDir(doc))

	markup, err := os.ReadFile(filepath.Join(dir, "label.typ"))
	require.NoError(t, err)
	body := string(markup)
	assert.Contains(t, body, `title: "CASE OF TEST v. TEST",`)
	assert.Contains(t, body, `dates: "2023-11-14",`)
	assert.Contains(t, body, `tags: ("hudoc", "echr",),`)
	assert.Contains(t, body, "== 001-123456")
	assert.Contains(t, body, `Art. \#3 costs \$5 under \[rule\]`+"\n\nnext")
	assert.NotContains(t, body, "\n\n\n")

	raw, err := os.ReadFile(filepath.Join(dir, "info.yml"))
	require.NoError(t, err)
	var meta Metadata
	require.NoError(t, yaml.Unmarshal(raw, &meta))
	assert.Equal(t, Metadata{
		Authors:      "echr",
		Dates:        "2023-11-14",
		Label:        "12345/20 - Chamber Judgment",
		OriginalName: "echr_doc_001-123456.txt",
		Tags:         []string{"hudoc", "echr"},
		TimeAdded:    "2024-03-05",
		Title:        "CASE OF TEST v. TEST",
		URL:          `https://hudoc.echr.coe.int/eng#{"itemid":["001-123456"]}`,
		UUID:         dirID,
	}, meta)
}

func TestWriteEvidLaTeX(t *testing.T) {
	t.Parallel()

	w, _ := newTestWriter(t, Config{Evid: true, Markup: MarkupLaTeX})
	doc := sampleDoc()
	doc.Text = "50% of A&B_c"
	doc.Title = ""
	doc.Description = ""
	doc.Date = nil

	require.Equal(t, hudoc.OutcomeWritten, w.Write(context.Background(), doc))

	markup, err := os.ReadFile(filepath.Join(w.BundleDir(doc), "label.tex"))
	require.NoError(t, err)
	body := string(markup)
	assert.Contains(t, body, `\documentclass[parskip=full]{article}`)
	assert.Contains(t, body, `\title{Untitled}`)
	assert.Contains(t, body, `\sdate{2024-03-05}`)
	assert.Contains(t, body, `\section{001-123456}`)
	assert.Contains(t, body, `50\% of A\&B\_c`)

	raw, err := os.ReadFile(filepath.Join(w.BundleDir(doc), "info.yml"))
	require.NoError(t, err)
	var meta Metadata
	require.NoError(t, yaml.Unmarshal(raw, &meta))
	assert.Equal(t, "No description", meta.Label)
	assert.Equal(t, "2024-03-05", meta.Dates)
}

func TestWriteEvidSkipsCompleteBundle(t *testing.T) {
	t.Parallel()

	w, logs := newTestWriter(t, Config{Evid: true})
	doc := sampleDoc()
	require.Equal(t, hudoc.OutcomeWritten, w.Write(context.Background(), doc))

	markupPath := filepath.Join(w.BundleDir(doc), "label.typ")
	before, err := os.ReadFile(markupPath)
	require.NoError(t, err)

	doc.Text = "different text"
	require.Equal(t, hudoc.OutcomeSkipped, w.Write(context.Background(), doc))

	after, err := os.ReadFile(markupPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, logs.FilterMessage("document already downloaded, skipping").Len())
}

func TestWriteEvidRewritesIncompleteBundle(t *testing.T) {
	t.Parallel()

	w, logs := newTestWriter(t, Config{Evid: true})
	doc := sampleDoc()
	require.Equal(t, hudoc.OutcomeWritten, w.Write(context.Background(), doc))
	require.NoError(t, os.Remove(filepath.Join(w.BundleDir(doc), "info.yml")))

	doc.Text = "fresh text"
	require.Equal(t, hudoc.OutcomeWritten, w.Write(context.Background(), doc))

	markup, err := os.ReadFile(filepath.Join(w.BundleDir(doc), "label.typ"))
	require.NoError(t, err)
	assert.Contains(t, string(markup), "fresh text")
	assert.FileExists(t, filepath.Join(w.BundleDir(doc), "info.yml"))
	assert.Equal(t, 1, logs.FilterMessage("incomplete evid directory, rewriting both files").Len())
}

func TestWriteEvidUnknownSubsite(t *testing.T) {
	t.Parallel()

	w, _ := newTestWriter(t, Config{Evid: true})
	doc := sampleDoc()
	doc.Subsite = "nowhere"
	assert.Equal(t, hudoc.OutcomeFailed, w.Write(context.Background(), doc))
}

func TestMarshalMetadataSingleQuoted(t *testing.T) {
	t.Parallel()

	out, err := MarshalMetadata(Metadata{
		Authors: "echr",
		Title:   "It's a case",
		Tags:    []string{"hudoc", "echr"},
	})
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "'authors': 'echr'\n")
	assert.Contains(t, s, "'title': 'It''s a case'\n")
	assert.Contains(t, s, "- 'hudoc'\n")
}

func TestParseMarkup(t *testing.T) {
	t.Parallel()

	m, err := ParseMarkup("")
	require.NoError(t, err)
	assert.Equal(t, MarkupTypst, m)

	m, err = ParseMarkup(" LaTeX ")
	require.NoError(t, err)
	assert.Equal(t, MarkupLaTeX, m)
	assert.Equal(t, "label.tex", m.Filename())
	assert.Equal(t, "label.typ", MarkupTypst.Filename())

	_, err = ParseMarkup("markdown")
	require.Error(t, err)
}
