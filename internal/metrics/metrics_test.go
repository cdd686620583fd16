package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveDocument("echr", "written")
	r.ObserveDocument("echr", "written")
	r.ObserveDocument("echr", "skipped")
	r.ObserveFetch("echr", ResultEmpty, 50*time.Millisecond)
	r.ObserveFetch("echr", ResultOK, 80*time.Millisecond)
	r.ObserveTrigger("echr", ResultError)

	if got := testutil.ToFloat64(r.documentsTotal.WithLabelValues("echr", "written")); got != 2 {
		t.Fatalf("expected 2 written documents, got %v", got)
	}
	if got := testutil.ToFloat64(r.documentsTotal.WithLabelValues("echr", "skipped")); got != 1 {
		t.Fatalf("expected 1 skipped document, got %v", got)
	}
	if got := testutil.ToFloat64(r.fetchAttemptsTotal.WithLabelValues("echr", ResultOK)); got != 1 {
		t.Fatalf("expected 1 ok fetch, got %v", got)
	}
	if got := testutil.ToFloat64(r.triggersTotal.WithLabelValues("echr", ResultError)); got != 1 {
		t.Fatalf("expected 1 failed trigger, got %v", got)
	}
	if got := testutil.CollectAndCount(r.fetchDuration); got != 1 {
		t.Fatalf("expected 1 histogram series, got %d", got)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	t.Parallel()

	var r *Recorder
	r.ObserveDocument("echr", "written")
	r.ObserveFetch("echr", ResultOK, time.Second)
	r.ObserveTrigger("echr", ResultOK)
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r := New(reg)
	r.ObserveDocument("grevio", "written")

	path := filepath.Join(t.TempDir(), "hudoc.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	want := `hudoc_documents_total{outcome="written",subsite="grevio"} 1`
	if !strings.Contains(string(data), want) {
		t.Fatalf("expected %q in textfile, got:\n%s", want, data)
	}
}

func TestWriteTextfileBadPath(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	New(reg)
	if err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "hudoc.prom"), reg); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
