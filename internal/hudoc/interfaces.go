package hudoc

import (
	"context"
	"time"
)

// Response is the raw result of an HTTP GET.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
	// Truncated is set when Body was cut at the getter's size cap.
	Truncated bool
}

// Getter performs a single HTTP GET. Non-2xx statuses are errors.
type Getter interface {
	Get(ctx context.Context, rawURL string) (Response, error)
}

// TextFetcher retrieves the extracted text of one document.
type TextFetcher interface {
	Text(ctx context.Context, req FetchRequest) (string, bool)
}

// FetchRequest identifies a document on a subsite's conversion endpoint.
type FetchRequest struct {
	Subsite    string
	DocID      string
	BaseURL    string
	Library    string
	SourceLink string
}

// DocumentWriter persists a fetched document.
type DocumentWriter interface {
	Write(ctx context.Context, doc Document) WriteOutcome
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator derives the stable directory identifier for a document.
type IDGenerator interface {
	StableID(subsite, docID string) string
}
