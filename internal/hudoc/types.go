package hudoc

import "time"

// Default labels applied when a feed entry omits them.
const (
	DefaultTitle       = "Untitled"
	DefaultDescription = "No description"
)

// FeedItem is one downloadable document announced by a feed or a link.
type FeedItem struct {
	DocID       string
	Title       string
	Description string
	Date        *time.Time
	// SourceLink is the raw feed link, hit again to trigger server-side conversion.
	SourceLink string
}

// Document is the writer's input: fetched text plus the item's metadata.
type Document struct {
	Text        string
	DocID       string
	Title       string
	Description string
	Subsite     string
	Date        *time.Time
}

// NewDocument pairs an item with its fetched text.
func NewDocument(subsite string, item FeedItem, text string) Document {
	return Document{
		Text:        text,
		DocID:       item.DocID,
		Title:       item.Title,
		Description: item.Description,
		Subsite:     subsite,
		Date:        item.Date,
	}
}

// WriteOutcome reports what a writer did with a document.
type WriteOutcome string

// Writer outcomes, also used as metric label values.
const (
	OutcomeWritten WriteOutcome = "written"
	OutcomeSkipped WriteOutcome = "skipped"
	OutcomeFailed  WriteOutcome = "failed"
	OutcomeEmpty   WriteOutcome = "empty"
)
