// Package viewer owns the embedded PDF viewer handle for the active document,
// routes its events into the retrieval pipeline and carries out page jumps.
package viewer

import "context"

// EventType names an inbound viewer event.
type EventType string

const (
	EventSelectionEnd EventType = "selection_end"
	EventPagesInView  EventType = "pages_in_view_changed"
)

// Event is one callback from a viewer. Pages is only set for page-view events.
type Event struct {
	Type  EventType `json:"type"`
	Text  string    `json:"text,omitempty"`
	Pages []int     `json:"pages,omitempty"`
}

// Document describes what a new viewer should load. HandleID tags every event
// the viewer sends back.
type Document struct {
	HandleID uint64
	DocID    string
	URL      string
	Name     string
}

// Handle is a live viewer for one document.
type Handle interface {
	GetSelectedContent(ctx context.Context) (string, error)
	GotoLocation(ctx context.Context, page int, x, y float64) error
	Close() error
}

// Collaborator creates viewers.
type Collaborator interface {
	Initialize(ctx context.Context, doc Document) (Handle, error)
}

// SelectionSink receives finished selections. The retrieval pipeline
// satisfies it.
type SelectionSink interface {
	Trigger(text string)
}
