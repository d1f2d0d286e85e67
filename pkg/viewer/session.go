package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/store"
)

var (
	ErrStaleHandle  = errors.New("event from a viewer that is no longer active")
	ErrUnknownEvent = errors.New("unknown viewer event")
)

// Session keeps exactly one viewer alive, for the active document. The old
// handle is closed and dropped before a new one is created, and every handle
// gets a fresh generation id so late callbacks from torn-down viewers can be
// recognized.
type Session struct {
	store  *store.Store
	collab Collaborator
	sink   SelectionSink
	logger logger.ILogger

	mu         sync.Mutex
	handle     Handle
	docID      string
	generation uint64
	initFailed bool

	wake chan struct{}
}

func NewSession(st *store.Store, collab Collaborator, sink SelectionSink, log logger.ILogger) *Session {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Session{
		store:  st,
		collab: collab,
		sink:   sink,
		logger: log,
		wake:   make(chan struct{}, 1),
	}
}

// Run reconciles the viewer with the store until ctx is done, then closes the
// current handle.
func (s *Session) Run(ctx context.Context) {
	unsubscribe := s.store.Subscribe(func(store.Change) { s.poke() })
	defer unsubscribe()
	defer s.teardown()

	s.Reconcile(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			s.Reconcile(ctx)
		}
	}
}

func (s *Session) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Reload drops the current viewer so the next reconcile opens a fresh one for
// the active document. Called when the viewer widget reconnects.
func (s *Session) Reload() {
	s.teardown()
	s.poke()
}

// Current reports the live handle's generation and document.
func (s *Session) Current() (uint64, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation, s.docID, s.handle != nil
}

// Reconcile brings the viewer in line with the active document and then acts
// on any pending navigation intent.
func (s *Session) Reconcile(ctx context.Context) {
	snap := s.store.Snapshot()

	s.mu.Lock()
	switching := snap.ActiveDocumentID != s.docID
	s.mu.Unlock()

	if switching {
		s.teardown()
		if doc, ok := snap.ActiveDocument(); ok {
			s.open(ctx, doc)
		}
	}

	s.handleIntent(ctx)
}

func (s *Session) teardown() {
	s.mu.Lock()
	h := s.handle
	doc := s.docID
	s.handle = nil
	s.docID = ""
	s.initFailed = false
	s.generation++
	s.mu.Unlock()

	if h == nil {
		return
	}
	if err := h.Close(); err != nil {
		s.logger.Warn("Viewer", "Failed to close viewer", map[string]interface{}{
			"doc_id": doc,
			"error":  err.Error(),
		})
	}
}

func (s *Session) open(ctx context.Context, doc store.DocumentMeta) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.docID = doc.ID
	s.mu.Unlock()

	name := doc.Name
	if name == "" {
		name = doc.ID
	}
	h, err := s.collab.Initialize(ctx, Document{HandleID: gen, DocID: doc.ID, URL: doc.URL, Name: name})

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// Another switch happened while this viewer was loading.
		if h != nil {
			h.Close()
		}
		return
	}
	if err != nil {
		s.initFailed = true
		s.logger.Error("Viewer", "Viewer initialization failed", map[string]interface{}{
			"doc_id": doc.ID,
			"url":    doc.URL,
			"error":  err.Error(),
		})
		return
	}
	s.handle = h
	s.logger.Info("Viewer", "Viewer ready", map[string]interface{}{
		"doc_id":    doc.ID,
		"handle_id": gen,
	})
}

func (s *Session) handleIntent(ctx context.Context) {
	s.mu.Lock()
	h := s.handle
	loaded := s.docID
	failed := s.initFailed
	s.mu.Unlock()

	// Every store call below checks the intent's document atomically, so an
	// intent armed for another document in the meantime is left alone.
	if intent, ok := s.store.DiscardInactiveNavigation(); ok {
		s.logger.Warn("Viewer", "Discarding navigation for inactive document", map[string]interface{}{
			"doc_id": intent.DocID,
		})
	}

	if h == nil && !failed {
		return
	}
	intent, ok := s.store.ConsumeNavigationFor(loaded)
	if !ok {
		return
	}
	if h == nil {
		s.logger.Warn("Viewer", "Discarding navigation, viewer failed to load", map[string]interface{}{
			"doc_id": intent.DocID,
		})
		return
	}
	if err := h.GotoLocation(ctx, intent.Page(), 0, 0); err != nil {
		s.logger.Warn("Viewer", "Page jump failed", map[string]interface{}{
			"doc_id": intent.DocID,
			"page":   intent.Page(),
			"error":  err.Error(),
		})
		return
	}
	s.logger.Debug("Viewer", "Jumped to page", map[string]interface{}{
		"doc_id": intent.DocID,
		"page":   intent.Page(),
	})
}

// HandleEvent routes a viewer callback. Events from an older generation, or
// for a document that is no longer active, are dropped with ErrStaleHandle.
func (s *Session) HandleEvent(ctx context.Context, handleID uint64, ev Event) error {
	s.mu.Lock()
	h := s.handle
	gen := s.generation
	doc := s.docID
	s.mu.Unlock()

	if h == nil || handleID != gen || doc != s.store.Snapshot().ActiveDocumentID {
		s.logger.Debug("Viewer", "Dropping event from stale viewer", map[string]interface{}{
			"handle_id": handleID,
			"current":   gen,
			"type":      ev.Type,
		})
		return ErrStaleHandle
	}

	switch ev.Type {
	case EventSelectionEnd:
		text := ev.Text
		if strings.TrimSpace(text) == "" {
			content, err := h.GetSelectedContent(ctx)
			if err != nil {
				s.logger.Warn("Viewer", "Failed to read selection", map[string]interface{}{
					"doc_id": doc,
					"error":  err.Error(),
				})
				return nil
			}
			text = content
		}
		s.sink.Trigger(text)
		return nil

	case EventPagesInView:
		s.logger.Debug("Viewer", "Pages in view changed", map[string]interface{}{
			"doc_id": doc,
			"pages":  ev.Pages,
		})
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
}
