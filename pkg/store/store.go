package store

import (
	"maps"
	"slices"
	"sync"

	"docuwise-client/internal/pkg/logger"
)

// Change is delivered to listeners after every applied transition.
type Change struct {
	Action  string
	Version uint64
	State   ApplicationState
}

// Listener observes applied transitions. It runs on the goroutine that issued
// the transition, after the store lock is released. Listeners are called in
// subscription order. Transitions issued from different goroutines may reach
// a listener out of Version order.
type Listener func(Change)

// Store owns the ApplicationState. All mutation goes through the named
// transitions below; each one is applied atomically under a single lock.
type Store struct {
	mu      sync.Mutex
	state   ApplicationState
	latest  Token
	version uint64

	listenerMu   sync.RWMutex
	listeners    map[int]Listener
	nextListener int

	logger logger.ILogger
}

// New creates a store with default state (online mode on, nothing loaded).
func New(log logger.ILogger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{
		state:     newState(),
		listeners: make(map[int]Listener),
		logger:    log,
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() ApplicationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.listenerMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

// IsLatest reports whether token still identifies the newest retrieval cycle.
func (s *Store) IsLatest(token Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token == s.latest
}

func (s *Store) dispatch(a Action) bool {
	s.mu.Lock()
	applied := a.reduce(&reduction{state: &s.state, latest: &s.latest})
	if !applied {
		s.mu.Unlock()
		return false
	}
	s.version++
	change := Change{Action: a.Name(), Version: s.version, State: s.state.clone()}
	s.mu.Unlock()

	s.logger.Debug("Store", "Transition applied", map[string]interface{}{
		"action":  change.Action,
		"version": change.Version,
	})
	s.notify(change)
	return true
}

func (s *Store) notify(c Change) {
	s.listenerMu.RLock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, id := range slices.Sorted(maps.Keys(s.listeners)) {
		ls = append(ls, s.listeners[id])
	}
	s.listenerMu.RUnlock()

	for _, l := range ls {
		l(c)
	}
}

// ReplaceDocuments swaps in a new document list, keeping the active document
// when it is still listed and otherwise falling back to the first one.
func (s *Store) ReplaceDocuments(docs []DocumentMeta) {
	s.dispatch(replaceDocuments{docs: docs})
}

// SetActiveDocument activates id, or clears the active document when id is
// empty. Unknown ids are ignored and reported as false.
func (s *Store) SetActiveDocument(id string) bool {
	return s.dispatch(setActiveDocument{id: id})
}

// RemoveDocument drops id from the list. Removing the active document makes
// the first remaining one active.
func (s *Store) RemoveDocument(id string) bool {
	return s.dispatch(removeDocument{id: id})
}

// BeginSelection starts a new retrieval cycle and returns its token. Prior
// snippets, insights and the selected snippet key are cleared together.
func (s *Store) BeginSelection(text string) Token {
	a := &beginSelection{text: text}
	s.dispatch(a)
	return a.token
}

// CommitSnippets stores the snippets of cycle token if it is still the latest.
func (s *Store) CommitSnippets(token Token, snippets []Snippet) bool {
	return s.dispatch(commitSnippets{token: token, snippets: snippets})
}

// CommitInsights replaces the insights pack of cycle token if it is still the latest.
func (s *Store) CommitInsights(token Token, pack InsightsPack) bool {
	return s.dispatch(commitInsights{token: token, pack: pack})
}

// EndSelection clears the loading flag for cycle token if it is still the latest.
func (s *Store) EndSelection(token Token) bool {
	return s.dispatch(endSelection{token: token})
}

// ResetRightPanel empties every selection result. Calling it twice yields the
// same state.
func (s *Store) ResetRightPanel() {
	s.dispatch(resetRightPanel{})
}

// ArmNavigation replaces any pending intent with intent.
func (s *Store) ArmNavigation(intent NavigationIntent) {
	s.dispatch(armNavigation{intent: intent})
}

// ActivateAndArm makes intent.DocID active and arms intent in one transition.
func (s *Store) ActivateAndArm(intent NavigationIntent) bool {
	return s.dispatch(activateAndArm{intent: intent})
}

// ConsumeNavigation takes the pending intent, leaving none behind.
func (s *Store) ConsumeNavigation() (*NavigationIntent, bool) {
	a := &consumeNavigation{}
	if !s.dispatch(a) {
		return nil, false
	}
	return a.taken, true
}

// ConsumeNavigationFor takes the pending intent only when it targets docID.
// An intent for any other document stays armed.
func (s *Store) ConsumeNavigationFor(docID string) (*NavigationIntent, bool) {
	if docID == "" {
		return nil, false
	}
	a := &consumeNavigation{docID: docID}
	if !s.dispatch(a) {
		return nil, false
	}
	return a.taken, true
}

// DiscardInactiveNavigation drops the pending intent when its document is not
// the active one.
func (s *Store) DiscardInactiveNavigation() (*NavigationIntent, bool) {
	a := &consumeNavigation{inactive: true}
	if !s.dispatch(a) {
		return nil, false
	}
	return a.taken, true
}

// SelectSnippet marks key as selected when exactly one snippet carries it.
func (s *Store) SelectSnippet(key string) bool {
	return s.dispatch(selectSnippet{key: key})
}

func (s *Store) ClearSnippetSelection() {
	s.dispatch(clearSnippetSelection{})
}

func (s *Store) SetOnlineMode(online bool) {
	s.dispatch(setOnlineMode{online: online})
}

func (s *Store) SetRecentCurrent(id string) {
	s.dispatch(setRecentCurrent{id: id})
}

func (s *Store) SetAudioURL(url string) {
	s.dispatch(setAudioURL{url: url})
}
