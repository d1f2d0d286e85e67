// Package preferences persists the few settings that outlive a session:
// online mode and the most recent current document.
package preferences

import (
	"context"
	"errors"
	"sync"
	"time"

	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/store"
)

// ErrNotFound is returned by Load when nothing was saved yet.
var ErrNotFound = errors.New("preferences not found")

type Preferences struct {
	OnlineMode      bool   `json:"online_mode"`
	RecentCurrentID string `json:"recent_current_id,omitempty"`
}

func Defaults() Preferences {
	return Preferences{OnlineMode: true}
}

type Store interface {
	Load(ctx context.Context) (Preferences, error)
	Save(ctx context.Context, p Preferences) error
	Close() error
}

func fromState(s store.ApplicationState) Preferences {
	return Preferences{OnlineMode: s.OnlineMode, RecentCurrentID: s.RecentCurrentID}
}

// Bind restores saved preferences into st and keeps them saved as st changes.
// A failed load leaves the defaults in place. The returned function stops
// the syncing.
func Bind(ctx context.Context, st *store.Store, prefs Store, log logger.ILogger) func() {
	if log == nil {
		log = logger.NewNopLogger()
	}

	loaded, err := prefs.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		loaded = Defaults()
	case err != nil:
		log.Warn("Preferences", "Failed to load preferences, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		loaded = Defaults()
	}

	st.SetOnlineMode(loaded.OnlineMode)
	if loaded.RecentCurrentID != "" {
		st.SetRecentCurrent(loaded.RecentCurrentID)
	}

	var (
		mu          sync.Mutex
		lastVersion uint64
	)
	last := fromState(st.Snapshot())

	return st.Subscribe(func(c store.Change) {
		next := fromState(c.State)

		mu.Lock()
		defer mu.Unlock()
		// A change that arrives after a newer one must not overwrite it.
		if c.Version <= lastVersion {
			return
		}
		lastVersion = c.Version
		if next == last {
			return
		}

		saveCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := prefs.Save(saveCtx, next); err != nil {
			log.Error("Preferences", "Failed to save preferences", map[string]interface{}{
				"error":  err.Error(),
				"action": c.Action,
			})
			return
		}
		last = next
	})
}
