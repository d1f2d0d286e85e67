// Package navigation resolves snippet activations into an active document and
// a page-jump intent for the viewer.
package navigation

import (
	"path"
	"strings"

	"docuwise-client/internal/metrics"
	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/store"
)

// Outcome describes what an activation did.
type Outcome string

const (
	OutcomeSameDocument Outcome = "same_document"
	OutcomeSwitched     Outcome = "switched"
	OutcomeNotFound     Outcome = "not_found"
)

// DefaultIDSuffix is the extension the document collection uses in its ids.
const DefaultIDSuffix = ".pdf"

type Controller struct {
	store    *store.Store
	idSuffix string
	logger   logger.ILogger
	metrics  *metrics.Metrics
}

func NewController(st *store.Store, idSuffix string, log logger.ILogger, m *metrics.Metrics) *Controller {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Controller{
		store:    st,
		idSuffix: idSuffix,
		logger:   log,
		metrics:  m,
	}
}

// CanonicalID derives the collection id a snippet points at. It takes the first
// populated of DocID, DocName and Document, strips any directory part and
// appends the id suffix when missing.
func CanonicalID(s store.Snippet, suffix string) string {
	raw := ""
	for _, candidate := range []string{s.DocID, s.DocName, s.Document} {
		if c := strings.TrimSpace(candidate); c != "" {
			raw = c
			break
		}
	}
	if raw == "" {
		return ""
	}

	raw = strings.ReplaceAll(raw, "\\", "/")
	id := path.Base(raw)
	if id == "." || id == "/" {
		return ""
	}
	if suffix != "" && !strings.HasSuffix(strings.ToLower(id), strings.ToLower(suffix)) {
		id += suffix
	}
	return id
}

// Activate makes the snippet's document active and arms a jump to its page.
// The selected snippet key follows the activation.
func (c *Controller) Activate(s store.Snippet) Outcome {
	id := CanonicalID(s, c.idSuffix)
	intent := store.NavigationIntent{DocID: id, PageNumber: s.PageNumber}
	snap := c.store.Snapshot()

	var outcome Outcome
	switch {
	case id == "":
		outcome = OutcomeNotFound
	case id == snap.ActiveDocumentID:
		c.store.ArmNavigation(intent)
		outcome = OutcomeSameDocument
	case c.store.ActivateAndArm(intent):
		outcome = OutcomeSwitched
	default:
		outcome = OutcomeNotFound
	}

	details := map[string]interface{}{
		"doc_id":  id,
		"page":    intent.Page(),
		"outcome": outcome,
	}
	if outcome == OutcomeNotFound {
		details["doc_name"] = s.DocName
		details["document"] = s.Document
		c.logger.Warn("Navigation", "Snippet document not in collection", details)
	} else {
		c.store.SelectSnippet(store.SnippetKey(s))
		c.logger.Debug("Navigation", "Navigation armed", details)
	}
	c.metrics.RecordNavigation(string(outcome))
	return outcome
}

// ActivateByKey looks the snippet up among the current results by its key.
// It reports false when no snippet carries the key.
func (c *Controller) ActivateByKey(key string) (Outcome, bool) {
	for _, s := range c.store.Snapshot().Snippets {
		if store.SnippetKey(s) == key {
			return c.Activate(s), true
		}
	}
	return OutcomeNotFound, false
}
