// Package documents keeps the document list in line with what the backend
// has confirmed and picks the active document.
package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"docuwise-client/internal/metrics"
	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/backend"
	"docuwise-client/pkg/store"
)

type Manager struct {
	store     *store.Store
	client    backend.Client
	preflight Preflight
	logger    logger.ILogger
	metrics   *metrics.Metrics
}

type Option func(*Manager)

// WithPreflight replaces the PDF check run on every upload. Nil disables it.
func WithPreflight(p Preflight) Option {
	return func(m *Manager) { m.preflight = p }
}

func WithLogger(l logger.ILogger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func NewManager(st *store.Store, client backend.Client, opts ...Option) *Manager {
	m := &Manager{
		store:     st,
		client:    client,
		preflight: PDFPreflight,
		logger:    logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Order sorts docs with recentCurrent first and the rest by name
// (case-insensitive, ties broken by id). docs is not modified.
func Order(docs []store.DocumentMeta, recentCurrent string) []store.DocumentMeta {
	out := append([]store.DocumentMeta{}, docs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if recentCurrent != "" && (a.ID == recentCurrent) != (b.ID == recentCurrent) {
			return a.ID == recentCurrent
		}
		an, bn := strings.ToLower(displayName(a)), strings.ToLower(displayName(b))
		if an != bn {
			return an < bn
		}
		return a.ID < b.ID
	})
	return out
}

func displayName(d store.DocumentMeta) string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// Refresh replaces the list with the backend's. When nothing is active the
// first listed document becomes active.
func (m *Manager) Refresh(ctx context.Context) error {
	docs, err := m.client.ListDocuments(ctx)
	if err != nil {
		m.logger.Warn("Documents", "Failed to list documents", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("list documents: %w", err)
	}
	m.apply(docs)
	return nil
}

func (m *Manager) apply(docs []store.DocumentMeta) {
	ordered := Order(docs, m.store.Snapshot().RecentCurrentID)
	m.store.ReplaceDocuments(ordered)
	m.metrics.SetDocuments(len(ordered))
	m.logger.Debug("Documents", "Document list replaced", map[string]interface{}{
		"count": len(ordered),
	})
}

// Upload sends files to the backend and then refreshes the list. Records are
// never synthesized from the upload itself. For a non-historical batch, the
// newly visible document becomes active and is marked as the most recent
// current document.
func (m *Manager) Upload(ctx context.Context, files []backend.UploadFile, historical bool) (err error) {
	target := uploadTarget(files)
	defer func() { m.metrics.RecordMutation(OpUpload, err) }()

	if len(files) == 0 {
		return &MutationError{Op: OpUpload, Err: ErrNoFiles}
	}

	buffered := make([]backend.UploadFile, 0, len(files))
	for _, f := range files {
		data, err := io.ReadAll(f.Content)
		if err != nil {
			return &MutationError{Op: OpUpload, Target: f.Name, Err: fmt.Errorf("read %s: %w", f.Name, err)}
		}
		if m.preflight != nil {
			pages, err := m.preflight(f.Name, data)
			if err != nil {
				m.logger.Warn("Documents", "Upload rejected by preflight", map[string]interface{}{
					"file":  f.Name,
					"error": err.Error(),
				})
				return &MutationError{Op: OpUpload, Target: f.Name, Err: err}
			}
			m.logger.Debug("Documents", "Preflight passed", map[string]interface{}{
				"file":  f.Name,
				"pages": pages,
			})
		}
		buffered = append(buffered, backend.UploadFile{Name: f.Name, Content: bytes.NewReader(data)})
	}

	kind := backend.KindCurrent
	if historical {
		kind = backend.KindHistorical
	}

	before := idSet(m.store.Snapshot().Documents)
	if err := m.client.Ingest(ctx, buffered, kind); err != nil {
		m.logger.Error("Documents", "Ingest failed", map[string]interface{}{
			"files": target,
			"kind":  kind,
			"error": err.Error(),
		})
		return &MutationError{Op: OpUpload, Target: target, Err: err}
	}

	docs, err := m.client.ListDocuments(ctx)
	if err != nil {
		return &MutationError{Op: OpUpload, Target: target, Err: fmt.Errorf("refresh after ingest: %w", err)}
	}

	var current string
	if !historical {
		current = newlyVisible(docs, before, files)
		if current != "" {
			m.store.SetRecentCurrent(current)
		}
	}
	m.apply(docs)
	if current != "" {
		m.store.SetActiveDocument(current)
	}

	m.logger.Info("Documents", "Upload completed", map[string]interface{}{
		"files":          target,
		"kind":           kind,
		"recent_current": current,
	})
	return nil
}

// newlyVisible picks the document the batch added. A single new id wins
// outright; with several, the one named after the last uploaded file does.
func newlyVisible(docs []store.DocumentMeta, before map[string]bool, files []backend.UploadFile) string {
	var added []string
	for _, d := range docs {
		if !before[d.ID] {
			added = append(added, d.ID)
		}
	}
	switch len(added) {
	case 0:
		return ""
	case 1:
		return added[0]
	}

	last := path.Base(files[len(files)-1].Name)
	for _, id := range added {
		if id == last {
			return id
		}
	}
	return ""
}

func idSet(docs []store.DocumentMeta) map[string]bool {
	out := make(map[string]bool, len(docs))
	for _, d := range docs {
		out[d.ID] = true
	}
	return out
}

func uploadTarget(files []backend.UploadFile) string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return strings.Join(names, ", ")
}

// Delete removes id from the backend and, once confirmed, from the list.
func (m *Manager) Delete(ctx context.Context, id string) (err error) {
	defer func() { m.metrics.RecordMutation(OpDelete, err) }()

	if strings.TrimSpace(id) == "" {
		return &MutationError{Op: OpDelete, Err: ErrEmptyID}
	}

	if err := m.client.DeleteDocument(ctx, id); err != nil {
		m.logger.Error("Documents", "Delete failed", map[string]interface{}{
			"doc_id": id,
			"error":  err.Error(),
		})
		return &MutationError{Op: OpDelete, Target: id, Err: err}
	}

	m.store.RemoveDocument(id)
	m.metrics.SetDocuments(len(m.store.Snapshot().Documents))
	m.logger.Info("Documents", "Document deleted", map[string]interface{}{
		"doc_id": id,
		"active": m.store.Snapshot().ActiveDocumentID,
	})
	return nil
}

// Select makes id the active document.
func (m *Manager) Select(id string) error {
	if !m.store.SetActiveDocument(id) {
		return fmt.Errorf("select %s: %w", id, ErrNotListed)
	}
	return nil
}
