package navigation

import (
	"testing"

	"docuwise-client/internal/metrics"
	"docuwise-client/pkg/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func newStore(active string, ids ...string) *store.Store {
	st := store.New(nil)
	docs := make([]store.DocumentMeta, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, store.DocumentMeta{ID: id, Name: id})
	}
	st.ReplaceDocuments(docs)
	st.SetActiveDocument(active)
	return st
}

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		name    string
		snippet store.Snippet
		want    string
	}{
		{"explicit id wins", store.Snippet{DocID: "a.pdf", DocName: "b.pdf"}, "a.pdf"},
		{"name when id missing", store.Snippet{DocName: "Report"}, "Report.pdf"},
		{"raw document path", store.Snippet{Document: "/storage/docs/c.pdf"}, "c.pdf"},
		{"windows path", store.Snippet{Document: `C:\docs\d.pdf`}, "d.pdf"},
		{"suffix case-insensitive", store.Snippet{DocID: "E.PDF"}, "E.PDF"},
		{"whitespace only", store.Snippet{DocID: "  ", DocName: "f"}, "f.pdf"},
		{"nothing populated", store.Snippet{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalID(tt.snippet, DefaultIDSuffix))
		})
	}
}

func TestCanonicalID_NoSuffix(t *testing.T) {
	assert.Equal(t, "report", CanonicalID(store.Snippet{DocName: "report"}, ""))
}

func TestActivate_SwitchesDocumentAndArms(t *testing.T) {
	st := newStore("a.pdf", "a.pdf", "b.pdf")
	m := metrics.NewMetrics()
	c := NewController(st, DefaultIDSuffix, nil, m)

	var changes []store.Change
	st.Subscribe(func(ch store.Change) { changes = append(changes, ch) })

	out := c.Activate(store.Snippet{DocID: "b.pdf", PageNumber: intPtr(3), Text: "t"})
	require.Equal(t, OutcomeSwitched, out)

	s := st.Snapshot()
	assert.Equal(t, "b.pdf", s.ActiveDocumentID)
	require.NotNil(t, s.NavigationIntent)
	assert.Equal(t, "b.pdf", s.NavigationIntent.DocID)
	assert.Equal(t, 3, *s.NavigationIntent.PageNumber)

	require.NotEmpty(t, changes)
	assert.Equal(t, store.ActionActivateAndArm, changes[0].Action)
	assert.Equal(t, "b.pdf", changes[0].State.ActiveDocumentID)
	assert.NotNil(t, changes[0].State.NavigationIntent, "switch and arm are visible together")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NavigationsTotal.WithLabelValues(string(OutcomeSwitched))))
}

func TestActivate_SameDocumentOnlyArms(t *testing.T) {
	st := newStore("a.pdf", "a.pdf", "b.pdf")
	c := NewController(st, DefaultIDSuffix, nil, nil)

	out := c.Activate(store.Snippet{DocName: "a", PageNumber: intPtr(7)})
	require.Equal(t, OutcomeSameDocument, out)

	s := st.Snapshot()
	assert.Equal(t, "a.pdf", s.ActiveDocumentID)
	require.NotNil(t, s.NavigationIntent)
	assert.Equal(t, 7, s.NavigationIntent.Page())
}

func TestActivate_NotFoundIsNoop(t *testing.T) {
	st := newStore("a.pdf", "a.pdf")
	c := NewController(st, DefaultIDSuffix, nil, nil)
	before := st.Snapshot()

	assert.Equal(t, OutcomeNotFound, c.Activate(store.Snippet{DocID: "zzz.pdf", PageNumber: intPtr(1)}))
	assert.Equal(t, OutcomeNotFound, c.Activate(store.Snippet{}))

	assert.Equal(t, before, st.Snapshot())
}

func TestActivate_MissingPageDefaultsToFirst(t *testing.T) {
	st := newStore("a.pdf", "a.pdf", "b.pdf")
	c := NewController(st, DefaultIDSuffix, nil, nil)

	c.Activate(store.Snippet{DocID: "b.pdf"})
	intent, ok := st.ConsumeNavigation()
	require.True(t, ok)
	assert.Nil(t, intent.PageNumber)
	assert.Equal(t, 1, intent.Page())
}

func TestActivateByKey(t *testing.T) {
	st := newStore("a.pdf", "a.pdf", "b.pdf")
	tok := st.BeginSelection("q")
	target := store.Snippet{DocID: "b.pdf", Text: "related", PageNumber: intPtr(2)}
	st.CommitSnippets(tok, []store.Snippet{{DocID: "a.pdf", Text: "x"}, target})

	c := NewController(st, DefaultIDSuffix, nil, nil)

	out, ok := c.ActivateByKey(store.SnippetKey(target))
	require.True(t, ok)
	assert.Equal(t, OutcomeSwitched, out)

	s := st.Snapshot()
	assert.Equal(t, "b.pdf", s.ActiveDocumentID)
	assert.Equal(t, store.SnippetKey(target), s.SelectedSnippetKey)
	assert.Len(t, s.Snippets, 2, "results survive the document switch")

	_, ok = c.ActivateByKey("missing")
	assert.False(t, ok)
}
