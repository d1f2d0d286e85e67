package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docs(ids ...string) []DocumentMeta {
	out := make([]DocumentMeta, 0, len(ids))
	for _, id := range ids {
		out = append(out, DocumentMeta{ID: id, Name: id})
	}
	return out
}

func intPtr(n int) *int { return &n }

func TestNew_Defaults(t *testing.T) {
	s := New(nil).Snapshot()

	assert.True(t, s.OnlineMode)
	assert.NotNil(t, s.Documents)
	assert.NotNil(t, s.Snippets)
	assert.Equal(t, EmptyInsights(), s.InsightsPack)
	assert.Nil(t, s.NavigationIntent)
	assert.False(t, s.LoadingSnippets)
}

func TestReplaceDocuments_ReconcilesActive(t *testing.T) {
	tests := []struct {
		name   string
		active string
		next   []DocumentMeta
		want   string
	}{
		{"keeps listed active", "b.pdf", docs("a.pdf", "b.pdf"), "b.pdf"},
		{"falls back to first", "gone.pdf", docs("a.pdf", "b.pdf"), "a.pdf"},
		{"none when empty", "a.pdf", docs(), ""},
		{"first when unset", "", docs("c.pdf"), "c.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := New(nil)
			st.ReplaceDocuments(docs("a.pdf", "b.pdf", "gone.pdf"))
			st.SetActiveDocument(tt.active)

			st.ReplaceDocuments(tt.next)
			assert.Equal(t, tt.want, st.Snapshot().ActiveDocumentID)
		})
	}
}

func TestSetActiveDocument_UnknownIgnored(t *testing.T) {
	st := New(nil)
	st.ReplaceDocuments(docs("a.pdf"))

	assert.False(t, st.SetActiveDocument("nope.pdf"))
	assert.Equal(t, "a.pdf", st.Snapshot().ActiveDocumentID)

	assert.True(t, st.SetActiveDocument(""))
	assert.Empty(t, st.Snapshot().ActiveDocumentID)
}

func TestRemoveDocument(t *testing.T) {
	st := New(nil)
	st.ReplaceDocuments(docs("a.pdf", "b.pdf", "c.pdf"))
	st.SetActiveDocument("b.pdf")
	st.SetRecentCurrent("b.pdf")

	require.True(t, st.RemoveDocument("b.pdf"))
	s := st.Snapshot()
	assert.Equal(t, "a.pdf", s.ActiveDocumentID)
	assert.Empty(t, s.RecentCurrentID)
	assert.Len(t, s.Documents, 2)

	require.True(t, st.RemoveDocument("c.pdf"))
	assert.Equal(t, "a.pdf", st.Snapshot().ActiveDocumentID, "removing an inactive doc keeps the active one")

	require.True(t, st.RemoveDocument("a.pdf"))
	assert.Empty(t, st.Snapshot().ActiveDocumentID)

	assert.False(t, st.RemoveDocument("a.pdf"))
}

func TestBeginSelection_ClearsResultsTogether(t *testing.T) {
	st := New(nil)
	tok := st.BeginSelection("first")
	pack := EmptyInsights()
	pack.Themes = []string{"t"}
	require.True(t, st.CommitSnippets(tok, []Snippet{{DocID: "a.pdf", Text: "x"}}))
	require.True(t, st.CommitInsights(tok, pack))
	require.True(t, st.SelectSnippet(SnippetKey(Snippet{DocID: "a.pdf", Text: "x"})))
	st.SetAudioURL("/audio.mp3")

	next := st.BeginSelection("second")
	assert.Greater(t, next, tok)

	s := st.Snapshot()
	assert.Equal(t, "second", s.SelectedText)
	assert.True(t, s.LoadingSnippets)
	assert.Empty(t, s.Snippets)
	assert.True(t, s.InsightsPack.IsEmpty())
	assert.Empty(t, s.SelectedSnippetKey)
	assert.Empty(t, s.AudioURL)
}

func TestCommit_RejectsStaleToken(t *testing.T) {
	st := New(nil)
	old := st.BeginSelection("a")
	cur := st.BeginSelection("b")

	assert.False(t, st.IsLatest(old))
	assert.True(t, st.IsLatest(cur))

	assert.False(t, st.CommitSnippets(old, []Snippet{{DocID: "x", Text: "old"}}))
	assert.False(t, st.CommitInsights(old, InsightsPack{Themes: []string{"old"}}))
	assert.False(t, st.EndSelection(old))

	s := st.Snapshot()
	assert.Empty(t, s.Snippets)
	assert.True(t, s.InsightsPack.IsEmpty())
	assert.True(t, s.LoadingSnippets)

	assert.True(t, st.EndSelection(cur))
	assert.False(t, st.Snapshot().LoadingSnippets)
}

func TestCommitInsights_NilListsBecomeEmpty(t *testing.T) {
	st := New(nil)
	tok := st.BeginSelection("a")
	require.True(t, st.CommitInsights(tok, InsightsPack{DidYouKnow: "fact"}))

	pack := st.Snapshot().InsightsPack
	assert.NotNil(t, pack.Themes)
	assert.NotNil(t, pack.Examples)
	assert.Equal(t, "fact", pack.DidYouKnow)
}

func TestResetRightPanel_Idempotent(t *testing.T) {
	st := New(nil)
	tok := st.BeginSelection("a")
	st.CommitSnippets(tok, []Snippet{{DocID: "a.pdf", Text: "x"}})

	st.ResetRightPanel()
	first := st.Snapshot()
	st.ResetRightPanel()
	second := st.Snapshot()

	assert.Equal(t, first, second)
	assert.Empty(t, first.Snippets)
	assert.False(t, first.LoadingSnippets)
	assert.Equal(t, "a", first.SelectedText, "selected text survives a panel reset")
}

func TestNavigationIntent_ConsumedOnce(t *testing.T) {
	st := New(nil)
	st.ArmNavigation(NavigationIntent{DocID: "a.pdf", PageNumber: intPtr(2)})
	st.ArmNavigation(NavigationIntent{DocID: "b.pdf", PageNumber: intPtr(3)})

	intent, ok := st.ConsumeNavigation()
	require.True(t, ok)
	assert.Equal(t, "b.pdf", intent.DocID, "the latest arm replaces earlier ones")
	assert.Equal(t, 3, intent.Page())

	_, ok = st.ConsumeNavigation()
	assert.False(t, ok)
	assert.Nil(t, st.Snapshot().NavigationIntent)
}

func TestConsumeNavigationFor_OnlyMatchingDocument(t *testing.T) {
	st := New(nil)
	st.ArmNavigation(NavigationIntent{DocID: "b.pdf", PageNumber: intPtr(4)})

	var seen []Change
	st.Subscribe(func(c Change) { seen = append(seen, c) })

	_, ok := st.ConsumeNavigationFor("a.pdf")
	assert.False(t, ok)
	assert.Empty(t, seen, "a mismatch is not a transition")
	require.NotNil(t, st.Snapshot().NavigationIntent)

	_, ok = st.ConsumeNavigationFor("")
	assert.False(t, ok)

	intent, ok := st.ConsumeNavigationFor("b.pdf")
	require.True(t, ok)
	assert.Equal(t, 4, intent.Page())
	assert.Nil(t, st.Snapshot().NavigationIntent)
	require.Len(t, seen, 1)
	assert.Equal(t, ActionConsumeNavigation, seen[0].Action)
}

func TestDiscardInactiveNavigation(t *testing.T) {
	st := New(nil)
	st.ReplaceDocuments(docs("a.pdf", "b.pdf"))
	require.True(t, st.SetActiveDocument("a.pdf"))

	st.ArmNavigation(NavigationIntent{DocID: "a.pdf"})
	_, ok := st.DiscardInactiveNavigation()
	assert.False(t, ok, "intent for the active document stays")

	st.ArmNavigation(NavigationIntent{DocID: "b.pdf"})
	intent, ok := st.DiscardInactiveNavigation()
	require.True(t, ok)
	assert.Equal(t, "b.pdf", intent.DocID)
	assert.Nil(t, st.Snapshot().NavigationIntent)
}

func TestActivateAndArm(t *testing.T) {
	st := New(nil)
	st.ReplaceDocuments(docs("a.pdf", "b.pdf"))

	var seen []Change
	st.Subscribe(func(c Change) { seen = append(seen, c) })

	require.True(t, st.ActivateAndArm(NavigationIntent{DocID: "b.pdf", PageNumber: intPtr(3)}))
	require.Len(t, seen, 1, "activation and arm are one transition")
	assert.Equal(t, "b.pdf", seen[0].State.ActiveDocumentID)
	require.NotNil(t, seen[0].State.NavigationIntent)
	assert.Equal(t, 3, seen[0].State.NavigationIntent.Page())

	assert.False(t, st.ActivateAndArm(NavigationIntent{DocID: "missing.pdf"}))
	assert.Equal(t, "b.pdf", st.Snapshot().ActiveDocumentID)
}

func TestNavigationIntent_PageDefaults(t *testing.T) {
	assert.Equal(t, 1, NavigationIntent{}.Page())
	assert.Equal(t, 1, NavigationIntent{PageNumber: intPtr(0)}.Page())
	assert.Equal(t, 7, NavigationIntent{PageNumber: intPtr(7)}.Page())
}

func TestSelectSnippet_RequiresUniqueKey(t *testing.T) {
	st := New(nil)
	tok := st.BeginSelection("q")
	st.CommitSnippets(tok, []Snippet{
		{DocID: "a.pdf", Text: "same"},
		{DocID: "a.pdf", Text: "same"},
		{DocID: "b.pdf", Text: "same"},
	})

	assert.False(t, st.SelectSnippet(SnippetKey(Snippet{DocID: "a.pdf", Text: "same"})), "ambiguous key")
	assert.False(t, st.SelectSnippet("nope"))
	assert.True(t, st.SelectSnippet(SnippetKey(Snippet{DocID: "b.pdf", Text: "same"})))

	st.ClearSnippetSelection()
	assert.Empty(t, st.Snapshot().SelectedSnippetKey)
}

func TestSnippetKey_DistinguishesDocAndText(t *testing.T) {
	assert.NotEqual(t,
		SnippetKey(Snippet{DocID: "ab", Text: "c"}),
		SnippetKey(Snippet{DocID: "a", Text: "bc"}),
	)
}

func TestSetOnlineMode_NoopWhenUnchanged(t *testing.T) {
	st := New(nil)
	calls := 0
	st.Subscribe(func(Change) { calls++ })

	st.SetOnlineMode(true)
	assert.Zero(t, calls)

	st.SetOnlineMode(false)
	assert.Equal(t, 1, calls)
	assert.False(t, st.Snapshot().OnlineMode)
}

func TestSubscribe_VersionsAndUnsubscribe(t *testing.T) {
	st := New(nil)
	var versions []uint64
	unsubscribe := st.Subscribe(func(c Change) { versions = append(versions, c.Version) })

	st.ReplaceDocuments(docs("a.pdf"))
	st.SetRecentCurrent("a.pdf")
	unsubscribe()
	st.SetAudioURL("x")

	assert.Equal(t, []uint64{1, 2}, versions)
}

func TestSnapshot_DoesNotAliasStore(t *testing.T) {
	st := New(nil)
	st.ReplaceDocuments(docs("a.pdf"))

	s := st.Snapshot()
	s.Documents[0].ID = "mutated"

	assert.Equal(t, "a.pdf", st.Snapshot().Documents[0].ID)
}

func TestBeginSelection_ConcurrentTokensAreUnique(t *testing.T) {
	st := New(nil)
	const n = 50

	var wg sync.WaitGroup
	tokens := make(chan Token, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens <- st.BeginSelection("x")
		}()
	}
	wg.Wait()
	close(tokens)

	seen := map[Token]bool{}
	var max Token
	for tok := range tokens {
		assert.False(t, seen[tok])
		seen[tok] = true
		if tok > max {
			max = tok
		}
	}
	assert.Len(t, seen, n)
	assert.True(t, st.IsLatest(max))
}
