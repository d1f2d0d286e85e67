package store

// Action is one named state transition. The method set is unexported so only
// the transitions defined in this package can reach the reducer.
type Action interface {
	Name() string
	reduce(r *reduction) bool
}

// reduction is the mutable view an action works on while the store lock is held.
type reduction struct {
	state  *ApplicationState
	latest *Token
}

// Token identifies one retrieval cycle. Larger tokens are newer.
type Token uint64

// Action names, used in change notifications and logs.
const (
	ActionReplaceDocuments      = "REPLACE_DOCUMENTS"
	ActionSetActiveDocument     = "SET_ACTIVE_DOCUMENT"
	ActionRemoveDocument        = "REMOVE_DOCUMENT"
	ActionBeginSelection        = "BEGIN_SELECTION"
	ActionCommitSnippets        = "COMMIT_SNIPPETS"
	ActionCommitInsights        = "COMMIT_INSIGHTS"
	ActionEndSelection          = "END_SELECTION"
	ActionResetRightPanel       = "RESET_RIGHT_PANEL"
	ActionArmNavigation         = "ARM_NAVIGATION"
	ActionActivateAndArm        = "ACTIVATE_AND_ARM"
	ActionConsumeNavigation     = "CONSUME_NAVIGATION"
	ActionSelectSnippet         = "SELECT_SNIPPET"
	ActionClearSnippetSelection = "CLEAR_SNIPPET_SELECTION"
	ActionSetOnlineMode         = "SET_ONLINE_MODE"
	ActionSetRecentCurrent      = "SET_RECENT_CURRENT"
	ActionSetAudioURL           = "SET_AUDIO_URL"
)

type replaceDocuments struct{ docs []DocumentMeta }

func (replaceDocuments) Name() string { return ActionReplaceDocuments }

func (a replaceDocuments) reduce(r *reduction) bool {
	r.state.Documents = append([]DocumentMeta{}, a.docs...)
	r.state.ActiveDocumentID = reconcileActive(r.state.Documents, r.state.ActiveDocumentID)
	return true
}

type setActiveDocument struct{ id string }

func (setActiveDocument) Name() string { return ActionSetActiveDocument }

func (a setActiveDocument) reduce(r *reduction) bool {
	if a.id == "" {
		r.state.ActiveDocumentID = ""
		return true
	}
	if _, ok := findDocument(r.state.Documents, a.id); !ok {
		return false
	}
	r.state.ActiveDocumentID = a.id
	return true
}

type removeDocument struct{ id string }

func (removeDocument) Name() string { return ActionRemoveDocument }

func (a removeDocument) reduce(r *reduction) bool {
	kept := make([]DocumentMeta, 0, len(r.state.Documents))
	removed := false
	for _, d := range r.state.Documents {
		if d.ID == a.id {
			removed = true
			continue
		}
		kept = append(kept, d)
	}
	if !removed {
		return false
	}
	r.state.Documents = kept
	if r.state.ActiveDocumentID == a.id {
		r.state.ActiveDocumentID = ""
	}
	r.state.ActiveDocumentID = reconcileActive(kept, r.state.ActiveDocumentID)
	if r.state.RecentCurrentID == a.id {
		r.state.RecentCurrentID = ""
	}
	return true
}

// reconcileActive keeps the active id when it is still listed, otherwise falls
// back to the first document, or none.
func reconcileActive(docs []DocumentMeta, active string) string {
	if active != "" {
		if _, ok := findDocument(docs, active); ok {
			return active
		}
	}
	if len(docs) == 0 {
		return ""
	}
	return docs[0].ID
}

type beginSelection struct {
	text  string
	token Token
}

func (*beginSelection) Name() string { return ActionBeginSelection }

func (a *beginSelection) reduce(r *reduction) bool {
	*r.latest++
	a.token = *r.latest
	clearSelectionResults(r.state)
	r.state.SelectedText = a.text
	r.state.LoadingSnippets = true
	return true
}

// clearSelectionResults drops snippets, insights and the selected key together.
func clearSelectionResults(s *ApplicationState) {
	s.Snippets = []Snippet{}
	s.InsightsPack = EmptyInsights()
	s.SelectedSnippetKey = ""
	s.AudioURL = ""
}

type commitSnippets struct {
	token    Token
	snippets []Snippet
}

func (commitSnippets) Name() string { return ActionCommitSnippets }

func (a commitSnippets) reduce(r *reduction) bool {
	if a.token != *r.latest {
		return false
	}
	r.state.Snippets = append([]Snippet{}, a.snippets...)
	r.state.SelectedSnippetKey = ""
	return true
}

type commitInsights struct {
	token Token
	pack  InsightsPack
}

func (commitInsights) Name() string { return ActionCommitInsights }

func (a commitInsights) reduce(r *reduction) bool {
	if a.token != *r.latest {
		return false
	}
	r.state.InsightsPack = normalizePack(a.pack)
	return true
}

// normalizePack guarantees non-nil lists so readers never see null.
func normalizePack(p InsightsPack) InsightsPack {
	return p.clone()
}

type endSelection struct{ token Token }

func (endSelection) Name() string { return ActionEndSelection }

func (a endSelection) reduce(r *reduction) bool {
	if a.token != *r.latest {
		return false
	}
	r.state.LoadingSnippets = false
	return true
}

type resetRightPanel struct{}

func (resetRightPanel) Name() string { return ActionResetRightPanel }

func (resetRightPanel) reduce(r *reduction) bool {
	clearSelectionResults(r.state)
	r.state.LoadingSnippets = false
	return true
}

type armNavigation struct{ intent NavigationIntent }

func (armNavigation) Name() string { return ActionArmNavigation }

func (a armNavigation) reduce(r *reduction) bool {
	intent := a.intent
	r.state.NavigationIntent = &intent
	return true
}

type activateAndArm struct{ intent NavigationIntent }

func (activateAndArm) Name() string { return ActionActivateAndArm }

func (a activateAndArm) reduce(r *reduction) bool {
	if _, ok := findDocument(r.state.Documents, a.intent.DocID); !ok {
		return false
	}
	intent := a.intent
	r.state.ActiveDocumentID = a.intent.DocID
	r.state.NavigationIntent = &intent
	return true
}

// consumeNavigation clears the pending intent. With docID set it only takes an
// intent for that document; with inactive set only one whose document is not
// the active one.
type consumeNavigation struct {
	docID    string
	inactive bool
	taken    *NavigationIntent
}

func (*consumeNavigation) Name() string { return ActionConsumeNavigation }

func (a *consumeNavigation) reduce(r *reduction) bool {
	n := r.state.NavigationIntent
	switch {
	case n == nil:
		return false
	case a.docID != "" && n.DocID != a.docID:
		return false
	case a.inactive && n.DocID == r.state.ActiveDocumentID:
		return false
	}
	a.taken = r.state.NavigationIntent
	r.state.NavigationIntent = nil
	return true
}

type selectSnippet struct{ key string }

func (selectSnippet) Name() string { return ActionSelectSnippet }

func (a selectSnippet) reduce(r *reduction) bool {
	matches := 0
	for _, s := range r.state.Snippets {
		if SnippetKey(s) == a.key {
			matches++
		}
	}
	if matches != 1 {
		return false
	}
	r.state.SelectedSnippetKey = a.key
	return true
}

type clearSnippetSelection struct{}

func (clearSnippetSelection) Name() string { return ActionClearSnippetSelection }

func (clearSnippetSelection) reduce(r *reduction) bool {
	if r.state.SelectedSnippetKey == "" {
		return false
	}
	r.state.SelectedSnippetKey = ""
	return true
}

type setOnlineMode struct{ online bool }

func (setOnlineMode) Name() string { return ActionSetOnlineMode }

func (a setOnlineMode) reduce(r *reduction) bool {
	if r.state.OnlineMode == a.online {
		return false
	}
	r.state.OnlineMode = a.online
	return true
}

type setRecentCurrent struct{ id string }

func (setRecentCurrent) Name() string { return ActionSetRecentCurrent }

func (a setRecentCurrent) reduce(r *reduction) bool {
	r.state.RecentCurrentID = a.id
	return true
}

type setAudioURL struct{ url string }

func (setAudioURL) Name() string { return ActionSetAudioURL }

func (a setAudioURL) reduce(r *reduction) bool {
	r.state.AudioURL = a.url
	return true
}
