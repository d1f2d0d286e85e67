package store

// DocumentMeta is one uploaded document as reported by the backend.
type DocumentMeta struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Pages *int   `json:"pages,omitempty"`
}

// RelationType classifies how a snippet relates to the selection.
type RelationType string

const (
	RelationOverlap       RelationType = "overlap"
	RelationExample       RelationType = "example"
	RelationContradiction RelationType = "contradiction"
	RelationRelated       RelationType = "related"
	RelationSupporting    RelationType = "supporting"
)

// Valid reports whether r is one of the known relation types.
func (r RelationType) Valid() bool {
	switch r {
	case RelationOverlap, RelationExample, RelationContradiction, RelationRelated, RelationSupporting:
		return true
	}
	return false
}

// Snippet is a scored excerpt from a document, already normalized from the
// backend's alias fields.
type Snippet struct {
	DocID          string       `json:"doc_id"`
	DocName        string       `json:"doc_name"`
	Document       string       `json:"document"` // raw backend reference
	PageNumber     *int         `json:"page_number,omitempty"`
	Text           string       `json:"text"`
	Excerpt        string       `json:"excerpt,omitempty"`
	Score          *float64     `json:"score,omitempty"`
	RelationType   RelationType `json:"relation_type,omitempty"`
	SectionHeading string       `json:"section_heading,omitempty"`
}

// SnippetKey is the composite identity of a snippet within one snippet list.
func SnippetKey(s Snippet) string {
	return s.DocID + "\x00" + s.Text
}

// InsightsPack is the structured AI output for one selection.
type InsightsPack struct {
	Themes        []string `json:"themes"`
	Insights      []string `json:"insights"`
	DidYouKnow    string   `json:"did_you_know,omitempty"`
	Contradiction string   `json:"contradiction,omitempty"`
	Connections   []string `json:"connections"`
	Examples      []string `json:"examples"`
}

// EmptyInsights returns a pack with non-nil empty lists.
func EmptyInsights() InsightsPack {
	return InsightsPack{
		Themes:      []string{},
		Insights:    []string{},
		Connections: []string{},
		Examples:    []string{},
	}
}

// IsEmpty reports whether the pack carries nothing to show.
func (p InsightsPack) IsEmpty() bool {
	return len(p.Themes) == 0 && len(p.Insights) == 0 && p.DidYouKnow == "" &&
		p.Contradiction == "" && len(p.Connections) == 0 && len(p.Examples) == 0
}

// NavigationIntent asks the viewer to jump to a page of a document.
type NavigationIntent struct {
	DocID      string `json:"doc_id"`
	PageNumber *int   `json:"page_number,omitempty"`
}

// Page returns the target page, defaulting to the first one.
func (n NavigationIntent) Page() int {
	if n.PageNumber == nil || *n.PageNumber < 1 {
		return 1
	}
	return *n.PageNumber
}

// ApplicationState is the single shared state every UI surface reads.
type ApplicationState struct {
	Documents        []DocumentMeta `json:"documents"`
	ActiveDocumentID string         `json:"active_document_id,omitempty"`

	// Selection results, replaced on every text selection.
	SelectedText       string       `json:"selected_text"`
	Snippets           []Snippet    `json:"snippets"`
	InsightsPack       InsightsPack `json:"insights_pack"`
	LoadingSnippets    bool         `json:"loading_snippets"`
	SelectedSnippetKey string       `json:"selected_snippet_key,omitempty"`
	AudioURL           string       `json:"audio_url,omitempty"`

	OnlineMode       bool              `json:"online_mode"`
	NavigationIntent *NavigationIntent `json:"navigation_intent,omitempty"`

	// Most recently uploaded "current" document, sorted first in the list.
	RecentCurrentID string `json:"recent_current_id,omitempty"`
}

// ActiveDocument returns the active document when one is set.
func (s ApplicationState) ActiveDocument() (DocumentMeta, bool) {
	return findDocument(s.Documents, s.ActiveDocumentID)
}

// Document looks a document up by id.
func (s ApplicationState) Document(id string) (DocumentMeta, bool) {
	return findDocument(s.Documents, id)
}

func findDocument(docs []DocumentMeta, id string) (DocumentMeta, bool) {
	if id == "" {
		return DocumentMeta{}, false
	}
	for _, d := range docs {
		if d.ID == id {
			return d, true
		}
	}
	return DocumentMeta{}, false
}

func newState() ApplicationState {
	return ApplicationState{
		Documents:    []DocumentMeta{},
		Snippets:     []Snippet{},
		InsightsPack: EmptyInsights(),
		OnlineMode:   true,
	}
}

// clone deep-copies the state so snapshots never alias store memory.
func (s ApplicationState) clone() ApplicationState {
	out := s
	out.Documents = append([]DocumentMeta{}, s.Documents...)
	out.Snippets = append([]Snippet{}, s.Snippets...)
	out.InsightsPack = s.InsightsPack.clone()
	if s.NavigationIntent != nil {
		intent := *s.NavigationIntent
		out.NavigationIntent = &intent
	}
	return out
}

func (p InsightsPack) clone() InsightsPack {
	return InsightsPack{
		Themes:        append([]string{}, p.Themes...),
		Insights:      append([]string{}, p.Insights...),
		DidYouKnow:    p.DidYouKnow,
		Contradiction: p.Contradiction,
		Connections:   append([]string{}, p.Connections...),
		Examples:      append([]string{}, p.Examples...),
	}
}
