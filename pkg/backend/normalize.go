package backend

import (
	"bytes"
	"encoding/json"
	"path"
	"strconv"
	"strings"

	"docuwise-client/pkg/store"
)

// --- Wire types (internal to this package) ---

// flexInt accepts a JSON number or a numeric string.
type flexInt struct {
	value *int
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		v := int(n)
		f.value = &v
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		f.value = &v
	}
	return nil
}

// flexStrings accepts either a list of strings or a single string.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '[' {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*f = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s = strings.TrimSpace(s); s != "" {
		*f = []string{s}
	}
	return nil
}

// joined flattens the list into one string for single-valued pack fields.
func (f flexStrings) joined() string {
	return strings.TrimSpace(strings.Join(f, "\n"))
}

type rawSnippet struct {
	DocID          string   `json:"doc_id"`
	DocumentID     string   `json:"document_id"`
	DocName        string   `json:"doc_name"`
	DocumentName   string   `json:"document_name"`
	Document       string   `json:"document"`
	PageNumber     flexInt  `json:"page_number"`
	Page           flexInt  `json:"page"`
	Text           string   `json:"text"`
	SnippetText    string   `json:"snippet_text"`
	Snippet        string   `json:"snippet"`
	Excerpt        string   `json:"excerpt"`
	Score          *float64 `json:"score"`
	RelationType   string   `json:"relation_type"`
	Label          string   `json:"label"`
	SectionHeading string   `json:"section_heading"`
}

type rawInsights struct {
	Themes         flexStrings `json:"themes"`
	Insights       flexStrings `json:"insights"`
	DidYouKnow     flexStrings `json:"did_you_know"`
	Contradictions flexStrings `json:"contradictions"`
	Contradiction  flexStrings `json:"contradiction"`
	Connections    flexStrings `json:"connections"`
	Examples       flexStrings `json:"examples"`
}

type recommendEnvelope struct {
	Source          string       `json:"source"`
	Recommendations []rawSnippet `json:"recommendations"`
	Offline         *struct {
		Recommendations []rawSnippet `json:"recommendations"`
	} `json:"offline"`
	Online      json.RawMessage `json:"online"`
	OnlineError string          `json:"online_error"`
}

type insightsEnvelope struct {
	Parsed *rawInsights    `json:"parsed"`
	Raw    json.RawMessage `json:"raw"`
}

// --- Normalization ---

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// normalizeSnippet resolves the alias fields into the canonical shape. It
// reports false for entries with no text at all.
func normalizeSnippet(r rawSnippet) (store.Snippet, bool) {
	text := firstNonEmpty(r.Text, r.SnippetText, r.Snippet, r.Excerpt)
	if text == "" {
		return store.Snippet{}, false
	}

	docID := firstNonEmpty(r.DocID, r.DocumentID)
	docName := firstNonEmpty(r.DocName, r.DocumentName)
	if docName == "" {
		docName = firstNonEmpty(docID, displayName(r.Document))
	}

	page := r.PageNumber.value
	if page == nil {
		page = r.Page.value
	}

	relation := store.RelationType(strings.ToLower(firstNonEmpty(r.RelationType, r.Label)))
	if !relation.Valid() {
		relation = ""
	}

	return store.Snippet{
		DocID:          docID,
		DocName:        docName,
		Document:       strings.TrimSpace(r.Document),
		PageNumber:     page,
		Text:           text,
		Excerpt:        firstNonEmpty(r.Snippet, r.Excerpt),
		Score:          r.Score,
		RelationType:   relation,
		SectionHeading: strings.TrimSpace(r.SectionHeading),
	}, true
}

// displayName strips directories from a raw document reference.
func displayName(ref string) string {
	ref = strings.TrimSpace(strings.ReplaceAll(ref, "\\", "/"))
	if ref == "" {
		return ""
	}
	return path.Base(ref)
}

func normalizeSnippets(raw []rawSnippet) []store.Snippet {
	out := make([]store.Snippet, 0, len(raw))
	for _, r := range raw {
		if s, ok := normalizeSnippet(r); ok {
			out = append(out, s)
		}
	}
	return out
}

func (r rawInsights) pack() store.InsightsPack {
	pack := store.EmptyInsights()
	pack.Themes = append(pack.Themes, r.Themes...)
	pack.Insights = append(pack.Insights, r.Insights...)
	pack.DidYouKnow = r.DidYouKnow.joined()
	pack.Contradiction = firstNonEmpty(r.Contradictions.joined(), r.Contradiction.joined())
	pack.Connections = append(pack.Connections, r.Connections...)
	pack.Examples = append(pack.Examples, r.Examples...)
	return pack
}

// normalizeRecommendation accepts both the flat and the nested offline/online
// response shapes.
func normalizeRecommendation(env recommendEnvelope) *Recommendation {
	raw := env.Recommendations
	if len(raw) == 0 && env.Offline != nil {
		raw = env.Offline.Recommendations
	}

	rec := &Recommendation{
		Source:      env.Source,
		Snippets:    normalizeSnippets(raw),
		OnlineError: env.OnlineError,
	}
	if pack, ok := decodeOnline(env.Online); ok {
		rec.Online = &pack
	}
	return rec
}

// decodeOnline reads the inline insights payload. It may be an object, an
// object wrapped as {parsed: ...}, or a model-produced string that contains
// JSON, possibly inside a code fence. Anything else is ignored.
func decodeOnline(b json.RawMessage) (store.InsightsPack, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return store.InsightsPack{}, false
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return store.InsightsPack{}, false
		}
		b = []byte(stripCodeFence(s))
		if len(b) == 0 || b[0] != '{' {
			return store.InsightsPack{}, false
		}
	}
	if b[0] != '{' {
		return store.InsightsPack{}, false
	}

	var wrapped insightsEnvelope
	if err := json.Unmarshal(b, &wrapped); err == nil && wrapped.Parsed != nil {
		pack := wrapped.Parsed.pack()
		return pack, !pack.IsEmpty()
	}

	var direct rawInsights
	if err := json.Unmarshal(b, &direct); err != nil {
		return store.InsightsPack{}, false
	}
	pack := direct.pack()
	return pack, !pack.IsEmpty()
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// rawText renders the "raw" field, which is usually a string.
func rawText(b json.RawMessage) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	return string(b)
}
