package backend

import (
	"context"
	"io"

	"docuwise-client/pkg/store"
)

// IngestKind tells the backend where an uploaded batch belongs.
type IngestKind string

const (
	KindCurrent    IngestKind = "current"
	KindHistorical IngestKind = "historical"
)

// UploadFile is one file of an ingest batch.
type UploadFile struct {
	Name    string
	Content io.Reader
}

// RecommendRequest asks for snippets related to a selection.
type RecommendRequest struct {
	SelectedText string `json:"selected_text"`
	TopK         int    `json:"top_k"`
	Online       bool   `json:"online"`
}

// Recommendation is the normalized result of a recommend call, whichever
// response shape the backend used.
type Recommendation struct {
	Source      string
	Snippets    []store.Snippet
	Online      *store.InsightsPack // set when the backend inlined structured insights
	OnlineError string
}

// InsightsRequest asks for insights over a set of section texts.
type InsightsRequest struct {
	Texts   []string `json:"texts"`
	Persona string   `json:"persona"`
	Task    string   `json:"task"`
}

// InsightsResult is the parsed pack plus the raw model output.
type InsightsResult struct {
	Pack store.InsightsPack
	Raw  string
}

// PodcastRequest asks for a spoken summary of section texts.
type PodcastRequest struct {
	SectionTexts []string `json:"section_texts"`
	Persona      string   `json:"persona"`
	Task         string   `json:"task"`
}

// PodcastResult carries the generated script and the audio location.
type PodcastResult struct {
	Script   string
	AudioURL string
}

// DocChatResult is the answer of the document-grounded chat endpoint.
type DocChatResult struct {
	Response    string   `json:"response"`
	ContextUsed []string `json:"context_used"`
	Mode        string   `json:"mode"`
}

// Client is the REST contract of the insight backend.
type Client interface {
	ListDocuments(ctx context.Context) ([]store.DocumentMeta, error)
	Ingest(ctx context.Context, files []UploadFile, kind IngestKind) error
	DeleteDocument(ctx context.Context, id string) error

	Recommend(ctx context.Context, req RecommendRequest) (*Recommendation, error)
	Insights(ctx context.Context, req InsightsRequest) (*InsightsResult, error)

	// Chat answers message over context, falling back to the insights
	// endpoint when the chat endpoint is unavailable.
	Chat(ctx context.Context, message string, context []string) (string, error)
	DocChat(ctx context.Context, message string, topK int) (*DocChatResult, error)
	Podcast(ctx context.Context, req PodcastRequest) (*PodcastResult, error)
}
