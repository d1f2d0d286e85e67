package dto

type ViewerEventRequest struct {
	HandleID uint64 `json:"handle_id" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=selection_end pages_in_view_changed"`
	Text     string `json:"text"`
	Pages    []int  `json:"pages"`
}

type ActivateSnippetRequest struct {
	Key string `json:"key" validate:"required"`
}

type ActivateSnippetResponse struct {
	Outcome          string `json:"outcome"`
	ActiveDocumentID string `json:"active_document_id,omitempty"`
}
