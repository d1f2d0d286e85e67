package dto

import "docuwise-client/pkg/store"

type DocumentListResponse struct {
	Documents        []store.DocumentMeta `json:"documents"`
	ActiveDocumentID string               `json:"active_document_id,omitempty"`
	RecentCurrentID  string               `json:"recent_current_id,omitempty"`
}

func NewDocumentListResponse(s store.ApplicationState) DocumentListResponse {
	return DocumentListResponse{
		Documents:        s.Documents,
		ActiveDocumentID: s.ActiveDocumentID,
		RecentCurrentID:  s.RecentCurrentID,
	}
}
