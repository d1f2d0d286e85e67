package dto

import (
	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/store"
)

type SetOnlineModeRequest struct {
	Online *bool `json:"online" validate:"required"`
}

type StateResponse struct {
	State store.ApplicationState `json:"state"`
}

type LogsResponse struct {
	Logs []logger.LogEntry `json:"logs"`
}
