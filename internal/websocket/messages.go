package websocket

import (
	"encoding/json"

	"docuwise-client/pkg/viewer"
)

// Message types on the socket.
const (
	TypeState       = "state"
	TypeViewer      = "viewer"
	TypeViewerReply = "viewer_reply"
	TypeViewerEvent = "viewer_event"
)

// Viewer bridge commands.
const (
	CommandInitialize         = "initialize"
	CommandGetSelectedContent = "get_selected_content"
	CommandGotoLocation       = "goto_location"
	CommandClose              = "close"
)

type stateMessage struct {
	Type    string      `json:"type"`
	Action  string      `json:"action"`
	Version uint64      `json:"version"`
	Data    interface{} `json:"data"`
}

type viewerCommand struct {
	Type     string  `json:"type"`
	ID       string  `json:"id"`
	Command  string  `json:"command"`
	HandleID uint64  `json:"handle_id"`
	DocID    string  `json:"doc_id,omitempty"`
	URL      string  `json:"url,omitempty"`
	Name     string  `json:"name,omitempty"`
	Page     int     `json:"page,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
}

// inbound is every message a browser may send; Type selects the used fields.
type inbound struct {
	Type string `json:"type"`

	// viewer_reply
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Text  string `json:"text"`

	// viewer_event
	HandleID uint64       `json:"handle_id"`
	Event    viewer.Event `json:"event"`
}

func decodeInbound(data []byte) (inbound, error) {
	var msg inbound
	err := json.Unmarshal(data, &msg)
	return msg, err
}
