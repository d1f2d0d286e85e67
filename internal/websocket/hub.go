package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"docuwise-client/internal/metrics"
	"docuwise-client/internal/pkg/logger"

	"github.com/google/uuid"
)

// Role tells what a connected browser is.
type Role string

const (
	RoleUI     Role = "ui"
	RoleViewer Role = "viewer"
)

// MessageHandler receives messages read from a client.
type MessageHandler func(c *Client, data []byte)

type Hub struct {
	// Registered clients by connection id.
	clients map[uuid.UUID]*Client
	// Viewer clients in connection order; the newest one drives the viewer.
	viewers []*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Highest state version sent; older ones arriving late are skipped.
	lastVersion uint64

	onMessage MessageHandler
	onViewer  func()

	logger  logger.ILogger
	metrics *metrics.Metrics
}

func NewHub(log logger.ILogger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID]*Client),
		logger:     log,
		metrics:    m,
	}
}

// OnMessage installs the handler for inbound client messages.
func (h *Hub) OnMessage(fn MessageHandler) {
	h.mu.Lock()
	h.onMessage = fn
	h.mu.Unlock()
}

// OnViewerConnected installs a callback run each time a viewer client
// registers.
func (h *Hub) OnViewerConnected(fn func()) {
	h.mu.Lock()
	h.onViewer = fn
	h.mu.Unlock()
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Register and Unregister hand a client to the Run loop. They return
// immediately once the hub has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	if c.Role == RoleViewer {
		h.viewers = append(h.viewers, c)
	}
	n := len(h.clients)
	onViewer := h.onViewer
	h.mu.Unlock()

	h.setClientGauge(n)
	h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": c.ID, "role": c.Role})

	if c.Role == RoleViewer && onViewer != nil {
		onViewer()
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	for i, v := range h.viewers {
		if v == c {
			h.viewers = append(h.viewers[:i], h.viewers[i+1:]...)
			break
		}
	}
	close(c.Send)
	n := len(h.clients)
	h.mu.Unlock()

	h.setClientGauge(n)
	h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": c.ID, "role": c.Role})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
	}
	h.viewers = nil
	h.mu.Unlock()
	h.setClientGauge(0)
}

func (h *Hub) setClientGauge(n int) {
	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(n))
	}
}

// BroadcastState pushes a state change to every UI client.
func (h *Hub) BroadcastState(action string, version uint64, state interface{}) {
	h.mu.Lock()
	if version <= h.lastVersion {
		h.mu.Unlock()
		return
	}
	h.lastVersion = version
	h.mu.Unlock()

	data, err := json.Marshal(stateMessage{Type: TypeState, Action: action, Version: version, Data: state})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode state", map[string]interface{}{"error": err.Error()})
		return
	}
	h.Broadcast(RoleUI, data)
}

// Broadcast sends data to all clients with role. A client whose buffer is
// full misses the message.
func (h *Hub) Broadcast(role Role, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.Role != role {
			continue
		}
		h.deliver(c, data)
	}
}

// sendTo writes data to one client if it is still registered.
func (h *Hub) sendTo(c *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.ID]; !ok {
		return false
	}
	return h.deliver(c, data)
}

// deliver must be called with h.mu held.
func (h *Hub) deliver(c *Client, data []byte) bool {
	select {
	case c.Send <- data:
		return true
	default:
		h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"client_id": c.ID})
		return false
	}
}

// Viewer returns the newest connected viewer client.
func (h *Hub) Viewer() (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.viewers) == 0 {
		return nil, false
	}
	return h.viewers[len(h.viewers)-1], true
}

func (h *Hub) dispatch(c *Client, data []byte) {
	h.mu.RLock()
	fn := h.onMessage
	h.mu.RUnlock()
	if fn != nil {
		fn(c, data)
	}
}
