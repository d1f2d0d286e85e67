package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/viewer"

	"github.com/google/uuid"
)

var (
	ErrNoViewer       = errors.New("no viewer connected")
	ErrViewerGone     = errors.New("viewer disconnected")
	ErrViewerTimeout  = errors.New("viewer did not reply in time")
	ErrViewerRejected = errors.New("viewer rejected command")
)

// EventHandler receives viewer events read from the socket.
type EventHandler func(ctx context.Context, handleID uint64, ev viewer.Event) error

type bridgeEvent struct {
	handleID uint64
	ev       viewer.Event
}

const eventQueueSize = 64

type bridgeReply struct {
	ok   bool
	err  string
	text string
}

// Bridge drives the browser-side PDF viewer over the socket. Commands carry a
// uuid that the browser echoes back in its reply.
type Bridge struct {
	hub     *Hub
	timeout time.Duration
	logger  logger.ILogger

	mu      sync.Mutex
	pending map[string]chan bridgeReply
	onEvent EventHandler
	events  chan bridgeEvent
}

var _ viewer.Collaborator = &Bridge{}

func NewBridge(hub *Hub, timeout time.Duration, log logger.ILogger) *Bridge {
	if log == nil {
		log = logger.NewNopLogger()
	}
	b := &Bridge{
		hub:     hub,
		timeout: timeout,
		logger:  log,
		pending: make(map[string]chan bridgeReply),
		events:  make(chan bridgeEvent, eventQueueSize),
	}
	hub.OnMessage(b.handleMessage)
	go b.runEvents()
	return b
}

// OnEvent installs the handler for viewer events.
func (b *Bridge) OnEvent(fn EventHandler) {
	b.mu.Lock()
	b.onEvent = fn
	b.mu.Unlock()
}

func (b *Bridge) handleMessage(c *Client, data []byte) {
	msg, err := decodeInbound(data)
	if err != nil {
		b.logger.Warn("Bridge", "Unreadable message", map[string]interface{}{
			"client_id": c.ID,
			"error":     err.Error(),
		})
		return
	}

	switch msg.Type {
	case TypeViewerReply:
		b.mu.Lock()
		ch, ok := b.pending[msg.ID]
		delete(b.pending, msg.ID)
		b.mu.Unlock()
		if !ok {
			b.logger.Debug("Bridge", "Reply for unknown command", map[string]interface{}{"id": msg.ID})
			return
		}
		ch <- bridgeReply{ok: msg.OK, err: msg.Error, text: msg.Text}

	case TypeViewerEvent:
		// Handlers call back into the viewer, so they must not block the read
		// loop that delivers the replies.
		select {
		case b.events <- bridgeEvent{handleID: msg.HandleID, ev: msg.Event}:
		default:
			b.logger.Warn("Bridge", "Viewer event queue full, dropping event", map[string]interface{}{
				"handle_id": msg.HandleID,
				"type":      msg.Event.Type,
			})
		}

	default:
		b.logger.Debug("Bridge", "Ignoring message", map[string]interface{}{"type": msg.Type})
	}
}

// call sends cmd to c and waits for the matching reply.
func (b *Bridge) call(ctx context.Context, c *Client, cmd viewerCommand) (bridgeReply, error) {
	cmd.Type = TypeViewer
	cmd.ID = uuid.NewString()

	data, err := json.Marshal(cmd)
	if err != nil {
		return bridgeReply{}, fmt.Errorf("encode %s: %w", cmd.Command, err)
	}

	ch := make(chan bridgeReply, 1)
	b.mu.Lock()
	b.pending[cmd.ID] = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, cmd.ID)
		b.mu.Unlock()
	}()

	if !b.hub.sendTo(c, data) {
		return bridgeReply{}, ErrViewerGone
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case reply := <-ch:
		if !reply.ok {
			return reply, fmt.Errorf("%w: %s: %s", ErrViewerRejected, cmd.Command, reply.err)
		}
		return reply, nil
	case <-timer.C:
		return bridgeReply{}, fmt.Errorf("%w: %s", ErrViewerTimeout, cmd.Command)
	case <-ctx.Done():
		return bridgeReply{}, ctx.Err()
	}
}

func (b *Bridge) Initialize(ctx context.Context, doc viewer.Document) (viewer.Handle, error) {
	c, ok := b.hub.Viewer()
	if !ok {
		return nil, ErrNoViewer
	}
	_, err := b.call(ctx, c, viewerCommand{
		Command:  CommandInitialize,
		HandleID: doc.HandleID,
		DocID:    doc.DocID,
		URL:      doc.URL,
		Name:     doc.Name,
	})
	if err != nil {
		return nil, err
	}
	return &bridgeHandle{bridge: b, client: c, id: doc.HandleID}, nil
}

type bridgeHandle struct {
	bridge *Bridge
	client *Client
	id     uint64
}

func (h *bridgeHandle) GetSelectedContent(ctx context.Context) (string, error) {
	reply, err := h.bridge.call(ctx, h.client, viewerCommand{Command: CommandGetSelectedContent, HandleID: h.id})
	if err != nil {
		return "", err
	}
	return reply.text, nil
}

func (h *bridgeHandle) GotoLocation(ctx context.Context, page int, x, y float64) error {
	_, err := h.bridge.call(ctx, h.client, viewerCommand{
		Command:  CommandGotoLocation,
		HandleID: h.id,
		Page:     page,
		X:        x,
		Y:        y,
	})
	return err
}

// Close tells the browser to drop the viewer without waiting for a reply.
func (h *bridgeHandle) Close() error {
	data, err := json.Marshal(viewerCommand{
		Type:     TypeViewer,
		ID:       uuid.NewString(),
		Command:  CommandClose,
		HandleID: h.id,
	})
	if err != nil {
		return err
	}
	h.bridge.hub.sendTo(h.client, data)
	return nil
}

// runEvents hands viewer events to the handler one at a time, in arrival order.
func (b *Bridge) runEvents() {
	for e := range b.events {
		b.mu.Lock()
		fn := b.onEvent
		b.mu.Unlock()
		if fn == nil {
			continue
		}
		if err := fn(context.Background(), e.handleID, e.ev); err != nil {
			b.logger.Debug("Bridge", "Viewer event not handled", map[string]interface{}{
				"handle_id": e.handleID,
				"type":      e.ev.Type,
				"error":     err.Error(),
			})
		}
	}
}
