package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"docuwise-client/internal/metrics"
	"docuwise-client/pkg/viewer"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(h *Hub, role Role) *Client {
	c := &Client{Hub: h, ID: uuid.New(), Role: role, Send: make(chan []byte, 8)}
	h.add(c)
	return c
}

// answer plays the browser: it reads the next command sent to c and replies.
func answer(t *testing.T, b *Bridge, c *Client, reply func(cmd viewerCommand) inbound) <-chan viewerCommand {
	t.Helper()
	seen := make(chan viewerCommand, 1)
	go func() {
		data := <-c.Send
		var cmd viewerCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return
		}
		seen <- cmd
		r := reply(cmd)
		r.Type = TypeViewerReply
		r.ID = cmd.ID
		raw, _ := json.Marshal(r)
		b.handleMessage(c, raw)
	}()
	return seen
}

func TestBroadcastState_SkipsOlderVersions(t *testing.T) {
	h := NewHub(nil, nil)
	ui := newClient(h, RoleUI)
	v := newClient(h, RoleViewer)

	h.BroadcastState("SET_ONLINE_MODE", 2, map[string]bool{"online_mode": false})
	h.BroadcastState("SET_ONLINE_MODE", 1, map[string]bool{"online_mode": true})

	require.Len(t, ui.Send, 1)
	assert.Empty(t, v.Send, "viewers do not receive state")

	var msg stateMessage
	require.NoError(t, json.Unmarshal(<-ui.Send, &msg))
	assert.Equal(t, TypeState, msg.Type)
	assert.EqualValues(t, 2, msg.Version)
}

func TestHub_ClientGauge(t *testing.T) {
	m := metrics.NewMetrics()
	h := NewHub(nil, m)
	a := newClient(h, RoleUI)
	newClient(h, RoleViewer)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.WSClients))

	h.remove(a)
	h.remove(a)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSClients))
}

func TestHub_ViewerIsNewest(t *testing.T) {
	h := NewHub(nil, nil)
	_, ok := h.Viewer()
	assert.False(t, ok)

	first := newClient(h, RoleViewer)
	second := newClient(h, RoleViewer)
	got, _ := h.Viewer()
	assert.Equal(t, second.ID, got.ID)

	h.remove(second)
	got, _ = h.Viewer()
	assert.Equal(t, first.ID, got.ID)
}

func TestBridge_InitializeAndCommands(t *testing.T) {
	h := NewHub(nil, nil)
	b := NewBridge(h, time.Second, nil)
	c := newClient(h, RoleViewer)

	seen := answer(t, b, c, func(viewerCommand) inbound { return inbound{OK: true} })
	handle, err := b.Initialize(t.Context(), viewer.Document{HandleID: 7, DocID: "a.pdf", URL: "http://x/a.pdf", Name: "A"})
	require.NoError(t, err)
	cmd := <-seen
	assert.Equal(t, CommandInitialize, cmd.Command)
	assert.EqualValues(t, 7, cmd.HandleID)
	assert.Equal(t, "http://x/a.pdf", cmd.URL)

	seen = answer(t, b, c, func(viewerCommand) inbound { return inbound{OK: true, Text: "selected words"} })
	text, err := handle.GetSelectedContent(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "selected words", text)
	<-seen

	seen = answer(t, b, c, func(viewerCommand) inbound { return inbound{OK: false, Error: "no such page"} })
	err = handle.GotoLocation(t.Context(), 40, 0, 0)
	assert.ErrorIs(t, err, ErrViewerRejected)
	assert.Equal(t, 40, (<-seen).Page)

	require.NoError(t, handle.Close())
	var closeCmd viewerCommand
	require.NoError(t, json.Unmarshal(<-c.Send, &closeCmd))
	assert.Equal(t, CommandClose, closeCmd.Command)
}

func TestBridge_NoViewer(t *testing.T) {
	b := NewBridge(NewHub(nil, nil), time.Second, nil)
	_, err := b.Initialize(t.Context(), viewer.Document{HandleID: 1})
	assert.ErrorIs(t, err, ErrNoViewer)
}

func TestBridge_Timeout(t *testing.T) {
	h := NewHub(nil, nil)
	b := NewBridge(h, 20*time.Millisecond, nil)
	newClient(h, RoleViewer)

	_, err := b.Initialize(t.Context(), viewer.Document{HandleID: 1})
	assert.ErrorIs(t, err, ErrViewerTimeout)
	assert.Empty(t, b.pending)
}

func TestBridge_ViewerGoneBeforeSend(t *testing.T) {
	h := NewHub(nil, nil)
	b := NewBridge(h, time.Second, nil)
	c := newClient(h, RoleViewer)

	handle := &bridgeHandle{bridge: b, client: c, id: 1}
	h.remove(c)

	_, err := handle.GetSelectedContent(t.Context())
	assert.ErrorIs(t, err, ErrViewerGone)
}

func TestBridge_RoutesEvents(t *testing.T) {
	h := NewHub(nil, nil)
	b := NewBridge(h, time.Second, nil)
	c := newClient(h, RoleViewer)

	got := make(chan viewer.Event, 1)
	var gotHandle uint64
	b.OnEvent(func(ctx context.Context, handleID uint64, ev viewer.Event) error {
		gotHandle = handleID
		got <- ev
		return nil
	})

	h.dispatch(c, []byte(`{"type":"viewer_event","handle_id":3,"event":{"type":"selection_end","text":"hello"}}`))

	ev := <-got
	assert.EqualValues(t, 3, gotHandle)
	assert.Equal(t, viewer.EventSelectionEnd, ev.Type)
	assert.Equal(t, "hello", ev.Text)
}

func TestBridge_EventHandlerCanQueryViewer(t *testing.T) {
	h := NewHub(nil, nil)
	b := NewBridge(h, time.Second, nil)
	c := newClient(h, RoleViewer)
	handle := &bridgeHandle{bridge: b, client: c, id: 3}

	// One goroutine feeds every inbound frame, the way the socket read loop does.
	frames := make(chan []byte, 8)
	go func() {
		for f := range frames {
			h.dispatch(c, f)
		}
	}()
	defer close(frames)

	// The browser answers GetSelectedContent through the same read loop.
	go func() {
		var cmd viewerCommand
		if err := json.Unmarshal(<-c.Send, &cmd); err != nil {
			return
		}
		raw, _ := json.Marshal(inbound{Type: TypeViewerReply, ID: cmd.ID, OK: true, Text: "from viewer"})
		frames <- raw
	}()

	type result struct {
		text string
		err  error
	}
	got := make(chan result, 1)
	b.OnEvent(func(ctx context.Context, handleID uint64, ev viewer.Event) error {
		text, err := handle.GetSelectedContent(ctx)
		got <- result{text: text, err: err}
		return err
	})

	frames <- []byte(`{"type":"viewer_event","handle_id":3,"event":{"type":"selection_end"}}`)

	select {
	case r := <-got:
		require.NoError(t, r.err)
		assert.Equal(t, "from viewer", r.text)
	case <-time.After(2 * time.Second):
		t.Fatal("event handler never returned")
	}
}

func TestBridge_EventsKeepArrivalOrder(t *testing.T) {
	h := NewHub(nil, nil)
	b := NewBridge(h, time.Second, nil)
	c := newClient(h, RoleViewer)

	got := make(chan string, 3)
	b.OnEvent(func(ctx context.Context, handleID uint64, ev viewer.Event) error {
		got <- ev.Text
		return nil
	})

	for _, text := range []string{"one", "two", "three"} {
		raw, _ := json.Marshal(inbound{Type: TypeViewerEvent, HandleID: 1, Event: viewer.Event{Type: viewer.EventSelectionEnd, Text: text}})
		h.dispatch(c, raw)
	}

	assert.Equal(t, "one", <-got)
	assert.Equal(t, "two", <-got)
	assert.Equal(t, "three", <-got)
}

func TestHub_RegisterAfterStopReturns(t *testing.T) {
	h := NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		h.Register(&Client{Hub: h, ID: uuid.New(), Send: make(chan []byte, 1)})
		h.Unregister(&Client{Hub: h, ID: uuid.New()})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("register blocked on a stopped hub")
	}
}

func TestHub_ViewerConnectedHook(t *testing.T) {
	h := NewHub(nil, nil)
	calls := 0
	h.OnViewerConnected(func() { calls++ })

	newClient(h, RoleUI)
	assert.Zero(t, calls)

	newClient(h, RoleViewer)
	assert.Equal(t, 1, calls)
}
