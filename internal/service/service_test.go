package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/backend"
	"docuwise-client/pkg/documents"
	"docuwise-client/pkg/events"
	pktNats "docuwise-client/pkg/nats"
	"docuwise-client/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	mu       sync.Mutex
	actions  []string
	versions []uint64
}

func (h *recordingHub) BroadcastState(action string, version uint64, state interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions = append(h.actions, action)
	h.versions = append(h.versions, version)
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.actions)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func TestStatePipeline_DeliversChangesToHubAndBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	hub := &recordingHub{}
	bus := &recordingPublisher{}
	consumer := NewConsumerService(pubSub, StateTopic, hub, bus, "proc-1", logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	st := store.New(nil)
	detach := NewStatePublisher(pubSub, StateTopic, logger.NewNopLogger()).Attach(st)
	defer detach()

	st.ReplaceDocuments([]store.DocumentMeta{{ID: "a.pdf"}})
	st.SetOnlineMode(false)

	require.Eventually(t, func() bool { return hub.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{store.ActionReplaceDocuments, store.ActionSetOnlineMode}, hub.actions)

	require.Eventually(t, func() bool { return len(bus.types()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{events.STATE_CHANGED}, bus.types())
	assert.Equal(t, "proc-1", events.Origin(bus.events[0]))
}

type fakeBackend struct {
	backend.Client
	docs      []store.DocumentMeta
	deleteErr error
	lists     int
}

func (f *fakeBackend) ListDocuments(ctx context.Context) ([]store.DocumentMeta, error) {
	f.lists++
	return f.docs, nil
}

func (f *fakeBackend) DeleteDocument(ctx context.Context, id string) error {
	return f.deleteErr
}

func TestDocumentService_AnnouncesOnlyConfirmedMutations(t *testing.T) {
	st := store.New(nil)
	fb := &fakeBackend{docs: []store.DocumentMeta{{ID: "a.pdf"}}}
	bus := &recordingPublisher{}
	svc := NewDocumentService(documents.NewManager(st, fb), bus, "proc-1", logger.NewNopLogger())
	require.NoError(t, svc.Refresh(t.Context()))

	require.NoError(t, svc.Delete(t.Context(), "a.pdf"))
	assert.Equal(t, []string{events.DOCUMENTS_CHANGED}, bus.types())

	fb.deleteErr = errors.New("status 500")
	assert.Error(t, svc.Delete(t.Context(), "b.pdf"))
	assert.Len(t, bus.types(), 1)
}

func TestDocumentService_NilPublisher(t *testing.T) {
	st := store.New(nil)
	svc := NewDocumentService(documents.NewManager(st, &fakeBackend{}), nil, "p", logger.NewNopLogger())
	assert.NoError(t, svc.Delete(t.Context(), "x.pdf"))
}

type fakeSubscriber struct {
	handler pktNats.EventHandler
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, eventType, durable string, handler pktNats.EventHandler) error {
	f.handler = handler
	return nil
}

func TestDocumentSync_RefreshesOnForeignEvents(t *testing.T) {
	st := store.New(nil)
	fb := &fakeBackend{docs: []store.DocumentMeta{{ID: "new.pdf"}}}
	svc := NewDocumentService(documents.NewManager(st, fb), nil, "me", logger.NewNopLogger())
	sub := &fakeSubscriber{}

	NewDocumentSync(sub, svc, "me", logger.NewNopLogger()).Start(t.Context())
	require.NotNil(t, sub.handler)

	require.NoError(t, sub.handler(t.Context(), events.DocumentsChanged("me", "upload", "")))
	assert.Zero(t, fb.lists, "own events are ignored")

	require.NoError(t, sub.handler(t.Context(), events.DocumentsChanged("other", "upload", "")))
	assert.Equal(t, 1, fb.lists)
	assert.Equal(t, "new.pdf", st.Snapshot().ActiveDocumentID)
}
