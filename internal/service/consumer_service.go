package service

import (
	"context"
	"encoding/json"

	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/events"
	"docuwise-client/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// StateTopic carries every applied store transition inside the process.
const StateTopic = "docuwise.state"

// StateMessage is the payload on StateTopic.
type StateMessage struct {
	Action  string                 `json:"action"`
	Version uint64                 `json:"version"`
	State   store.ApplicationState `json:"state"`
}

// StateBroadcaster pushes state to connected UIs. The WebSocket hub
// implements it.
type StateBroadcaster interface {
	BroadcastState(action string, version uint64, state interface{})
}

// EventPublisher sends events off-process. The NATS publisher implements it.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// StatePublisher copies store changes onto the in-process topic, so slow
// consumers never hold up a transition.
type StatePublisher struct {
	publisher message.Publisher
	topic     string
	logger    logger.ILogger
}

func NewStatePublisher(publisher message.Publisher, topic string, log logger.ILogger) *StatePublisher {
	return &StatePublisher{publisher: publisher, topic: topic, logger: log}
}

// Attach starts publishing changes of st and returns the detach function.
func (p *StatePublisher) Attach(st *store.Store) func() {
	return st.Subscribe(p.publish)
}

func (p *StatePublisher) publish(c store.Change) {
	payload, err := json.Marshal(StateMessage{Action: c.Action, Version: c.Version, State: c.State})
	if err != nil {
		p.logger.Error("StatePublisher", "Failed to encode change", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := p.publisher.Publish(p.topic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		p.logger.Error("StatePublisher", "Failed to publish change", map[string]interface{}{
			"action": c.Action,
			"error":  err.Error(),
		})
	}
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// forwardedActions are the transitions other processes care about.
var forwardedActions = map[string]bool{
	store.ActionCommitSnippets:    true,
	store.ActionCommitInsights:    true,
	store.ActionSetActiveDocument: true,
	store.ActionActivateAndArm:    true,
	store.ActionSetOnlineMode:     true,
}

type consumerService struct {
	subscriber  message.Subscriber
	topicName   string
	broadcaster StateBroadcaster
	events      EventPublisher
	origin      string
	logger      logger.ILogger
}

// NewConsumerService delivers state messages to the hub and, when publisher
// is not nil, forwards a summary of the interesting ones to the bus.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	broadcaster StateBroadcaster,
	publisher EventPublisher,
	origin string,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:  subscriber,
		topicName:   topicName,
		broadcaster: broadcaster,
		events:      publisher,
		origin:      origin,
		logger:      log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload StateMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("Consumer", "Failed to unmarshal state message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.broadcaster.BroadcastState(payload.Action, payload.Version, payload.State)

	if cs.events != nil && forwardedActions[payload.Action] {
		if err := cs.events.Publish(ctx, stateChanged(cs.origin, payload)); err != nil {
			cs.logger.Warn("Consumer", "Failed to forward state event", map[string]interface{}{
				"action": payload.Action,
				"error":  err.Error(),
			})
		}
	}

	msg.Ack()
}

func stateChanged(origin string, m StateMessage) events.BaseEvent {
	return events.New(events.STATE_CHANGED, map[string]interface{}{
		"origin":             origin,
		"action":             m.Action,
		"version":            m.Version,
		"active_document_id": m.State.ActiveDocumentID,
		"selected_text":      m.State.SelectedText,
		"snippet_count":      len(m.State.Snippets),
		"online_mode":        m.State.OnlineMode,
	})
}
