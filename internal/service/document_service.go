package service

import (
	"context"

	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/backend"
	"docuwise-client/pkg/documents"
	"docuwise-client/pkg/events"
	pktNats "docuwise-client/pkg/nats"
)

// DocumentService runs document mutations and lets other clients know about
// them.
type DocumentService struct {
	manager *documents.Manager
	events  EventPublisher
	origin  string
	logger  logger.ILogger
}

func NewDocumentService(manager *documents.Manager, publisher EventPublisher, origin string, log logger.ILogger) *DocumentService {
	return &DocumentService{
		manager: manager,
		events:  publisher,
		origin:  origin,
		logger:  log,
	}
}

func (s *DocumentService) Refresh(ctx context.Context) error {
	return s.manager.Refresh(ctx)
}

func (s *DocumentService) Select(id string) error {
	return s.manager.Select(id)
}

func (s *DocumentService) Upload(ctx context.Context, files []backend.UploadFile, historical bool) error {
	if err := s.manager.Upload(ctx, files, historical); err != nil {
		return err
	}
	s.announce(ctx, documents.OpUpload, "")
	return nil
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if err := s.manager.Delete(ctx, id); err != nil {
		return err
	}
	s.announce(ctx, documents.OpDelete, id)
	return nil
}

func (s *DocumentService) announce(ctx context.Context, operation, docID string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events.DocumentsChanged(s.origin, operation, docID)); err != nil {
		s.logger.Warn("DocumentService", "Failed to announce document change", map[string]interface{}{
			"operation": operation,
			"error":     err.Error(),
		})
	}
}

// EventSubscriber is satisfied by the NATS subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

// DocumentSync refreshes the local list when another client changed the
// collection.
type DocumentSync struct {
	subscriber EventSubscriber
	documents  *DocumentService
	origin     string
	logger     logger.ILogger
}

func NewDocumentSync(sub EventSubscriber, docs *DocumentService, origin string, log logger.ILogger) *DocumentSync {
	return &DocumentSync{
		subscriber: sub,
		documents:  docs,
		origin:     origin,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *DocumentSync) Start(ctx context.Context) {
	err := s.subscriber.Subscribe(ctx, events.DOCUMENTS_CHANGED, "docuwise-docs-"+s.origin, s.handleEvent)
	if err != nil {
		s.logger.Error("DocumentSync", "Failed to start document subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("DocumentSync", "Listening for document changes", nil)
}

func (s *DocumentSync) handleEvent(ctx context.Context, event events.Event) error {
	if events.Origin(event) == s.origin {
		return nil
	}
	s.logger.Info("DocumentSync", "Collection changed elsewhere, refreshing", map[string]interface{}{
		"event_id":  event.EventID(),
		"operation": event.Payload()["operation"],
	})
	return s.documents.Refresh(ctx)
}
