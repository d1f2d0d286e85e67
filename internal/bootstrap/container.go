package bootstrap

import (
	"context"
	"fmt"
	"log"

	"docuwise-client/internal/config"
	"docuwise-client/internal/controller"
	"docuwise-client/internal/handler"
	"docuwise-client/internal/metrics"
	"docuwise-client/internal/pkg/logger"
	"docuwise-client/internal/service"
	"docuwise-client/internal/websocket"
	"docuwise-client/pkg/assistant"
	"docuwise-client/pkg/backend"
	"docuwise-client/pkg/documents"
	"docuwise-client/pkg/navigation"
	"docuwise-client/pkg/preferences"
	"docuwise-client/pkg/retrieval"
	"docuwise-client/pkg/store"
	"docuwise-client/pkg/viewer"

	pktNats "docuwise-client/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type Container struct {
	// Controllers
	StateController     controller.IStateController
	DocumentController  controller.IDocumentController
	ViewerController    controller.IViewerController
	AssistantController controller.IAssistantController
	WebSocketHandler    *handler.WebSocketHandler

	// Core
	Logger     logger.ILogger
	Metrics    *metrics.Metrics
	Store      *store.Store
	Pipeline   *retrieval.Pipeline
	Navigation *navigation.Controller
	Documents  *service.DocumentService
	Session    *viewer.Session
	Assistant  *assistant.Assistant

	// Background Services (started by Start)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub
	statePublisher  *service.StatePublisher
	documentSync    *service.DocumentSync
	preferences     preferences.Store

	origin  string
	closers []func()
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	m := metrics.NewMetrics()
	origin := uuid.NewString()

	st := store.New(sysLogger)
	client := backend.NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, sysLogger)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)

	c := &Container{
		Logger:  sysLogger,
		Metrics: m,
		Store:   st,
		origin:  origin,
	}
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. Infrastructure
	// NATS is optional: without it the collection is not synced across clients.
	var docEvents service.EventPublisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			docEvents = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	prefs, err := openPreferences(cfg)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("open preferences: %w", err)
	}
	c.preferences = prefs
	c.closers = append(c.closers, func() { prefs.Close() })

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.ViewerLogFilePath)
	wsHub := websocket.NewHub(wsLogger, m)
	bridge := websocket.NewBridge(wsHub, cfg.App.ViewerTimeout, wsLogger)

	// 4. Services
	pipeline := retrieval.NewPipeline(st, client, retrieval.Config{
		MaxSnippets:     cfg.Retrieval.MaxSnippets,
		MaxInsightTexts: cfg.Retrieval.MaxInsightTexts,
		Persona:         cfg.Retrieval.Persona,
		Task:            cfg.Retrieval.Task,
	}, retrieval.WithLogger(sysLogger), retrieval.WithMetrics(m))

	nav := navigation.NewController(st, cfg.Retrieval.DocIDSuffix, sysLogger, m)

	manager := documents.NewManager(st, client,
		documents.WithPreflight(documents.PDFPreflight),
		documents.WithLogger(sysLogger),
		documents.WithMetrics(m),
	)
	docService := service.NewDocumentService(manager, docEvents, origin, sysLogger)
	if natsSub != nil {
		c.documentSync = service.NewDocumentSync(natsSub, docService, origin, sysLogger)
	}

	session := viewer.NewSession(st, bridge, pipeline, wsLogger)
	bridge.OnEvent(session.HandleEvent)
	wsHub.OnViewerConnected(session.Reload)

	assist := assistant.New(st, client, sysLogger)

	c.statePublisher = service.NewStatePublisher(pubSub, service.StateTopic, sysLogger)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		service.StateTopic,
		wsHub,
		docEvents,
		origin,
		sysLogger,
	)

	c.Pipeline = pipeline
	c.Navigation = nav
	c.Documents = docService
	c.Session = session
	c.Assistant = assist
	c.WebSocketHub = wsHub

	// 5. Controllers
	c.StateController = controller.NewStateController(st, sysLogger)
	c.DocumentController = controller.NewDocumentController(docService, st)
	c.ViewerController = controller.NewViewerController(session, nav, st)
	c.AssistantController = controller.NewAssistantController(assist)
	c.WebSocketHandler = handler.NewWebSocketHandler(wsHub, cfg.App.APISecret, wsLogger)

	return c, nil
}

func openPreferences(cfg *config.Config) (preferences.Store, error) {
	if cfg.Preferences.Backend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout)
		defer cancel()
		return preferences.NewRedisStoreFromURL(ctx, cfg.App.RedisURL)
	}
	return preferences.NewBoltStore(cfg.Preferences.BoltPath)
}

// Start launches the background workers and loads the initial collection.
// Everything stops when ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start state consumer: %w", err)
	}
	c.closers = append(c.closers, c.statePublisher.Attach(c.Store))
	c.closers = append(c.closers, preferences.Bind(ctx, c.Store, c.preferences, c.Logger))

	go c.Session.Run(ctx)

	if c.documentSync != nil {
		c.documentSync.Start(ctx)
	}

	if err := c.Documents.Refresh(ctx); err != nil {
		// The backend may still be starting; the UI can refresh later.
		c.Logger.Warn("Container", "Initial document refresh failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	c.Logger.Info("Container", "Client core started", map[string]interface{}{"origin": c.origin})
	return nil
}

// Close releases connections in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
