package handler

import (
	"docuwise-client/internal/pkg/logger"
	"docuwise-client/internal/pkg/serverutils"
	internalWS "docuwise-client/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type WebSocketHandler struct {
	hub    *internalWS.Hub
	secret string
	logger logger.ILogger
}

func NewWebSocketHandler(hub *internalWS.Hub, secret string, log logger.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		secret: secret,
		logger: log,
	}
}

// ServeWs upgrades UI and viewer connections. The role comes from the
// "role" query parameter and defaults to ui.
func (h *WebSocketHandler) ServeWs(c *fiber.Ctx) error {
	if h.secret != "" {
		// Browsers cannot set headers on a websocket handshake, so the query wins.
		tokenStr := c.Query("token")
		if tokenStr == "" {
			tokenStr = serverutils.BearerToken(c)
		}
		if tokenStr == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')")
		}
		if !serverutils.VerifyToken(tokenStr, h.secret) {
			h.logger.Warn("WebSocketHandler", "Invalid Token in WS Handshake", nil)
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}
	}

	role := internalWS.Role(c.Query("role", string(internalWS.RoleUI)))

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("WebSocketHandler", "Starting WebSocket session", map[string]interface{}{"role": role})
			internalWS.ServeWs(h.hub, conn, role)
			h.logger.Info("WebSocketHandler", "WebSocket session ended", map[string]interface{}{"role": role})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *WebSocketHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
