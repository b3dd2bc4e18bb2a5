package handler

import (
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/pkg/serverutils"
	internalWS "notesync-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SyncHandler streams "notes_changed" notices to an owner's devices so their lists can
// refetch after a write made elsewhere.
type SyncHandler struct {
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewSyncHandler(hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *SyncHandler {
	return &SyncHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs authenticates the handshake and upgrades it. Browsers cannot set headers on
// a websocket handshake, so the token may come as ?token=.
func (h *SyncHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := serverutils.BearerToken(c)
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Missing token"))
	}

	identity, err := serverutils.ParseToken(tokenStr, h.jwtSecret)
	if err != nil {
		h.logger.Warn("SyncHandler", "Invalid token in websocket handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, err.Error()))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userID := identity.Id
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("SyncHandler", "Starting websocket session", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("SyncHandler", "Websocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

// RegisterRoutes must run before the note routes so /notes/ws is not taken for a note id.
func (h *SyncHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/notes/ws", h.ServeWs)
}
