package websocket

import (
	"github.com/labstack/echo/v4"
	"github.com/piresc/vidcredit/internal/pkg/middleware"
	wspkg "github.com/piresc/vidcredit/internal/pkg/websocket"
	"github.com/piresc/vidcredit/internal/utils"
)

// WebSocketHandler upgrades authenticated users to a live event socket
type WebSocketHandler struct {
	manager *wspkg.Manager
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(manager *wspkg.Manager) *WebSocketHandler {
	return &WebSocketHandler{manager: manager}
}

// Serve blocks for the lifetime of the socket
func (h *WebSocketHandler) Serve(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return utils.UnauthorizedResponse(c, "")
	}
	return h.manager.Serve(c, userID)
}
