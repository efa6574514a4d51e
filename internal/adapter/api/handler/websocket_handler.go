package handler

import (
	"context"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"taskmeet/internal/adapter/api/middleware"
	"taskmeet/internal/domain/service"
	ws "taskmeet/internal/infrastructure/websocket"
	"taskmeet/internal/usecase"
	"taskmeet/pkg/errors"
	"taskmeet/pkg/logger"
	"taskmeet/pkg/response"
)

type WebSocketHandler struct {
	// ctx outlives the upgrade request and ends at shutdown.
	ctx        context.Context
	wsManager  *ws.Manager
	dispatcher *ws.Dispatcher
	verifier   service.TokenVerifier
	directory  *usecase.Directory
	upgrader   gorillaws.Upgrader
	sendBuffer int
}

func NewWebSocketHandler(
	ctx context.Context,
	wsManager *ws.Manager,
	dispatcher *ws.Dispatcher,
	verifier service.TokenVerifier,
	directory *usecase.Directory,
	allowedOrigins []string,
	sendBuffer int,
) *WebSocketHandler {
	return &WebSocketHandler{
		ctx:        ctx,
		wsManager:  wsManager,
		dispatcher: dispatcher,
		verifier:   verifier,
		directory:  directory,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		sendBuffer: sendBuffer,
	}
}

// HandleWebSocket authenticates before upgrading, then runs the connection's
// pumps until it closes.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := middleware.TokenFromRequest(c.Request())
	if token == "" {
		return response.Error(c, errors.Unauthorized("Authentication token is required", nil))
	}

	identity, err := h.verifier.VerifyToken(c.Request().Context(), token)
	if err != nil {
		logger.Warn("WebSocket auth failed from %s: %v", c.RealIP(), err)
		return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
	}

	if _, err := h.directory.EnsureProfile(c.Request().Context(), *identity); err != nil {
		logger.Warn("WebSocket: could not sync profile for %s: %v", identity.UserID, err)
	}
	resolved := h.directory.Resolve(c.Request().Context(), *identity)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		logger.Warn("WebSocket upgrade failed for %s: %v", identity.UserID, err)
		return nil
	}

	client := ws.NewClient(conn, resolved, h.sendBuffer)

	go client.WritePump()
	go func() {
		h.dispatcher.Connect(h.ctx, client)
		client.ReadPump(h.ctx, h.wsManager, h.dispatcher.HandleClientMessage)
	}()

	return nil
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
