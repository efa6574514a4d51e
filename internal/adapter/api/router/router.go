package router

import (
	"github.com/labstack/echo/v4"

	"taskmeet/internal/adapter/api/handler"
	"taskmeet/internal/adapter/api/middleware"
)

// Handlers groups every HTTP handler the service exposes. DevToken is nil
// outside development.
type Handlers struct {
	Health    *handler.HealthHandler
	User      *handler.UserHandler
	Chat      *handler.ChatHandler
	Call      *handler.CallHandler
	WebSocket *handler.WebSocketHandler
	DevToken  *handler.DevTokenHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware, rateLimit echo.MiddlewareFunc) {
	SetupHealthRouter(e, h.Health)
	SetupWebSocketRouter(e, h.WebSocket)

	v1 := e.Group("/v1", rateLimit, authMiddleware.Authenticate)
	SetupUserRouter(v1, h.User)
	SetupChatRouter(v1, h.Chat)
	SetupCallRouter(v1, h.Call, adminMiddleware)

	if h.DevToken != nil {
		SetupDevRouter(e, h.DevToken)
	}
}
