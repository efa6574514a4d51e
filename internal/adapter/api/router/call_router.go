package router

import (
	"github.com/labstack/echo/v4"

	"taskmeet/internal/adapter/api/handler"
	"taskmeet/internal/adapter/api/middleware"
)

func SetupCallRouter(v1 *echo.Group, callHandler *handler.CallHandler, adminMiddleware *middleware.AdminMiddleware) {
	callGroup := v1.Group("/calls")

	callGroup.POST("", callHandler.CreateCall, adminMiddleware.AdminOnly)
	// Registered before /:roomId so "mine" is never read as a room ID.
	callGroup.GET("/mine", callHandler.GetMySessions)
	callGroup.GET("/:roomId", callHandler.GetCall)
}
