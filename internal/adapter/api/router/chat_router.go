package router

import (
	"github.com/labstack/echo/v4"

	"taskmeet/internal/adapter/api/handler"
)

func SetupChatRouter(v1 *echo.Group, chatHandler *handler.ChatHandler) {
	chatGroup := v1.Group("/chats")

	chatGroup.GET("", chatHandler.GetUserChats)
	chatGroup.POST("", chatHandler.CreateChat)
	chatGroup.GET("/:id", chatHandler.GetChatByID)
	chatGroup.DELETE("/:id", chatHandler.DeleteChat)

	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages)
	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
}
