package handler

import (
	"github.com/labstack/echo/v4"

	"taskmeet/internal/usecase"
	"taskmeet/pkg/response"
	"taskmeet/pkg/utils"
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 100
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createChatRequest struct {
	ParticipantIDs []string `json:"participantIds" validate:"required,min=1,max=49,dive,required,max=128"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

func (h *ChatHandler) CreateChat(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	session, created, err := h.chatUseCase.CreateOrGetSession(c.Request().Context(), identity.UserID, usecase.CreateChatInput{
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		return response.Error(c, err)
	}

	if created {
		return response.Created(c, session)
	}
	return response.Success(c, session)
}

func (h *ChatHandler) GetUserChats(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	pagination := utils.GetPaginationParams(c)
	sessions, total, err := h.chatUseCase.ListSessions(c.Request().Context(), identity.UserID, pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, sessions, total, pagination.Page, pagination.PageSize)
}

func (h *ChatHandler) GetChatByID(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	session, err := h.chatUseCase.GetSession(c.Request().Context(), identity.UserID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, session)
}

func (h *ChatHandler) DeleteChat(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.chatUseCase.DeleteSession(c.Request().Context(), identity.UserID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Chat session deleted"})
}

func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	pagination := utils.GetPaginationParamsWithLimit(c, defaultMessagePageSize, maxMessagePageSize)
	messages, total, err := h.chatUseCase.History(c.Request().Context(), identity.UserID, c.Param("id"), pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, pagination.Page, pagination.PageSize)
}

// SendMessage takes the same path as a realtime send-message event, so live
// room members receive it as well.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.PostMessage(c.Request().Context(), identity, c.Param("id"), req.Text)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}
