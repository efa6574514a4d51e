package handler

import (
	"github.com/labstack/echo/v4"

	"taskmeet/internal/usecase"
	"taskmeet/pkg/response"
)

type CallHandler struct {
	callUseCase *usecase.CallUseCase
}

func NewCallHandler(callUseCase *usecase.CallUseCase) *CallHandler {
	return &CallHandler{
		callUseCase: callUseCase,
	}
}

type createCallRequest struct {
	ParticipantIDs []string `json:"participantIds" validate:"max=49,dive,required,max=128"`
	SessionType    string   `json:"sessionType" validate:"omitempty,oneof=video chat"`
}

func (h *CallHandler) CreateCall(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createCallRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	session, err := h.callUseCase.CreateSession(c.Request().Context(), identity, usecase.CreateCallInput{
		ParticipantIDs: req.ParticipantIDs,
		SessionType:    req.SessionType,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, session)
}

func (h *CallHandler) GetMySessions(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	sessions, err := h.callUseCase.MySessions(c.Request().Context(), identity.UserID)
	if err != nil {
		return response.Error(c, err)
	}
	if len(sessions) == 0 {
		return response.NoContent(c)
	}

	return response.Success(c, sessions)
}

func (h *CallHandler) GetCall(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	session, err := h.callUseCase.GetSession(c.Request().Context(), identity.UserID, c.Param("roomId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, session)
}
