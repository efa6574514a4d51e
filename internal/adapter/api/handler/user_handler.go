package handler

import (
	"github.com/labstack/echo/v4"

	"taskmeet/internal/usecase"
	"taskmeet/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type updateProfileRequest struct {
	Name            string `json:"name" validate:"omitempty,min=1,max=100"`
	ProfileImageURL string `json:"profileImageUrl" validate:"omitempty,url,max=2048"`
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.GetProfile(c.Request().Context(), identity)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), identity, usecase.UpdateProfileInput{
		Name:            req.Name,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}
