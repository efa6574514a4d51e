package handler

import (
	"github.com/labstack/echo/v4"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/domain/service"
	"taskmeet/pkg/errors"
	"taskmeet/pkg/response"
)

// DevTokenHandler mints tokens for local testing. Only routed in development.
type DevTokenHandler struct {
	issuer service.TokenIssuer
}

func NewDevTokenHandler(issuer service.TokenIssuer) *DevTokenHandler {
	return &DevTokenHandler{
		issuer: issuer,
	}
}

type devTokenQuery struct {
	UID    string `query:"uid" validate:"required,max=128"`
	Name   string `query:"name" validate:"omitempty,max=100"`
	Avatar string `query:"avatar" validate:"omitempty,url"`
	Role   string `query:"role" validate:"omitempty,oneof=user admin"`
}

func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	var q devTokenQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return response.Error(c, errors.BadRequest("Invalid query parameters", err))
	}
	if err := c.Validate(&q); err != nil {
		return response.Error(c, err)
	}

	identity := entity.Identity{UserID: q.UID, Name: q.Name, AvatarURL: q.Avatar, Role: q.Role}
	if identity.Role == "" {
		identity.Role = entity.RoleUser
	}

	token, err := h.issuer.IssueToken(identity)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to issue token", err))
	}

	return response.Success(c, map[string]interface{}{
		"token": token,
		"user":  identity,
	})
}
