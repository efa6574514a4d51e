package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"taskmeet/internal/domain/entity"
	"taskmeet/pkg/errors"
	"taskmeet/pkg/response"
)

// RoleResolver looks up the stored role of a user.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID string) (string, error)
}

type AdminMiddleware struct {
	roles RoleResolver
}

func NewAdminMiddleware(roles RoleResolver) *AdminMiddleware {
	return &AdminMiddleware{
		roles: roles,
	}
}

// AdminOnly trusts a role claim in the token and otherwise falls back to the
// stored profile.
func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}

		if !identity.IsAdmin() {
			role, err := m.roles.RoleOf(c.Request().Context(), identity.UserID)
			if err != nil {
				return response.Error(c, errors.Internal("Failed to verify admin privileges", err))
			}
			if role != entity.RoleAdmin {
				return response.Error(c, errors.Forbidden("Admin privileges required", nil))
			}
			identity.Role = role
			SetIdentity(c, identity)
		}

		return next(c)
	}
}
