package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/domain/service"
	"taskmeet/pkg/errors"
	"taskmeet/pkg/response"
)

const (
	ContextKeyUID      = "uid"
	ContextKeyIdentity = "identity"
)

type AuthMiddleware struct {
	verifier service.TokenVerifier
}

func NewAuthMiddleware(verifier service.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		identity, err := m.verifier.VerifyToken(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		SetIdentity(c, *identity)
		return next(c)
	}
}

// TokenFromRequest reads a bearer token from the Authorization header or, for
// browser websocket clients that cannot set headers, the token query parameter.
func TokenFromRequest(r *http.Request) string {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func SetIdentity(c echo.Context, identity entity.Identity) {
	c.Set(ContextKeyUID, identity.UserID)
	c.Set(ContextKeyIdentity, identity)
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(c echo.Context) (entity.Identity, bool) {
	identity, ok := c.Get(ContextKeyIdentity).(entity.Identity)
	if !ok || identity.UserID == "" {
		return entity.Identity{}, false
	}
	return identity, true
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
