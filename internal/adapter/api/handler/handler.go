package handler

import (
	"github.com/labstack/echo/v4"

	"taskmeet/internal/adapter/api/middleware"
	"taskmeet/internal/domain/entity"
	"taskmeet/pkg/errors"
)

// currentIdentity returns the caller set by the auth middleware.
func currentIdentity(c echo.Context) (entity.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return entity.Identity{}, errors.Unauthorized("Authentication required", nil)
	}
	return identity, nil
}

// bindAndValidate decodes the request body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.BadRequest("Invalid request body", err)
	}
	return c.Validate(req)
}
