package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// GetPaginationParams reads ?page= and ?limit= with the package defaults.
func GetPaginationParams(c echo.Context) PaginationParams {
	return GetPaginationParamsWithLimit(c, DefaultPageSize, MaxPageSize)
}

// GetPaginationParamsWithLimit reads ?page= and ?limit=, falling back to
// defaultSize when limit is missing, non-positive or above maxSize.
func GetPaginationParamsWithLimit(c echo.Context, defaultSize, maxSize int) PaginationParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("limit"))

	if page <= 0 {
		page = 1
	}

	if pageSize <= 0 || pageSize > maxSize {
		pageSize = defaultSize
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}
