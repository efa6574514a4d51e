package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	ws "taskmeet/internal/infrastructure/websocket"
)

// StorageProbe checks that the backing store answers.
type StorageProbe func(ctx context.Context) error

type HealthHandler struct {
	wsManager     *ws.Manager
	storageDriver string
	probe         StorageProbe
}

func NewHealthHandler(wsManager *ws.Manager, storageDriver string, probe StorageProbe) *HealthHandler {
	return &HealthHandler{
		wsManager:     wsManager,
		storageDriver: storageDriver,
		probe:         probe,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "Server is running",
		"time":        time.Now().Format(time.RFC3339),
		"connections": h.wsManager.ClientCount(),
		"onlineUsers": len(h.wsManager.Presence().ListOnline()),
		"rooms":       len(h.wsManager.Rooms().Rooms()),
	})
}

func (h *HealthHandler) CheckStorageHealth(c echo.Context) error {
	if h.probe == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "No storage probe configured", "driver": h.storageDriver})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.probe(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "Storage connection failed",
			"driver": h.storageDriver,
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Storage connected successfully",
		"driver": h.storageDriver,
	})
}
