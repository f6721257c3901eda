package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/veridianlabs/sessiond/internal/datastore"
	"github.com/veridianlabs/sessiond/internal/dto"
)

type HealthHandler struct {
	users *datastore.UserStore
}

func NewHealthHandler(users *datastore.UserStore) *HealthHandler {
	return &HealthHandler{users: users}
}

// Check handles GET /status with a storage-availability probe.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"
	ok, dbStatus := h.users.Available(c.Context())
	if !ok {
		status = "degraded"
		dbStatus = "unhealthy: " + dbStatus
	}

	return c.JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}
