package handlers

import (
	"github.com/gofiber/fiber/v2"

	"doesitwork/internal/database"
)

// HealthHandler reports service and datastore health
type HealthHandler struct {
	mongoDB *database.MongoDB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(mongoDB *database.MongoDB) *HealthHandler {
	return &HealthHandler{mongoDB: mongoDB}
}

// Health returns 200 when the service and its datastore are reachable
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	if err := h.mongoDB.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
