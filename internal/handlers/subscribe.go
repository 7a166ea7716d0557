package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"doesitwork/internal/models"
	"doesitwork/internal/services"
)

// SubscribeHandler handles newsletter signups
type SubscribeHandler struct {
	subscribers *services.SubscriberService
}

// NewSubscribeHandler creates a new subscribe handler
func NewSubscribeHandler(subscribers *services.SubscriberService) *SubscribeHandler {
	return &SubscribeHandler{subscribers: subscribers}
}

// Subscribe stores an email signup from the public site
func (h *SubscribeHandler) Subscribe(c *fiber.Ctx) error {
	var req models.SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.subscribers.Subscribe(c.Context(), req.Email); err != nil {
		if errors.Is(err, services.ErrInvalidEmail) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid email address",
			})
		}
		slog.Error("failed to store subscriber", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to subscribe",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
