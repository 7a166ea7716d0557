package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"doesitwork/internal/models"
	"doesitwork/internal/services"
)

// IdeaHandler handles admin idea management endpoints
type IdeaHandler struct {
	ideas   *services.IdeaService
	cleanup *services.CleanupService
}

// NewIdeaHandler creates a new idea handler
func NewIdeaHandler(ideas *services.IdeaService, cleanup *services.CleanupService) *IdeaHandler {
	return &IdeaHandler{ideas: ideas, cleanup: cleanup}
}

// Create adds a single idea to the queue
func (h *IdeaHandler) Create(c *fiber.Ctx) error {
	var req models.CreateIdeaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if normalized, ok := models.NormalizeCategory(req.Category); ok {
		req.Category = normalized
	}

	idea, err := h.ideas.Create(c.Context(), req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(idea)
}

// BulkImport inserts a batch of ideas in one request
func (h *IdeaHandler) BulkImport(c *fiber.Ctx) error {
	var req models.BulkImportIdeasRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.Ideas) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No ideas provided",
		})
	}

	for i := range req.Ideas {
		if normalized, ok := models.NormalizeCategory(req.Ideas[i].Category); ok {
			req.Ideas[i].Category = normalized
		}
	}

	inserted, results, err := h.ideas.BulkImport(c.Context(), req.Ideas)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"inserted": inserted,
		"batches":  results,
	})
}

// List returns every idea still awaiting processing
func (h *IdeaHandler) List(c *fiber.Ctx) error {
	ideas, err := h.ideas.ListAwaiting(c.Context())
	if err != nil {
		slog.Error("failed to list ideas", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list ideas",
		})
	}

	return c.JSON(fiber.Map{
		"count": len(ideas),
		"ideas": ideas,
	})
}

// Cleanup sweeps the awaiting queue and marks ideas whose topic is already
// covered by a published question
func (h *IdeaHandler) Cleanup(c *fiber.Ctx) error {
	result, err := h.cleanup.Run(c.Context())
	if err != nil {
		slog.Error("idea cleanup failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Cleanup failed",
		})
	}

	return c.JSON(result)
}
