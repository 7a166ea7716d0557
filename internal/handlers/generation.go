package handlers

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"doesitwork/internal/config"
	"doesitwork/internal/services"
)

// GenerationHandler exposes the generation pipeline to the cron trigger
// and to admins
type GenerationHandler struct {
	service *services.GenerationService
	cfg     *config.Config
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(service *services.GenerationService, cfg *config.Config) *GenerationHandler {
	return &GenerationHandler{service: service, cfg: cfg}
}

// TriggerCron runs one generation batch, guarded by the shared cron secret.
// The secret comes in the X-Cron-Secret header and must match exactly.
func (h *GenerationHandler) TriggerCron(c *fiber.Ctx) error {
	secret := c.Get("X-Cron-Secret")
	if h.cfg.CronSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.CronSecret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	return h.run(c, services.GenerationOptions{
		BatchSize: h.cfg.BatchSize,
		PoolSize:  h.cfg.PoolSize,
	})
}

// TriggerAdmin runs one generation batch on behalf of a logged-in admin.
// Batch size, pool size and dry-run can be overridden per request.
func (h *GenerationHandler) TriggerAdmin(c *fiber.Ctx) error {
	opts := services.GenerationOptions{
		BatchSize: h.cfg.BatchSize,
		PoolSize:  h.cfg.PoolSize,
	}
	if v := c.QueryInt("batch_size"); v > 0 {
		opts.BatchSize = v
	}
	if v := c.QueryInt("pool_size"); v > 0 {
		opts.PoolSize = v
	}
	opts.DryRun = c.QueryBool("dry_run")

	return h.run(c, opts)
}

func (h *GenerationHandler) run(c *fiber.Ctx, opts services.GenerationOptions) error {
	result, err := h.service.Run(c.Context(), opts)
	if err != nil {
		slog.Error("generation run failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Generation run failed",
		})
	}

	return c.JSON(fiber.Map{
		"status":          "completed",
		"message":         result.Summary,
		"run_id":          result.RunID,
		"published_today": result.PublishedToday,
		"attempted":       result.Attempted,
		"successful":      result.Successful,
		"failed":          result.Failed,
		"duplicates":      result.Duplicates,
		"created_slugs":   result.CreatedSlugs,
	})
}
