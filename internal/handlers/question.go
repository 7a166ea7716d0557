package handlers

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"doesitwork/internal/models"
	"doesitwork/internal/services"
	"doesitwork/internal/textutil"
)

const (
	defaultListLimit   = 20
	maxListLimit       = 100
	defaultSearchLimit = 20
	relatedLimit       = 6
)

// QuestionHandler serves the public article catalog and the admin editor
// endpoints
type QuestionHandler struct {
	questions *services.QuestionService
	enhance   *services.EnhanceService
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(questions *services.QuestionService, enhance *services.EnhanceService) *QuestionHandler {
	return &QuestionHandler{questions: questions, enhance: enhance}
}

// List returns published questions, optionally filtered by category
func (h *QuestionHandler) List(c *fiber.Ctx) error {
	category := c.Query("category")
	if category != "" && !models.IsValidCategory(category) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid category",
		})
	}

	limit := c.QueryInt("limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	questions, err := h.questions.List(c.Context(), models.QuestionStatusPublished, category, limit, offset)
	if err != nil {
		slog.Error("failed to list questions", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list questions",
		})
	}

	return c.JSON(fiber.Map{
		"count":     len(questions),
		"questions": questions,
	})
}

// ListAdmin returns questions in any status for the editor view
func (h *QuestionHandler) ListAdmin(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	questions, err := h.questions.List(c.Context(), c.Query("status"), c.Query("category"), limit, offset)
	if err != nil {
		slog.Error("failed to list questions", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list questions",
		})
	}

	return c.JSON(fiber.Map{
		"count":     len(questions),
		"questions": questions,
	})
}

// GetBySlug returns one published question plus its related articles
func (h *QuestionHandler) GetBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")

	q, err := h.questions.GetBySlug(c.Context(), slug)
	if err != nil {
		slog.Error("failed to get question", "slug", slug, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get question",
		})
	}
	if q == nil || q.Status != models.QuestionStatusPublished {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Question not found",
		})
	}

	related, err := h.questions.Related(c.Context(), q, relatedLimit)
	if err != nil {
		slog.Error("failed to load related questions", "slug", slug, "error", err)
		related = nil
	}

	return c.JSON(fiber.Map{
		"question": q,
		"related":  relatedSummaries(related),
	})
}

// Search finds published questions matching a free-text query
func (h *QuestionHandler) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter 'q' is required",
		})
	}

	limit := c.QueryInt("limit", defaultSearchLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultSearchLimit
	}

	questions, err := h.questions.Search(c.Context(), query, limit)
	if err != nil {
		slog.Error("search failed", "query", query, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Search failed",
		})
	}

	return c.JSON(fiber.Map{
		"count":     len(questions),
		"questions": questions,
	})
}

// Categories returns the fixed category list with display names
func (h *QuestionHandler) Categories(c *fiber.Ctx) error {
	categories := make([]fiber.Map, 0, len(models.Categories))
	for _, id := range models.Categories {
		categories = append(categories, fiber.Map{
			"id":   id,
			"name": models.FormatCategoryName(id),
		})
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// Create stores a question authored directly in the editor
func (h *QuestionHandler) Create(c *fiber.Ctx) error {
	var req models.CreateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question text is required",
		})
	}
	if !models.IsValidCategory(req.Category) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid category",
		})
	}
	if req.Verdict != "" && !models.IsValidVerdict(req.Verdict) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid verdict",
		})
	}
	if req.Status != "" && !models.IsValidQuestionStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status",
		})
	}

	slug := req.Slug
	if slug == "" {
		slug = textutil.Slugify(req.Question)
	}
	exists, err := h.questions.SlugExists(c.Context(), slug)
	if err != nil {
		slog.Error("slug check failed", "slug", slug, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create question",
		})
	}
	if exists {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A question with this slug already exists",
		})
	}

	status := req.Status
	if status == "" {
		status = models.QuestionStatusDraft
	}
	q := &models.Question{
		Slug:         slug,
		Question:     req.Question,
		ShortAnswer:  req.ShortAnswer,
		Verdict:      req.Verdict,
		Category:     req.Category,
		Summary:      req.Summary,
		BodyMarkdown: req.BodyMarkdown,
		Evidence:     req.Evidence,
		Sources:      req.Sources,
		Tags:         services.NormalizeTags(req.Tags),
		Status:       status,
		PublishedAt:  req.PublishedAt,
	}

	if err := h.questions.Insert(c.Context(), q); err != nil {
		slog.Error("failed to create question", "slug", slug, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create question",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(q)
}

// Update applies a partial edit to a question
func (h *QuestionHandler) Update(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid question ID",
		})
	}

	var req models.UpdateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	q, err := h.questions.Update(c.Context(), id, req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(q)
}

// EnhanceOne rewrites one published article's markdown for readability
func (h *QuestionHandler) EnhanceOne(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid question ID",
		})
	}

	dryRun := c.QueryBool("dry_run")
	enhanced, err := h.enhance.EnhanceOne(c.Context(), id, dryRun)
	if err != nil {
		slog.Error("enhancement failed", "question_id", id.Hex(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"dry_run":       dryRun,
		"body_markdown": enhanced,
	})
}

// EnhanceAll rewrites every published article's markdown
func (h *QuestionHandler) EnhanceAll(c *fiber.Ctx) error {
	dryRun := c.QueryBool("dry_run")
	result, err := h.enhance.EnhanceAll(c.Context(), dryRun)
	if err != nil {
		slog.Error("bulk enhancement failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Enhancement failed",
		})
	}

	return c.JSON(result)
}

// relatedSummaries strips related questions down to listing fields
func relatedSummaries(questions []models.Question) []fiber.Map {
	out := make([]fiber.Map, 0, len(questions))
	for _, q := range questions {
		out = append(out, fiber.Map{
			"slug":         q.Slug,
			"question":     q.Question,
			"short_answer": q.ShortAnswer,
			"verdict":      q.Verdict,
			"category":     q.Category,
		})
	}
	return out
}
