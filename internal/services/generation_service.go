package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"doesitwork/internal/logging"
	"doesitwork/internal/models"
)

// Defaults for one pipeline invocation
const (
	DefaultBatchSize = 5
	DefaultPoolSize  = 50
)

// relatedBlockMin is the minimum number of same-category candidates before
// a Related Questions block is appended; relatedBlockMax caps the links.
const (
	relatedBlockMin = 3
	relatedBlockMax = 6
)

// IdeaStore is the slice of the content store the pipeline needs for ideas
type IdeaStore interface {
	FetchPool(ctx context.Context, limit int) ([]models.Idea, error)
	MarkProcessing(ctx context.Context, ids []primitive.ObjectID, startedAt time.Time) error
	MarkGenerated(ctx context.Context, id, questionID primitive.ObjectID, processedAt time.Time) error
	MarkTerminal(ctx context.Context, id primitive.ObjectID, status string, processedAt time.Time) error
}

// QuestionStore is the slice of the content store the pipeline needs for
// published articles
type QuestionStore interface {
	CountPublishedToday(ctx context.Context, now time.Time) (int, error)
	ExistingTexts(ctx context.Context) (map[string]struct{}, error)
	FindByText(ctx context.Context, text string) (*models.Question, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Insert(ctx context.Context, q *models.Question) error
	RecentPublishedInCategory(ctx context.Context, category, excludeSlug string, limit int) ([]models.Question, error)
}

// AnswerGenerator produces structured article content from a question prompt
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question, categoryID string, tags []string, notes string) (*models.GeneratedContent, error)
}

// GenerationOptions configures one pipeline run
type GenerationOptions struct {
	BatchSize int  // daily target count of published articles
	PoolSize  int  // maximum ideas to sample
	DryRun    bool // select but do not mark or generate
}

// GenerationService is the idea queue processor: each Run performs one
// bounded batch of idea-to-article conversion, respecting the daily
// publication quota, and leaves every touched idea in a well-defined state.
type GenerationService struct {
	ideas     IdeaStore
	questions QuestionStore
	generator AnswerGenerator
	now       func() time.Time
	shuffle   func(n int, swap func(i, j int))
}

// NewGenerationService creates the pipeline with its collaborators injected
func NewGenerationService(ideas IdeaStore, questions QuestionStore, generator AnswerGenerator) *GenerationService {
	return &GenerationService{
		ideas:     ideas,
		questions: questions,
		generator: generator,
		now:       time.Now,
		shuffle:   rand.Shuffle,
	}
}

// Run executes one pipeline invocation. Per-idea failures are isolated;
// only run-level errors (quota count, pool fetch, processing mark) abort
// the run and propagate to the trigger.
func (s *GenerationService) Run(ctx context.Context, opts GenerationOptions) (*models.GenerationRunResult, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = DefaultPoolSize
	}

	runID := uuid.New().String()
	log := logging.WithRun(runID)
	log.Info("starting question generation run",
		"batch_size", opts.BatchSize, "pool_size", opts.PoolSize, "dry_run", opts.DryRun)

	// Step 1: today's quota, UTC calendar day
	publishedToday, err := s.questions.CountPublishedToday(ctx, s.now())
	if err != nil {
		return nil, err
	}

	remaining := opts.BatchSize - publishedToday
	if remaining < 0 {
		remaining = 0
	}
	log.Info("publication quota", "published_today", publishedToday, "remaining", remaining)

	result := &models.GenerationRunResult{
		RunID:          runID,
		PublishedToday: publishedToday,
		Remaining:      remaining,
	}

	if remaining == 0 {
		result.Summary = fmt.Sprintf("Already published %d questions today. Target of %d reached.", publishedToday, opts.BatchSize)
		return result, nil
	}

	// Step 2: fetch the idea pool
	pool, err := s.ideas.FetchPool(ctx, opts.PoolSize)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		result.Summary = "No new ideas to process."
		return result, nil
	}
	log.Info("fetched idea pool", "size", len(pool))

	// Step 3: exclude ideas whose proposed text already exists
	existing, err := s.questions.ExistingTexts(ctx)
	if err != nil {
		return nil, err
	}

	var unique []models.Idea
	for _, idea := range pool {
		normalized := strings.ToLower(strings.TrimSpace(idea.ProposedQuestion))
		if _, dup := existing[normalized]; !dup {
			unique = append(unique, idea)
		}
	}
	if len(unique) == 0 {
		result.Summary = "No unique ideas available (all would be duplicates)."
		return result, nil
	}
	log.Info("filtered pool", "unique", len(unique), "excluded", len(pool)-len(unique))

	// Step 4: shuffle for topical variety and take what the quota allows
	s.shuffle(len(unique), func(i, j int) {
		unique[i], unique[j] = unique[j], unique[i]
	})
	selected := unique
	if len(selected) > remaining {
		selected = selected[:remaining]
	}

	if opts.DryRun {
		result.Attempted = len(selected)
		result.Summary = fmt.Sprintf("DRY RUN: Would process %d ideas.", len(selected))
		return result, nil
	}

	// Step 5: commit point. Bulk-mark the batch as processing so an
	// overlapping run cannot re-select it
	ids := make([]primitive.ObjectID, len(selected))
	for i, idea := range selected {
		ids[i] = idea.ID
	}
	if err := s.ideas.MarkProcessing(ctx, ids, s.now().UTC()); err != nil {
		return nil, err
	}
	log.Info("marked ideas as processing", "count", len(ids))

	// Step 6: process sequentially, stopping once the quota is filled
	successful := 0
	for _, idea := range selected {
		if successful >= remaining {
			log.Info("reached publication target, stopping early", "target", remaining)
			break
		}
		outcome := s.processIdea(ctx, log, &idea)
		result.Results = append(result.Results, outcome)
		if outcome.Success {
			successful++
			result.CreatedSlugs = append(result.CreatedSlugs, outcome.Slug)
		}
	}

	result.Attempted = len(result.Results)
	result.Successful = successful
	for _, r := range result.Results {
		if r.Skipped {
			result.Duplicates++
		} else if !r.Success {
			result.Failed++
		}
	}
	result.Summary = fmt.Sprintf(
		"Processed %d ideas (%d successful, %d failed, %d duplicates). Total published today: %d/%d",
		result.Attempted, result.Successful, result.Failed, result.Duplicates,
		publishedToday+successful, opts.BatchSize,
	)
	log.Info("generation run complete", "summary", result.Summary)

	return result, nil
}

// processIdea advances one idea to a terminal state. Every early return
// records the outcome and leaves the idea marked; nothing here aborts the
// batch.
func (s *GenerationService) processIdea(ctx context.Context, runLog *slog.Logger, idea *models.Idea) models.IdeaResult {
	ideaID := idea.ID.Hex()
	runLog = logging.WithIdea(runLog, ideaID)
	runLog.Info("processing idea", "question", idea.ProposedQuestion)

	// Category must resolve to a valid ID; malformed idea data is a
	// terminal error requiring operator intervention.
	categoryID, ok := models.NormalizeCategory(idea.Category)
	if !ok {
		runLog.Error("invalid category", "category", idea.Category)
		s.markTerminal(ctx, runLog, idea.ID, models.IdeaStatusError)
		return models.IdeaResult{
			IdeaID: ideaID,
			Error:  fmt.Sprintf("invalid category: %s", idea.Category),
		}
	}

	tags := NormalizeTags(idea.Tags)

	generated, err := s.generator.GenerateAnswer(ctx, idea.ProposedQuestion, categoryID, tags, idea.Notes)
	if err != nil {
		runLog.Error("generator failed", "error", err)
		s.markTerminal(ctx, runLog, idea.ID, models.IdeaStatusError)
		return models.IdeaResult{
			IdeaID: ideaID,
			Error:  fmt.Sprintf("generator error: %v", err),
		}
	}
	runLog.Info("generator response received", "generated_question", generated.Question)

	// Re-check duplicates against the generated text, which may differ
	// from the proposed one.
	duplicate, err := s.questions.FindByText(ctx, generated.Question)
	if err != nil {
		runLog.Error("duplicate check failed", "error", err)
		s.markTerminal(ctx, runLog, idea.ID, models.IdeaStatusError)
		return models.IdeaResult{
			IdeaID: ideaID,
			Error:  fmt.Sprintf("error checking duplicate: %v", err),
		}
	}
	if duplicate != nil {
		runLog.Info("duplicate question text, skipping", "existing_id", duplicate.ID.Hex())
		s.markTerminal(ctx, runLog, idea.ID, models.IdeaStatusDuplicate)
		return models.IdeaResult{
			IdeaID:     ideaID,
			Skipped:    true,
			QuestionID: duplicate.ID.Hex(),
			Error:      "duplicate question text detected",
		}
	}

	slugTaken, err := s.questions.SlugExists(ctx, generated.Slug)
	if err != nil {
		runLog.Error("slug check failed", "error", err)
		s.markTerminal(ctx, runLog, idea.ID, models.IdeaStatusError)
		return models.IdeaResult{
			IdeaID: ideaID,
			Error:  fmt.Sprintf("error checking slug: %v", err),
		}
	}
	if slugTaken {
		runLog.Info("slug collision, skipping", "slug", generated.Slug)
		s.markTerminal(ctx, runLog, idea.ID, models.IdeaStatusDuplicate)
		return models.IdeaResult{
			IdeaID:  ideaID,
			Skipped: true,
			Error:   "duplicate slug detected",
		}
	}

	body := generated.BodyMarkdown
	if block := s.relatedQuestionsBlock(ctx, categoryID, generated.Slug); block != "" {
		body = strings.TrimSpace(body) + "\n\n" + block
	}

	questionTags := generated.Tags
	if len(questionTags) == 0 {
		questionTags = tags
	}

	publishedAt := s.now().UTC()
	question := &models.Question{
		Slug:         generated.Slug,
		Question:     generated.Question,
		ShortAnswer:  generated.ShortAnswer,
		Verdict:      generated.Verdict,
		Category:     categoryID,
		Summary:      generated.Summary,
		BodyMarkdown: body,
		Evidence:     generated.Evidence,
		Sources:      generated.Sources,
		Tags:         questionTags,
		Status:       models.QuestionStatusPublished,
		PublishedAt:  &publishedAt,
	}

	if err := s.questions.Insert(ctx, question); err != nil {
		runLog.Error("question insert failed", "error", err)
		s.markTerminal(ctx, runLog, idea.ID, models.IdeaStatusError)
		return models.IdeaResult{
			IdeaID: ideaID,
			Error:  fmt.Sprintf("persistence error: %v", err),
		}
	}
	runLog.Info("question published", "question_id", question.ID.Hex(), "slug", question.Slug)

	if err := s.ideas.MarkGenerated(ctx, idea.ID, question.ID, s.now().UTC()); err != nil {
		// The article is live; the link write failed even after the
		// minimal-payload retry. Surface it but count the success.
		runLog.Error("failed to mark idea as generated", "error", err)
	}

	return models.IdeaResult{
		IdeaID:     ideaID,
		Success:    true,
		Slug:       question.Slug,
		QuestionID: question.ID.Hex(),
	}
}

func (s *GenerationService) markTerminal(ctx context.Context, runLog *slog.Logger, id primitive.ObjectID, status string) {
	if err := s.ideas.MarkTerminal(ctx, id, status, s.now().UTC()); err != nil {
		runLog.Error("failed to record idea status", "status", status, "error", err)
	}
}

// relatedQuestionsBlock renders a markdown block linking recent published
// articles in the same category. Returns "" when the category is too
// sparse; the block is best effort and never fails the idea.
func (s *GenerationService) relatedQuestionsBlock(ctx context.Context, categoryID, excludeSlug string) string {
	candidates, err := s.questions.RecentPublishedInCategory(ctx, categoryID, excludeSlug, 20)
	if err != nil || len(candidates) < relatedBlockMin {
		return ""
	}

	if len(candidates) > relatedBlockMax {
		candidates = candidates[:relatedBlockMax]
	}

	var b strings.Builder
	b.WriteString("## Related Questions\n")
	for _, q := range candidates {
		fmt.Fprintf(&b, "- [%s](/questions/%s)\n", q.Question, q.Slug)
	}
	return strings.TrimSpace(b.String())
}
