package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"doesitwork/internal/generator"
	"doesitwork/internal/models"
)

// enhanceDelay spaces out rewrite calls to stay under API rate limits
const enhanceDelay = time.Second

// MarkdownEnhancer rewrites an article body for formatting only
type MarkdownEnhancer interface {
	EnhanceMarkdown(ctx context.Context, opts generator.EnhanceOptions) (string, error)
}

// EnhanceService runs best-effort body rewrites over published articles
type EnhanceService struct {
	questions *QuestionService
	enhancer  MarkdownEnhancer
}

// NewEnhanceService creates a new enhance service
func NewEnhanceService(questions *QuestionService, enhancer MarkdownEnhancer) *EnhanceService {
	return &EnhanceService{questions: questions, enhancer: enhancer}
}

// EnhanceOutcome records the result for one article
type EnhanceOutcome struct {
	QuestionID string `json:"question_id"`
	Slug       string `json:"slug"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// EnhanceResult summarizes an enhance-all invocation
type EnhanceResult struct {
	Total     int              `json:"total"`
	Processed int              `json:"processed"`
	Errors    int              `json:"errors"`
	Results   []EnhanceOutcome `json:"results"`
}

// EnhanceOne rewrites a single published question's body
func (s *EnhanceService) EnhanceOne(ctx context.Context, id primitive.ObjectID, dryRun bool) (string, error) {
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if question == nil || question.Status != models.QuestionStatusPublished {
		return "", fmt.Errorf("question not found")
	}
	if question.BodyMarkdown == "" {
		return "", fmt.Errorf("question has no article body")
	}

	enhanced, err := s.enhancer.EnhanceMarkdown(ctx, generator.EnhanceOptions{
		Question:     question.Question,
		BodyMarkdown: question.BodyMarkdown,
		Evidence:     question.Evidence,
		Sources:      question.Sources,
	})
	if err != nil {
		return "", err
	}

	if !dryRun {
		if err := s.questions.UpdateBody(ctx, id, enhanced); err != nil {
			return "", err
		}
	}
	return enhanced, nil
}

// EnhanceAll rewrites every published article body sequentially. Single
// attempt per article; failures are recorded and do not stop the sweep.
func (s *EnhanceService) EnhanceAll(ctx context.Context, dryRun bool) (*EnhanceResult, error) {
	questions, err := s.questions.List(ctx, models.QuestionStatusPublished, "", 0, 0)
	if err != nil {
		return nil, err
	}

	result := &EnhanceResult{Total: len(questions)}

	for i, q := range questions {
		if q.BodyMarkdown == "" {
			result.Errors++
			result.Results = append(result.Results, EnhanceOutcome{
				QuestionID: q.ID.Hex(), Slug: q.Slug, Error: "no article body",
			})
			continue
		}

		enhanced, err := s.enhancer.EnhanceMarkdown(ctx, generator.EnhanceOptions{
			Question:     q.Question,
			BodyMarkdown: q.BodyMarkdown,
			Evidence:     q.Evidence,
			Sources:      q.Sources,
		})
		if err != nil {
			slog.Error("enhance failed", "question_id", q.ID.Hex(), "error", err)
			result.Errors++
			result.Results = append(result.Results, EnhanceOutcome{
				QuestionID: q.ID.Hex(), Slug: q.Slug, Error: err.Error(),
			})
			continue
		}

		if !dryRun {
			if err := s.questions.UpdateBody(ctx, q.ID, enhanced); err != nil {
				result.Errors++
				result.Results = append(result.Results, EnhanceOutcome{
					QuestionID: q.ID.Hex(), Slug: q.Slug, Error: err.Error(),
				})
				continue
			}
		}

		result.Processed++
		result.Results = append(result.Results, EnhanceOutcome{
			QuestionID: q.ID.Hex(), Slug: q.Slug, Success: true,
		})

		if i < len(questions)-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(enhanceDelay):
			}
		}
	}

	return result, nil
}
