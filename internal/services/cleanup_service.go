package services

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"doesitwork/internal/models"
	"doesitwork/internal/textutil"
)

// CleanupIdeaStore is the slice of the idea store the cleanup sweep needs
type CleanupIdeaStore interface {
	ListAwaiting(ctx context.Context) ([]models.Idea, error)
	LinkGenerated(ctx context.Context, id, questionID primitive.ObjectID, processedAt time.Time) error
}

// PublishedLister provides the published catalog summaries to match against
type PublishedLister interface {
	ListPublishedSummaries(ctx context.Context) ([]models.Question, error)
}

// CleanupService reconciles idea statuses with the published catalog: an
// idea still marked "new" or "pending" whose proposed question fuzzily
// matches an existing published question was evidently already covered, so
// it gets marked "generated" with a back-reference. This is the
// human-reviewed cleanup path; the live pipeline deliberately uses the
// stricter exact-match policy instead.
type CleanupService struct {
	ideas     CleanupIdeaStore
	questions PublishedLister
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(ideas CleanupIdeaStore, questions PublishedLister) *CleanupService {
	return &CleanupService{ideas: ideas, questions: questions}
}

// CleanupOutcome records what happened to one idea during cleanup
type CleanupOutcome struct {
	IdeaID            string `json:"idea_id"`
	ProposedQuestion  string `json:"proposed_question"`
	MatchedQuestion   string `json:"matched_question,omitempty"`
	MatchedQuestionID string `json:"matched_question_id,omitempty"`
	Status            string `json:"status"` // "updated", "no_match" or "error"
	Error             string `json:"error,omitempty"`
}

// CleanupResult summarizes one cleanup invocation
type CleanupResult struct {
	Total    int              `json:"total"`
	Updated  int              `json:"updated"`
	NotFound int              `json:"not_found"`
	Errors   int              `json:"errors"`
	Results  []CleanupOutcome `json:"results"`
}

// Run walks every awaiting idea and marks those whose topic is already
// covered by a published question. Per-idea update failures are recorded
// and do not abort the sweep.
func (s *CleanupService) Run(ctx context.Context) (*CleanupResult, error) {
	ideas, err := s.ideas.ListAwaiting(ctx)
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{Total: len(ideas)}
	if len(ideas) == 0 {
		return result, nil
	}

	questions, err := s.questions.ListPublishedSummaries(ctx)
	if err != nil {
		return nil, err
	}

	for _, idea := range ideas {
		var matched *models.Question
		for i := range questions {
			if textutil.QuestionsSimilar(idea.ProposedQuestion, questions[i].Question) {
				matched = &questions[i]
				break
			}
		}

		if matched == nil {
			result.NotFound++
			result.Results = append(result.Results, CleanupOutcome{
				IdeaID:           idea.ID.Hex(),
				ProposedQuestion: idea.ProposedQuestion,
				Status:           "no_match",
			})
			continue
		}

		processedAt := matched.CreatedAt
		if processedAt.IsZero() {
			processedAt = time.Now().UTC()
		}

		if err := s.ideas.LinkGenerated(ctx, idea.ID, matched.ID, processedAt); err != nil {
			slog.Error("cleanup failed to update idea", "idea_id", idea.ID.Hex(), "error", err)
			result.Errors++
			result.Results = append(result.Results, CleanupOutcome{
				IdeaID:           idea.ID.Hex(),
				ProposedQuestion: idea.ProposedQuestion,
				Status:           "error",
				Error:            err.Error(),
			})
			continue
		}

		result.Updated++
		result.Results = append(result.Results, CleanupOutcome{
			IdeaID:            idea.ID.Hex(),
			ProposedQuestion:  idea.ProposedQuestion,
			MatchedQuestion:   matched.Question,
			MatchedQuestionID: matched.ID.Hex(),
			Status:            "updated",
		})
	}

	return result, nil
}
