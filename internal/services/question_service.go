package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"doesitwork/internal/database"
	"doesitwork/internal/models"
)

// QuestionService manages the questions collection
type QuestionService struct {
	questions    *mongo.Collection
	relatedCache *cache.Cache
}

// NewQuestionService creates a new question service
func NewQuestionService(mongoDB *database.MongoDB) *QuestionService {
	return &QuestionService{
		questions:    mongoDB.Collection(database.CollectionQuestions),
		relatedCache: cache.New(15*time.Minute, 30*time.Minute),
	}
}

// CountPublishedToday counts questions published during the current UTC
// calendar day.
func (s *QuestionService) CountPublishedToday(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	count, err := s.questions.CountDocuments(ctx, bson.M{
		"status":       models.QuestionStatusPublished,
		"published_at": bson.M{"$gte": dayStart, "$lt": dayEnd},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count published questions: %w", err)
	}
	return int(count), nil
}

// ExistingTexts returns the set of all question texts, normalized
// (lower-cased, trimmed), across every status. The pipeline uses it as a
// duplicate-exclusion set.
func (s *QuestionService) ExistingTexts(ctx context.Context) (map[string]struct{}, error) {
	opts := options.Find().SetProjection(bson.M{"question": 1})
	cursor, err := s.questions.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing questions: %w", err)
	}
	defer cursor.Close(ctx)

	texts := make(map[string]struct{})
	for cursor.Next(ctx) {
		var doc struct {
			Question string `bson:"question"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode existing question: %w", err)
		}
		texts[strings.ToLower(strings.TrimSpace(doc.Question))] = struct{}{}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate existing questions: %w", err)
	}
	return texts, nil
}

// FindByText returns the question whose text matches the given text
// case-insensitively after trimming, or nil if none exists.
func (s *QuestionService) FindByText(ctx context.Context, text string) (*models.Question, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))

	// Anchored case-insensitive match narrows the scan; the exact trim
	// comparison happens in Go.
	pattern := primitive.Regex{Pattern: "^\\s*" + regexp.QuoteMeta(strings.TrimSpace(text)) + "\\s*$", Options: "i"}
	cursor, err := s.questions.Find(ctx, bson.M{"question": pattern})
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate question: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var q models.Question
		if err := cursor.Decode(&q); err != nil {
			return nil, fmt.Errorf("failed to decode duplicate candidate: %w", err)
		}
		if strings.ToLower(strings.TrimSpace(q.Question)) == normalized {
			return &q, nil
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate duplicate candidates: %w", err)
	}
	return nil, nil
}

// SlugExists reports whether a question with the given slug exists
func (s *QuestionService) SlugExists(ctx context.Context, slug string) (bool, error) {
	count, err := s.questions.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check slug %q: %w", slug, err)
	}
	return count > 0, nil
}

// Insert stores a new question
func (s *QuestionService) Insert(ctx context.Context, q *models.Question) error {
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now

	if _, err := s.questions.InsertOne(ctx, q); err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

// GetBySlug returns a question by its slug
func (s *QuestionService) GetBySlug(ctx context.Context, slug string) (*models.Question, error) {
	var q models.Question
	err := s.questions.FindOne(ctx, bson.M{"slug": slug}).Decode(&q)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get question by slug: %w", err)
	}
	return &q, nil
}

// GetByID returns a question by its identifier
func (s *QuestionService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error) {
	var q models.Question
	err := s.questions.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get question by id: %w", err)
	}
	return &q, nil
}

// List returns questions filtered by status and category, newest
// publication first, with paging.
func (s *QuestionService) List(ctx context.Context, status, category string, limit, offset int) ([]models.Question, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if category != "" {
		filter["category"] = category
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "published_at", Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := s.questions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer cursor.Close(ctx)

	var questions []models.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	return questions, nil
}

// Search finds published questions whose text contains the query,
// case-insensitively, newest first.
func (s *QuestionService) Search(ctx context.Context, query string, limit int) ([]models.Question, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(strings.TrimSpace(query)), Options: "i"}
	filter := bson.M{
		"status":   models.QuestionStatusPublished,
		"question": pattern,
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "published_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.questions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search questions: %w", err)
	}
	defer cursor.Close(ctx)

	var questions []models.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return questions, nil
}

// Update applies an editor's partial update to a question. Setting status
// to "published" stamps published_at if it was never set.
func (s *QuestionService) Update(ctx context.Context, id primitive.ObjectID, req models.UpdateQuestionRequest) (*models.Question, error) {
	set := bson.M{"updated_at": time.Now().UTC()}

	if req.Question != nil {
		set["question"] = *req.Question
	}
	if req.ShortAnswer != nil {
		set["short_answer"] = *req.ShortAnswer
	}
	if req.Verdict != nil {
		if *req.Verdict != "" && !models.IsValidVerdict(*req.Verdict) {
			return nil, fmt.Errorf("invalid verdict: %q", *req.Verdict)
		}
		set["verdict"] = *req.Verdict
	}
	if req.Category != nil {
		if !models.IsValidCategory(*req.Category) {
			return nil, fmt.Errorf("invalid category: %q", *req.Category)
		}
		set["category"] = *req.Category
	}
	if req.Summary != nil {
		set["summary"] = *req.Summary
	}
	if req.BodyMarkdown != nil {
		set["body_markdown"] = *req.BodyMarkdown
	}
	if req.Evidence != nil {
		set["evidence"] = *req.Evidence
	}
	if req.Sources != nil {
		set["sources"] = *req.Sources
	}
	if req.Tags != nil {
		set["tags"] = *req.Tags
	}
	if req.Status != nil {
		if !models.IsValidQuestionStatus(*req.Status) {
			return nil, fmt.Errorf("invalid status: %q", *req.Status)
		}
		set["status"] = *req.Status
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("question %s not found", id.Hex())
	}
	if req.Status != nil && *req.Status == models.QuestionStatusPublished && current.PublishedAt == nil {
		now := time.Now().UTC()
		set["published_at"] = now
	}

	if _, err := s.questions.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return s.GetByID(ctx, id)
}

// UpdateBody replaces only a question's article body. Used by the
// enhancement helper.
func (s *QuestionService) UpdateBody(ctx context.Context, id primitive.ObjectID, body string) error {
	_, err := s.questions.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"body_markdown": body,
			"updated_at":    time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update question body: %w", err)
	}
	return nil
}

// RecentPublishedInCategory returns recent published questions from one
// category, excluding a slug. Results are cached briefly since the reader
// pages and the pipeline both hit this for every article.
func (s *QuestionService) RecentPublishedInCategory(ctx context.Context, category, excludeSlug string, limit int) ([]models.Question, error) {
	cacheKey := fmt.Sprintf("related:%s:%s:%d", category, excludeSlug, limit)
	if cached, ok := s.relatedCache.Get(cacheKey); ok {
		return cached.([]models.Question), nil
	}

	filter := bson.M{
		"category": category,
		"status":   models.QuestionStatusPublished,
		"slug":     bson.M{"$ne": excludeSlug},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.questions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch related questions: %w", err)
	}
	defer cursor.Close(ctx)

	var questions []models.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode related questions: %w", err)
	}

	// Clip capacity so callers appending to the result reallocate instead
	// of writing into the cached entry's backing array.
	questions = questions[:len(questions):len(questions)]
	s.relatedCache.Set(cacheKey, questions, cache.DefaultExpiration)
	return questions, nil
}

// Related returns questions to show alongside one article: same-category
// first, backfilled with recent published questions from elsewhere.
func (s *QuestionService) Related(ctx context.Context, current *models.Question, limit int) ([]models.Question, error) {
	sameCategory, err := s.RecentPublishedInCategory(ctx, current.Category, current.Slug, limit)
	if err != nil {
		return nil, err
	}
	if len(sameCategory) >= limit {
		return sameCategory[:limit], nil
	}

	needed := limit - len(sameCategory)
	filter := bson.M{
		"status":   models.QuestionStatusPublished,
		"category": bson.M{"$ne": current.Category},
		"slug":     bson.M{"$ne": current.Slug},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "published_at", Value: -1}}).
		SetLimit(int64(needed))

	cursor, err := s.questions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to backfill related questions: %w", err)
	}
	defer cursor.Close(ctx)

	var recent []models.Question
	if err := cursor.All(ctx, &recent); err != nil {
		return nil, fmt.Errorf("failed to decode backfill questions: %w", err)
	}

	return mergeRelated(sameCategory, recent), nil
}

// mergeRelated combines the cached same-category results with the backfill
// in a fresh slice. sameCategory is shared with the cache, so appending to
// it directly would race with other readers of the same entry.
func mergeRelated(sameCategory, recent []models.Question) []models.Question {
	out := make([]models.Question, 0, len(sameCategory)+len(recent))
	out = append(out, sameCategory...)
	return append(out, recent...)
}

// ListPublishedSummaries returns id, text and creation time of every
// published question, oldest first. Used by the cleanup routine.
func (s *QuestionService) ListPublishedSummaries(ctx context.Context) ([]models.Question, error) {
	opts := options.Find().
		SetProjection(bson.M{"question": 1, "created_at": 1}).
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := s.questions.Find(ctx, bson.M{"status": models.QuestionStatusPublished}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list published questions: %w", err)
	}
	defer cursor.Close(ctx)

	var questions []models.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode published questions: %w", err)
	}
	return questions, nil
}
