package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"doesitwork/internal/database"
	"doesitwork/internal/models"
)

// bulkImportBatchSize limits how many ideas go into a single insert
const bulkImportBatchSize = 50

// IdeaService manages the ideas collection
type IdeaService struct {
	ideas *mongo.Collection
}

// NewIdeaService creates a new idea service
func NewIdeaService(mongoDB *database.MongoDB) *IdeaService {
	return &IdeaService{
		ideas: mongoDB.Collection(database.CollectionIdeas),
	}
}

// FetchPool returns up to limit ideas whose status is "new" or the legacy
// "pending", oldest first.
func (s *IdeaService) FetchPool(ctx context.Context, limit int) ([]models.Idea, error) {
	filter := bson.M{"status": bson.M{"$in": []string{models.IdeaStatusNew, models.IdeaStatusPending}}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := s.ideas.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ideas pool: %w", err)
	}
	defer cursor.Close(ctx)

	var pool []models.Idea
	if err := cursor.All(ctx, &pool); err != nil {
		return nil, fmt.Errorf("failed to decode ideas pool: %w", err)
	}
	return pool, nil
}

// MarkProcessing bulk-marks the selected ideas as "processing" and stamps
// the processing-started timestamp. This is the commit point that prevents
// a concurrent run from re-selecting them.
func (s *IdeaService) MarkProcessing(ctx context.Context, ids []primitive.ObjectID, startedAt time.Time) error {
	_, err := s.ideas.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{
			"status":                models.IdeaStatusProcessing,
			"processing_started_at": startedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark ideas as processing: %w", err)
	}
	return nil
}

// MarkGenerated marks an idea as successfully converted, linking the new
// question. If the full update fails, it retries once with a minimal
// payload (status and timestamp only) so the idea does not stay stuck in
// "processing".
func (s *IdeaService) MarkGenerated(ctx context.Context, id, questionID primitive.ObjectID, processedAt time.Time) error {
	_, err := s.ideas.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":                models.IdeaStatusGenerated,
			"generated_question_id": questionID,
			"processed_at":          processedAt,
		}},
	)
	if err == nil {
		return nil
	}

	if retryErr := s.MarkTerminal(ctx, id, models.IdeaStatusGenerated, processedAt); retryErr != nil {
		return fmt.Errorf("failed to mark idea as generated (retry also failed: %v): %w", retryErr, err)
	}
	return nil
}

// MarkTerminal sets an idea's terminal status ("generated", "duplicate" or
// "error") and its processed timestamp.
func (s *IdeaService) MarkTerminal(ctx context.Context, id primitive.ObjectID, status string, processedAt time.Time) error {
	_, err := s.ideas.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":       status,
			"processed_at": processedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark idea %s as %s: %w", id.Hex(), status, err)
	}
	return nil
}

// Create inserts a single idea with status "pending"
func (s *IdeaService) Create(ctx context.Context, req models.CreateIdeaRequest) (*models.Idea, error) {
	question := strings.TrimSpace(req.ProposedQuestion)
	if question == "" {
		return nil, fmt.Errorf("proposed question is required")
	}
	if req.Category == "" {
		return nil, fmt.Errorf("category is required")
	}

	idea := &models.Idea{
		ID:               primitive.NewObjectID(),
		ProposedQuestion: question,
		Category:         req.Category,
		Tags:             NormalizeTags(req.Tags),
		Notes:            strings.TrimSpace(req.Notes),
		Priority:         req.Priority,
		Status:           models.IdeaStatusPending,
		CreatedAt:        time.Now().UTC(),
	}

	if _, err := s.ideas.InsertOne(ctx, idea); err != nil {
		return nil, fmt.Errorf("failed to create idea: %w", err)
	}
	return idea, nil
}

// BulkImportResult reports the outcome of one insert batch
type BulkImportResult struct {
	Batch    int    `json:"batch"`
	Inserted int    `json:"inserted,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BulkImport inserts many ideas in batches. A failed batch is reported and
// does not abort the remaining batches.
func (s *IdeaService) BulkImport(ctx context.Context, reqs []models.CreateIdeaRequest) (int, []BulkImportResult, error) {
	now := time.Now().UTC()

	var docs []interface{}
	for _, req := range reqs {
		question := strings.TrimSpace(req.ProposedQuestion)
		if question == "" {
			continue
		}
		category := req.Category
		if category == "" {
			category = models.CategoryGeneralHealth
		}
		docs = append(docs, models.Idea{
			ID:               primitive.NewObjectID(),
			ProposedQuestion: question,
			Category:         category,
			Tags:             NormalizeTags(req.Tags),
			Notes:            strings.TrimSpace(req.Notes),
			Priority:         req.Priority,
			Status:           models.IdeaStatusPending,
			CreatedAt:        now,
		})
	}

	if len(docs) == 0 {
		return 0, nil, fmt.Errorf("no valid ideas to import")
	}

	totalInserted := 0
	var results []BulkImportResult

	for i := 0; i < len(docs); i += bulkImportBatchSize {
		end := i + bulkImportBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batchNum := i/bulkImportBatchSize + 1

		inserted, err := s.ideas.InsertMany(ctx, docs[i:end])
		if err != nil {
			results = append(results, BulkImportResult{Batch: batchNum, Error: err.Error()})
			continue
		}
		totalInserted += len(inserted.InsertedIDs)
		results = append(results, BulkImportResult{Batch: batchNum, Inserted: len(inserted.InsertedIDs)})
	}

	return totalInserted, results, nil
}

// ListAwaiting returns every idea still awaiting processing ("new" or
// "pending"), oldest first. Used by the administrative cleanup routine.
func (s *IdeaService) ListAwaiting(ctx context.Context) ([]models.Idea, error) {
	filter := bson.M{"status": bson.M{"$in": []string{models.IdeaStatusNew, models.IdeaStatusPending}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := s.ideas.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list awaiting ideas: %w", err)
	}
	defer cursor.Close(ctx)

	var ideas []models.Idea
	if err := cursor.All(ctx, &ideas); err != nil {
		return nil, fmt.Errorf("failed to decode awaiting ideas: %w", err)
	}
	return ideas, nil
}

// LinkGenerated marks an idea as generated with a back-reference and an
// explicit processed timestamp (the matched question's creation time when
// known). Used by the cleanup routine.
func (s *IdeaService) LinkGenerated(ctx context.Context, id, questionID primitive.ObjectID, processedAt time.Time) error {
	_, err := s.ideas.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":                models.IdeaStatusGenerated,
			"generated_question_id": questionID,
			"processed_at":          processedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to link idea %s to question: %w", id.Hex(), err)
	}
	return nil
}

// NormalizeTags flattens tag input into a clean list: each element may
// itself be a comma-separated string (legacy import format).
func NormalizeTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		for _, part := range strings.Split(tag, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
