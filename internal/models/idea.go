package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Idea statuses. "pending" is a legacy synonym for "new"; the pipeline
// selects both but only ever writes the other states.
const (
	IdeaStatusNew        = "new"
	IdeaStatusPending    = "pending"
	IdeaStatusProcessing = "processing"
	IdeaStatusGenerated  = "generated"
	IdeaStatusDuplicate  = "duplicate"
	IdeaStatusError      = "error"
)

// Idea is a candidate question topic awaiting conversion into a published
// article. Created by editors or the bulk importer; advanced through its
// lifecycle by the generation pipeline.
type Idea struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProposedQuestion    string              `bson:"proposed_question" json:"proposed_question"`
	Category            string              `bson:"category" json:"category"`
	Tags                []string            `bson:"tags" json:"tags"`
	Notes               string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Priority            int                 `bson:"priority,omitempty" json:"priority,omitempty"`
	Status              string              `bson:"status" json:"status"`
	GeneratedQuestionID *primitive.ObjectID `bson:"generated_question_id,omitempty" json:"generated_question_id,omitempty"`
	CreatedAt           time.Time           `bson:"created_at" json:"created_at"`
	ProcessingStartedAt *time.Time          `bson:"processing_started_at,omitempty" json:"processing_started_at,omitempty"`
	ProcessedAt         *time.Time          `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
}

// CreateIdeaRequest is the request body for creating a single idea
type CreateIdeaRequest struct {
	ProposedQuestion string   `json:"proposed_question"`
	Category         string   `json:"category"`
	Tags             []string `json:"tags"`
	Notes            string   `json:"notes"`
	Priority         int      `json:"priority"`
}

// BulkImportIdeasRequest is the request body for the bulk importer
type BulkImportIdeasRequest struct {
	Ideas []CreateIdeaRequest `json:"ideas"`
}
