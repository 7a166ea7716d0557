package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question statuses
const (
	QuestionStatusDraft     = "draft"
	QuestionStatusApproved  = "approved"
	QuestionStatusScheduled = "scheduled"
	QuestionStatusPublished = "published"
)

// Verdicts: the editorial conclusion of an article
const (
	VerdictWorks      = "works"
	VerdictDoesntWork = "doesnt_work"
	VerdictMixed      = "mixed"
)

// Evidence is a single cited source backing an article
type Evidence struct {
	Title       string `bson:"title" json:"title"`
	URL         string `bson:"url" json:"url"`
	Explanation string `bson:"explanation" json:"explanation"`
}

// Question is a published (or draft) Q&A article. The slug is unique
// across the collection; question text is treated as a soft-unique key by
// the pipeline's duplicate detection.
type Question struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug         string             `bson:"slug" json:"slug"`
	Question     string             `bson:"question" json:"question"`
	ShortAnswer  string             `bson:"short_answer,omitempty" json:"short_answer,omitempty"`
	Verdict      string             `bson:"verdict,omitempty" json:"verdict,omitempty"`
	Category     string             `bson:"category" json:"category"`
	Summary      string             `bson:"summary,omitempty" json:"summary,omitempty"`
	BodyMarkdown string             `bson:"body_markdown,omitempty" json:"body_markdown,omitempty"`
	Evidence     []Evidence         `bson:"evidence,omitempty" json:"evidence,omitempty"`
	Sources      []string           `bson:"sources,omitempty" json:"sources,omitempty"`
	Tags         []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Status       string             `bson:"status" json:"status"`
	PublishedAt  *time.Time         `bson:"published_at,omitempty" json:"published_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsValidVerdict reports whether v is one of the known verdicts
func IsValidVerdict(v string) bool {
	return v == VerdictWorks || v == VerdictDoesntWork || v == VerdictMixed
}

// IsValidQuestionStatus reports whether s is one of the known statuses
func IsValidQuestionStatus(s string) bool {
	switch s {
	case QuestionStatusDraft, QuestionStatusApproved, QuestionStatusScheduled, QuestionStatusPublished:
		return true
	}
	return false
}

// CreateQuestionRequest is the request body for the editor's create endpoint
type CreateQuestionRequest struct {
	Slug         string     `json:"slug"`
	Question     string     `json:"question"`
	ShortAnswer  string     `json:"short_answer"`
	Verdict      string     `json:"verdict"`
	Category     string     `json:"category"`
	Summary      string     `json:"summary"`
	BodyMarkdown string     `json:"body_markdown"`
	Evidence     []Evidence `json:"evidence"`
	Sources      []string   `json:"sources"`
	Tags         []string   `json:"tags"`
	Status       string     `json:"status"`
	PublishedAt  *time.Time `json:"published_at"`
}

// UpdateQuestionRequest is the request body for the editor's update
// endpoint. Pointer fields distinguish "not provided" from zero values.
type UpdateQuestionRequest struct {
	Question     *string     `json:"question"`
	ShortAnswer  *string     `json:"short_answer"`
	Verdict      *string     `json:"verdict"`
	Category     *string     `json:"category"`
	Summary      *string     `json:"summary"`
	BodyMarkdown *string     `json:"body_markdown"`
	Evidence     *[]Evidence `json:"evidence"`
	Sources      *[]string   `json:"sources"`
	Tags         *[]string   `json:"tags"`
	Status       *string     `json:"status"`
}
