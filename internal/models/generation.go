package models

// GeneratedContent is the structured output of one answer-generator call.
// It is consumed immediately by the pipeline to build a Question and is
// never persisted.
type GeneratedContent struct {
	Question     string     `json:"question"`
	Slug         string     `json:"slug"`
	ShortAnswer  string     `json:"short_answer"`
	Verdict      string     `json:"verdict"`
	Summary      string     `json:"summary"`
	BodyMarkdown string     `json:"body_markdown"`
	Evidence     []Evidence `json:"evidence"`
	Sources      []string   `json:"sources"`
	Tags         []string   `json:"tags"`
}

// IdeaResult records the outcome of one idea attempt within a pipeline run
type IdeaResult struct {
	IdeaID     string `json:"idea_id"`
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped,omitempty"` // duplicate, not a failure
	Slug       string `json:"slug,omitempty"`
	QuestionID string `json:"question_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// GenerationRunResult is the summary returned by one pipeline invocation
type GenerationRunResult struct {
	RunID          string       `json:"run_id"`
	PublishedToday int          `json:"published_today"`
	Remaining      int          `json:"remaining"`
	Attempted      int          `json:"attempted"`
	Successful     int          `json:"successful"`
	Failed         int          `json:"failed"`
	Duplicates     int          `json:"duplicates"`
	CreatedSlugs   []string     `json:"created_slugs"`
	Results        []IdeaResult `json:"results,omitempty"`
	Summary        string       `json:"summary"`
}
