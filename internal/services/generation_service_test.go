package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"doesitwork/internal/models"
	"doesitwork/internal/textutil"
)

type fakeIdeaStore struct {
	pool              []models.Idea
	fetchErr          error
	fetchCalls        int
	markProcessingErr error
	processing        []primitive.ObjectID
	terminal          map[string]string // idea ID hex -> terminal status
	links             map[string]string // idea ID hex -> question ID hex
	markGeneratedErr  error
}

func newFakeIdeaStore(pool ...models.Idea) *fakeIdeaStore {
	return &fakeIdeaStore{
		pool:     pool,
		terminal: make(map[string]string),
		links:    make(map[string]string),
	}
}

func (f *fakeIdeaStore) FetchPool(ctx context.Context, limit int) ([]models.Idea, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.pool) > limit {
		return f.pool[:limit], nil
	}
	return f.pool, nil
}

func (f *fakeIdeaStore) MarkProcessing(ctx context.Context, ids []primitive.ObjectID, startedAt time.Time) error {
	if f.markProcessingErr != nil {
		return f.markProcessingErr
	}
	f.processing = append(f.processing, ids...)
	return nil
}

func (f *fakeIdeaStore) MarkGenerated(ctx context.Context, id, questionID primitive.ObjectID, processedAt time.Time) error {
	if f.markGeneratedErr != nil {
		return f.markGeneratedErr
	}
	f.terminal[id.Hex()] = models.IdeaStatusGenerated
	f.links[id.Hex()] = questionID.Hex()
	return nil
}

func (f *fakeIdeaStore) MarkTerminal(ctx context.Context, id primitive.ObjectID, status string, processedAt time.Time) error {
	f.terminal[id.Hex()] = status
	return nil
}

type fakeQuestionStore struct {
	publishedToday int
	countErr       error
	existingTexts  map[string]struct{}
	existingCalls  int
	byText         map[string]*models.Question // normalized text -> question
	slugs          map[string]bool
	inserted       []*models.Question
	insertErr      error
	related        []models.Question
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{
		existingTexts: make(map[string]struct{}),
		byText:        make(map[string]*models.Question),
		slugs:         make(map[string]bool),
	}
}

func (f *fakeQuestionStore) CountPublishedToday(ctx context.Context, now time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.publishedToday, nil
}

func (f *fakeQuestionStore) ExistingTexts(ctx context.Context) (map[string]struct{}, error) {
	f.existingCalls++
	return f.existingTexts, nil
}

func (f *fakeQuestionStore) FindByText(ctx context.Context, text string) (*models.Question, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if q, ok := f.byText[normalized]; ok {
		return q, nil
	}
	return nil, nil
}

func (f *fakeQuestionStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	return f.slugs[slug], nil
}

func (f *fakeQuestionStore) Insert(ctx context.Context, q *models.Question) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	f.slugs[q.Slug] = true
	f.byText[strings.ToLower(strings.TrimSpace(q.Question))] = q
	f.inserted = append(f.inserted, q)
	return nil
}

func (f *fakeQuestionStore) RecentPublishedInCategory(ctx context.Context, category, excludeSlug string, limit int) ([]models.Question, error) {
	return f.related, nil
}

type fakeGenerator struct {
	generate func(question, categoryID string) (*models.GeneratedContent, error)
	calls    []string
}

func (f *fakeGenerator) GenerateAnswer(ctx context.Context, question, categoryID string, tags []string, notes string) (*models.GeneratedContent, error) {
	f.calls = append(f.calls, question)
	if f.generate != nil {
		return f.generate(question, categoryID)
	}
	return echoContent(question), nil
}

// echoContent builds a generator result that keeps the proposed question
func echoContent(question string) *models.GeneratedContent {
	return &models.GeneratedContent{
		Question:     question,
		Slug:         textutil.Slugify(question),
		ShortAnswer:  "Short answer.",
		Verdict:      models.VerdictWorks,
		Summary:      "Summary.",
		BodyMarkdown: "## Answer\n\nBody.",
		Evidence: []models.Evidence{
			{Title: "Study", URL: "https://example.org/study", Explanation: "Supporting study."},
		},
		Sources: []string{"https://example.org/study"},
		Tags:    []string{"test"},
	}
}

func newIdea(question, category string) models.Idea {
	return models.Idea{
		ID:               primitive.NewObjectID(),
		ProposedQuestion: question,
		Category:         category,
		Status:           models.IdeaStatusNew,
		CreatedAt:        time.Now().UTC(),
	}
}

func newTestService(ideas *fakeIdeaStore, questions *fakeQuestionStore, gen *fakeGenerator) *GenerationService {
	svc := NewGenerationService(ideas, questions, gen)
	// Deterministic selection order for assertions
	svc.shuffle = func(n int, swap func(i, j int)) {}
	return svc
}

func TestRunPublishesFullBatch(t *testing.T) {
	ideas := newFakeIdeaStore(
		newIdea("Does idea one work?", "sleep"),
		newIdea("Does idea two work?", "science"),
		newIdea("Does idea three work?", "nutrition"),
		newIdea("Does idea four work?", "history"),
		newIdea("Does idea five work?", "geography"),
	)
	questions := newFakeQuestionStore()
	gen := &fakeGenerator{}

	result, err := newTestService(ideas, questions, gen).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Successful != 5 || result.Failed != 0 || result.Duplicates != 0 {
		t.Errorf("expected 5/0/0, got successful=%d failed=%d duplicates=%d", result.Successful, result.Failed, result.Duplicates)
	}
	if len(questions.inserted) != 5 {
		t.Errorf("expected 5 inserted questions, got %d", len(questions.inserted))
	}
	if len(result.CreatedSlugs) != 5 {
		t.Errorf("expected 5 created slugs, got %d", len(result.CreatedSlugs))
	}
	for _, q := range questions.inserted {
		if q.Status != models.QuestionStatusPublished {
			t.Errorf("question %s not auto-published: status %q", q.Slug, q.Status)
		}
		if q.PublishedAt == nil {
			t.Errorf("question %s missing published timestamp", q.Slug)
		}
	}
	for hex, status := range ideas.terminal {
		if status != models.IdeaStatusGenerated {
			t.Errorf("idea %s finished as %q, want generated", hex, status)
		}
	}
}

func TestRunQuotaMetIsNoOp(t *testing.T) {
	ideas := newFakeIdeaStore(newIdea("Does it work?", "sleep"))
	questions := newFakeQuestionStore()
	questions.publishedToday = 5

	result, err := newTestService(ideas, questions, &fakeGenerator{}).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Remaining != 0 {
		t.Errorf("expected remaining 0, got %d", result.Remaining)
	}
	if ideas.fetchCalls != 0 {
		t.Error("quota-met run must not query the idea pool")
	}
	if len(ideas.processing) != 0 || len(ideas.terminal) != 0 {
		t.Error("quota-met run must not mutate ideas")
	}
}

func TestRunFiltersExistingTextsBeforeGeneration(t *testing.T) {
	duplicated := newIdea("Does Honey Help A Sore Throat?  ", "general_health")
	fresh1 := newIdea("Does idea one work?", "sleep")
	fresh2 := newIdea("Does idea two work?", "science")
	ideas := newFakeIdeaStore(duplicated, fresh1, fresh2)

	questions := newFakeQuestionStore()
	questions.existingTexts["does honey help a sore throat?"] = struct{}{}

	gen := &fakeGenerator{}
	result, err := newTestService(ideas, questions, gen).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for _, called := range gen.calls {
		if called == duplicated.ProposedQuestion {
			t.Error("idea matching an existing question text must never reach the generator")
		}
	}
	if result.Attempted != 2 || result.Successful != 2 {
		t.Errorf("expected 2 attempted and successful, got attempted=%d successful=%d", result.Attempted, result.Successful)
	}
	if status, ok := ideas.terminal[duplicated.ID.Hex()]; ok {
		t.Errorf("pre-filtered idea must not be touched, but finished as %q", status)
	}
}

func TestRunAllDuplicatesIsNoOp(t *testing.T) {
	idea := newIdea("Does honey help a sore throat?", "general_health")
	ideas := newFakeIdeaStore(idea)
	questions := newFakeQuestionStore()
	questions.existingTexts["does honey help a sore throat?"] = struct{}{}

	result, err := newTestService(ideas, questions, &fakeGenerator{}).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Attempted != 0 {
		t.Errorf("expected no attempts, got %d", result.Attempted)
	}
	if len(ideas.processing) != 0 {
		t.Error("all-duplicates run must not mark anything as processing")
	}
}

func TestRunGeneratorFailureIsIsolated(t *testing.T) {
	failing := newIdea("Does the failing idea work?", "sleep")
	ok1 := newIdea("Does idea one work?", "science")
	ok2 := newIdea("Does idea two work?", "nutrition")
	ideas := newFakeIdeaStore(failing, ok1, ok2)
	questions := newFakeQuestionStore()

	gen := &fakeGenerator{generate: func(question, categoryID string) (*models.GeneratedContent, error) {
		if question == failing.ProposedQuestion {
			return nil, fmt.Errorf("upstream timeout")
		}
		return echoContent(question), nil
	}}

	result, err := newTestService(ideas, questions, gen).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Failed != 1 || result.Successful != 2 {
		t.Errorf("expected failed=1 successful=2, got failed=%d successful=%d", result.Failed, result.Successful)
	}
	if ideas.terminal[failing.ID.Hex()] != models.IdeaStatusError {
		t.Errorf("failing idea finished as %q, want error", ideas.terminal[failing.ID.Hex()])
	}
	if ideas.terminal[ok1.ID.Hex()] != models.IdeaStatusGenerated || ideas.terminal[ok2.ID.Hex()] != models.IdeaStatusGenerated {
		t.Error("other ideas must proceed unaffected")
	}
}

func TestRunInvalidCategoryMarksError(t *testing.T) {
	bad := newIdea("Does the malformed idea work?", "underwater basket weaving")
	ideas := newFakeIdeaStore(bad)
	questions := newFakeQuestionStore()
	gen := &fakeGenerator{}

	result, err := newTestService(ideas, questions, gen).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(gen.calls) != 0 {
		t.Error("idea with invalid category must not reach the generator")
	}
	if ideas.terminal[bad.ID.Hex()] != models.IdeaStatusError {
		t.Errorf("idea finished as %q, want error", ideas.terminal[bad.ID.Hex()])
	}
	if result.Failed != 1 {
		t.Errorf("expected failed=1, got %d", result.Failed)
	}
}

func TestRunDuplicateGeneratedTextDoesNotCount(t *testing.T) {
	idea := newIdea("Is honey good against sore throats?", "general_health")
	ideas := newFakeIdeaStore(idea)
	questions := newFakeQuestionStore()

	existing := &models.Question{ID: primitive.NewObjectID(), Question: "Does honey help a sore throat?"}
	questions.byText["does honey help a sore throat?"] = existing

	// The generator rephrases the proposed question into the existing one
	gen := &fakeGenerator{generate: func(question, categoryID string) (*models.GeneratedContent, error) {
		return echoContent("Does honey help a sore throat?"), nil
	}}

	result, err := newTestService(ideas, questions, gen).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Duplicates != 1 || result.Successful != 0 || result.Failed != 0 {
		t.Errorf("expected duplicates=1 successful=0 failed=0, got %d/%d/%d", result.Duplicates, result.Successful, result.Failed)
	}
	if ideas.terminal[idea.ID.Hex()] != models.IdeaStatusDuplicate {
		t.Errorf("idea finished as %q, want duplicate", ideas.terminal[idea.ID.Hex()])
	}
	if result.Results[0].QuestionID != existing.ID.Hex() {
		t.Errorf("duplicate result should reference colliding question %s, got %q", existing.ID.Hex(), result.Results[0].QuestionID)
	}
	if len(questions.inserted) != 0 {
		t.Error("duplicate idea must not insert a question")
	}
}

func TestRunSlugCollisionMarksDuplicate(t *testing.T) {
	idea := newIdea("Does idea one work?", "sleep")
	ideas := newFakeIdeaStore(idea)
	questions := newFakeQuestionStore()
	questions.slugs["does-idea-one-work"] = true

	result, err := newTestService(ideas, questions, &fakeGenerator{}).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Duplicates != 1 {
		t.Errorf("expected duplicates=1, got %d", result.Duplicates)
	}
	if ideas.terminal[idea.ID.Hex()] != models.IdeaStatusDuplicate {
		t.Errorf("idea finished as %q, want duplicate", ideas.terminal[idea.ID.Hex()])
	}
}

func TestRunInsertFailureMarksError(t *testing.T) {
	idea := newIdea("Does idea one work?", "sleep")
	ideas := newFakeIdeaStore(idea)
	questions := newFakeQuestionStore()
	questions.insertErr = fmt.Errorf("write concern failed")

	result, err := newTestService(ideas, questions, &fakeGenerator{}).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Failed != 1 {
		t.Errorf("expected failed=1, got %d", result.Failed)
	}
	if ideas.terminal[idea.ID.Hex()] != models.IdeaStatusError {
		t.Errorf("idea finished as %q, want error", ideas.terminal[idea.ID.Hex()])
	}
}

func TestRunSelectionLimitedToRemainingQuota(t *testing.T) {
	var pool []models.Idea
	for i := 0; i < 10; i++ {
		pool = append(pool, newIdea(fmt.Sprintf("Does idea %d work?", i), "science"))
	}
	ideas := newFakeIdeaStore(pool...)
	questions := newFakeQuestionStore()
	questions.publishedToday = 3 // remaining = 2
	gen := &fakeGenerator{}

	result, err := newTestService(ideas, questions, gen).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Successful != 2 {
		t.Errorf("expected 2 publishes, got %d", result.Successful)
	}
	if len(gen.calls) != 2 {
		t.Errorf("expected generator called twice, got %d", len(gen.calls))
	}
	// batch is sized to the remaining quota before processing starts
	if len(ideas.processing) != 2 {
		t.Errorf("expected 2 ideas marked processing, got %d", len(ideas.processing))
	}
}

func TestRunEveryProcessedIdeaReachesTerminalState(t *testing.T) {
	var pool []models.Idea
	for i := 0; i < 5; i++ {
		pool = append(pool, newIdea(fmt.Sprintf("Does idea %d work?", i), "science"))
	}
	ideas := newFakeIdeaStore(pool...)
	questions := newFakeQuestionStore()
	questions.slugs["does-idea-2-work"] = true // one duplicate among successes

	gen := &fakeGenerator{generate: func(question, categoryID string) (*models.GeneratedContent, error) {
		if strings.Contains(question, "idea 3") {
			return nil, fmt.Errorf("boom")
		}
		return echoContent(question), nil
	}}

	result, err := newTestService(ideas, questions, gen).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// Duplicates and errors do not consume quota, so every selected idea
	// is attempted and none is left in "processing".
	if len(ideas.terminal) != len(ideas.processing) {
		t.Errorf("%d ideas marked processing but %d reached a terminal state", len(ideas.processing), len(ideas.terminal))
	}
	if result.Attempted != 5 {
		t.Errorf("expected 5 attempts, got %d", result.Attempted)
	}
	if result.Successful != 3 || result.Failed != 1 || result.Duplicates != 1 {
		t.Errorf("expected 3/1/1, got successful=%d failed=%d duplicates=%d", result.Successful, result.Failed, result.Duplicates)
	}
}

func TestRunDryRunHasNoSideEffects(t *testing.T) {
	ideas := newFakeIdeaStore(newIdea("Does it work?", "sleep"))
	questions := newFakeQuestionStore()
	gen := &fakeGenerator{}

	result, err := newTestService(ideas, questions, gen).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50, DryRun: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Attempted != 1 {
		t.Errorf("dry run should report the would-be batch, got attempted=%d", result.Attempted)
	}
	if len(ideas.processing) != 0 || len(gen.calls) != 0 || len(questions.inserted) != 0 {
		t.Error("dry run must not mark, generate or insert")
	}
}

func TestRunRelatedQuestionsBlockAppended(t *testing.T) {
	idea := newIdea("Does idea one work?", "science")
	ideas := newFakeIdeaStore(idea)
	questions := newFakeQuestionStore()
	questions.related = []models.Question{
		{Question: "Related A?", Slug: "related-a"},
		{Question: "Related B?", Slug: "related-b"},
		{Question: "Related C?", Slug: "related-c"},
	}

	_, err := newTestService(ideas, questions, &fakeGenerator{}).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	body := questions.inserted[0].BodyMarkdown
	if !strings.Contains(body, "## Related Questions") {
		t.Error("expected Related Questions block in generated body")
	}
	if !strings.Contains(body, "[Related A?](/questions/related-a)") {
		t.Error("expected related link in generated body")
	}
}

func TestRunSparseCategorySkipsRelatedBlock(t *testing.T) {
	idea := newIdea("Does idea one work?", "science")
	ideas := newFakeIdeaStore(idea)
	questions := newFakeQuestionStore()
	questions.related = []models.Question{{Question: "Only one", Slug: "only-one"}}

	_, err := newTestService(ideas, questions, &fakeGenerator{}).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if strings.Contains(questions.inserted[0].BodyMarkdown, "Related Questions") {
		t.Error("sparse category must not get a Related Questions block")
	}
}

func TestRunCountErrorPropagates(t *testing.T) {
	questions := newFakeQuestionStore()
	questions.countErr = fmt.Errorf("connection reset")

	_, err := newTestService(newFakeIdeaStore(), questions, &fakeGenerator{}).Run(context.Background(), GenerationOptions{})
	if err == nil {
		t.Fatal("expected run-level error to propagate")
	}
}

func TestRunMarkGeneratedFailureStillCountsSuccess(t *testing.T) {
	idea := newIdea("Does idea one work?", "sleep")
	ideas := newFakeIdeaStore(idea)
	ideas.markGeneratedErr = fmt.Errorf("update failed")
	questions := newFakeQuestionStore()

	result, err := newTestService(ideas, questions, &fakeGenerator{}).Run(context.Background(), GenerationOptions{BatchSize: 5, PoolSize: 50})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Successful != 1 {
		t.Errorf("published article must count even if the idea link write fails, got successful=%d", result.Successful)
	}
	if len(questions.inserted) != 1 {
		t.Errorf("expected 1 inserted question, got %d", len(questions.inserted))
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"already a list", []string{"honey", "cold"}, []string{"honey", "cold"}},
		{"legacy comma string", []string{"honey, cold , throat"}, []string{"honey", "cold", "throat"}},
		{"mixed", []string{"honey,cold", " throat "}, []string{"honey", "cold", "throat"}},
		{"empties dropped", []string{"", " , ", "honey"}, []string{"honey"}},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("NormalizeTags(%v) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("NormalizeTags(%v)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}
