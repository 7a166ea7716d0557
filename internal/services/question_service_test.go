package services

import (
	"testing"

	"doesitwork/internal/models"
)

func TestMergeRelatedLeavesSourceUntouched(t *testing.T) {
	// Backing array with spare capacity, as a cached entry would have
	// after a cursor decode.
	backing := make([]models.Question, 2, 4)
	backing[0] = models.Question{Slug: "a"}
	backing[1] = models.Question{Slug: "b"}
	sameCategory := backing[:2]

	recent := []models.Question{{Slug: "c"}, {Slug: "d"}}
	merged := mergeRelated(sameCategory, recent)

	if len(merged) != 4 {
		t.Fatalf("expected 4 merged questions, got %d", len(merged))
	}
	for i, want := range []string{"a", "b", "c", "d"} {
		if merged[i].Slug != want {
			t.Errorf("merged[%d].Slug = %q, want %q", i, merged[i].Slug, want)
		}
	}

	// The spare capacity of the shared slice must not have been written.
	full := backing[:cap(backing)]
	for i := 2; i < len(full); i++ {
		if full[i].Slug != "" {
			t.Errorf("shared backing array written at index %d: %q", i, full[i].Slug)
		}
	}
}
