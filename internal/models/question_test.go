package models

import "testing"

func TestIsValidQuestionStatus(t *testing.T) {
	for _, status := range []string{
		QuestionStatusDraft,
		QuestionStatusApproved,
		QuestionStatusScheduled,
		QuestionStatusPublished,
	} {
		if !IsValidQuestionStatus(status) {
			t.Errorf("IsValidQuestionStatus(%q) = false, want true", status)
		}
	}

	for _, status := range []string{"", "live", "Published", "archived", "pending"} {
		if IsValidQuestionStatus(status) {
			t.Errorf("IsValidQuestionStatus(%q) = true, want false", status)
		}
	}
}

func TestIsValidVerdict(t *testing.T) {
	for _, v := range []string{VerdictWorks, VerdictDoesntWork, VerdictMixed} {
		if !IsValidVerdict(v) {
			t.Errorf("IsValidVerdict(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "maybe", "Works"} {
		if IsValidVerdict(v) {
			t.Errorf("IsValidVerdict(%q) = true, want false", v)
		}
	}
}
