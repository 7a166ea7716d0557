package models

import "testing"

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"Fitness", "fitness_exercise", true},
		{"Fitness & Exercise", "fitness_exercise", true},
		{"  Mental Health  ", "mental_health", true},
		{"technology", "science", true},
		{"travel", "science", true},
		{"sleep", "sleep", true},
		{"HOME & CLEANING", "home_cleaning", true},
		{"underwater basket weaving", "underwater basket weaving", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeCategory(tt.input)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("NormalizeCategory(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestNormalizeCategoryResolvesToValidIDs(t *testing.T) {
	for raw, id := range categoryAliases {
		if !IsValidCategory(id) {
			t.Errorf("alias %q maps to %q, which is not a valid category", raw, id)
		}
	}
}

func TestFormatCategoryName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"fitness_exercise", "Fitness Exercise"},
		{"sleep", "Sleep"},
		{"cooking_food", "Cooking Food"},
	}

	for _, tt := range tests {
		if got := FormatCategoryName(tt.input); got != tt.expected {
			t.Errorf("FormatCategoryName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestIsValidVerdictValues(t *testing.T) {
	for _, v := range []string{VerdictWorks, VerdictDoesntWork, VerdictMixed} {
		if !IsValidVerdict(v) {
			t.Errorf("expected %q to be a valid verdict", v)
		}
	}
	if IsValidVerdict("maybe") {
		t.Error("expected \"maybe\" to be rejected")
	}
}
