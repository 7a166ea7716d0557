package generator

import (
	"strings"
	"testing"

	"doesitwork/internal/models"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain content", "## Heading\n\nBody text.", "## Heading\n\nBody text."},
		{"markdown fence", "```markdown\n## Heading\n\nBody text.\n```", "## Heading\n\nBody text."},
		{"bare fence", "```\n## Heading\n```", "## Heading"},
		{"surrounding whitespace", "  \n## Heading\n  ", "## Heading"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.input); got != tt.expected {
				t.Errorf("stripCodeFence(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBuildEnhancePromptListsSources(t *testing.T) {
	prompt := buildEnhancePrompt(EnhanceOptions{
		Question:     "Does cold exposure speed up recovery?",
		BodyMarkdown: "Some body text.",
		Evidence: []models.Evidence{
			{Title: "PubMed study", URL: "https://pubmed.ncbi.nlm.nih.gov/12345/", Explanation: "RCT"},
		},
		Sources: []string{"https://www.mayoclinic.org/recovery"},
	})

	for _, want := range []string{
		"Does cold exposure speed up recovery?",
		"- PubMed study: https://pubmed.ncbi.nlm.nih.gov/12345/",
		"- https://www.mayoclinic.org/recovery",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildAnswerPromptIncludesContext(t *testing.T) {
	prompt := buildAnswerPrompt("Does honey help a sore throat?", "general_health", []string{"honey", "cold"}, "focus on children")

	for _, want := range []string{
		"Question: Does honey help a sore throat?",
		"Category: general_health",
		"Tags: honey, cold",
		"Editor notes: focus on children",
		"works|doesnt_work|mixed",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildAnswerPromptOmitsEmptyContext(t *testing.T) {
	prompt := buildAnswerPrompt("Does it work?", "science", nil, "")

	if strings.Contains(prompt, "Tags:") {
		t.Error("prompt should omit Tags line when no tags provided")
	}
	if strings.Contains(prompt, "Editor notes:") {
		t.Error("prompt should omit notes line when no notes provided")
	}
}
