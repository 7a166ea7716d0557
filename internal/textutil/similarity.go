package textutil

import (
	"regexp"
	"strings"
)

// similarityThreshold is the minimum word-overlap ratio for two question
// texts to be considered the same topic.
const similarityThreshold = 0.8

var (
	punctuation = regexp.MustCompile(`[^\w\s]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// NormalizeQuestion lowers, strips punctuation, collapses whitespace and
// trims a question text for comparison.
func NormalizeQuestion(text string) string {
	s := strings.ToLower(text)
	s = punctuation.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// QuestionsSimilar reports whether two question texts represent the same
// underlying topic. Identical normalized texts always match; otherwise the
// texts are tokenized into words longer than 2 characters and the overlap
// ratio |intersection| / max(|set1|, |set2|) is compared against the
// threshold. Used by the administrative cleanup path only; the live
// pipeline relies on exact normalized-text and slug matching.
func QuestionsSimilar(question1, question2 string) bool {
	normalized1 := NormalizeQuestion(question1)
	normalized2 := NormalizeQuestion(question2)

	if normalized1 == normalized2 {
		return true
	}

	words1 := wordSet(normalized1)
	words2 := wordSet(normalized2)

	if len(words1) == 0 || len(words2) == 0 {
		return false
	}

	overlap := 0
	for word := range words1 {
		if _, ok := words2[word]; ok {
			overlap++
		}
	}

	larger := len(words1)
	if len(words2) > larger {
		larger = len(words2)
	}

	return float64(overlap)/float64(larger) >= similarityThreshold
}

func wordSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(normalized) {
		if len(word) > 2 {
			set[word] = struct{}{}
		}
	}
	return set
}
