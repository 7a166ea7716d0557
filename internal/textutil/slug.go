package textutil

import (
	"regexp"
	"strings"
)

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	slugHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify converts arbitrary question text into a URL-safe identifier:
// lower-case, alphanumerics and single hyphens only, no leading or
// trailing hyphens. Deterministic and idempotent.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
