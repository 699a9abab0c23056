package semparse

import (
	"regexp"
	"strings"
)

var (
	// Transcript annotations like [unintelligible] or [background noise].
	annotationRe = regexp.MustCompile(`\[[^\]]*\]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)

	punctReplacer = strings.NewReplacer(
		"‘", "'", "’", "'",
		"“", `"`, "”", `"`,
		"–", " ", "—", " ",
		"-", " ", "/", " ",
	)
)

// Normalize prepares a raw transmission transcript for category
// extraction: annotations are stripped, unicode punctuation and separators
// are flattened to spaces, and whitespace is collapsed. Casing is
// preserved so frame leaves stay verbatim fragments of the input.
func Normalize(s string) string {
	s = annotationRe.ReplaceAllString(s, " ")
	s = punctReplacer.Replace(s)
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
