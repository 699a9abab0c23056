// Package grammar loads the category pattern and lexicon rule files that
// drive the semantic parser, and generates the CCG lexicons from them.
package grammar

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Pattern maps words or phrases in a transmission to a semantic category.
// Patterns are matched case-insensitively. If the expression contains a
// capturing group, only the group is extracted; the rest of the match is
// left in place for other patterns to claim.
type Pattern struct {
	Category   string
	Expr       string
	Complexity int
	re         *regexp.Regexp
	hasGroup   bool
}

// nonCaptureRe strips (?...) constructs before complexity is measured.
var nonCaptureRe = regexp.MustCompile(`\(\?[^)]*\)`)

// complexity measures how specific a pattern is: the number of
// backslash-separated atoms, ignoring (?...) groups. Extraction is greedy
// by descending complexity so longer phrase patterns win over single words.
func complexity(expr string) int {
	clean := nonCaptureRe.ReplaceAllString(expr, "")
	return len(strings.Split(clean, `\`))
}

// ParsePatterns reads a pattern file: "#CATEGORY" headers followed by one
// regular expression per line. Lines may carry the r"..." quoting used in
// hand-maintained files; blank lines are ignored.
func ParsePatterns(r io.Reader, source string) ([]*Pattern, error) {
	var patterns []*Pattern
	category := ""

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			name := strings.ToUpper(strings.Trim(line, "# \t"))
			// A header with spaces is a comment, not a category.
			if name != "" && !strings.ContainsAny(name, " \t") {
				category = name
			}
			continue
		}
		if category == "" {
			return nil, fmt.Errorf("%s:%d: pattern before first #CATEGORY header", source, lineNo)
		}
		expr := strings.TrimSpace(line)
		expr = strings.TrimPrefix(expr, `r"`)
		expr = strings.TrimSuffix(expr, `"`)
		if expr == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad pattern for %s: %w", source, lineNo, category, err)
		}
		patterns = append(patterns, &Pattern{
			Category:   category,
			Expr:       expr,
			Complexity: complexity(expr),
			re:         re,
			hasGroup:   re.NumSubexp() > 0,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return patterns, nil
}
