package grammar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yegors/atc-semframe/pkg/logger"
	"go.uber.org/zap"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func loadDefault(t *testing.T) *Grammar {
	t.Helper()
	g, err := Load(Config{}, testLogger())
	require.NoError(t, err)
	return g
}

func TestComplexity(t *testing.T) {
	tests := []struct {
		expr string
		want int
	}{
		{`\bdirect\b`, 3},
		{`\b\d+\b`, 4},
		{`\bfly\s+(heading)\b`, 4},
		{`\bdirect\s+([a-z]{3}|[a-z]{5})\b`, 4},
		{`\b\d+\.\d+\b`, 6},
		{`\b(?:advise|report)\b`, 3},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, complexity(tt.expr), "complexity(%q)", tt.expr)
	}
}

func TestParsePatterns(t *testing.T) {
	src := `# a comment with spaces is ignored
#HEADING
r"\bheading\b"

#STATUS
\bable\b
`
	ps, err := ParsePatterns(strings.NewReader(src), "test")
	require.NoError(t, err)
	require.Len(t, ps, 2)
	require.Equal(t, "HEADING", ps[0].Category)
	require.Equal(t, `\bheading\b`, ps[0].Expr)
	require.Equal(t, "STATUS", ps[1].Category)
	require.False(t, ps[1].hasGroup)
}

func TestParsePatternsBeforeHeader(t *testing.T) {
	_, err := ParsePatterns(strings.NewReader(`\bheading\b`), "test")
	require.Error(t, err)
}

func TestParseRules(t *testing.T) {
	src := `#WHEN
WHEN/STATUS {\x._WHEN_(_WHEN_(when1), x)}
- WHEN/INTNUMBER {\x._WHEN_(_WHEN_(when1), x)}
`
	rs, err := ParseRules(strings.NewReader(src), "test")
	require.NoError(t, err)
	require.Len(t, rs, 1, "disabled rule should be skipped")
	require.Equal(t, "WHEN", rs[0].Category)
	require.Equal(t, "WHEN/STATUS", rs[0].Cat.String())
	require.Equal(t, []string{"STATUS"}, rs[0].argCategories())
	require.Equal(t, "WHEN", rs[0].resultCategory())
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	g := loadDefault(t)

	stats := g.Stats()
	require.Greater(t, stats.Patterns, 30)
	require.Greater(t, stats.Rules, 20)
	require.Empty(t, g.Files())

	require.Equal(t, 9, g.Budget("INTNUMBER"))
	require.Equal(t, 30, g.Budget("WORDNUMBER"))
	require.Equal(t, 5, g.Budget("FIX"))

	// Derived categories come from rule results, not patterns.
	require.Contains(t, g.Categories(), "TIME")
	require.Contains(t, g.Categories(), "AND")
}

func TestExtractPlaceholders(t *testing.T) {
	g := loadDefault(t)

	in := "Emirates 215 fly heading 330 vectors around weather advise when able direct DAG"
	out, repl := g.ExtractPlaceholders(in)
	require.Equal(t,
		"aircraft1 intnumber1 fly heading1 intnumber2 radar1 around1 weather1 report1 when1 status1 direction1 fix1",
		out)

	require.Equal(t, "Emirates", repl["aircraft1"])
	require.Equal(t, "215", repl["intnumber1"])
	require.Equal(t, "heading", repl["heading1"])
	require.Equal(t, "330", repl["intnumber2"])
	require.Equal(t, "vectors", repl["radar1"])
	require.Equal(t, "able", repl["status1"])
	require.Equal(t, "direct", repl["direction1"])
	require.Equal(t, "DAG", repl["fix1"])
}

func TestExtractGroupLeavesRemainder(t *testing.T) {
	g := loadDefault(t)

	// Only the captured group is replaced; "fly" stays in the text.
	out, repl := g.ExtractPlaceholders("fly heading 330")
	require.Equal(t, "fly heading1 intnumber1", out)
	require.Equal(t, "heading", repl["heading1"])
}

func TestExtractPhrasePatternWinsOverWords(t *testing.T) {
	g := loadDefault(t)

	out, repl := g.ExtractPlaceholders("climb and maintain 5000")
	require.Equal(t, "altitudechange1 intnumber1", out)
	require.Equal(t, "climb and maintain", repl["altitudechange1"])
}

func TestReplaceUnknown(t *testing.T) {
	g := loadDefault(t)
	lex, err := g.BuildLexicon(nil)
	require.NoError(t, err)

	out, repl := g.ReplaceUnknown("aircraft1 intnumber1 fly heading1", lex)
	require.Equal(t, "aircraft1 intnumber1 X1 heading1", out)
	require.Equal(t, "fly", repl["X1"])

	// Consecutive unknown words share one placeholder.
	out, repl = g.ReplaceUnknown("report1 good day intnumber1", lex)
	require.Equal(t, "report1 X1 intnumber1", out)
	require.Equal(t, "good day", repl["X1"])
}

func TestBuildLexicon(t *testing.T) {
	g := loadDefault(t)

	lex, err := g.BuildLexicon(nil)
	require.NoError(t, err)

	// aircraft1 has the atomic entry plus two callsign rules.
	require.Len(t, lex.Lookup("aircraft1"), 3)
	require.NotEmpty(t, lex.Lookup("_context_"))
	require.Len(t, lex.Lookup("X1"), 1)
	require.True(t, lex.Has("to"), "prepositions get entries")
	require.True(t, lex.Has("and"))

	// Placeholders beyond the category budget have no entries.
	require.False(t, lex.Has("fix6"))
	require.True(t, lex.Has("intnumber9"))
}

func TestBuildLexiconFiltered(t *testing.T) {
	g := loadDefault(t)

	lex, err := g.BuildLexicon(RefineFilter)
	require.NoError(t, err)

	// Callsign rules bind INTNUMBER/WORDNUMBER, outside the filter.
	require.Len(t, lex.Lookup("aircraft1"), 1)
	// WHEN/STATUS stays active: STATUS is a binding category.
	require.Len(t, lex.Lookup("when1"), 2)
}
