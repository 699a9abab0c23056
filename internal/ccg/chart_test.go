package ccg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLexicon(t *testing.T) *Lexicon {
	t.Helper()
	lex := NewLexicon()
	add := func(token, cat, sem string) {
		t.Helper()
		require.NoError(t, lex.AddString(token, cat, sem))
	}

	add("aircraft1", "AIRCRAFT", "_AIRCRAFT_(aircraft1)")
	add("aircraft1", "CALLSIGN/INTNUMBER", `\x._CALLSIGN_(_AIRCRAFT_(aircraft1), x)`)
	add("intnumber1", "INTNUMBER", "_INTNUMBER_(intnumber1)")
	add("intnumber2", "INTNUMBER", "_INTNUMBER_(intnumber2)")
	add("report1", "REPORT", "_REPORT_(report1)")
	add("report1", "REPORT/WHEN", `\x._REPORT_(_REPORT_(report1), x)`)
	add("when1", "WHEN", "_WHEN_(when1)")
	add("when1", "WHEN/STATUS", `\x._WHEN_(_WHEN_(when1), x)`)
	add("status1", "STATUS", "_STATUS_(status1)")
	add("cleared1", "CLEARED", "_CLEARED_(cleared1)")
	add("cleared1", "(CLEARED/PLACE)/TO", `\x y._CLEARED_(_CLEARED_(cleared1), x, y)`)
	add("to1", "TO", "_TO_(to1)")
	add("place1", "PLACE", "_PLACE_(place1)")
	return lex
}

func TestParseForwardApplication(t *testing.T) {
	parser := NewParser(testLexicon(t))

	derivs, err := parser.Parse([]string{"aircraft1", "intnumber1"})
	require.NoError(t, err)
	require.NotEmpty(t, derivs)
	require.Equal(t, "CALLSIGN", derivs[0].Cat.String())
	require.Equal(t, "_CALLSIGN_(_AIRCRAFT_(aircraft1),_INTNUMBER_(intnumber1))", derivs[0].Sem.String())
}

func TestParseComposition(t *testing.T) {
	parser := NewParser(testLexicon(t))

	// REPORT/WHEN composes with WHEN/STATUS, then applies to STATUS.
	derivs, err := parser.Parse([]string{"report1", "when1", "status1"})
	require.NoError(t, err)
	require.NotEmpty(t, derivs)
	require.Equal(t, "REPORT", derivs[0].Cat.String())
	require.Equal(t, "_REPORT_(_REPORT_(report1),_WHEN_(_WHEN_(when1),_STATUS_(status1)))", derivs[0].Sem.String())
}

func TestParseTwoArguments(t *testing.T) {
	parser := NewParser(testLexicon(t))

	derivs, err := parser.Parse([]string{"cleared1", "to1", "place1"})
	require.NoError(t, err)
	require.NotEmpty(t, derivs)
	require.Equal(t, "CLEARED", derivs[0].Cat.String())
	require.Equal(t, "_CLEARED_(_CLEARED_(cleared1),_TO_(to1),_PLACE_(place1))", derivs[0].Sem.String())
}

func TestParseSingleToken(t *testing.T) {
	parser := NewParser(testLexicon(t))

	derivs, err := parser.Parse([]string{"status1"})
	require.NoError(t, err)
	require.Len(t, derivs, 1)
	require.Equal(t, "STATUS", derivs[0].Cat.String())
}

func TestParseAtomicRootSortsFirst(t *testing.T) {
	parser := NewParser(testLexicon(t))

	// "report1" alone has both an atomic and a functional entry.
	derivs, err := parser.Parse([]string{"report1"})
	require.NoError(t, err)
	require.Len(t, derivs, 2)
	require.True(t, IsAtom(derivs[0].Cat), "atomic derivation should sort first, got %s", derivs[0].Cat)
}

func TestParseNoSpanningDerivation(t *testing.T) {
	parser := NewParser(testLexicon(t))

	// Two unconnected constituents: nothing spans the whole input.
	derivs, err := parser.Parse([]string{"status1", "place1"})
	require.NoError(t, err)
	require.Empty(t, derivs)
}

func TestParseUnknownToken(t *testing.T) {
	parser := NewParser(testLexicon(t))

	_, err := parser.Parse([]string{"bogus"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownToken))
}

func TestEdgeCapKeepsAtomicAnalyses(t *testing.T) {
	lex := NewLexicon()
	require.NoError(t, lex.AddString("w", "A/B", `\x._A_(x)`))
	require.NoError(t, lex.AddString("w", "A/C", `\x._A_(x)`))
	require.NoError(t, lex.AddString("w", "W", "_W_(w1)"))
	parser := NewParser(lex)
	parser.maxEdges = 2

	// The atomic entry arrives after the cell is already full of
	// functional edges; it must evict one rather than be dropped.
	derivs, err := parser.Parse([]string{"w"})
	require.NoError(t, err)
	require.NotEmpty(t, derivs)
	require.True(t, IsAtom(derivs[0].Cat))
	require.Equal(t, "W", derivs[0].Cat.String())
}

func TestBackwardApplication(t *testing.T) {
	lex := NewLexicon()
	require.NoError(t, lex.AddString("np1", "NP", "_NP_(np1)"))
	require.NoError(t, lex.AddString("vp1", `S\NP`, `\x._VP_(vp1, x)`))
	parser := NewParser(lex)

	derivs, err := parser.Parse([]string{"np1", "vp1"})
	require.NoError(t, err)
	require.NotEmpty(t, derivs)
	require.Equal(t, "S", derivs[0].Cat.String())
	require.Equal(t, "_VP_(vp1,_NP_(np1))", derivs[0].Sem.String())
}
