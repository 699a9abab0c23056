package grammar

import (
	"strconv"
	"strings"

	"github.com/yegors/atc-semframe/internal/ccg"
)

// maxExtractions bounds the greedy extraction loop against pathological
// inputs; a transmission never comes close to this many category hits.
const maxExtractions = 256

// ExtractPlaceholders rewrites a normalized transmission into a string of
// category placeholders. Matching is greedy by descending pattern
// complexity, restarting from the most complex pattern after every
// replacement. The returned map takes each placeholder back to the matched
// text.
//
//	"Emirates 215 fly heading 330" -> "aircraft1 intnumber1 fly heading1 intnumber2"
func (g *Grammar) ExtractPlaceholders(text string) (string, map[string]string) {
	counts := make(map[string]int)
	repl := make(map[string]string)
	s := text

	for n := 0; n < maxExtractions; n++ {
		matched := false
		for _, p := range g.patterns {
			loc := p.re.FindStringSubmatchIndex(s)
			if loc == nil {
				continue
			}
			start, end := loc[0], loc[1]
			if p.hasGroup && len(loc) >= 4 && loc[2] >= 0 {
				start, end = loc[2], loc[3]
			}
			counts[p.Category]++
			ph := strings.ToLower(p.Category) + strconv.Itoa(counts[p.Category])
			repl[ph] = s[start:end]
			s = s[:start] + ph + s[end:]
			matched = true
			break
		}
		if !matched {
			break
		}
	}
	return s, repl
}

// ReplaceUnknown substitutes maximal runs of tokens outside the lexicon
// with X placeholders (CONTEXT category). Known tokens are lowercased to
// match their lexicon entries; the replacement map preserves original
// casing. Runs beyond the X budget are dropped from the stream.
func (g *Grammar) ReplaceUnknown(s string, lex *ccg.Lexicon) (string, map[string]string) {
	cleaned := strings.NewReplacer(":", "", ";", "", ",", "", ".", "", "+", "").Replace(s)
	repl := make(map[string]string)

	var out []string
	var run []string
	id := 0
	flush := func() {
		if len(run) == 0 {
			return
		}
		id++
		if id <= maxUnknownPlaceholders {
			name := "X" + strconv.Itoa(id)
			repl[name] = strings.Join(run, " ")
			out = append(out, name)
		}
		run = run[:0]
	}

	for _, tok := range strings.Fields(cleaned) {
		lower := strings.ToLower(tok)
		if lex.Has(lower) {
			flush()
			out = append(out, lower)
		} else {
			run = append(run, tok)
		}
	}
	flush()
	return strings.Join(out, " "), repl
}
