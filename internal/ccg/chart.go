package ccg

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownToken is returned when a token has no lexicon entry.
var ErrUnknownToken = errors.New("token not in lexicon")

// Derivation is one complete analysis of a token sequence.
type Derivation struct {
	Cat Category
	Sem Term
}

// Parser is a CKY chart parser over a lexicon, combining edges with the
// forward/backward application and composition rule sets.
type Parser struct {
	lex      *Lexicon
	maxEdges int
}

// defaultMaxEdges bounds the number of distinct edges kept per chart cell.
const defaultMaxEdges = 128

// NewParser creates a chart parser for the given lexicon.
func NewParser(lex *Lexicon) *Parser {
	return &Parser{lex: lex, maxEdges: defaultMaxEdges}
}

// Parse analyzes tokens and returns every derivation spanning the whole
// sequence, regardless of root category. Derivations with an atomic root
// sort first; ties prefer the semantically richer analysis. An empty
// result means the tokens do not combine into a single constituent.
func (p *Parser) Parse(tokens []string) ([]Derivation, error) {
	n := len(tokens)
	if n == 0 {
		return nil, errors.New("no tokens to parse")
	}

	// cells[i][j] holds edges over tokens[i:j].
	cells := make([][]cell, n+1)
	for i := range cells {
		cells[i] = make([]cell, n+1)
	}

	for i, tok := range tokens {
		entries := p.lex.Lookup(tok)
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownToken, tok)
		}
		for _, e := range entries {
			cells[i][i+1].add(Derivation{Cat: e.Cat, Sem: e.Sem}, p.maxEdges)
		}
	}

	for span := 2; span <= n; span++ {
		for i := 0; i+span <= n; i++ {
			j := i + span
			for k := i + 1; k < j; k++ {
				for _, left := range cells[i][k].edges {
					for _, right := range cells[k][j].edges {
						for _, d := range combine(left, right) {
							cells[i][j].add(d, p.maxEdges)
						}
					}
				}
			}
		}
	}

	results := append([]Derivation(nil), cells[0][n].edges...)
	sort.SliceStable(results, func(a, b int) bool {
		ra, rb := results[a], results[b]
		aAtom, bAtom := IsAtom(ra.Cat), IsAtom(rb.Cat)
		if aAtom != bAtom {
			return aAtom
		}
		ca, cb := ra.Cat.String(), rb.Cat.String()
		if ca != cb {
			return ca < cb
		}
		sa, sb := ra.Sem.String(), rb.Sem.String()
		if len(sa) != len(sb) {
			return len(sa) > len(sb)
		}
		return sa < sb
	})
	return results, nil
}

// cell is one chart cell with duplicate suppression.
type cell struct {
	edges []Derivation
	seen  map[string]bool
}

// add inserts an edge, dropping duplicates. At the cap, an atomic-rooted
// edge evicts a functional one so a full cell can never lose the only
// complete analysis to earlier partial ones.
func (c *cell) add(d Derivation, maxEdges int) {
	key := d.Cat.String() + "\x00" + d.Sem.String()
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if c.seen[key] {
		return
	}
	if len(c.edges) >= maxEdges {
		if !IsAtom(d.Cat) {
			return
		}
		for i := len(c.edges) - 1; i >= 0; i-- {
			if !IsAtom(c.edges[i].Cat) {
				old := c.edges[i]
				delete(c.seen, old.Cat.String()+"\x00"+old.Sem.String())
				c.edges[i] = d
				c.seen[key] = true
				return
			}
		}
		return
	}
	c.seen[key] = true
	c.edges = append(c.edges, d)
}

// combine applies the binary combinators to a left/right edge pair.
func combine(left, right Derivation) []Derivation {
	var out []Derivation

	if lf, ok := left.Cat.(*Functor); ok && lf.Dir == Forward {
		// Forward application: X/Y Y => X
		if Equal(lf.Arg, right.Cat) {
			out = append(out, Derivation{Cat: lf.Result, Sem: Apply(left.Sem, right.Sem)})
		}
		// Forward composition: X/Y Y/Z => X/Z
		if rf, ok := right.Cat.(*Functor); ok && rf.Dir == Forward && Equal(lf.Arg, rf.Result) {
			out = append(out, Derivation{
				Cat: &Functor{Result: lf.Result, Dir: Forward, Arg: rf.Arg},
				Sem: Compose(left.Sem, right.Sem),
			})
		}
	}

	if rf, ok := right.Cat.(*Functor); ok && rf.Dir == Backward {
		// Backward application: Y X\Y => X
		if Equal(rf.Arg, left.Cat) {
			out = append(out, Derivation{Cat: rf.Result, Sem: Apply(right.Sem, left.Sem)})
		}
		// Backward composition: Y\Z X\Y => X\Z
		if lf, ok := left.Cat.(*Functor); ok && lf.Dir == Backward && Equal(rf.Arg, lf.Result) {
			out = append(out, Derivation{
				Cat: &Functor{Result: rf.Result, Dir: Backward, Arg: lf.Arg},
				Sem: Compose(right.Sem, left.Sem),
			})
		}
	}

	return out
}
