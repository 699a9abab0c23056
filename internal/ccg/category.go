// Package ccg implements a small combinatory categorial grammar engine:
// syntactic categories, lambda-calculus semantic terms, a lexicon, and a
// CKY-style chart parser with application and composition rule sets.
package ccg

import (
	"fmt"
	"strings"
)

// Direction is the slash direction of a functional category.
type Direction int

const (
	// Forward is the rightward slash (X/Y consumes Y to its right).
	Forward Direction = iota
	// Backward is the leftward slash (X\Y consumes Y to its left).
	Backward
)

// Category is a syntactic category: either an atom or a directional functor.
type Category interface {
	String() string
}

// Atom is a primitive category such as S, NP or CALLSIGN.
type Atom string

func (a Atom) String() string { return string(a) }

// Functor is a functional category: Result combined with Arg in Dir direction.
type Functor struct {
	Result Category
	Dir    Direction
	Arg    Category
}

func (f *Functor) String() string {
	slash := "/"
	if f.Dir == Backward {
		slash = `\`
	}
	return wrap(f.Result) + slash + wrap(f.Arg)
}

// wrap parenthesizes functional sub-categories so String round-trips.
func wrap(c Category) string {
	if _, ok := c.(*Functor); ok {
		return "(" + c.String() + ")"
	}
	return c.String()
}

// Equal reports whether two categories are structurally identical.
func Equal(a, b Category) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// ParseCategory parses a category expression such as "(CALLSIGN/PLACE)/TO".
// Slashes associate to the left, so A/B/C means (A/B)/C.
func ParseCategory(s string) (Category, error) {
	p := &catParser{input: s}
	cat, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("unexpected %q at offset %d in category %q", p.input[p.pos], p.pos, s)
	}
	return cat, nil
}

type catParser struct {
	input string
	pos   int
}

func (p *catParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *catParser) parseExpr() (Category, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return left, nil
		}
		var dir Direction
		switch p.input[p.pos] {
		case '/':
			dir = Forward
		case '\\':
			dir = Backward
		default:
			return left, nil
		}
		p.pos++
		arg, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &Functor{Result: left, Dir: dir, Arg: arg}
	}
}

func (p *catParser) parsePrimary() (Category, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of category %q", p.input)
	}
	if p.input[p.pos] == '(' {
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return nil, fmt.Errorf("unbalanced parenthesis in category %q", p.input)
		}
		p.pos++
		return inner, nil
	}
	start := p.pos
	for p.pos < len(p.input) && isAtomChar(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, fmt.Errorf("expected category atom at offset %d in %q", p.pos, p.input)
	}
	return Atom(strings.ToUpper(p.input[start:p.pos])), nil
}

func isAtomChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// IsAtom reports whether c is a primitive category.
func IsAtom(c Category) bool {
	_, ok := c.(Atom)
	return ok
}
