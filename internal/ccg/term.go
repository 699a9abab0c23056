package ccg

import (
	"fmt"
	"strings"
)

// Term is a semantic term attached to a lexicon entry or derivation.
// Terms are immutable; transformations return new terms and share subterms.
type Term interface {
	String() string
}

// Var is a lambda-bound variable.
type Var struct {
	Name string
}

func (v *Var) String() string { return v.Name }

// Const is an uninterpreted constant, typically a placeholder token such
// as "callsign1" that is later substituted with the matched text.
type Const struct {
	Name string
}

func (c *Const) String() string { return c.Name }

// Lit is a literal fragment of the input transmission, rendered *like this*.
type Lit struct {
	Text string
}

func (l *Lit) String() string { return "*" + l.Text + "*" }

// App is the application of a named semantic function to arguments,
// e.g. _CALLSIGN_(_AIRCRAFT_(*Emirates*),_INTNUMBER_(*215*)).
type App struct {
	Fn   string
	Args []Term
}

func (a *App) String() string {
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = arg.String()
	}
	return a.Fn + "(" + strings.Join(parts, ",") + ")"
}

// Abs is a lambda abstraction \x y.body.
type Abs struct {
	Params []string
	Body   Term
}

func (a *Abs) String() string {
	return `\` + strings.Join(a.Params, " ") + "." + a.Body.String()
}

// Apply beta-reduces fn applied to arg. Applying a multi-parameter
// abstraction consumes one parameter and returns the partial abstraction.
func Apply(fn, arg Term) Term {
	switch f := fn.(type) {
	case *Abs:
		body := substVar(f.Body, f.Params[0], arg)
		if len(f.Params) > 1 {
			return &Abs{Params: f.Params[1:], Body: body}
		}
		return body
	case *Const:
		return &App{Fn: f.Name, Args: []Term{arg}}
	case *App:
		args := make([]Term, 0, len(f.Args)+1)
		args = append(args, f.Args...)
		args = append(args, arg)
		return &App{Fn: f.Fn, Args: args}
	default:
		return fn
	}
}

// Compose builds the function composition \z.f(g(z)), reducing eagerly.
func Compose(f, g Term) Term {
	v := freshVar(f, g)
	return &Abs{Params: []string{v}, Body: Apply(f, Apply(g, &Var{Name: v}))}
}

// substVar replaces free occurrences of name with val.
func substVar(t Term, name string, val Term) Term {
	switch tt := t.(type) {
	case *Var:
		if tt.Name == name {
			return val
		}
		return tt
	case *Abs:
		for _, p := range tt.Params {
			if p == name { // shadowed
				return tt
			}
		}
		return &Abs{Params: tt.Params, Body: substVar(tt.Body, name, val)}
	case *App:
		args := make([]Term, len(tt.Args))
		changed := false
		for i, a := range tt.Args {
			args[i] = substVar(a, name, val)
			if args[i] != a {
				changed = true
			}
		}
		if !changed {
			return tt
		}
		return &App{Fn: tt.Fn, Args: args}
	default:
		return t
	}
}

// freshVar returns a variable name unused in either term.
func freshVar(terms ...Term) string {
	used := map[string]bool{}
	for _, t := range terms {
		collectVars(t, used)
	}
	for i := 0; ; i++ {
		name := fmt.Sprintf("z%d", i)
		if !used[name] {
			return name
		}
	}
}

func collectVars(t Term, used map[string]bool) {
	switch tt := t.(type) {
	case *Var:
		used[tt.Name] = true
	case *Abs:
		for _, p := range tt.Params {
			used[p] = true
		}
		collectVars(tt.Body, used)
	case *App:
		for _, a := range tt.Args {
			collectVars(a, used)
		}
	}
}

// Substitute rewrites every constant for which lookup returns a
// replacement. It is used to map placeholders back to matched text, and
// in refinement passes to splice previously parsed terms back in.
func Substitute(t Term, lookup func(name string) (Term, bool)) Term {
	switch tt := t.(type) {
	case *Const:
		if repl, ok := lookup(tt.Name); ok {
			return repl
		}
		return tt
	case *Abs:
		return &Abs{Params: tt.Params, Body: Substitute(tt.Body, lookup)}
	case *App:
		args := make([]Term, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = Substitute(a, lookup)
		}
		return &App{Fn: tt.Fn, Args: args}
	default:
		return t
	}
}

// ParseTerm parses a semantic template such as
// "\x y._CALLSIGN_(_CALLSIGN_(callsign1), x,y)" or "_WEATHER_(weather1)".
// Identifiers bound by a leading lambda become variables; everything else
// is a constant or a named function application.
func ParseTerm(s string) (Term, error) {
	p := &termParser{input: s, bound: map[string]bool{}}
	t, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("unexpected %q at offset %d in term %q", p.input[p.pos], p.pos, s)
	}
	return t, nil
}

type termParser struct {
	input string
	pos   int
	bound map[string]bool
}

func (p *termParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *termParser) parseTerm() (Term, error) {
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '\\' {
		p.pos++
		var params []string
		for {
			p.skipSpace()
			name := p.ident()
			if name == "" {
				break
			}
			params = append(params, name)
			p.bound[name] = true
		}
		if len(params) == 0 {
			return nil, fmt.Errorf("lambda without parameters in term %q", p.input)
		}
		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != '.' {
			return nil, fmt.Errorf("expected '.' after lambda parameters in term %q", p.input)
		}
		p.pos++
		body, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &Abs{Params: params, Body: body}, nil
	}
	return p.parseAtomic()
}

func (p *termParser) parseAtomic() (Term, error) {
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("expected identifier at offset %d in term %q", p.pos, p.input)
	}
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '(' {
		p.pos++
		var args []Term
		for {
			arg, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			p.skipSpace()
			if p.pos < len(p.input) && p.input[p.pos] == ',' {
				p.pos++
				continue
			}
			break
		}
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return nil, fmt.Errorf("unbalanced parenthesis in term %q", p.input)
		}
		p.pos++
		return &App{Fn: name, Args: args}, nil
	}
	if p.bound[name] {
		return &Var{Name: name}, nil
	}
	return &Const{Name: name}, nil
}

func (p *termParser) ident() string {
	start := p.pos
	for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func isIdentChar(c byte) bool {
	return isAtomChar(c) || c == '\'' || c == '-'
}
