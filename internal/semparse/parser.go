// Package semparse turns normalized ATC transmissions into logical forms
// and semantic frames. Parsing runs in two stages: a first pass over
// category placeholders produces top-level constituents, and refinement
// passes re-parse those constituents with a restricted lexicon so
// connectives can attach one constituent to another.
package semparse

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yegors/atc-semframe/internal/ccg"
	"github.com/yegors/atc-semframe/internal/frame"
	"github.com/yegors/atc-semframe/internal/grammar"
	"github.com/yegors/atc-semframe/pkg/logger"
)

// ErrEmpty is returned when the transmission is blank after normalization.
var ErrEmpty = errors.New("semparse: empty transmission")

// Config tunes the parsing pipeline. Zero values take the defaults.
type Config struct {
	// MaxSegmentTokens caps the window for the longest-prefix segment
	// search when the whole token stream has no spanning derivation.
	MaxSegmentTokens int
	// MaxExpansions is how many context glue tokens may be prepended to a
	// segment to lift a stranded constituent into a sentence.
	MaxExpansions int
	// RefinePasses is how many times the top-level constituents are
	// re-parsed with the restricted lexicon.
	RefinePasses int
}

func (c *Config) applyDefaults() {
	if c.MaxSegmentTokens <= 0 {
		c.MaxSegmentTokens = 7
	}
	if c.MaxExpansions < 0 {
		c.MaxExpansions = 0
	} else if c.MaxExpansions == 0 {
		c.MaxExpansions = 1
	}
	if c.RefinePasses <= 0 {
		c.RefinePasses = 2
	}
}

// Result is the full output of one parse.
type Result struct {
	Input        string            `json:"input"`
	Normalized   string            `json:"normalized"`
	Placeholders string            `json:"placeholders"`
	Replacements map[string]string `json:"replacements,omitempty"`
	LogicalForm  string            `json:"logical_form"`
	Frame        *frame.Frame      `json:"frame"`
	Segments     int               `json:"segments"`
	Duration     time.Duration     `json:"-"`
}

// Callsign returns the text of the CALLSIGN grouping, or "" when the
// transmission has none.
func (r *Result) Callsign() string {
	if r.Frame == nil {
		return ""
	}
	for _, c := range r.Frame.Children {
		if c.Label == "CALLSIGN" {
			return strings.Join(leafTexts(c), " ")
		}
	}
	return ""
}

func leafTexts(f *frame.Frame) []string {
	if f.IsLeaf() {
		if f.Text == "" {
			return nil
		}
		return []string{f.Text}
	}
	var out []string
	for _, c := range f.Children {
		out = append(out, leafTexts(c)...)
	}
	return out
}

// Parser is safe for concurrent use. SwapGrammar replaces the grammar and
// both lexicons atomically, so in-flight parses finish on the old grammar.
type Parser struct {
	mu     sync.RWMutex
	g      *grammar.Grammar
	lex1   *ccg.Lexicon
	lex2   *ccg.Lexicon
	pass1  *ccg.Parser
	pass2  *ccg.Parser
	cfg    Config
	logger *logger.Logger
}

// New builds a parser over the grammar, generating the full first-pass
// lexicon and the filtered refinement lexicon.
func New(g *grammar.Grammar, cfg Config, log *logger.Logger) (*Parser, error) {
	cfg.applyDefaults()
	p := &Parser{cfg: cfg, logger: log.Named("semparse")}
	if err := p.SwapGrammar(g); err != nil {
		return nil, err
	}
	return p, nil
}

// SwapGrammar rebuilds both lexicons from g and installs them.
func (p *Parser) SwapGrammar(g *grammar.Grammar) error {
	lex1, err := g.BuildLexicon(nil)
	if err != nil {
		return err
	}
	lex2, err := g.BuildLexicon(grammar.RefineFilter)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.g = g
	p.lex1 = lex1
	p.lex2 = lex2
	p.pass1 = ccg.NewParser(lex1)
	p.pass2 = ccg.NewParser(lex2)
	p.logger.Info("Lexicons built",
		logger.Int("first_pass", lex1.Size()),
		logger.Int("refinement", lex2.Size()))
	return nil
}

// Grammar returns the currently installed grammar.
func (p *Parser) Grammar() *grammar.Grammar {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.g
}

// Parse runs the full pipeline on one transmission.
func (p *Parser) Parse(ctx context.Context, text string) (*Result, error) {
	start := time.Now()

	p.mu.RLock()
	g, pass1, pass2, lex1, lex2 := p.g, p.pass1, p.pass2, p.lex1, p.lex2
	p.mu.RUnlock()

	norm := Normalize(text)
	if norm == "" {
		return nil, ErrEmpty
	}

	placeholders, repl := g.ExtractPlaceholders(norm)
	stream, unknown := g.ReplaceUnknown(placeholders, lex1)
	for k, v := range unknown {
		repl[k] = v
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := strings.Fields(stream)
	items := p.parseAll(pass1, tokens)
	segments := len(items)

	// Resolve placeholders to the matched text.
	for i, item := range items {
		items[i] = ccg.Substitute(item, func(name string) (ccg.Term, bool) {
			if text, ok := repl[name]; ok {
				return &ccg.Lit{Text: text}, true
			}
			return nil, false
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for pass := 0; pass < p.cfg.RefinePasses; pass++ {
		items = p.refine(g, pass2, lex2, items)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	items = flattenContext(items)
	for i, item := range items {
		items[i] = collapseDuplicates(item)
	}

	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}

	res := &Result{
		Input:        text,
		Normalized:   norm,
		Placeholders: stream,
		Replacements: repl,
		LogicalForm:  strings.Join(parts, " ; "),
		Frame:        frame.FromTerms(items),
		Segments:     segments,
		Duration:     time.Since(start),
	}
	p.logger.Debug("Parsed transmission",
		logger.String("normalized", norm),
		logger.Int("segments", segments),
		logger.Duration("duration", res.Duration))
	return res, nil
}

// parseAll splits the token stream into the fewest parseable segments,
// taking the longest parseable prefix each round. Tokens with no lexicon
// entry at all (placeholders past their category budget) are dropped.
func (p *Parser) parseAll(cp *ccg.Parser, tokens []string) []ccg.Term {
	var items []ccg.Term
	rest := tokens
	for len(rest) > 0 {
		limit := len(rest)
		if limit > p.cfg.MaxSegmentTokens {
			limit = p.cfg.MaxSegmentTokens
		}
		matched := 0
		var sem ccg.Term
		for k := limit; k >= 1; k-- {
			if s, ok := p.parseSegment(cp, rest[:k]); ok {
				matched, sem = k, s
				break
			}
		}
		if matched == 0 {
			p.logger.Debug("Dropping unparseable token", logger.String("token", rest[0]))
			rest = rest[1:]
			continue
		}
		items = append(items, sem)
		rest = rest[matched:]
	}
	return items
}

// parseSegment tries the segment as-is, then with up to MaxExpansions
// context glue tokens prepended. Only derivations with an atomic root
// count: a span that reduces to a partial function is not a constituent.
func (p *Parser) parseSegment(cp *ccg.Parser, tokens []string) (ccg.Term, bool) {
	for n := 0; n <= p.cfg.MaxExpansions; n++ {
		toks := tokens
		if n > 0 {
			toks = make([]string, 0, len(tokens)+n)
			for i := 0; i < n; i++ {
				toks = append(toks, "_context_")
			}
			toks = append(toks, tokens...)
		}
		derivs, err := cp.Parse(toks)
		if err != nil {
			// A token without entries fails regardless of expansion.
			return nil, false
		}
		// Atomic roots sort first.
		if len(derivs) > 0 && ccg.IsAtom(derivs[0].Cat) {
			return derivs[0].Sem, true
		}
	}
	return nil, false
}

// refine re-parses the top-level constituents with the restricted lexicon.
// Each constituent becomes a fresh placeholder token; after parsing, the
// original terms are spliced back in place of the placeholders. A
// constituent past the placeholder budget keeps its position in the item
// list, splitting the token stream around it so frame order follows
// utterance order.
func (p *Parser) refine(g *grammar.Grammar, cp *ccg.Parser, lex *ccg.Lexicon, items []ccg.Term) []ccg.Term {
	if len(items) < 2 {
		return items
	}

	counts := map[string]int{}
	xcount := 0
	saved := map[string]ccg.Term{}
	var out []ccg.Term
	var tokens []string

	flush := func() {
		for _, t := range p.parseAll(cp, tokens) {
			out = append(out, spliceSaved(t, saved))
		}
		tokens = tokens[:0]
	}

	for _, item := range items {
		tok := ""
		if app, ok := item.(*ccg.App); ok {
			label := strings.Trim(app.Fn, "_")
			if label != "" && label == strings.ToUpper(label) {
				cat := strings.ToLower(label)
				counts[cat]++
				tok = cat + strconv.Itoa(counts[cat])
			}
		}
		if tok == "" || !lex.Has(tok) {
			xcount++
			tok = "X" + strconv.Itoa(xcount)
		}
		if !lex.Has(tok) {
			flush()
			out = append(out, item)
			continue
		}
		tokens = append(tokens, tok)
		saved[tok] = item
	}
	flush()
	return out
}

// spliceSaved replaces refinement placeholders with the constituents they
// stand for. Both the bare constant and the _CAT_(catN) atomic wrapping
// are recognized.
func spliceSaved(t ccg.Term, saved map[string]ccg.Term) ccg.Term {
	switch v := t.(type) {
	case *ccg.Const:
		if s, ok := saved[v.Name]; ok {
			return s
		}
		return v
	case *ccg.App:
		if len(v.Args) == 1 {
			if c, ok := v.Args[0].(*ccg.Const); ok {
				if s, ok := saved[c.Name]; ok {
					return s
				}
			}
		}
		args := make([]ccg.Term, len(v.Args))
		for i, a := range v.Args {
			args[i] = spliceSaved(a, saved)
		}
		return &ccg.App{Fn: v.Fn, Args: args}
	default:
		return t
	}
}

// flattenContext splices context glue applications into separate
// top-level items.
func flattenContext(items []ccg.Term) []ccg.Term {
	var out []ccg.Term
	for _, item := range items {
		if app, ok := item.(*ccg.App); ok && app.Fn == "_context_" {
			out = append(out, flattenContext(app.Args)...)
			continue
		}
		out = append(out, item)
	}
	return out
}

// collapseDuplicates removes the doubled heads refinement introduces:
// _X_(_X_(...), ...) where the inner application is itself a full
// grouping rather than a plain head marker is flattened into one level.
func collapseDuplicates(t ccg.Term) ccg.Term {
	app, ok := t.(*ccg.App)
	if !ok {
		return t
	}
	args := make([]ccg.Term, len(app.Args))
	for i, a := range app.Args {
		args[i] = collapseDuplicates(a)
	}
	if len(args) > 0 {
		if inner, ok := args[0].(*ccg.App); ok && inner.Fn == app.Fn && !isHeadMarker(inner) {
			args = append(append([]ccg.Term{}, inner.Args...), args[1:]...)
		}
	}
	if len(args) == 1 {
		if inner, ok := args[0].(*ccg.App); ok && inner.Fn == app.Fn {
			return inner
		}
	}
	return &ccg.App{Fn: app.Fn, Args: args}
}

// isHeadMarker reports whether the application is the _CAT_(leaf) shape
// that names a grouping's own text.
func isHeadMarker(app *ccg.App) bool {
	if len(app.Args) != 1 {
		return false
	}
	switch app.Args[0].(type) {
	case *ccg.Lit, *ccg.Const:
		return true
	}
	return false
}
