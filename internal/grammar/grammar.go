package grammar

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yegors/atc-semframe/internal/ccg"
	"github.com/yegors/atc-semframe/pkg/logger"
)

//go:embed data/patterns.txt data/rules.txt
var defaultFS embed.FS

// defaultBudgets caps how many placeholders of a category one transmission
// may use. Extractions beyond the budget produce tokens with no lexicon
// entry and are dropped during parsing.
var defaultBudgets = map[string]int{
	"CLOUDS":             6,
	"FEATURE":            8,
	"INTNUMBER":          9,
	"PHONETICALPHABET":   6,
	"REQUESTINSTRUCTION": 8,
	"RUNWAY":             6,
	"SIDE":               9,
	"STATUS":             8,
	"TO":                 6,
	"WORDNUMBER":         30,
}

// Prepositions are glue words kept in the token stream without a category
// of their own; they wrap whatever constituent follows them.
var Prepositions = []string{
	"to", "the", "is", "at", "be", "being", "for", "has", "of", "on",
	"through", "will", "with", "via", "in", "your", "underneath", "this",
	"that", "it", "as", "over", "into", "an", "are", "if", "out", "then",
	"up", "now", "or", "my", "when", "have",
}

// RefineFilter is the set of binding categories whose rules stay active in
// the refinement passes: categories that attach one top-level constituent
// to another (temporal, spatial and conditional connectives).
var RefineFilter = map[string]bool{
	"after": true, "around": true, "as": true, "at": true, "before": true,
	"by": true, "due": true, "if": true, "in": true, "is": true,
	"for": true, "from": true, "with": true, "of": true, "off": true,
	"out": true, "on": true, "then": true, "through": true, "to": true,
	"until": true, "upto": true, "via": true, "when": true, "while": true,
	"will": true, "approach": true, "approved": true, "fix": true,
	"status": true, "time": true, "heading": true, "report": true,
	"confirmation": true, "emergency": true,
}

// maxUnknownPlaceholders is the number of X placeholders available for
// words outside every category (X1..X12 map to the CONTEXT category).
const maxUnknownPlaceholders = 12

// Config selects the grammar files to load. Empty globs fall back to the
// embedded default grammar.
type Config struct {
	PatternGlobs  []string
	RuleGlobs     []string
	DefaultBudget int
}

// Grammar is a loaded set of category patterns and lexicon rules.
type Grammar struct {
	patterns      []*Pattern // sorted by descending complexity, stable
	rules         []*Rule
	budgets       map[string]int
	defaultBudget int
	categories    []string // pattern categories plus derived rule heads
	files         []string // source files, empty when embedded
	logger        *logger.Logger
}

// Load reads the grammar from the configured files, or from the embedded
// defaults when no globs are given.
func Load(cfg Config, log *logger.Logger) (*Grammar, error) {
	g := &Grammar{
		budgets:       defaultBudgets,
		defaultBudget: cfg.DefaultBudget,
		logger:        log.Named("grammar"),
	}
	if g.defaultBudget <= 0 {
		g.defaultBudget = 5
	}

	patternFiles, err := resolveGlobs(cfg.PatternGlobs)
	if err != nil {
		return nil, fmt.Errorf("resolving pattern globs: %w", err)
	}
	ruleFiles, err := resolveGlobs(cfg.RuleGlobs)
	if err != nil {
		return nil, fmt.Errorf("resolving rule globs: %w", err)
	}

	if len(patternFiles) == 0 {
		data, _ := defaultFS.ReadFile("data/patterns.txt")
		g.patterns, err = ParsePatterns(bytes.NewReader(data), "embedded patterns")
	} else {
		g.patterns, err = parsePatternFiles(patternFiles)
		g.files = append(g.files, patternFiles...)
	}
	if err != nil {
		return nil, err
	}

	if len(ruleFiles) == 0 {
		data, _ := defaultFS.ReadFile("data/rules.txt")
		g.rules, err = ParseRules(bytes.NewReader(data), "embedded rules")
	} else {
		g.rules, err = parseRuleFiles(ruleFiles)
		g.files = append(g.files, ruleFiles...)
	}
	if err != nil {
		return nil, err
	}

	// Greedy extraction order: most complex first, file order breaks ties.
	sort.SliceStable(g.patterns, func(i, j int) bool {
		return g.patterns[i].Complexity > g.patterns[j].Complexity
	})

	g.categories = g.collectCategories()

	g.logger.Info("Grammar loaded",
		logger.Int("patterns", len(g.patterns)),
		logger.Int("rules", len(g.rules)),
		logger.Int("categories", len(g.categories)))
	return g, nil
}

func resolveGlobs(globs []string) ([]string, error) {
	var files []string
	seen := map[string]bool{}
	for _, glob := range globs {
		matches, err := doublestar.FilepathGlob(glob)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", glob, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func parsePatternFiles(files []string) ([]*Pattern, error) {
	var patterns []*Pattern
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("opening pattern file: %w", err)
		}
		ps, err := ParsePatterns(f, file)
		f.Close()
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, ps...)
	}
	return patterns, nil
}

func parseRuleFiles(files []string) ([]*Rule, error) {
	var rules []*Rule
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("opening rule file: %w", err)
		}
		rs, err := ParseRules(f, file)
		f.Close()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rs...)
	}
	return rules, nil
}

// collectCategories returns the pattern categories plus every category a
// rule can derive (e.g. TIME from the WORDNUMBER rule), so refinement
// passes have placeholder entries for derived constituents too.
func (g *Grammar) collectCategories() []string {
	seen := map[string]bool{}
	var cats []string
	add := func(cat string) {
		if cat != "" && !seen[cat] {
			seen[cat] = true
			cats = append(cats, cat)
		}
	}
	for _, p := range g.patterns {
		add(p.Category)
	}
	for _, r := range g.rules {
		add(r.Category)
		add(r.resultCategory())
	}
	// Heads produced by the generated conjunction/negation entries.
	add("AND")
	add("NO")
	sort.Strings(cats)
	return cats
}

// Budget returns the placeholder budget for a category.
func (g *Grammar) Budget(category string) int {
	if b, ok := g.budgets[strings.ToUpper(category)]; ok {
		return b
	}
	return g.defaultBudget
}

// Categories returns all known categories in sorted order.
func (g *Grammar) Categories() []string {
	return g.categories
}

// Files returns the source files the grammar was loaded from. The slice is
// empty when the embedded default grammar is in use.
func (g *Grammar) Files() []string {
	return g.files
}

// Stats summarizes the grammar for diagnostics and the API surface.
type Stats struct {
	Patterns   int            `json:"patterns"`
	Rules      int            `json:"rules"`
	Categories map[string]int `json:"categories"` // category -> pattern count
}

// Stats returns pattern and rule counts per category.
func (g *Grammar) Stats() Stats {
	s := Stats{
		Patterns:   len(g.patterns),
		Rules:      len(g.rules),
		Categories: make(map[string]int),
	}
	for _, cat := range g.categories {
		s.Categories[cat] = 0
	}
	for _, p := range g.patterns {
		s.Categories[p.Category]++
	}
	return s
}

// BuildLexicon generates the CCG lexicon: placeholder entries for every
// category, the complex rules (restricted to filter when non-nil),
// preposition wrappers, context glue, conjunction, negation and the X
// placeholders for out-of-category words.
func (g *Grammar) BuildLexicon(filter map[string]bool) (*ccg.Lexicon, error) {
	lex := ccg.NewLexicon()

	// Atomic entries: catN => CAT {_CAT_(catN)}
	for _, cat := range g.categories {
		lower := strings.ToLower(cat)
		for i := 1; i <= g.Budget(cat); i++ {
			ph := lower + strconv.Itoa(i)
			lex.Add(ph, ccg.Atom(cat), &ccg.App{
				Fn:   "_" + cat + "_",
				Args: []ccg.Term{&ccg.Const{Name: ph}},
			})
		}
	}

	// Complex rules, instantiated per placeholder index.
	for _, r := range g.rules {
		if filter != nil && !r.matchesFilter(filter) {
			continue
		}
		lower := strings.ToLower(r.Category)
		first := lower + "1"
		for i := 1; i <= g.Budget(r.Category); i++ {
			ph := lower + strconv.Itoa(i)
			sem := r.Sem
			if ph != first {
				sem = ccg.Substitute(sem, func(name string) (ccg.Term, bool) {
					if name == first {
						return &ccg.Const{Name: ph}, true
					}
					return nil, false
				})
			}
			lex.Add(ph, r.Cat, sem)
		}
	}

	// Prepositions wrap any category and unknown noun phrases.
	for _, prep := range Prepositions {
		sem := &ccg.Abs{
			Params: []string{"x"},
			Body:   &ccg.App{Fn: "_" + prep + "_", Args: []ccg.Term{&ccg.Var{Name: "x"}}},
		}
		for _, cat := range g.categories {
			lex.Add(prep, &ccg.Functor{Result: ccg.Atom(cat), Dir: ccg.Forward, Arg: ccg.Atom(cat)}, sem)
		}
		lex.Add(prep, &ccg.Functor{Result: ccg.Atom("NP"), Dir: ccg.Forward, Arg: ccg.Atom("NP")}, sem)
	}

	// Context glue turns stranded constituents into sentences.
	contextCats := append([]string{"NP"}, g.categories...)
	for _, cat := range contextCats {
		a := ccg.Atom(cat)
		s := ccg.Atom("S")
		if err := addContextEntries(lex, s, a); err != nil {
			return nil, err
		}
	}

	// Conjunction and negation.
	for _, cat := range g.categories {
		lex.Add("and", &ccg.Functor{Result: ccg.Atom(cat), Dir: ccg.Forward, Arg: ccg.Atom(cat)}, &ccg.Abs{
			Params: []string{"x"},
			Body:   &ccg.App{Fn: "_AND_", Args: []ccg.Term{&ccg.Var{Name: "x"}}},
		})
	}
	for _, cat := range []string{"NP", "S"} {
		lex.Add("no", &ccg.Functor{Result: ccg.Atom("S"), Dir: ccg.Forward, Arg: ccg.Atom(cat)}, &ccg.Abs{
			Params: []string{"z"},
			Body:   &ccg.App{Fn: "_NO_", Args: []ccg.Term{&ccg.Var{Name: "z"}}},
		})
	}

	// Out-of-category words: X1..X12 => CONTEXT {Xn}
	for i := 1; i <= maxUnknownPlaceholders; i++ {
		name := "X" + strconv.Itoa(i)
		lex.Add(name, ccg.Atom("CONTEXT"), &ccg.Const{Name: name})
	}

	return lex, nil
}

// addContextEntries registers the three _context_ glue shapes for one
// category: (S/S)/C, (S/C)/S and S/C.
func addContextEntries(lex *ccg.Lexicon, s, cat ccg.Category) error {
	binary := &ccg.Abs{
		Params: []string{"x", "y"},
		Body:   &ccg.App{Fn: "_context_", Args: []ccg.Term{&ccg.Var{Name: "x"}, &ccg.Var{Name: "y"}}},
	}
	flipped := &ccg.Abs{
		Params: []string{"y", "x"},
		Body:   &ccg.App{Fn: "_context_", Args: []ccg.Term{&ccg.Var{Name: "x"}, &ccg.Var{Name: "y"}}},
	}
	unary := &ccg.Abs{
		Params: []string{"z"},
		Body:   &ccg.App{Fn: "_context_", Args: []ccg.Term{&ccg.Var{Name: "z"}}},
	}
	lex.Add("_context_", &ccg.Functor{
		Result: &ccg.Functor{Result: s, Dir: ccg.Forward, Arg: s},
		Dir:    ccg.Forward, Arg: cat,
	}, binary)
	lex.Add("_context_", &ccg.Functor{
		Result: &ccg.Functor{Result: s, Dir: ccg.Forward, Arg: cat},
		Dir:    ccg.Forward, Arg: s,
	}, flipped)
	lex.Add("_context_", &ccg.Functor{Result: s, Dir: ccg.Forward, Arg: cat}, unary)
	return nil
}
