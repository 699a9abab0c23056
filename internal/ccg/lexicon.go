package ccg

import (
	"fmt"
	"sort"
)

// Entry maps a token to a syntactic category and a semantic term.
type Entry struct {
	Token string
	Cat   Category
	Sem   Term
}

// Lexicon is the set of entries available to the chart parser. A token may
// have any number of entries. Lexicons are built once and then read-only.
type Lexicon struct {
	entries map[string][]Entry
	count   int
}

// NewLexicon returns an empty lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{entries: make(map[string][]Entry)}
}

// Add registers an entry for token.
func (l *Lexicon) Add(token string, cat Category, sem Term) {
	l.entries[token] = append(l.entries[token], Entry{Token: token, Cat: cat, Sem: sem})
	l.count++
}

// AddString parses the category and term expressions and registers the entry.
func (l *Lexicon) AddString(token, catExpr, semExpr string) error {
	cat, err := ParseCategory(catExpr)
	if err != nil {
		return fmt.Errorf("entry %q: %w", token, err)
	}
	sem, err := ParseTerm(semExpr)
	if err != nil {
		return fmt.Errorf("entry %q: %w", token, err)
	}
	l.Add(token, cat, sem)
	return nil
}

// Lookup returns the entries for token, or nil if the token is unknown.
func (l *Lexicon) Lookup(token string) []Entry {
	return l.entries[token]
}

// Has reports whether the token has at least one entry.
func (l *Lexicon) Has(token string) bool {
	return len(l.entries[token]) > 0
}

// Size returns the total number of entries.
func (l *Lexicon) Size() int {
	return l.count
}

// Tokens returns all known tokens in sorted order.
func (l *Lexicon) Tokens() []string {
	tokens := make([]string, 0, len(l.entries))
	for tok := range l.entries {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}
