package grammar

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/yegors/atc-semframe/internal/ccg"
)

// Rule is one complex lexicon rule. It attaches to the placeholders of its
// header category and gives them a functional syntactic category with a
// semantic template. Rules are written against placeholder index 1
// ("callsign1") and are instantiated for every placeholder of the category.
type Rule struct {
	Category string
	Cat      ccg.Category
	Sem      ccg.Term
	raw      string
}

// ParseRules reads a rule file: "#CATEGORY" headers followed by lines of
// the form `CATEXPR {\x y._F_(...)}`. A leading '-' disables a rule.
func ParseRules(r io.Reader, source string) ([]*Rule, error) {
	var rules []*Rule
	category := ""

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		if strings.HasPrefix(line, "#") {
			name := strings.ToUpper(strings.Trim(line, "# \t"))
			if name != "" && !strings.ContainsAny(name, " \t") {
				category = name
			}
			continue
		}
		if category == "" {
			return nil, fmt.Errorf("%s:%d: rule before first #CATEGORY header", source, lineNo)
		}
		open := strings.Index(line, "{")
		if open < 0 || !strings.HasSuffix(line, "}") {
			return nil, fmt.Errorf("%s:%d: rule missing {semantics} part", source, lineNo)
		}
		catExpr := strings.TrimSpace(line[:open])
		semExpr := strings.TrimSpace(line[open+1 : len(line)-1])

		cat, err := ccg.ParseCategory(catExpr)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, lineNo, err)
		}
		sem, err := ccg.ParseTerm(semExpr)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, lineNo, err)
		}
		rules = append(rules, &Rule{Category: category, Cat: cat, Sem: sem, raw: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return rules, nil
}

// argCategories collects the argument atoms of the rule's category, e.g.
// (CLEARED/PLACE)/TO yields TO and PLACE.
func (r *Rule) argCategories() []string {
	var args []string
	cat := r.Cat
	for {
		f, ok := cat.(*ccg.Functor)
		if !ok {
			return args
		}
		if a, ok := f.Arg.(ccg.Atom); ok {
			args = append(args, string(a))
		}
		cat = f.Result
	}
}

// resultCategory returns the innermost result atom, e.g. CLEARED for
// (CLEARED/PLACE)/TO, or "" when the head is itself functional.
func (r *Rule) resultCategory() string {
	cat := r.Cat
	for {
		f, ok := cat.(*ccg.Functor)
		if !ok {
			if a, ok := cat.(ccg.Atom); ok {
				return string(a)
			}
			return ""
		}
		cat = f.Result
	}
}

// matchesFilter reports whether any argument category is in the filter set
// of binding categories. Used to restrict the refinement-pass lexicon.
func (r *Rule) matchesFilter(filter map[string]bool) bool {
	for _, arg := range r.argCategories() {
		if filter[strings.ToLower(arg)] {
			return true
		}
	}
	return false
}
