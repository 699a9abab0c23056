// Package frame renders the logical form of a parsed transmission as a
// nested semantic frame with ordered, duplicate-suffixed labels.
package frame

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/yegors/atc-semframe/internal/ccg"
)

// Frame is one node of the semantic frame tree. A node with no children is
// a leaf carrying a literal fragment of the transmission.
type Frame struct {
	Label    string
	Text     string
	Children []*Frame
}

// IsLeaf reports whether the frame carries a literal rather than children.
func (f *Frame) IsLeaf() bool { return len(f.Children) == 0 }

// FromTerms builds the frame tree from the top-level items of a logical
// form. Bare literal items (words outside every category) are skipped;
// lowercase wrapper functions are hoisted so only category groupings
// remain as nodes.
func FromTerms(items []ccg.Term) *Frame {
	root := &Frame{}
	for _, item := range items {
		root.Children = append(root.Children, framesFor(item)...)
	}
	return root
}

func framesFor(t ccg.Term) []*Frame {
	app, ok := t.(*ccg.App)
	if !ok {
		// Bare literals and unresolved constants carry no grouping.
		return nil
	}
	label := strings.Trim(app.Fn, "_")
	if label == "" || label != strings.ToUpper(label) {
		// Lowercase wrapper (preposition, context glue): hoist arguments.
		var out []*Frame
		for _, arg := range app.Args {
			out = append(out, framesFor(arg)...)
		}
		return out
	}

	node := &Frame{Label: label}
	for _, arg := range app.Args {
		node.Children = append(node.Children, childFrames(label, arg)...)
	}
	// _CAT_(*lit*) with nothing else collapses to a leaf.
	if len(node.Children) == 1 && node.Children[0].IsLeaf() && node.Children[0].Label == label {
		return []*Frame{node.Children[0]}
	}
	return []*Frame{node}
}

func childFrames(parent string, t ccg.Term) []*Frame {
	switch v := t.(type) {
	case *ccg.Lit:
		return []*Frame{{Label: parent, Text: v.Text}}
	case *ccg.Const:
		return []*Frame{{Label: parent, Text: v.Name}}
	case *ccg.App:
		return framesFor(v)
	}
	return nil
}

// Leaves returns the literal fragments of the frame in reading order.
func (f *Frame) Leaves() []string {
	var out []string
	var walk func(n *Frame)
	walk = func(n *Frame) {
		if n.IsLeaf() {
			if n.Text != "" {
				out = append(out, n.Text)
			}
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, c := range f.Children {
		walk(c)
	}
	return out
}

// Validate checks that every leaf literal is a fragment of the normalized
// transmission text.
func (f *Frame) Validate(normalized string) error {
	for _, leaf := range f.Leaves() {
		if !strings.Contains(normalized, leaf) {
			return fmt.Errorf("leaf %q is not a fragment of the transmission", leaf)
		}
	}
	return nil
}

// MarshalJSON renders the frame as a nested object with insertion-ordered
// keys. Labels used more than once anywhere in the tree get _1.._N
// suffixes in order of occurrence, so keys stay unique and aligned with
// the utterance.
func (f *Frame) MarshalJSON() ([]byte, error) {
	counts := map[string]int{}
	var count func(n *Frame)
	count = func(n *Frame) {
		counts[n.Label]++
		for _, c := range n.Children {
			count(c)
		}
	}
	for _, c := range f.Children {
		count(c)
	}

	seen := map[string]int{}
	var buf bytes.Buffer
	if err := writeObject(&buf, f.Children, counts, seen); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeObject(buf *bytes.Buffer, children []*Frame, counts map[string]int, seen map[string]int) error {
	buf.WriteByte('{')
	for i, c := range children {
		if i > 0 {
			buf.WriteByte(',')
		}
		label := c.Label
		if counts[label] > 1 {
			seen[label]++
			label = label + "_" + strconv.Itoa(seen[label])
		}
		key, err := json.Marshal(label)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if c.IsLeaf() {
			val, err := json.Marshal(c.Text)
			if err != nil {
				return err
			}
			buf.Write(val)
			continue
		}
		if err := writeObject(buf, c.Children, counts, seen); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
