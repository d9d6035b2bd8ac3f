// Package tree provides the labeled bracketed tree representation shared by
// the segment loader and the agreement evaluator.
package tree

import (
	"fmt"
	"strings"
)

// Node is one node of a labeled bracketed tree. Interior nodes carry a Label
// and children; leaves carry the surface Token.
type Node struct {
	Label    string  `json:"label,omitempty"`
	Token    string  `json:"token,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// IsLeaf reports whether n is a surface token.
func (n *Node) IsLeaf() bool { return n.Token != "" }

// Leaves returns the surface tokens of n in order.
func (n *Node) Leaves() []string {
	if n.IsLeaf() {
		return []string{n.Token}
	}
	var out []string
	for _, c := range n.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// Depth returns the height of the tree rooted at n. A leaf has depth 1.
func (n *Node) Depth() int {
	if n.IsLeaf() {
		return 1
	}
	max := 0
	for _, c := range n.Children {
		if d := c.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}

// String renders n in bracketed form: (LABEL tok (SUB tok)).
func (n *Node) String() string {
	if n.IsLeaf() {
		return n.Token
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(n.Label)
	for _, c := range n.Children {
		b.WriteByte(' ')
		b.WriteString(c.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Span is a labeled half-open token range [Start, End) on a document's
// shared token axis.
type Span struct {
	Label string
	Start int
	End   int
}

// Spans returns the labeled spans of a forest, leaves numbered left to right
// across all trees.
func Spans(forest []*Node) []Span {
	var spans []Span
	offset := 0
	for _, n := range forest {
		offset = collectSpans(n, offset, &spans)
	}
	return spans
}

func collectSpans(n *Node, offset int, spans *[]Span) int {
	if n.IsLeaf() {
		return offset + 1
	}
	start := offset
	for _, c := range n.Children {
		offset = collectSpans(c, offset, spans)
	}
	if offset > start {
		*spans = append(*spans, Span{Label: n.Label, Start: start, End: offset})
	}
	return offset
}

// Parse reads a sequence of labeled bracketed trees from s. Bare tokens at
// the top level become single-leaf forest entries.
func Parse(s string) ([]*Node, error) {
	toks := lex(s)
	var forest []*Node
	pos := 0
	for pos < len(toks) {
		n, next, err := parseNode(toks, pos)
		if err != nil {
			return nil, err
		}
		forest = append(forest, n)
		pos = next
	}
	return forest, nil
}

func parseNode(toks []string, pos int) (*Node, int, error) {
	if toks[pos] == ")" {
		return nil, pos, fmt.Errorf("unexpected ) at token %d", pos)
	}
	if toks[pos] != "(" {
		return &Node{Token: toks[pos]}, pos + 1, nil
	}
	pos++ // consume (
	if pos >= len(toks) {
		return nil, pos, fmt.Errorf("unterminated tree: missing label")
	}
	if toks[pos] == "(" || toks[pos] == ")" {
		return nil, pos, fmt.Errorf("expected label at token %d, got %q", pos, toks[pos])
	}
	n := &Node{Label: toks[pos]}
	pos++
	for {
		if pos >= len(toks) {
			return nil, pos, fmt.Errorf("unterminated tree: missing ) for %s", n.Label)
		}
		if toks[pos] == ")" {
			return n, pos + 1, nil
		}
		child, next, err := parseNode(toks, pos)
		if err != nil {
			return nil, pos, err
		}
		n.Children = append(n.Children, child)
		pos = next
	}
}

// lex splits s into brackets and whitespace-delimited tokens.
func lex(s string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch r {
		case '(', ')':
			flush()
			toks = append(toks, string(r))
		case ' ', '\t', '\n', '\r', '\v', '\f':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}
