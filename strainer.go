package soup

import (
	"fmt"
	"regexp"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// A Matcher is one constraint of a Strainer. The variants form a closed set:
// exact match, set membership, regular-expression match, compiled expression
// match, and always-true. A nil Matcher matches everything.
type Matcher interface {
	Match(s string) bool
}

// ExactMatcher matches a string exactly.
type ExactMatcher string

func (m ExactMatcher) Match(s string) bool { return string(m) == s }

// SetMatcher matches any string in the set.
type SetMatcher []string

func (m SetMatcher) Match(s string) bool {
	for _, v := range m {
		if v == s {
			return true
		}
	}
	return false
}

// PatternMatcher matches strings against a regular expression.
type PatternMatcher struct {
	re *regexp.Regexp
}

// NewPatternMatcher compiles pattern into a PatternMatcher.
func NewPatternMatcher(pattern string) (*PatternMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	return &PatternMatcher{re: re}, nil
}

func (m *PatternMatcher) Match(s string) bool { return m.re.MatchString(s) }

// ExprMatcher evaluates a compiled boolean expression with the candidate
// string bound to the variable "value".
type ExprMatcher struct {
	prog *vm.Program
}

// NewExprMatcher compiles src into an ExprMatcher. The expression must
// evaluate to a boolean; the candidate string is available as "value".
func NewExprMatcher(src string) (*ExprMatcher, error) {
	prog, err := expr.Compile(src,
		expr.Env(map[string]any{"value": ""}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile expression: %w", err)
	}
	return &ExprMatcher{prog: prog}, nil
}

func (m *ExprMatcher) Match(s string) bool {
	out, err := expr.Run(m.prog, map[string]any{"value": s})
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

// AnyMatcher matches everything. It is equivalent to a nil Matcher and
// exists for callers that want the constraint to be explicit.
type AnyMatcher struct{}

func (AnyMatcher) Match(string) bool { return true }

// A Strainer is a match predicate over tag name, attributes and text. It is
// used both as a live filter during document assembly, where non-matching
// subtrees are pruned as they arrive, and as a search predicate over a
// finished tree.
//
// A nil field places no constraint; all specified fields must match.
type Strainer struct {
	// Name constrains the element's tag name.
	Name Matcher

	// Attrs constrains attribute values by key. An entry with a nil Matcher
	// requires only that the attribute be present.
	Attrs map[string]Matcher

	// Text constrains text nodes. A Strainer with Text set and no Name or
	// Attrs constraints matches text nodes instead of elements.
	Text Matcher
}

// NewStrainer returns a Strainer matching elements with the given tag name.
func NewStrainer(name string) *Strainer {
	return &Strainer{Name: ExactMatcher(name)}
}

// MatchesElement reports whether an element with the given tag name and
// attributes satisfies the name and attribute constraints. A strainer
// constrained only by text never matches an element: during construction the
// element's text is not yet known, so a pure text strainer selects text
// nodes instead. A Text constraint alongside Name or Attrs is ignored here
// and applies only in MatchesNode, where the finished text is available.
func (s *Strainer) MatchesElement(name string, attrs []Attribute) bool {
	if s == nil {
		return true
	}
	if s.Text != nil && s.Name == nil && len(s.Attrs) == 0 {
		return false
	}
	if s.Name != nil && !s.Name.Match(name) {
		return false
	}
	for key, m := range s.Attrs {
		val, ok := lookupAttr(attrs, key)
		if !ok {
			return false
		}
		if m != nil && !m.Match(val) {
			return false
		}
	}
	return true
}

// MatchesText reports whether a text payload satisfies the strainer. A
// strainer constrained by name or attributes never matches bare text.
func (s *Strainer) MatchesText(data string) bool {
	if s == nil {
		return true
	}
	if s.Name != nil || len(s.Attrs) > 0 {
		return false
	}
	if s.Text == nil {
		return false
	}
	return s.Text.Match(data)
}

// MatchesNode applies the strainer to a finished node: elements are tested
// against the name and attribute constraints plus, if set, the text
// constraint against the element's sole string; text nodes are tested
// against the text constraint.
func (s *Strainer) MatchesNode(n *Node) bool {
	if s == nil {
		return true
	}
	switch n.Type {
	case ElementNode:
		if !s.MatchesElement(n.Data, n.Attr) {
			return false
		}
		if s.Text != nil {
			str, ok := n.SoleString()
			if !ok || !s.Text.Match(str) {
				return false
			}
		}
		return true
	case TextNode, CDataNode:
		return s.MatchesText(n.Data)
	}
	return false
}

// FindAll returns all nodes in the subtree rooted at root, in document
// order, that match the strainer. The root itself is not considered.
func (s *Strainer) FindAll(root *Node) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if s.MatchesNode(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// Find returns the first node in the subtree rooted at root that matches
// the strainer, or nil.
func (s *Strainer) Find(root *Node) *Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if s.MatchesNode(c) {
			return c
		}
		if n := s.Find(c); n != nil {
			return n
		}
	}
	return nil
}

func lookupAttr(attrs []Attribute, key string) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
