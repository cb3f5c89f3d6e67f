package soup

import (
	"errors"

	"github.com/beevik/etree"
)

// ErrBackendUnavailable is returned when a requested backend is not
// registered. The parse does not proceed with that backend.
var ErrBackendUnavailable = errors.New("soup: backend unavailable")

// A ParseError reports a backend tokenize failure. Events delivered before
// the failure are never rolled back, so Document holds the partial tree
// built up to that point.
type ParseError struct {
	// Backend is the name of the backend that failed.
	Backend string

	// Document is the partial tree, usable as-is.
	Document *Node

	err error
	ctx *etree.Element
}

func newParseError(backend string, err error, doc *Node) *ParseError {
	return &ParseError{
		Backend:  backend,
		Document: doc,
		err:      err,
		ctx:      buildErrorContext(doc),
	}
}

func (e *ParseError) Error() string {
	return "soup: " + e.Backend + ": " + e.err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.err
}

// MarkupContext renders a short markup fragment around the point where the
// parse stopped, for inclusion in diagnostics.
func (e *ParseError) MarkupContext() string {
	if e.ctx == nil {
		return ""
	}
	doc := etree.NewDocument()
	doc.SetRoot(e.ctx.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

// errorContextBuilder organizes the helpers that turn the tail of a partial
// tree into a small etree fragment.
type errorContextBuilder struct{}

// focus returns the node the parse stopped at: the deepest last child of
// the partial tree, widened to its enclosing element so the context shows
// markup rather than a bare string.
func (b errorContextBuilder) focus(doc *Node) *Node {
	n := doc
	for n.LastChild != nil {
		n = n.LastChild
	}
	if n == doc {
		return nil
	}
	for n.Type != ElementNode && n.Parent != nil && n.Parent != doc {
		n = n.Parent
	}
	return n
}

func (b errorContextBuilder) addPrevSiblings(dst *etree.Element, n *Node) {
	var prev []*Node
	for s, c := n.PrevSibling, 0; s != nil && c < 2; s = s.PrevSibling {
		if s.Type == TextNode && s.IsWhitespace() {
			continue
		}
		prev = append(prev, s)
		c++
	}
	if len(prev) == 2 && prev[1].PrevSibling != nil {
		dst.AddChild(etree.NewText("..."))
	}
	for i := len(prev) - 1; i >= 0; i-- {
		b.addNode(dst, prev[i])
	}
}

func (b errorContextBuilder) addNode(dst *etree.Element, n *Node) {
	switch n.Type {
	case ElementNode:
		el := etree.NewElement(n.Data)
		for _, a := range n.Attr {
			el.CreateAttr(a.Key, a.Val)
		}
		if n.FirstChild != nil {
			if s, ok := n.SoleString(); ok {
				el.SetText(s)
			} else {
				el.AddChild(etree.NewText("..."))
			}
		}
		dst.AddChild(el)
	case TextNode, CDataNode:
		if !n.IsWhitespace() {
			dst.AddChild(etree.NewText(n.Data))
		}
	case CommentNode:
		dst.AddChild(etree.NewComment(n.Data))
	}
}

func (b errorContextBuilder) wrapParent(dst *etree.Element, n *Node) *etree.Element {
	parent := n.Parent
	if parent == nil || parent.Type != ElementNode {
		dst.Tag = "_"
		return dst
	}
	dst.Tag = parent.Data
	for _, a := range parent.Attr {
		dst.CreateAttr(a.Key, a.Val)
	}
	return dst
}

// buildErrorContext creates a small etree fragment around the last node of
// the partial tree to give a tokenize error some markup context.
func buildErrorContext(doc *Node) *etree.Element {
	b := errorContextBuilder{}
	n := b.focus(doc)
	if n == nil {
		return nil
	}
	dst := etree.NewElement("_")
	b.addPrevSiblings(dst, n)
	b.addNode(dst, n)
	return b.wrapParent(dst, n)
}
