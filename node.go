// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// Modifications:
//  - New Node struct with a tagged-union NodeType covering document,
//    element, text, comment, doctype, CDATA, processing-instruction and
//    declaration nodes, plus per-element policy flags.

package soup

import (
	"strings"

	"golang.org/x/net/html/atom"
)

// A NodeType is the type of a Node.
type NodeType uint32

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
	CDataNode
	ProcessingInstructionNode
	DeclarationNode
)

// String returns a string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case DoctypeNode:
		return "doctype"
	case CDataNode:
		return "cdata"
	case ProcessingInstructionNode:
		return "pi"
	case DeclarationNode:
		return "declaration"
	}
	return "invalid"
}

// An Attribute is an attribute of an element node. Attr keys within one
// element are unique; which occurrence survives a duplicate in the source
// markup is decided by the active backend's policy.
type Attribute struct {
	Key, Val string
}

// A Node is a single node in the document tree. The tree itself is
// pointer-linked in the manner of golang.org/x/net/html: ownership flows
// parent to child, and Parent/PrevSibling are back-references used for
// navigation only.
type Node struct {
	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node

	Type NodeType

	// DataAtom is the atom for Data if Data is a known HTML tag name, and
	// zero otherwise.
	DataAtom atom.Atom

	// Data holds the tag name for element nodes (case-folded per the active
	// backend's policy) and the text payload for all leaf node types. For
	// doctype, CDATA, processing-instruction and declaration nodes the
	// payload is raw: it is stored and re-emitted without entity decoding.
	Data string

	// Attr is the ordered list of attributes for an element node.
	Attr []Attribute

	// Empty marks a void element. An Empty node never gains children and
	// serializes in self-closing form.
	Empty bool

	// PreserveWhitespace marks an element whose text content is stored
	// exactly as tokenized, with no whitespace collapsing. The flag is
	// inherited by descendant elements during assembly.
	PreserveWhitespace bool

	// Opaque marks an element whose text content was tokenized raw (script
	// and style-like containers) and must be rendered without escaping.
	Opaque bool

	// ContainsSubstitutions marks an element whose rendering interpolates
	// the document's output encoding, e.g. a meta charset declaration. The
	// substitution happens at render time only; the tree is never mutated.
	ContainsSubstitutions bool

	// OriginalEncoding is set on document nodes only: the encoding detected
	// while decoding raw byte input, or empty if the input was already text.
	OriginalEncoding string
}

// InsertBefore inserts newChild as a child of n, immediately before oldChild
// in the sequence of n's children. oldChild may be nil, in which case
// newChild is appended to the end of n's children.
//
// It will panic if newChild already has a parent or siblings, or if n is an
// empty-element node.
func (n *Node) InsertBefore(newChild, oldChild *Node) {
	if newChild.Parent != nil || newChild.PrevSibling != nil || newChild.NextSibling != nil {
		panic("soup: InsertBefore called for an attached child Node")
	}
	if n.Empty {
		panic("soup: InsertBefore called on an empty-element Node")
	}
	var prev, next *Node
	if oldChild != nil {
		prev, next = oldChild.PrevSibling, oldChild
	} else {
		prev = n.LastChild
	}
	if prev != nil {
		prev.NextSibling = newChild
	} else {
		n.FirstChild = newChild
	}
	if next != nil {
		next.PrevSibling = newChild
	} else {
		n.LastChild = newChild
	}
	newChild.Parent = n
	newChild.PrevSibling = prev
	newChild.NextSibling = next
}

// AppendChild adds a node c as a child of n.
//
// It will panic if c already has a parent or siblings, or if n is an
// empty-element node.
func (n *Node) AppendChild(c *Node) {
	if c.Parent != nil || c.PrevSibling != nil || c.NextSibling != nil {
		panic("soup: AppendChild called for an attached child Node")
	}
	if n.Empty {
		panic("soup: AppendChild called on an empty-element Node")
	}
	last := n.LastChild
	if last != nil {
		last.NextSibling = c
	} else {
		n.FirstChild = c
	}
	n.LastChild = c
	c.Parent = n
	c.PrevSibling = last
}

// RemoveChild removes a node c that is a child of n. Afterwards, c will have
// no parent and no siblings.
//
// It will panic if c's parent is not n.
func (n *Node) RemoveChild(c *Node) {
	if c.Parent != n {
		panic("soup: RemoveChild called for a non-child Node")
	}
	if n.FirstChild == c {
		n.FirstChild = c.NextSibling
	}
	if c.NextSibling != nil {
		c.NextSibling.PrevSibling = c.PrevSibling
	}
	if n.LastChild == c {
		n.LastChild = c.PrevSibling
	}
	if c.PrevSibling != nil {
		c.PrevSibling.NextSibling = c.NextSibling
	}
	c.Parent = nil
	c.PrevSibling = nil
	c.NextSibling = nil
}

// Clone returns a deep copy of the subtree rooted at n. The clone has no
// parent and no siblings; every cloned child is linked to its cloned parent.
func (n *Node) Clone() *Node {
	m := &Node{
		Type:                  n.Type,
		DataAtom:              n.DataAtom,
		Data:                  n.Data,
		Empty:                 n.Empty,
		PreserveWhitespace:    n.PreserveWhitespace,
		Opaque:                n.Opaque,
		ContainsSubstitutions: n.ContainsSubstitutions,
		OriginalEncoding:      n.OriginalEncoding,
	}
	if n.Attr != nil {
		m.Attr = make([]Attribute, len(n.Attr))
		copy(m.Attr, n.Attr)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		m.AppendChild(c.Clone())
	}
	return m
}

// Attribute returns the value of the attribute named key and whether it is
// present.
func (n *Node) Attribute(key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SoleString returns the text of the single meaningful string in the subtree
// rooted at n, if the subtree contains exactly one non-whitespace text or
// CDATA node. The second return value reports whether such a string exists.
func (n *Node) SoleString() (string, bool) {
	var found *Node
	var walk func(*Node) bool
	walk = func(m *Node) bool {
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case TextNode, CDataNode:
				if c.IsWhitespace() {
					continue
				}
				if found != nil {
					return false
				}
				found = c
			case ElementNode, DocumentNode:
				if !walk(c) {
					return false
				}
			}
		}
		return true
	}
	if !walk(n) || found == nil {
		return "", false
	}
	return found.Data, true
}

// IsWhitespace reports whether a text node consists entirely of whitespace.
func (n *Node) IsWhitespace() bool {
	return strings.TrimLeft(n.Data, whitespace) == ""
}

// nodeStack is a stack of nodes.
type nodeStack []*Node

// pop pops the stack. It will panic if s is empty.
func (s *nodeStack) pop() *Node {
	i := len(*s)
	n := (*s)[i-1]
	*s = (*s)[:i-1]
	return n
}

// top returns the most recently pushed node, or nil if s is empty.
func (s *nodeStack) top() *Node {
	if i := len(*s); i > 0 {
		return (*s)[i-1]
	}
	return nil
}

// index returns the index of the top-most element named name, or -1 if no
// such element is on the stack.
func (s *nodeStack) index(name string) int {
	for i := len(*s) - 1; i >= 0; i-- {
		if (*s)[i].Data == name {
			return i
		}
	}
	return -1
}
