package soup

import (
	"fmt"
	"io"
	"strings"

	"github.com/snarfed/beautifulsoup/dammit"
)

// A Format selects the markup dialect the serializer emits.
type Format int

const (
	// FormatMinimal escapes only what correctness requires and self-closes
	// void elements with a slash.
	FormatMinimal Format = iota
	// FormatHTML emits void elements without the self-closing slash.
	FormatHTML
	// FormatXML always emits the self-closing slash and additionally
	// escapes angle brackets inside attribute values.
	FormatXML
)

// RenderOptions configures Render.
type RenderOptions struct {
	// Encoding is the output encoding name. When set, elements flagged
	// ContainsSubstitutions have their charset token rewritten to it at
	// render time, and RenderBytes encodes the output with it. The tree is
	// never mutated.
	Encoding string

	// Format selects the markup dialect.
	Format Format
}

// Render walks the tree rooted at n depth-first and writes markup text.
// Attribute values are always delimited by double quotes, with ampersands
// and double quotes escaped; text content escapes ampersands and angle
// brackets. Comments, CDATA sections, doctypes and declarations are emitted
// verbatim inside their fixed delimiters.
func Render(w io.Writer, n *Node, opts RenderOptions) error {
	r := &renderer{w: w, opts: opts}
	return r.render(n)
}

// RenderString renders the tree rooted at n to a string.
func RenderString(n *Node, opts RenderOptions) (string, error) {
	var b strings.Builder
	if err := Render(&b, n, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderBytes renders the tree rooted at n and encodes the result into
// opts.Encoding as the final step. An empty encoding means UTF-8.
func RenderBytes(n *Node, opts RenderOptions) ([]byte, error) {
	s, err := RenderString(n, opts)
	if err != nil {
		return nil, err
	}
	return dammit.EncodeAs(s, opts.Encoding)
}

type renderer struct {
	w    io.Writer
	opts RenderOptions
}

func (r *renderer) render(n *Node) error {
	switch n.Type {
	case DocumentNode:
		return r.renderChildren(n, false)
	case ElementNode:
		return r.renderElement(n)
	case TextNode:
		return r.writeString(escapeText(n.Data))
	case CommentNode:
		return r.writeString("<!--" + n.Data + "-->")
	case DoctypeNode:
		return r.writeString("<!DOCTYPE " + n.Data + ">")
	case CDataNode:
		return r.writeString("<![CDATA[" + n.Data + "]]>")
	case ProcessingInstructionNode:
		return r.writeString("<?" + n.Data + "?>")
	case DeclarationNode:
		return r.writeString("<!" + n.Data + ">")
	}
	return fmt.Errorf("soup: render: unexpected node type %v", n.Type)
}

func (r *renderer) renderElement(n *Node) error {
	if err := r.writeString("<" + n.Data); err != nil {
		return err
	}
	for _, a := range n.Attr {
		val := a.Val
		if n.ContainsSubstitutions && r.opts.Encoding != "" {
			val = r.substitute(a)
		}
		if err := r.writeString(" " + a.Key + `="` + r.escapeAttr(val) + `"`); err != nil {
			return err
		}
	}
	if n.Empty {
		if r.opts.Format == FormatHTML {
			return r.writeString(">")
		}
		return r.writeString("/>")
	}
	if err := r.writeString(">"); err != nil {
		return err
	}
	if err := r.renderChildren(n, n.Opaque); err != nil {
		return err
	}
	return r.writeString("</" + n.Data + ">")
}

func (r *renderer) renderChildren(n *Node, opaque bool) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if opaque && (c.Type == TextNode || c.Type == CDataNode) {
			if err := r.writeString(c.Data); err != nil {
				return err
			}
			continue
		}
		if err := r.render(c); err != nil {
			return err
		}
	}
	return nil
}

// substitute rewrites the charset token of a meta-like attribute to the
// output encoding.
func (r *renderer) substitute(a Attribute) string {
	switch a.Key {
	case "charset":
		return r.opts.Encoding
	case "content":
		return dammit.SubstituteCharset(a.Val, r.opts.Encoding)
	}
	return a.Val
}

func (r *renderer) escapeAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	if r.opts.Format == FormatXML {
		s = strings.ReplaceAll(s, "<", "&lt;")
		s = strings.ReplaceAll(s, ">", "&gt;")
	}
	return s
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func (r *renderer) writeString(s string) error {
	_, err := io.WriteString(r.w, s)
	return err
}
