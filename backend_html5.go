package soup

import (
	"strings"

	"golang.org/x/net/html"
)

func init() {
	RegisterBackend("html5", func() Backend { return &html5Backend{} })
}

// html5Backend is the recovery-oriented backend: the input is first parsed
// with the golang.org/x/net/html tree parser, which performs full
// HTML5 error recovery, and the resulting tree is then replayed depth-first
// as builder events. Duplicate attributes resolve first-wins, matching the
// HTML5 tokenizer rule.
type html5Backend struct{}

func (b *html5Backend) Name() string { return "html5" }

func (b *html5Backend) Policies() *BuilderPolicies {
	return &BuilderPolicies{
		VoidTags:               htmlVoidTags,
		RawTextTags:            htmlRawTextTags,
		PreserveWhitespaceTags: htmlPreserveWhitespaceTags,
		NeverVoidTags:          htmlNeverVoidTags,
		FoldCase:               true,
		DuplicateAttrs:         KeepFirst,
	}
}

func (b *html5Backend) Run(text string, sink EventSink) error {
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return err
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		replay(c, sink)
	}
	sink.EndOfDocument()
	return nil
}

func replay(n *html.Node, sink EventSink) {
	switch n.Type {
	case html.ElementNode:
		sink.StartElement(n.Data, convertAttrs(n.Attr), false)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			replay(c, sink)
		}
		if !htmlVoidTags[n.Data] {
			sink.EndElement(n.Data)
		}
	case html.TextNode:
		sink.Text(n.Data)
	case html.CommentNode:
		sink.Comment(n.Data)
	case html.DoctypeNode:
		sink.Doctype(doctypeText(n))
	}
}

// doctypeText reconstructs the raw doctype payload from the parsed form,
// which splits the name and the public/system identifiers.
func doctypeText(n *html.Node) string {
	var b strings.Builder
	b.WriteString(n.Data)
	var public, system string
	for _, a := range n.Attr {
		switch a.Key {
		case "public":
			public = a.Val
		case "system":
			system = a.Val
		}
	}
	if public != "" {
		b.WriteString(` PUBLIC "`)
		b.WriteString(public)
		b.WriteString(`"`)
		if system != "" {
			b.WriteString(` "`)
			b.WriteString(system)
			b.WriteString(`"`)
		}
	} else if system != "" {
		b.WriteString(` SYSTEM "`)
		b.WriteString(system)
		b.WriteString(`"`)
	}
	return b.String()
}
