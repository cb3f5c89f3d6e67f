package soup

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

func init() {
	RegisterBackend("htmltok", func() Backend { return &htmlTokBackend{} })
}

// htmlTokBackend is the lenient backend: it drives the golang.org/x/net/html
// tokenizer token by token and leaves all structural recovery to the
// assembler. Malformed markup never fails here; the tokenizer consumes any
// input. Duplicate attributes resolve last-wins.
type htmlTokBackend struct{}

func (b *htmlTokBackend) Name() string { return "htmltok" }

func (b *htmlTokBackend) Policies() *BuilderPolicies {
	return &BuilderPolicies{
		VoidTags:               htmlVoidTags,
		RawTextTags:            htmlRawTextTags,
		PreserveWhitespaceTags: htmlPreserveWhitespaceTags,
		NeverVoidTags:          htmlNeverVoidTags,
		FoldCase:               true,
		DuplicateAttrs:         KeepLast,
	}
}

func (b *htmlTokBackend) Run(text string, sink EventSink) error {
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		z.Next()
		tok := z.Token()
		switch tok.Type {
		case html.ErrorToken:
			err := z.Err()
			if err == io.EOF {
				sink.EndOfDocument()
				return nil
			}
			return err
		case html.TextToken:
			sink.Text(tok.Data)
		case html.StartTagToken, html.SelfClosingTagToken:
			sink.StartElement(tok.Data, convertAttrs(tok.Attr), tok.Type == html.SelfClosingTagToken)
		case html.EndTagToken:
			sink.EndElement(tok.Data)
		case html.CommentToken:
			sink.Comment(tok.Data)
		case html.DoctypeToken:
			sink.Doctype(tok.Data)
		}
	}
}

func convertAttrs(attrs []html.Attribute) []Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + a.Key
		}
		out[i] = Attribute{Key: key, Val: a.Val}
	}
	return out
}
