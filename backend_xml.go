package soup

import (
	"encoding/xml"
	"io"
	"strings"
)

func init() {
	RegisterBackend("xml", func() Backend { return &xmlBackend{} })
}

// xmlBackend is the strict backend: it drives encoding/xml's token stream.
// Names keep their case, duplicate attributes resolve first-wins, and a
// tokenize failure aborts the run; events already delivered stand, so the
// sink's partial tree survives the error.
//
// XML has no void elements: a self-closed tag arrives as an immediate
// start/end pair, so the policy tables are empty.
type xmlBackend struct{}

func (b *xmlBackend) Name() string { return "xml" }

func (b *xmlBackend) Policies() *BuilderPolicies {
	return &BuilderPolicies{
		VoidTags:               map[string]bool{},
		RawTextTags:            map[string]bool{},
		PreserveWhitespaceTags: map[string]bool{},
		NeverVoidTags:          map[string]bool{},
		FoldCase:               false,
		DuplicateAttrs:         KeepFirst,
	}
}

func (b *xmlBackend) Run(text string, sink EventSink) error {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			sink.EndOfDocument()
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			attrs := make([]Attribute, 0, len(t.Attr))
			for _, a := range t.Attr {
				attrs = append(attrs, Attribute{Key: xmlName(a.Name), Val: a.Value})
			}
			sink.StartElement(xmlName(t.Name), attrs, false)
		case xml.EndElement:
			sink.EndElement(xmlName(t.Name))
		case xml.CharData:
			sink.Text(string(t))
		case xml.Comment:
			sink.Comment(string(t))
		case xml.ProcInst:
			sink.ProcessingInstruction(t.Target + " " + strings.TrimSpace(string(t.Inst)))
		case xml.Directive:
			d := string(t)
			if len(d) >= 7 && strings.EqualFold(d[:7], "DOCTYPE") {
				sink.Doctype(strings.TrimSpace(d[7:]))
			} else {
				sink.Declaration(d)
			}
		}
	}
}

// xmlName flattens a decoded name. The decoder resolves prefixes to
// namespace URIs; only the local part is kept.
func xmlName(n xml.Name) string {
	return n.Local
}
