package soup

import (
	"fmt"
	"sort"

	"github.com/tiendc/go-deepcopy"
)

// An AttrPolicy decides which occurrence of a duplicated attribute survives.
type AttrPolicy int

const (
	// KeepFirst keeps the first occurrence of a duplicated attribute.
	KeepFirst AttrPolicy = iota
	// KeepLast keeps the last occurrence of a duplicated attribute.
	KeepLast
)

// BuilderPolicies declares, per backend, how the assembler must shape the
// tree: which tags are void, which contain raw (non-markup) text, which
// preserve whitespace verbatim, whether names are case-folded, and which
// duplicate-attribute occurrence wins.
//
// A BuilderPolicies value is read-only during a parse. Backends hand out
// clones so one configured template can be shared across concurrent parses.
type BuilderPolicies struct {
	// VoidTags are element names that can never have content.
	VoidTags map[string]bool

	// RawTextTags are element names whose text content is not re-tokenized
	// as markup and must render unescaped.
	RawTextTags map[string]bool

	// PreserveWhitespaceTags are element names whose text content keeps its
	// whitespace exactly as tokenized.
	PreserveWhitespaceTags map[string]bool

	// NeverVoidTags are element names that stay non-void even when the
	// source markup self-closes them.
	NeverVoidTags map[string]bool

	// FoldCase lowercases element and attribute names when set.
	FoldCase bool

	// DuplicateAttrs selects the surviving occurrence of a duplicated
	// attribute.
	DuplicateAttrs AttrPolicy
}

// Clone returns a deep copy of the policy tables, safe to mutate without
// affecting the template it was cloned from.
func (p *BuilderPolicies) Clone() *BuilderPolicies {
	var c BuilderPolicies
	if err := deepcopy.Copy(&c, p); err != nil {
		panic(fmt.Sprintf("soup: clone builder policies: %v", err))
	}
	return &c
}

// An EventSink consumes the tokenization events a backend produces. The
// Document Assembler is the canonical implementation; each event may be
// silently rejected by an active strainer without the backend knowing.
//
// Events are delivered synchronously and in document order. No event is
// accepted after EndOfDocument.
type EventSink interface {
	StartElement(name string, attrs []Attribute, selfClosing bool)
	EndElement(name string)
	Text(data string)
	Comment(data string)
	Doctype(data string)
	Declaration(data string)
	ProcessingInstruction(data string)
	CData(data string)
	EndOfDocument()
}

// A Backend tokenizes markup text and drives an EventSink. Backends are
// stateless between runs; Policies is queried once per parse.
//
// Run returns an error only when the backend itself fails to tokenize the
// input. Events already delivered are never rolled back, so the sink's
// partially built tree remains usable.
type Backend interface {
	Name() string
	Policies() *BuilderPolicies
	Run(text string, sink EventSink) error
}

// htmlVoidTags lists the HTML void elements.
var htmlVoidTags = map[string]bool{
	"area": true, "base": true, "basefont": true, "bgsound": true,
	"br": true, "col": true, "command": true, "embed": true,
	"frame": true, "hr": true, "img": true, "input": true,
	"keygen": true, "link": true, "menuitem": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// htmlRawTextTags lists elements whose content the tokenizer treats as raw
// text.
var htmlRawTextTags = map[string]bool{
	"script": true, "style": true,
}

// htmlPreserveWhitespaceTags lists elements whose text keeps its whitespace.
var htmlPreserveWhitespaceTags = map[string]bool{
	"pre": true, "textarea": true,
}

// htmlNeverVoidTags lists elements that stay non-void even when self-closed
// in the source.
var htmlNeverVoidTags = map[string]bool{
	"p": true,
}

var backendRegistry = map[string]func() Backend{}

// RegisterBackend makes a backend constructor available to Parse under the
// given name. It is intended to be called from init functions and is not
// safe for concurrent use with Parse.
func RegisterBackend(name string, fn func() Backend) {
	backendRegistry[name] = fn
}

// Backends returns the names of all registered backends, sorted.
func Backends() []string {
	names := make([]string, 0, len(backendRegistry))
	for name := range backendRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newBackend(name string) (Backend, error) {
	fn, ok := backendRegistry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendUnavailable, name)
	}
	return fn(), nil
}
