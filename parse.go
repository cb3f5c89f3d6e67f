// Package soup normalizes HTML and XML into one canonical, navigable
// document tree, regardless of which parsing backend tokenized the input,
// and serializes that tree back to markup with correct escaping and
// encoding.
//
// Three backends are registered by default: "htmltok" drives the lenient
// golang.org/x/net/html tokenizer, "xml" drives the strict encoding/xml
// decoder, and "html5" replays a fully recovered golang.org/x/net/html
// parse. All three feed the same Assembler through the EventSink contract
// and produce the same tree shape.
package soup

import (
	"log/slog"

	"github.com/snarfed/beautifulsoup/dammit"
)

// Options configures Parse. The zero value (or a nil pointer) parses with
// the lenient HTML backend, no strainer and automatic encoding detection.
type Options struct {
	// FromEncoding overrides encoding detection for byte input.
	FromEncoding string

	// TryEncodings are additional encodings tried, in order, after
	// FromEncoding and before the sniffed candidates.
	TryEncodings []string

	// ParseOnly prunes the tree during construction: only nodes matching
	// the strainer (and their own children) are kept.
	ParseOnly *Strainer

	// Backends is the preference-ordered list of backend names. The first
	// registered one is used; an unknown sole candidate surfaces
	// ErrBackendUnavailable. Empty means "htmltok".
	Backends []string

	// DisableSmartQuotes turns off the rewriting of windows-1252
	// punctuation bytes during decoding.
	DisableSmartQuotes bool

	// Logger receives recovery diagnostics at debug level. Nil discards.
	Logger *slog.Logger
}

// Parse decodes raw bytes of unknown encoding and builds a document tree.
// The detected encoding is recorded as the document's OriginalEncoding.
//
// A backend tokenize failure returns the partial tree alongside a
// *ParseError; the tree is valid and usable as-is.
func Parse(data []byte, opts *Options) (*Node, error) {
	if opts == nil {
		opts = &Options{}
	}
	res, err := dammit.Resolve(data, dammit.ResolverOptions{
		Override:     opts.FromEncoding,
		TryEncodings: opts.TryEncodings,
		Smart:        !opts.DisableSmartQuotes,
	})
	if err != nil {
		return nil, err
	}
	return parseText(res.Text, res.Encoding, opts)
}

// ParseText builds a document tree from already decoded text. The document
// records no OriginalEncoding.
func ParseText(text string, opts *Options) (*Node, error) {
	if opts == nil {
		opts = &Options{}
	}
	return parseText(text, "", opts)
}

func parseText(text, encoding string, opts *Options) (*Node, error) {
	backend, err := pickBackend(opts.Backends)
	if err != nil {
		return nil, err
	}
	asm := NewAssembler(backend.Policies(), opts.ParseOnly, opts.Logger)
	asm.SetEncoding(encoding)
	if err := backend.Run(text, asm); err != nil {
		asm.EndOfDocument()
		return asm.Document(), newParseError(backend.Name(), err, asm.Document())
	}
	return asm.Document(), nil
}

// pickBackend returns the first registered backend from the preference
// list. Retrying with a different backend is a caller-level concern: call
// Parse again with a different preference.
func pickBackend(prefs []string) (Backend, error) {
	if len(prefs) == 0 {
		prefs = []string{"htmltok"}
	}
	var firstErr error
	for _, name := range prefs {
		b, err := newBackend(name)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// Serialize renders a document to bytes in the given encoding and format.
// An empty encoding falls back to the document's OriginalEncoding, or UTF-8
// when the input was already text.
func Serialize(doc *Node, encoding string, format Format) ([]byte, error) {
	if encoding == "" {
		encoding = doc.OriginalEncoding
	}
	return RenderBytes(doc, RenderOptions{Encoding: encoding, Format: format})
}
