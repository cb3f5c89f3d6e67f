// Package dammit turns bytes of unknown encoding into text, and back.
//
// Detection tries candidate encodings in a fixed priority order: an explicit
// override, any encodings the caller asks to try, a charset declaration
// sniffed from a prefix of the input, a byte-order mark, and finally a short
// fallback list ending in ISO-8859-1, which maps every byte value to a
// codepoint and therefore never fails. Decoding as a whole never fails.
package dammit

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ErrUndecodable is returned when every candidate encoding fails to decode
// the input. The ISO-8859-1 fallback makes this unreachable in practice; if
// it surfaces, an internal invariant has been violated.
var ErrUndecodable = errors.New("dammit: input undecodable in every candidate encoding")

// ResolverOptions configures Resolve.
type ResolverOptions struct {
	// Override is an encoding tried before any detection.
	Override string

	// TryEncodings are tried, in order, after the override and before the
	// sniffed candidates.
	TryEncodings []string

	// Smart enables rewriting of windows-1252 "smart" punctuation bytes
	// into their Unicode codepoints when the winning encoding otherwise
	// maps them to C1 control characters.
	Smart bool
}

// Result is the outcome of Resolve.
type Result struct {
	// Text is the decoded input.
	Text string

	// Encoding is the label of the encoding that decoded the input.
	Encoding string

	// Tried lists every candidate label in the order attempted.
	Tried []string
}

var (
	metaCharsetRe   = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([a-zA-Z0-9_][a-zA-Z0-9._-]*)`)
	xmlDeclRe       = regexp.MustCompile(`(?i)^<\?xml[^>]+encoding\s*=\s*["']([a-zA-Z0-9._-]+)["']`)
	charsetTokenRe  = regexp.MustCompile(`(?i)charset\s*=\s*["']?[a-zA-Z0-9._-]*["']?`)
	defaultFallback = []string{"utf-8", "windows-1252", "iso-8859-1"}
)

// Resolve decodes data, trying candidate encodings in priority order and
// recording which one won.
func Resolve(data []byte, opts ResolverOptions) (Result, error) {
	var candidates []string
	if opts.Override != "" {
		candidates = append(candidates, opts.Override)
	}
	candidates = append(candidates, opts.TryEncodings...)
	if name := sniffDeclared(data); name != "" {
		candidates = append(candidates, name)
	}
	if name := sniffBOM(data); name != "" {
		candidates = append(candidates, name)
	}
	candidates = append(candidates, defaultFallback...)

	res := Result{}
	seen := map[string]bool{}
	for _, name := range candidates {
		label := strings.ToLower(strings.TrimSpace(name))
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		res.Tried = append(res.Tried, label)

		text, err := decode(data, label)
		if err != nil {
			continue
		}
		if opts.Smart && hasControlGap(label) {
			text = rewriteSmartBytes(text)
		}
		res.Text = text
		res.Encoding = label
		return res, nil
	}
	return res, ErrUndecodable
}

// sniffDeclared scans a prefix of the input for a meta charset or an XML
// declaration. The scan window matches the HTML meta prescan: 1024 bytes.
func sniffDeclared(data []byte) string {
	prefix := data
	if len(prefix) > 1024 {
		prefix = prefix[:1024]
	}
	if m := xmlDeclRe.FindSubmatch(bytes.TrimLeft(prefix, " \t\r\n\f")); m != nil {
		return string(m[1])
	}
	if m := metaCharsetRe.FindSubmatch(prefix); m != nil {
		return string(m[1])
	}
	return ""
}

// sniffBOM recognizes the UTF-8, UTF-16LE and UTF-16BE byte-order marks.
func sniffBOM(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return "utf-8"
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return "utf-16le"
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return "utf-16be"
	}
	return ""
}

// lookup resolves an encoding label, first through the WHATWG index and then
// through the more lenient HTML charset lookup. The latin-1 family is pinned
// to the true ISO-8859-1 table: the WHATWG index aliases it to windows-1252,
// which would hide the C1 control range the smart-byte pass keys on.
func lookup(label string) (encoding.Encoding, error) {
	switch label {
	case "iso-8859-1", "iso8859-1", "latin-1", "latin1":
		return charmap.ISO8859_1, nil
	}
	if enc, err := htmlindex.Get(label); err == nil {
		return enc, nil
	}
	if enc, _ := charset.Lookup(label); enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("dammit: unknown encoding %q", label)
}

func decode(data []byte, label string) (string, error) {
	switch label {
	// The WHATWG index decoders keep a leading BOM as U+FEFF text; strip
	// it here so the mark never reaches the tree.
	case "utf-16le":
		data = bytes.TrimPrefix(data, []byte{0xFF, 0xFE})
	case "utf-16be":
		data = bytes.TrimPrefix(data, []byte{0xFE, 0xFF})
	case "utf-8", "utf8", "ascii", "us-ascii":
		// x/text decoders substitute invalid bytes instead of failing, so
		// validate by hand to let detection fall through to the next
		// candidate.
		if !utf8.Valid(data) {
			return "", fmt.Errorf("dammit: input is not valid %s", label)
		}
		return string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})), nil
	}
	enc, err := lookup(label)
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("dammit: decode as %s: %w", label, err)
	}
	return string(out), nil
}

// EncodeAs encodes text into the named encoding. Runes the target encoding
// cannot represent become numeric character references.
func EncodeAs(text, label string) ([]byte, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	switch label {
	case "", "utf-8", "utf8":
		return []byte(text), nil
	}
	enc, err := lookup(label)
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(encoding.HTMLEscapeUnsupported(enc.NewEncoder()), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("dammit: encode as %s: %w", label, err)
	}
	return out, nil
}

// SubstituteCharset rewrites the charset token in meta-like content, e.g.
// "text/html; charset=latin-1" with label "utf-8" becomes
// "text/html; charset=utf-8". Content without a charset token is returned
// unchanged.
func SubstituteCharset(content, label string) string {
	return charsetTokenRe.ReplaceAllString(content, "charset="+label)
}

// hasControlGap reports whether label names an encoding that maps bytes
// 0x80-0x9F to the otherwise unused C1 control range, which is where
// windows-1252 authoring tools put typographic punctuation.
func hasControlGap(label string) bool {
	switch label {
	case "iso-8859-1", "iso8859-1", "latin-1", "latin1", "ascii", "us-ascii":
		return true
	}
	return false
}

// smartBytes maps windows-1252 punctuation bytes, decoded by a latin-1
// family encoding into C1 controls, to their Unicode codepoints. The table
// is a policy, not a universal rule; callers opt in via ResolverOptions.
var smartBytes = map[rune]rune{
	0x80: '€', // euro sign
	0x82: '‚',
	0x83: 'ƒ',
	0x84: '„',
	0x85: '…',
	0x86: '†',
	0x87: '‡',
	0x88: 'ˆ',
	0x89: '‰',
	0x8A: 'Š',
	0x8B: '‹',
	0x8C: 'Œ',
	0x8E: 'Ž',
	0x91: '‘', // left single quotation mark
	0x92: '’', // right single quotation mark
	0x93: '“', // left double quotation mark
	0x94: '”', // right double quotation mark
	0x95: '•',
	0x96: '–', // en dash
	0x97: '—', // em dash
	0x98: '˜',
	0x99: '™',
	0x9A: 'š',
	0x9B: '›',
	0x9C: 'œ',
	0x9E: 'ž',
	0x9F: 'Ÿ',
}

func rewriteSmartBytes(text string) string {
	if !strings.ContainsFunc(text, func(r rune) bool { return r >= 0x80 && r <= 0x9F }) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if sub, ok := smartBytes[r]; ok {
			b.WriteRune(sub)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
