package soup

import (
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html/atom"
)

const whitespace = " \t\r\n\f"

// An Assembler consumes builder events and maintains the live document tree
// over an explicit stack of open elements. It applies the active backend's
// policies (case folding, void tags, duplicate attributes, whitespace) and
// the optional strainer as nodes arrive.
//
// One Assembler builds one document. It accepts no events after
// EndOfDocument.
type Assembler struct {
	doc      *Node
	oe       nodeStack
	policies *BuilderPolicies
	strainer *Strainer
	logger   *slog.Logger

	// suppressed holds the names of open elements inside a
	// strainer-rejected subtree, the rejected element first. While it is
	// non-empty all events are discarded, but close tags still follow the
	// usual recovery rules so malformed markup cannot leak the rejected
	// subtree into the tree or swallow content after it.
	suppressed []string

	// keepDepth counts open elements inside a strainer-accepted subtree.
	// The strainer is consulted only when it is zero.
	keepDepth int

	closed bool

	// encoding is recorded onto the document at close-out.
	encoding string
}

// NewAssembler returns an Assembler applying the given policies and
// optional strainer. A nil logger discards diagnostics.
func NewAssembler(policies *BuilderPolicies, strainer *Strainer, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Assembler{
		doc:      &Node{Type: DocumentNode},
		policies: policies,
		strainer: strainer,
		logger:   logger,
	}
}

// Document returns the tree built so far. It is valid at any point: events
// already delivered are never rolled back, so after a backend failure the
// partial tree is still usable.
func (m *Assembler) Document() *Node {
	return m.doc
}

// SetEncoding records the detected source encoding, applied to the document
// at close-out.
func (m *Assembler) SetEncoding(name string) {
	m.encoding = name
}

func (m *Assembler) top() *Node {
	if n := m.oe.top(); n != nil {
		return n
	}
	return m.doc
}

func (m *Assembler) fold(name string) string {
	if m.policies.FoldCase {
		return strings.ToLower(name)
	}
	return name
}

// resolveAttrs folds attribute keys and resolves duplicates per policy. The
// surviving attribute keeps the position of the first occurrence.
func (m *Assembler) resolveAttrs(attrs []Attribute) []Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attribute, 0, len(attrs))
	seen := make(map[string]int, len(attrs))
	for _, a := range attrs {
		key := m.fold(a.Key)
		if i, ok := seen[key]; ok {
			if m.policies.DuplicateAttrs == KeepLast {
				out[i].Val = a.Val
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, Attribute{Key: key, Val: a.Val})
	}
	return out
}

// StartElement handles an open tag. A self-closing hint makes the element
// void unless its name is on the never-void denylist, in which case the
// element opens and closes immediately and takes no children.
func (m *Assembler) StartElement(name string, attrs []Attribute, selfClosing bool) {
	if m.closed {
		return
	}
	name = m.fold(name)
	void := m.policies.VoidTags[name] || (selfClosing && !m.policies.NeverVoidTags[name])
	childless := void || selfClosing

	if len(m.suppressed) > 0 {
		if !childless {
			m.suppressed = append(m.suppressed, name)
		}
		return
	}
	if m.strainer != nil && m.keepDepth == 0 && !m.strainer.MatchesElement(name, attrs) {
		if !childless {
			m.suppressed = append(m.suppressed, name)
		}
		return
	}

	parent := m.top()
	n := &Node{
		Type:               ElementNode,
		DataAtom:           atom.Lookup([]byte(name)),
		Data:               name,
		Attr:               m.resolveAttrs(attrs),
		Empty:              void,
		PreserveWhitespace: m.policies.PreserveWhitespaceTags[name] || parent.PreserveWhitespace,
		Opaque:             m.policies.RawTextTags[name],
	}
	markCharsetMeta(n)
	parent.AppendChild(n)

	if !childless {
		m.oe = append(m.oe, n)
		if m.strainer != nil {
			m.keepDepth++
		}
	}
}

// EndElement handles a close tag. If the name does not match the stack top,
// open elements are auto-closed up the stack until a match; a close tag
// matching nothing on the stack is ignored.
func (m *Assembler) EndElement(name string) {
	if m.closed {
		return
	}
	name = m.fold(name)
	if len(m.suppressed) > 0 {
		// Same recovery as below, over the suppressed names: close the
		// innermost matching element and everything it auto-closes, or
		// ignore the tag when nothing matches.
		for i := len(m.suppressed) - 1; i >= 0; i-- {
			if m.suppressed[i] == name {
				m.suppressed = m.suppressed[:i]
				return
			}
		}
		return
	}
	i := m.oe.index(name)
	if i == -1 {
		m.logger.Debug("ignoring stray close tag", "tag", name)
		return
	}
	for len(m.oe) > i+1 {
		n := m.popElement()
		m.logger.Debug("auto-closing unclosed element", "tag", n.Data, "closedBy", name)
	}
	m.popElement()
}

func (m *Assembler) popElement() *Node {
	n := m.oe.pop()
	if m.strainer != nil {
		m.keepDepth--
	}
	return n
}

// Text handles character data. Outside preserve-whitespace elements, runs of
// whitespace collapse to a single space and the data merges with a preceding
// text sibling.
func (m *Assembler) Text(data string) {
	if m.closed || len(m.suppressed) > 0 {
		return
	}
	data = strings.ReplaceAll(data, "\x00", "")
	if data == "" {
		return
	}
	parent := m.top()
	collapse := !parent.PreserveWhitespace && !parent.Opaque
	if collapse {
		data = collapseWhitespace(data)
	}
	if m.strainer != nil && m.keepDepth == 0 {
		if !m.strainer.MatchesText(data) {
			return
		}
	}
	if last := parent.LastChild; last != nil && last.Type == TextNode {
		// A whitespace run split across two events must still collapse
		// to one space at the merge boundary.
		if collapse && strings.HasSuffix(last.Data, " ") {
			data = strings.TrimPrefix(data, " ")
		}
		last.Data += data
		return
	}
	parent.AppendChild(&Node{Type: TextNode, Data: data})
}

// Comment appends a comment node at the current position.
func (m *Assembler) Comment(data string) {
	m.addLeaf(CommentNode, data)
}

// Doctype appends the raw doctype text at the current position; arriving
// before any element content, that position is the front of the document.
func (m *Assembler) Doctype(data string) {
	m.addLeaf(DoctypeNode, data)
}

// Declaration appends a raw markup declaration at the current position.
func (m *Assembler) Declaration(data string) {
	m.addLeaf(DeclarationNode, data)
}

// ProcessingInstruction appends a processing instruction at the current
// position.
func (m *Assembler) ProcessingInstruction(data string) {
	m.addLeaf(ProcessingInstructionNode, data)
}

// CData appends a CDATA section at the current position. The payload is
// raw and is never entity-decoded.
func (m *Assembler) CData(data string) {
	if m.closed || len(m.suppressed) > 0 {
		return
	}
	if m.strainer != nil && m.keepDepth == 0 && !m.strainer.MatchesText(data) {
		return
	}
	m.top().AppendChild(&Node{Type: CDataNode, Data: data})
}

func (m *Assembler) addLeaf(t NodeType, data string) {
	if m.closed || len(m.suppressed) > 0 {
		return
	}
	if m.strainer != nil && m.keepDepth == 0 {
		return
	}
	m.top().AppendChild(&Node{Type: t, Data: data})
}

// EndOfDocument auto-closes all remaining open elements and finalizes the
// document. Further events are discarded.
func (m *Assembler) EndOfDocument() {
	if m.closed {
		return
	}
	for len(m.oe) > 0 {
		n := m.popElement()
		m.logger.Debug("auto-closing unclosed element at end of document", "tag", n.Data)
	}
	m.doc.OriginalEncoding = m.encoding
	m.suppressed = nil
	m.closed = true
}

// collapseWhitespace replaces every run of whitespace with a single space.
func collapseWhitespace(s string) string {
	if !strings.ContainsAny(s, whitespace) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if strings.ContainsRune(whitespace, r) {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}

// markCharsetMeta flags meta elements that declare the document charset so
// the serializer can substitute the output encoding at render time.
func markCharsetMeta(n *Node) {
	if n.Data != "meta" {
		return
	}
	if _, ok := n.Attribute("charset"); ok {
		n.ContainsSubstitutions = true
		return
	}
	if v, ok := n.Attribute("http-equiv"); ok && strings.EqualFold(v, "content-type") {
		if content, ok := n.Attribute("content"); ok && strings.Contains(strings.ToLower(content), "charset=") {
			n.ContainsSubstitutions = true
		}
	}
}
