package soup

import (
	"testing"
)

func textNode(s string) *Node    { return &Node{Type: TextNode, Data: s} }
func elemNode(name string) *Node { return &Node{Type: ElementNode, Data: name} }

func checkLinks(t *testing.T, parent *Node) {
	t.Helper()
	var prev *Node
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Parent != parent {
			t.Errorf("child %q has parent %v, want %v", c.Data, c.Parent, parent)
		}
		if c.PrevSibling != prev {
			t.Errorf("child %q has prev %v, want %v", c.Data, c.PrevSibling, prev)
		}
		prev = c
	}
	if parent.LastChild != prev {
		t.Errorf("last child is %v, want %v", parent.LastChild, prev)
	}
}

func TestAppendChild(t *testing.T) {
	p := elemNode("div")
	a, b, c := textNode("a"), elemNode("b"), textNode("c")
	p.AppendChild(a)
	p.AppendChild(b)
	p.AppendChild(c)
	checkLinks(t, p)
	if p.FirstChild != a || p.LastChild != c {
		t.Errorf("got first=%v last=%v", p.FirstChild, p.LastChild)
	}
}

func TestAppendChildAttached(t *testing.T) {
	p := elemNode("div")
	c := textNode("x")
	p.AppendChild(c)
	defer func() {
		if recover() == nil {
			t.Error("expected panic appending an attached child")
		}
	}()
	elemNode("span").AppendChild(c)
}

func TestAppendChildEmptyElement(t *testing.T) {
	br := elemNode("br")
	br.Empty = true
	defer func() {
		if recover() == nil {
			t.Error("expected panic appending to an empty element")
		}
	}()
	br.AppendChild(textNode("x"))
}

func TestInsertBefore(t *testing.T) {
	p := elemNode("div")
	a, c := textNode("a"), textNode("c")
	p.AppendChild(a)
	p.AppendChild(c)
	b := elemNode("b")
	p.InsertBefore(b, c)
	checkLinks(t, p)
	if a.NextSibling != b || b.NextSibling != c {
		t.Error("InsertBefore did not place node between siblings")
	}
	d := textNode("d")
	p.InsertBefore(d, nil)
	checkLinks(t, p)
	if p.LastChild != d {
		t.Error("InsertBefore with nil oldChild did not append")
	}
}

func TestRemoveChild(t *testing.T) {
	p := elemNode("div")
	a, b, c := textNode("a"), elemNode("b"), textNode("c")
	p.AppendChild(a)
	p.AppendChild(b)
	p.AppendChild(c)
	p.RemoveChild(b)
	checkLinks(t, p)
	if b.Parent != nil || b.PrevSibling != nil || b.NextSibling != nil {
		t.Error("removed child keeps stale links")
	}
	if a.NextSibling != c {
		t.Error("siblings not relinked after removal")
	}
}

func TestClone(t *testing.T) {
	p := elemNode("div")
	p.Attr = []Attribute{{Key: "id", Val: "x"}}
	b := elemNode("b")
	b.AppendChild(textNode("bold"))
	p.AppendChild(b)

	q := p.Clone()
	if q.Parent != nil || q.PrevSibling != nil || q.NextSibling != nil {
		t.Error("clone must be detached")
	}
	checkLinks(t, q)
	checkLinks(t, q.FirstChild)
	if q.FirstChild == b {
		t.Error("clone aliases original children")
	}

	// Mutating the clone must not affect the original.
	q.Attr[0].Val = "y"
	q.FirstChild.FirstChild.Data = "changed"
	if p.Attr[0].Val != "x" || b.FirstChild.Data != "bold" {
		t.Error("mutating clone affected original")
	}
}

func TestSoleString(t *testing.T) {
	tests := []struct {
		name   string
		build  func() *Node
		want   string
		wantOK bool
	}{
		{
			name: "single",
			build: func() *Node {
				p := elemNode("b")
				p.AppendChild(textNode("bold"))
				return p
			},
			want:   "bold",
			wantOK: true,
		},
		{
			name: "nested",
			build: func() *Node {
				p := elemNode("p")
				b := elemNode("b")
				b.AppendChild(textNode("deep"))
				p.AppendChild(b)
				return p
			},
			want:   "deep",
			wantOK: true,
		},
		{
			name: "two strings",
			build: func() *Node {
				p := elemNode("p")
				p.AppendChild(textNode("a"))
				b := elemNode("b")
				b.AppendChild(textNode("c"))
				p.AppendChild(b)
				return p
			},
			wantOK: false,
		},
		{
			name: "whitespace between elements ignored",
			build: func() *Node {
				p := elemNode("div")
				p.AppendChild(textNode(" \n"))
				b := elemNode("b")
				b.AppendChild(textNode("x"))
				p.AppendChild(b)
				return p
			},
			want:   "x",
			wantOK: true,
		},
		{
			name: "only whitespace",
			build: func() *Node {
				p := elemNode("p")
				p.AppendChild(textNode("  \t"))
				return p
			},
			wantOK: false,
		},
		{
			name:   "no strings",
			build:  func() *Node { return elemNode("p") },
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.build().SoleString()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("SoleString() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAttribute(t *testing.T) {
	n := elemNode("a")
	n.Attr = []Attribute{{Key: "href", Val: "/x"}}
	if v, ok := n.Attribute("href"); !ok || v != "/x" {
		t.Errorf("Attribute(href) = %q, %v", v, ok)
	}
	if _, ok := n.Attribute("title"); ok {
		t.Error("Attribute(title) should be absent")
	}
}
