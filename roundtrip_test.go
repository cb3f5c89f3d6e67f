package soup

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func dumpIndent(w io.Writer, level int) {
	_, _ = io.WriteString(w, "| ")
	for i := 0; i < level; i++ {
		_, _ = io.WriteString(w, "  ")
	}
}

func dumpLevel(w io.Writer, n *Node, level int) {
	dumpIndent(w, level)
	switch n.Type {
	case ElementNode:
		fmt.Fprintf(w, "<%s>", n.Data)
		for _, a := range n.Attr {
			fmt.Fprintf(w, " %s=%q", a.Key, a.Val)
		}
		if n.Empty {
			fmt.Fprint(w, " /")
		}
	case TextNode:
		fmt.Fprintf(w, "%q", n.Data)
	case CommentNode:
		fmt.Fprintf(w, "<!-- %s -->", n.Data)
	case DoctypeNode:
		fmt.Fprintf(w, "<!DOCTYPE %s>", n.Data)
	case CDataNode:
		fmt.Fprintf(w, "<![CDATA[%s]]>", n.Data)
	case ProcessingInstructionNode:
		fmt.Fprintf(w, "<?%s?>", n.Data)
	case DeclarationNode:
		fmt.Fprintf(w, "<!%s>", n.Data)
	}
	_, _ = io.WriteString(w, "\n")
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dumpLevel(w, c, level+1)
	}
}

// dump renders the tree shape, ignoring OriginalEncoding metadata, for
// structural comparison.
func dump(doc *Node) string {
	var b strings.Builder
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		dumpLevel(&b, c, 0)
	}
	return b.String()
}

func TestRoundTripStability(t *testing.T) {
	docs := []struct {
		name     string
		markup   string
		backends []string
	}{
		{
			name:   "mixed content",
			markup: `<!DOCTYPE html><div id="m">A <b>bold</b> text<br><img src="x.png"></div>`,
		},
		{
			name:   "whitespace",
			markup: "<div> a \n b <pre> keep\n  this </pre></div>",
		},
		{
			name:   "script and comments",
			markup: `<!-- c --><script>a < b && c</script><p title="&quot;q&quot;">t</p>`,
		},
		{
			name:   "self closed p",
			markup: `<p/>x`,
		},
		{
			name:     "xml",
			markup:   `<?xml version="1.0"?><Catalog><Item Id="1">caf&#233;</Item></Catalog>`,
			backends: []string{"xml"},
		},
		{
			name:     "html5",
			markup:   `<!DOCTYPE html><table><tr><td>1<td>2</table>`,
			backends: []string{"html5"},
		},
	}
	for _, tt := range docs {
		t.Run(tt.name, func(t *testing.T) {
			opts := &Options{Backends: tt.backends}

			first, err := ParseText(tt.markup, opts)
			require.NoError(t, err)
			out1, err := RenderString(first, RenderOptions{})
			require.NoError(t, err)

			second, err := ParseText(out1, opts)
			require.NoError(t, err)
			out2, err := RenderString(second, RenderOptions{})
			require.NoError(t, err)

			if diff := cmp.Diff(dump(first), dump(second)); diff != "" {
				t.Errorf("tree changed across round trip (-first +second):\n%s", diff)
			}
			require.Equal(t, out1, out2, "serialized form must be stable")
		})
	}
}

func TestRoundTripEncodedBytes(t *testing.T) {
	data := []byte("<p>d\xe9j\xe0 vu</p>")
	doc, err := Parse(data, &Options{FromEncoding: "iso-8859-1"})
	require.NoError(t, err)

	out, err := Serialize(doc, "utf-8", FormatMinimal)
	require.NoError(t, err)
	require.Equal(t, "<p>déjà vu</p>", string(out))

	again, err := Parse(out, nil)
	require.NoError(t, err)
	require.Equal(t, "utf-8", again.OriginalEncoding)
	if diff := cmp.Diff(dump(doc), dump(again)); diff != "" {
		t.Errorf("tree changed across re-encode (-first +second):\n%s", diff)
	}
}
