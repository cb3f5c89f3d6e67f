package soup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	pe := newParseError("xml", cause, &Node{Type: DocumentNode})
	assert.ErrorIs(t, pe, cause)
	assert.Equal(t, "soup: xml: boom", pe.Error())
}

func TestParseErrorMarkupContext(t *testing.T) {
	doc, err := ParseText(`<div><p>one</p><p>two</p><p>three</p><span>here</span></div>`, nil)
	require.NoError(t, err)

	pe := newParseError("htmltok", errors.New("boom"), doc)
	ctx := pe.MarkupContext()
	assert.Contains(t, ctx, "here")
	assert.Contains(t, ctx, "<div>")
	assert.Contains(t, ctx, "...")
	assert.NotContains(t, ctx, "one")
}

func TestParseErrorEmptyDocument(t *testing.T) {
	pe := newParseError("xml", errors.New("boom"), &Node{Type: DocumentNode})
	assert.Empty(t, pe.MarkupContext())
}
