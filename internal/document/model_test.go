package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleDocumentIsValid(t *testing.T) {
	doc := NewSampleDocument("doc_sample")
	require.NoError(t, doc.Validate())
	assert.Len(t, doc.Pages, 1)
}

func TestValidateRejectsBrokenTrees(t *testing.T) {
	doc := NewEmptyDocument("doc_1", "Test", "page_1")
	doc.Pages[0].Layers = []string{"missing"}
	assert.ErrorIs(t, doc.Validate(), ErrInvalidDocument)

	doc = NewEmptyDocument("doc_1", "Test", "page_1")
	doc.Layers["orphan"] = Layer{ID: "orphan", Type: LayerTypeRectangle}
	assert.ErrorContains(t, doc.Validate(), "not reachable")

	doc = NewEmptyDocument("doc_1", "Test", "page_1")
	doc.Pages[0].Layers = []string{"r"}
	doc.Layers["r"] = Layer{ID: "r", Type: LayerTypeRectangle, Children: []string{"x"}}
	doc.Layers["x"] = Layer{ID: "x", Type: LayerTypeRectangle, Parent: "r"}
	assert.ErrorContains(t, doc.Validate(), "has children")
}

func TestPageOf(t *testing.T) {
	doc := NewSampleDocument("doc_sample")
	pageID := doc.Pages[0].ID
	artboardID := doc.Pages[0].Layers[0]
	groupID := doc.Layers[artboardID].Children[3]
	nested := doc.Layers[groupID].Children[0]

	assert.Equal(t, pageID, doc.PageOf(nested))
	assert.Equal(t, "", doc.PageOf("nope"))
}

func TestShallowCloneIsolatesArena(t *testing.T) {
	doc := NewSampleDocument("doc_sample")
	clone := doc.ShallowClone()

	id := doc.Pages[0].Layers[1]
	l := clone.Layers[id]
	l.Frame.X = 999
	clone.Layers[id] = l
	clone.Pages[0].Name = "Renamed"

	assert.NotEqual(t, 999.0, doc.Layers[id].Frame.X)
	assert.Equal(t, "Page 1", doc.Pages[0].Name)
}
