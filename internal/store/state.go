package store

import (
	"slices"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
	"github.com/vectorforge/canvas/internal/interaction"
)

const (
	MinZoom = 0.1
	MaxZoom = 32.0
)

// Viewport maps document space onto the canvas: a document point p is drawn
// at (p * Zoom) + ScrollOrigin.
type Viewport struct {
	ScrollOrigin geometry.Point `json:"scrollOrigin"`
	Zoom         float64        `json:"zoom"`
}

// State is one immutable snapshot of the editor. Reducers return new values
// and never write through the Document pointer.
type State struct {
	Document           *document.Document
	PageID             string
	SelectedLayerIDs   []string
	HighlightedLayerID string
	Interaction        interaction.State
	Viewport           Viewport
}

// NewState opens doc on its first page.
func NewState(doc *document.Document) State {
	s := State{
		Document:    doc,
		Interaction: interaction.None{},
		Viewport:    Viewport{Zoom: 1},
	}
	if doc != nil && len(doc.Pages) > 0 {
		s.PageID = doc.Pages[0].ID
	}
	return s
}

// IsSelected reports whether id is part of the selection.
func (s State) IsSelected(id string) bool {
	return slices.Contains(s.SelectedLayerIDs, id)
}

// withoutTransients clears the parts of a state that must not survive in
// history: an in-flight gesture and the hover highlight.
func (s State) withoutTransients() State {
	s.Interaction = interaction.None{}
	s.HighlightedLayerID = ""
	return s
}

func (s State) differs(other State) bool {
	return s.Document != other.Document ||
		s.PageID != other.PageID ||
		!slices.Equal(s.SelectedLayerIDs, other.SelectedLayerIDs)
}
