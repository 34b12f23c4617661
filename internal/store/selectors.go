package store

import (
	"slices"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
	"github.com/vectorforge/canvas/internal/interaction"
	"github.com/vectorforge/canvas/internal/scene"
)

func SelectedLayerIDs(s State) []string {
	return slices.Clone(s.SelectedLayerIDs)
}

func HighlightedLayerID(s State) string { return s.HighlightedLayerID }

func InteractionMode(s State) interaction.Mode {
	if s.Interaction == nil {
		return interaction.ModeNone
	}
	return s.Interaction.Mode()
}

func Cursor(s State) string {
	return interaction.Cursor(s.Interaction)
}

// SceneGraph resolves the active page of s.
func SceneGraph(s State) *scene.SceneGraph {
	if s.Document == nil {
		return scene.NewSceneGraph(s.PageID)
	}
	return scene.BuildSceneGraph(s.Document, s.PageID)
}

// SelectionBounds returns the world bounding box of the selection, or an
// empty rect when nothing is selected.
func SelectionBounds(s State, sg *scene.SceneGraph) geometry.Rect {
	return sg.SelectionBounds(s.SelectedLayerIDs)
}

// EditableSelection returns the selected layers that canvas gestures act on:
// the ones that are visible and not locked.
func EditableSelection(s State, sg *scene.SceneGraph) []string {
	var ids []string
	for _, id := range s.SelectedLayerIDs {
		if n := sg.Node(id); n != nil && n.Visible && !n.Locked {
			ids = append(ids, id)
		}
	}
	return ids
}

// ShouldConstrain reports whether a resize keeps the aspect ratio: when the
// shift modifier is held or any selected layer asks for it.
func ShouldConstrain(s State, shift bool) bool {
	if shift {
		return true
	}
	if s.Document == nil {
		return false
	}
	return slices.ContainsFunc(s.SelectedLayerIDs, func(id string) bool {
		l, ok := s.Document.Layer(id)
		return ok && l.Frame.ConstrainProportions
	})
}

// PendingEdit returns the document edit that the gesture in progress would
// commit on release: a move while moving, a resize while scaling.
func PendingEdit(s State, sg *scene.SceneGraph, constrain bool) (Action, bool) {
	switch st := s.Interaction.(type) {
	case interaction.Moving:
		ids := EditableSelection(s, sg)
		if len(ids) == 0 {
			return nil, false
		}
		return MoveLayers{IDs: ids, Delta: st.Current.Sub(st.Origin)}, true

	case interaction.Scaling:
		ids := EditableSelection(s, sg)
		if len(ids) == 0 {
			return nil, false
		}
		from := sg.HandleBounds(ids)
		to := geometry.ResizeRect(from, st.Direction, st.Current.Sub(st.Origin), constrain)
		return ScaleLayers{IDs: ids, From: from, To: to}, true
	}
	return nil, false
}

// Projected returns the document as it would look if the gesture in progress
// were released now. Outside a move or resize it is the present document.
func Projected(s State, constrain bool) *document.Document {
	if s.Document == nil {
		return nil
	}
	edit, ok := PendingEdit(s, SceneGraph(s), constrain)
	if !ok {
		return s.Document
	}
	return Reduce(s, edit).Document
}
