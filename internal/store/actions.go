package store

import (
	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
	"github.com/vectorforge/canvas/internal/interaction"
)

// Action is a request to change the editor state. Every action is applied by
// Reduce; none of them mutate state in place.
type Action interface {
	Name() string
}

// SelectionMode controls how SelectLayers combines ids with the selection.
type SelectionMode string

const (
	// SelectReplace makes the given ids the whole selection.
	SelectReplace SelectionMode = "replace"
	// SelectIntersection toggles each id: unselected ids are added, selected
	// ones removed.
	SelectIntersection SelectionMode = "intersection"
	// SelectDifference removes the given ids.
	SelectDifference SelectionMode = "difference"
)

// FrameField names an editable frame property.
type FrameField string

const (
	FieldX        FrameField = "x"
	FieldY        FrameField = "y"
	FieldWidth    FrameField = "width"
	FieldHeight   FrameField = "height"
	FieldRotation FrameField = "rotation"
)

// ValueMode says whether a value replaces the current one or is added to it.
type ValueMode string

const (
	ValueReplace ValueMode = "replace"
	ValueAdjust  ValueMode = "adjust"
)

type (
	// Interaction forwards a transition to the interaction state.
	Interaction struct {
		Action interaction.Action
	}

	SelectLayers struct {
		IDs  []string      `json:"ids"`
		Mode SelectionMode `json:"mode"`
	}

	SetHighlightedLayer struct {
		ID string `json:"id"`
	}

	// AddDrawnLayer commits the layer described by the current Drawing state.
	AddDrawnLayer struct{}

	// InsertLayer adds a fully described layer. It is how a drawn layer is
	// replayed on other replicas, which never saw the drawing gesture.
	InsertLayer struct {
		Layer    document.Layer `json:"layer"`
		ParentID string         `json:"parentId,omitempty"`
		PageID   string         `json:"pageId"`
	}

	// MoveLayers translates layers by a document-space delta.
	MoveLayers struct {
		IDs   []string       `json:"ids"`
		Delta geometry.Point `json:"delta"`
	}

	// ScaleLayers maps layers from one document-space box onto another.
	ScaleLayers struct {
		IDs  []string      `json:"ids"`
		From geometry.Rect `json:"from"`
		To   geometry.Rect `json:"to"`
	}

	// SetLayerFrameValue edits one frame field of every selected layer.
	SetLayerFrameValue struct {
		Field FrameField `json:"field"`
		Value float64    `json:"value"`
		Mode  ValueMode  `json:"mode"`
	}

	// SetLayerFrames replaces whole frames. It is the replayable form of an
	// inspector edit, which otherwise depends on the local selection.
	SetLayerFrames struct {
		Frames map[string]document.Frame `json:"frames"`
	}

	SetLayerVisible struct {
		IDs     []string `json:"ids"`
		Visible bool     `json:"visible"`
	}

	SetLayerLocked struct {
		IDs    []string `json:"ids"`
		Locked bool     `json:"locked"`
	}

	SetConstrainProportions struct {
		IDs   []string `json:"ids"`
		Value bool     `json:"value"`
	}

	FlipLayers struct {
		IDs        []string `json:"ids"`
		Horizontal bool     `json:"horizontal"`
	}

	DeleteLayers struct {
		IDs []string `json:"ids"`
	}

	SelectPage struct {
		PageID string `json:"pageId"`
	}

	SetZoom struct {
		Zoom float64 `json:"zoom"`
	}

	// Pan scrolls the viewport by a screen-space delta.
	Pan struct {
		Delta geometry.Point `json:"delta"`
	}

	// Batch applies several actions as one dispatch. It is recorded in history
	// when any member is.
	Batch struct {
		Actions []Action
	}

	// Commit applies several actions as one dispatch and always records a
	// history entry when the result differs from the starting state.
	Commit struct {
		Actions []Action
	}
)

func (Interaction) Name() string             { return "interaction" }
func (SelectLayers) Name() string            { return "selectLayer" }
func (SetHighlightedLayer) Name() string     { return "highlightLayer" }
func (AddDrawnLayer) Name() string           { return "addDrawnLayer" }
func (InsertLayer) Name() string             { return "insertLayer" }
func (MoveLayers) Name() string              { return "moveLayers" }
func (ScaleLayers) Name() string             { return "scaleLayers" }
func (SetLayerFrames) Name() string          { return "setLayerFrames" }
func (SetLayerVisible) Name() string         { return "setLayerVisible" }
func (SetLayerLocked) Name() string          { return "setLayerLocked" }
func (SetConstrainProportions) Name() string { return "setConstrainProportions" }
func (FlipLayers) Name() string              { return "flipLayers" }
func (DeleteLayers) Name() string            { return "deleteLayers" }
func (SelectPage) Name() string              { return "selectPage" }
func (SetZoom) Name() string                 { return "setZoom" }
func (Pan) Name() string                     { return "pan" }
func (Batch) Name() string                   { return "batch" }
func (Commit) Name() string                  { return "commit" }

func (a SetLayerFrameValue) Name() string {
	switch a.Field {
	case FieldX:
		return "setLayerX"
	case FieldY:
		return "setLayerY"
	case FieldWidth:
		return "setLayerWidth"
	case FieldHeight:
		return "setLayerHeight"
	default:
		return "setLayerRotation"
	}
}

// Records reports whether dispatching the action creates an undo entry.
// Document edits are recorded; selection, hover, viewport and interaction
// changes are not, unless wrapped in a Commit.
func Records(a Action) bool {
	switch a := a.(type) {
	case AddDrawnLayer, InsertLayer, MoveLayers, ScaleLayers, SetLayerFrameValue, SetLayerFrames,
		SetLayerVisible, SetLayerLocked, SetConstrainProportions, FlipLayers, DeleteLayers:
		return true
	case Commit:
		return true
	case Batch:
		for _, inner := range a.Actions {
			if Records(inner) {
				return true
			}
		}
	}
	return false
}

// Reset is shorthand for the interaction reset action.
func Reset() Action {
	return Interaction{Action: interaction.Reset{}}
}
