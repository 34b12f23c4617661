// Package interaction holds the canvas interaction mode as a closed sum type
// and the pure transition function that advances it.
package interaction

import (
	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
)

// Mode names the active interaction state.
type Mode string

const (
	ModeNone            Mode = "none"
	ModeHoverHandle     Mode = "hoverHandle"
	ModePanMode         Mode = "panMode"
	ModeMaybePan        Mode = "maybePan"
	ModePanning         Mode = "panning"
	ModeMaybeMove       Mode = "maybeMove"
	ModeMoving          Mode = "moving"
	ModeMaybeScale      Mode = "maybeScale"
	ModeScaling         Mode = "scaling"
	ModeDrawing         Mode = "drawing"
	ModeMarquee         Mode = "marquee"
	ModeInsertArtboard  Mode = "insertArtboard"
	ModeInsertRectangle Mode = "insertRectangle"
	ModeInsertOval      Mode = "insertOval"
	ModeInsertText      Mode = "insertText"
)

// State is one variant of the interaction state. The set of variants is
// closed: only the types in this file implement it.
type State interface {
	Mode() Mode
	isState()
}

// None is the idle state.
type None struct{}

// HoverHandle is entered while the pointer rests over a resize handle.
type HoverHandle struct {
	Direction geometry.CompassDirection
}

// PanMode is the sticky hand tool.
type PanMode struct{}

// MaybePan is a press in pan mode that has not moved yet. Origin is in
// screen (canvas) coordinates because panning changes the document mapping.
type MaybePan struct {
	Origin geometry.Point
}

// Panning tracks the last screen point of an active pan gesture.
type Panning struct {
	Previous geometry.Point
}

// MaybeMove is a press on a layer that has not crossed the drag threshold.
type MaybeMove struct {
	Origin geometry.Point
}

// Moving drags the selection by Current - Origin.
type Moving struct {
	Origin  geometry.Point
	Current geometry.Point
}

// MaybeScale is a press on a resize handle that has not crossed the drag threshold.
type MaybeScale struct {
	Origin    geometry.Point
	Direction geometry.CompassDirection
}

// Scaling drags a resize handle by Current - Origin.
type Scaling struct {
	Origin    geometry.Point
	Current   geometry.Point
	Direction geometry.CompassDirection
}

// Drawing is an insert tool gesture. The rectangle spanned by Origin and
// Current is transient until the drawn layer is committed.
type Drawing struct {
	ShapeType document.LayerType
	LayerID   string
	Origin    geometry.Point
	Current   geometry.Point
}

// Rect returns the rectangle drawn so far.
func (d Drawing) Rect() geometry.Rect {
	return geometry.RectFromPoints(d.Origin, d.Current)
}

// Marquee is a rubber-band selection gesture.
type Marquee struct {
	Origin  geometry.Point
	Current geometry.Point
}

// Rect returns the marquee rectangle.
func (m Marquee) Rect() geometry.Rect {
	return geometry.RectFromPoints(m.Origin, m.Current)
}

// Insert is an armed insert tool waiting for a press.
type Insert struct {
	ShapeType document.LayerType
}

func (None) Mode() Mode        { return ModeNone }
func (HoverHandle) Mode() Mode { return ModeHoverHandle }
func (PanMode) Mode() Mode     { return ModePanMode }
func (MaybePan) Mode() Mode    { return ModeMaybePan }
func (Panning) Mode() Mode     { return ModePanning }
func (MaybeMove) Mode() Mode   { return ModeMaybeMove }
func (Moving) Mode() Mode      { return ModeMoving }
func (MaybeScale) Mode() Mode  { return ModeMaybeScale }
func (Scaling) Mode() Mode     { return ModeScaling }
func (Drawing) Mode() Mode     { return ModeDrawing }
func (Marquee) Mode() Mode     { return ModeMarquee }

func (i Insert) Mode() Mode {
	switch i.ShapeType {
	case document.LayerTypeArtboard:
		return ModeInsertArtboard
	case document.LayerTypeOval:
		return ModeInsertOval
	case document.LayerTypeText:
		return ModeInsertText
	default:
		return ModeInsertRectangle
	}
}

func (None) isState()        {}
func (HoverHandle) isState() {}
func (PanMode) isState()     {}
func (MaybePan) isState()    {}
func (Panning) isState()     {}
func (MaybeMove) isState()   {}
func (Moving) isState()      {}
func (MaybeScale) isState()  {}
func (Scaling) isState()     {}
func (Drawing) isState()     {}
func (Marquee) isState()     {}
func (Insert) isState()      {}

// Insertable reports whether the layer type has an insert tool.
func Insertable(t document.LayerType) bool {
	switch t {
	case document.LayerTypeArtboard, document.LayerTypeRectangle,
		document.LayerTypeOval, document.LayerTypeText:
		return true
	}
	return false
}

// RequiresCapture reports whether the state is a drag that must keep
// receiving pointer events outside the canvas.
func RequiresCapture(s State) bool {
	switch s.(type) {
	case Moving, Scaling, Drawing, Marquee, Panning:
		return true
	}
	return false
}

// Cursor returns the CSS cursor for the state.
func Cursor(s State) string {
	switch s := s.(type) {
	case HoverHandle:
		return s.Direction.Cursor()
	case MaybeScale:
		return s.Direction.Cursor()
	case Scaling:
		return s.Direction.Cursor()
	case PanMode, MaybePan:
		return "grab"
	case Panning:
		return "grabbing"
	case Moving:
		return "move"
	case Insert, Drawing:
		return "crosshair"
	default:
		return "default"
	}
}
