package interaction

import (
	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
)

// Action is a transition request for the interaction state.
type Action interface {
	isAction()
}

type (
	// Reset abandons any gesture and returns to None.
	Reset struct{}

	// SelectInsertTool arms an insert tool, or disarms it if already armed.
	SelectInsertTool struct{ ShapeType document.LayerType }

	// TogglePanMode enters or leaves the sticky hand tool.
	TogglePanMode struct{}

	// HoverOverHandle records the handle under the pointer.
	HoverOverHandle struct{ Direction geometry.CompassDirection }

	// PressLayer starts a potential move.
	PressLayer struct{ Origin geometry.Point }

	StartMoving  struct{ Point geometry.Point }
	UpdateMoving struct{ Point geometry.Point }

	// PressHandle starts a potential resize.
	PressHandle struct {
		Origin    geometry.Point
		Direction geometry.CompassDirection
	}

	StartScaling  struct{ Point geometry.Point }
	UpdateScaling struct{ Point geometry.Point }

	// StartDrawing begins drawing a new layer with the armed insert tool.
	StartDrawing struct {
		LayerID string
		Point   geometry.Point
	}

	UpdateDrawing struct{ Point geometry.Point }
	StartMarquee  struct{ Point geometry.Point }
	UpdateMarquee struct{ Point geometry.Point }

	// PressPan starts a potential pan in pan mode.
	PressPan struct{ Origin geometry.Point }

	StartPanning  struct{ Point geometry.Point }
	UpdatePanning struct{ Point geometry.Point }

	// ReleasePan ends a pan gesture and stays in pan mode.
	ReleasePan struct{}
)

func (Reset) isAction()            {}
func (SelectInsertTool) isAction() {}
func (TogglePanMode) isAction()    {}
func (HoverOverHandle) isAction()  {}
func (PressLayer) isAction()       {}
func (StartMoving) isAction()      {}
func (UpdateMoving) isAction()     {}
func (PressHandle) isAction()      {}
func (StartScaling) isAction()     {}
func (UpdateScaling) isAction()    {}
func (StartDrawing) isAction()     {}
func (UpdateDrawing) isAction()    {}
func (StartMarquee) isAction()     {}
func (UpdateMarquee) isAction()    {}
func (PressPan) isAction()         {}
func (StartPanning) isAction()     {}
func (UpdatePanning) isAction()    {}
func (ReleasePan) isAction()       {}

// idle reports whether a new gesture may begin from s.
func idle(s State) bool {
	switch s.(type) {
	case None, HoverHandle:
		return true
	}
	return false
}

// Reduce applies a transition. It is total: an action that has no edge from
// the current state returns the state unchanged.
func Reduce(state State, action Action) State {
	if state == nil {
		state = None{}
	}

	switch a := action.(type) {
	case Reset:
		return None{}

	case SelectInsertTool:
		if !Insertable(a.ShapeType) {
			return state
		}
		switch s := state.(type) {
		case Insert:
			if s.ShapeType == a.ShapeType {
				return None{}
			}
			return Insert{ShapeType: a.ShapeType}
		case None, HoverHandle, PanMode:
			return Insert{ShapeType: a.ShapeType}
		}

	case TogglePanMode:
		switch state.(type) {
		case PanMode:
			return None{}
		case None, HoverHandle, Insert:
			return PanMode{}
		}

	case HoverOverHandle:
		if idle(state) {
			return HoverHandle{Direction: a.Direction}
		}

	case PressLayer:
		if idle(state) {
			return MaybeMove{Origin: a.Origin}
		}

	case StartMoving:
		if s, ok := state.(MaybeMove); ok {
			return Moving{Origin: s.Origin, Current: a.Point}
		}

	case UpdateMoving:
		if s, ok := state.(Moving); ok {
			return Moving{Origin: s.Origin, Current: a.Point}
		}

	case PressHandle:
		if idle(state) {
			return MaybeScale{Origin: a.Origin, Direction: a.Direction}
		}

	case StartScaling:
		if s, ok := state.(MaybeScale); ok {
			return Scaling{Origin: s.Origin, Current: a.Point, Direction: s.Direction}
		}

	case UpdateScaling:
		if s, ok := state.(Scaling); ok {
			return Scaling{Origin: s.Origin, Current: a.Point, Direction: s.Direction}
		}

	case StartDrawing:
		if s, ok := state.(Insert); ok {
			return Drawing{ShapeType: s.ShapeType, LayerID: a.LayerID, Origin: a.Point, Current: a.Point}
		}

	case UpdateDrawing:
		if s, ok := state.(Drawing); ok {
			s.Current = a.Point
			return s
		}

	case StartMarquee:
		if idle(state) {
			return Marquee{Origin: a.Point, Current: a.Point}
		}

	case UpdateMarquee:
		if s, ok := state.(Marquee); ok {
			return Marquee{Origin: s.Origin, Current: a.Point}
		}

	case PressPan:
		if _, ok := state.(PanMode); ok {
			return MaybePan{Origin: a.Origin}
		}

	case StartPanning:
		if _, ok := state.(MaybePan); ok {
			return Panning{Previous: a.Point}
		}

	case UpdatePanning:
		if _, ok := state.(Panning); ok {
			return Panning{Previous: a.Point}
		}

	case ReleasePan:
		switch state.(type) {
		case MaybePan, Panning:
			return PanMode{}
		}
	}

	return state
}
