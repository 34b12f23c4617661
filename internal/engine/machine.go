package engine

import (
	"go.uber.org/zap"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
	"github.com/vectorforge/canvas/internal/interaction"
	"github.com/vectorforge/canvas/internal/scene"
	"github.com/vectorforge/canvas/internal/store"
)

// Modifiers is the keyboard modifier state carried by an input event.
type Modifiers struct {
	Shift bool `json:"shift"`
	Meta  bool `json:"meta"`
	Alt   bool `json:"alt"`
	Ctrl  bool `json:"ctrl"`
}

// clickThrough selects layers inside groups instead of the groups themselves.
func (m Modifiers) clickThrough() bool { return m.Meta || m.Alt }

func (m Modifiers) command() bool { return m.Meta || m.Ctrl }

// PointerEvent is a raw pointer event. Offsets are relative to the canvas
// element, before insets, scroll and zoom are applied.
type PointerEvent struct {
	OffsetX   float64   `json:"offsetX"`
	OffsetY   float64   `json:"offsetY"`
	PointerID int       `json:"pointerId"`
	Modifiers Modifiers `json:"modifiers"`
}

var toolKeys = map[string]document.LayerType{
	"a": document.LayerTypeArtboard,
	"r": document.LayerTypeRectangle,
	"o": document.LayerTypeOval,
	"t": document.LayerTypeText,
}

func act(a interaction.Action) store.Action {
	return store.Interaction{Action: a}
}

// handle runs one input event. At most one action is dispatched per event.
// Capture is reconciled afterwards even if the handler panics; in that case
// the gesture is abandoned first.
func (e *Engine) handle(pointerID int, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event handler panicked, resetting interaction", zap.Any("panic", r))
			e.store.Dispatch(store.Reset())
			e.reconcile(pointerID)
			panic(r)
		}
		e.reconcile(pointerID)
	}()
	fn()
}

func (e *Engine) reconcile(pointerID int) {
	e.capture.reconcile(e.store.Snapshot().Interaction, pointerID)
}

// PointerDown starts gestures. Presses on the sidebars are ignored.
func (e *Engine) PointerDown(ev PointerEvent) {
	e.handle(ev.PointerID, func() {
		e.modifiers = ev.Modifiers
		c := e.router.CanvasPoint(ev.OffsetX, ev.OffsetY)
		if !e.router.Visible(c) {
			return
		}
		if a := e.pointerDown(c, ev.Modifiers); a != nil {
			e.dispatch(a)
		}
	})
}

// PointerMove drives hover feedback and the gesture in progress. Moves are
// accepted outside the visible area so captured drags keep tracking.
func (e *Engine) PointerMove(ev PointerEvent) {
	e.handle(ev.PointerID, func() {
		e.modifiers = ev.Modifiers
		c := e.router.CanvasPoint(ev.OffsetX, ev.OffsetY)
		if a := e.pointerMove(c, ev.Modifiers); a != nil {
			e.dispatch(a)
		}
	})
}

// PointerUp commits or cancels the gesture in progress.
func (e *Engine) PointerUp(ev PointerEvent) {
	e.handle(ev.PointerID, func() {
		e.modifiers = ev.Modifiers
		c := e.router.CanvasPoint(ev.OffsetX, ev.OffsetY)
		if a := e.pointerUp(c, ev.Modifiers); a != nil {
			e.dispatch(a)
		}
	})
}

// KeyDown handles Escape, deletion, undo and tool shortcuts.
func (e *Engine) KeyDown(key string, mods Modifiers) {
	e.handle(e.capture.pointerID, func() {
		e.modifiers = mods
		s := e.store.Snapshot()

		switch {
		case key == "Escape":
			if store.InteractionMode(s) != interaction.ModeNone {
				e.dispatch(store.Reset())
			}
		case (key == "z" || key == "Z") && mods.command():
			if mods.Shift {
				e.store.Redo()
			} else {
				e.store.Undo()
			}
		case key == "Backspace" || key == "Delete":
			if isIdle(s.Interaction) && len(s.SelectedLayerIDs) > 0 {
				e.dispatch(store.DeleteLayers{IDs: store.SelectedLayerIDs(s)})
			}
		case mods.command():
		case key == "h":
			e.dispatch(act(interaction.TogglePanMode{}))
		default:
			if t, ok := toolKeys[key]; ok {
				e.dispatch(act(interaction.SelectInsertTool{ShapeType: t}))
			}
		}
	})
}

// SelectTool switches toolbar tools: an insertable layer type, "pan", or
// "select". Choosing the active insert or pan tool again turns it off.
func (e *Engine) SelectTool(tool string) {
	e.handle(e.capture.pointerID, func() {
		switch tool {
		case "pan":
			e.dispatch(act(interaction.TogglePanMode{}))
		case "select", "":
			switch e.store.Snapshot().Interaction.(type) {
			case interaction.Insert, interaction.PanMode:
				e.dispatch(store.Reset())
			}
		default:
			e.dispatch(act(interaction.SelectInsertTool{ShapeType: document.LayerType(tool)}))
		}
	})
}

func isIdle(s interaction.State) bool {
	switch s.(type) {
	case interaction.None, interaction.HoverHandle:
		return true
	}
	return false
}

func (e *Engine) pointerDown(c geometry.Point, mods Modifiers) store.Action {
	s := e.store.Snapshot()
	p := DocumentPoint(c, s.Viewport)

	switch s.Interaction.(type) {
	case interaction.PanMode:
		return act(interaction.PressPan{Origin: c})
	case interaction.Insert:
		return act(interaction.StartDrawing{LayerID: e.opts.NewLayerID(), Point: p})
	case interaction.None, interaction.HoverHandle:
		return e.press(s, p, mods)
	}
	return nil
}

// press resolves a press in the idle state. Resize handles of the selection
// take priority over layer bodies; a press on nothing starts a marquee.
func (e *Engine) press(s store.State, p geometry.Point, mods Modifiers) store.Action {
	sg := e.scene()
	editable := store.EditableSelection(s, sg)

	if len(editable) > 0 {
		if dir, ok := sg.ScaleDirectionAtPoint(editable, p, s.Viewport.Zoom); ok {
			return act(interaction.PressHandle{Origin: p, Direction: dir})
		}
	}

	id := sg.LayerAtPoint(p, scene.HitTestOptions{ClickThroughGroups: mods.clickThrough()})
	if id == "" {
		// Artboards never win a point hit, but once selected they can be dragged.
		id = selectedLayerAt(sg, editable, p)
	}
	if id == "" {
		return act(interaction.StartMarquee{Point: p})
	}

	pressLayer := act(interaction.PressLayer{Origin: p})
	switch {
	case !s.IsSelected(id):
		mode := store.SelectReplace
		if mods.Shift {
			mode = store.SelectIntersection
		}
		return store.Batch{Actions: []store.Action{
			store.SelectLayers{IDs: []string{id}, Mode: mode},
			pressLayer,
		}}
	case mods.Shift && len(s.SelectedLayerIDs) > 1:
		return store.SelectLayers{IDs: []string{id}, Mode: store.SelectDifference}
	default:
		return pressLayer
	}
}

func selectedLayerAt(sg *scene.SceneGraph, ids []string, p geometry.Point) string {
	var best *scene.SceneNode
	for _, id := range ids {
		n := sg.Node(id)
		if n == nil || !n.ContainsPoint(p) {
			continue
		}
		if best == nil || n.PaintIndex > best.PaintIndex {
			best = n
		}
	}
	if best == nil {
		return ""
	}
	return best.ID
}

func (e *Engine) pointerMove(c geometry.Point, mods Modifiers) store.Action {
	s := e.store.Snapshot()
	p := DocumentPoint(c, s.Viewport)
	threshold := e.opts.DragThreshold

	switch st := s.Interaction.(type) {
	case interaction.None, interaction.HoverHandle:
		return e.hover(s, c, p, mods)

	case interaction.MaybeMove:
		if geometry.ExceedsThreshold(st.Origin, p, threshold) {
			return act(interaction.StartMoving{Point: p})
		}
	case interaction.Moving:
		return act(interaction.UpdateMoving{Point: p})

	case interaction.MaybeScale:
		if geometry.ExceedsThreshold(st.Origin, p, threshold) {
			return act(interaction.StartScaling{Point: p})
		}
	case interaction.Scaling:
		return act(interaction.UpdateScaling{Point: p})

	case interaction.Drawing:
		return act(interaction.UpdateDrawing{Point: p})

	case interaction.Marquee:
		return act(interaction.UpdateMarquee{Point: p})

	case interaction.MaybePan:
		if geometry.ExceedsThreshold(st.Origin, c, threshold) {
			return store.Batch{Actions: []store.Action{
				act(interaction.StartPanning{Point: c}),
				store.Pan{Delta: c.Sub(st.Origin)},
			}}
		}
	case interaction.Panning:
		return store.Batch{Actions: []store.Action{
			store.Pan{Delta: c.Sub(st.Previous)},
			act(interaction.UpdatePanning{Point: c}),
		}}
	}
	return nil
}

// hover updates the handle under the pointer and the highlighted layer.
func (e *Engine) hover(s store.State, c, p geometry.Point, mods Modifiers) store.Action {
	sg := e.scene()

	var dir geometry.CompassDirection
	overHandle := false
	if editable := store.EditableSelection(s, sg); len(editable) > 0 {
		dir, overHandle = sg.ScaleDirectionAtPoint(editable, p, s.Viewport.Zoom)
	}

	highlight := ""
	if e.router.Visible(c) && !overHandle {
		highlight = sg.LayerAtPoint(p, scene.HitTestOptions{ClickThroughGroups: mods.clickThrough()})
	}

	current, hovering := s.Interaction.(interaction.HoverHandle)
	if overHandle == hovering && (!hovering || current.Direction == dir) && highlight == s.HighlightedLayerID {
		return nil
	}

	next := act(interaction.Reset{})
	if overHandle {
		next = act(interaction.HoverOverHandle{Direction: dir})
	}
	return store.Batch{Actions: []store.Action{next, store.SetHighlightedLayer{ID: highlight}}}
}

func (e *Engine) pointerUp(c geometry.Point, mods Modifiers) store.Action {
	s := e.store.Snapshot()
	p := DocumentPoint(c, s.Viewport)

	switch st := s.Interaction.(type) {
	case interaction.MaybeMove, interaction.MaybeScale:
		return store.Reset()

	case interaction.Moving:
		s.Interaction = interaction.Moving{Origin: st.Origin, Current: p}
		return e.commitEdit(s)

	case interaction.Scaling:
		s.Interaction = interaction.Scaling{Origin: st.Origin, Current: p, Direction: st.Direction}
		return e.commitEdit(s)

	case interaction.Drawing:
		return store.Commit{Actions: []store.Action{
			act(interaction.UpdateDrawing{Point: p}),
			store.AddDrawnLayer{},
		}}

	case interaction.Marquee:
		rect := geometry.RectFromPoints(st.Origin, p)
		ids := e.scene().LayersInRect(rect, scene.HitTestOptions{ClickThroughGroups: mods.clickThrough()})
		return store.Commit{Actions: []store.Action{
			store.SelectLayers{IDs: ids, Mode: store.SelectReplace},
			store.Reset(),
		}}

	case interaction.MaybePan:
		return act(interaction.ReleasePan{})

	case interaction.Panning:
		return store.Batch{Actions: []store.Action{
			store.Pan{Delta: c.Sub(st.Previous)},
			act(interaction.ReleasePan{}),
		}}
	}
	return nil
}

// commitEdit turns a finished move or resize into one recorded edit. When
// none of the selected layers exist anymore the gesture is dropped.
func (e *Engine) commitEdit(s store.State) store.Action {
	edit, ok := store.PendingEdit(s, e.scene(), store.ShouldConstrain(s, e.modifiers.Shift))
	if !ok {
		e.logger.Debug("dropped commit for missing layers",
			zap.String("mode", string(s.Interaction.Mode())),
			zap.Strings("selection", s.SelectedLayerIDs),
		)
		return store.Reset()
	}
	return store.Commit{Actions: []store.Action{edit, store.Reset()}}
}
