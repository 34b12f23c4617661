package store

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
	"github.com/vectorforge/canvas/internal/interaction"
	"github.com/vectorforge/canvas/internal/scene"
)

// Reduce applies an action to a state and returns the next state. It never
// modifies its input: documents are edited copy-on-write, and a state that an
// action does not change is returned as is.
func Reduce(s State, action Action) State {
	switch a := action.(type) {
	case Interaction:
		s.Interaction = interaction.Reduce(s.Interaction, a.Action)
		return s

	case Batch:
		for _, inner := range a.Actions {
			s = Reduce(s, inner)
		}
		return s

	case Commit:
		for _, inner := range a.Actions {
			s = Reduce(s, inner)
		}
		return s

	case SelectLayers:
		s.SelectedLayerIDs = selectLayers(s, a.IDs, a.Mode)
		return s

	case SetHighlightedLayer:
		if a.ID != "" && !layerOnPage(s, a.ID) {
			a.ID = ""
		}
		s.HighlightedLayerID = a.ID
		return s

	case SelectPage:
		if s.PageID == a.PageID || s.Document == nil {
			return s
		}
		if _, ok := s.Document.Page(a.PageID); !ok {
			return s
		}
		s.PageID = a.PageID
		s.SelectedLayerIDs = nil
		s.HighlightedLayerID = ""
		s.Interaction = interaction.None{}
		return s

	case SetZoom:
		if a.Zoom <= 0 || math.IsNaN(a.Zoom) {
			return s
		}
		s.Viewport.Zoom = min(max(a.Zoom, MinZoom), MaxZoom)
		return s

	case Pan:
		s.Viewport.ScrollOrigin = s.Viewport.ScrollOrigin.Add(a.Delta)
		return s
	}

	if s.Document == nil {
		return s
	}
	e := newEditor(s.Document)

	switch a := action.(type) {
	case AddDrawnLayer:
		drawing, ok := s.Interaction.(interaction.Drawing)
		if !ok {
			return s
		}
		if id := addDrawnLayer(e, s.PageID, drawing); id != "" {
			s.SelectedLayerIDs = []string{id}
		}
		s.Interaction = interaction.None{}

	case InsertLayer:
		insertLayer(e, a)

	case MoveLayers:
		moveLayers(e, s.PageID, a.IDs, a.Delta)

	case ScaleLayers:
		scaleLayers(e, s.PageID, a.IDs, a.From, a.To)

	case SetLayerFrameValue:
		for _, id := range s.SelectedLayerIDs {
			e.update(id, func(l *document.Layer) { setFrameValue(&l.Frame, a) })
		}

	case SetLayerFrames:
		for id, frame := range a.Frames {
			e.update(id, func(l *document.Layer) { l.Frame = frame })
		}

	case SetLayerVisible:
		for _, id := range a.IDs {
			e.update(id, func(l *document.Layer) { l.Visible = a.Visible })
		}

	case SetLayerLocked:
		for _, id := range a.IDs {
			e.update(id, func(l *document.Layer) { l.Locked = a.Locked })
		}

	case SetConstrainProportions:
		for _, id := range a.IDs {
			e.update(id, func(l *document.Layer) { l.Frame.ConstrainProportions = a.Value })
		}

	case FlipLayers:
		for _, id := range a.IDs {
			e.update(id, func(l *document.Layer) {
				if a.Horizontal {
					l.Frame.IsFlippedHorizontal = !l.Frame.IsFlippedHorizontal
				} else {
					l.Frame.IsFlippedVertical = !l.Frame.IsFlippedVertical
				}
			})
		}

	case DeleteLayers:
		for _, id := range a.IDs {
			e.remove(id)
		}

	default:
		return s
	}

	if e.changed() {
		s.Document = e.result()
		s = pruneSelection(s)
	}
	return s
}

func layerOnPage(s State, id string) bool {
	if s.Document == nil {
		return false
	}
	return s.Document.PageOf(id) == s.PageID && s.PageID != ""
}

func selectLayers(s State, ids []string, mode SelectionMode) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if layerOnPage(s, id) && !slices.Contains(valid, id) {
			valid = append(valid, id)
		}
	}

	switch mode {
	case SelectIntersection:
		next := slices.Clone(s.SelectedLayerIDs)
		for _, id := range valid {
			if i := slices.Index(next, id); i >= 0 {
				next = slices.Delete(next, i, i+1)
			} else {
				next = append(next, id)
			}
		}
		return next
	case SelectDifference:
		return slices.DeleteFunc(slices.Clone(s.SelectedLayerIDs), func(id string) bool {
			return slices.Contains(valid, id)
		})
	default:
		return valid
	}
}

// pruneSelection drops ids that no longer name a layer on the active page.
func pruneSelection(s State) State {
	if slices.ContainsFunc(s.SelectedLayerIDs, func(id string) bool { return !layerOnPage(s, id) }) {
		s.SelectedLayerIDs = slices.DeleteFunc(slices.Clone(s.SelectedLayerIDs), func(id string) bool {
			return !layerOnPage(s, id)
		})
	}
	if s.HighlightedLayerID != "" && !layerOnPage(s, s.HighlightedLayerID) {
		s.HighlightedLayerID = ""
	}
	return s
}

// topLevelTargets drops unknown ids and ids whose ancestor is also a target,
// so a layer is transformed once even when its container is selected too.
func topLevelTargets(sg *scene.SceneGraph, ids []string) []string {
	var out []string
	for _, id := range ids {
		if !sg.Contains(id) || slices.Contains(out, id) {
			continue
		}
		covered := slices.ContainsFunc(sg.Ancestors(id), func(a string) bool {
			return slices.Contains(ids, a)
		})
		if !covered {
			out = append(out, id)
		}
	}
	return out
}

func moveLayers(e *editor, pageID string, ids []string, delta geometry.Point) {
	if delta == (geometry.Point{}) {
		return
	}
	sg := scene.BuildSceneGraph(e.current(), pageID)
	for _, id := range topLevelTargets(sg, ids) {
		local := sg.ParentTransform(id).Invert().TransformVector(delta)
		e.update(id, func(l *document.Layer) {
			l.Frame.X += local.X
			l.Frame.Y += local.Y
		})
	}
}

func scaleLayers(e *editor, pageID string, ids []string, from, to geometry.Rect) {
	if from == to || from.Width == 0 || from.Height == 0 || to.Width == 0 || to.Height == 0 {
		return
	}
	world := geometry.ScaleMatrix(from, to)

	sg := scene.BuildSceneGraph(e.current(), pageID)
	for _, id := range topLevelTargets(sg, ids) {
		parent := sg.ParentTransform(id)
		local := parent.Invert().Multiply(world).Multiply(parent)

		l, _ := e.layer(id)
		next, rx, ry := scaleFrame(l.Frame, local)
		e.update(id, func(l *document.Layer) { l.Frame = next })
		if l.Type == document.LayerTypeGroup {
			scaleChildren(e, l.Children, geometry.Scale(rx, ry))
		}
	}
}

// scaleFrame applies m, given in the frame's parent space, to a frame that
// keeps its rotation. Each local axis is stretched by the length m gives it
// and flipped when m reverses it; the centre follows m. The returned factors
// are the stretch of the local x and y axes.
func scaleFrame(f document.Frame, m geometry.Matrix2D) (document.Frame, float64, float64) {
	rot := geometry.RotateDegrees(f.Rotation)
	axisX := rot.TransformVector(geometry.Point{X: 1})
	axisY := rot.TransformVector(geometry.Point{Y: 1})
	mx, my := m.TransformVector(axisX), m.TransformVector(axisY)

	rx, ry := math.Hypot(mx.X, mx.Y), math.Hypot(my.X, my.Y)
	if mx.X*axisX.X+mx.Y*axisX.Y < 0 {
		f.IsFlippedHorizontal = !f.IsFlippedHorizontal
	}
	if my.X*axisY.X+my.Y*axisY.Y < 0 {
		f.IsFlippedVertical = !f.IsFlippedVertical
	}

	c := m.TransformPoint(f.Rect().Center())
	f.Width *= rx
	f.Height *= ry
	f.X, f.Y = c.X-f.Width/2, c.Y-f.Height/2
	return f, rx, ry
}

// scaleChildren stretches the contents of a resized group. m is the group's
// own stretch, expressed in its local space.
func scaleChildren(e *editor, ids []string, m geometry.Matrix2D) {
	for _, id := range ids {
		l, ok := e.layer(id)
		if !ok {
			continue
		}
		next, rx, ry := scaleFrame(l.Frame, m)
		e.update(id, func(l *document.Layer) { l.Frame = next })
		if l.Type == document.LayerTypeGroup {
			scaleChildren(e, l.Children, geometry.Scale(rx, ry))
		}
	}
}

func setFrameValue(f *document.Frame, a SetLayerFrameValue) {
	value := func(current float64) float64 {
		if a.Mode == ValueAdjust {
			return current + a.Value
		}
		return a.Value
	}

	switch a.Field {
	case FieldX:
		f.X = value(f.X)
	case FieldY:
		f.Y = value(f.Y)
	case FieldWidth:
		w := max(value(f.Width), 0)
		if f.ConstrainProportions && f.Width != 0 {
			f.Height *= w / f.Width
		}
		f.Width = w
	case FieldHeight:
		h := max(value(f.Height), 0)
		if f.ConstrainProportions && f.Height != 0 {
			f.Width *= h / f.Height
		}
		f.Height = h
	case FieldRotation:
		r := math.Mod(value(f.Rotation), 360)
		if r < 0 {
			r += 360
		}
		f.Rotation = r
	}
}

var defaultStyles = map[document.LayerType]document.Style{
	document.LayerTypeArtboard:  {Fill: "#ffffff", Opacity: 1},
	document.LayerTypeRectangle: {Fill: "#d8d8d8", Stroke: "#979797", StrokeWidth: 1, Opacity: 1},
	document.LayerTypeOval:      {Fill: "#d8d8d8", Stroke: "#979797", StrokeWidth: 1, Opacity: 1},
	document.LayerTypeText:      {Fill: "#000000", Opacity: 1},
}

var defaultNames = map[document.LayerType]string{
	document.LayerTypeArtboard:  "Artboard",
	document.LayerTypeRectangle: "Rectangle",
	document.LayerTypeOval:      "Oval",
	document.LayerTypeText:      "Text",
}

// addDrawnLayer creates the layer described by a finished drawing gesture and
// returns its id. Shapes drawn starting inside a top-level artboard become
// children of that artboard. Degenerate rectangles create nothing.
func addDrawnLayer(e *editor, pageID string, d interaction.Drawing) string {
	rect := d.Rect()
	if rect.IsEmpty() || d.LayerID == "" {
		return ""
	}
	if _, exists := e.layer(d.LayerID); exists {
		return ""
	}
	page, ok := e.current().Page(pageID)
	if !ok {
		return ""
	}

	l := document.Layer{
		ID:      d.LayerID,
		Name:    defaultNames[d.ShapeType],
		Type:    d.ShapeType,
		Frame:   document.Frame{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height},
		Style:   defaultStyles[d.ShapeType],
		Visible: true,
	}
	if d.ShapeType == document.LayerTypeText {
		l.Data, _ = json.Marshal(map[string]string{"text": "Text"})
	}

	if d.ShapeType != document.LayerTypeArtboard {
		sg := scene.BuildSceneGraph(e.current(), pageID)
		for _, id := range slices.Backward(page.Layers) {
			n := sg.Node(id)
			if n == nil || n.Type != document.LayerTypeArtboard || !n.Visible || n.Locked {
				continue
			}
			if n.ContainsPoint(d.Origin) {
				origin := n.WorldTransform.Invert().TransformPoint(geometry.Point{X: rect.X, Y: rect.Y})
				l.Frame.X, l.Frame.Y = origin.X, origin.Y
				l.Parent = id
				break
			}
		}
	}

	insertLayer(e, InsertLayer{Layer: l, ParentID: l.Parent, PageID: pageID})
	return l.ID
}

func insertLayer(e *editor, a InsertLayer) {
	l := a.Layer
	if l.ID == "" || len(l.Children) > 0 {
		return
	}
	if _, exists := e.layer(l.ID); exists {
		return
	}
	if _, ok := e.current().Page(a.PageID); !ok {
		return
	}
	if a.ParentID != "" {
		parent, ok := e.layer(a.ParentID)
		if !ok || !parent.Type.IsContainer() || e.current().PageOf(a.ParentID) != a.PageID {
			return
		}
	}
	l.Parent = a.ParentID
	e.put(l)
	e.appendChild(a.PageID, a.ParentID, l.ID)
}
