package engine

import (
	"encoding/json"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
	"github.com/vectorforge/canvas/internal/interaction"
	"github.com/vectorforge/canvas/internal/scene"
	"github.com/vectorforge/canvas/internal/store"
)

// PathCommand is one path segment in Canvas2D form: ["M", x, y], ["L", x, y],
// ["C", x1, y1, x2, y2, x, y] or ["Z"].
type PathCommand []any

// DrawCommand is a single drawing operation for the renderer. Commands are
// emitted in painter's order and transforms map layer space to document space.
type DrawCommand struct {
	Op           string        `json:"op"`                     // "path", "text", "image", "save", "restore", "clip"
	LayerID      string        `json:"layerId,omitempty"`      // For hit correlation
	Transform    []float64     `json:"transform,omitempty"`    // [a, b, c, d, e, f]
	Path         []PathCommand `json:"path,omitempty"`         // For "path" and "clip"
	Fill         string        `json:"fill,omitempty"`         // Fill color
	Stroke       string        `json:"stroke,omitempty"`       // Stroke color
	StrokeWidth  float64       `json:"strokeWidth,omitempty"`  // Stroke width
	Opacity      float64       `json:"opacity,omitempty"`      // Global alpha
	Text         string        `json:"text,omitempty"`         // For "text"
	ImageAssetID string        `json:"imageAssetId,omitempty"` // Asset ID for image lookup
	Width        float64       `json:"width,omitempty"`        // Frame size for "text" and "image"
	Height       float64       `json:"height,omitempty"`
}

// CompileDrawCommands generates a draw command buffer for a page.
// Hidden subtrees are skipped; locked layers are still drawn.
func CompileDrawCommands(sg *scene.SceneGraph) []DrawCommand {
	if sg == nil {
		return nil
	}
	var commands []DrawCommand
	for _, root := range sg.Roots {
		compileNode(root, &commands)
	}
	return commands
}

func compileNode(node *scene.SceneNode, commands *[]DrawCommand) {
	if node == nil || !node.Visible {
		return
	}

	l := node.Layer
	transform := node.WorldTransform.ToSlice()
	w, h := l.Frame.Width, l.Frame.Height

	switch node.Type {
	case document.LayerTypeArtboard, document.LayerTypeSymbolMaster:
		*commands = append(*commands,
			DrawCommand{Op: "save"},
			DrawCommand{Op: "path", LayerID: node.ID, Transform: transform, Path: rectPath(w, h), Fill: l.Style.Fill, Opacity: l.Style.Opacity},
			DrawCommand{Op: "clip", Transform: transform, Path: rectPath(w, h)},
		)
		for _, child := range node.Children {
			compileNode(child, commands)
		}
		*commands = append(*commands, DrawCommand{Op: "restore"})
		return

	case document.LayerTypeGroup:
		for _, child := range node.Children {
			compileNode(child, commands)
		}
		return

	case document.LayerTypeOval:
		*commands = append(*commands, shapeCommand(node, transform, ellipsePath(w, h)))

	case document.LayerTypeText:
		*commands = append(*commands, DrawCommand{
			Op:        "text",
			LayerID:   node.ID,
			Transform: transform,
			Text:      dataString(l.Data, "text"),
			Fill:      l.Style.Fill,
			Opacity:   l.Style.Opacity,
			Width:     w,
			Height:    h,
		})

	case document.LayerTypeBitmap:
		*commands = append(*commands, DrawCommand{
			Op:           "image",
			LayerID:      node.ID,
			Transform:    transform,
			Opacity:      l.Style.Opacity,
			ImageAssetID: dataString(l.Data, "assetId"),
			Width:        w,
			Height:       h,
		})

	default:
		*commands = append(*commands, shapeCommand(node, transform, rectPath(w, h)))
	}
}

func shapeCommand(node *scene.SceneNode, transform []float64, path []PathCommand) DrawCommand {
	s := node.Layer.Style
	return DrawCommand{
		Op:          "path",
		LayerID:     node.ID,
		Transform:   transform,
		Path:        path,
		Fill:        s.Fill,
		Stroke:      s.Stroke,
		StrokeWidth: s.StrokeWidth,
		Opacity:     s.Opacity,
	}
}

func rectPath(w, h float64) []PathCommand {
	return []PathCommand{
		{"M", 0.0, 0.0},
		{"L", w, 0.0},
		{"L", w, h},
		{"L", 0.0, h},
		{"Z"},
	}
}

// ellipsePath approximates the ellipse inscribed in (0, 0, w, h) with four
// cubic curves.
func ellipsePath(w, h float64) []PathCommand {
	// k = 4 * (sqrt(2) - 1) / 3
	const k = 0.5522847498
	rx, ry := w/2, h/2
	kx, ky := rx*k, ry*k
	cx, cy := rx, ry

	return []PathCommand{
		{"M", cx + rx, cy},
		{"C", cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry},
		{"C", cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy},
		{"C", cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry},
		{"C", cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy},
		{"Z"},
	}
}

func dataString(data json.RawMessage, key string) string {
	if len(data) == 0 {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return ""
	}
	s, _ := fields[key].(string)
	return s
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		commands = []DrawCommand{}
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// Handle is a resize handle position in document space.
type Handle struct {
	Direction geometry.CompassDirection `json:"direction"`
	X         float64                   `json:"x"`
	Y         float64                   `json:"y"`
}

// Outline traces a layer's frame for hover feedback.
type Outline struct {
	LayerID   string        `json:"layerId"`
	Transform []float64     `json:"transform"`
	Path      []PathCommand `json:"path"`
}

// Overlay is the interaction feedback drawn above the document. Geometry is
// in document space; ViewTransform maps it onto the canvas.
type Overlay struct {
	ViewTransform   []float64          `json:"viewTransform"`
	Mode            interaction.Mode   `json:"mode"`
	Cursor          string             `json:"cursor"`
	SelectionBounds *geometry.Rect     `json:"selectionBounds,omitempty"`
	Handles         []Handle           `json:"handles,omitempty"`
	HandleSize      float64            `json:"handleSize,omitempty"`
	Marquee         *geometry.Rect     `json:"marquee,omitempty"`
	Drawing         *geometry.Rect     `json:"drawing,omitempty"`
	DrawingType     document.LayerType `json:"drawingType,omitempty"`
	Hover           *Outline           `json:"hover,omitempty"`
}

// showsHandles reports whether resize handles are drawn in the given state.
func showsHandles(s interaction.State) bool {
	switch s.(type) {
	case interaction.None, interaction.HoverHandle, interaction.MaybeMove, interaction.MaybeScale, interaction.Scaling:
		return true
	}
	return false
}

// BuildOverlay computes the overlay for a state. sg must be the scene graph of
// the projected document so the selection box follows an in-progress drag.
func BuildOverlay(s store.State, sg *scene.SceneGraph) Overlay {
	zoom := s.Viewport.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	o := Overlay{
		ViewTransform: geometry.Translate(s.Viewport.ScrollOrigin.X, s.Viewport.ScrollOrigin.Y).
			Multiply(geometry.Scale(zoom, zoom)).ToSlice(),
		Mode:   store.InteractionMode(s),
		Cursor: store.Cursor(s),
	}

	if editable := store.EditableSelection(s, sg); len(editable) > 0 {
		bounds := sg.HandleBounds(editable)
		o.SelectionBounds = &bounds
		if showsHandles(s.Interaction) {
			o.HandleSize = 2 * scene.HandleHitTolerance / zoom
			for _, d := range geometry.CompassDirections {
				p := geometry.HandlePosition(bounds, d)
				o.Handles = append(o.Handles, Handle{Direction: d, X: p.X, Y: p.Y})
			}
		}
	}

	switch st := s.Interaction.(type) {
	case interaction.Marquee:
		r := st.Rect()
		o.Marquee = &r
	case interaction.Drawing:
		r := st.Rect()
		o.Drawing, o.DrawingType = &r, st.ShapeType
	}

	if n := sg.Node(s.HighlightedLayerID); n != nil && !s.IsSelected(n.ID) {
		o.Hover = &Outline{
			LayerID:   n.ID,
			Transform: n.WorldTransform.ToSlice(),
			Path:      rectPath(n.Layer.Frame.Width, n.Layer.Frame.Height),
		}
	}
	return o
}

// --- Engine queries ---

// projectedScene resolves the document as it would look if the current
// gesture were released now.
func (e *Engine) projectedScene() *scene.SceneGraph {
	s := e.store.Snapshot()
	doc := store.Projected(s, store.ShouldConstrain(s, e.modifiers.Shift))
	if doc == s.Document {
		return e.scene()
	}
	return scene.BuildSceneGraph(doc, s.PageID)
}

// Render returns the page's draw commands as JSON, including any in-progress
// move or resize.
func (e *Engine) Render() string {
	result, err := DrawCommandsToJSON(CompileDrawCommands(e.projectedScene()))
	if err != nil {
		e.logger.Sugar().Warnw("encode draw commands", "error", err)
	}
	return result
}

// Overlay returns the interaction overlay as JSON.
func (e *Engine) Overlay() string {
	data, err := json.Marshal(BuildOverlay(e.store.Snapshot(), e.projectedScene()))
	if err != nil {
		e.logger.Sugar().Warnw("encode overlay", "error", err)
		return "{}"
	}
	return string(data)
}
