package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
	"github.com/vectorforge/canvas/internal/interaction"
	"github.com/vectorforge/canvas/internal/scene"
)

func pt(x, y float64) geometry.Point { return geometry.Point{X: x, Y: y} }

// testDoc has an artboard "board" at (100,100) holding "rect" at (10,10) in
// board space, a free "free" layer, and a second empty page.
func testDoc() *document.Document {
	doc := document.NewEmptyDocument("doc", "Test", "page")
	doc.Pages = append(doc.Pages, document.Page{ID: "page2", Name: "Page 2", Layers: []string{}})
	doc.Pages[0].Layers = []string{"board", "free"}
	doc.Layers["board"] = document.Layer{
		ID: "board", Type: document.LayerTypeArtboard, Visible: true,
		Children: []string{"rect"},
		Frame:    document.Frame{X: 100, Y: 100, Width: 200, Height: 200},
	}
	doc.Layers["rect"] = document.Layer{
		ID: "rect", Type: document.LayerTypeRectangle, Visible: true, Parent: "board",
		Frame: document.Frame{X: 10, Y: 10, Width: 50, Height: 50},
	}
	doc.Layers["free"] = document.Layer{
		ID: "free", Type: document.LayerTypeOval, Visible: true,
		Frame: document.Frame{X: 400, Y: 0, Width: 20, Height: 40},
	}
	return doc
}

func frame(t *testing.T, s State, id string) document.Frame {
	t.Helper()
	l, ok := s.Document.Layer(id)
	require.True(t, ok, "layer %s", id)
	return l.Frame
}

func TestSelectLayersModes(t *testing.T) {
	s := NewState(testDoc())

	s = Reduce(s, SelectLayers{IDs: []string{"rect", "missing", "rect"}, Mode: SelectReplace})
	assert.Equal(t, []string{"rect"}, s.SelectedLayerIDs)

	s = Reduce(s, SelectLayers{IDs: []string{"free"}, Mode: SelectIntersection})
	assert.Equal(t, []string{"rect", "free"}, s.SelectedLayerIDs)

	s = Reduce(s, SelectLayers{IDs: []string{"rect"}, Mode: SelectIntersection})
	assert.Equal(t, []string{"free"}, s.SelectedLayerIDs)

	s = Reduce(s, SelectLayers{IDs: []string{"free"}, Mode: SelectDifference})
	assert.Empty(t, s.SelectedLayerIDs)
}

func TestMoveLayersConvertsToParentSpace(t *testing.T) {
	doc := testDoc()
	board := doc.Layers["board"]
	board.Frame.IsFlippedHorizontal = true
	doc.Layers["board"] = board

	s := Reduce(NewState(doc), MoveLayers{IDs: []string{"rect", "free"}, Delta: pt(5, 7)})

	assert.Equal(t, 5.0, frame(t, s, "rect").X, "flipped parent mirrors x")
	assert.Equal(t, 17.0, frame(t, s, "rect").Y)
	assert.Equal(t, 405.0, frame(t, s, "free").X)
	assert.Equal(t, 10.0, doc.Layers["rect"].Frame.X, "input document is untouched")
}

func TestMoveLayersSkipsChildrenOfMovedContainers(t *testing.T) {
	s := Reduce(NewState(testDoc()), MoveLayers{IDs: []string{"board", "rect"}, Delta: pt(10, 0)})

	assert.Equal(t, 110.0, frame(t, s, "board").X)
	assert.Equal(t, 10.0, frame(t, s, "rect").X)
}

func TestReduceReturnsSameDocumentWhenNothingChanges(t *testing.T) {
	s := NewState(testDoc())

	for _, a := range []Action{
		MoveLayers{IDs: []string{"rect"}},
		MoveLayers{IDs: []string{"missing"}, Delta: pt(1, 1)},
		SetLayerVisible{IDs: []string{"rect"}, Visible: true},
		DeleteLayers{IDs: []string{"missing"}},
		AddDrawnLayer{},
	} {
		assert.Same(t, s.Document, Reduce(s, a).Document, a.Name())
	}
}

func TestScaleLayersFlipsPastOppositeEdge(t *testing.T) {
	s := NewState(testDoc())
	from := geometry.Rect{X: 400, Y: 0, Width: 20, Height: 40}
	to := geometry.Rect{X: 400, Y: 0, Width: -20, Height: 80}

	s = Reduce(s, ScaleLayers{IDs: []string{"free"}, From: from, To: to})

	f := frame(t, s, "free")
	assert.Equal(t, document.Frame{X: 380, Y: 0, Width: 20, Height: 80, IsFlippedHorizontal: true}, f)
}

func TestScaleLayersResizesGroupContents(t *testing.T) {
	doc := testDoc()
	doc.Pages[0].Layers = append(doc.Pages[0].Layers, "group")
	doc.Layers["group"] = document.Layer{
		ID: "group", Type: document.LayerTypeGroup, Visible: true, Children: []string{"inner"},
		Frame: document.Frame{X: 0, Y: 500, Width: 100, Height: 100},
	}
	doc.Layers["inner"] = document.Layer{
		ID: "inner", Type: document.LayerTypeRectangle, Visible: true, Parent: "group",
		Frame: document.Frame{X: 50, Y: 50, Width: 50, Height: 50},
	}

	s := Reduce(NewState(doc), ScaleLayers{
		IDs:  []string{"group"},
		From: geometry.Rect{X: 0, Y: 500, Width: 100, Height: 100},
		To:   geometry.Rect{X: 0, Y: 500, Width: 200, Height: 100},
	})

	assert.Equal(t, 200.0, frame(t, s, "group").Width)
	assert.Equal(t, document.Frame{X: 100, Y: 50, Width: 100, Height: 50}, frame(t, s, "inner"))
}

func assertRectNear(t *testing.T, want, got geometry.Rect) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
	assert.InDelta(t, want.Width, got.Width, 1e-9, "width")
	assert.InDelta(t, want.Height, got.Height, 1e-9, "height")
}

func TestScaleLayersRespectsRotation(t *testing.T) {
	doc := testDoc()
	doc.Pages[0].Layers = append(doc.Pages[0].Layers, "turned")
	doc.Layers["turned"] = document.Layer{
		ID: "turned", Type: document.LayerTypeRectangle, Visible: true,
		Frame: document.Frame{Width: 100, Height: 20, Rotation: 90},
	}
	s := NewState(doc)

	from, ok := scene.BuildSceneGraph(s.Document, s.PageID).BoundingRect("turned")
	require.True(t, ok)
	assertRectNear(t, geometry.Rect{X: 40, Y: -40, Width: 20, Height: 100}, from)

	to := geometry.ResizeRect(from, geometry.DirectionE, pt(20, 0), false)
	s = Reduce(s, ScaleLayers{IDs: []string{"turned"}, From: from, To: to})

	f := frame(t, s, "turned")
	assert.InDelta(t, 100, f.Width, 1e-9, "the layer's long axis is untouched")
	assert.InDelta(t, 40, f.Height, 1e-9, "the horizontal drag lands on the rotated short axis")
	assert.Equal(t, 90.0, f.Rotation)
	assert.False(t, f.IsFlippedHorizontal || f.IsFlippedVertical)

	got, _ := scene.BuildSceneGraph(s.Document, s.PageID).BoundingRect("turned")
	assertRectNear(t, to, got)
}

func TestScaleLayersResizesRotatedGroupChild(t *testing.T) {
	doc := testDoc()
	doc.Pages[0].Layers = append(doc.Pages[0].Layers, "group")
	doc.Layers["group"] = document.Layer{
		ID: "group", Type: document.LayerTypeGroup, Visible: true, Children: []string{"bar"},
		Frame: document.Frame{X: 0, Y: 0, Width: 100, Height: 100},
	}
	doc.Layers["bar"] = document.Layer{
		ID: "bar", Type: document.LayerTypeRectangle, Visible: true, Parent: "group",
		Frame: document.Frame{X: 30, Y: 45, Width: 40, Height: 10, Rotation: 90},
	}

	s := Reduce(NewState(doc), ScaleLayers{
		IDs:  []string{"group"},
		From: geometry.Rect{Width: 100, Height: 100},
		To:   geometry.Rect{Width: 200, Height: 100},
	})

	got, ok := scene.BuildSceneGraph(s.Document, s.PageID).BoundingRect("bar")
	require.True(t, ok)
	assertRectNear(t, geometry.Rect{X: 90, Y: 30, Width: 20, Height: 40}, got)
	assert.InDelta(t, 40, frame(t, s, "bar").Width, 1e-9)
}

func TestSetLayerFrameValue(t *testing.T) {
	doc := testDoc()
	free := doc.Layers["free"]
	free.Frame.ConstrainProportions = true
	doc.Layers["free"] = free

	s := NewState(doc)
	s.SelectedLayerIDs = []string{"rect", "free"}

	s = Reduce(s, SetLayerFrameValue{Field: FieldX, Value: 5, Mode: ValueAdjust})
	assert.Equal(t, 15.0, frame(t, s, "rect").X)
	assert.Equal(t, 405.0, frame(t, s, "free").X)

	s = Reduce(s, SetLayerFrameValue{Field: FieldWidth, Value: 40, Mode: ValueReplace})
	assert.Equal(t, 50.0, frame(t, s, "rect").Height, "unconstrained height is kept")
	assert.Equal(t, 80.0, frame(t, s, "free").Height, "constrained height follows width")

	s = Reduce(s, SetLayerFrameValue{Field: FieldRotation, Value: -90, Mode: ValueAdjust})
	assert.Equal(t, 270.0, frame(t, s, "rect").Rotation)
}

func TestAddDrawnLayer(t *testing.T) {
	tests := []struct {
		name       string
		shape      document.LayerType
		origin     geometry.Point
		current    geometry.Point
		wantParent string
		wantFrame  document.Frame
	}{
		{
			name:       "inside artboard",
			shape:      document.LayerTypeRectangle,
			origin:     pt(150, 160),
			current:    pt(130, 200),
			wantParent: "board",
			wantFrame:  document.Frame{X: 30, Y: 60, Width: 20, Height: 40},
		},
		{
			name:      "on canvas",
			shape:     document.LayerTypeOval,
			origin:    pt(0, 0),
			current:   pt(30, 10),
			wantFrame: document.Frame{Width: 30, Height: 10},
		},
		{
			name:      "artboards stay top level",
			shape:     document.LayerTypeArtboard,
			origin:    pt(150, 150),
			current:   pt(160, 170),
			wantFrame: document.Frame{X: 150, Y: 150, Width: 10, Height: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(testDoc())
			s.Interaction = interaction.Drawing{ShapeType: tt.shape, LayerID: "new", Origin: tt.origin, Current: tt.current}

			s = Reduce(s, AddDrawnLayer{})

			l, ok := s.Document.Layer("new")
			require.True(t, ok)
			assert.Equal(t, tt.shape, l.Type)
			assert.Equal(t, tt.wantParent, l.Parent)
			assert.Equal(t, tt.wantFrame, l.Frame)
			assert.Equal(t, []string{"new"}, s.SelectedLayerIDs)
			assert.Equal(t, interaction.ModeNone, InteractionMode(s))
			assert.NoError(t, s.Document.Validate())
		})
	}
}

func TestAddDrawnLayerDegenerateOnlyResets(t *testing.T) {
	s := NewState(testDoc())
	s.Interaction = interaction.Drawing{ShapeType: document.LayerTypeRectangle, LayerID: "new", Origin: pt(5, 5), Current: pt(5, 50)}

	next := Reduce(s, AddDrawnLayer{})

	assert.Same(t, s.Document, next.Document)
	assert.Equal(t, interaction.ModeNone, InteractionMode(next))
}

func TestDeleteLayersPrunesSelection(t *testing.T) {
	s := NewState(testDoc())
	s.SelectedLayerIDs = []string{"rect", "free"}
	s.HighlightedLayerID = "rect"

	s = Reduce(s, DeleteLayers{IDs: []string{"board"}})

	assert.Equal(t, []string{"free"}, s.SelectedLayerIDs)
	assert.Empty(t, s.HighlightedLayerID)
	_, ok := s.Document.Layer("rect")
	assert.False(t, ok, "subtree is removed")
	assert.NoError(t, s.Document.Validate())
}

func TestSelectPageClearsSelection(t *testing.T) {
	s := NewState(testDoc())
	s.SelectedLayerIDs = []string{"rect"}

	s = Reduce(s, SelectPage{PageID: "page2"})
	assert.Equal(t, "page2", s.PageID)
	assert.Empty(t, s.SelectedLayerIDs)

	assert.Equal(t, "page2", Reduce(s, SelectPage{PageID: "nope"}).PageID)
}

func TestViewportActions(t *testing.T) {
	s := NewState(testDoc())

	s = Reduce(s, Pan{Delta: pt(10, -5)})
	s = Reduce(s, Pan{Delta: pt(1, 1)})
	assert.Equal(t, pt(11, -4), s.Viewport.ScrollOrigin)

	assert.Equal(t, MaxZoom, Reduce(s, SetZoom{Zoom: 100}).Viewport.Zoom)
	assert.Equal(t, MinZoom, Reduce(s, SetZoom{Zoom: 0.01}).Viewport.Zoom)
	assert.Equal(t, 1.0, Reduce(s, SetZoom{Zoom: -1}).Viewport.Zoom)
}

func TestStoreRecordsOnlyDocumentEdits(t *testing.T) {
	st := New(testDoc())

	st.Dispatch(SelectLayers{IDs: []string{"rect"}, Mode: SelectReplace})
	st.Dispatch(SetHighlightedLayer{ID: "free"})
	st.Dispatch(Interaction{Action: interaction.PressLayer{Origin: pt(1, 1)}})
	st.Dispatch(Pan{Delta: pt(3, 3)})
	assert.Equal(t, 0, st.HistoryLength())

	st.Dispatch(MoveLayers{IDs: []string{"rect"}, Delta: pt(0, 0)})
	assert.Equal(t, 0, st.HistoryLength(), "no-op edits are not recorded")

	st.Dispatch(MoveLayers{IDs: []string{"rect"}, Delta: pt(1, 0)})
	assert.Equal(t, 1, st.HistoryLength())

	st.Dispatch(Commit{Actions: []Action{SelectLayers{IDs: []string{"free"}, Mode: SelectReplace}, Reset()}})
	assert.Equal(t, 2, st.HistoryLength(), "commits record selection changes")
}

func TestStoreUndoRedo(t *testing.T) {
	st := New(testDoc())
	st.Dispatch(SelectLayers{IDs: []string{"rect"}, Mode: SelectReplace})
	st.Dispatch(MoveLayers{IDs: []string{"rect"}, Delta: pt(5, 0)})
	st.Dispatch(Interaction{Action: interaction.PressLayer{Origin: pt(1, 1)}})
	st.Dispatch(Pan{Delta: pt(50, 0)})

	require.True(t, st.Undo())
	s := st.Snapshot()
	assert.Equal(t, 10.0, frame(t, s, "rect").X)
	assert.Equal(t, []string{"rect"}, s.SelectedLayerIDs)
	assert.Equal(t, interaction.ModeNone, InteractionMode(s))
	assert.Equal(t, pt(50, 0), s.Viewport.ScrollOrigin, "viewport is not undone")
	assert.False(t, st.Undo())

	require.True(t, st.Redo())
	assert.Equal(t, 15.0, frame(t, st.Snapshot(), "rect").X)
	assert.False(t, st.Redo())

	st.Undo()
	st.Dispatch(DeleteLayers{IDs: []string{"free"}})
	assert.False(t, st.CanRedo(), "a new edit clears redo")
}

func TestHistoryLimit(t *testing.T) {
	st := New(testDoc(), WithHistoryLimit(3))
	for range 5 {
		st.Dispatch(MoveLayers{IDs: []string{"free"}, Delta: pt(1, 0)})
	}
	assert.Equal(t, 3, st.HistoryLength())
}

func TestProjectedPreviewsGesture(t *testing.T) {
	s := NewState(testDoc())
	s.SelectedLayerIDs = []string{"free"}
	s.Interaction = interaction.Moving{Origin: pt(405, 5), Current: pt(415, 25)}

	projected := Projected(s, false)
	l, _ := projected.Layer("free")
	assert.Equal(t, 410.0, l.Frame.X)
	assert.Equal(t, 20.0, l.Frame.Y)
	assert.Equal(t, 400.0, frame(t, s, "free").X)

	s.Interaction = interaction.Scaling{Origin: pt(420, 40), Current: pt(440, 50), Direction: geometry.DirectionSE}
	l, _ = Projected(s, false).Layer("free")
	assert.Equal(t, 40.0, l.Frame.Width)
	assert.Equal(t, 50.0, l.Frame.Height)

	l, _ = Projected(s, true).Layer("free")
	assert.Equal(t, 40.0, l.Frame.Width)
	assert.Equal(t, 80.0, l.Frame.Height)

	s.Interaction = interaction.None{}
	assert.Same(t, s.Document, Projected(s, false))
}

func TestShouldConstrain(t *testing.T) {
	doc := testDoc()
	s := NewState(doc)
	s.SelectedLayerIDs = []string{"rect"}
	assert.False(t, ShouldConstrain(s, false))
	assert.True(t, ShouldConstrain(s, true))

	rect := doc.Layers["rect"]
	rect.Frame.ConstrainProportions = true
	doc.Layers["rect"] = rect
	assert.True(t, ShouldConstrain(s, false))
}
