package scene

import (
	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
)

// SceneGraph is the resolved, query-ready view of one page of a document
// snapshot. It is rebuilt whenever the document snapshot changes and never
// mutated afterwards, so queries are safe to run speculatively.
type SceneGraph struct {
	PageID    string
	Roots     []*SceneNode // top-level layers, back to front
	NodesByID map[string]*SceneNode
	order     []*SceneNode // every node in paint order
}

// SceneNode is a layer with its world-space geometry resolved.
type SceneNode struct {
	ID    string
	Type  document.LayerType
	Layer document.Layer

	// Transform state
	LocalTransform geometry.Matrix2D // frame space -> parent space
	WorldTransform geometry.Matrix2D // frame space -> document space
	inverse        geometry.Matrix2D

	// Effective flags (inherited from ancestors)
	Visible bool
	Locked  bool

	// Hierarchy
	Parent     *SceneNode
	Children   []*SceneNode
	Depth      int
	PaintIndex int

	// Hit testing
	Bounds geometry.Rect // axis-aligned bounding box in document space
}

// NewSceneGraph creates an empty scene graph.
func NewSceneGraph(pageID string) *SceneGraph {
	return &SceneGraph{
		PageID:    pageID,
		NodesByID: make(map[string]*SceneNode),
	}
}

// Node returns the resolved node for a layer id, or nil.
func (sg *SceneGraph) Node(id string) *SceneNode {
	if sg == nil {
		return nil
	}
	return sg.NodesByID[id]
}

// Contains reports whether the layer is part of this page.
func (sg *SceneGraph) Contains(id string) bool {
	return sg.Node(id) != nil
}

// BoundingRect returns the document-space bounding box of a layer.
func (sg *SceneGraph) BoundingRect(id string) (geometry.Rect, bool) {
	n := sg.Node(id)
	if n == nil {
		return geometry.Rect{}, false
	}
	return n.Bounds, true
}

// PaintOrder returns every layer id of the page, back to front.
func (sg *SceneGraph) PaintOrder() []string {
	ids := make([]string, len(sg.order))
	for i, n := range sg.order {
		ids[i] = n.ID
	}
	return ids
}

// Ancestors returns the ids of a layer's containers, nearest first.
func (sg *SceneGraph) Ancestors(id string) []string {
	n := sg.Node(id)
	if n == nil {
		return nil
	}
	var ids []string
	for p := n.Parent; p != nil; p = p.Parent {
		ids = append(ids, p.ID)
	}
	return ids
}

// ParentTransform returns the world transform of the layer's parent, which
// maps the layer's frame coordinates into document space.
func (sg *SceneGraph) ParentTransform(id string) geometry.Matrix2D {
	n := sg.Node(id)
	if n == nil || n.Parent == nil {
		return geometry.Identity()
	}
	return n.Parent.WorldTransform
}

// SelectionBounds returns the combined bounding box of the given layer ids.
// Unknown ids are skipped.
func (sg *SceneGraph) SelectionBounds(ids []string) geometry.Rect {
	return sg.boundsOf(ids, false)
}

// HandleBounds is SelectionBounds restricted to layers that can be edited on
// the canvas (visible and unlocked). Resize handles are placed on this box.
func (sg *SceneGraph) HandleBounds(ids []string) geometry.Rect {
	return sg.boundsOf(ids, true)
}

func (sg *SceneGraph) boundsOf(ids []string, editableOnly bool) geometry.Rect {
	var result geometry.Rect
	first := true

	for _, id := range ids {
		n := sg.Node(id)
		if n == nil {
			continue
		}
		if editableOnly && (!n.Visible || n.Locked) {
			continue
		}
		if first {
			result = n.Bounds
			first = false
		} else {
			result = result.Union(n.Bounds)
		}
	}

	return result
}
