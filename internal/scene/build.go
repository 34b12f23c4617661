package scene

import (
	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
)

// BuildSceneGraph resolves the layer tree of one page into world-space nodes.
// Layers referenced by id but missing from the arena are skipped.
func BuildSceneGraph(doc *document.Document, pageID string) *SceneGraph {
	sg := NewSceneGraph(pageID)
	if doc == nil {
		return sg
	}

	page, ok := doc.Page(pageID)
	if !ok {
		return sg
	}

	for _, id := range page.Layers {
		layer, ok := doc.Layers[id]
		if !ok {
			continue
		}
		sg.Roots = append(sg.Roots, buildNode(doc, layer, nil, sg))
	}

	return sg
}

// buildNode recursively builds a SceneNode and its children in paint order.
func buildNode(doc *document.Document, layer document.Layer, parent *SceneNode, sg *SceneGraph) *SceneNode {
	parentWorld := geometry.Identity()
	visible, locked, depth := layer.Visible, layer.Locked, 0
	if parent != nil {
		parentWorld = parent.WorldTransform
		visible = visible && parent.Visible
		locked = locked || parent.Locked
		depth = parent.Depth + 1
	}

	local := layer.Frame.Matrix()
	world := parentWorld.Multiply(local)

	node := &SceneNode{
		ID:             layer.ID,
		Type:           layer.Type,
		Layer:          layer,
		LocalTransform: local,
		WorldTransform: world,
		inverse:        world.Invert(),
		Visible:        visible,
		Locked:         locked,
		Parent:         parent,
		Depth:          depth,
		PaintIndex:     len(sg.order),
		Bounds: world.TransformRect(geometry.Rect{
			Width:  layer.Frame.Width,
			Height: layer.Frame.Height,
		}),
	}

	sg.NodesByID[layer.ID] = node
	sg.order = append(sg.order, node)

	for _, childID := range layer.Children {
		child, ok := doc.Layers[childID]
		if !ok {
			continue
		}
		node.Children = append(node.Children, buildNode(doc, child, node, sg))
	}

	// Groups do not clip, so their box must cover children moved past the
	// group's own frame.
	if layer.Type.IsContainer() && !layer.Type.ClipsChildren() {
		for _, child := range node.Children {
			if child.Visible {
				node.Bounds = node.Bounds.Union(child.Bounds)
			}
		}
	}

	return node
}
