package scene

import (
	"math"

	"github.com/vectorforge/canvas/internal/document"
	"github.com/vectorforge/canvas/internal/geometry"
)

// HandleHitTolerance is the distance in screen pixels around a resize handle
// that still grabs it.
const HandleHitTolerance = 5.0

// HitTestOptions tunes how containers take part in hit testing.
type HitTestOptions struct {
	// ClickThroughGroups descends into groups and returns the deepest hit
	// instead of the group itself.
	ClickThroughGroups bool
}

// ContainsPoint tests a document-space point against the layer's own
// geometry: the point is mapped into the frame's local space, so rotation and
// flips are honoured. Degenerate frames never match.
func (n *SceneNode) ContainsPoint(p geometry.Point) bool {
	w, h := n.Layer.Frame.Width, n.Layer.Frame.Height
	if w <= 0 || h <= 0 {
		return false
	}

	local := n.inverse.TransformPoint(p)
	if local.X < 0 || local.X > w || local.Y < 0 || local.Y > h {
		return false
	}

	if n.Type == document.LayerTypeOval {
		rx, ry := w/2, h/2
		dx, dy := (local.X-rx)/rx, (local.Y-ry)/ry
		return dx*dx+dy*dy <= 1
	}
	return true
}

func (n *SceneNode) hittable() bool {
	return n.Visible && !n.Locked
}

// LayerAtPoint returns the id of the topmost visible, unlocked layer at p,
// or "" when nothing is hit.
//
// Artboards and symbol masters clip their children and are transparent to
// point hits themselves. A group is hit through its own frame or any of its
// children, so children hanging outside the frame still select the group.
// With ClickThroughGroups the child itself is returned and the group is only
// the fallback.
func (sg *SceneGraph) LayerAtPoint(p geometry.Point, opts HitTestOptions) string {
	if sg == nil {
		return ""
	}
	if hit := hitTestNodes(sg.Roots, p, opts); hit != nil {
		return hit.ID
	}
	return ""
}

// hitTestNodes tests siblings front to back.
func hitTestNodes(nodes []*SceneNode, p geometry.Point, opts HitTestOptions) *SceneNode {
	for i := len(nodes) - 1; i >= 0; i-- {
		if hit := hitTestNode(nodes[i], p, opts); hit != nil {
			return hit
		}
	}
	return nil
}

func hitTestNode(node *SceneNode, p geometry.Point, opts HitTestOptions) *SceneNode {
	if !node.hittable() {
		return nil
	}

	switch {
	case node.Type.ClipsChildren():
		if !node.ContainsPoint(p) {
			return nil
		}
		return hitTestNodes(node.Children, p, opts)

	case node.Type.IsContainer():
		if hit := hitTestNodes(node.Children, p, opts); hit != nil {
			if opts.ClickThroughGroups {
				return hit
			}
			return node
		}
		if node.ContainsPoint(p) {
			return node
		}
		return nil

	default:
		if node.ContainsPoint(p) {
			return node
		}
		return nil
	}
}

// LayersInRect returns the ids of all visible, unlocked layers whose bounding
// box overlaps rect, in paint order. Touching edges count as overlap. A
// group's box covers its children as well as its own frame.
//
// Artboards are selected themselves only when rect fully contains them;
// otherwise their children are considered. Groups are matched as a unit unless
// ClickThroughGroups is set, in which case only their descendants match.
func (sg *SceneGraph) LayersInRect(rect geometry.Rect, opts HitTestOptions) []string {
	if sg == nil {
		return nil
	}
	var ids []string
	for _, n := range sg.Roots {
		ids = collectInRect(n, rect, opts, ids)
	}
	return ids
}

func collectInRect(node *SceneNode, rect geometry.Rect, opts HitTestOptions, ids []string) []string {
	if !node.hittable() || node.Bounds.IsEmpty() || !node.Bounds.Intersects(rect) {
		return ids
	}

	switch {
	case node.Type.ClipsChildren():
		if rect.ContainsRect(node.Bounds) {
			return append(ids, node.ID)
		}
		for _, child := range node.Children {
			ids = collectInRect(child, rect, opts, ids)
		}
		return ids

	case node.Type.IsContainer() && opts.ClickThroughGroups:
		for _, child := range node.Children {
			ids = collectInRect(child, rect, opts, ids)
		}
		return ids

	default:
		return append(ids, node.ID)
	}
}

// ScaleDirectionAtPoint returns the resize handle of the selection's bounding
// box under p. The tolerance is HandleHitTolerance screen pixels, converted to
// document units by dividing by zoom. When several handles match, the nearest
// wins.
func (sg *SceneGraph) ScaleDirectionAtPoint(selection []string, p geometry.Point, zoom float64) (geometry.CompassDirection, bool) {
	if sg == nil || len(selection) == 0 {
		return "", false
	}
	if zoom <= 0 {
		zoom = 1
	}

	bounds := sg.HandleBounds(selection)
	if bounds.IsEmpty() {
		return "", false
	}

	tolerance := HandleHitTolerance / zoom
	var (
		best     geometry.CompassDirection
		bestDist = math.Inf(1)
	)
	for _, d := range geometry.CompassDirections {
		h := geometry.HandlePosition(bounds, d)
		if math.Abs(p.X-h.X) > tolerance || math.Abs(p.Y-h.Y) > tolerance {
			continue
		}
		if dist := p.Distance(h); dist < bestDist {
			best, bestDist = d, dist
		}
	}

	return best, best != ""
}
