package engine

import (
	"github.com/vectorforge/canvas/internal/geometry"
	"github.com/vectorforge/canvas/internal/store"
)

// Insets are the canvas margins covered by sidebars and toolbars, in screen
// pixels. Raw pointer offsets are measured from the canvas element's corner,
// which sits underneath them.
type Insets struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Router converts raw pointer offsets into canvas and document coordinates.
type Router struct {
	insets        Insets
	width, height float64
}

func (r *Router) SetInsets(i Insets) { r.insets = i }

func (r *Router) Insets() Insets { return r.insets }

// SetCanvasSize records the size of the canvas element in screen pixels.
// Until it is set every press is treated as landing on the visible canvas.
func (r *Router) SetCanvasSize(width, height float64) {
	r.width, r.height = width, height
}

// CanvasPoint maps a raw offset into the visible canvas area, whose origin is
// the inner corner of the insets.
func (r *Router) CanvasPoint(offsetX, offsetY float64) geometry.Point {
	return geometry.Point{X: offsetX - r.insets.Left, Y: offsetY - r.insets.Top}
}

// Visible reports whether a canvas point lies in the area not covered by
// insets. Presses outside it belong to the sidebars.
func (r *Router) Visible(p geometry.Point) bool {
	if p.X < 0 || p.Y < 0 {
		return false
	}
	if r.width <= 0 || r.height <= 0 {
		return true
	}
	return p.X <= r.width-r.insets.Left-r.insets.Right &&
		p.Y <= r.height-r.insets.Top-r.insets.Bottom
}

// VisibleSize returns the size of the canvas area not covered by insets.
func (r *Router) VisibleSize() (float64, float64) {
	return max(r.width-r.insets.Left-r.insets.Right, 0), max(r.height-r.insets.Top-r.insets.Bottom, 0)
}

// DocumentPoint undoes the viewport: doc = (canvas - scroll) / zoom.
func DocumentPoint(canvas geometry.Point, vp store.Viewport) geometry.Point {
	zoom := vp.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return canvas.Sub(vp.ScrollOrigin).Scale(1 / zoom)
}

// CanvasPointFromDocument applies the viewport to a document point.
func CanvasPointFromDocument(p geometry.Point, vp store.Viewport) geometry.Point {
	zoom := vp.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return p.Scale(zoom).Add(vp.ScrollOrigin)
}
