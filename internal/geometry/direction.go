package geometry

import (
	"fmt"
	"math"
)

// CompassDirection identifies one of the eight resize handles of a bounding box.
type CompassDirection string

const (
	DirectionN  CompassDirection = "n"
	DirectionNE CompassDirection = "ne"
	DirectionE  CompassDirection = "e"
	DirectionSE CompassDirection = "se"
	DirectionS  CompassDirection = "s"
	DirectionSW CompassDirection = "sw"
	DirectionW  CompassDirection = "w"
	DirectionNW CompassDirection = "nw"
)

// CompassDirections lists every handle, corners first so that they win ties
// against edge midpoints on small boxes.
var CompassDirections = []CompassDirection{
	DirectionNW, DirectionNE, DirectionSE, DirectionSW,
	DirectionN, DirectionE, DirectionS, DirectionW,
}

// ParseCompassDirection validates a handle name.
func ParseCompassDirection(s string) (CompassDirection, error) {
	d := CompassDirection(s)
	switch d {
	case DirectionN, DirectionNE, DirectionE, DirectionSE,
		DirectionS, DirectionSW, DirectionW, DirectionNW:
		return d, nil
	}
	return "", fmt.Errorf("invalid compass direction %q", s)
}

func (d CompassDirection) hasNorth() bool {
	return d == DirectionN || d == DirectionNE || d == DirectionNW
}

func (d CompassDirection) hasSouth() bool {
	return d == DirectionS || d == DirectionSE || d == DirectionSW
}

func (d CompassDirection) hasEast() bool {
	return d == DirectionE || d == DirectionNE || d == DirectionSE
}

func (d CompassDirection) hasWest() bool {
	return d == DirectionW || d == DirectionNW || d == DirectionSW
}

// IsCorner reports whether the handle sits on a corner of the box.
func (d CompassDirection) IsCorner() bool {
	return (d.hasNorth() || d.hasSouth()) && (d.hasEast() || d.hasWest())
}

// Cursor returns the CSS cursor shown while hovering or dragging the handle.
func (d CompassDirection) Cursor() string {
	switch d {
	case DirectionN, DirectionS:
		return "ns-resize"
	case DirectionE, DirectionW:
		return "ew-resize"
	case DirectionNE, DirectionSW:
		return "nesw-resize"
	case DirectionNW, DirectionSE:
		return "nwse-resize"
	default:
		return "default"
	}
}

// HandlePosition returns the document-space position of the handle on r.
func HandlePosition(r Rect, d CompassDirection) Point {
	p := r.Center()
	if d.hasNorth() {
		p.Y = r.Y
	}
	if d.hasSouth() {
		p.Y = r.MaxY()
	}
	if d.hasWest() {
		p.X = r.X
	}
	if d.hasEast() {
		p.X = r.MaxX()
	}
	return p
}

// ResizeRect drags handle d of r by delta and returns the resulting box.
//
// Scale factors are computed per axis from the handle; the opposite handle
// stays fixed. When constrain is set the factors are reconciled to whichever
// axis changed the most, and edge handles scale the other axis about its
// center. Dragging past the opposite edge yields a negative width or height,
// which callers interpret as a flip.
func ResizeRect(r Rect, d CompassDirection, delta Point, constrain bool) Rect {
	sx, sy := 1.0, 1.0
	if r.Width != 0 {
		switch {
		case d.hasEast():
			sx = (r.Width + delta.X) / r.Width
		case d.hasWest():
			sx = (r.Width - delta.X) / r.Width
		}
	}
	if r.Height != 0 {
		switch {
		case d.hasSouth():
			sy = (r.Height + delta.Y) / r.Height
		case d.hasNorth():
			sy = (r.Height - delta.Y) / r.Height
		}
	}

	if constrain {
		switch {
		case d.IsCorner():
			if math.Abs(sx-1) >= math.Abs(sy-1) {
				sy = sx
			} else {
				sx = sy
			}
		case d == DirectionN || d == DirectionS:
			sx = sy
		default:
			sy = sx
		}
	}

	anchor := r.Center()
	switch {
	case d.hasEast():
		anchor.X = r.X
	case d.hasWest():
		anchor.X = r.MaxX()
	}
	switch {
	case d.hasSouth():
		anchor.Y = r.Y
	case d.hasNorth():
		anchor.Y = r.MaxY()
	}

	return Rect{
		X:      anchor.X + (r.X-anchor.X)*sx,
		Y:      anchor.Y + (r.Y-anchor.Y)*sy,
		Width:  r.Width * sx,
		Height: r.Height * sy,
	}
}

// ScaleMatrix maps the rect from onto to. to may have a negative width or
// height, in which case the mapping mirrors along that axis.
func ScaleMatrix(from, to Rect) Matrix2D {
	sx, sy := 1.0, 1.0
	if from.Width != 0 {
		sx = to.Width / from.Width
	}
	if from.Height != 0 {
		sy = to.Height / from.Height
	}
	return Translate(to.X, to.Y).
		Multiply(Scale(sx, sy)).
		Multiply(Translate(-from.X, -from.Y))
}
