package geometry

import "math"

// Matrix2D is an affine transform stored column-major as [a b c d e f]:
//
//	| a  c  e |
//	| b  d  f |
//	| 0  0  1 |
type Matrix2D [6]float64

func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// RotateDegrees rotates clockwise in a y-down space.
func RotateDegrees(degrees float64) Matrix2D {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// FrameMatrix maps a layer's local space (origin at its unrotated top-left)
// into the parent's space. Rotation and flips pivot on the frame centre.
func FrameMatrix(bounds Rect, rotationDegrees float64, flipH, flipV bool) Matrix2D {
	if rotationDegrees == 0 && !flipH && !flipV {
		return Translate(bounds.X, bounds.Y)
	}

	sx, sy := 1.0, 1.0
	if flipH {
		sx = -1
	}
	if flipV {
		sy = -1
	}

	c := bounds.Center()
	return Translate(c.X, c.Y).
		Multiply(RotateDegrees(rotationDegrees)).
		Multiply(Scale(sx, sy)).
		Multiply(Translate(-bounds.Width/2, -bounds.Height/2))
}

// Multiply returns m * n: n is applied first.
func (m Matrix2D) Multiply(n Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

func (m Matrix2D) TransformPoint(p Point) Point {
	v := m.TransformVector(p)
	return Point{X: v.X + m[4], Y: v.Y + m[5]}
}

// TransformVector ignores the translation part.
func (m Matrix2D) TransformVector(v Point) Point {
	return Point{
		X: m[0]*v.X + m[2]*v.Y,
		Y: m[1]*v.X + m[3]*v.Y,
	}
}

// TransformRect returns the axis-aligned bounds of the transformed rect.
func (m Matrix2D) TransformRect(r Rect) Rect {
	first := m.TransformPoint(Point{X: r.X, Y: r.Y})
	lo, hi := first, first
	for _, c := range [3]Point{{X: r.MaxX(), Y: r.Y}, {X: r.MaxX(), Y: r.MaxY()}, {X: r.X, Y: r.MaxY()}} {
		p := m.TransformPoint(c)
		lo = Point{X: min(lo.X, p.X), Y: min(lo.Y, p.Y)}
		hi = Point{X: max(hi.X, p.X), Y: max(hi.Y, p.Y)}
	}
	return RectFromPoints(lo, hi)
}

// Invert returns the inverse, or Identity for a singular matrix.
func (m Matrix2D) Invert() Matrix2D {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		return Identity()
	}
	return Matrix2D{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}
}

// ToSlice is the JSON shape the renderer expects.
func (m Matrix2D) ToSlice() []float64 {
	return m[:]
}

func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	for i, want := range Identity() {
		if math.Abs(m[i]-want) >= eps {
			return false
		}
	}
	return true
}
