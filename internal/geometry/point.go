package geometry

import "math"

// Point is a position in document space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by other.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the vector from other to p.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale multiplies both coordinates by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Distance returns the euclidean distance to other.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// ExceedsThreshold reports whether p has moved strictly more than threshold
// away from origin along either axis.
func ExceedsThreshold(origin, p Point, threshold float64) bool {
	return math.Abs(p.X-origin.X) > threshold || math.Abs(p.Y-origin.Y) > threshold
}
