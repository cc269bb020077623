// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"image"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToFloat converts to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// ToImage converts to an image.Point.
func (p PointInt) ToImage() image.Point {
	return image.Point{X: p.X, Y: p.Y}
}

// DegenerateAspect is the aspect ratio reported for a box with a zero-length side.
const DegenerateAspect = 999.0

// BoundingBox is an axis-aligned box in integer pixel units.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewBoundingBox creates a new BoundingBox.
func NewBoundingBox(x, y, width, height int) BoundingBox {
	return BoundingBox{X: x, Y: y, Width: width, Height: height}
}

// FromRectangle converts an image.Rectangle to a BoundingBox.
func FromRectangle(r image.Rectangle) BoundingBox {
	return BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rectangle converts the box to an image.Rectangle.
func (b BoundingBox) Rectangle() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Right returns the x coordinate one past the right edge.
func (b BoundingBox) Right() int {
	return b.X + b.Width
}

// Bottom returns the y coordinate one past the bottom edge.
func (b BoundingBox) Bottom() int {
	return b.Y + b.Height
}

// Center returns the integer center, rounding half-extents down.
func (b BoundingBox) Center() PointInt {
	return PointInt{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// AspectRatio returns max(w,h)/min(w,h), or DegenerateAspect if either side is zero.
func (b BoundingBox) AspectRatio() float64 {
	lo, hi := b.Width, b.Height
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo <= 0 {
		return DegenerateAspect
	}
	return float64(hi) / float64(lo)
}

// Size returns the mean of width and height.
func (b BoundingBox) Size() float64 {
	return float64(b.Width+b.Height) / 2
}

// Empty reports whether the box covers no pixels.
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Offset returns the box translated by (dx, dy).
func (b BoundingBox) Offset(dx, dy int) BoundingBox {
	b.X += dx
	b.Y += dy
	return b
}

// SquareAt returns a side×side box centered on c.
func SquareAt(c PointInt, side int) BoundingBox {
	return BoundingBox{X: c.X - side/2, Y: c.Y - side/2, Width: side, Height: side}
}

// Clip intersects the box with a width×height raster anchored at the origin.
// The result may be empty.
func (b BoundingBox) Clip(width, height int) BoundingBox {
	x0 := max(b.X, 0)
	y0 := max(b.Y, 0)
	x1 := min(b.Right(), width)
	y1 := min(b.Bottom(), height)
	if x1 <= x0 || y1 <= y0 {
		return BoundingBox{X: x0, Y: y0}
	}
	return BoundingBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
