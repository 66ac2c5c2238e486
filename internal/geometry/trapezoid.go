/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import "math"

// Trapezoid is any quadrilateral given by four corners. Winding is always
// top-before-bottom and left-before-right.
type Trapezoid struct {
	TopLeft, TopRight, BottomLeft, BottomRight Vector2
}

// CornerOffsets holds per-corner inward padding as fractions of a size.
type CornerOffsets struct {
	TopLeft, TopRight, BottomLeft, BottomRight Vector2
}

// RectTrapezoid returns the axis-aligned trapezoid spanning origin..origin+size.
func RectTrapezoid(origin, size Vector2) Trapezoid {
	return Trapezoid{
		TopLeft:     origin,
		TopRight:    Vector2{origin.X + size.X, origin.Y},
		BottomLeft:  Vector2{origin.X, origin.Y + size.Y},
		BottomRight: origin.Add(size),
	}
}

// Points returns the corners in drawing order (clockwise from top-left).
func (t Trapezoid) Points() [4]Vector2 {
	return [4]Vector2{t.TopLeft, t.TopRight, t.BottomRight, t.BottomLeft}
}

func (t Trapezoid) Top() Line    { return LineThrough(t.TopLeft, t.TopRight) }
func (t Trapezoid) Bottom() Line { return LineThrough(t.BottomLeft, t.BottomRight) }
func (t Trapezoid) Left() Line   { return LineThrough(t.TopLeft, t.BottomLeft) }
func (t Trapezoid) Right() Line  { return LineThrough(t.TopRight, t.BottomRight) }

// Near reports whether all four corners are within tol of o's.
func (t Trapezoid) Near(o Trapezoid, tol float64) bool {
	return t.TopLeft.Near(o.TopLeft, tol) && t.TopRight.Near(o.TopRight, tol) &&
		t.BottomLeft.Near(o.BottomLeft, tol) && t.BottomRight.Near(o.BottomRight, tol)
}

// BoundingRect returns the axis-aligned min/max box of the four corners.
func BoundingRect(t Trapezoid) Rect {
	pts := t.Points()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// OffsetCorners moves every corner inward by offsets.<corner> * rawSize,
// component-wise.
func OffsetCorners(rawSize Vector2, corners Trapezoid, offsets CornerOffsets) Trapezoid {
	return Trapezoid{
		TopLeft:     corners.TopLeft.Add(offsets.TopLeft.Mul(rawSize)),
		TopRight:    corners.TopRight.Add(Vector2{-offsets.TopRight.X, offsets.TopRight.Y}.Mul(rawSize)),
		BottomLeft:  corners.BottomLeft.Add(Vector2{offsets.BottomLeft.X, -offsets.BottomLeft.Y}.Mul(rawSize)),
		BottomRight: corners.BottomRight.Sub(offsets.BottomRight.Mul(rawSize)),
	}
}

// PointInTrapezoid reports whether p lies in either triangle obtained by
// splitting t along its TopLeft-BottomRight diagonal. Edges count as inside.
func PointInTrapezoid(p Vector2, t Trapezoid) bool {
	return pointInTriangle(p, t.TopLeft, t.TopRight, t.BottomRight) ||
		pointInTriangle(p, t.TopLeft, t.BottomRight, t.BottomLeft)
}

func pointInTriangle(p, a, b, c Vector2) bool {
	d1 := b.Sub(a).Cross(p.Sub(a))
	d2 := c.Sub(b).Cross(p.Sub(b))
	d3 := a.Sub(c).Cross(p.Sub(c))
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// Extend grows t outward by dx on the left/right edges and dy on the top/bottom.
func (t Trapezoid) Extend(dx, dy float64) Trapezoid {
	return Trapezoid{
		TopLeft:     t.TopLeft.Add(Vector2{-dx, -dy}),
		TopRight:    t.TopRight.Add(Vector2{dx, -dy}),
		BottomLeft:  t.BottomLeft.Add(Vector2{-dx, dy}),
		BottomRight: t.BottomRight.Add(Vector2{dx, dy}),
	}
}
