/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geometry holds the 2D primitives used by the panel layout solver:
// vectors, infinite lines, axis-aligned rects and four-corner trapezoids.
//
// Coordinates are paper units with the origin at the top-left and Y growing
// downwards. Angles are in degrees, measured from the +X axis towards +Y.
package geometry

import "math"

// Epsilon is the tolerance used for degenerate-line detection.
const Epsilon = 1e-9

// Vector2 is a 2D point or direction.
type Vector2 struct{ X, Y float64 }

// V is shorthand for Vector2{X: x, Y: y}.
func V(x, y float64) Vector2 { return Vector2{X: x, Y: y} }

func (v Vector2) Add(o Vector2) Vector2             { return Vector2{v.X + o.X, v.Y + o.Y} }
func (v Vector2) Sub(o Vector2) Vector2             { return Vector2{v.X - o.X, v.Y - o.Y} }
func (v Vector2) Scale(s float64) Vector2           { return Vector2{v.X * s, v.Y * s} }
func (v Vector2) Mul(o Vector2) Vector2             { return Vector2{v.X * o.X, v.Y * o.Y} }
func (v Vector2) Cross(o Vector2) float64           { return v.X*o.Y - v.Y*o.X }
func (v Vector2) Len() float64                      { return math.Hypot(v.X, v.Y) }
func (v Vector2) Lerp(o Vector2, t float64) Vector2 { return v.Add(o.Sub(v).Scale(t)) }

// Near reports whether v and o are within tol of each other on both axes.
func (v Vector2) Near(o Vector2, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol
}

// Rect is an axis-aligned rectangle defined by its min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Origin() Vector2 { return Vector2{r.X, r.Y} }
func (r Rect) Size() Vector2   { return Vector2{r.W, r.H} }
func (r Rect) Center() Vector2 { return Vector2{r.X + r.W/2, r.Y + r.H/2} }

func (r Rect) Contains(p Vector2) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// MapPoint maps p from the coordinate frame of src into dst by independent
// per-axis linear interpolation. A zero-size source axis maps to the
// destination center on that axis.
func MapPoint(p Vector2, src, dst Rect) Vector2 {
	out := dst.Center()
	if src.W != 0 {
		out.X = dst.X + dst.W*(p.X-src.X)/src.W
	}
	if src.H != 0 {
		out.Y = dst.Y + dst.H*(p.Y-src.Y)/src.H
	}
	return out
}

// Line is an infinite line through two points.
type Line struct{ P0, P1 Vector2 }

// LineThrough builds the line through p0 and p1.
func LineThrough(p0, p1 Vector2) Line { return Line{P0: p0, P1: p1} }

// LineAt builds the line through point with the given direction in degrees.
func LineAt(point Vector2, angleDeg float64) Line {
	rad := angleDeg * math.Pi / 180
	return Line{P0: point, P1: point.Add(Vector2{math.Cos(rad), math.Sin(rad)})}
}

// Degenerate reports whether the line's defining points coincide.
func (l Line) Degenerate() bool { return l.P1.Sub(l.P0).Len() < Epsilon }

// Intersect returns the intersection of two infinite lines. ok is false for
// parallel lines or when either line is degenerate; callers supply their own
// fallback point in that case.
func Intersect(l0, l1 Line) (Vector2, bool) {
	if l0.Degenerate() || l1.Degenerate() {
		return Vector2{}, false
	}
	d0 := l0.P1.Sub(l0.P0)
	d1 := l1.P1.Sub(l1.P0)
	den := d0.Cross(d1)
	if math.Abs(den) < Epsilon*d0.Len()*d1.Len() {
		return Vector2{}, false
	}
	t := l1.P0.Sub(l0.P0).Cross(d1) / den
	return l0.P0.Add(d0.Scale(t)), true
}

// IntersectOr returns the intersection of l0 and l1, or fallback when undefined.
func IntersectOr(l0, l1 Line, fallback Vector2) Vector2 {
	if p, ok := Intersect(l0, l1); ok {
		return p
	}
	return fallback
}
