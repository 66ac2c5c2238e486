/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout turns a panel tree and a paper size into concrete panel
// quadrilaterals, and answers hit-testing queries against the result.
package layout

import (
	"gocomicpanels/internal/geometry"
	applog "gocomicpanels/internal/log"
	"gocomicpanels/internal/paneltree"
)

// ReadingDirection controls the placement order of children in horizontal
// containers.
type ReadingDirection int

const (
	LeftToRight ReadingDirection = iota
	RightToLeft
)

func (d ReadingDirection) String() string {
	if d == RightToLeft {
		return "rtl"
	}
	return "ltr"
}

// ParseReadingDirection accepts "ltr" or "rtl"; anything else is ltr.
func ParseReadingDirection(s string) ReadingDirection {
	if s == "rtl" {
		return RightToLeft
	}
	return LeftToRight
}

// Layout is the solved geometry of one panel. It is a value tree with no
// pointers into the panel tree; Node identifies the originating panel.
type Layout struct {
	Node       paneltree.NodeID
	Direction  paneltree.Axis
	Visibility paneltree.Visibility
	Z          int

	// Axis-aligned box of the padded region.
	Origin geometry.Vector2
	Size   geometry.Vector2
	// Unpadded box handed down by the parent.
	RawOrigin geometry.Vector2
	RawSize   geometry.Vector2

	Corners       geometry.Trapezoid
	FormalCorners geometry.Trapezoid

	// Children in tree order. Use Ordered for traversal order.
	Children []*Layout
}

// IsLeaf reports whether l has no children.
func (l *Layout) IsLeaf() bool { return len(l.Children) == 0 }

// Rect returns the bounding rect of the padded corners.
func (l *Layout) Rect() geometry.Rect { return geometry.BoundingRect(l.Corners) }

// Order returns children in traversal order: tree order, reversed for
// horizontal containers under right-to-left reading. The solver places
// children left to right in this order, and every traversal over its output
// uses the same function.
func Order[T any](children []T, axis paneltree.Axis, dir ReadingDirection) []T {
	if axis != paneltree.Horizontal || dir != RightToLeft || len(children) < 2 {
		return children
	}
	out := make([]T, len(children))
	for i, c := range children {
		out[len(children)-1-i] = c
	}
	return out
}

// Ordered returns l's children in traversal order.
func (l *Layout) Ordered(dir ReadingDirection) []*Layout {
	return Order(l.Children, l.Direction, dir)
}

// Walk visits l and its descendants pre-order in traversal order. Returning
// false from fn stops the walk.
func Walk(l *Layout, dir ReadingDirection, fn func(*Layout) bool) {
	walk(l, dir, fn)
}

func walk(l *Layout, dir ReadingDirection, fn func(*Layout) bool) bool {
	if !fn(l) {
		return false
	}
	for _, c := range l.Ordered(dir) {
		if !walk(c, dir, fn) {
			return false
		}
	}
	return true
}

// Leaves returns all leaves in traversal order.
func Leaves(l *Layout, dir ReadingDirection) []*Layout {
	var out []*Layout
	Walk(l, dir, func(c *Layout) bool {
		if c.IsLeaf() {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Solve lays out node inside the axis-aligned box rawOrigin..rawOrigin+rawSize.
func Solve(node *paneltree.PanelNode, rawSize, rawOrigin geometry.Vector2, dir ReadingDirection) *Layout {
	applog.WithComponent("layout").Debug("solve",
		"root", string(node.ID),
		"w", rawSize.X, "h", rawSize.Y,
		"dir", dir.String(),
	)
	return solve(node, rawSize, rawOrigin, geometry.RectTrapezoid(rawOrigin, rawSize), dir)
}

func solve(node *paneltree.PanelNode, rawSize, rawOrigin geometry.Vector2, formal geometry.Trapezoid, dir ReadingDirection) *Layout {
	padded := geometry.OffsetCorners(rawSize, formal, node.CornerOffsets)
	box := geometry.BoundingRect(padded)

	l := &Layout{
		Node:          node.ID,
		Direction:     node.Direction,
		Visibility:    node.Visibility,
		Z:             node.Z,
		Origin:        box.Origin(),
		Size:          box.Size(),
		RawOrigin:     rawOrigin,
		RawSize:       rawSize,
		FormalCorners: formal,
		Corners:       edgeCorners(padded, formal),
	}
	if node.IsLeaf() || len(node.Children) == 0 {
		return l
	}

	l.Children = make([]*Layout, len(node.Children))
	switch node.Direction {
	case paneltree.Horizontal:
		solveRow(node, l, dir)
	case paneltree.Vertical:
		solveColumn(node, l, dir)
	}
	return l
}

// edgeCorners intersects the four edges through the padded corners. A
// degenerate edge falls back to the unpadded corner.
func edgeCorners(p, formal geometry.Trapezoid) geometry.Trapezoid {
	top, bottom, left, right := p.Top(), p.Bottom(), p.Left(), p.Right()
	return geometry.Trapezoid{
		TopLeft:     geometry.IntersectOr(top, left, formal.TopLeft),
		TopRight:    geometry.IntersectOr(top, right, formal.TopRight),
		BottomLeft:  geometry.IntersectOr(bottom, left, formal.BottomLeft),
		BottomRight: geometry.IntersectOr(bottom, right, formal.BottomRight),
	}
}

// span is one child's slot along a container's main axis, in tree index
// terms so the divider following the tree-earlier child can be looked up.
type span struct {
	index      int
	start, end float64
}

// spans walks children in traversal order and accumulates their main-axis
// extents. Dividers sit between walked neighbours and belong to whichever of
// the two comes first in tree order.
func spans(node *paneltree.PanelNode, scale float64, dir ReadingDirection) []span {
	idx := make([]int, len(node.Children))
	for i := range idx {
		idx[i] = i
	}
	idx = Order(idx, node.Direction, dir)

	out := make([]span, len(idx))
	var offset float64
	for k, i := range idx {
		end := offset + node.Children[i].RawSize*scale
		out[k] = span{index: i, start: offset, end: end}
		offset = end
		if k < len(idx)-1 {
			offset += dividerBetween(node, i, idx[k+1]).Spacing * scale
		}
	}
	return out
}

func dividerBetween(node *paneltree.PanelNode, a, b int) paneltree.Divider {
	return node.Children[min(a, b)].Divider
}

func solveRow(node *paneltree.PanelNode, l *Layout, dir ReadingDirection) {
	scale := l.Size.X / node.LocalLength
	ss := spans(node, scale, dir)
	top, bottom := l.Corners.Top(), l.Corners.Bottom()
	midY := l.Origin.Y + l.Size.Y/2

	for k, s := range ss {
		child := node.Children[s.index]
		x0, x1 := l.Origin.X+s.start, l.Origin.X+s.end
		left, right := l.Corners.Left(), l.Corners.Right()
		if k > 0 {
			d := dividerBetween(node, ss[k-1].index, s.index)
			left = geometry.LineAt(geometry.V(x0, midY), 90+d.Slant)
		}
		if k < len(ss)-1 {
			d := dividerBetween(node, s.index, ss[k+1].index)
			right = geometry.LineAt(geometry.V(x1, midY), 90+d.Slant)
		}
		size := geometry.V(x1-x0, l.Size.Y)
		origin := geometry.V(x0, l.Origin.Y)
		rect := geometry.RectTrapezoid(origin, size)
		corners := geometry.Trapezoid{
			TopLeft:     geometry.IntersectOr(top, left, rect.TopLeft),
			TopRight:    geometry.IntersectOr(top, right, rect.TopRight),
			BottomLeft:  geometry.IntersectOr(bottom, left, rect.BottomLeft),
			BottomRight: geometry.IntersectOr(bottom, right, rect.BottomRight),
		}
		l.Children[s.index] = solve(child, size, origin, corners, dir)
	}
}

func solveColumn(node *paneltree.PanelNode, l *Layout, dir ReadingDirection) {
	scale := l.Size.Y / node.LocalLength
	ss := spans(node, scale, dir)
	left, right := l.Corners.Left(), l.Corners.Right()
	midX := l.Origin.X + l.Size.X/2

	for k, s := range ss {
		child := node.Children[s.index]
		y0, y1 := l.Origin.Y+s.start, l.Origin.Y+s.end
		top, bottom := l.Corners.Top(), l.Corners.Bottom()
		if k > 0 {
			d := dividerBetween(node, ss[k-1].index, s.index)
			top = geometry.LineAt(geometry.V(midX, y0), -d.Slant)
		}
		if k < len(ss)-1 {
			d := dividerBetween(node, s.index, ss[k+1].index)
			bottom = geometry.LineAt(geometry.V(midX, y1), -d.Slant)
		}
		size := geometry.V(l.Size.X, y1-y0)
		origin := geometry.V(l.Origin.X, y0)
		rect := geometry.RectTrapezoid(origin, size)
		corners := geometry.Trapezoid{
			TopLeft:     geometry.IntersectOr(top, left, rect.TopLeft),
			TopRight:    geometry.IntersectOr(top, right, rect.TopRight),
			BottomLeft:  geometry.IntersectOr(bottom, left, rect.BottomLeft),
			BottomRight: geometry.IntersectOr(bottom, right, rect.BottomRight),
		}
		l.Children[s.index] = solve(child, size, origin, corners, dir)
	}
}

// FindLayoutOf returns the layout solved for id, or nil.
func FindLayoutOf(l *Layout, id paneltree.NodeID) *Layout {
	var found *Layout
	Walk(l, LeftToRight, func(c *Layout) bool {
		if c.Node == id {
			found = c
			return false
		}
		return true
	})
	return found
}
