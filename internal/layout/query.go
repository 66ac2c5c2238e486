/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/media"
	"gocomicpanels/internal/paneltree"
)

// DefaultPaddingHandleWidth is the width of the padding grab zones.
const DefaultPaddingHandleWidth = 20

// FindLeafAt returns the visible leaf containing p. Overlapping leaves are
// resolved by lowest Z, then by traversal order.
func FindLeafAt(l *Layout, p geometry.Vector2, dir ReadingDirection) *Layout {
	var best *Layout
	visibleLeaves(l, dir, func(c *Layout) {
		if !geometry.PointInTrapezoid(p, c.Corners) {
			return
		}
		if best == nil || c.Z < best.Z {
			best = c
		}
	})
	return best
}

// VisibleLeaves returns the leaves that take part in drawing, picking and
// reflow, in traversal order. Hidden subtrees are skipped.
func VisibleLeaves(l *Layout, dir ReadingDirection) []*Layout {
	var out []*Layout
	visibleLeaves(l, dir, func(c *Layout) { out = append(out, c) })
	return out
}

func visibleLeaves(l *Layout, dir ReadingDirection, fn func(*Layout)) {
	if l.Visibility == paneltree.Hidden {
		return
	}
	if l.IsLeaf() {
		fn(l)
		return
	}
	for _, c := range l.Ordered(dir) {
		visibleLeaves(c, dir, fn)
	}
}

// BorderHandle identifies the divider between two adjacent panels.
type BorderHandle struct {
	Container *Layout
	// Before and After are the neighbours in traversal order.
	Before, After *Layout
	// Owner is the tree-earlier of the two; its Divider describes this border.
	Owner paneltree.NodeID
	// Zone is the grab area that was hit.
	Zone geometry.Trapezoid
}

// FindBorderAt returns the first divider, pre-order, whose grab zone
// contains p. margin widens the zone on every side.
func FindBorderAt(l *Layout, p geometry.Vector2, margin float64, dir ReadingDirection) *BorderHandle {
	var hit *BorderHandle
	Walk(l, dir, func(c *Layout) bool {
		kids := c.Ordered(dir)
		for i := 0; i+1 < len(kids); i++ {
			a, b := kids[i], kids[i+1]
			zone := borderZone(c.Direction, a, b).Extend(margin, margin)
			if geometry.PointInTrapezoid(p, zone) {
				hit = &BorderHandle{Container: c, Before: a, After: b, Owner: treeEarlier(c, a, b), Zone: zone}
				return false
			}
		}
		return true
	})
	return hit
}

func borderZone(axis paneltree.Axis, a, b *Layout) geometry.Trapezoid {
	if axis == paneltree.Vertical {
		return geometry.Trapezoid{
			TopLeft:     a.FormalCorners.BottomLeft,
			TopRight:    a.FormalCorners.BottomRight,
			BottomLeft:  b.FormalCorners.TopLeft,
			BottomRight: b.FormalCorners.TopRight,
		}
	}
	return geometry.Trapezoid{
		TopLeft:     a.FormalCorners.TopRight,
		TopRight:    b.FormalCorners.TopLeft,
		BottomLeft:  a.FormalCorners.BottomRight,
		BottomRight: b.FormalCorners.BottomLeft,
	}
}

func treeEarlier(c, a, b *Layout) paneltree.NodeID {
	for _, k := range c.Children {
		switch k {
		case a:
			return a.Node
		case b:
			return b.Node
		}
	}
	return a.Node
}

// PaddingZone names one of the eight padding grab zones around a leaf.
type PaddingZone int

const (
	PadTopLeft PaddingZone = iota
	PadTopRight
	PadBottomLeft
	PadBottomRight
	PadTop
	PadBottom
	PadLeft
	PadRight
)

var paddingZoneNames = [...]string{"top-left", "top-right", "bottom-left", "bottom-right", "top", "bottom", "left", "right"}

func (z PaddingZone) String() string {
	if int(z) < len(paddingZoneNames) {
		return paddingZoneNames[z]
	}
	return "unknown"
}

// PaddingHandle identifies a padding grab zone of a leaf.
type PaddingHandle struct {
	Leaf *Layout
	Zone PaddingZone
	Area geometry.Trapezoid
}

// FindPaddingAt returns the padding zone under p, testing corner zones before
// edge zones for each visible leaf in traversal order. width <= 0 selects
// DefaultPaddingHandleWidth.
func FindPaddingAt(l *Layout, p geometry.Vector2, width float64, dir ReadingDirection) *PaddingHandle {
	if width <= 0 {
		width = DefaultPaddingHandleWidth
	}
	var hit *PaddingHandle
	visibleLeaves(l, dir, func(c *Layout) {
		if hit != nil {
			return
		}
		for z, area := range paddingZones(c.Corners, width/2) {
			if geometry.PointInTrapezoid(p, area) {
				hit = &PaddingHandle{Leaf: c, Zone: PaddingZone(z), Area: area}
				return
			}
		}
	})
	return hit
}

// paddingZones returns the grab areas indexed by PaddingZone.
func paddingZones(t geometry.Trapezoid, h float64) [8]geometry.Trapezoid {
	square := func(p geometry.Vector2) geometry.Trapezoid {
		return geometry.RectTrapezoid(p.Sub(geometry.V(h, h)), geometry.V(2*h, 2*h))
	}
	dy := geometry.V(0, h)
	dx := geometry.V(h, 0)
	return [8]geometry.Trapezoid{
		PadTopLeft:     square(t.TopLeft),
		PadTopRight:    square(t.TopRight),
		PadBottomLeft:  square(t.BottomLeft),
		PadBottomRight: square(t.BottomRight),

		PadTop: {
			TopLeft: t.TopLeft.Sub(dy), TopRight: t.TopRight.Sub(dy),
			BottomLeft: t.TopLeft.Add(dy), BottomRight: t.TopRight.Add(dy),
		},
		PadBottom: {
			TopLeft: t.BottomLeft.Sub(dy), TopRight: t.BottomRight.Sub(dy),
			BottomLeft: t.BottomLeft.Add(dy), BottomRight: t.BottomRight.Add(dy),
		},
		PadLeft: {
			TopLeft: t.TopLeft.Sub(dx), TopRight: t.TopLeft.Add(dx),
			BottomLeft: t.BottomLeft.Sub(dx), BottomRight: t.BottomLeft.Add(dx),
		},
		PadRight: {
			TopLeft: t.TopRight.Sub(dx), TopRight: t.TopRight.Add(dx),
			BottomLeft: t.BottomRight.Sub(dx), BottomRight: t.BottomRight.Add(dx),
		},
	}
}

// ConstrainLeaf rescales and clamps stack so it covers the leaf's bounding
// rect without gaps.
func ConstrainLeaf(paper geometry.Vector2, l *Layout, stack *media.Stack) {
	media.NewTransformer(stack, paper, l.Rect()).Constrain()
}
