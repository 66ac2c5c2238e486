/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package media

import (
	"math"

	"gocomicpanels/internal/geometry"
)

// RenormalizeEpsilon is the scale delta applied by a renormalization pass.
// It is numerically negligible; the pass exists to re-derive every film
// transform against the current frame.
const RenormalizeEpsilon = 1e-9

// Transformer applies pan/zoom/rotate operations to a stack framed by a
// leaf's bounding rect on a page of the given paper size.
type Transformer struct {
	stack *Stack
	paper geometry.Vector2
	frame geometry.Rect
}

// NewTransformer binds a stack to a paper size and frame.
func NewTransformer(s *Stack, paper geometry.Vector2, frame geometry.Rect) *Transformer {
	return &Transformer{stack: s, paper: paper, frame: frame}
}

// Bounds returns the minimum rect containing every visible film.
// ok is false when there is nothing to measure.
func (t *Transformer) Bounds() (geometry.Rect, bool) {
	if t.stack.Empty() {
		return geometry.Rect{}, false
	}
	var u geometry.Rect
	first := true
	for _, f := range t.stack.Films {
		if f.Hidden {
			continue
		}
		b := f.Bounds(t.paper, t.frame)
		if first {
			u = b
			first = false
		} else {
			u = u.Union(b)
		}
	}
	return u, !first
}

// ScaleAbout multiplies every film scale by k around pivot.
func (t *Transformer) ScaleAbout(k float64, pivot geometry.Vector2) {
	if t.stack.Empty() {
		return
	}
	fc := t.frame.Center()
	for _, f := range t.stack.Films {
		c := f.Center(t.paper, t.frame)
		nc := pivot.Add(c.Sub(pivot).Scale(k))
		f.Scale *= k
		f.Translation = t.normalize(nc.Sub(fc))
	}
}

// Scale applies a uniform scale of (1+delta) about the center of the stack's
// bounding rect. Scale(RenormalizeEpsilon) is the renormalization pass.
func (t *Transformer) Scale(delta float64) {
	u, ok := t.Bounds()
	if !ok {
		return
	}
	t.ScaleAbout(1+delta, u.Center())
}

// Translate shifts every film by d paper units.
func (t *Transformer) Translate(d geometry.Vector2) {
	if t.stack.Empty() {
		return
	}
	n := t.normalize(d)
	for _, f := range t.stack.Films {
		f.Translation = f.Translation.Add(n)
	}
}

// Rotate adds deg degrees to every film's rotation about its own center.
func (t *Transformer) Rotate(deg float64) {
	if t.stack.Empty() {
		return
	}
	for _, f := range t.stack.Films {
		f.Rotation = math.Mod(f.Rotation+deg, 360)
	}
}

// Constrain legalizes the framing: the stack is scaled up (never down) until
// it covers the frame on both axes, then translated so no edge recedes inside
// the frame.
func (t *Transformer) Constrain() {
	if t.stack.Empty() {
		return
	}
	for _, f := range t.stack.Films {
		if f.Scale <= 0 && f.Size.X > 0 && f.Size.Y > 0 {
			f.Scale = 1
		}
	}
	u, ok := t.Bounds()
	if !ok || u.W <= 0 || u.H <= 0 {
		return
	}
	k := math.Max(t.frame.W/u.W, t.frame.H/u.H)
	if k > 1 {
		t.ScaleAbout(k, u.Center())
		u, _ = t.Bounds()
	}
	var d geometry.Vector2
	switch {
	case u.X > t.frame.X:
		d.X = t.frame.X - u.X
	case u.X+u.W < t.frame.X+t.frame.W:
		d.X = t.frame.X + t.frame.W - (u.X + u.W)
	}
	switch {
	case u.Y > t.frame.Y:
		d.Y = t.frame.Y - u.Y
	case u.Y+u.H < t.frame.Y+t.frame.H:
		d.Y = t.frame.Y + t.frame.H - (u.Y + u.H)
	}
	if d != (geometry.Vector2{}) {
		t.Translate(d)
	}
}

// Renormalize runs the renormalization pass followed by Constrain.
func (t *Transformer) Renormalize() {
	t.Scale(RenormalizeEpsilon)
	t.Constrain()
}

func (t *Transformer) normalize(d geometry.Vector2) geometry.Vector2 {
	return geometry.Vector2{X: d.X / t.paper.X, Y: d.Y / t.paper.Y}
}
