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
	"testing"

	"gocomicpanels/internal/geometry"
)

const tol = 1e-6

func TestConstrainCoversFrame(t *testing.T) {
	paper := geometry.V(840, 1188)
	frames := []geometry.Rect{
		geometry.R(10, 10, 300, 200),
		geometry.R(400, 50, 80, 600),
		geometry.R(0, 0, 840, 1188),
	}
	naturals := []geometry.Vector2{{X: 100, Y: 100}, {X: 1920, Y: 1080}, {X: 30, Y: 900}}
	for _, frame := range frames {
		for _, n := range naturals {
			f := &Film{Size: n, Scale: 0.1, Translation: geometry.V(0.2, -0.3)}
			tr := NewTransformer(NewStack(f), paper, frame)
			tr.Constrain()
			b := f.Bounds(paper, frame)
			if b.W < frame.W-tol || b.H < frame.H-tol {
				t.Fatalf("film %v does not cover frame %v: %+v", n, frame, b)
			}
			if b.X > frame.X+tol || b.Y > frame.Y+tol || b.X+b.W < frame.X+frame.W-tol || b.Y+b.H < frame.Y+frame.H-tol {
				t.Fatalf("film %v leaves a gap in frame %v: %+v", n, frame, b)
			}
		}
	}
}

func TestConstrainNeverShrinks(t *testing.T) {
	paper := geometry.V(100, 100)
	frame := geometry.R(0, 0, 50, 50)
	f := &Film{Size: geometry.V(100, 100), Scale: 2}
	NewTransformer(NewStack(f), paper, frame).Constrain()
	if f.Scale != 2 {
		t.Fatalf("scale changed for an already covering film: %v", f.Scale)
	}
}

func TestConstrainClampsTranslation(t *testing.T) {
	paper := geometry.V(100, 100)
	frame := geometry.R(0, 0, 50, 50)
	// 100x100 film pushed far right: its left edge would be inside the frame
	f := &Film{Size: geometry.V(100, 100), Scale: 1, Translation: geometry.V(0.6, 0)}
	NewTransformer(NewStack(f), paper, frame).Constrain()
	b := f.Bounds(paper, frame)
	if math.Abs(b.X-frame.X) > tol {
		t.Fatalf("expected left edge clamped to frame, got %+v", b)
	}
}

func TestRenormalizeIsNumericallyStable(t *testing.T) {
	paper := geometry.V(800, 1200)
	frame := geometry.R(100, 100, 200, 200)
	f := &Film{Size: geometry.V(400, 400), Scale: 1, Translation: geometry.V(0.01, 0.02)}
	before := f.Bounds(paper, frame)
	NewTransformer(NewStack(f), paper, frame).Renormalize()
	after := f.Bounds(paper, frame)
	if !before.Origin().Near(after.Origin(), 1e-4) || !before.Size().Near(after.Size(), 1e-4) {
		t.Fatalf("renormalize drifted: before=%+v after=%+v", before, after)
	}
}

func TestScaleAboutKeepsPivot(t *testing.T) {
	paper := geometry.V(100, 100)
	frame := geometry.R(0, 0, 100, 100)
	a := &Film{Size: geometry.V(10, 10), Scale: 1, Translation: geometry.V(-0.2, 0)}
	b := &Film{Size: geometry.V(10, 10), Scale: 1, Translation: geometry.V(0.2, 0)}
	tr := NewTransformer(NewStack(a, b), paper, frame)
	u0, _ := tr.Bounds()
	tr.Scale(1) // doubles
	u1, _ := tr.Bounds()
	if !u0.Center().Near(u1.Center(), tol) {
		t.Fatalf("center moved: %+v -> %+v", u0.Center(), u1.Center())
	}
	if math.Abs(u1.W-2*u0.W) > tol {
		t.Fatalf("expected doubled width, got %v -> %v", u0.W, u1.W)
	}
}

func TestRotatedBounds(t *testing.T) {
	f := &Film{Size: geometry.V(100, 50), Scale: 1, Rotation: 90}
	b := f.Bounds(geometry.V(1, 1), geometry.R(0, 0, 0, 0))
	if math.Abs(b.W-50) > tol || math.Abs(b.H-100) > tol {
		t.Fatalf("unexpected rotated bounds: %+v", b)
	}
}

func TestEmptyStackIsNoop(t *testing.T) {
	tr := NewTransformer(nil, geometry.V(10, 10), geometry.R(0, 0, 5, 5))
	tr.Constrain()
	tr.Renormalize()
	if _, ok := tr.Bounds(); ok {
		t.Fatalf("nil stack should have no bounds")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := NewStack(&Film{ID: "f1", Scale: 1, Effects: []Effect{{Name: "blur", Params: map[string]float64{"r": 2}}}})
	c := s.Clone()
	c.Films[0].Scale = 3
	c.Films[0].Effects[0].Params["r"] = 9
	if s.Films[0].Scale != 1 || s.Films[0].Effects[0].Params["r"] != 2 {
		t.Fatalf("clone shares state with original")
	}
}

func TestBubblePhysicalCenterRoundTrip(t *testing.T) {
	paper := geometry.V(840, 1188)
	b := &Bubble{ID: "b1", Center: geometry.V(0.5, 0.25), Size: geometry.V(0.1, 0.05)}
	if got := b.PhysicalCenter(paper); !got.Near(geometry.V(420, 297), tol) {
		t.Fatalf("PhysicalCenter = %+v", got)
	}
	b.SetPhysicalCenter(paper, geometry.V(84, 594))
	if !b.Center.Near(geometry.V(0.1, 0.5), tol) {
		t.Fatalf("SetPhysicalCenter stored %+v", b.Center)
	}
	r := b.PhysicalRect(paper)
	if math.Abs(r.W-84) > tol || math.Abs(r.H-59.4) > tol {
		t.Fatalf("PhysicalRect = %+v", r)
	}
}
