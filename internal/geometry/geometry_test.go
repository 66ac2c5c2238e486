/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import (
	"math"
	"testing"
)

func TestIntersectPerpendicular(t *testing.T) {
	p, ok := Intersect(LineThrough(V(0, 5), V(10, 5)), LineAt(V(3, 0), 90))
	if !ok {
		t.Fatalf("expected intersection")
	}
	if !p.Near(V(3, 5), 1e-9) {
		t.Fatalf("unexpected intersection: %+v", p)
	}
}

func TestIntersectParallelAndDegenerate(t *testing.T) {
	if _, ok := Intersect(LineThrough(V(0, 0), V(1, 0)), LineThrough(V(0, 1), V(5, 1))); ok {
		t.Fatalf("parallel lines must not intersect")
	}
	if _, ok := Intersect(LineThrough(V(2, 2), V(2, 2)), LineThrough(V(0, 1), V(5, 1))); ok {
		t.Fatalf("degenerate line must not intersect")
	}
	fb := V(7, 7)
	if got := IntersectOr(LineThrough(V(2, 2), V(2, 2)), LineThrough(V(0, 1), V(5, 1)), fb); got != fb {
		t.Fatalf("expected fallback, got %+v", got)
	}
}

func TestLineAtSlant(t *testing.T) {
	l := LineAt(V(0, 0), 45)
	p, ok := Intersect(l, LineThrough(V(0, 10), V(1, 10)))
	if !ok || !p.Near(V(10, 10), 1e-9) {
		t.Fatalf("45deg line should cross y=10 at x=10, got %+v ok=%v", p, ok)
	}
}

func TestPointInTrapezoid(t *testing.T) {
	tr := Trapezoid{TopLeft: V(0, 0), TopRight: V(100, 0), BottomLeft: V(20, 50), BottomRight: V(80, 50)}
	cases := []struct {
		p    Vector2
		want bool
	}{
		{V(50, 25), true},
		{V(0, 0), true},
		{V(5, 45), false},
		{V(95, 45), false},
		{V(50, 51), false},
		{V(90, 10), true},
	}
	for _, c := range cases {
		if got := PointInTrapezoid(c.p, tr); got != c.want {
			t.Fatalf("PointInTrapezoid(%+v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestBoundingRect(t *testing.T) {
	tr := Trapezoid{TopLeft: V(10, 5), TopRight: V(90, 0), BottomLeft: V(0, 40), BottomRight: V(100, 50)}
	r := BoundingRect(tr)
	if r != R(0, 0, 100, 50) {
		t.Fatalf("unexpected bounding rect: %+v", r)
	}
}

func TestOffsetCornersMovesInward(t *testing.T) {
	raw := RectTrapezoid(V(0, 0), V(200, 100))
	off := CornerOffsets{
		TopLeft:     V(0.1, 0.1),
		TopRight:    V(0.05, 0),
		BottomLeft:  V(0, 0.2),
		BottomRight: V(0.1, 0.1),
	}
	got := OffsetCorners(V(200, 100), raw, off)
	want := Trapezoid{TopLeft: V(20, 10), TopRight: V(190, 0), BottomLeft: V(0, 80), BottomRight: V(180, 90)}
	if !got.Near(want, 1e-9) {
		t.Fatalf("OffsetCorners = %+v, want %+v", got, want)
	}
}

func TestMapPoint(t *testing.T) {
	src := R(0, 0, 100, 100)
	dst := R(50, 20, 200, 50)
	got := MapPoint(V(25, 50), src, dst)
	if !got.Near(V(100, 45), 1e-9) {
		t.Fatalf("MapPoint = %+v", got)
	}
	// zero-size source axis maps to destination center
	got = MapPoint(V(3, 3), R(3, 0, 0, 10), dst)
	if math.Abs(got.X-150) > 1e-9 {
		t.Fatalf("expected center X for zero-width source, got %+v", got)
	}
}
