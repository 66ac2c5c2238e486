/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package reflow

import (
	"fmt"
	"math"
	"testing"

	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/layout"
	"gocomicpanels/internal/media"
	"gocomicpanels/internal/paneltree"
)

const tol = 1e-9

// stripPage builds a page of n equal leaves side by side, 100 units each.
// Leaf i carries prompt "p<i>", one film and a bubble "<id>/b<i>" at its
// center.
func stripPage(id string, n int) (*Page, []*paneltree.PanelNode) {
	var leaves []*paneltree.PanelNode
	page := &Page{ID: id, Paper: geometry.V(float64(100*n), 100)}
	for i := 1; i <= n; i++ {
		l := paneltree.NewLeaf(1)
		l.Prompt = fmt.Sprintf("p%d", i)
		l.Media = media.NewStack(&media.Film{ID: l.Prompt, Source: l.Prompt + ".png", Size: geometry.V(100, 100), Scale: 1})
		b := &media.Bubble{ID: fmt.Sprintf("%s/b%d", id, i), Size: geometry.V(0.01, 0.1)}
		b.SetPhysicalCenter(page.Paper, geometry.V(float64(100*i-50), 50))
		page.Bubbles = append(page.Bubbles, b)
		leaves = append(leaves, l)
	}
	page.Root = paneltree.NewContainer(paneltree.Horizontal, 1, leaves...)
	return page, leaves
}

func prompts(ls []*paneltree.PanelNode) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Prompt
	}
	return out
}

func bubble(p *Page, id string) *media.Bubble {
	for _, b := range p.Bubbles {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func TestCollectClaimsBubblesOnce(t *testing.T) {
	page, _ := stripPage("p", 3)
	// A second bubble inside leaf 2.
	extra := &media.Bubble{ID: "extra"}
	extra.SetPhysicalCenter(page.Paper, geometry.V(120, 10))
	page.Bubbles = append(page.Bubbles, extra)

	seq := Collect(&Book{Pages: []*Page{page}})
	if len(seq.Slots) != 3 || len(seq.Items) != 3 {
		t.Fatalf("expected 3 slots and items, got %d/%d", len(seq.Slots), len(seq.Items))
	}
	var total int
	for _, it := range seq.Items {
		total += len(it.Bubbles)
	}
	if total != 4 || len(seq.Items[1].Bubbles) != 2 {
		t.Fatalf("unexpected claims: total=%d leaf2=%d", total, len(seq.Items[1].Bubbles))
	}
	if seq.Items[0].Prompt != "p1" || math.Abs(seq.Items[2].SourceRect.X-200) > 1e-6 {
		t.Fatalf("unexpected item %+v", seq.Items[2])
	}
}

func TestCollectSkipsHiddenLeaves(t *testing.T) {
	page, leaves := stripPage("p", 3)
	leaves[1].Visibility = paneltree.Hidden
	seq := Collect(&Book{Pages: []*Page{page}})
	if len(seq.Items) != 2 || seq.Items[1].Prompt != "p3" {
		t.Fatalf("hidden leaf was collected: %d items", len(seq.Items))
	}
}

func TestCollectDealRoundTrip(t *testing.T) {
	page, leaves := stripPage("p", 5)
	before := prompts(leaves)
	stacks := make([]*media.Stack, len(leaves))
	for i, l := range leaves {
		stacks[i] = l.Media
	}
	centers := map[string]geometry.Vector2{}
	for _, b := range page.Bubbles {
		centers[b.ID] = b.Center
	}

	book := &Book{Pages: []*Page{page}}
	Deal(Collect(book), "", "")

	got := prompts(leaves)
	for i := range before {
		if got[i] != before[i] || leaves[i].Media != stacks[i] {
			t.Fatalf("leaf %d changed: %q", i, got[i])
		}
	}
	if len(page.Bubbles) != 5 {
		t.Fatalf("bubble count changed: %d", len(page.Bubbles))
	}
	for _, b := range page.Bubbles {
		if !b.Center.Near(centers[b.ID], tol) {
			t.Fatalf("bubble %s moved from %+v to %+v", b.ID, centers[b.ID], b.Center)
		}
	}
}

func TestDealInsertLeavesMarkedSlotEmpty(t *testing.T) {
	page, leaves := stripPage("p", 5)
	book := &Book{Pages: []*Page{page}}
	seq := Collect(book)
	Deal(seq, leaves[2].ID, "")

	want := []string{"p1", "p2", "", "p3", "p4"}
	if got := prompts(leaves); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("prompts = %q, want %q", got, want)
	}
	if leaves[2].Media != nil {
		t.Fatalf("insert slot kept media")
	}
	if len(seq.RemainingItems()) != 1 {
		t.Fatalf("expected the last item left over")
	}
	// Bubble 3 followed its item into leaf 4.
	if c := bubble(page, "p/b3").PhysicalCenter(page.Paper); math.Abs(c.X-350) > 1e-6 {
		t.Fatalf("b3 at %+v, want x=350", c)
	}
	// Left over bubble stays put.
	if c := bubble(page, "p/b5").PhysicalCenter(page.Paper); math.Abs(c.X-450) > 1e-6 {
		t.Fatalf("b5 at %+v, want x=450", c)
	}
}

func TestDealSpliceDiscardsOneItem(t *testing.T) {
	page, leaves := stripPage("p", 5)
	book := &Book{Pages: []*Page{page}}
	Deal(Collect(book), "", leaves[1].ID)

	want := []string{"p1", "p3", "p4", "p5", ""}
	if got := prompts(leaves); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("prompts = %q, want %q", got, want)
	}
	if bubble(page, "p/b2") != nil || len(page.Bubbles) != 4 {
		t.Fatalf("discarded bubble still on page: %d bubbles", len(page.Bubbles))
	}
	if c := bubble(page, "p/b3").PhysicalCenter(page.Paper); math.Abs(c.X-150) > 1e-6 {
		t.Fatalf("b3 at %+v, want x=150", c)
	}
}

func TestDealTailModeConstrainsMedia(t *testing.T) {
	page, leaves := stripPage("p", 3)
	// Shrink the second film so only renormalization can make it cover again.
	leaves[1].Media.Films[0].Scale = 0.1
	book := &Book{Pages: []*Page{page}}
	Deal(Collect(book), leaves[0].ID, "")

	// Leaf 2 now holds item 1 which was untouched; leaf 3 holds the shrunk
	// film and must have been constrained.
	l := page.Solve(book.Direction)
	slot := layout.FindLayoutOf(l, leaves[2].ID)
	b, ok := media.NewTransformer(leaves[2].Media, page.Paper, slot.Rect()).Bounds()
	if !ok || b.W < slot.Rect().W-1e-6 || b.H < slot.Rect().H-1e-6 {
		t.Fatalf("tail slot not constrained: %+v vs %+v", b, slot.Rect())
	}
}

func TestDealAfterStructuralEditMovesAcrossPages(t *testing.T) {
	p1, l1 := stripPage("one", 2)
	p2, l2 := stripPage("two", 2)
	book := &Book{Pages: []*Page{p1, p2}}

	seq := Collect(book)
	if err := paneltree.Erase(p1.Root, l1[0].ID); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	seq.Retarget(book)
	Deal(seq, "", "")

	if p1.Root.Prompt != "p1" {
		t.Fatalf("page one should keep the first item, got %q", p1.Root.Prompt)
	}
	if l2[0].Prompt != "p2" || l2[1].Prompt != "p1" {
		t.Fatalf("page two prompts = %q", prompts(l2))
	}
	// b2 of page one moved to page two, it was not copied.
	if bubble(p1, "one/b2") != nil {
		t.Fatalf("bubble copied instead of moved")
	}
	moved := bubble(p2, "one/b2")
	if moved == nil {
		t.Fatalf("bubble not moved to page two")
	}
	if c := moved.PhysicalCenter(p2.Paper); !c.Near(geometry.V(50, 50), 1e-6) {
		t.Fatalf("moved bubble at %+v", c)
	}
}

func TestSwapIsolation(t *testing.T) {
	page, leaves := stripPage("p", 5)
	book := &Book{Pages: []*Page{page}}
	seq := Collect(book)
	if !Swap(seq, leaves[0].ID, leaves[3].ID) {
		t.Fatalf("Swap returned false")
	}
	want := []string{"p4", "p2", "p3", "p1", "p5"}
	if got := prompts(leaves); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("prompts = %q, want %q", got, want)
	}
	if len(page.Bubbles) != 5 {
		t.Fatalf("bubble count changed: %d", len(page.Bubbles))
	}
	if c := bubble(page, "p/b1").PhysicalCenter(page.Paper); math.Abs(c.X-350) > 1e-6 {
		t.Fatalf("b1 at %+v, want x=350", c)
	}
	if c := bubble(page, "p/b4").PhysicalCenter(page.Paper); math.Abs(c.X-50) > 1e-6 {
		t.Fatalf("b4 at %+v, want x=50", c)
	}
	if c := bubble(page, "p/b2").PhysicalCenter(page.Paper); math.Abs(c.X-150) > 1e-6 {
		t.Fatalf("b2 moved to %+v", c)
	}

	if Swap(seq, leaves[0].ID, "missing") {
		t.Fatalf("swap with a missing node must be a no-op")
	}
}

func TestSwapTwiceRestoresContent(t *testing.T) {
	page, leaves := stripPage("p", 3)
	book := &Book{Pages: []*Page{page}}
	seq := Collect(book)
	for i := 0; i < 2; i++ {
		if !Swap(seq, leaves[0].ID, leaves[2].ID) {
			t.Fatalf("swap %d returned false", i+1)
		}
	}
	want := []string{"p1", "p2", "p3"}
	if got := prompts(leaves); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("prompts = %q, want %q", got, want)
	}
	for i, x := range []float64{50, 150, 250} {
		id := fmt.Sprintf("p/b%d", i+1)
		if c := bubble(page, id).PhysicalCenter(page.Paper); math.Abs(c.X-x) > 1e-6 {
			t.Fatalf("%s at %+v, want x=%g", id, c, x)
		}
	}

	// The items now describe their holders, so b1 follows its leaf.
	if !Swap(seq, leaves[0].ID, leaves[1].ID) {
		t.Fatalf("third swap returned false")
	}
	if c := bubble(page, "p/b1").PhysicalCenter(page.Paper); math.Abs(c.X-150) > 1e-6 {
		t.Fatalf("b1 at %+v, want x=150", c)
	}
}

func TestSwapRefusesUnpairedSequence(t *testing.T) {
	page, leaves := stripPage("p", 3)
	book := &Book{Pages: []*Page{page}}
	seq := Collect(book)
	seq.Blank(1, 1)
	if Swap(seq, leaves[0].ID, leaves[2].ID) {
		t.Fatalf("swap on an unpaired sequence must be refused")
	}
	want := []string{"p1", "p2", "p3"}
	if got := prompts(leaves); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("prompts changed: %q", got)
	}
}

func TestRefitKeepsCoveredMediaStable(t *testing.T) {
	page, leaves := stripPage("p", 2)
	before := *leaves[0].Media.Films[0]
	Refit(&Book{Pages: []*Page{page}})
	after := *leaves[0].Media.Films[0]
	if math.Abs(after.Scale-before.Scale) > 1e-6 || !after.Translation.Near(before.Translation, 1e-6) {
		t.Fatalf("refit drifted: %+v -> %+v", before, after)
	}
}

func TestSequenceDiscardBlankDropRemaining(t *testing.T) {
	page, leaves := stripPage("s", 4)
	book := &Book{Pages: []*Page{page}}
	seq := Collect(book)

	seq.Discard(1, 3)
	if len(seq.Items) != 2 || seq.Items[1].Prompt != "p4" {
		t.Fatalf("unexpected items after discard: %d", len(seq.Items))
	}
	if bubble(page, "s/b2") != nil || bubble(page, "s/b3") != nil {
		t.Fatalf("discarded bubbles should be deleted")
	}

	seq.Blank(1, 1)
	if len(seq.Items) != 3 || seq.Items[1].Media != nil || seq.Items[2].Prompt != "p4" {
		t.Fatalf("unexpected items after blank")
	}

	Deal(seq, "", "")
	if got := prompts(leaves); fmt.Sprint(got) != fmt.Sprint([]string{"p1", "", "p4", ""}) {
		t.Fatalf("prompts = %v", got)
	}

	seq = Collect(book)
	seq.Retarget(book)
	seq.NextItem()
	seq.DropRemaining()
	if len(seq.RemainingItems()) != 0 {
		t.Fatalf("remaining items not consumed")
	}
	if bubble(page, "s/b4") != nil || bubble(page, "s/b1") == nil {
		t.Fatalf("only the unconsumed bubbles should be deleted: %v", page.Bubbles)
	}
}
