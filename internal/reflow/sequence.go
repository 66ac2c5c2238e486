/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package reflow

import (
	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/layout"
	applog "gocomicpanels/internal/log"
	"gocomicpanels/internal/media"
	"gocomicpanels/internal/paneltree"
)

// Slot is a destination leaf for content.
type Slot struct {
	Layout     *layout.Layout
	Page       *Page
	PageNumber int
}

// Item is content lifted from a leaf, waiting to be placed.
type Item struct {
	SourcePage *Page
	SourceRect geometry.Rect
	Media      *media.Stack
	Bubbles    []*media.Bubble
	Prompt     string
}

// Sequence pairs slots with items. Both are consumed front to back through
// cursors; the underlying slices are never shifted.
type Sequence struct {
	Slots []Slot
	Items []Item

	slot, item int
}

// NextSlot returns the next unconsumed slot.
func (s *Sequence) NextSlot() (Slot, bool) {
	if s.slot >= len(s.Slots) {
		return Slot{}, false
	}
	s.slot++
	return s.Slots[s.slot-1], true
}

// NextItem returns the next unconsumed item.
func (s *Sequence) NextItem() (Item, bool) {
	if s.item >= len(s.Items) {
		return Item{}, false
	}
	s.item++
	return s.Items[s.item-1], true
}

// RemainingItems returns the items not yet placed or discarded.
func (s *Sequence) RemainingItems() []Item { return s.Items[s.item:] }

// IndexOf returns the index of the slot solved for id, or -1.
func (s *Sequence) IndexOf(id paneltree.NodeID) int {
	for i, sl := range s.Slots {
		if sl.Layout.Node == id {
			return i
		}
	}
	return -1
}

// Collect lifts the content of every visible leaf of the book, page by page
// in traversal order. Each bubble is claimed by the first leaf whose
// trapezoid contains its center; unclaimed bubbles stay where they are.
func Collect(book *Book) *Sequence {
	seq := &Sequence{}
	for pn, page := range book.Pages {
		pool := append([]*media.Bubble(nil), page.Bubbles...)
		for _, leaf := range layout.VisibleLeaves(page.Solve(book.Direction), book.Direction) {
			node, _, _, err := page.Root.Find(leaf.Node)
			if err != nil {
				continue
			}
			var claimed []*media.Bubble
			rest := pool[:0]
			for _, b := range pool {
				if geometry.PointInTrapezoid(b.PhysicalCenter(page.Paper), leaf.Corners) {
					claimed = append(claimed, b)
				} else {
					rest = append(rest, b)
				}
			}
			pool = rest
			seq.Slots = append(seq.Slots, Slot{Layout: leaf, Page: page, PageNumber: pn})
			seq.Items = append(seq.Items, Item{
				SourcePage: page,
				SourceRect: leaf.Rect(),
				Media:      node.Media,
				Bubbles:    claimed,
				Prompt:     node.Prompt,
			})
		}
	}
	applog.WithComponent("reflow").Debug("collect", "pages", len(book.Pages), "slots", len(seq.Slots))
	return seq
}

// Retarget replaces the slots with those of the book's current structure and
// rewinds the slot cursor. Items are kept. Call it after a structural edit
// and before Deal.
func (s *Sequence) Retarget(book *Book) {
	s.Slots = nil
	for pn, page := range book.Pages {
		for _, leaf := range layout.VisibleLeaves(page.Solve(book.Direction), book.Direction) {
			s.Slots = append(s.Slots, Slot{Layout: leaf, Page: page, PageNumber: pn})
		}
	}
	s.slot = 0
}

// Discard removes the items in [from, to) and deletes their bubbles from
// their pages. Indexes are clamped to the unconsumed items.
func (s *Sequence) Discard(from, to int) {
	from, to = max(from, s.item), min(to, len(s.Items))
	if from >= to {
		return
	}
	for _, it := range s.Items[from:to] {
		dropBubbles(it)
	}
	s.Items = append(s.Items[:from], s.Items[to:]...)
}

// Blank inserts n empty items at index at. Dealing one onto a slot clears it.
func (s *Sequence) Blank(at, n int) {
	if n <= 0 {
		return
	}
	at = min(max(at, s.item), len(s.Items))
	s.Items = append(s.Items[:at], append(make([]Item, n), s.Items[at:]...)...)
}

// DropRemaining consumes the items Deal left over and deletes their bubbles.
func (s *Sequence) DropRemaining() {
	for _, it := range s.RemainingItems() {
		dropBubbles(it)
	}
	s.item = len(s.Items)
}

func dropBubbles(it Item) {
	if it.SourcePage == nil {
		return
	}
	for _, b := range it.Bubbles {
		it.SourcePage.RemoveBubble(b)
	}
}
