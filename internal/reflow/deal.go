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

// Deal places the remaining items onto the remaining slots in order.
//
// A slot solved for splice first discards the next item; its bubbles are
// deleted. A slot solved for insert, or any slot left once the items run
// out, is emptied. Either event switches to tail mode, in which every later
// slot that receives content has its media renormalized and constrained to
// the new geometry. Items left over at the end are dropped and their bubbles
// stay where they were. Empty ids disable the markers.
func Deal(seq *Sequence, insert, splice paneltree.NodeID) {
	var placed, emptied, discarded int
	tail := false
	for {
		s, ok := seq.NextSlot()
		if !ok {
			break
		}
		node, _, _, err := s.Page.Root.Find(s.Layout.Node)
		if err != nil {
			continue
		}
		if splice != "" && s.Layout.Node == splice {
			if it, ok := seq.NextItem(); ok {
				dropBubbles(it)
				discarded++
			}
			tail = true
		}
		var it Item
		if insert == "" || s.Layout.Node != insert {
			it, ok = seq.NextItem()
		} else {
			ok = false
		}
		if !ok {
			node.Media = nil
			node.Prompt = ""
			tail = true
			emptied++
			continue
		}
		place(s, node, it)
		if tail {
			renormalize(s, node)
		}
		placed++
	}
	applog.WithComponent("reflow").Debug("deal",
		"placed", placed,
		"emptied", emptied,
		"discarded", discarded,
		"leftover", len(seq.RemainingItems()),
	)
}

// place attaches it to node and maps its bubbles into the slot.
func place(s Slot, node *paneltree.PanelNode, it Item) {
	node.Media = it.Media
	node.Prompt = it.Prompt
	moveBubbles(it.Bubbles, it.SourcePage, it.SourceRect, s.Page, s.Layout.Rect())
}

// moveBubbles maps bubble centers from src on one page to dst on another,
// transferring ownership when the page changes.
func moveBubbles(bs []*media.Bubble, from *Page, src geometry.Rect, to *Page, dst geometry.Rect) {
	for _, b := range bs {
		c := geometry.MapPoint(b.PhysicalCenter(from.Paper), src, dst)
		b.SetPhysicalCenter(to.Paper, c)
		if from != to && from.RemoveBubble(b) {
			to.Bubbles = append(to.Bubbles, b)
		}
	}
}

func renormalize(s Slot, node *paneltree.PanelNode) {
	if node.Media.Empty() {
		return
	}
	media.NewTransformer(node.Media, s.Page.Paper, s.Layout.Rect()).Scale(media.RenormalizeEpsilon)
	layout.ConstrainLeaf(s.Page.Paper, s.Layout, node.Media)
}

// Swap exchanges the content of the leaves solved for a and b, remapping
// each side's bubbles into the other leaf. Neither cursor moves and no other
// slot is touched. The two items are updated to describe their new holders,
// so swaps can be repeated on the same sequence. It reports false when
// either leaf is not in the sequence or when slots and items are no longer
// paired one to one, as after Retarget, Discard or Blank.
func Swap(seq *Sequence, a, b paneltree.NodeID) bool {
	if len(seq.Slots) != len(seq.Items) {
		return false
	}
	ia, ib := seq.IndexOf(a), seq.IndexOf(b)
	if ia < 0 || ib < 0 {
		return false
	}
	if ia == ib {
		return true
	}
	sa, sb := seq.Slots[ia], seq.Slots[ib]
	na, _, _, errA := sa.Page.Root.Find(a)
	nb, _, _, errB := sb.Page.Root.Find(b)
	if errA != nil || errB != nil {
		return false
	}
	itA, itB := seq.Items[ia], seq.Items[ib]

	na.Media, nb.Media = nb.Media, na.Media
	na.Prompt, nb.Prompt = nb.Prompt, na.Prompt
	moveBubbles(itA.Bubbles, itA.SourcePage, itA.SourceRect, sb.Page, sb.Layout.Rect())
	moveBubbles(itB.Bubbles, itB.SourcePage, itB.SourceRect, sa.Page, sa.Layout.Rect())
	renormalize(sa, na)
	renormalize(sb, nb)

	seq.Items[ia] = Item{SourcePage: sa.Page, SourceRect: sa.Layout.Rect(), Media: na.Media, Bubbles: itB.Bubbles, Prompt: na.Prompt}
	seq.Items[ib] = Item{SourcePage: sb.Page, SourceRect: sb.Layout.Rect(), Media: nb.Media, Bubbles: itA.Bubbles, Prompt: nb.Prompt}

	applog.WithComponent("reflow").Debug("swap", "a", string(a), "b", string(b))
	return true
}

// Refit renormalizes and constrains the media of every visible leaf.
func Refit(book *Book) {
	for _, page := range book.Pages {
		for _, leaf := range layout.VisibleLeaves(page.Solve(book.Direction), book.Direction) {
			node, _, _, err := page.Root.Find(leaf.Node)
			if err != nil {
				continue
			}
			renormalize(Slot{Layout: leaf, Page: page}, node)
		}
	}
}
