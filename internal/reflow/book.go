/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package reflow moves panel content (media, prompts and the speech bubbles
// over them) between panels when the panel structure of a book changes.
package reflow

import (
	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/layout"
	"gocomicpanels/internal/media"
	"gocomicpanels/internal/paneltree"
)

// Page is one page of a book: its paper size, panel tree and bubbles.
type Page struct {
	ID      string
	Paper   geometry.Vector2
	Root    *paneltree.PanelNode
	Bubbles []*media.Bubble
}

// Book is an ordered set of pages sharing a reading direction.
type Book struct {
	Pages     []*Page
	Direction layout.ReadingDirection
}

// Solve lays out the page on its paper.
func (p *Page) Solve(dir layout.ReadingDirection) *layout.Layout {
	return layout.Solve(p.Root, p.Paper, geometry.V(0, 0), dir)
}

// RemoveBubble detaches b from the page. It reports whether b was present.
func (p *Page) RemoveBubble(b *media.Bubble) bool {
	for i, x := range p.Bubbles {
		if x == b {
			p.Bubbles = append(p.Bubbles[:i], p.Bubbles[i+1:]...)
			return true
		}
	}
	return false
}

// PageOf returns the index of the page whose tree contains id, or -1.
func (b *Book) PageOf(id paneltree.NodeID) int {
	for i, p := range b.Pages {
		if _, _, _, err := p.Root.Find(id); err == nil {
			return i
		}
	}
	return -1
}
