/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package media

import "gocomicpanels/internal/geometry"

// Bubble is a speech balloon owned by a page. Center and Size are fractions
// of the paper size.
type Bubble struct {
	ID     string           `yaml:"id"`
	Shape  string           `yaml:"shape,omitempty"` // ellipse, box, shout, ...
	Text   string           `yaml:"text,omitempty"`
	Center geometry.Vector2 `yaml:"center"`
	Size   geometry.Vector2 `yaml:"size"`
}

// PhysicalCenter returns the bubble center in paper units.
func (b *Bubble) PhysicalCenter(paper geometry.Vector2) geometry.Vector2 {
	return b.Center.Mul(paper)
}

// SetPhysicalCenter moves the bubble so its center lies at p (paper units).
func (b *Bubble) SetPhysicalCenter(paper geometry.Vector2, p geometry.Vector2) {
	b.Center = geometry.Vector2{X: p.X / paper.X, Y: p.Y / paper.Y}
}

// PhysicalRect returns the bubble's bounding box in paper units.
func (b *Bubble) PhysicalRect(paper geometry.Vector2) geometry.Rect {
	c := b.PhysicalCenter(paper)
	s := b.Size.Mul(paper)
	return geometry.Rect{X: c.X - s.X/2, Y: c.Y - s.Y/2, W: s.X, H: s.Y}
}
