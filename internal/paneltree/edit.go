/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package paneltree

import (
	"fmt"

	"gocomicpanels/internal/geometry"
)

// Structural edits. Every edit leaves the derived sizes of the whole tree
// up to date.

// SplitLeaf turns the leaf id into a container along axis with two leaves.
// The container keeps the leaf's id, size, divider and z; the first child
// takes over the content, the second starts empty. gutter becomes the divider
// between the two children.
func SplitLeaf(root *PanelNode, id NodeID, axis Axis, gutter Divider) (first, second *PanelNode, err error) {
	if axis == None {
		return nil, nil, fmt.Errorf("split %s: axis required", id)
	}
	n, _, _, err := root.Find(id)
	if err != nil {
		return nil, nil, fmt.Errorf("split %s: %w", id, err)
	}
	if !n.IsLeaf() {
		return nil, nil, fmt.Errorf("split %s: %w", id, ErrNotLeaf)
	}
	first = &PanelNode{
		ID:            NewID(),
		RawSize:       1,
		Divider:       gutter,
		CornerOffsets: n.CornerOffsets,
		Visibility:    n.Visibility,
		Z:             n.Z,
		Media:         n.Media,
		Prompt:        n.Prompt,
	}
	second = &PanelNode{
		ID:            NewID(),
		RawSize:       1,
		CornerOffsets: n.CornerOffsets,
		Visibility:    n.Visibility,
		Z:             n.Z,
	}
	n.Direction = axis
	n.Children = []*PanelNode{first, second}
	n.Media = nil
	n.Prompt = ""
	n.CornerOffsets = geometry.CornerOffsets{}
	root.RecalculateLengthAndBreadth()
	return first, second, nil
}

// InsertSibling adds an empty leaf next to id, copying its size, padding and
// divider.
func InsertSibling(root *PanelNode, id NodeID, after bool) (*PanelNode, error) {
	n, parent, idx, err := root.Find(id)
	if err != nil {
		return nil, fmt.Errorf("insert next to %s: %w", id, err)
	}
	if parent == nil {
		return nil, fmt.Errorf("insert next to %s: %w", id, ErrNoParent)
	}
	leaf := &PanelNode{
		ID:            NewID(),
		RawSize:       n.RawSize,
		Divider:       n.Divider,
		CornerOffsets: n.CornerOffsets,
		Visibility:    Bordered,
		Z:             n.Z,
	}
	if !n.IsLeaf() {
		leaf.CornerOffsets = geometry.CornerOffsets{}
	}
	at := idx
	if after {
		at = idx + 1
	}
	parent.Children = insertAt(parent.Children, at, leaf)
	root.RecalculateLengthAndBreadth()
	return leaf, nil
}

// Erase removes id from its parent. A parent left with a single child absorbs
// it, so no container ever has just one child.
func Erase(root *PanelNode, id NodeID) error {
	_, parent, idx, err := root.Find(id)
	if err != nil {
		return fmt.Errorf("erase %s: %w", id, err)
	}
	if parent == nil {
		return fmt.Errorf("erase %s: %w", id, ErrNoParent)
	}
	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	if len(parent.Children) == 1 {
		absorb(parent, parent.Children[0])
	}
	root.RecalculateLengthAndBreadth()
	return nil
}

func absorb(parent, only *PanelNode) {
	parent.Direction = only.Direction
	parent.Children = only.Children
	parent.Media = only.Media
	parent.Prompt = only.Prompt
	if only.IsLeaf() {
		parent.CornerOffsets = only.CornerOffsets
		parent.Visibility = only.Visibility
		parent.Z = only.Z
	}
}

// Duplicate inserts a structural copy of id right after it. The copy has
// fresh ids and no content.
func Duplicate(root *PanelNode, id NodeID) (*PanelNode, error) {
	n, parent, idx, err := root.Find(id)
	if err != nil {
		return nil, fmt.Errorf("duplicate %s: %w", id, err)
	}
	if parent == nil {
		return nil, fmt.Errorf("duplicate %s: %w", id, ErrNoParent)
	}
	cp := n.Clone(true)
	parent.Children = insertAt(parent.Children, idx+1, cp)
	root.RecalculateLengthAndBreadth()
	return cp, nil
}

// Transpose flips a container between horizontal and vertical.
func Transpose(root *PanelNode, id NodeID) error {
	n, _, _, err := root.Find(id)
	if err != nil {
		return fmt.Errorf("transpose %s: %w", id, err)
	}
	switch n.Direction {
	case Horizontal:
		n.Direction = Vertical
	case Vertical:
		n.Direction = Horizontal
	default:
		return fmt.Errorf("transpose %s: %w", id, ErrNotContainer)
	}
	root.RecalculateLengthAndBreadth()
	return nil
}

// Resize sets the relative size of id.
func Resize(root *PanelNode, id NodeID, rawSize float64) error {
	if rawSize <= 0 {
		return fmt.Errorf("resize %s: size must be positive, got %g", id, rawSize)
	}
	n, _, _, err := root.Find(id)
	if err != nil {
		return fmt.Errorf("resize %s: %w", id, err)
	}
	n.RawSize = rawSize
	root.RecalculateLengthAndBreadth()
	return nil
}

// SetDivider replaces the divider following id.
func SetDivider(root *PanelNode, id NodeID, d Divider) error {
	n, _, _, err := root.Find(id)
	if err != nil {
		return fmt.Errorf("set divider %s: %w", id, err)
	}
	n.Divider = d
	root.RecalculateLengthAndBreadth()
	return nil
}

func insertAt(s []*PanelNode, i int, n *PanelNode) []*PanelNode {
	s = append(s, nil)
	copy(s[i+1:], s[i:])
	s[i] = n
	return s
}
