/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package paneltree is the hierarchical model of a page: a tree of panels
// where containers split their area along one axis and leaves carry content.
package paneltree

import (
	"errors"

	"github.com/google/uuid"

	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/media"
)

var (
	ErrNotFound      = errors.New("panel not found")
	ErrNoParent      = errors.New("panel has no parent")
	ErrNotLeaf       = errors.New("panel is not a leaf")
	ErrNotContainer  = errors.New("panel is not a container")
	ErrInvalidMarkup = errors.New("invalid panel markup")
)

// Axis is the split direction of a container. None marks a leaf.
type Axis int

const (
	None Axis = iota
	Horizontal
	Vertical
)

func (a Axis) String() string {
	switch a {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "none"
	}
}

// Visibility controls how a panel takes part in drawing and reflow.
type Visibility int

const (
	// Hidden panels keep their slot but are neither drawn, picked nor collected.
	Hidden Visibility = iota
	// Borderless panels draw content without a border.
	Borderless
	// Bordered panels draw content and border.
	Bordered
)

// NodeID identifies a panel across edits and layout passes.
type NodeID string

// NewID returns a fresh random node id.
func NewID() NodeID { return NodeID(uuid.NewString()) }

// Divider describes the boundary following a node among its siblings.
// Spacing is in the same units as RawSize; Slant is in degrees.
type Divider struct {
	Spacing float64
	Slant   float64
}

// PanelNode is one node of the panel tree.
//
// LocalLength and LocalBreadth are derived and must be refreshed with
// RecalculateLengthAndBreadth after any structural change.
type PanelNode struct {
	ID            NodeID
	RawSize       float64
	Direction     Axis
	Children      []*PanelNode
	LocalLength   float64
	LocalBreadth  float64
	Divider       Divider
	CornerOffsets geometry.CornerOffsets
	Visibility    Visibility
	Z             int

	// Leaf payload.
	Media  *media.Stack
	Prompt string
}

// NewLeaf returns a bordered leaf with the given relative size.
func NewLeaf(rawSize float64) *PanelNode {
	n := &PanelNode{ID: NewID(), RawSize: rawSize, Visibility: Bordered}
	n.RecalculateLengthAndBreadth()
	return n
}

// NewContainer returns a container splitting along dir.
func NewContainer(dir Axis, rawSize float64, children ...*PanelNode) *PanelNode {
	n := &PanelNode{ID: NewID(), RawSize: rawSize, Direction: dir, Children: children, Visibility: Bordered}
	n.RecalculateLengthAndBreadth()
	return n
}

// IsLeaf reports whether n has no direction.
func (n *PanelNode) IsLeaf() bool { return n.Direction == None }

// RecalculateLengthAndBreadth refreshes the derived sizes of n and its subtree.
func (n *PanelNode) RecalculateLengthAndBreadth() {
	n.LocalBreadth = n.RawSize
	if n.IsLeaf() {
		n.LocalLength = n.RawSize
		return
	}
	var length float64
	for i, c := range n.Children {
		c.RecalculateLengthAndBreadth()
		length += c.RawSize
		if i < len(n.Children)-1 {
			length += c.Divider.Spacing
		}
	}
	n.LocalLength = length
}

// Walk visits n and its descendants depth-first in child order.
// Returning false from fn stops the walk.
func (n *PanelNode) Walk(fn func(node, parent *PanelNode, index int) bool) {
	walk(n, nil, -1, fn)
}

func walk(n, parent *PanelNode, index int, fn func(node, parent *PanelNode, index int) bool) bool {
	if !fn(n, parent, index) {
		return false
	}
	for i, c := range n.Children {
		if !walk(c, n, i, fn) {
			return false
		}
	}
	return true
}

// Find returns the node with the given id together with its parent and its
// index within the parent (-1 for the root).
func (n *PanelNode) Find(id NodeID) (node, parent *PanelNode, index int, err error) {
	index = -1
	n.Walk(func(c, p *PanelNode, i int) bool {
		if c.ID == id {
			node, parent, index = c, p, i
			return false
		}
		return true
	})
	if node == nil {
		return nil, nil, -1, ErrNotFound
	}
	return node, parent, index, nil
}

// Leaves returns all leaves in child order.
func (n *PanelNode) Leaves() []*PanelNode {
	var out []*PanelNode
	n.Walk(func(c, _ *PanelNode, _ int) bool {
		if c.IsLeaf() {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Clone deep-copies the subtree. When freshIDs is set every copied node gets
// a new id and content is left empty.
func (n *PanelNode) Clone(freshIDs bool) *PanelNode {
	cp := *n
	cp.Children = nil
	if freshIDs {
		cp.ID = NewID()
		cp.Media = nil
		cp.Prompt = ""
	} else {
		cp.Media = n.Media.Clone()
	}
	for _, c := range n.Children {
		cp.Children = append(cp.Children, c.Clone(freshIDs))
	}
	return &cp
}
