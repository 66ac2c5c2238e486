/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package media models the content attached to a panel: a stack of films
// (images or video frames, each with its own transform and effect chain) and
// the speech bubbles that live on a page.
//
// Film translations and bubble centers are stored normalized to the paper
// size so a page can be re-sized without breaking framing; the physical
// helpers convert to paper units.
package media

import (
	"math"

	"gocomicpanels/internal/geometry"
)

// Effect is an opaque entry in a film's effect pipeline.
type Effect struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// Film is a single image/video layer of a media stack.
type Film struct {
	ID     string           `yaml:"id"`
	Source string           `yaml:"source"`
	Size   geometry.Vector2 `yaml:"size"` // natural size in pixels
	// Scale converts natural pixels into paper units.
	Scale float64 `yaml:"scale"`
	// Translation is the offset of the film center from the frame center,
	// as a fraction of the paper size.
	Translation geometry.Vector2 `yaml:"translation"`
	Rotation    float64          `yaml:"rotation"` // degrees
	Effects     []Effect         `yaml:"effects,omitempty"`
	Hidden      bool             `yaml:"hidden,omitempty"`
}

// Center returns the physical film center for the given paper and frame.
func (f *Film) Center(paper geometry.Vector2, frame geometry.Rect) geometry.Vector2 {
	return frame.Center().Add(f.Translation.Mul(paper))
}

// Bounds returns the axis-aligned box of the rotated, scaled film.
func (f *Film) Bounds(paper geometry.Vector2, frame geometry.Rect) geometry.Rect {
	w := f.Size.X * f.Scale
	h := f.Size.Y * f.Scale
	rad := f.Rotation * math.Pi / 180
	c, s := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	bw := w*c + h*s
	bh := w*s + h*c
	ctr := f.Center(paper, frame)
	return geometry.Rect{X: ctr.X - bw/2, Y: ctr.Y - bh/2, W: bw, H: bh}
}

// Stack is the ordered list of films attached to a leaf panel. Index 0 is
// painted first.
type Stack struct {
	Films []*Film `yaml:"films"`
}

// NewStack returns a stack holding the given films.
func NewStack(films ...*Film) *Stack { return &Stack{Films: films} }

// Empty reports whether the stack has no films. A nil stack is empty.
func (s *Stack) Empty() bool { return s == nil || len(s.Films) == 0 }

// Clone deep-copies the stack.
func (s *Stack) Clone() *Stack {
	if s == nil {
		return nil
	}
	out := &Stack{Films: make([]*Film, 0, len(s.Films))}
	for _, f := range s.Films {
		cp := *f
		if f.Effects != nil {
			cp.Effects = make([]Effect, len(f.Effects))
			for i, e := range f.Effects {
				cp.Effects[i] = Effect{Name: e.Name}
				if e.Params != nil {
					cp.Effects[i].Params = make(map[string]float64, len(e.Params))
					for k, v := range e.Params {
						cp.Effects[i].Params[k] = v
					}
				}
			}
		}
		out.Films = append(out.Films, &cp)
	}
	return out
}
