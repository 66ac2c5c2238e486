/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders solved pages to SVG, PDF, PNG and CBZ.
package export

import (
	"fmt"
	"image/color"
	"slices"
	"sort"
	"strconv"
	"strings"

	"gocomicpanels/internal/config"
	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/layout"
	"gocomicpanels/internal/paneltree"
	"gocomicpanels/internal/reflow"
)

// Style controls drawing. Widths are in paper units; Scale is output pixels
// per paper unit for raster formats.
type Style struct {
	Scale       float64
	BorderWidth float64
	Background  color.RGBA
	// Fill paints every visible panel, so panels with a lower Z cover
	// those beneath.
	Fill        color.RGBA
	Border      color.RGBA
	BubbleFill  color.RGBA
	BubbleLine  color.RGBA
	ShowBubbles bool
}

// DefaultStyle returns black borders on white paper.
func DefaultStyle() Style {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	return Style{
		Scale:       1,
		BorderWidth: 3,
		Background:  white,
		Fill:        white,
		Border:      black,
		BubbleFill:  white,
		BubbleLine:  black,
		ShowBubbles: true,
	}
}

// StyleFromConfig applies the export section of the user config.
func StyleFromConfig(c config.ExportConfig) (Style, error) {
	s := DefaultStyle()
	if c.Scale > 0 {
		s.Scale = c.Scale
	}
	if c.BorderWidth > 0 {
		s.BorderWidth = c.BorderWidth
	}
	if c.Background != "" {
		bg, err := ParseHexColor(c.Background)
		if err != nil {
			return s, fmt.Errorf("background: %w", err)
		}
		s.Background, s.Fill, s.BubbleFill = bg, bg, bg
	}
	if c.BorderColor != "" {
		bc, err := ParseHexColor(c.BorderColor)
		if err != nil {
			return s, fmt.Errorf("border color: %w", err)
		}
		s.Border, s.BubbleLine = bc, bc
	}
	s.ShowBubbles = c.ShowBubbles
	return s, nil
}

// ParseHexColor accepts #rgb and #rrggbb.
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type panelShape struct {
	Corners geometry.Trapezoid
	Border  bool
}

type bubbleShape struct {
	Rect geometry.Rect
	Text string
}

// scene is a page flattened into paint order.
type scene struct {
	Paper   geometry.Vector2
	Panels  []panelShape
	Bubbles []bubbleShape
}

// buildScene solves p and orders its visible leaves back to front. The leaf
// a pick would return is painted last.
func buildScene(p *reflow.Page, dir layout.ReadingDirection) scene {
	leaves := layout.VisibleLeaves(p.Solve(dir), dir)
	slices.Reverse(leaves)
	sort.SliceStable(leaves, func(i, j int) bool { return leaves[i].Z > leaves[j].Z })
	sc := scene{Paper: p.Paper}
	for _, l := range leaves {
		sc.Panels = append(sc.Panels, panelShape{Corners: l.Corners, Border: l.Visibility == paneltree.Bordered})
	}
	for _, b := range p.Bubbles {
		sc.Bubbles = append(sc.Bubbles, bubbleShape{Rect: b.PhysicalRect(p.Paper), Text: b.Text})
	}
	return sc
}

// pageIndexes returns the page indexes to export; an empty selection means
// all pages.
func pageIndexes(total int, specific []int) []int {
	if len(specific) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	var out []int
	for _, i := range specific {
		if i >= 0 && i < total {
			out = append(out, i)
		}
	}
	return out
}
