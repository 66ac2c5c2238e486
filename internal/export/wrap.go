/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// bubbleTextInset is the share of the bubble width usable for text; the
// rest is lost to the ellipse curvature.
const bubbleTextInset = 0.7

// wrapText breaks s on spaces so each line fits maxWidth as reported by
// measure. Newlines always break. A word wider than maxWidth gets a line of
// its own rather than being split.
func wrapText(s string, maxWidth float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		var cur string
		for _, word := range strings.Fields(para) {
			if cur == "" {
				cur = word
				continue
			}
			if maxWidth > 0 && measure(cur+" "+word) > maxWidth {
				lines = append(lines, cur)
				cur = word
				continue
			}
			cur += " " + word
		}
		lines = append(lines, cur)
	}
	return lines
}

// basicMeasure measures with the bitmap face used for raster output.
func basicMeasure(s string) float64 {
	d := &font.Drawer{Face: basicfont.Face7x13}
	return float64(d.MeasureString(s)) / 64
}

// approxMeasure estimates a proportional sans-serif at size px.
func approxMeasure(px float64) func(string) float64 {
	return func(s string) float64 { return float64(len([]rune(s))) * px * 0.55 }
}

// lineOffsets returns the baseline shift of each of n lines so the block is
// centered on zero.
func lineOffsets(n int, lineHeight float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = (float64(i) - float64(n-1)/2) * lineHeight
	}
	return out
}
