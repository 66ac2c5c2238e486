/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/layout"
	"gocomicpanels/internal/reflow"
)

// ellipseSegments is the polygon resolution of rasterized bubbles.
const ellipseSegments = 48

// RenderPage rasterizes one page. The image is Paper*Scale pixels.
func RenderPage(p *reflow.Page, dir layout.ReadingDirection, st Style) *image.RGBA {
	sc := buildScene(p, dir)
	s := st.Scale
	if s <= 0 {
		s = 1
	}
	w := max(1, int(math.Round(sc.Paper.X*s)))
	h := max(1, int(math.Round(sc.Paper.Y*s)))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(st.Background), image.Point{}, draw.Src)

	r := &raster{img: img, z: vector.NewRasterizer(w, h), scale: s}
	for _, ps := range sc.Panels {
		pts := ps.Corners.Points()
		r.fill(pts[:], st.Fill)
		if ps.Border {
			r.stroke(pts[:], st.BorderWidth, st.Border)
		}
	}
	if st.ShowBubbles {
		for _, b := range sc.Bubbles {
			ring := ellipse(b.Rect)
			r.fill(ring, st.BubbleFill)
			r.stroke(ring, st.BorderWidth/2, st.BubbleLine)
			if b.Text != "" {
				lines := wrapText(b.Text, b.Rect.W*s*bubbleTextInset, basicMeasure)
				lh := float64(basicfont.Face7x13.Height) / s
				for i, dy := range lineOffsets(len(lines), lh) {
					r.text(b.Rect.Center().Add(geometry.V(0, dy)), lines[i], st.BubbleLine)
				}
			}
		}
	}
	return img
}

// EncodePNG renders a page and returns PNG bytes.
func EncodePNG(p *reflow.Page, dir layout.ReadingDirection, st Style) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, RenderPage(p, dir, st)); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportPNGPages writes page-<n>.png files into outDir.
func ExportPNGPages(b *reflow.Book, outDir string, pages []int, st Style) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	var written []string
	for _, pidx := range pageIndexes(len(b.Pages), pages) {
		data, err := EncodePNG(b.Pages[pidx], b.Direction, st)
		if err != nil {
			return written, err
		}
		name := filepath.Join(outDir, fmt.Sprintf("page-%d.png", pidx+1))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return written, fmt.Errorf("write png: %w", err)
		}
		written = append(written, name)
	}
	return written, nil
}

type raster struct {
	img   *image.RGBA
	z     *vector.Rasterizer
	scale float64
}

func (r *raster) reset() {
	b := r.img.Bounds()
	r.z.Reset(b.Dx(), b.Dy())
}

func (r *raster) pt(p geometry.Vector2) (float32, float32) {
	return float32(p.X * r.scale), float32(p.Y * r.scale)
}

func (r *raster) paint(c color.RGBA) {
	r.z.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{})
}

// fill paints the closed polygon pts.
func (r *raster) fill(pts []geometry.Vector2, c color.RGBA) {
	if len(pts) < 3 {
		return
	}
	r.reset()
	r.z.MoveTo(r.pt(pts[0]))
	for _, p := range pts[1:] {
		r.z.LineTo(r.pt(p))
	}
	r.z.ClosePath()
	r.paint(c)
}

// stroke paints the outline of the closed polygon pts, width paper units
// wide and centered on the edges. Each edge is a quad with the same
// winding, so overlaps at the corners do not cancel.
func (r *raster) stroke(pts []geometry.Vector2, width float64, c color.RGBA) {
	if width <= 0 || len(pts) < 2 {
		return
	}
	r.reset()
	hw := width / 2
	for i, a := range pts {
		b := pts[(i+1)%len(pts)]
		d := b.Sub(a)
		l := d.Len()
		if l < geometry.Epsilon {
			continue
		}
		// Extend along the edge so corners are closed.
		ext := d.Scale(hw / l)
		n := geometry.V(-d.Y, d.X).Scale(hw / l)
		a0, b0 := a.Sub(ext), b.Add(ext)
		r.z.MoveTo(r.pt(a0.Add(n)))
		r.z.LineTo(r.pt(b0.Add(n)))
		r.z.LineTo(r.pt(b0.Sub(n)))
		r.z.LineTo(r.pt(a0.Sub(n)))
		r.z.ClosePath()
	}
	r.paint(c)
}

// text draws a single centered line with the built-in bitmap face.
func (r *raster) text(center geometry.Vector2, s string, c color.RGBA) {
	d := &font.Drawer{Dst: r.img, Src: image.NewUniform(c), Face: basicfont.Face7x13}
	w := d.MeasureString(s).Ceil()
	x := int(math.Round(center.X*r.scale)) - w/2
	y := int(math.Round(center.Y*r.scale)) + basicfont.Face7x13.Ascent/2
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// ellipse approximates the ellipse inscribed in rect.
func ellipse(rect geometry.Rect) []geometry.Vector2 {
	c := rect.Center()
	out := make([]geometry.Vector2, ellipseSegments)
	for i := range out {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		out[i] = geometry.V(c.X+rect.W/2*math.Cos(a), c.Y+rect.H/2*math.Sin(a))
	}
	return out
}
