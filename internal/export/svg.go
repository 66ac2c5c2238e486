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
	"io"
	"os"
	"path/filepath"
	"strings"

	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/layout"
	"gocomicpanels/internal/reflow"
)

// WriteSVG renders one page as an SVG document. The viewBox is the paper in
// paper units; width/height are scaled by st.Scale.
func WriteSVG(w io.Writer, p *reflow.Page, dir layout.ReadingDirection, st Style) error {
	sc := buildScene(p, dir)
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%gpx\" height=\"%gpx\" viewBox=\"0 0 %g %g\">\n",
		sc.Paper.X*st.Scale, sc.Paper.Y*st.Scale, sc.Paper.X, sc.Paper.Y)
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", sc.Paper.X, sc.Paper.Y, hexColor(st.Background))

	fill, border := hexColor(st.Fill), hexColor(st.Border)
	for _, ps := range sc.Panels {
		stroke := "none"
		if ps.Border {
			stroke = border
		}
		wf("  <polygon points=\"%s\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\" stroke-linejoin=\"miter\"/>\n",
			svgPoints(ps.Corners), fill, stroke, st.BorderWidth)
	}

	if st.ShowBubbles {
		bf, bl := hexColor(st.BubbleFill), hexColor(st.BubbleLine)
		lw := st.BorderWidth / 2
		for _, b := range sc.Bubbles {
			c := b.Rect.Center()
			wf("  <ellipse cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				c.X, c.Y, b.Rect.W/2, b.Rect.H/2, bf, bl, lw)
			if b.Text != "" {
				fsz := bubbleFontSize(b.Rect)
				lines := wrapText(b.Text, b.Rect.W*bubbleTextInset, approxMeasure(fsz))
				for i, dy := range lineOffsets(len(lines), fsz*1.2) {
					wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" text-anchor=\"middle\" dominant-baseline=\"middle\" fill=\"%s\">%s</text>\n",
						c.X, c.Y+dy, fsz, bl, escText(lines[i]))
				}
			}
		}
	}
	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// ExportSVGPages writes page-<n>.svg files into outDir.
func ExportSVGPages(b *reflow.Book, outDir string, pages []int, st Style) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	var written []string
	for _, pidx := range pageIndexes(len(b.Pages), pages) {
		var buf bytes.Buffer
		if err := WriteSVG(&buf, b.Pages[pidx], b.Direction, st); err != nil {
			return written, err
		}
		name := filepath.Join(outDir, fmt.Sprintf("page-%d.svg", pidx+1))
		if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("write svg: %w", err)
		}
		written = append(written, name)
	}
	return written, nil
}

func svgPoints(t geometry.Trapezoid) string {
	var sb strings.Builder
	for i, p := range t.Points() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%g,%g", p.X, p.Y)
	}
	return sb.String()
}

// bubbleFontSize picks a text size from the bubble height.
func bubbleFontSize(r geometry.Rect) float64 {
	return max(6, min(24, r.H/3))
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
