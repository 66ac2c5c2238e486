/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"gocomicpanels/internal/reflow"
)

// ExportPDF writes the selected pages of b into a single PDF. One paper unit
// maps to one point; each PDF page takes the size of its paper.
func ExportPDF(b *reflow.Book, title, outPath string, pages []int, st Style) error {
	if b == nil || len(b.Pages) == 0 {
		return fmt.Errorf("book has no pages")
	}
	first := b.Pages[0].Paper
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: first.X, Ht: first.Y},
	})
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.SetAuthor("Go Comic Panels", false)
	pdf.SetFont("Helvetica", "", 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, pidx := range pageIndexes(len(b.Pages), pages) {
		sc := buildScene(b.Pages[pidx], b.Direction)
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: sc.Paper.X, Ht: sc.Paper.Y})

		setFillColor(pdf, st.Background)
		pdf.Rect(0, 0, sc.Paper.X, sc.Paper.Y, "F")

		setFillColor(pdf, st.Fill)
		setDrawColor(pdf, st.Border)
		pdf.SetLineWidth(st.BorderWidth)
		pdf.SetLineJoinStyle("miter")
		for _, ps := range sc.Panels {
			pts := make([]gofpdf.PointType, 0, 4)
			for _, p := range ps.Corners.Points() {
				pts = append(pts, gofpdf.PointType{X: p.X, Y: p.Y})
			}
			style := "F"
			if ps.Border {
				style = "FD"
			}
			pdf.Polygon(pts, style)
		}

		if st.ShowBubbles {
			setFillColor(pdf, st.BubbleFill)
			setDrawColor(pdf, st.BubbleLine)
			pdf.SetLineWidth(st.BorderWidth / 2)
			for _, bs := range sc.Bubbles {
				c := bs.Rect.Center()
				pdf.Ellipse(c.X, c.Y, bs.Rect.W/2, bs.Rect.H/2, 0, "FD")
				if bs.Text == "" {
					continue
				}
				fsz := bubbleFontSize(bs.Rect)
				pdf.SetFont("Helvetica", "", fsz)
				setTextColor(pdf, st.BubbleLine)
				lines := wrapText(tr(bs.Text), bs.Rect.W*bubbleTextInset, pdf.GetStringWidth)
				for i, dy := range lineOffsets(len(lines), fsz*1.2) {
					pdf.Text(c.X-pdf.GetStringWidth(lines[i])/2, c.Y+dy+fsz/3, lines[i])
				}
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setTextColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}
