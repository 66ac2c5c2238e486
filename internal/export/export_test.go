/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocomicpanels/internal/config"
	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/layout"
	"gocomicpanels/internal/media"
	"gocomicpanels/internal/paneltree"
	"gocomicpanels/internal/reflow"
	"gocomicpanels/internal/storage"
)

// samplePage is a 200x100 page with a bordered and a borderless panel and
// one bubble in the left panel.
func samplePage() (*reflow.Page, *paneltree.PanelNode, *paneltree.PanelNode) {
	a, b := paneltree.NewLeaf(1), paneltree.NewLeaf(1)
	b.Visibility = paneltree.Borderless
	p := &reflow.Page{ID: "p1", Paper: geometry.V(200, 100), Root: paneltree.NewContainer(paneltree.Horizontal, 1, a, b)}
	p.Bubbles = []*media.Bubble{{ID: "b1", Text: "Hi & bye", Center: geometry.V(0.25, 0.5), Size: geometry.V(0.2, 0.2)}}
	return p, a, b
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#ff8000")
	if err != nil || c != (color.RGBA{R: 255, G: 128, B: 0, A: 255}) {
		t.Fatalf("got %v err=%v", c, err)
	}
	c, err = ParseHexColor("0f0")
	if err != nil || c != (color.RGBA{G: 255, A: 255}) {
		t.Fatalf("short form: got %v err=%v", c, err)
	}
	if _, err := ParseHexColor("#12345"); err == nil {
		t.Fatalf("expected error for bad length")
	}
	if _, err := ParseHexColor("#zzzzzz"); err == nil {
		t.Fatalf("expected error for bad digits")
	}
}

func TestStyleFromConfig(t *testing.T) {
	st, err := StyleFromConfig(config.ExportConfig{Scale: 2, BorderWidth: 5, Background: "#eeeeee", BorderColor: "#112233", ShowBubbles: false})
	if err != nil {
		t.Fatalf("StyleFromConfig: %v", err)
	}
	if st.Scale != 2 || st.BorderWidth != 5 || st.ShowBubbles {
		t.Fatalf("unexpected style %+v", st)
	}
	if st.Fill != (color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 255}) || st.Border != (color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 255}) {
		t.Fatalf("colors not applied: %+v", st)
	}
	if _, err := StyleFromConfig(config.ExportConfig{Background: "nope"}); err == nil {
		t.Fatalf("expected color error")
	}
}

func TestSceneOrderMatchesPicking(t *testing.T) {
	a, b, c := paneltree.NewLeaf(1), paneltree.NewLeaf(1), paneltree.NewLeaf(1)
	a.Z = 1
	hidden := paneltree.NewLeaf(1)
	hidden.Visibility = paneltree.Hidden
	p := &reflow.Page{Paper: geometry.V(400, 100), Root: paneltree.NewContainer(paneltree.Horizontal, 1, a, b, c, hidden)}

	sc := buildScene(p, layout.LeftToRight)
	if len(sc.Panels) != 3 {
		t.Fatalf("hidden panel should not be drawn, got %d panels", len(sc.Panels))
	}
	l := p.Solve(layout.LeftToRight)
	want := []paneltree.NodeID{a.ID, c.ID, b.ID}
	for i, id := range want {
		if got := layout.FindLayoutOf(l, id).Corners; got != sc.Panels[i].Corners {
			t.Fatalf("panel %d: got %+v want layout of %s", i, sc.Panels[i].Corners, id)
		}
	}
}

func TestWriteSVG(t *testing.T) {
	p, _, _ := samplePage()
	var buf bytes.Buffer
	if err := WriteSVG(&buf, p, layout.LeftToRight, DefaultStyle()); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	s := buf.String()
	if n := strings.Count(s, "<polygon"); n != 2 {
		t.Fatalf("expected 2 polygons, got %d", n)
	}
	if strings.Count(s, "stroke=\"none\"") != 1 {
		t.Fatalf("borderless panel should have no stroke: %s", s)
	}
	if !strings.Contains(s, "<ellipse cx=\"50\" cy=\"50\" rx=\"20\" ry=\"10\"") {
		t.Fatalf("bubble ellipse missing: %s", s)
	}
	if !strings.Contains(s, ">Hi &amp;</text>") || !strings.Contains(s, ">bye</text>") {
		t.Fatalf("bubble text not escaped and wrapped: %s", s)
	}

	st := DefaultStyle()
	st.ShowBubbles = false
	buf.Reset()
	if err := WriteSVG(&buf, p, layout.LeftToRight, st); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	if strings.Contains(buf.String(), "<ellipse") {
		t.Fatalf("bubbles should be hidden")
	}
}

func TestWrapText(t *testing.T) {
	measure := func(s string) float64 { return float64(len(s)) }
	got := wrapText("one two three\nfour", 8, measure)
	want := []string{"one two", "three", "four"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("wrapText = %q, want %q", got, want)
	}
	if got := wrapText("enormousword x", 4, measure); len(got) != 2 || got[0] != "enormousword" {
		t.Fatalf("long word should sit alone: %q", got)
	}
	if off := lineOffsets(3, 10); off[0] != -10 || off[1] != 0 || off[2] != 10 {
		t.Fatalf("lineOffsets = %v", off)
	}
}

func TestRenderPageBorders(t *testing.T) {
	p, _, _ := samplePage()
	st := DefaultStyle()
	st.ShowBubbles = false
	img := RenderPage(p, layout.LeftToRight, st)
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("image size = %v", b)
	}
	if got := img.RGBAAt(0, 50); got.R > 10 {
		t.Fatalf("left border pixel = %v", got)
	}
	if got := img.RGBAAt(50, 50); got.R < 245 {
		t.Fatalf("panel interior = %v", got)
	}
	if got := img.RGBAAt(199, 50); got.R < 245 {
		t.Fatalf("borderless edge should stay white, got %v", got)
	}

	st.Scale = 2
	if b := RenderPage(p, layout.LeftToRight, st).Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Fatalf("scaled image size = %v", b)
	}
}

func TestExportPDFAndPages(t *testing.T) {
	p, _, _ := samplePage()
	book := &reflow.Book{Pages: []*reflow.Page{p, p}}
	dir := t.TempDir()

	out := filepath.Join(dir, "book.pdf")
	if err := ExportPDF(book, "Test", out, nil, DefaultStyle()); err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a pdf")
	}

	files, err := ExportPNGPages(book, filepath.Join(dir, "png"), []int{1, 7}, DefaultStyle())
	if err != nil {
		t.Fatalf("ExportPNGPages: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "page-2.png" {
		t.Fatalf("unexpected files %v", files)
	}
	files, err = ExportSVGPages(book, filepath.Join(dir, "svg"), nil, DefaultStyle())
	if err != nil || len(files) != 2 {
		t.Fatalf("ExportSVGPages: %v %v", files, err)
	}
}

func TestExportCBZ(t *testing.T) {
	p, _, _ := samplePage()
	book := &reflow.Book{Pages: []*reflow.Page{p}, Direction: layout.RightToLeft}
	out := filepath.Join(t.TempDir(), "book")
	if err := ExportCBZ(book, "Pilot & Co", out, nil, DefaultStyle()); err != nil {
		t.Fatalf("ExportCBZ: %v", err)
	}
	rd, err := zip.OpenReader(out + ".cbz")
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer func() { _ = rd.Close() }()
	var foundPNG, foundXML bool
	for _, f := range rd.File {
		switch f.Name {
		case "1.png":
			foundPNG = true
		case "ComicInfo.xml":
			foundXML = true
			r, err := f.Open()
			if err != nil {
				t.Fatalf("open manifest: %v", err)
			}
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(r)
			_ = r.Close()
			text := buf.String()
			if !strings.Contains(text, "<Title>Pilot &amp; Co</Title>") || !strings.Contains(text, "<Manga>YesAndRightToLeft</Manga>") ||
				!strings.Contains(text, `<Page Image="0" ImageWidth="200" ImageHeight="100">`) {
				t.Fatalf("manifest missing expected fields: %s", text)
			}
		}
	}
	if !foundPNG || !foundXML {
		t.Fatalf("png=%v xml=%v", foundPNG, foundXML)
	}
}

func TestBatchExportWebPreset(t *testing.T) {
	root := t.TempDir()
	bh, err := storage.InitBook(root, "Batch", geometry.V(100, 150), layout.LeftToRight)
	if err != nil {
		t.Fatalf("InitBook: %v", err)
	}
	files, err := BatchExport(bh, BatchOptions{Preset: PresetWeb, Style: DefaultStyle()})
	if err != nil {
		t.Fatalf("BatchExport: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected png, svg and cbz outputs, got %v", files)
	}
	for _, f := range files {
		if !strings.HasPrefix(f, filepath.Join(root, "exports", "web")) {
			t.Fatalf("output outside preset dir: %s", f)
		}
		if st, err := os.Stat(f); err != nil || st.Size() == 0 {
			t.Fatalf("missing output %s: %v", f, err)
		}
	}
	if _, err := BatchExport(bh, BatchOptions{Formats: []string{"gif"}}); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
