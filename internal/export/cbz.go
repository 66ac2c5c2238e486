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
	"encoding/xml"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"gocomicpanels/internal/layout"
	"gocomicpanels/internal/reflow"
)

// ExportCBZ packages the selected pages as PNG images into a CBZ (ZIP) archive
// and adds a ComicInfo.xml metadata manifest for reader compatibility.
func ExportCBZ(b *reflow.Book, title, outPath string, pages []int, st Style) error {
	if b == nil {
		return fmt.Errorf("book is nil")
	}
	if !strings.HasSuffix(strings.ToLower(outPath), ".cbz") {
		outPath = outPath + ".cbz"
	}
	zw, f, err := createZip(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	idx := pageIndexes(len(b.Pages), pages)
	pad := len(fmt.Sprint(len(idx)))
	sizes := make([]image.Point, 0, len(idx))
	for i, pidx := range idx {
		img := RenderPage(b.Pages[pidx], b.Direction, st)
		sizes = append(sizes, img.Bounds().Size())
		var data bytes.Buffer
		if err := png.Encode(&data, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		if err := addZipFile(zw, fmt.Sprintf("%0*d.png", pad, i+1), data.Bytes()); err != nil {
			return fmt.Errorf("zip add image: %w", err)
		}
	}

	manifest, err := buildComicInfoXML(title, b.Direction, sizes)
	if err != nil {
		return fmt.Errorf("build manifest: %w", err)
	}
	if err := addZipFile(zw, "ComicInfo.xml", []byte(manifest)); err != nil {
		return fmt.Errorf("zip add manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

func createZip(outPath string) (*zip.Writer, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create cbz: %w", err)
	}
	return zip.NewWriter(f), f, nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// comicInfo is the ComicRack manifest read by most CBZ readers.
type comicInfo struct {
	XMLName   xml.Name        `xml:"ComicInfo"`
	XSI       string          `xml:"xmlns:xsi,attr"`
	Title     string          `xml:"Title"`
	PageCount int             `xml:"PageCount"`
	Manga     string          `xml:"Manga"`
	Pages     []comicInfoPage `xml:"Pages>Page"`
}

type comicInfoPage struct {
	Image       int `xml:"Image,attr"`
	ImageWidth  int `xml:"ImageWidth,attr,omitempty"`
	ImageHeight int `xml:"ImageHeight,attr,omitempty"`
}

// buildComicInfoXML writes the manifest. Right-to-left books are flagged as
// manga so readers page in the right direction.
func buildComicInfoXML(title string, dir layout.ReadingDirection, sizes []image.Point) (string, error) {
	if title == "" {
		title = "Untitled"
	}
	ci := comicInfo{
		XSI:       "http://www.w3.org/2001/XMLSchema-instance",
		Title:     title,
		PageCount: len(sizes),
		Manga:     "No",
	}
	if dir == layout.RightToLeft {
		ci.Manga = "YesAndRightToLeft"
	}
	for i, sz := range sizes {
		ci.Pages = append(ci.Pages, comicInfoPage{Image: i, ImageWidth: sz.X, ImageHeight: sz.Y})
	}
	out, err := xml.MarshalIndent(ci, "", "  ")
	if err != nil {
		return "", fmt.Errorf("build xml: %w", err)
	}
	return xml.Header + string(out) + "\n", nil
}
