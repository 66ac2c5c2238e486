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
	"path/filepath"
	"strings"

	"gocomicpanels/internal/storage"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls batch export across multiple formats.
//
// Path semantics:
//   - If OutDir is empty or relative, it is resolved under <book>/exports/<preset>/.
//   - PDF and CBZ produce book.pdf / book.cbz in OutDir.
//   - PNG and SVG produce page-<n>.(png|svg) in subfolders png/ or svg/ inside OutDir.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: pdf, png, svg, cbz; empty means preset defaults
	Pages   []int    // zero-based indices; empty means all pages
	OutDir  string
	Style   Style
}

// BatchExport runs exports according to the given preset and returns the
// written files.
func BatchExport(bh *storage.BookHandle, opt BatchOptions) ([]string, error) {
	if bh == nil || bh.Book == nil {
		return nil, fmt.Errorf("book handle is nil")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(bh.Root, "exports", baseOut)
	}
	st := opt.Style
	if st.Scale <= 0 {
		st.Scale = presetScale(opt.Preset)
	}

	var out []string
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "pdf":
			path := filepath.Join(baseOut, "book.pdf")
			if err := ExportPDF(bh.Book, bh.Title, path, opt.Pages, st); err != nil {
				return out, fmt.Errorf("pdf: %w", err)
			}
			out = append(out, path)
		case "cbz":
			path := filepath.Join(baseOut, "book.cbz")
			if err := ExportCBZ(bh.Book, bh.Title, path, opt.Pages, st); err != nil {
				return out, fmt.Errorf("cbz: %w", err)
			}
			out = append(out, path)
		case "png":
			files, err := ExportPNGPages(bh.Book, filepath.Join(baseOut, "png"), opt.Pages, st)
			out = append(out, files...)
			if err != nil {
				return out, fmt.Errorf("png: %w", err)
			}
		case "svg":
			files, err := ExportSVGPages(bh.Book, filepath.Join(baseOut, "svg"), opt.Pages, st)
			out = append(out, files...)
			if err != nil {
				return out, fmt.Errorf("svg: %w", err)
			}
		default:
			return out, fmt.Errorf("unknown format: %s", f)
		}
	}
	return out, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png", "svg", "cbz"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"pdf"}
	}
}

// presetScale is the raster scale used when the style leaves it unset.
func presetScale(p PresetName) float64 {
	if p == PresetPrint {
		return 300.0 / 72.0
	}
	return 1
}
