/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/layout"
	"gocomicpanels/internal/media"
	"gocomicpanels/internal/paneltree"
)

func twoPanelBook(t *testing.T, root string) *BookHandle {
	t.Helper()
	bh, err := InitBook(root, "Test Book", geometry.V(840, 1188), layout.RightToLeft)
	if err != nil {
		t.Fatalf("InitBook error: %v", err)
	}
	a, b := paneltree.NewLeaf(2), paneltree.NewLeaf(1)
	a.Prompt = "rooftop"
	a.Media = media.NewStack(&media.Film{ID: "f1", Source: "assets/roof.png", Size: geometry.V(400, 300), Scale: 1.5})
	b.Divider = paneltree.Divider{Spacing: 0.05, Slant: 10}
	bh.Book.Pages[0].Root = paneltree.NewContainer(paneltree.Vertical, 1, a, b)
	bh.Book.Pages[0].Bubbles = []*media.Bubble{{ID: "b1", Text: "hey", Center: geometry.V(0.25, 0.5), Size: geometry.V(0.1, 0.05)}}
	return bh
}

func TestInitBookCreatesStructureAndManifest(t *testing.T) {
	root := t.TempDir()
	bh, err := InitBook(root, "Fresh", geometry.V(100, 200), layout.LeftToRight)
	if err != nil {
		t.Fatalf("InitBook error: %v", err)
	}
	if bh.ManifestPath != filepath.Join(root, BookFileName) {
		t.Fatalf("ManifestPath = %q", bh.ManifestPath)
	}
	if _, err := os.Stat(bh.ManifestPath); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	for _, d := range []string{"assets", "exports", BackupsDirName} {
		p := filepath.Join(root, d)
		if fi, err := os.Stat(p); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s to exist", p)
		}
	}
	if n := len(bh.Book.Pages); n != 1 {
		t.Fatalf("expected one blank page, got %d", n)
	}
	if !bh.Book.Pages[0].Root.IsLeaf() {
		t.Fatalf("blank page should be a single leaf")
	}
}

func TestSaveOpenRoundTrip(t *testing.T) {
	root := t.TempDir()
	bh := twoPanelBook(t, root)
	if err := Save(bh); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if got.Title != "Test Book" {
		t.Fatalf("title = %q", got.Title)
	}
	if got.Book.Direction != layout.RightToLeft {
		t.Fatalf("direction = %v", got.Book.Direction)
	}
	want := bh.Book.Pages[0]
	p := got.Book.Pages[0]
	if p.ID != want.ID || p.Paper != want.Paper {
		t.Fatalf("page header mismatch: %+v", p)
	}
	if p.Root.ID != want.Root.ID || p.Root.Direction != paneltree.Vertical || len(p.Root.Children) != 2 {
		t.Fatalf("tree mismatch: %+v", p.Root)
	}
	a, b := p.Root.Children[0], p.Root.Children[1]
	if a.Prompt != "rooftop" || a.RawSize != 2 || a.Media == nil || len(a.Media.Films) != 1 {
		t.Fatalf("first leaf mismatch: %+v", a)
	}
	if a.Media.Films[0].Source != "assets/roof.png" || a.Media.Films[0].Scale != 1.5 {
		t.Fatalf("film mismatch: %+v", a.Media.Films[0])
	}
	if b.Divider.Slant != 10 || b.Divider.Spacing != 0.05 {
		t.Fatalf("divider mismatch: %+v", b.Divider)
	}
	if len(p.Bubbles) != 1 || p.Bubbles[0].Text != "hey" || p.Bubbles[0].Center != geometry.V(0.25, 0.5) {
		t.Fatalf("bubbles mismatch: %+v", p.Bubbles)
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	root := t.TempDir()
	bh := twoPanelBook(t, root)
	if err := Save(bh); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	ents, err := os.ReadDir(filepath.Join(root, BackupsDirName))
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	var bakCount int
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, BookFileName+".") && strings.HasSuffix(name, ".bak") {
			bakCount++
		}
	}
	if bakCount == 0 {
		t.Fatalf("expected at least one backup file, found 0")
	}
}

func TestOpenFallsBackToBackup(t *testing.T) {
	root := t.TempDir()
	bh := twoPanelBook(t, root)
	if err := Save(bh); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := os.WriteFile(bh.ManifestPath, []byte("{not: [valid"), 0o644); err != nil {
		t.Fatalf("corrupt manifest: %v", err)
	}
	got, err := Open(root)
	if err != nil {
		t.Fatalf("Open should recover from backup: %v", err)
	}
	if got.Title != "Test Book" || len(got.Book.Pages) != 1 {
		t.Fatalf("unexpected recovered book: %+v", got)
	}
}

func TestOpenMissingBook(t *testing.T) {
	_, err := Open(t.TempDir())
	if !errors.Is(err, ErrNoBook) {
		t.Fatalf("expected ErrNoBook, got %v", err)
	}
}

func TestDecodeBookRejectsBadLayout(t *testing.T) {
	data := []byte(`version: 1
reading_direction: ltr
pages:
  - id: p1
    paper: {x: 100, y: 100}
    layout:
      version: 1
      root: {direction: horizontal}
`)
	if _, _, err := DecodeBook(data); !errors.Is(err, paneltree.ErrInvalidMarkup) {
		t.Fatalf("expected ErrInvalidMarkup, got %v", err)
	}
	bad := []byte("version: 7\npages: []\n")
	if _, _, err := DecodeBook(bad); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestSaveAsAndCrashCopy(t *testing.T) {
	bh := twoPanelBook(t, t.TempDir())
	dst := filepath.Join(t.TempDir(), "copy")
	if err := SaveAs(bh, dst); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	if bh.Root != dst {
		t.Fatalf("handle root not updated: %q", bh.Root)
	}
	if _, err := Open(dst); err != nil {
		t.Fatalf("Open copy: %v", err)
	}
	path, err := SaveCrashCopy(bh)
	if err != nil {
		t.Fatalf("SaveCrashCopy error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read crash copy: %v", err)
	}
	if _, _, err := DecodeBook(data); err != nil {
		t.Fatalf("crash copy does not decode: %v", err)
	}
}
