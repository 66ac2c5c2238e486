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
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/layout"
	"gocomicpanels/internal/media"
	"gocomicpanels/internal/paneltree"
	"gocomicpanels/internal/reflow"
)

const (
	BookFileName   = "book.yaml"
	BackupsDirName = "backups"

	// bookVersion is the manifest format version written by Save.
	bookVersion = 1
)

// ErrNoBook is returned when neither a manifest nor a usable backup exists.
var ErrNoBook = errors.New("no book found")

// Standard subfolders of a book directory.
var standardSubDirs = []string{
	"assets",
	"exports",
	BackupsDirName,
}

// BookHandle keeps track of a book loaded from or saved to disk.
// Root is the book directory containing book.yaml and subfolders.
type BookHandle struct {
	Root         string
	ManifestPath string
	Title        string
	Book         *reflow.Book
}

type bookDoc struct {
	Version          int       `yaml:"version"`
	Title            string    `yaml:"title,omitempty"`
	ReadingDirection string    `yaml:"reading_direction"`
	Pages            []pageDoc `yaml:"pages"`
}

type pageDoc struct {
	ID      string           `yaml:"id"`
	Paper   geometry.Vector2 `yaml:"paper"`
	Bubbles []*media.Bubble  `yaml:"bubbles,omitempty"`
	// Layout holds a panel tree markup document.
	Layout yaml.Node `yaml:"layout"`
}

// NewPage returns a page holding a single bordered panel.
func NewPage(paper geometry.Vector2) *reflow.Page {
	return &reflow.Page{ID: uuid.NewString(), Paper: paper, Root: paneltree.NewLeaf(1)}
}

// EncodeBook serializes a book to its manifest form.
func EncodeBook(title string, b *reflow.Book) ([]byte, error) {
	doc := bookDoc{Version: bookVersion, Title: title, ReadingDirection: b.Direction.String()}
	for i, p := range b.Pages {
		pd := pageDoc{ID: p.ID, Paper: p.Paper, Bubbles: p.Bubbles}
		tree := paneltree.Document{Version: paneltree.CurrentVersion, Root: paneltree.ToDoc(p.Root)}
		if err := pd.Layout.Encode(tree); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		doc.Pages = append(doc.Pages, pd)
	}
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return []byte(sb.String()), nil
}

// DecodeBook parses a manifest. Every page layout is validated as panel
// tree markup.
func DecodeBook(data []byte) (title string, b *reflow.Book, err error) {
	var doc bookDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("parse manifest: %w", err)
	}
	if doc.Version != bookVersion {
		return "", nil, fmt.Errorf("unsupported manifest version %d", doc.Version)
	}
	b = &reflow.Book{Direction: layout.ParseReadingDirection(doc.ReadingDirection)}
	for i, pd := range doc.Pages {
		raw, err := yaml.Marshal(&pd.Layout)
		if err != nil {
			return "", nil, fmt.Errorf("page %d layout: %w", i+1, err)
		}
		root, err := paneltree.Parse(raw)
		if err != nil {
			return "", nil, fmt.Errorf("page %d layout: %w", i+1, err)
		}
		if pd.Paper.X <= 0 || pd.Paper.Y <= 0 {
			return "", nil, fmt.Errorf("page %d: paper size must be positive", i+1)
		}
		if pd.ID == "" {
			pd.ID = uuid.NewString()
		}
		b.Pages = append(b.Pages, &reflow.Page{ID: pd.ID, Paper: pd.Paper, Root: root, Bubbles: pd.Bubbles})
	}
	return doc.Title, b, nil
}

// InitBook creates a new book directory at root with one blank page,
// scaffolds the standard subfolders and writes the manifest transactionally.
func InitBook(root, title string, paper geometry.Vector2, dir layout.ReadingDirection) (*BookHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := scaffold(root); err != nil {
		return nil, err
	}
	bh := &BookHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, BookFileName),
		Title:        title,
		Book:         &reflow.Book{Direction: dir, Pages: []*reflow.Page{NewPage(paper)}},
	}
	if err := Save(bh); err != nil {
		return nil, err
	}
	return bh, nil
}

func scaffold(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create book root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return nil
}

// Open loads an existing book from root. If the manifest cannot be read or
// parsed, the latest backup is tried.
func Open(root string) (*BookHandle, error) {
	mpath := filepath.Join(root, BookFileName)
	data, err := os.ReadFile(mpath)
	if err == nil {
		var title string
		var b *reflow.Book
		if title, b, err = DecodeBook(data); err == nil {
			return &BookHandle{Root: root, ManifestPath: mpath, Title: title, Book: b}, nil
		}
	}
	title, b, berr := openFromLatestBackup(root)
	if berr != nil {
		if errors.Is(err, os.ErrNotExist) && errors.Is(berr, ErrNoBook) {
			return nil, fmt.Errorf("open %s: %w", root, ErrNoBook)
		}
		return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
	}
	return &BookHandle{Root: root, ManifestPath: mpath, Title: title, Book: b}, nil
}

// Save writes the book to disk with transactional semantics and a
// timestamped backup of the previous manifest (if present).
func Save(bh *BookHandle) error {
	if bh == nil || bh.Book == nil {
		return errors.New("nil BookHandle")
	}
	if bh.Root == "" || bh.ManifestPath == "" {
		return errors.New("invalid BookHandle: missing paths")
	}
	data, err := EncodeBook(bh.Title, bh.Book)
	if err != nil {
		return err
	}

	bdir := filepath.Join(bh.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(bh.ManifestPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", BookFileName, stamp))
		if cerr := copyFile(bh.ManifestPath, bpath); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}
	return replaceFile(bh.ManifestPath, data)
}

// SaveAs writes the book to a new root folder and updates the handle.
func SaveAs(bh *BookHandle, newRoot string) error {
	if bh == nil {
		return errors.New("nil BookHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := scaffold(newRoot); err != nil {
		return err
	}
	bh.Root = newRoot
	bh.ManifestPath = filepath.Join(newRoot, BookFileName)
	return Save(bh)
}

// SaveCrashCopy writes the in-memory book next to the backups without
// touching the manifest. It returns the written path.
func SaveCrashCopy(bh *BookHandle) (string, error) {
	if bh == nil || bh.Book == nil {
		return "", errors.New("nil BookHandle")
	}
	data, err := EncodeBook(bh.Title, bh.Book)
	if err != nil {
		return "", err
	}
	bdir := filepath.Join(bh.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s", BookFileName, time.Now().Format("20060102-150405")))
	return path, writeFileSync(path, data)
}

// replaceFile writes to a temp file in the same directory, then renames over target.
func replaceFile(target string, data []byte) error {
	dir := filepath.Dir(target)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(target), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(target); err == nil {
		_ = os.Remove(target)
	}
	if rerr := os.Rename(temp, target); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup tries the backups newest first and returns the first
// one that parses.
func openFromLatestBackup(root string) (string, *reflow.Book, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, ErrNoBook
		}
		return "", nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, BookFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return "", nil, ErrNoBook
	}
	sort.Sort(sort.Reverse(sort.StringSlice(candidates))) // timestamp in name yields lexicographic order
	var lastErr error
	for _, c := range candidates {
		data, err := os.ReadFile(c)
		if err != nil {
			lastErr = err
			continue
		}
		title, b, err := DecodeBook(data)
		if err != nil {
			lastErr = err
			continue
		}
		return title, b, nil
	}
	return "", nil, fmt.Errorf("no readable backup: %w", lastErr)
}
