/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package edit applies structural panel edits to a book and carries the
// panel content along with them. Every command records the prior book state
// for undo, then runs collect, mutate, retarget and deal.
package edit

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	applog "gocomicpanels/internal/log"
	"gocomicpanels/internal/paneltree"
	"gocomicpanels/internal/reflow"
	"gocomicpanels/internal/storage"
	"gocomicpanels/internal/undo"
)

// historyScope is the undo scope of the whole book. Content can move across
// pages, so pages are not tracked separately.
const historyScope = "book"

// ErrNotVisible is returned when a content command targets a leaf that is
// hidden or not a leaf.
var ErrNotVisible = errors.New("panel is not a visible leaf")

// Editor owns the in-memory book of a handle and its undo history.
type Editor struct {
	bh      *storage.BookHandle
	history *undo.Manager
	now     func() time.Time
	log     *slog.Logger
}

// New returns an editor for bh.
func New(bh *storage.BookHandle, cfg undo.Config) *Editor {
	return &Editor{
		bh:      bh,
		history: undo.NewManager(cfg),
		now:     time.Now,
		log:     applog.WithComponent("edit"),
	}
}

// Book returns the book being edited. Undo and Redo replace it.
func (e *Editor) Book() *reflow.Book { return e.bh.Book }

// CanUndo reports whether Undo has anything to restore.
func (e *Editor) CanUndo() bool { return e.history.CanUndo(historyScope) }

// CanRedo reports whether Redo has anything to restore.
func (e *Editor) CanRedo() bool { return e.history.CanRedo(historyScope) }

// locate finds the page and node for id. needParent rejects page roots.
func (e *Editor) locate(id paneltree.NodeID, needParent bool) (*reflow.Page, *paneltree.PanelNode, error) {
	pi := e.bh.Book.PageOf(id)
	if pi < 0 {
		return nil, nil, fmt.Errorf("panel %s: %w", id, paneltree.ErrNotFound)
	}
	page := e.bh.Book.Pages[pi]
	node, parent, _, err := page.Root.Find(id)
	if err != nil {
		return nil, nil, err
	}
	if needParent && parent == nil {
		return nil, nil, fmt.Errorf("panel %s: %w", id, paneltree.ErrNoParent)
	}
	return page, node, nil
}

// check runs mutate on a copy of the page tree so a rejected edit leaves no
// history entry.
func check(page *reflow.Page, mutate func(root *paneltree.PanelNode) error) error {
	return mutate(page.Root.Clone(false))
}

func (e *Editor) record(label string) error {
	blob, err := storage.EncodeBook(e.bh.Title, e.bh.Book)
	if err != nil {
		return fmt.Errorf("record %s: %w", label, err)
	}
	e.history.Push(undo.Snapshot{Scope: historyScope, Label: label, Blob: blob, TS: e.now()})
	e.log.Debug("edit", slog.String("op", label))
	return nil
}

// InsertPanel adds an empty leaf next to id. Content keeps its panels and
// everything after the new leaf is refitted.
func (e *Editor) InsertPanel(id paneltree.NodeID, after bool) (paneltree.NodeID, error) {
	page, _, err := e.locate(id, true)
	if err != nil {
		return "", err
	}
	if err := check(page, func(root *paneltree.PanelNode) error {
		_, err := paneltree.InsertSibling(root, id, after)
		return err
	}); err != nil {
		return "", err
	}
	if err := e.record("insert"); err != nil {
		return "", err
	}
	seq := reflow.Collect(e.bh.Book)
	leaf, err := paneltree.InsertSibling(page.Root, id, after)
	if err != nil {
		return "", err
	}
	seq.Retarget(e.bh.Book)
	reflow.Deal(seq, leaf.ID, "")
	return leaf.ID, nil
}

// DeletePanel removes id with its subtree. The content of the removed
// leaves is discarded along with their bubbles.
func (e *Editor) DeletePanel(id paneltree.NodeID) error {
	page, node, err := e.locate(id, true)
	if err != nil {
		return err
	}
	under := map[paneltree.NodeID]bool{}
	for _, l := range node.Leaves() {
		under[l.ID] = true
	}
	if err := check(page, func(root *paneltree.PanelNode) error {
		return paneltree.Erase(root, id)
	}); err != nil {
		return err
	}
	if err := e.record("delete"); err != nil {
		return err
	}
	seq := reflow.Collect(e.bh.Book)
	first, n := -1, 0
	for i, s := range seq.Slots {
		if under[s.Layout.Node] {
			if first < 0 {
				first = i
			}
			n++
		}
	}
	if err := paneltree.Erase(page.Root, id); err != nil {
		return err
	}
	seq.Retarget(e.bh.Book)
	if first < 0 {
		reflow.Deal(seq, "", "")
		return nil
	}
	seq.Discard(first+1, first+n)
	var splice paneltree.NodeID
	if first < len(seq.Slots) {
		splice = seq.Slots[first].Layout.Node
	}
	reflow.Deal(seq, "", splice)
	seq.DropRemaining()
	return nil
}

// SplitPanel divides the leaf id along axis. The first half keeps the
// content; the second is empty. It returns the two new leaves.
func (e *Editor) SplitPanel(id paneltree.NodeID, axis paneltree.Axis, gutter paneltree.Divider) (first, second paneltree.NodeID, err error) {
	page, _, err := e.locate(id, false)
	if err != nil {
		return "", "", err
	}
	if err := check(page, func(root *paneltree.PanelNode) error {
		_, _, err := paneltree.SplitLeaf(root, id, axis, gutter)
		return err
	}); err != nil {
		return "", "", err
	}
	if err := e.record("split"); err != nil {
		return "", "", err
	}
	seq := reflow.Collect(e.bh.Book)
	a, b, err := paneltree.SplitLeaf(page.Root, id, axis, gutter)
	if err != nil {
		return "", "", err
	}
	seq.Retarget(e.bh.Book)
	reflow.Deal(seq, b.ID, "")
	return a.ID, b.ID, nil
}

// DuplicatePanel inserts an empty structural copy of id after it.
func (e *Editor) DuplicatePanel(id paneltree.NodeID) (paneltree.NodeID, error) {
	page, _, err := e.locate(id, true)
	if err != nil {
		return "", err
	}
	if err := check(page, func(root *paneltree.PanelNode) error {
		_, err := paneltree.Duplicate(root, id)
		return err
	}); err != nil {
		return "", err
	}
	if err := e.record("duplicate"); err != nil {
		return "", err
	}
	seq := reflow.Collect(e.bh.Book)
	cp, err := paneltree.Duplicate(page.Root, id)
	if err != nil {
		return "", err
	}
	fresh := map[paneltree.NodeID]bool{}
	for _, l := range cp.Leaves() {
		fresh[l.ID] = true
	}
	seq.Retarget(e.bh.Book)
	first, n := -1, 0
	for i, s := range seq.Slots {
		if fresh[s.Layout.Node] {
			if first < 0 {
				first = i
			}
			n++
		}
	}
	if first < 0 {
		reflow.Deal(seq, "", "")
		return cp.ID, nil
	}
	seq.Blank(first, n-1)
	reflow.Deal(seq, seq.Slots[first].Layout.Node, "")
	return cp.ID, nil
}

// SwapPanels exchanges the content of two visible leaves, which may sit on
// different pages.
func (e *Editor) SwapPanels(a, b paneltree.NodeID) error {
	seq := reflow.Collect(e.bh.Book)
	if seq.IndexOf(a) < 0 || seq.IndexOf(b) < 0 {
		return fmt.Errorf("swap %s/%s: %w", a, b, ErrNotVisible)
	}
	if err := e.record("swap"); err != nil {
		return err
	}
	if !reflow.Swap(seq, a, b) {
		return fmt.Errorf("swap %s/%s: %w", a, b, paneltree.ErrNotFound)
	}
	return nil
}

// ShiftContent moves content one slot through the book starting at the
// leaf id. Forward leaves id empty and drops the last item; backward
// discards the content of id and empties the last slot.
func (e *Editor) ShiftContent(id paneltree.NodeID, forward bool) error {
	seq := reflow.Collect(e.bh.Book)
	if seq.IndexOf(id) < 0 {
		return fmt.Errorf("shift %s: %w", id, ErrNotVisible)
	}
	if err := e.record("shift"); err != nil {
		return err
	}
	if forward {
		reflow.Deal(seq, id, "")
	} else {
		reflow.Deal(seq, "", id)
	}
	return nil
}

// TransposePanel flips the container id between rows and columns.
func (e *Editor) TransposePanel(id paneltree.NodeID) error {
	return e.reshape("transpose", id, func(root *paneltree.PanelNode) error {
		return paneltree.Transpose(root, id)
	})
}

// ResizePanel sets the relative size of id.
func (e *Editor) ResizePanel(id paneltree.NodeID, rawSize float64) error {
	return e.reshape("resize", id, func(root *paneltree.PanelNode) error {
		return paneltree.Resize(root, id, rawSize)
	})
}

// SetGutter replaces the divider following id.
func (e *Editor) SetGutter(id paneltree.NodeID, d paneltree.Divider) error {
	return e.reshape("gutter", id, func(root *paneltree.PanelNode) error {
		return paneltree.SetDivider(root, id, d)
	})
}

// reshape runs an edit that changes geometry but not the set of leaves.
// Bubbles follow their panels and all media is refitted.
func (e *Editor) reshape(label string, id paneltree.NodeID, mutate func(root *paneltree.PanelNode) error) error {
	page, _, err := e.locate(id, false)
	if err != nil {
		return err
	}
	if err := check(page, mutate); err != nil {
		return err
	}
	if err := e.record(label); err != nil {
		return err
	}
	seq := reflow.Collect(e.bh.Book)
	if err := mutate(page.Root); err != nil {
		return err
	}
	seq.Retarget(e.bh.Book)
	reflow.Deal(seq, "", "")
	reflow.Refit(e.bh.Book)
	return nil
}

// Undo restores the book state before the latest edit.
func (e *Editor) Undo() (bool, error) {
	return e.restore(e.history.Undo)
}

// Redo reapplies the latest undone edit.
func (e *Editor) Redo() (bool, error) {
	return e.restore(e.history.Redo)
}

func (e *Editor) restore(pop func(scope string, current []byte) (undo.Snapshot, bool)) (bool, error) {
	current, err := storage.EncodeBook(e.bh.Title, e.bh.Book)
	if err != nil {
		return false, err
	}
	s, ok := pop(historyScope, current)
	if !ok {
		return false, nil
	}
	title, b, err := storage.DecodeBook(s.Blob)
	if err != nil {
		return false, fmt.Errorf("restore %s: %w", s.Label, err)
	}
	e.bh.Title, e.bh.Book = title, b
	e.log.Debug("restore", slog.String("op", s.Label))
	return true, nil
}
