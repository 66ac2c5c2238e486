/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gocomicpanels/internal/config"
	"gocomicpanels/internal/edit"
	"gocomicpanels/internal/export"
	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/layout"
	"gocomicpanels/internal/paneltree"
	"gocomicpanels/internal/reflow"
	"gocomicpanels/internal/storage"
	"gocomicpanels/internal/undo"
	"gocomicpanels/internal/watch"
)

func need(args []string, n int, what string) error {
	if len(args) < n {
		return fmt.Errorf("%w: %s", errUsage, what)
	}
	return nil
}

func (c *cli) open(dir string) (*storage.BookHandle, error) {
	abs, _ := filepath.Abs(dir)
	c.log.Info("open book", slog.String("root", abs))
	bh, err := storage.Open(abs)
	if err != nil {
		return nil, err
	}
	c.bh = bh
	return bh, nil
}

// commit saves the book and records the committed state in its history.
func (c *cli) commit(bh *storage.BookHandle, label string) error {
	if err := storage.Save(bh); err != nil {
		return err
	}
	ctx := context.Background()
	if _, err := storage.SaveSnapshot(ctx, bh, label, time.Now()); err != nil {
		return err
	}
	if n, err := storage.PruneOldSnapshots(ctx, bh, c.cfg.History.KeepSnapshots); err != nil {
		c.log.Warn("prune snapshots failed", slog.Any("err", err))
	} else if n > 0 {
		c.log.Debug("pruned snapshots", slog.Int64("count", n))
	}
	return nil
}

func (c *cli) initBook(args []string) error {
	if err := need(args, 1, "init requires <dir>"); err != nil {
		return err
	}
	abs, _ := filepath.Abs(args[0])
	title := filepath.Base(abs)
	if len(args) > 1 {
		title = strings.Join(args[1:], " ")
	}
	paper := geometry.V(c.cfg.Layout.PaperWidth, c.cfg.Layout.PaperHeight)
	dir := layout.ParseReadingDirection(c.cfg.Layout.ReadingDirection)
	c.log.Info("init book", slog.String("root", abs), slog.String("title", title))
	bh, err := storage.InitBook(abs, title, paper, dir)
	if err != nil {
		return err
	}
	c.bh = bh
	if _, err := storage.SaveSnapshot(context.Background(), bh, "init", time.Now()); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Created book at", abs)
	return nil
}

func (c *cli) info(args []string) error {
	if err := need(args, 1, "info requires <dir>"); err != nil {
		return err
	}
	bh, err := c.open(args[0])
	if err != nil {
		return err
	}
	b := bh.Book
	fmt.Fprintf(c.out, "Book: %s\n", bh.Title)
	fmt.Fprintf(c.out, "Reading direction: %s\n", b.Direction)
	fmt.Fprintf(c.out, "Pages: %d\n", len(b.Pages))
	for i, p := range b.Pages {
		visible := len(layout.VisibleLeaves(p.Solve(b.Direction), b.Direction))
		fmt.Fprintf(c.out, "  %d  %gx%g  panels=%d visible=%d bubbles=%d\n",
			i+1, p.Paper.X, p.Paper.Y, len(p.Root.Leaves()), visible, len(p.Bubbles))
	}
	return nil
}

// pageArg parses a one-based page number.
func pageArg(b *reflow.Book, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > len(b.Pages) {
		return 0, fmt.Errorf("page %q out of range 1..%d", s, len(b.Pages))
	}
	return n - 1, nil
}

func (c *cli) solve(args []string) error {
	if err := need(args, 1, "solve requires <dir>"); err != nil {
		return err
	}
	bh, err := c.open(args[0])
	if err != nil {
		return err
	}
	b := bh.Book
	pages := make([]int, 0, len(b.Pages))
	if len(args) > 1 {
		pi, err := pageArg(b, args[1])
		if err != nil {
			return err
		}
		pages = append(pages, pi)
	} else {
		for i := range b.Pages {
			pages = append(pages, i)
		}
	}
	for _, pi := range pages {
		fmt.Fprintf(c.out, "Page %d\n", pi+1)
		printLayout(c, b.Pages[pi].Solve(b.Direction), b.Direction, 1)
	}
	return nil
}

func printLayout(c *cli, l *layout.Layout, dir layout.ReadingDirection, depth int) {
	kind := "leaf"
	if !l.IsLeaf() {
		kind = l.Direction.String()
	}
	t := l.Corners
	fmt.Fprintf(c.out, "%s%s %s vis=%d z=%d  %s %s %s %s\n", strings.Repeat("  ", depth), l.Node, kind, l.Visibility, l.Z,
		pt(t.TopLeft), pt(t.TopRight), pt(t.BottomRight), pt(t.BottomLeft))
	for _, ch := range l.Ordered(dir) {
		printLayout(c, ch, dir, depth+1)
	}
}

func pt(v geometry.Vector2) string { return fmt.Sprintf("(%.1f,%.1f)", v.X, v.Y) }

func (c *cli) hit(args []string) error {
	if err := need(args, 4, "hit requires <dir> <page> <x> <y>"); err != nil {
		return err
	}
	bh, err := c.open(args[0])
	if err != nil {
		return err
	}
	b := bh.Book
	pi, err := pageArg(b, args[1])
	if err != nil {
		return err
	}
	x, errX := strconv.ParseFloat(args[2], 64)
	y, errY := strconv.ParseFloat(args[3], 64)
	if errX != nil || errY != nil {
		return fmt.Errorf("%w: bad point %s,%s", errUsage, args[2], args[3])
	}
	p := geometry.V(x, y)
	root := b.Pages[pi].Solve(b.Direction)
	if leaf := layout.FindLeafAt(root, p, b.Direction); leaf != nil {
		fmt.Fprintf(c.out, "panel:   %s\n", leaf.Node)
	} else {
		fmt.Fprintln(c.out, "panel:   none")
	}
	if bd := layout.FindBorderAt(root, p, c.cfg.Layout.BorderMargin, b.Direction); bd != nil {
		fmt.Fprintf(c.out, "border:  %s | %s (owner %s)\n", bd.Before.Node, bd.After.Node, bd.Owner)
	} else {
		fmt.Fprintln(c.out, "border:  none")
	}
	if pad := layout.FindPaddingAt(root, p, c.cfg.Layout.PaddingHandleWidth, b.Direction); pad != nil {
		fmt.Fprintf(c.out, "padding: %s %s\n", pad.Leaf.Node, pad.Zone)
	} else {
		fmt.Fprintln(c.out, "padding: none")
	}
	return nil
}

func (c *cli) validate(args []string) error {
	if err := need(args, 1, "validate requires <markup-file>"); err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	root, err := paneltree.Parse(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "OK: %d panels\n", len(root.Leaves()))
	return nil
}

// resolveID accepts a full node id or a unique prefix of one.
func resolveID(b *reflow.Book, s string) (paneltree.NodeID, error) {
	var found []paneltree.NodeID
	for _, p := range b.Pages {
		if _, _, _, err := p.Root.Find(paneltree.NodeID(s)); err == nil {
			return paneltree.NodeID(s), nil
		}
		p.Root.Walk(func(n, _ *paneltree.PanelNode, _ int) bool {
			if s != "" && strings.HasPrefix(string(n.ID), s) {
				found = append(found, n.ID)
			}
			return true
		})
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%s: %w", s, paneltree.ErrNotFound)
	case 1:
		return found[0], nil
	}
	return "", fmt.Errorf("ambiguous node id %q (%d matches)", s, len(found))
}

func undoConfig(h config.HistoryConfig) undo.Config {
	return undo.Config{
		MaxBytes:    h.MaxUndoBytes,
		MaxDepth:    h.MaxUndoDepth,
		MinInterval: time.Duration(h.CoalesceMs) * time.Millisecond,
	}
}

func (c *cli) edit(args []string) error {
	if err := need(args, 2, "edit requires <dir> <op>"); err != nil {
		return err
	}
	bh, err := c.open(args[0])
	if err != nil {
		return err
	}
	op, rest := args[1], args[2:]
	if op == "undo" || op == "redo" {
		return c.step(bh, op == "redo")
	}
	l := c.log.With(slog.String("op", op))
	ed := edit.New(bh, undoConfig(c.cfg.History))
	id := func(i int) (paneltree.NodeID, error) {
		if len(rest) <= i {
			return "", fmt.Errorf("%w: %s needs a node id", errUsage, op)
		}
		return resolveID(bh.Book, rest[i])
	}

	var target paneltree.NodeID
	if op != "add-page" {
		if target, err = id(0); err != nil {
			return err
		}
	}
	switch op {
	case "insert":
		after := !(len(rest) > 1 && rest[1] == "before")
		var n paneltree.NodeID
		if n, err = ed.InsertPanel(target, after); err == nil {
			fmt.Fprintln(c.out, "inserted", n)
		}
	case "delete":
		err = ed.DeletePanel(target)
	case "split":
		if len(rest) < 2 {
			return fmt.Errorf("%w: split needs h or v", errUsage)
		}
		axis, aerr := paneltree.ParseAxis(rest[1])
		if aerr != nil || axis == paneltree.None {
			return fmt.Errorf("%w: split needs h or v", errUsage)
		}
		var first, second paneltree.NodeID
		if first, second, err = ed.SplitPanel(target, axis, paneltree.Divider{}); err == nil {
			fmt.Fprintln(c.out, "split into", first, second)
		}
	case "duplicate":
		var n paneltree.NodeID
		if n, err = ed.DuplicatePanel(target); err == nil {
			fmt.Fprintln(c.out, "duplicated as", n)
		}
	case "swap":
		other, oerr := id(1)
		if oerr != nil {
			return oerr
		}
		err = ed.SwapPanels(target, other)
	case "transpose":
		err = ed.TransposePanel(target)
	case "resize":
		if len(rest) < 2 {
			return fmt.Errorf("%w: resize needs <size>", errUsage)
		}
		size, perr := strconv.ParseFloat(rest[1], 64)
		if perr != nil {
			return fmt.Errorf("%w: bad size %q", errUsage, rest[1])
		}
		err = ed.ResizePanel(target, size)
	case "gutter":
		if len(rest) < 3 {
			return fmt.Errorf("%w: gutter needs <spacing> <slant>", errUsage)
		}
		spacing, e1 := strconv.ParseFloat(rest[1], 64)
		slant, e2 := strconv.ParseFloat(rest[2], 64)
		if e1 != nil || e2 != nil {
			return fmt.Errorf("%w: bad gutter %s %s", errUsage, rest[1], rest[2])
		}
		err = ed.SetGutter(target, paneltree.Divider{Spacing: spacing, Slant: slant})
	case "shift":
		forward := true
		if len(rest) > 1 {
			switch rest[1] {
			case "forward":
			case "backward":
				forward = false
			default:
				return fmt.Errorf("%w: shift takes forward or backward", errUsage)
			}
		}
		err = ed.ShiftContent(target, forward)
	case "add-page":
		paper := geometry.V(c.cfg.Layout.PaperWidth, c.cfg.Layout.PaperHeight)
		if n := len(bh.Book.Pages); n > 0 {
			paper = bh.Book.Pages[n-1].Paper
		}
		bh.Book.Pages = append(bh.Book.Pages, storage.NewPage(paper))
		fmt.Fprintf(c.out, "added page %d\n", len(bh.Book.Pages))
	default:
		return fmt.Errorf("%w: unknown edit op %q", errUsage, op)
	}
	if err != nil {
		return err
	}
	l.Info("edit applied", slog.Int("pages", len(bh.Book.Pages)))
	return c.commit(bh, strings.TrimSpace(op+" "+string(target)))
}

// stepLabel matches snapshots written by undo and redo. The first id is the
// snapshot whose book they hold; undo also records the snapshot it left.
var stepLabel = regexp.MustCompile(`^(undo|redo) (\d+)(?: (\d+))?$`)

type stepEntry struct {
	redo     bool
	to, from int64
}

func parseStep(label string) (stepEntry, bool) {
	m := stepLabel.FindStringSubmatch(label)
	if m == nil {
		return stepEntry{}, false
	}
	e := stepEntry{redo: m[1] == "redo"}
	e.to, _ = strconv.ParseInt(m[2], 10, 64)
	e.from, _ = strconv.ParseInt(m[3], 10, 64)
	return e, true
}

// step walks the persisted history one edit back or forward. Each step is
// itself saved as a snapshot, so a later edit drops the redo chain.
func (c *cli) step(bh *storage.BookHandle, forward bool) error {
	ctx := context.Background()
	limit := c.cfg.History.KeepSnapshots
	if limit <= 0 {
		limit = 1000
	}
	snaps, err := storage.ListSnapshots(ctx, bh, limit)
	if err != nil {
		return err
	}
	verb := "undo"
	if forward {
		verb = "redo"
	}
	resolve := func(s storage.SnapshotInfo) int64 {
		if e, ok := parseStep(s.Label); ok {
			return e.to
		}
		return s.ID
	}
	var target, current int64
	if len(snaps) > 0 {
		current = resolve(snaps[0])
	}
	if forward {
		// Undo entries at the top of the list map each state to the one it left.
		next := map[int64]int64{}
		for _, s := range snaps {
			e, ok := parseStep(s.Label)
			if !ok {
				break
			}
			if _, seen := next[e.to]; !e.redo && !seen {
				next[e.to] = e.from
			}
		}
		target = next[current]
	} else {
		for i, s := range snaps {
			if s.ID == current && i+1 < len(snaps) {
				target = resolve(snaps[i+1])
				break
			}
		}
	}
	if target == 0 {
		fmt.Fprintf(c.out, "Nothing to %s.\n", verb)
		return nil
	}
	if err := storage.RestoreSnapshot(ctx, bh, target); err != nil {
		return err
	}
	c.log.Info("history step", slog.String("op", verb), slog.Int64("snapshot", target))
	label := fmt.Sprintf("redo %d", target)
	if !forward {
		label = fmt.Sprintf("undo %d %d", target, current)
	}
	if err := c.commit(bh, label); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: now at snapshot %d (%d pages)\n", verb, target, len(bh.Book.Pages))
	return nil
}

func (c *cli) history(args []string) error {
	if err := need(args, 1, "history requires <dir>"); err != nil {
		return err
	}
	bh, err := c.open(args[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	if len(args) >= 3 && args[1] == "restore" {
		sid, perr := strconv.ParseInt(args[2], 10, 64)
		if perr != nil {
			return fmt.Errorf("%w: bad snapshot id %q", errUsage, args[2])
		}
		if err := storage.RestoreSnapshot(ctx, bh, sid); err != nil {
			return err
		}
		if err := c.commit(bh, fmt.Sprintf("restore %d", sid)); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Restored snapshot %d (%d pages)\n", sid, len(bh.Book.Pages))
		return nil
	}
	if reset, err := storage.DetectAndResetHistory(ctx, bh.Root); err != nil {
		return err
	} else if reset {
		fmt.Fprintln(c.out, "History database was corrupt and has been reset; a backup was kept.")
	}
	snaps, err := storage.ListSnapshots(ctx, bh, 50)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(c.out, "No snapshots.")
		return nil
	}
	for _, s := range snaps {
		fmt.Fprintf(c.out, "%5d  %s  pages=%d  %6dB  %s\n", s.ID, s.TS.Local().Format(time.DateTime), s.Pages, s.Size, s.Label)
	}
	return nil
}

func (c *cli) exportOptions(args []string) (export.BatchOptions, error) {
	opt := export.BatchOptions{Preset: export.PresetWeb}
	if len(args) > 0 {
		switch export.PresetName(args[0]) {
		case export.PresetWeb, export.PresetPrint:
			opt.Preset = export.PresetName(args[0])
		default:
			return opt, fmt.Errorf("%w: unknown preset %q", errUsage, args[0])
		}
	}
	if len(args) > 1 {
		for _, f := range strings.Split(args[1], ",") {
			if f = strings.TrimSpace(f); f != "" {
				opt.Formats = append(opt.Formats, strings.ToLower(f))
			}
		}
	}
	st, err := export.StyleFromConfig(c.cfg.Export)
	if err != nil {
		return opt, err
	}
	opt.Style = st
	return opt, nil
}

func (c *cli) export(args []string) error {
	if err := need(args, 1, "export requires <dir>"); err != nil {
		return err
	}
	opt, err := c.exportOptions(args[1:])
	if err != nil {
		return err
	}
	bh, err := c.open(args[0])
	if err != nil {
		return err
	}
	return c.runExport(bh, opt)
}

func (c *cli) runExport(bh *storage.BookHandle, opt export.BatchOptions) error {
	start := time.Now()
	paths, err := export.BatchExport(bh, opt)
	if err != nil {
		return err
	}
	c.log.Info("export done", slog.String("preset", string(opt.Preset)), slog.Int("files", len(paths)), slog.Duration("took", time.Since(start)))
	for _, p := range paths {
		fmt.Fprintln(c.out, p)
	}
	return nil
}

func (c *cli) watch(args []string) error {
	if err := need(args, 1, "watch requires <dir>"); err != nil {
		return err
	}
	opt, err := c.exportOptions(args[1:])
	if err != nil {
		return err
	}
	bh, err := c.open(args[0])
	if err != nil {
		return err
	}
	if err := c.runExport(bh, opt); err != nil {
		return err
	}
	w, err := watch.New(watch.DefaultDebounce, bh.ManifestPath)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	fmt.Fprintln(c.out, "Watching", bh.ManifestPath, "(Ctrl+C to stop)")
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-w.Events:
			if !ok {
				return nil
			}
			nb, err := storage.Open(bh.Root)
			if err != nil {
				c.log.Warn("reload failed", slog.Any("err", err))
				continue
			}
			bh = nb
			c.bh = nb
			if err := c.runExport(bh, opt); err != nil {
				c.log.Warn("export failed", slog.Any("err", err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.Warn("watch error", slog.Any("err", err))
		}
	}
}
