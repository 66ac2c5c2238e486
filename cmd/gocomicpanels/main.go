/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gocomicpanels/internal/config"
	"gocomicpanels/internal/crash"
	applog "gocomicpanels/internal/log"
	"gocomicpanels/internal/storage"
	"gocomicpanels/internal/version"
)

// errUsage marks argument errors; main prints usage and exits with 2.
var errUsage = errors.New("usage")

func usage() {
	fmt.Println("Go Comic Panels")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gocomicpanels version|-v|--version                 Show version")
	fmt.Println("  gocomicpanels init <dir> [title]                   Create a new book with one blank page")
	fmt.Println("  gocomicpanels info <dir>                           Print a summary of the book")
	fmt.Println("  gocomicpanels solve <dir> [page]                   Print the solved panel geometry")
	fmt.Println("  gocomicpanels hit <dir> <page> <x> <y>             Report the panel, border and padding handle at a point")
	fmt.Println("  gocomicpanels validate <markup-file>               Check a page markup file")
	fmt.Println("  gocomicpanels edit <dir> <op> [args...]            Apply an edit and save (see ops below)")
	fmt.Println("  gocomicpanels history <dir> [restore <id>]         List or restore saved snapshots")
	fmt.Println("  gocomicpanels export <dir> [web|print] [formats]   Export pages (pdf, png, svg, cbz)")
	fmt.Println("  gocomicpanels watch <dir> [web|print]              Re-export whenever book.yaml changes")
	fmt.Println()
	fmt.Println("Edit ops:")
	fmt.Println("  insert <id> [before] | delete <id> | split <id> <h|v> | duplicate <id>")
	fmt.Println("  swap <a> <b> | transpose <id> | resize <id> <size> | gutter <id> <spacing> <slant>")
	fmt.Println("  shift <id> <forward|backward> | add-page | undo | redo")
	fmt.Println("Node ids may be shortened to any unique prefix.")
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config load failed; using defaults", slog.Any("err", cfgErr))
	}

	app := &cli{cfg: cfg, log: l, out: os.Stdout}
	defer crash.Recover(app.book)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	var err error
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Go Comic Panels")
		fmt.Println(version.String())
		return
	case "init":
		err = app.initBook(args[2:])
	case "info":
		err = app.info(args[2:])
	case "solve":
		err = app.solve(args[2:])
	case "hit":
		err = app.hit(args[2:])
	case "validate":
		err = app.validate(args[2:])
	case "edit":
		err = app.edit(args[2:])
	case "history":
		err = app.history(args[2:])
	case "export":
		err = app.export(args[2:])
	case "watch":
		err = app.watch(args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if errors.Is(err, errUsage) {
		fmt.Println(err)
		usage()
		os.Exit(2)
	}
	if err != nil {
		l.Error("command failed", slog.String("cmd", args[1]), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

// cli holds the state shared by commands. bh is set once a book is open so
// a crash can save it.
type cli struct {
	cfg config.AppConfig
	log *slog.Logger
	out io.Writer
	bh  *storage.BookHandle
}

func (c *cli) book() *storage.BookHandle { return c.bh }
