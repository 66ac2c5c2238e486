/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// lastJSON decodes the last non-empty line of b.
func lastJSON(t *testing.T, b []byte) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", lines[len(lines)-1], err)
	}
	return m
}

func TestJSONFileCarriesBookAndPage(t *testing.T) {
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("gcp_log_%d.json", time.Now().UnixNano()))
	var console bytes.Buffer
	Init(Options{Level: "debug", Format: "json", File: fpath, Output: &console, MaxSizeMB: 1, MaxBackups: 1})
	t.Cleanup(func() {
		Init(Options{Output: io.Discard})
		_ = os.Remove(fpath)
	})

	ctx := WithPage(WithBook(context.Background(), "books/moon"), 3)
	WithOperation(WithComponent("reflow"), "deal").InfoContext(ctx, "dealt", "slots", 4)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for name, raw := range map[string][]byte{"file": b, "console": console.Bytes()} {
		m := lastJSON(t, raw)
		if m["app"] != "gocomicpanels" || m["component"] != "reflow" || m["op"] != "deal" {
			t.Fatalf("%s: static attrs = %v", name, m)
		}
		if m["book"] != "books/moon" {
			t.Fatalf("%s: book = %v", name, m["book"])
		}
		if m["page"] != float64(3) || m["slots"] != float64(4) {
			t.Fatalf("%s: page=%v slots=%v", name, m["page"], m["slots"])
		}
	}
}

func TestEmptyBookIsNotLogged(t *testing.T) {
	var out bytes.Buffer
	Init(Options{Format: "json", Output: &out})
	t.Cleanup(func() { Init(Options{Output: io.Discard}) })

	WithComponent("edit").InfoContext(WithBook(context.Background(), ""), "noop")
	m := lastJSON(t, out.Bytes())
	if _, ok := m["book"]; ok {
		t.Fatalf("empty book should be skipped: %v", m)
	}
	if _, ok := m["page"]; ok {
		t.Fatalf("page was never set: %v", m)
	}
}

func TestOrDefault(t *testing.T) {
	cases := []struct{ v, def, want int }{
		{0, 10, 10},
		{-1, 3, 3},
		{5, 10, 5},
	}
	for _, c := range cases {
		if got := orDefault(c.v, c.def); got != c.want {
			t.Fatalf("orDefault(%d, %d) = %d, want %d", c.v, c.def, got, c.want)
		}
	}
}
