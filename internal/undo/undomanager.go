/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo keeps in-memory undo/redo history for edit scopes. A scope is
// usually one open book; snapshots are encoded book states and are opaque
// to the manager.
package undo

import (
	"sync"
	"time"
)

// Snapshot is the state of a scope before an edit.
// Size is estimated as len(Blob).
type Snapshot struct {
	Scope string
	Label string
	Blob  []byte
	TS    time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; the oldest entries across scopes are pruned when exceeded.
	MaxBytes int
	// MaxDepth limits the snapshots kept per scope (0 means unlimited).
	MaxDepth int
	// MinInterval coalesces bursts of edits on the same scope: a snapshot
	// arriving within the interval of the previous one is dropped, so a
	// single undo reverts the whole burst.
	MinInterval time.Duration
}

// Manager is an undo/redo stack per scope. It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per-scope stacks
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting, undo side only
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Push records the state of a scope before an edit and clears its redo
// stack. It reports whether a new entry was created (false when coalesced).
func (m *Manager) Push(s Snapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redo[s.Scope] = nil
	stack := m.undo[s.Scope]
	if n := len(stack); n > 0 {
		last := &stack[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			// Keep the state from before the burst; slide the window.
			last.TS = s.TS
			return false
		}
	}
	m.undo[s.Scope] = append(stack, s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(s.Scope)
	return true
}

// Undo pops the latest snapshot of scope. current is the state being left
// and becomes the redo entry.
func (m *Manager) Undo(scope string, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[scope]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[scope] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Blob)
	m.redo[scope] = append(m.redo[scope], Snapshot{Scope: scope, Label: s.Label, Blob: current, TS: time.Now()})
	return s, true
}

// Redo pops the latest redo entry of scope. current goes back on the undo
// stack without coalescing.
func (m *Manager) Redo(scope string, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[scope]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[scope] = r[:len(r)-1]
	m.undo[scope] = append(m.undo[scope], Snapshot{Scope: scope, Label: s.Label, Blob: current, TS: s.TS})
	m.totalBytes += len(current)
	m.enforceCapsLocked(scope)
	return s, true
}

// CanUndo and CanRedo report whether the scope has history in either
// direction.
func (m *Manager) CanUndo(scope string) bool { return m.depth(m.undo, scope) > 0 }
func (m *Manager) CanRedo(scope string) bool { return m.depth(m.redo, scope) > 0 }

func (m *Manager) depth(stacks map[string][]Snapshot, scope string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(stacks[scope])
}

// Clear drops all history of a scope.
func (m *Manager) Clear(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[scope] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.undo, scope)
	delete(m.redo, scope)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, scopes int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scopes = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, scopes, totalSnapshots
}

func (m *Manager) enforceCapsLocked(scope string) {
	if m.cfg.MaxDepth > 0 {
		stack := m.undo[scope]
		if len(stack) > m.cfg.MaxDepth {
			toDrop := len(stack) - m.cfg.MaxDepth
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[scope] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all scopes
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldest := ""
		found := false
		var oldestTS time.Time
		for sc, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldest, oldestTS, found = sc, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldest]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldest] = stack[1:]
		if len(m.undo[oldest]) == 0 {
			delete(m.undo, oldest)
		}
	}
}
