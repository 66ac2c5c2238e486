/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(ts, label, pages, blob) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectSnapshotSQL = `SELECT blob FROM snapshots WHERE id = ?`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT id, ts, label, pages, length(blob) FROM snapshots ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE id NOT IN (
	SELECT id FROM snapshots ORDER BY ts DESC, id DESC LIMIT ?
)`

// ErrNoSnapshot is returned when a snapshot id does not exist.
var ErrNoSnapshot = errors.New("snapshot not found")

// SnapshotInfo describes a persisted book snapshot without its payload.
type SnapshotInfo struct {
	ID    int64
	TS    time.Time
	Label string
	Pages int
	Size  int
}

// snapshotTimeLayout has fixed-width fractions so the text column sorts in
// time order.
const snapshotTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SaveSnapshot persists the current state of the book under label and
// returns the new snapshot id.
func SaveSnapshot(ctx context.Context, bh *BookHandle, label string, ts time.Time) (int64, error) {
	if bh == nil || bh.Book == nil {
		return 0, errors.New("nil BookHandle")
	}
	blob, err := EncodeBook(bh.Title, bh.Book)
	if err != nil {
		return 0, err
	}
	db, err := OpenHistory(bh.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, insertSnapshotSQL, ts.UTC().Format(snapshotTimeLayout), label, len(bh.Book.Pages), blob)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return res.LastInsertId()
}

// ListSnapshots returns up to limit most recent snapshots, newest first.
func ListSnapshots(ctx context.Context, bh *BookHandle, limit int) ([]SnapshotInfo, error) {
	if bh == nil {
		return nil, errors.New("nil BookHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := OpenHistory(bh.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []SnapshotInfo
	for rows.Next() {
		var si SnapshotInfo
		var tsStr string
		if err := rows.Scan(&si.ID, &tsStr, &si.Label, &si.Pages, &si.Size); err != nil {
			return nil, err
		}
		si.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, si)
	}
	return out, rows.Err()
}

// RestoreSnapshot replaces the handle's book with the snapshot id. The
// manifest on disk is not touched; call Save to persist.
func RestoreSnapshot(ctx context.Context, bh *BookHandle, id int64) error {
	if bh == nil {
		return errors.New("nil BookHandle")
	}
	db, err := OpenHistory(bh.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	var blob []byte
	err = db.QueryRowContext(ctx, selectSnapshotSQL, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("snapshot %d: %w", id, ErrNoSnapshot)
	}
	if err != nil {
		return err
	}
	title, b, err := DecodeBook(blob)
	if err != nil {
		return fmt.Errorf("snapshot %d: %w", id, err)
	}
	bh.Title, bh.Book = title, b
	return nil
}

// PruneOldSnapshots keeps at most keepLast snapshots and deletes older ones.
func PruneOldSnapshots(ctx context.Context, bh *BookHandle, keepLast int) (int64, error) {
	if bh == nil {
		return 0, errors.New("nil BookHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := OpenHistory(bh.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldSnapshotsSQL, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
