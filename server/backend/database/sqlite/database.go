/*
 * Copyright 2024 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package sqlite implements the database interface using a SQLite file. It
// is meant for a single server instance that needs durability without a
// separate database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	gotime "time"

	_ "modernc.org/sqlite" // register the sqlite driver

	"github.com/yorkie-team/sharenote/server/backend/database"
)

// timeLayout has a fixed width so that stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB is a database backed by a SQLite file.
type DB struct {
	db *sql.DB
}

// New opens or creates the SQLite database at the given path.
func New(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

func (d *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		token          TEXT PRIMARY KEY,
		source_key     TEXT NOT NULL,
		title          TEXT NOT NULL,
		seed           TEXT NOT NULL,
		status         TEXT NOT NULL,
		contributors   TEXT NOT NULL,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL,
		deactivated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_source_key ON documents(source_key, created_at);

	CREATE TABLE IF NOT EXISTS snapshots (
		token       TEXT PRIMARY KEY,
		replica     BLOB NOT NULL,
		attribution BLOB NOT NULL,
		checksum    TEXT NOT NULL,
		seq         INTEGER NOT NULL,
		created_at  TEXT NOT NULL
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// CreateDocInfo stores a new document.
func (d *DB) CreateDocInfo(ctx context.Context, info *database.DocInfo) error {
	contributors, err := json.Marshal(info.Contributors)
	if err != nil {
		return fmt.Errorf("marshal contributors of %s: %w", info.Token, err)
	}

	res, err := d.db.ExecContext(ctx, `
		INSERT INTO documents (token, source_key, title, seed, status, contributors,
			created_at, updated_at, deactivated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING`,
		info.Token, info.SourceKey, info.Title, info.Seed, string(info.Status), string(contributors),
		formatTime(info.CreatedAt), formatTime(info.UpdatedAt), formatTime(info.DeactivatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert document of %s: %w", info.Token, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("insert document of %s: %w", info.Token, err)
	} else if n == 0 {
		return fmt.Errorf("%s: %w", info.Token, database.ErrDocumentAlreadyExists)
	}

	return nil
}

// FindDocInfoByToken finds the document of the given token.
func (d *DB) FindDocInfoByToken(ctx context.Context, token string) (*database.DocInfo, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT token, source_key, title, seed, status, contributors,
			created_at, updated_at, deactivated_at
		FROM documents WHERE token = ?`, token)

	info, err := scanDocInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", token, database.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find document of %s: %w", token, err)
	}

	return info, nil
}

// FindDocInfosBySourceKey finds the documents shared from the given note.
func (d *DB) FindDocInfosBySourceKey(ctx context.Context, sourceKey string) ([]*database.DocInfo, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT token, source_key, title, seed, status, contributors,
			created_at, updated_at, deactivated_at
		FROM documents WHERE source_key = ? ORDER BY created_at ASC`, sourceKey)
	if err != nil {
		return nil, fmt.Errorf("find documents of %s: %w", sourceKey, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var infos []*database.DocInfo
	for rows.Next() {
		info, err := scanDocInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan documents of %s: %w", sourceKey, err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find documents of %s: %w", sourceKey, err)
	}

	return infos, nil
}

// UpdateDocInfo replaces the stored document with the given one.
func (d *DB) UpdateDocInfo(ctx context.Context, info *database.DocInfo) error {
	contributors, err := json.Marshal(info.Contributors)
	if err != nil {
		return fmt.Errorf("marshal contributors of %s: %w", info.Token, err)
	}

	res, err := d.db.ExecContext(ctx, `
		UPDATE documents SET source_key = ?, title = ?, seed = ?, status = ?, contributors = ?,
			created_at = ?, updated_at = ?, deactivated_at = ?
		WHERE token = ?`,
		info.SourceKey, info.Title, info.Seed, string(info.Status), string(contributors),
		formatTime(info.CreatedAt), formatTime(info.UpdatedAt), formatTime(info.DeactivatedAt),
		info.Token,
	)
	if err != nil {
		return fmt.Errorf("update document of %s: %w", info.Token, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update document of %s: %w", info.Token, err)
	} else if n == 0 {
		return fmt.Errorf("%s: %w", info.Token, database.ErrDocumentNotFound)
	}

	return nil
}

// StoreSnapshot stores the checkpoint of a document.
func (d *DB) StoreSnapshot(ctx context.Context, info *database.SnapshotInfo) error {
	res, err := d.db.ExecContext(ctx, `
		INSERT INTO snapshots (token, replica, attribution, checksum, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET
			replica = excluded.replica,
			attribution = excluded.attribution,
			checksum = excluded.checksum,
			seq = excluded.seq,
			created_at = excluded.created_at
		WHERE snapshots.seq = excluded.seq - 1`,
		info.Token, info.Replica, info.Attribution, info.Checksum, info.Seq, formatTime(info.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("store snapshot of %s: %w", info.Token, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("store snapshot of %s: %w", info.Token, err)
	} else if n == 0 {
		return fmt.Errorf("%s seq %d: %w", info.Token, info.Seq, database.ErrSnapshotConflict)
	}

	return nil
}

// FindSnapshotByToken finds the last checkpoint of the document.
func (d *DB) FindSnapshotByToken(ctx context.Context, token string) (*database.SnapshotInfo, error) {
	info := &database.SnapshotInfo{}
	var createdAt string
	err := d.db.QueryRowContext(ctx, `
		SELECT token, replica, attribution, checksum, seq, created_at
		FROM snapshots WHERE token = ?`, token,
	).Scan(&info.Token, &info.Replica, &info.Attribution, &info.Checksum, &info.Seq, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", token, database.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find snapshot of %s: %w", token, err)
	}

	if info.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse snapshot of %s: %w", token, err)
	}
	return info, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocInfo(s scanner) (*database.DocInfo, error) {
	info := &database.DocInfo{}
	var status, contributors, createdAt, updatedAt, deactivatedAt string
	if err := s.Scan(
		&info.Token, &info.SourceKey, &info.Title, &info.Seed, &status, &contributors,
		&createdAt, &updatedAt, &deactivatedAt,
	); err != nil {
		return nil, err
	}

	info.Status = database.DocStatus(status)
	if err := json.Unmarshal([]byte(contributors), &info.Contributors); err != nil {
		return nil, fmt.Errorf("unmarshal contributors: %w", err)
	}

	var err error
	if info.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if info.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if info.DeactivatedAt, err = parseTime(deactivatedAt); err != nil {
		return nil, err
	}

	return info, nil
}

func formatTime(t gotime.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (gotime.Time, error) {
	t, err := gotime.Parse(timeLayout, value)
	if err != nil {
		return gotime.Time{}, fmt.Errorf("parse time %q: %w", value, err)
	}
	return t, nil
}
