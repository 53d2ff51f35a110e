/*
 * Copyright 2021 The Yorkie Authors. All rights reserved.
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

// Package memory implements the database interface using in-memory database.
package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"

	"github.com/yorkie-team/sharenote/server/backend/database"
)

// DB is an in-memory database for testing or temporarily.
type DB struct {
	db *memdb.MemDB
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db: memDB,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// CreateDocInfo stores a new document.
func (d *DB) CreateDocInfo(_ context.Context, info *database.DocInfo) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", info.Token)
	if err != nil {
		return fmt.Errorf("find document of %s: %w", info.Token, err)
	}
	if raw != nil {
		return fmt.Errorf("%s: %w", info.Token, database.ErrDocumentAlreadyExists)
	}

	if err := txn.Insert(tblDocuments, info.DeepCopy()); err != nil {
		return fmt.Errorf("insert document of %s: %w", info.Token, err)
	}
	txn.Commit()

	return nil
}

// FindDocInfoByToken finds the document of the given token.
func (d *DB) FindDocInfoByToken(_ context.Context, token string) (*database.DocInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", token)
	if err != nil {
		return nil, fmt.Errorf("find document of %s: %w", token, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", token, database.ErrDocumentNotFound)
	}

	return raw.(*database.DocInfo).DeepCopy(), nil
}

// FindDocInfosBySourceKey finds the documents shared from the given note.
func (d *DB) FindDocInfosBySourceKey(_ context.Context, sourceKey string) ([]*database.DocInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblDocuments, "source_key", sourceKey)
	if err != nil {
		return nil, fmt.Errorf("find documents of %s: %w", sourceKey, err)
	}

	var infos []*database.DocInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.DocInfo).DeepCopy())
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})

	return infos, nil
}

// UpdateDocInfo replaces the stored document with the given one.
func (d *DB) UpdateDocInfo(_ context.Context, info *database.DocInfo) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", info.Token)
	if err != nil {
		return fmt.Errorf("find document of %s: %w", info.Token, err)
	}
	if raw == nil {
		return fmt.Errorf("%s: %w", info.Token, database.ErrDocumentNotFound)
	}

	if err := txn.Insert(tblDocuments, info.DeepCopy()); err != nil {
		return fmt.Errorf("update document of %s: %w", info.Token, err)
	}
	txn.Commit()

	return nil
}

// StoreSnapshot stores the checkpoint of a document.
func (d *DB) StoreSnapshot(_ context.Context, info *database.SnapshotInfo) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblSnapshots, "id", info.Token)
	if err != nil {
		return fmt.Errorf("find snapshot of %s: %w", info.Token, err)
	}
	if raw != nil && raw.(*database.SnapshotInfo).Seq != info.Seq-1 {
		return fmt.Errorf("%s seq %d: %w", info.Token, info.Seq, database.ErrSnapshotConflict)
	}

	if err := txn.Insert(tblSnapshots, info.DeepCopy()); err != nil {
		return fmt.Errorf("insert snapshot of %s: %w", info.Token, err)
	}
	txn.Commit()

	return nil
}

// FindSnapshotByToken finds the last checkpoint of the document.
func (d *DB) FindSnapshotByToken(_ context.Context, token string) (*database.SnapshotInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblSnapshots, "id", token)
	if err != nil {
		return nil, fmt.Errorf("find snapshot of %s: %w", token, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", token, database.ErrSnapshotNotFound)
	}

	return raw.(*database.SnapshotInfo).DeepCopy(), nil
}
