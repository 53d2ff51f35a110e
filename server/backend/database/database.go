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

// Package database provides the durable storage of shared documents. Each
// document is stored under its share token as a DocInfo, holding its
// metadata, and a SnapshotInfo, holding the encoded replica and attribution
// table written by the document's checkpoints.
package database

import (
	"context"

	"github.com/yorkie-team/sharenote/pkg/errors"
)

var (
	// ErrDocumentNotFound is returned when the document could not be found.
	ErrDocumentNotFound = errors.NotFound("document not found").WithCode("ErrDocumentNotFound")

	// ErrDocumentAlreadyExists is returned when a document with the same
	// token already exists.
	ErrDocumentAlreadyExists = errors.AlreadyExists("document already exists").WithCode("ErrDocumentAlreadyExists")

	// ErrSnapshotNotFound is returned when the document has no checkpoint yet.
	ErrSnapshotNotFound = errors.NotFound("snapshot not found").WithCode("ErrSnapshotNotFound")

	// ErrSnapshotConflict is returned when another checkpoint of the document
	// was stored since the one the new checkpoint follows.
	ErrSnapshotConflict = errors.FailedPrecond("snapshot conflict").WithCode("ErrSnapshotConflict")
)

// Database represents the storage of shared documents.
type Database interface {
	// Close closes the database.
	Close() error

	// CreateDocInfo stores a new document.
	CreateDocInfo(ctx context.Context, info *DocInfo) error

	// FindDocInfoByToken finds the document of the given token.
	FindDocInfoByToken(ctx context.Context, token string) (*DocInfo, error)

	// FindDocInfosBySourceKey finds the documents shared from the given
	// note, oldest first.
	FindDocInfosBySourceKey(ctx context.Context, sourceKey string) ([]*DocInfo, error)

	// UpdateDocInfo replaces the stored document with the given one.
	UpdateDocInfo(ctx context.Context, info *DocInfo) error

	// StoreSnapshot stores the checkpoint of a document. It replaces the
	// stored checkpoint only when info.Seq is one more than its Seq, and
	// returns ErrSnapshotConflict otherwise.
	StoreSnapshot(ctx context.Context, info *SnapshotInfo) error

	// FindSnapshotByToken finds the last checkpoint of the document.
	FindSnapshotByToken(ctx context.Context, token string) (*SnapshotInfo, error)
}
