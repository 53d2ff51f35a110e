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

// Package testcases contains testcases for database. It is used by database
// implementations to test their own implementations with the same testcases.
package testcases

import (
	"context"
	"strings"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/server/backend/database"
)

func tokenOf(t *testing.T) string {
	return strings.NewReplacer("/", "-", " ", "-").Replace(t.Name())
}

func now() gotime.Time {
	return gotime.Now().UTC().Truncate(gotime.Millisecond)
}

// RunCreateDocInfoTest runs the CreateDocInfo test for the given db.
func RunCreateDocInfoTest(t *testing.T, db database.Database) {
	t.Run("create and find docInfo test", func(t *testing.T) {
		ctx := context.Background()
		token := tokenOf(t)

		_, err := db.FindDocInfoByToken(ctx, token)
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)

		createdAt := now()
		assert.NoError(t, db.CreateDocInfo(ctx, &database.DocInfo{
			Token:     token,
			SourceKey: "note-" + token,
			Title:     "Meeting notes",
			Seed:      "hello\nworld",
			Status:    database.DocStatusActive,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}))

		info, err := db.FindDocInfoByToken(ctx, token)
		assert.NoError(t, err)
		assert.Equal(t, token, info.Token)
		assert.Equal(t, "Meeting notes", info.Title)
		assert.Equal(t, "hello\nworld", info.Seed)
		assert.Equal(t, database.DocStatusActive, info.Status)
		assert.True(t, createdAt.Equal(info.CreatedAt))
		assert.Empty(t, info.Contributors)
	})

	t.Run("create duplicate docInfo test", func(t *testing.T) {
		ctx := context.Background()
		info := &database.DocInfo{
			Token:     tokenOf(t),
			Status:    database.DocStatusActive,
			CreatedAt: now(),
		}

		assert.NoError(t, db.CreateDocInfo(ctx, info))
		assert.ErrorIs(t, db.CreateDocInfo(ctx, info), database.ErrDocumentAlreadyExists)
	})
}

// RunUpdateDocInfoTest runs the UpdateDocInfo test for the given db.
func RunUpdateDocInfoTest(t *testing.T, db database.Database) {
	t.Run("update docInfo test", func(t *testing.T) {
		ctx := context.Background()
		token := tokenOf(t)
		info := &database.DocInfo{
			Token:     token,
			Status:    database.DocStatusActive,
			CreatedAt: now(),
		}
		assert.NoError(t, db.CreateDocInfo(ctx, info))

		lastSeen := now()
		info.UpsertContributor(database.ContributorInfo{
			ID:       "alice",
			Name:     "Alice",
			Color:    "#268bd2",
			LastSeen: lastSeen,
		})
		info.Status = database.DocStatusDeactivated
		info.DeactivatedAt = now()
		assert.NoError(t, db.UpdateDocInfo(ctx, info))

		found, err := db.FindDocInfoByToken(ctx, token)
		assert.NoError(t, err)
		assert.True(t, found.IsDeactivated())
		assert.Len(t, found.Contributors, 1)
		assert.Equal(t, "Alice", found.Contributors[0].Name)
		assert.Equal(t, "#268bd2", found.Contributors[0].Color)
		assert.True(t, lastSeen.Equal(found.Contributors[0].LastSeen))
	})

	t.Run("update missing docInfo test", func(t *testing.T) {
		err := db.UpdateDocInfo(context.Background(), &database.DocInfo{Token: tokenOf(t)})
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)
	})
}

// RunFindDocInfosBySourceKeyTest runs the FindDocInfosBySourceKey test for
// the given db.
func RunFindDocInfosBySourceKeyTest(t *testing.T, db database.Database) {
	t.Run("find docInfos by source key test", func(t *testing.T) {
		ctx := context.Background()
		sourceKey := tokenOf(t)
		base := now()

		offsets := map[string]gotime.Duration{"second": 1, "first": 0, "third": 2}
		for _, name := range []string{"second", "first", "third"} {
			assert.NoError(t, db.CreateDocInfo(ctx, &database.DocInfo{
				Token:     sourceKey + "-" + name,
				SourceKey: sourceKey,
				Status:    database.DocStatusActive,
				CreatedAt: base.Add(offsets[name] * gotime.Second),
			}))
		}
		assert.NoError(t, db.CreateDocInfo(ctx, &database.DocInfo{
			Token:     sourceKey + "-other",
			SourceKey: sourceKey + "-other",
			CreatedAt: base,
		}))

		infos, err := db.FindDocInfosBySourceKey(ctx, sourceKey)
		assert.NoError(t, err)
		assert.Len(t, infos, 3)
		assert.Equal(t, sourceKey+"-first", infos[0].Token)
		assert.Equal(t, sourceKey+"-second", infos[1].Token)
		assert.Equal(t, sourceKey+"-third", infos[2].Token)

		infos, err = db.FindDocInfosBySourceKey(ctx, sourceKey+"-missing")
		assert.NoError(t, err)
		assert.Empty(t, infos)
	})
}

// RunSnapshotTest runs the StoreSnapshot and FindSnapshotByToken test for
// the given db.
func RunSnapshotTest(t *testing.T, db database.Database) {
	t.Run("store and find snapshot test", func(t *testing.T) {
		ctx := context.Background()
		token := tokenOf(t)

		_, err := db.FindSnapshotByToken(ctx, token)
		assert.ErrorIs(t, err, database.ErrSnapshotNotFound)

		assert.NoError(t, db.StoreSnapshot(ctx, &database.SnapshotInfo{
			Token:       token,
			Replica:     []byte("replica-1"),
			Attribution: []byte("attribution-1"),
			Checksum:    "c1",
			Seq:         1,
			CreatedAt:   now(),
		}))
		assert.NoError(t, db.StoreSnapshot(ctx, &database.SnapshotInfo{
			Token:       token,
			Replica:     []byte("replica-2"),
			Attribution: []byte("attribution-2"),
			Checksum:    "c2",
			Seq:         2,
			CreatedAt:   now(),
		}))

		info, err := db.FindSnapshotByToken(ctx, token)
		assert.NoError(t, err)
		assert.Equal(t, []byte("replica-2"), info.Replica)
		assert.Equal(t, []byte("attribution-2"), info.Attribution)
		assert.Equal(t, "c2", info.Checksum)
		assert.Equal(t, int64(2), info.Seq)
	})

	t.Run("store snapshot conflict test", func(t *testing.T) {
		ctx := context.Background()
		token := tokenOf(t)

		snapshot := func(seq int64, replica string) *database.SnapshotInfo {
			return &database.SnapshotInfo{
				Token:       token,
				Replica:     []byte(replica),
				Attribution: []byte(replica),
				Checksum:    replica,
				Seq:         seq,
				CreatedAt:   now(),
			}
		}
		assert.NoError(t, db.StoreSnapshot(ctx, snapshot(1, "first")))
		assert.NoError(t, db.StoreSnapshot(ctx, snapshot(2, "second")))

		assert.ErrorIs(t, db.StoreSnapshot(ctx, snapshot(2, "stale")), database.ErrSnapshotConflict)
		assert.ErrorIs(t, db.StoreSnapshot(ctx, snapshot(1, "stale")), database.ErrSnapshotConflict)
		assert.ErrorIs(t, db.StoreSnapshot(ctx, snapshot(4, "ahead")), database.ErrSnapshotConflict)

		info, err := db.FindSnapshotByToken(ctx, token)
		assert.NoError(t, err)
		assert.Equal(t, []byte("second"), info.Replica)
		assert.Equal(t, int64(2), info.Seq)

		assert.NoError(t, db.StoreSnapshot(ctx, snapshot(3, "third")))
	})
}
