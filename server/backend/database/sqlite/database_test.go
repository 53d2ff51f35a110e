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

package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/server/backend/database/sqlite"
	"github.com/yorkie-team/sharenote/server/backend/database/testcases"
)

func TestDB(t *testing.T) {
	db, err := sqlite.New(filepath.Join(t.TempDir(), "sharenote.db"))
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, db.Close())
	}()

	t.Run("RunCreateDocInfo test", func(t *testing.T) {
		testcases.RunCreateDocInfoTest(t, db)
	})

	t.Run("RunUpdateDocInfo test", func(t *testing.T) {
		testcases.RunUpdateDocInfoTest(t, db)
	})

	t.Run("RunFindDocInfosBySourceKey test", func(t *testing.T) {
		testcases.RunFindDocInfosBySourceKeyTest(t, db)
	})

	t.Run("RunSnapshot test", func(t *testing.T) {
		testcases.RunSnapshotTest(t, db)
	})
}
