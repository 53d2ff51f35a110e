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

package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/server/backend/database"
)

func TestDocInfo(t *testing.T) {
	t.Run("upsert contributor test", func(t *testing.T) {
		info := &database.DocInfo{Token: "t"}
		info.UpsertContributor(database.ContributorInfo{ID: "b", Name: "Bob"})
		info.UpsertContributor(database.ContributorInfo{ID: "a", Name: "Alice"})
		info.UpsertContributor(database.ContributorInfo{ID: "b", Name: "Bobby"})

		assert.Len(t, info.Contributors, 2)
		assert.Equal(t, "a", info.Contributors[0].ID)
		assert.Equal(t, "Bobby", info.Contributors[1].Name)
	})

	t.Run("deep copy test", func(t *testing.T) {
		info := &database.DocInfo{Token: "t", Status: database.DocStatusActive}
		info.UpsertContributor(database.ContributorInfo{ID: "a", Name: "Alice"})

		copied := info.DeepCopy()
		copied.Contributors[0].Name = "changed"
		copied.Status = database.DocStatusDeactivated

		assert.Equal(t, "Alice", info.Contributors[0].Name)
		assert.False(t, info.IsDeactivated())
		assert.True(t, copied.IsDeactivated())
	})
}
