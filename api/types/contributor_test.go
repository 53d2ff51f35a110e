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

package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/document"
)

func TestContributor(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		assert.NoError(t, (&types.Contributor{ID: "alice", Name: "Alice", Color: "#268bd2"}).Validate())
		assert.NoError(t, (&types.Contributor{ID: "alice"}).Validate())

		assert.ErrorIs(t, (&types.Contributor{}).Validate(), types.ErrInvalidContributor)
		assert.ErrorIs(t, (&types.Contributor{ID: "a b"}).Validate(), types.ErrInvalidContributor)
		assert.ErrorIs(t, (&types.Contributor{ID: "a", Color: "red"}).Validate(), types.ErrInvalidContributor)
		assert.ErrorIs(t, (&types.Contributor{ID: "a", Name: "A\nB"}).Validate(), types.ErrInvalidContributor)
	})

	t.Run("palette test", func(t *testing.T) {
		for _, color := range types.Palette {
			assert.NoError(t, (&types.Contributor{ID: "a", Color: color}).Validate())
		}
	})
}

func TestMessage(t *testing.T) {
	t.Run("envelope test", func(t *testing.T) {
		edit := document.ReplaceLine(0, "a'")
		data, err := json.Marshal(&types.Message{Type: types.EditMessage, Edit: &edit})
		assert.NoError(t, err)
		assert.JSONEq(t, `{"type":"edit","edit":{"from":0,"to":1,"lines":["a'"]}}`, string(data))

		data, err = json.Marshal(types.NewErrorMessage("ErrTokenDeactivated", "token deactivated"))
		assert.NoError(t, err)
		assert.JSONEq(t, `{"type":"error","code":"ErrTokenDeactivated","message":"token deactivated"}`, string(data))
	})

	t.Run("create share request test", func(t *testing.T) {
		assert.NoError(t, (&types.CreateShareRequest{SeedText: "a\nb", SourceKey: "notes/a.md"}).Validate())
		assert.ErrorIs(t,
			(&types.CreateShareRequest{Title: "two\nlines"}).Validate(),
			types.ErrInvalidShareRequest,
		)
	})
}
