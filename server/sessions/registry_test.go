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
package sessions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/document"
	"github.com/yorkie-team/sharenote/server/documents"
	"github.com/yorkie-team/sharenote/server/sessions"
	"github.com/yorkie-team/sharenote/test/helper"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	newRegistry := func(t *testing.T) *sessions.Registry {
		registry := sessions.New(helper.TestBackend(t, nil))
		t.Cleanup(func() {
			assert.NoError(t, registry.Shutdown(context.Background()))
		})
		return registry
	}

	t.Run("create and get test", func(t *testing.T) {
		registry := newRegistry(t)

		info, err := registry.Create(ctx, "a\nb", sessions.CreateOptions{
			SourceKey: "notes/1",
			Title:     "Note",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, info.Token)
		assert.Equal(t, 0, registry.Len())

		actor, err := registry.Get(ctx, info.Token)
		require.NoError(t, err)
		assert.Equal(t, info.Token, actor.Token())
		assert.Equal(t, 1, registry.Len())

		same, err := registry.Get(ctx, info.Token)
		require.NoError(t, err)
		assert.Same(t, actor, same)

		got, text, err := registry.Info(ctx, info.Token)
		require.NoError(t, err)
		assert.Equal(t, "a\nb", text)
		assert.Equal(t, "notes/1", got.SourceKey)
		assert.Equal(t, "Note", got.Title)
	})

	t.Run("unknown token test", func(t *testing.T) {
		registry := newRegistry(t)

		_, err := registry.Get(ctx, "unknown")
		assert.ErrorIs(t, err, sessions.ErrTokenNotFound)

		_, _, err = registry.Join(ctx, "unknown", helper.TestContributor("alice"), nil)
		assert.ErrorIs(t, err, sessions.ErrTokenNotFound)
		assert.Equal(t, 0, registry.Len())
	})

	t.Run("retire idle and reload test", func(t *testing.T) {
		registry := newRegistry(t)

		info, err := registry.Create(ctx, "a", sessions.CreateOptions{})
		require.NoError(t, err)

		actor, sub, err := registry.Join(ctx, info.Token, helper.TestContributor("alice"), nil)
		require.NoError(t, err)
		_, err = actor.Edit(ctx, sub.ID(), document.InsertLines(1, "b"))
		require.NoError(t, err)

		// connected documents stay loaded.
		require.NoError(t, registry.RetireIdle(ctx))
		assert.Equal(t, 1, registry.Len())

		require.NoError(t, actor.Leave(ctx, sub.ID()))
		assert.Eventually(t, func() bool {
			return registry.RetireIdle(ctx) == nil && registry.Len() == 0
		}, 3*helper.IdleGracePeriod, helper.IdleGracePeriod/5)
		assert.True(t, actor.Closed())

		text, err := registry.Snapshot(ctx, info.Token)
		require.NoError(t, err)
		assert.Equal(t, "a\nb", text)
		assert.Equal(t, 1, registry.Len())

		contributors, err := registry.Contributors(ctx, info.Token)
		require.NoError(t, err)
		require.Len(t, contributors, 1)
		assert.Equal(t, "alice", contributors[0].ID)

		res, err := registry.Attribution(ctx, info.Token)
		require.NoError(t, err)
		assert.Equal(t, "alice", res.Entries[1].Contributor)
	})

	t.Run("deactivate test", func(t *testing.T) {
		registry := newRegistry(t)

		info, err := registry.Create(ctx, "a", sessions.CreateOptions{})
		require.NoError(t, err)
		require.NoError(t, registry.Deactivate(ctx, info.Token))
		require.NoError(t, registry.Deactivate(ctx, info.Token))

		got, _, err := registry.Info(ctx, info.Token)
		require.NoError(t, err)
		assert.True(t, got.IsDeactivated())

		// deactivated documents retire without waiting for the grace period.
		require.NoError(t, registry.RetireIdle(ctx))
		assert.Equal(t, 0, registry.Len())

		actor, sub, err := registry.Join(ctx, info.Token, helper.TestContributor("alice"), nil)
		require.NoError(t, err)
		_, err = actor.Edit(ctx, sub.ID(), document.ReplaceLine(0, "b"))
		assert.ErrorIs(t, err, documents.ErrTokenDeactivated)
	})

	t.Run("shutdown test", func(t *testing.T) {
		registry := sessions.New(helper.TestBackend(t, nil))

		info, err := registry.Create(ctx, "a", sessions.CreateOptions{})
		require.NoError(t, err)
		_, sub, err := registry.Join(ctx, info.Token, types.Contributor{ID: "alice"}, nil)
		require.NoError(t, err)

		require.NoError(t, registry.Shutdown(ctx))
		assert.Equal(t, 0, registry.Len())

		for range sub.Events() {
		}
		assert.ErrorIs(t, sub.Err(), documents.ErrActorClosed)

		_, err = registry.Get(ctx, info.Token)
		assert.ErrorIs(t, err, documents.ErrActorClosed)
	})
}
