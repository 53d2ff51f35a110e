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

package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/sharenote/pkg/document"
	"github.com/yorkie-team/sharenote/pkg/document/time"
)

func actor(t *testing.T, hex string) time.ActorID {
	id, err := time.ActorIDFromHex(hex)
	require.NoError(t, err)
	return id
}

func TestReplica(t *testing.T) {
	t.Run("seed and snapshot test", func(t *testing.T) {
		assert.Equal(t, "a\nb\nc", document.Seed("a\nb\nc").Snapshot())
		assert.Equal(t, "", document.Seed("").Snapshot())
		assert.Equal(t, 0, document.Seed("").LineCount())
		assert.Equal(t, "a\n", document.Seed("a\n").Snapshot())

		for _, line := range document.Seed("a\nb").Lines() {
			assert.Equal(t, document.OwnerContributor, line.Contributor)
		}
	})

	t.Run("apply local test", func(t *testing.T) {
		r := document.Seed("a\nb\nc")

		op, changes, err := r.ApplyLocal("alice", document.ReplaceLine(1, "b'"))
		assert.NoError(t, err)
		assert.Equal(t, "a\nb'\nc", r.Snapshot())
		assert.Equal(t, int64(1), op.ID.Seq)
		assert.Equal(t, []document.Change{
			{Type: document.LineRemoved, Index: 1},
			{Type: document.LineInserted, Index: 1},
		}, changes)

		_, _, err = r.ApplyLocal("alice", document.InsertLines(3, "d", "e"))
		assert.NoError(t, err)
		assert.Equal(t, "a\nb'\nc\nd\ne", r.Snapshot())

		_, _, err = r.ApplyLocal("alice", document.DeleteLines(0, 2))
		assert.NoError(t, err)
		assert.Equal(t, "c\nd\ne", r.Snapshot())
		assert.Equal(t, int64(3), r.VersionVector().VersionOf(r.Actor()))
	})

	t.Run("invalid edit test", func(t *testing.T) {
		r := document.Seed("a")

		_, _, err := r.ApplyLocal("alice", document.ReplaceLine(3, "x"))
		assert.ErrorIs(t, err, document.ErrInvalidEdit)
		_, _, err = r.ApplyLocal("alice", document.InsertLines(0))
		assert.ErrorIs(t, err, document.ErrInvalidEdit)
		_, _, err = r.ApplyLocal("alice", document.InsertLines(0, "x\ny"))
		assert.ErrorIs(t, err, document.ErrInvalidEdit)
		_, _, err = r.ApplyLocal("", document.InsertLines(0, "x"))
		assert.ErrorIs(t, err, document.ErrInvalidEdit)
		assert.Equal(t, "a", r.Snapshot())
	})

	t.Run("idempotence test", func(t *testing.T) {
		x := document.Seed("a\nb")
		y := document.Seed("a\nb")

		op, _, err := x.ApplyLocal("x", document.InsertLines(1, "x"))
		require.NoError(t, err)

		changes, err := y.ApplyRemote(op)
		assert.NoError(t, err)
		assert.Len(t, changes, 1)
		once := y.Snapshot()

		changes, err = y.ApplyRemote(op)
		assert.NoError(t, err)
		assert.Empty(t, changes)
		assert.Equal(t, once, y.Snapshot())
		assert.Equal(t, x.Snapshot(), y.Snapshot())
		assert.True(t, x.VersionVector().Equal(y.VersionVector()))
	})

	t.Run("causal safety test", func(t *testing.T) {
		x := document.Seed("a")
		y := document.Seed("a")

		op1, _, err := x.ApplyLocal("x", document.InsertLines(1, "b"))
		require.NoError(t, err)
		op2, _, err := x.ApplyLocal("x", document.ReplaceLine(1, "b'"))
		require.NoError(t, err)

		assert.False(t, y.Ready(op2))
		_, err = y.ApplyRemote(op2)
		assert.ErrorIs(t, err, document.ErrMissingDependency)
		assert.Equal(t, "a", y.Snapshot())

		_, err = y.ApplyRemote(op1)
		assert.NoError(t, err)
		assert.Equal(t, "a\nb", y.Snapshot())

		changes, err := y.ApplyRemote(op2)
		assert.NoError(t, err)
		assert.Len(t, changes, 2)
		assert.Equal(t, "a\nb'", y.Snapshot())
	})

	t.Run("concurrent inserts at the same line test", func(t *testing.T) {
		x := document.Seed("hello", document.WithActor(actor(t, "000000000000000000000001")))
		y := document.Seed("hello", document.WithActor(actor(t, "000000000000000000000002")))

		opX, _, err := x.ApplyLocal("X", document.InsertLines(0, "X-edit"))
		require.NoError(t, err)
		opY, _, err := y.ApplyLocal("Y", document.InsertLines(0, "Y-edit"))
		require.NoError(t, err)

		_, err = x.ApplyRemote(opY)
		require.NoError(t, err)
		_, err = y.ApplyRemote(opX)
		require.NoError(t, err)

		assert.Equal(t, x.Snapshot(), y.Snapshot())
		assert.Equal(t, "Y-edit\nX-edit\nhello", x.Snapshot())
	})

	t.Run("concurrent replaces of different lines test", func(t *testing.T) {
		x := document.Seed("a\nb\nc")
		y := document.Seed("a\nb\nc")

		opX, _, err := x.ApplyLocal("X", document.ReplaceLine(0, "a'"))
		require.NoError(t, err)
		opY, _, err := y.ApplyLocal("Y", document.ReplaceLine(2, "c'"))
		require.NoError(t, err)

		_, err = x.ApplyRemote(opY)
		require.NoError(t, err)
		_, err = y.ApplyRemote(opX)
		require.NoError(t, err)

		assert.Equal(t, "a'\nb\nc'", x.Snapshot())
		assert.Equal(t, "a'\nb\nc'", y.Snapshot())
	})

	t.Run("missing from test", func(t *testing.T) {
		x := document.Seed("a", document.WithHistoryLimit(2))
		before := x.VersionVector()

		for i := 0; i < 3; i++ {
			_, _, err := x.ApplyLocal("x", document.InsertLines(0, "line"))
			require.NoError(t, err)
		}

		_, ok := x.MissingFrom(before)
		assert.False(t, ok, "history no longer holds the first operation")

		mid := time.VersionVector{x.Actor(): 1}
		ops, ok := x.MissingFrom(mid)
		assert.True(t, ok)
		assert.Len(t, ops, 2)
		assert.Equal(t, int64(2), ops[0].ID.Seq)

		ahead := time.VersionVector{x.Actor(): 9}
		_, ok = x.MissingFrom(ahead)
		assert.False(t, ok)

		ops, ok = x.MissingFrom(x.VersionVector())
		assert.True(t, ok)
		assert.Empty(t, ops)
	})

	t.Run("since diverged vector test", func(t *testing.T) {
		x := document.Seed("a\nb")
		y := document.Seed("a\nb")

		opX1, _, err := x.ApplyLocal("x", document.InsertLines(1, "x1"))
		require.NoError(t, err)
		_, err = y.ApplyRemote(opX1)
		require.NoError(t, err)
		opX2, _, err := x.ApplyLocal("x", document.InsertLines(2, "x2"))
		require.NoError(t, err)
		_, _, err = y.ApplyLocal("y", document.ReplaceLine(0, "A"))
		require.NoError(t, err)

		_, ok := x.MissingFrom(y.VersionVector())
		assert.False(t, ok, "y is ahead of x for its own actor")

		ops, ok := x.Since(y.VersionVector())
		require.True(t, ok)
		require.Len(t, ops, 1)
		assert.Equal(t, opX2.ID, ops[0].ID)

		_, err = y.ApplyRemote(ops[0])
		require.NoError(t, err)
		assert.Equal(t, "A\nx1\nx2\nb", y.Snapshot())
	})

	t.Run("export and restore test", func(t *testing.T) {
		x := document.Seed("a\nb")
		_, _, err := x.ApplyLocal("x", document.DeleteLines(0, 1))
		require.NoError(t, err)

		restored, err := document.Restore(x.Export())
		require.NoError(t, err)
		assert.Equal(t, x.Snapshot(), restored.Snapshot())
		assert.True(t, x.VersionVector().Equal(restored.VersionVector()))
		assert.NotEqual(t, x.Actor(), restored.Actor())

		op, _, err := restored.ApplyLocal("y", document.InsertLines(0, "c"))
		require.NoError(t, err)
		_, err = x.ApplyRemote(op)
		assert.NoError(t, err)
		assert.Equal(t, "c\nb", x.Snapshot())
	})
}

func TestDiff(t *testing.T) {
	t.Run("diff test", func(t *testing.T) {
		edit, ok := document.Diff("a\nb\nc", "a\nx\ny\nc")
		assert.True(t, ok)
		assert.Equal(t, document.Edit{From: 1, To: 2, Lines: []string{"x", "y"}}, edit)

		_, ok = document.Diff("a\nb", "a\nb")
		assert.False(t, ok)

		edit, ok = document.Diff("", "a")
		assert.True(t, ok)
		assert.Equal(t, 0, edit.From)
		assert.Equal(t, 0, edit.To)
		assert.Equal(t, []string{"a"}, edit.Lines)
	})

	t.Run("diff applies to replica test", func(t *testing.T) {
		r := document.Seed("one\ntwo\nthree")
		edit, ok := document.Diff(r.Snapshot(), "one\n2\nthree\nfour")
		require.True(t, ok)

		_, _, err := r.ApplyLocal("x", edit)
		assert.NoError(t, err)
		assert.Equal(t, "one\n2\nthree\nfour", r.Snapshot())
	})

	t.Run("single empty line test", func(t *testing.T) {
		r := document.Seed("a")
		_, _, err := r.ApplyLocal("x", document.ReplaceLine(0, ""))
		require.NoError(t, err)
		assert.Equal(t, "", r.Snapshot())
		assert.Equal(t, 1, r.LineCount())
		assert.Equal(t, []string{""}, r.Contents())
		assert.Equal(t, []string{}, document.Seed("").Contents())

		edit, ok := document.DiffLines(r.Contents(), document.SplitLines("hello"))
		require.True(t, ok)
		assert.Equal(t, document.Edit{From: 0, To: 1, Lines: []string{"hello"}}, edit)

		_, _, err = r.ApplyLocal("x", edit)
		require.NoError(t, err)
		assert.Equal(t, "hello", r.Snapshot())
		assert.Equal(t, 1, r.LineCount())

		edit, ok = document.DiffLines([]string{"a", "b"}, []string{"a"})
		require.True(t, ok)
		assert.Equal(t, document.Edit{From: 1, To: 2}, edit)
	})
}
