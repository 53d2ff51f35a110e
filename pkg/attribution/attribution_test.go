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

package attribution_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/sharenote/pkg/attribution"
	"github.com/yorkie-team/sharenote/pkg/document"
	"github.com/yorkie-team/sharenote/pkg/document/operation"
)

// peer is a replica with its incrementally maintained table.
type peer struct {
	replica *document.Replica
	table   *attribution.Table
}

func newPeer(seed string) *peer {
	r := document.Seed(seed)
	return &peer{replica: r, table: attribution.Rebuild(r)}
}

func (p *peer) edit(t *testing.T, contributor string, edit document.Edit) *operation.Operation {
	op, changes, err := p.replica.ApplyLocal(contributor, edit)
	require.NoError(t, err)
	require.NoError(t, p.table.Update(op, changes))
	return op
}

// deliver applies ops in the given order, buffering the ones whose
// dependencies are missing until they become ready.
func (p *peer) deliver(t *testing.T, ops []*operation.Operation) {
	pending := append([]*operation.Operation(nil), ops...)
	for progress := true; progress && len(pending) > 0; {
		progress = false
		var next []*operation.Operation
		for _, op := range pending {
			changes, err := p.replica.ApplyRemote(op)
			if errors.Is(err, document.ErrMissingDependency) {
				next = append(next, op)
				continue
			}
			require.NoError(t, err)
			require.NoError(t, p.table.Update(op, changes))
			progress = true
		}
		pending = next
	}
	require.Empty(t, pending)
}

func contributors(table *attribution.Table) []string {
	var names []string
	for _, e := range table.Entries() {
		names = append(names, e.Contributor)
	}
	return names
}

func permutations(ops []*operation.Operation) [][]*operation.Operation {
	if len(ops) <= 1 {
		return [][]*operation.Operation{ops}
	}

	var result [][]*operation.Operation
	for i := range ops {
		rest := make([]*operation.Operation, 0, len(ops)-1)
		rest = append(rest, ops[:i]...)
		rest = append(rest, ops[i+1:]...)
		for _, p := range permutations(rest) {
			result = append(result, append([]*operation.Operation{ops[i]}, p...))
		}
	}
	return result
}

func TestTable(t *testing.T) {
	t.Run("seed attribution test", func(t *testing.T) {
		p := newPeer("a\nb\nc")
		assert.Equal(t, []string{"owner", "owner", "owner"}, contributors(p.table))
	})

	t.Run("update test", func(t *testing.T) {
		p := newPeer("a\nb\nc")

		p.edit(t, "x", document.ReplaceLine(1, "b'"))
		assert.Equal(t, []string{"owner", "x", "owner"}, contributors(p.table))

		p.edit(t, "y", document.InsertLines(0, "y1", "y2"))
		assert.Equal(t, []string{"y", "y", "owner", "x", "owner"}, contributors(p.table))

		p.edit(t, "z", document.DeleteLines(3, 5))
		assert.Equal(t, []string{"y", "y", "owner"}, contributors(p.table))
		assert.Equal(t, p.replica.LineCount(), p.table.Len())
	})

	t.Run("unresolved lines test", func(t *testing.T) {
		p := newPeer("a")
		op := &operation.Operation{Contributor: "x"}

		err := p.table.Update(op, []document.Change{
			{Type: document.LineInserted, Index: 0},
			{Type: document.LineRemoved, Index: 5},
		})
		assert.ErrorIs(t, err, attribution.ErrUnresolvedLines)
		assert.Equal(t, []string{"owner"}, contributors(p.table))
	})

	t.Run("attribution locality test", func(t *testing.T) {
		p := newPeer("a\nb\nc\nd\ne")
		other := newPeer("a\nb\nc\nd\ne")

		remote := other.edit(t, "y", document.ReplaceLine(4, "e'"))
		p.deliver(t, []*operation.Operation{remote})
		before := p.table.Entries()

		op, changes, err := p.replica.ApplyLocal("x", document.ReplaceLine(1, "b'"))
		require.NoError(t, err)
		require.NoError(t, p.table.Update(op, changes))

		after := p.table.Entries()
		require.Len(t, after, len(before))
		for i := range before {
			if i == 1 {
				assert.Equal(t, "x", after[i].Contributor)
				continue
			}
			assert.Equal(t, before[i], after[i])
		}
	})

	t.Run("incremental table matches rebuild test", func(t *testing.T) {
		x, y := newPeer("a\nb\nc"), newPeer("a\nb\nc")

		opX := x.edit(t, "x", document.InsertLines(1, "x1", "x2"))
		opY := y.edit(t, "y", document.DeleteLines(0, 2))
		x.deliver(t, []*operation.Operation{opY})
		y.deliver(t, []*operation.Operation{opX})

		assert.Equal(t, attribution.Rebuild(x.replica).Entries(), x.table.Entries())
		assert.Equal(t, attribution.Rebuild(y.replica).Entries(), y.table.Entries())
		assert.Equal(t, x.table.Entries(), y.table.Entries())
	})
}

func TestConvergence(t *testing.T) {
	t.Run("every delivery order converges test", func(t *testing.T) {
		const seed = "a\nb\nc\nd"
		x, y, z := newPeer(seed), newPeer(seed), newPeer(seed)

		opX1 := x.edit(t, "x", document.ReplaceLine(0, "a'"))
		opX2 := x.edit(t, "x", document.InsertLines(1, "after a'"))
		opY := y.edit(t, "y", document.ReplaceLine(3, "d'"))
		opZ := z.edit(t, "z", document.InsertLines(0, "top"))
		ops := []*operation.Operation{opX1, opX2, opY, opZ}

		var snapshot string
		var table []attribution.Entry
		for i, order := range permutations(ops) {
			p := newPeer(seed)
			p.deliver(t, order)

			if i == 0 {
				snapshot = p.replica.Snapshot()
				table = p.table.Entries()
				continue
			}
			assert.Equal(t, snapshot, p.replica.Snapshot())
			assert.Equal(t, table, p.table.Entries())
		}

		assert.Equal(t, "top\na'\nafter a'\nb\nc\nd'", snapshot)
		assert.Equal(t, []string{"z", "x", "x", "owner", "owner", "y"}, contributors(attribution.New(table)))
	})

	t.Run("duplicate delivery converges test", func(t *testing.T) {
		x, y := newPeer("hello"), newPeer("hello")
		op := x.edit(t, "x", document.InsertLines(1, "world"))

		y.deliver(t, []*operation.Operation{op, op, op})
		assert.Equal(t, x.replica.Snapshot(), y.replica.Snapshot())
		assert.Equal(t, x.table.Entries(), y.table.Entries())
	})
}
