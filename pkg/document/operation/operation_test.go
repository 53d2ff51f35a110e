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

package operation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/pkg/document/time"
)

func TestOperation(t *testing.T) {
	actor := time.NewActorID()

	t.Run("validate test", func(t *testing.T) {
		op := &operation.Operation{
			ID:          operation.ID{Actor: actor, Seq: 1, Lamport: 1},
			Contributor: "alice",
			Deps:        time.NewVersionVector(),
			Lines:       []string{"hello"},
		}
		assert.NoError(t, op.Validate())

		op.Lines = []string{"a\nb"}
		assert.ErrorIs(t, op.Validate(), operation.ErrInvalidOperation)

		op.Lines = nil
		assert.ErrorIs(t, op.Validate(), operation.ErrInvalidOperation)
	})

	t.Run("deps must include own previous sequence test", func(t *testing.T) {
		op := &operation.Operation{
			ID:          operation.ID{Actor: actor, Seq: 3, Lamport: 7},
			Contributor: "alice",
			Deps:        time.VersionVector{actor: 1},
			Lines:       []string{"x"},
		}
		assert.ErrorIs(t, op.Validate(), operation.ErrInvalidOperation)

		op.Deps.Set(actor, 2)
		assert.NoError(t, op.Validate())
	})

	t.Run("ticket test", func(t *testing.T) {
		id := operation.ID{Actor: actor, Seq: 1, Lamport: 4}
		assert.Equal(t, time.NewTicket(4, 2, actor), id.Ticket(2))
		assert.True(t, id.Ticket(1).After(id.Ticket(0)))
	})
}
