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

package time_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/pkg/document/time"
)

func TestVersionVector(t *testing.T) {
	a, _ := time.ActorIDFromHex("000000000000000000000001")
	b, _ := time.ActorIDFromHex("000000000000000000000002")

	t.Run("covers test", func(t *testing.T) {
		v1 := time.VersionVector{a: 3, b: 1}
		v2 := time.VersionVector{a: 2}

		assert.True(t, v1.Covers(v2))
		assert.False(t, v2.Covers(v1))
		assert.True(t, v1.Covers(time.NewVersionVector()))
		assert.False(t, v1.Equal(v2))
		assert.True(t, v1.Equal(v1.DeepCopy()))
	})

	t.Run("max and diff test", func(t *testing.T) {
		v1 := time.VersionVector{a: 3}
		v2 := time.VersionVector{a: 1, b: 4}

		assert.Equal(t, int64(2), v1.Diff(v2))
		assert.Equal(t, int64(4), v2.Diff(v1))

		v1.Max(v2)
		assert.Equal(t, int64(3), v1.VersionOf(a))
		assert.Equal(t, int64(4), v1.VersionOf(b))
	})

	t.Run("marshal test", func(t *testing.T) {
		v := time.VersionVector{b: 2, a: 1}
		assert.Equal(t, "{000000000000000000000001:1,000000000000000000000002:2}", v.Marshal())

		data, err := json.Marshal(v)
		assert.NoError(t, err)

		decoded := time.NewVersionVector()
		assert.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, v.Equal(decoded))
	})
}

func TestTicket(t *testing.T) {
	a, _ := time.ActorIDFromHex("000000000000000000000001")
	b, _ := time.ActorIDFromHex("000000000000000000000002")

	t.Run("compare test", func(t *testing.T) {
		assert.True(t, time.NewTicket(2, 0, a).After(time.NewTicket(1, 5, b)))
		assert.True(t, time.NewTicket(1, 0, b).After(time.NewTicket(1, 5, a)))
		assert.True(t, time.NewTicket(1, 2, a).After(time.NewTicket(1, 1, a)))
		assert.Equal(t, 0, time.NewTicket(1, 1, a).Compare(time.NewTicket(1, 1, a)))
	})

	t.Run("actor id test", func(t *testing.T) {
		id := time.NewActorID()
		decoded, err := time.ActorIDFromHex(id.String())
		assert.NoError(t, err)
		assert.Equal(t, id, decoded)

		_, err = time.ActorIDFromHex("zz")
		assert.ErrorIs(t, err, time.ErrInvalidHexString)

		_, err = time.ActorIDFromBytes([]byte{1, 2})
		assert.ErrorIs(t, err, time.ErrInvalidActorID)
	})
}
