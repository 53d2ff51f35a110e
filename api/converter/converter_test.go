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

package converter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/sharenote/api/converter"
	"github.com/yorkie-team/sharenote/pkg/attribution"
	"github.com/yorkie-team/sharenote/pkg/document"
)

func TestConverter(t *testing.T) {
	t.Run("restored replica keeps converging test", func(t *testing.T) {
		origin := document.Seed("a\nb\nc")
		_, _, err := origin.ApplyLocal("x", document.ReplaceLine(1, "b'"))
		require.NoError(t, err)
		_, _, err = origin.ApplyLocal("x", document.DeleteLines(0, 1))
		require.NoError(t, err)

		bytes, err := converter.ReplicaToBytes(origin.Export())
		require.NoError(t, err)
		state, err := converter.BytesToReplica(bytes)
		require.NoError(t, err)
		restored, err := document.Restore(state)
		require.NoError(t, err)

		assert.Equal(t, origin.Snapshot(), restored.Snapshot())
		assert.True(t, origin.VersionVector().Equal(restored.VersionVector()))
		assert.Equal(t, attribution.Rebuild(origin).Entries(), attribution.Rebuild(restored).Entries())

		ops, ok := restored.MissingFrom(document.Seed("").VersionVector())
		assert.True(t, ok)
		assert.Len(t, ops, 2)

		op, _, err := restored.ApplyLocal("y", document.InsertLines(2, "d"))
		require.NoError(t, err)
		_, err = origin.ApplyRemote(op)
		assert.NoError(t, err)
		assert.Equal(t, "b'\nc\nd", origin.Snapshot())
	})

	t.Run("attribution test", func(t *testing.T) {
		r := document.Seed("a\nb")
		_, _, err := r.ApplyLocal("x", document.ReplaceLine(0, "a'"))
		require.NoError(t, err)
		table := attribution.Rebuild(r)

		bytes, err := converter.AttributionToBytes(table)
		require.NoError(t, err)
		decoded, err := converter.BytesToAttribution(bytes)
		require.NoError(t, err)
		assert.Equal(t, table.Entries(), decoded.Entries())
	})

	t.Run("corruption test", func(t *testing.T) {
		bytes, err := converter.ReplicaToBytes(document.Seed("a").Export())
		require.NoError(t, err)
		checksum := converter.Checksum(bytes)
		assert.NoError(t, converter.VerifyChecksum(bytes, checksum))

		bytes[len(bytes)/2] ^= 0xff
		assert.ErrorIs(t, converter.VerifyChecksum(bytes, checksum), converter.ErrStorageCorruption)

		_, err = converter.BytesToReplica([]byte("not bson"))
		assert.ErrorIs(t, err, converter.ErrStorageCorruption)
		_, err = converter.BytesToAttribution(nil)
		assert.ErrorIs(t, err, converter.ErrStorageCorruption)
	})
}
