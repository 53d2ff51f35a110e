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

package pubsub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/server/backend/pubsub"
)

func TestPubSub(t *testing.T) {
	t.Run("publish excludes origin test", func(t *testing.T) {
		subs := pubsub.New()
		subA := pubsub.NewSubscription("alice", 4)
		subB := pubsub.NewSubscription("bob", 4)
		subs.Add(subA)
		subs.Add(subB)

		msg := &types.Message{Type: types.Peers, Count: 2}
		assert.Empty(t, subs.Publish(msg, subA.ID()))

		assert.Len(t, subB.Events(), 1)
		assert.Len(t, subA.Events(), 0)
		assert.Equal(t, msg, <-subB.Events())
	})

	t.Run("overloaded subscription is closed test", func(t *testing.T) {
		subs := pubsub.New()
		slow := pubsub.NewSubscription("slow", 2)
		fast := pubsub.NewSubscription("fast", 16)
		subs.Add(slow)
		subs.Add(fast)

		var overloaded []*pubsub.Subscription
		for i := 0; i < 3; i++ {
			overloaded = append(overloaded, subs.Publish(&types.Message{Type: types.Saved}, "")...)
		}

		assert.Len(t, overloaded, 1)
		assert.Equal(t, slow.ID(), overloaded[0].ID())
		assert.ErrorIs(t, slow.Err(), pubsub.ErrConnectionOverloaded)
		assert.NoError(t, fast.Err())
		assert.Len(t, fast.Events(), 3)

		// the queued messages are still delivered before the queue closes
		count := 0
		for range slow.Events() {
			count++
		}
		assert.Equal(t, 2, count)

		assert.False(t, slow.Publish(&types.Message{Type: types.Saved}))
	})

	t.Run("remove and active count test", func(t *testing.T) {
		subs := pubsub.New()
		a1 := pubsub.NewSubscription("alice", 1)
		a2 := pubsub.NewSubscription("alice", 1)
		subs.Add(a1)
		subs.Add(a2)
		assert.Equal(t, 2, subs.ActiveCount("alice"))

		removed, ok := subs.Remove(a1.ID())
		assert.True(t, ok)
		assert.Equal(t, a1, removed)
		_, ok = subs.Remove(a1.ID())
		assert.False(t, ok)

		_, open := <-a1.Events()
		assert.False(t, open)
		assert.NoError(t, a1.Err())
		assert.Equal(t, 1, subs.ActiveCount("alice"))
		assert.Equal(t, 1, subs.Len())

		assert.True(t, subs.SendTo(a2.ID(), &types.Message{Type: types.Saved}))
		assert.False(t, subs.SendTo(a1.ID(), &types.Message{Type: types.Saved}))

		subs.Close()
		assert.Equal(t, 0, subs.Len())
	})
}
