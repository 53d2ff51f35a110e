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

package redis_test

import (
	"context"
	"os"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/pkg/document/time"
	"github.com/yorkie-team/sharenote/server/backend/sync/redis"
)

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		conf := &redis.Config{Address: "localhost:6379", DialTimeout: "5s"}
		assert.NoError(t, conf.Validate())

		conf.DialTimeout = "5"
		assert.Error(t, conf.Validate())

		conf.Address = ""
		assert.ErrorIs(t, conf.Validate(), redis.ErrEmptyAddress)
	})
}

func TestRelay(t *testing.T) {
	addr := os.Getenv("SHARENOTE_REDIS_ADDR")
	if addr == "" {
		t.Skip("SHARENOTE_REDIS_ADDR is not set")
	}

	t.Run("relay between instances test", func(t *testing.T) {
		ctx := context.Background()
		conf := &redis.Config{Address: addr, DialTimeout: "5s", Prefix: "sharenote-test:" + t.Name() + ":"}

		r1, err := redis.Dial(ctx, conf, "server-1")
		assert.NoError(t, err)
		defer func() { assert.NoError(t, r1.Close()) }()
		r2, err := redis.Dial(ctx, conf, "server-2")
		assert.NoError(t, err)
		defer func() { assert.NoError(t, r2.Close()) }()

		received := make(chan *operation.Operation, 1)
		unsub, err := r2.Subscribe(ctx, "t1", func(op *operation.Operation) { received <- op })
		assert.NoError(t, err)
		defer unsub()

		op := &operation.Operation{
			ID:          operation.ID{Actor: time.NewActorID(), Seq: 1, Lamport: 1},
			Contributor: "alice",
			Lines:       []string{"hello"},
		}
		assert.NoError(t, r1.Publish(ctx, "t1", op))

		select {
		case got := <-received:
			assert.Equal(t, op.ID, got.ID)
			assert.Equal(t, op.Lines, got.Lines)
		case <-gotime.After(5 * gotime.Second):
			t.Fatal("relayed operation not received")
		}
	})
}
