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
package housekeeping_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/server/backend/housekeeping"
)

func TestHousekeeping(t *testing.T) {
	t.Run("run registered tasks test", func(t *testing.T) {
		h, err := housekeeping.New(&housekeeping.Config{Interval: "10ms", TaskTimeout: "1s"})
		assert.NoError(t, err)

		var first, second int32
		assert.NoError(t, h.RegisterTask("first", func(ctx context.Context) error {
			atomic.AddInt32(&first, 1)
			return errors.New("failing task does not stop the others")
		}))
		assert.NoError(t, h.RegisterTask("second", func(ctx context.Context) error {
			atomic.AddInt32(&second, 1)
			return nil
		}))
		assert.Error(t, h.RegisterTask("second", func(ctx context.Context) error { return nil }))

		assert.NoError(t, h.Start())
		assert.Eventually(t, func() bool {
			return atomic.LoadInt32(&first) >= 2 && atomic.LoadInt32(&second) >= 2
		}, time.Second, 10*time.Millisecond)
		assert.NoError(t, h.Stop())
	})

	t.Run("task timeout test", func(t *testing.T) {
		h, err := housekeeping.New(&housekeeping.Config{Interval: "1h", TaskTimeout: "10ms"})
		assert.NoError(t, err)

		var deadline bool
		assert.NoError(t, h.RegisterTask("slow", func(ctx context.Context) error {
			<-ctx.Done()
			deadline = errors.Is(ctx.Err(), context.DeadlineExceeded)
			return ctx.Err()
		}))

		h.RunOnce(context.Background())
		assert.True(t, deadline)
	})
}
