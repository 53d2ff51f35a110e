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

package background_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/server/backend/background"
	"github.com/yorkie-team/sharenote/server/profiling/prometheus"
)

func TestBackground(t *testing.T) {
	t.Run("close waits for attached goroutines test", func(t *testing.T) {
		metrics, err := prometheus.NewMetrics()
		assert.NoError(t, err)
		bg := background.New(metrics)

		var done int32
		assert.True(t, bg.AttachGoroutine(func(ctx context.Context) {
			time.Sleep(50 * time.Millisecond)
			atomic.StoreInt32(&done, 1)
		}, "test"))

		bg.Close()
		assert.Equal(t, int32(1), atomic.LoadInt32(&done))

		assert.False(t, bg.AttachGoroutine(func(ctx context.Context) {}, "test"))
	})
}
