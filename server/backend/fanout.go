/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
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

package backend

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// fanOut bounds the number of document tasks run at once across the
// server.
type fanOut struct {
	semaphore *semaphore.Weighted
}

func newFanOut(maxConcurrency int64) *fanOut {
	return &fanOut{
		semaphore: semaphore.NewWeighted(maxConcurrency),
	}
}

// FanOut runs fn for every task concurrently, at most
// Config.CheckpointConcurrency at a time, and collects their results. It
// returns the results of the tasks that succeeded with the first error.
func FanOut[K comparable, V any, R any](
	ctx context.Context,
	be *Backend,
	tasks map[K]V,
	fn func(ctx context.Context, key K, value V) ([]R, error),
) ([]R, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	type result struct {
		values []R
		err    error
	}

	resultCh := make(chan result, len(tasks))

	var wg sync.WaitGroup
	for k, v := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := be.fanOut.semaphore.Acquire(ctx, 1); err != nil {
				resultCh <- result{err: err}
				return
			}
			defer be.fanOut.semaphore.Release(1)

			values, err := fn(ctx, k, v)
			resultCh <- result{values: values, err: err}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var collected []R
	var firstErr error
	for res := range resultCh {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		collected = append(collected, res.values...)
	}

	return collected, firstErr
}
