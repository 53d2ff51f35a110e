/*
 * Copyright 2022 The Yorkie Authors. All rights reserved.
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

package housekeeping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yorkie-team/sharenote/server/logging"
)

// Task is a unit of housekeeping work.
type Task func(ctx context.Context) error

// Housekeeping is the housekeeping service. It periodically runs the
// registered tasks one after another.
type Housekeeping struct {
	interval    time.Duration
	taskTimeout time.Duration

	mu    sync.Mutex
	names []string
	tasks map[string]Task

	ctx        context.Context
	cancelFunc context.CancelFunc
	started    bool
	done       chan struct{}
}

// New creates a new housekeeping instance.
func New(conf *Config) (*Housekeeping, error) {
	interval, err := conf.ParseInterval()
	if err != nil {
		return nil, err
	}
	taskTimeout, err := conf.ParseTaskTimeout()
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())

	return &Housekeeping{
		interval:    interval,
		taskTimeout: taskTimeout,
		tasks:       make(map[string]Task),
		ctx:         ctx,
		cancelFunc:  cancelFunc,
		done:        make(chan struct{}),
	}, nil
}

// RegisterTask registers a task that runs on every housekeeping run.
func (h *Housekeeping) RegisterTask(name string, task Task) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.tasks[name]; ok {
		return fmt.Errorf("register task %s: already registered", name)
	}
	h.names = append(h.names, name)
	h.tasks[name] = task
	return nil
}

// Start starts the housekeeping service.
func (h *Housekeeping) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return nil
	}
	h.started = true
	go h.run()
	return nil
}

// Stop stops the housekeeping service and waits for the running task.
func (h *Housekeeping) Stop() error {
	h.mu.Lock()
	started := h.started
	h.mu.Unlock()

	h.cancelFunc()
	if started {
		<-h.done
	}

	return nil
}

// run is the housekeeping loop.
func (h *Housekeeping) run() {
	defer close(h.done)

	for {
		select {
		case <-time.After(h.interval):
		case <-h.ctx.Done():
			return
		}

		h.RunOnce(h.ctx)
	}
}

// RunOnce runs every registered task once.
func (h *Housekeeping) RunOnce(ctx context.Context) {
	h.mu.Lock()
	names := append([]string(nil), h.names...)
	h.mu.Unlock()

	for _, name := range names {
		h.mu.Lock()
		task := h.tasks[name]
		h.mu.Unlock()

		start := time.Now()
		taskCtx, cancel := context.WithTimeout(ctx, h.taskTimeout)
		err := task(taskCtx)
		cancel()
		if err != nil {
			logging.From(ctx).Errorf("HSKP: %s: %v", name, err)
			continue
		}

		if elapsed := time.Since(start); elapsed > h.interval {
			logging.From(ctx).Warnf("HSKP: %s took %s, longer than the interval", name, elapsed)
		}
	}
}
