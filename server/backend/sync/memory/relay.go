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

// Package memory provides an in-process relay. Servers sharing a Bus relay
// operations to each other, which is what tests of multiple instances use.
package memory

import (
	"context"
	gosync "sync"

	"github.com/rs/xid"

	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/server/backend/sync"
	"github.com/yorkie-team/sharenote/server/logging"
)

const subscriptionBufferSize = 1024

type subscription struct {
	id      string
	origin  string
	handler sync.Handler

	mu     gosync.Mutex
	closed bool
	ops    chan *operation.Operation
}

func (s *subscription) deliver(op *operation.Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.ops <- op:
	default:
		logging.DefaultLogger().Warnf("relay: drop %s for slow subscription %s", op.ID, s.id)
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ops)
	}
}

// Bus connects the relays of servers in one process.
type Bus struct {
	mu   gosync.RWMutex
	subs map[string]map[string]*subscription
}

// NewBus creates a new instance of Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[string]*subscription)}
}

// Relay returns the relay of the instance named origin.
func (b *Bus) Relay(origin string) *Relay {
	return &Relay{bus: b, origin: origin}
}

// Relay is the relay of one instance on a Bus.
type Relay struct {
	bus    *Bus
	origin string
}

// Publish delivers the operation to the subscriptions of other instances.
func (r *Relay) Publish(_ context.Context, token string, op *operation.Operation) error {
	r.bus.mu.RLock()
	defer r.bus.mu.RUnlock()

	for _, sub := range r.bus.subs[token] {
		if sub.origin == r.origin {
			continue
		}
		sub.deliver(op)
	}
	return nil
}

// Subscribe delivers the operations of other instances to handler, in the
// order they were published.
func (r *Relay) Subscribe(_ context.Context, token string, handler sync.Handler) (sync.Unsubscribe, error) {
	sub := &subscription{
		id:      xid.New().String(),
		origin:  r.origin,
		handler: handler,
		ops:     make(chan *operation.Operation, subscriptionBufferSize),
	}

	r.bus.mu.Lock()
	if _, ok := r.bus.subs[token]; !ok {
		r.bus.subs[token] = make(map[string]*subscription)
	}
	r.bus.subs[token][sub.id] = sub
	r.bus.mu.Unlock()

	go func() {
		for op := range sub.ops {
			sub.handler(op)
		}
	}()

	return func() {
		r.bus.mu.Lock()
		delete(r.bus.subs[token], sub.id)
		if len(r.bus.subs[token]) == 0 {
			delete(r.bus.subs, token)
		}
		r.bus.mu.Unlock()
		sub.close()
	}, nil
}

// Close does nothing. Subscriptions are closed by their Unsubscribe.
func (r *Relay) Close() error {
	return nil
}
