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

// Package pubsub provides the fan-out of a document to its connections.
// Every connection has a bounded queue of outbound messages. Publishing
// never blocks: a connection whose queue is full is closed with
// ErrConnectionOverloaded and has to reconnect.
package pubsub

import (
	"sync"

	"github.com/rs/xid"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/errors"
)

// ErrConnectionOverloaded is the reason a subscription is closed when its
// queue is full.
var ErrConnectionOverloaded = errors.ResourceExhausted("connection overloaded").WithCode("ErrConnectionOverloaded")

// Subscription is the outbound queue of one connection.
type Subscription struct {
	id          string
	contributor string

	mu     sync.Mutex
	closed bool
	err    error
	events chan *types.Message
}

// NewSubscription creates a new instance of Subscription with the given
// buffer size.
func NewSubscription(contributor string, bufSize int) *Subscription {
	return &Subscription{
		id:          xid.New().String(),
		contributor: contributor,
		events:      make(chan *types.Message, bufSize),
	}
}

// ID returns the id of this subscription.
func (s *Subscription) ID() string {
	return s.id
}

// Contributor returns the contributor of the connection.
func (s *Subscription) Contributor() string {
	return s.contributor
}

// Events returns the outbound queue. It is closed when the subscription is.
func (s *Subscription) Events() <-chan *types.Message {
	return s.events
}

// Err returns why the subscription was closed, nil if it was closed
// normally or is still open.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Publish enqueues the message without blocking. It returns false when the
// subscription is closed, or when the queue is full, in which case the
// subscription is closed with ErrConnectionOverloaded.
func (s *Subscription) Publish(msg *types.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.events <- msg:
		return true
	default:
		s.closeLocked(ErrConnectionOverloaded)
		return false
	}
}

// Close closes the subscription.
func (s *Subscription) Close() {
	s.CloseWithError(nil)
}

// CloseWithError closes the subscription with the given reason.
func (s *Subscription) CloseWithError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked(err)
}

func (s *Subscription) closeLocked(err error) {
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.events)
}
