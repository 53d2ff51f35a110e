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

package pubsub

import (
	"sort"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/cmap"
)

// Subscriptions is the set of connections of a document.
type Subscriptions struct {
	internalMap *cmap.Map[string, *Subscription]
}

// New creates an empty set of subscriptions.
func New() *Subscriptions {
	return &Subscriptions{
		internalMap: cmap.New[string, *Subscription](),
	}
}

// Add adds the subscription.
func (s *Subscriptions) Add(sub *Subscription) {
	s.internalMap.Set(sub.ID(), sub)
}

// Get returns the subscription of the given id.
func (s *Subscriptions) Get(id string) (*Subscription, bool) {
	return s.internalMap.Get(id)
}

// Remove removes and closes the subscription of the given id. It returns
// false if there was no such subscription.
func (s *Subscriptions) Remove(id string) (*Subscription, bool) {
	var removed *Subscription
	ok := s.internalMap.DeleteIf(id, func(sub *Subscription) bool {
		removed = sub
		return true
	})
	if ok {
		removed.Close()
	}
	return removed, ok
}

// Len returns the number of subscriptions.
func (s *Subscriptions) Len() int {
	return s.internalMap.Len()
}

// Values returns the subscriptions ordered by id, which is the order they
// were created in.
func (s *Subscriptions) Values() []*Subscription {
	values := s.internalMap.Values()
	sort.Slice(values, func(i, j int) bool {
		return values[i].ID() < values[j].ID()
	})
	return values
}

// ActiveCount returns the number of subscriptions of the contributor.
func (s *Subscriptions) ActiveCount(contributor string) int {
	count := 0
	for _, sub := range s.internalMap.Values() {
		if sub.Contributor() == contributor {
			count++
		}
	}
	return count
}

// Publish enqueues the message on every subscription except the one of
// exclude. It returns the subscriptions that were closed because they could
// not keep up. They are still in the set.
func (s *Subscriptions) Publish(msg *types.Message, exclude string) []*Subscription {
	var overloaded []*Subscription
	for _, sub := range s.Values() {
		if sub.ID() == exclude {
			continue
		}
		if !sub.Publish(msg) && sub.Err() != nil {
			overloaded = append(overloaded, sub)
		}
	}
	return overloaded
}

// SendTo enqueues the message on the subscription of the given id. It
// returns false if the subscription is missing or could not take the
// message.
func (s *Subscriptions) SendTo(id string, msg *types.Message) bool {
	sub, ok := s.internalMap.Get(id)
	if !ok {
		return false
	}
	return sub.Publish(msg)
}

// Close closes every subscription and empties the set.
func (s *Subscriptions) Close() {
	for _, sub := range s.internalMap.Values() {
		s.internalMap.Delete(sub.ID())
		sub.Close()
	}
}
