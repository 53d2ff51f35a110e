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

// Package cmap provides a sharded concurrent map keyed by strings. Writers
// to different shards never contend, so unrelated documents and connections
// do not serialize each other.
package cmap

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const numShards = 32

type shard[V any] struct {
	sync.RWMutex
	items map[string]V
}

// Map is a concurrent map that is safe for multiple goroutines.
type Map[K ~string, V any] struct {
	shards [numShards]shard[V]
}

// New creates a new Map.
func New[K ~string, V any]() *Map[K, V] {
	m := &Map[K, V]{}
	for i := 0; i < numShards; i++ {
		m.shards[i].items = make(map[string]V)
	}
	return m
}

func (m *Map[K, V]) shardFor(key K) *shard[V] {
	return &m.shards[xxhash.Sum64String(string(key))%numShards]
}

// Set sets a key-value pair.
func (m *Map[K, V]) Set(key K, value V) {
	s := m.shardFor(key)
	s.Lock()
	defer s.Unlock()

	s.items[string(key)] = value
}

// Get retrieves a value from the map.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.shardFor(key)
	s.RLock()
	defer s.RUnlock()

	value, ok := s.items[string(key)]
	return value, ok
}

// GetOrInsert returns the value of the key if present. Otherwise it stores
// the value returned by create and returns it. The second result reports
// whether the value was inserted by this call. create runs under the shard
// lock and must not block.
func (m *Map[K, V]) GetOrInsert(key K, create func() V) (V, bool) {
	s := m.shardFor(key)
	s.Lock()
	defer s.Unlock()

	if value, ok := s.items[string(key)]; ok {
		return value, false
	}

	value := create()
	s.items[string(key)] = value
	return value, true
}

// Upsert inserts or updates the value of the key with the result of fn.
func (m *Map[K, V]) Upsert(key K, fn func(value V, exists bool) V) V {
	s := m.shardFor(key)
	s.Lock()
	defer s.Unlock()

	value, ok := s.items[string(key)]
	res := fn(value, ok)
	s.items[string(key)] = res
	return res
}

// DeleteIf removes the value of the key when pred reports true for it. It
// returns whether the value was removed.
func (m *Map[K, V]) DeleteIf(key K, pred func(value V) bool) bool {
	s := m.shardFor(key)
	s.Lock()
	defer s.Unlock()

	value, ok := s.items[string(key)]
	if !ok || !pred(value) {
		return false
	}

	delete(s.items, string(key))
	return true
}

// Delete removes the key from the map.
func (m *Map[K, V]) Delete(key K) {
	m.DeleteIf(key, func(V) bool { return true })
}

// Len returns the number of items in the map.
func (m *Map[K, V]) Len() int {
	count := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.RLock()
		count += len(s.items)
		s.RUnlock()
	}
	return count
}

// Keys returns all keys in the map.
func (m *Map[K, V]) Keys() []K {
	var keys []K
	for i := range m.shards {
		s := &m.shards[i]
		s.RLock()
		for k := range s.items {
			keys = append(keys, K(k))
		}
		s.RUnlock()
	}
	return keys
}

// Values returns all values in the map.
func (m *Map[K, V]) Values() []V {
	var values []V
	for i := range m.shards {
		s := &m.shards[i]
		s.RLock()
		for _, v := range s.items {
			values = append(values, v)
		}
		s.RUnlock()
	}
	return values
}
