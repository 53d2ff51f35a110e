/*
 * Copyright 2025 The Yorkie Authors. All rights reserved.
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

// Package sink pushes the plain text of shared documents back to the storage
// of the notes they were shared from.
package sink

import (
	"context"
	"errors"
	"time"

	"github.com/yorkie-team/sharenote/server/backend/messagebroker"
)

// Snapshot is the plain text of a shared document at a checkpoint.
type Snapshot struct {
	Token        string
	SourceKey    string
	Title        string
	Reason       messagebroker.SnapshotReason
	Text         string
	Contributors []string
	At           time.Time
}

// Sink receives snapshots of shared documents.
type Sink interface {
	Push(ctx context.Context, snapshot *Snapshot) error
}

// Multi pushes snapshots to every sink it holds.
type Multi []Sink

// Push pushes the snapshot to every sink and joins their errors.
func (m Multi) Push(ctx context.Context, snapshot *Snapshot) error {
	var errs []error
	for _, s := range m {
		if err := s.Push(ctx, snapshot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Broker publishes snapshots as events to a message broker.
type Broker struct {
	broker messagebroker.Broker
}

// NewBroker creates a sink publishing to the given broker.
func NewBroker(broker messagebroker.Broker) *Broker {
	return &Broker{broker: broker}
}

// Push publishes the snapshot.
func (b *Broker) Push(ctx context.Context, snapshot *Snapshot) error {
	return b.broker.Produce(ctx, messagebroker.NewSnapshotEventMessage(
		snapshot.Token,
		snapshot.SourceKey,
		snapshot.Title,
		snapshot.Reason,
		snapshot.Text,
		snapshot.Contributors,
		snapshot.At,
	))
}
