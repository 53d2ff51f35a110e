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

// Package messagebroker provides the message broker that shared document
// snapshots are published to.
package messagebroker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yorkie-team/sharenote/server/logging"
)

// Message represents a message that can be sent to the message broker.
type Message interface {
	// Key returns the partition key of the message.
	Key() []byte
	Marshal() ([]byte, error)
}

// SnapshotReason tells why a snapshot was published.
type SnapshotReason string

const (
	// ReasonCheckpoint is a snapshot published after a checkpoint.
	ReasonCheckpoint SnapshotReason = "checkpoint"

	// ReasonDeactivate is the final snapshot of a deactivated document.
	ReasonDeactivate SnapshotReason = "deactivate"
)

// SnapshotEventMessage carries the plain text of a shared document back to
// the storage of the note it was shared from.
type SnapshotEventMessage struct {
	EventID      string         `json:"event_id"`
	Token        string         `json:"token"`
	SourceKey    string         `json:"source_key"`
	Title        string         `json:"title"`
	Reason       SnapshotReason `json:"reason"`
	Text         string         `json:"text"`
	Contributors []string       `json:"contributors"`
	Timestamp    time.Time      `json:"timestamp"`
}

// NewSnapshotEventMessage creates a snapshot event with a new event id.
func NewSnapshotEventMessage(
	token, sourceKey, title string,
	reason SnapshotReason,
	text string,
	contributors []string,
	timestamp time.Time,
) SnapshotEventMessage {
	return SnapshotEventMessage{
		EventID:      ulid.Make().String(),
		Token:        token,
		SourceKey:    sourceKey,
		Title:        title,
		Reason:       reason,
		Text:         text,
		Contributors: contributors,
		Timestamp:    timestamp,
	}
}

// Key returns the token so that the snapshots of a document stay ordered.
func (m SnapshotEventMessage) Key() []byte {
	return []byte(m.Token)
}

// Marshal marshals the snapshot event message to JSON.
func (m SnapshotEventMessage) Marshal() ([]byte, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	return encoded, nil
}

// Broker is an interface for the message broker.
type Broker interface {
	Produce(ctx context.Context, msg Message) error
	Close() error
}

// Ensure creates a message broker based on the given configuration.
// If the configuration is nil or invalid, it returns DummyBroker, allowing
// callers to use the broker without nil checks.
func Ensure(kafkaConf *Config) Broker {
	if kafkaConf == nil {
		return &DummyBroker{}
	}

	if err := kafkaConf.Validate(); err != nil {
		logging.DefaultLogger().Warnf("invalid kafka configuration: %v", err)
		return &DummyBroker{}
	}

	logging.DefaultLogger().Infof(
		"connecting to kafka: %s, topic: %s",
		kafkaConf.Addresses,
		kafkaConf.Topic,
	)

	return newKafkaBroker(kafkaConf)
}
