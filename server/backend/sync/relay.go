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

// Package sync relays the operations of shared documents between server
// instances, so that connections of the same document attached to different
// instances converge.
package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yorkie-team/sharenote/pkg/document/operation"
)

// Handler receives an operation relayed from another instance.
type Handler func(op *operation.Operation)

// Unsubscribe stops the delivery to a handler.
type Unsubscribe func()

// Relay publishes the operations accepted by this instance and delivers the
// operations of other instances. Delivery is best effort: operations may be
// dropped or duplicated, never altered.
type Relay interface {
	// Publish publishes an operation of the document to other instances.
	Publish(ctx context.Context, token string, op *operation.Operation) error

	// Subscribe delivers the operations other instances publish for the
	// document to handler.
	Subscribe(ctx context.Context, token string, handler Handler) (Unsubscribe, error)

	// Close closes the relay.
	Close() error
}

// Envelope is an operation on the relay along with its origin instance.
type Envelope struct {
	Origin string               `json:"origin"`
	Token  string               `json:"token"`
	Op     *operation.Operation `json:"op"`
}

// Marshal encodes the envelope.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// UnmarshalEnvelope decodes an envelope.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	e := &Envelope{}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if e.Op == nil {
		return nil, fmt.Errorf("unmarshal envelope: missing operation")
	}
	return e, nil
}
