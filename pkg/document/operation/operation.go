/*
 * Copyright 2020 The Yorkie Authors. All rights reserved.
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

// Package operation provides the unit of change that replicas exchange.
package operation

import (
	"errors"
	"fmt"
	"strings"
	gotime "time"

	"github.com/yorkie-team/sharenote/pkg/document/time"
)

// ErrInvalidOperation is returned when an operation is malformed.
var ErrInvalidOperation = errors.New("invalid operation")

// ID identifies an operation. Seq is unique and contiguous per actor, and
// Lamport orders the line elements the operation creates.
type ID struct {
	Actor   time.ActorID `json:"actor"`
	Seq     int64        `json:"seq"`
	Lamport int64        `json:"lamport"`
}

// String returns a short form of the ID, "<actor>:<seq>".
func (id ID) String() string {
	return id.Actor.String() + ":" + fmt.Sprint(id.Seq)
}

// Ticket returns the ticket of the i-th line created by the operation.
func (id ID) Ticket(i int) time.Ticket {
	return time.NewTicket(id.Lamport, uint32(i), id.Actor)
}

// Operation is an immutable line splice. It tombstones the lines in Removes
// and inserts Lines as a run after the element After. Both refer to line
// elements by ticket, so an operation means the same thing on every replica
// regardless of where those lines currently are.
type Operation struct {
	ID          ID                 `json:"id"`
	Contributor string             `json:"contributor"`
	Deps        time.VersionVector `json:"deps"`
	CreatedAt   gotime.Time        `json:"created_at"`

	Removes []time.Ticket `json:"removes,omitempty"`
	After   time.Ticket   `json:"after"`
	Lines   []string      `json:"lines,omitempty"`
}

// Validate checks that the operation is well formed. It does not check
// whether the operation can be applied to a particular replica.
func (o *Operation) Validate() error {
	if o.ID.Seq < 1 || o.ID.Lamport < 1 {
		return fmt.Errorf("seq %d, lamport %d: %w", o.ID.Seq, o.ID.Lamport, ErrInvalidOperation)
	}
	if o.Contributor == "" {
		return fmt.Errorf("empty contributor: %w", ErrInvalidOperation)
	}
	if len(o.Removes) == 0 && len(o.Lines) == 0 {
		return fmt.Errorf("empty splice: %w", ErrInvalidOperation)
	}
	if o.Deps.VersionOf(o.ID.Actor) != o.ID.Seq-1 {
		return fmt.Errorf("deps of %s skip own sequence: %w", o.ID, ErrInvalidOperation)
	}
	for _, line := range o.Lines {
		if strings.ContainsRune(line, '\n') {
			return fmt.Errorf("line with newline: %w", ErrInvalidOperation)
		}
	}

	return nil
}

// Span returns the number of lines the operation removes and inserts.
func (o *Operation) Span() (removed, inserted int) {
	return len(o.Removes), len(o.Lines)
}
