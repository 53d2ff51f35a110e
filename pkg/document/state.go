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

package document

import (
	"fmt"

	"github.com/yorkie-team/sharenote/pkg/document/crdt"
	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/pkg/document/time"
)

// Element is an element of the line list in its encodable form.
type Element struct {
	ID      time.Ticket
	Content string
	Removed bool
	Writer  crdt.Writer
}

// State is the encodable state of a replica. The actor of local operations
// is not part of it: every process that restores a state gets its own.
type State struct {
	Lamport       int64
	VersionVector time.VersionVector
	Elements      []Element
	History       []*operation.Operation
	Floor         time.VersionVector
}

// Export returns the state of the replica. The returned state shares the
// immutable operations of the history with the replica.
func (r *Replica) Export() *State {
	state := &State{
		Lamport:       r.lamport,
		VersionVector: r.vector.DeepCopy(),
		History:       append([]*operation.Operation(nil), r.history...),
		Floor:         r.floor.DeepCopy(),
	}
	for _, node := range r.lines.Nodes() {
		state.Elements = append(state.Elements, Element{
			ID:      node.ID(),
			Content: node.Content(),
			Removed: node.Removed(),
			Writer:  node.Writer(),
		})
	}
	return state
}

// Restore creates a replica from an exported state.
func Restore(state *State, opts ...Option) (*Replica, error) {
	r := newReplica(opts...)
	r.lamport = state.Lamport
	if state.VersionVector != nil {
		r.vector = state.VersionVector.DeepCopy()
	}
	if state.Floor != nil {
		r.floor = state.Floor.DeepCopy()
	}

	for _, elem := range state.Elements {
		if err := r.lines.Append(elem.ID, elem.Content, elem.Writer, elem.Removed); err != nil {
			return nil, fmt.Errorf("restore replica: %w", err)
		}
	}
	for _, op := range state.History {
		r.record(op)
	}

	// A restored actor must not reuse an actor that already has operations.
	if r.vector.VersionOf(r.actor) > 0 {
		return nil, fmt.Errorf("restore replica: actor %s already in use", r.actor)
	}

	return r, nil
}
