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

// Package document provides the replica of a shared note. A replica holds
// the lines of the note in a line level RGA, applies local edits and remote
// operations, and keeps the bounded history used for catch-up.
package document

import (
	"fmt"
	gotime "time"

	"github.com/yorkie-team/sharenote/pkg/document/crdt"
	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/pkg/document/time"
	"github.com/yorkie-team/sharenote/pkg/errors"
)

const (
	// OwnerContributor is the contributor the seed lines are attributed to.
	OwnerContributor = "owner"

	// DefaultHistoryLimit is the default number of operations retained for
	// catch-up.
	DefaultHistoryLimit = 1000
)

var (
	// ErrMissingDependency is returned when an operation cannot be applied
	// yet because some of its causal dependencies are missing. The caller
	// should buffer the operation and retry later.
	ErrMissingDependency = errors.FailedPrecond("missing dependency").WithCode("ErrMissingDependency")

	// ErrInvalidEdit is returned when an edit does not fit the snapshot.
	ErrInvalidEdit = errors.InvalidArgument("invalid edit").WithCode("ErrInvalidEdit")
)

// ChangeType is the type of a line change.
type ChangeType int

const (
	// LineRemoved means the line at Index was removed.
	LineRemoved ChangeType = iota

	// LineInserted means a line was inserted at Index.
	LineInserted
)

// Change is a visible change of the snapshot made while applying an
// operation. Changes are ordered: the Index of each one is relative to the
// snapshot after the previous changes.
type Change struct {
	Type  ChangeType
	Index int
}

// Line is a visible line of a replica with its writer.
type Line struct {
	ID          time.Ticket
	Content     string
	Contributor string
	OpID        operation.ID
	At          gotime.Time
}

// Store is the replicated state of a document.
type Store interface {
	// ApplyLocal turns the edit into an operation of this replica and
	// applies it.
	ApplyLocal(contributor string, edit Edit) (*operation.Operation, []Change, error)

	// ApplyRemote applies an operation created by another replica. It
	// returns ErrMissingDependency when the operation is not ready.
	ApplyRemote(op *operation.Operation) ([]Change, error)

	// Snapshot returns the plain text of the document.
	Snapshot() string

	// VersionVector returns a copy of the state vector.
	VersionVector() time.VersionVector

	// Ready returns whether every causal dependency of op has been applied.
	Ready(op *operation.Operation) bool

	// Duplicate returns whether op has already been applied.
	Duplicate(op *operation.Operation) bool

	// MissingFrom returns the operations a replica at the given state vector
	// lacks, in causal order.
	MissingFrom(vector time.VersionVector) ([]*operation.Operation, bool)

	// Lines returns the visible lines with their writers.
	Lines() []Line

	// Export returns the encodable state of the replica.
	Export() *State
}

// Option configures a Replica.
type Option func(*Replica)

// WithActor sets the actor of the replica's local operations.
func WithActor(actor time.ActorID) Option {
	return func(r *Replica) {
		r.actor = actor
	}
}

// WithHistoryLimit sets the number of operations retained for catch-up.
func WithHistoryLimit(limit int) Option {
	return func(r *Replica) {
		if limit > 0 {
			r.historyLimit = limit
		}
	}
}

// WithClock sets the clock used to stamp local operations.
func WithClock(now func() gotime.Time) Option {
	return func(r *Replica) {
		r.now = now
	}
}

// Replica is the line level replicated state of a document. It is not safe
// for concurrent use: the owner serializes access.
type Replica struct {
	actor   time.ActorID
	lamport int64
	vector  time.VersionVector
	lines   *crdt.RGALineList

	history      []*operation.Operation
	floor        time.VersionVector
	historyLimit int

	now func() gotime.Time
}

func newReplica(opts ...Option) *Replica {
	r := &Replica{
		actor:        time.NewActorID(),
		vector:       time.NewVersionVector(),
		lines:        crdt.NewRGALineList(),
		floor:        time.NewVersionVector(),
		historyLimit: DefaultHistoryLimit,
		now: func() gotime.Time {
			return gotime.Now().UTC().Truncate(gotime.Millisecond)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Seed creates a replica holding the given text. Seeding is deterministic:
// replicas seeded with the same text have the same elements, so operations
// of one apply to the other.
func Seed(text string, opts ...Option) *Replica {
	r := newReplica(opts...)

	writer := crdt.Writer{
		Contributor: OwnerContributor,
		OpID:        operation.ID{Actor: time.InitialActorID},
	}
	prev := time.InitialTicket
	for i, content := range SplitLines(text) {
		id := time.NewTicket(0, uint32(i+1), time.InitialActorID)
		if _, err := r.lines.InsertAfter(prev, id, content, writer); err != nil {
			panic(fmt.Sprintf("seed line %d: %s", i, err))
		}
		prev = id
	}

	return r
}

// Actor returns the actor of the replica's local operations.
func (r *Replica) Actor() time.ActorID {
	return r.actor
}

// Snapshot returns the plain text of the document.
func (r *Replica) Snapshot() string {
	return r.lines.String()
}

// LineCount returns the number of visible lines.
func (r *Replica) LineCount() int {
	return r.lines.Len()
}

// Contents returns the content of each visible line. Unlike Snapshot, it
// tells a document with one empty line from an empty one.
func (r *Replica) Contents() []string {
	lines := r.lines.Lines()
	contents := make([]string, 0, len(lines))
	for _, l := range lines {
		contents = append(contents, l.Content())
	}
	return contents
}

// VersionVector returns a copy of the state vector.
func (r *Replica) VersionVector() time.VersionVector {
	return r.vector.DeepCopy()
}

// Lines returns the visible lines with their writers.
func (r *Replica) Lines() []Line {
	var lines []Line
	for _, l := range r.lines.Lines() {
		w := l.Writer()
		lines = append(lines, Line{
			ID:          l.ID(),
			Content:     l.Content(),
			Contributor: w.Contributor,
			OpID:        w.OpID,
			At:          w.At,
		})
	}
	return lines
}

// ApplyLocal turns the edit into an operation of this replica and applies
// it. The returned operation is what peers receive.
func (r *Replica) ApplyLocal(contributor string, edit Edit) (*operation.Operation, []Change, error) {
	if contributor == "" {
		return nil, nil, fmt.Errorf("empty contributor: %w", ErrInvalidEdit)
	}
	if err := edit.Validate(r.lines.Len()); err != nil {
		return nil, nil, err
	}

	op := &operation.Operation{
		ID: operation.ID{
			Actor:   r.actor,
			Seq:     r.vector.VersionOf(r.actor) + 1,
			Lamport: r.lamport + 1,
		},
		Contributor: contributor,
		Deps:        r.vector.DeepCopy(),
		CreatedAt:   r.now(),
		Lines:       append([]string(nil), edit.Lines...),
	}

	for i := edit.From; i < edit.To; i++ {
		line, err := r.lines.LineAt(i)
		if err != nil {
			return nil, nil, err
		}
		op.Removes = append(op.Removes, line.ID())
	}

	// Inserting after the last replaced line keeps the new lines in its place
	// even when other replicas insert around the replaced range.
	if len(op.Removes) > 0 {
		op.After = op.Removes[len(op.Removes)-1]
	} else {
		anchor, err := r.lines.AnchorBefore(edit.From)
		if err != nil {
			return nil, nil, err
		}
		op.After = anchor
	}

	changes, err := r.apply(op)
	if err != nil {
		return nil, nil, err
	}
	return op, changes, nil
}

// ApplyRemote applies an operation created by another replica. Applying an
// operation twice is a no-op that returns no changes.
func (r *Replica) ApplyRemote(op *operation.Operation) ([]Change, error) {
	if err := op.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrInvalidEdit)
	}
	if r.Duplicate(op) {
		return nil, nil
	}
	if !r.Ready(op) {
		return nil, fmt.Errorf("%s: %w", op.ID, ErrMissingDependency)
	}

	return r.apply(op)
}

// Ready returns whether every causal dependency of op has been applied, so
// that op is the next operation of its actor.
func (r *Replica) Ready(op *operation.Operation) bool {
	if r.vector.VersionOf(op.ID.Actor) != op.ID.Seq-1 {
		return false
	}
	return r.vector.Covers(op.Deps)
}

// Duplicate returns whether op has already been applied.
func (r *Replica) Duplicate(op *operation.Operation) bool {
	return r.vector.VersionOf(op.ID.Actor) >= op.ID.Seq
}

// MissingFrom returns the operations a replica at the given state vector
// lacks, in the order they were applied here, which is a causal order. It
// returns false when the vector is ahead of this replica or the history
// no longer holds every missing operation.
func (r *Replica) MissingFrom(vector time.VersionVector) ([]*operation.Operation, bool) {
	if !r.vector.Covers(vector) {
		return nil, false
	}
	return r.Since(vector)
}

// Since returns the operations of this replica that a replica at the given
// state vector lacks, in causal order. Unlike MissingFrom, the vector may be
// ahead of this replica for some actors. It returns false when the history
// no longer holds every such operation.
func (r *Replica) Since(vector time.VersionVector) ([]*operation.Operation, bool) {
	if !vector.Covers(r.floor) {
		return nil, false
	}

	var ops []*operation.Operation
	for _, op := range r.history {
		if op.ID.Seq > vector.VersionOf(op.ID.Actor) {
			ops = append(ops, op)
		}
	}
	return ops, true
}

// apply applies a ready operation. Targets are resolved before anything is
// mutated, so an operation is either applied entirely or not at all.
func (r *Replica) apply(op *operation.Operation) ([]Change, error) {
	if !r.lines.Has(op.After) {
		return nil, fmt.Errorf("%s anchor %s: %w", op.ID, op.After, ErrMissingDependency)
	}
	for _, id := range op.Removes {
		if !r.lines.Has(id) || id == time.InitialTicket {
			return nil, fmt.Errorf("%s target %s: %w", op.ID, id, ErrMissingDependency)
		}
	}

	var changes []Change
	for _, id := range op.Removes {
		index, removed, err := r.lines.Remove(id)
		if err != nil {
			return nil, err
		}
		if removed {
			changes = append(changes, Change{Type: LineRemoved, Index: index})
		}
	}

	writer := crdt.Writer{Contributor: op.Contributor, OpID: op.ID, At: op.CreatedAt}
	prev := op.After
	for i, content := range op.Lines {
		id := op.ID.Ticket(i)
		index, err := r.lines.InsertAfter(prev, id, content, writer)
		if err != nil {
			return nil, err
		}
		changes = append(changes, Change{Type: LineInserted, Index: index})
		prev = id
	}

	r.vector.Set(op.ID.Actor, op.ID.Seq)
	if op.ID.Lamport > r.lamport {
		r.lamport = op.ID.Lamport
	}
	r.record(op)

	return changes, nil
}

func (r *Replica) record(op *operation.Operation) {
	r.history = append(r.history, op)
	for len(r.history) > r.historyLimit {
		trimmed := r.history[0]
		r.history = r.history[1:]
		if r.floor.VersionOf(trimmed.ID.Actor) < trimmed.ID.Seq {
			r.floor.Set(trimmed.ID.Actor, trimmed.ID.Seq)
		}
	}
}
