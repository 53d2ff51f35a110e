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

package documents

import (
	"context"
	goerrors "errors"
	"fmt"
	gotime "time"

	"go.uber.org/zap"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/attribution"
	"github.com/yorkie-team/sharenote/pkg/document"
	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/server/logging"
	"github.com/yorkie-team/sharenote/server/profiling/prometheus"
)

// deferredOp is an operation waiting for its causal dependencies.
type deferredOp struct {
	op       *operation.Operation
	origin   string
	source   string
	deadline gotime.Time
	merges   int
}

// Push applies an operation created by the replica of an attached
// connection. An operation whose dependencies are missing is deferred, which
// is not an error.
func (a *Actor) Push(ctx context.Context, subID string, op *operation.Operation) error {
	var err error
	if callErr := a.call(ctx, func() {
		err = a.push(subID, op)
	}); callErr != nil {
		return callErr
	}
	return err
}

func (a *Actor) push(subID string, op *operation.Operation) error {
	sub, ok := a.subs.Get(subID)
	if !ok {
		return fmt.Errorf("%s: %w", subID, ErrSubscriptionNotFound)
	}
	if op.Contributor != sub.Contributor() {
		return fmt.Errorf(
			"operation of %s on connection of %s: %w",
			op.Contributor,
			sub.Contributor(),
			document.ErrInvalidEdit,
		)
	}
	if err := a.writable(); err != nil {
		return err
	}

	return a.applyRemote(op, subID, prometheus.SourceClient)
}

// Edit applies an edit on behalf of the contributor of an attached
// connection that has no replica. The resulting operation is sent to every
// connection, the origin included.
func (a *Actor) Edit(ctx context.Context, subID string, edit document.Edit) (*operation.Operation, error) {
	var op *operation.Operation
	var err error
	if callErr := a.call(ctx, func() {
		op, err = a.edit(subID, edit)
	}); callErr != nil {
		return nil, callErr
	}
	return op, err
}

func (a *Actor) edit(subID string, edit document.Edit) (*operation.Operation, error) {
	sub, ok := a.subs.Get(subID)
	if !ok {
		return nil, fmt.Errorf("%s: %w", subID, ErrSubscriptionNotFound)
	}
	if err := a.writable(); err != nil {
		return nil, err
	}

	op, changes, err := a.replica.ApplyLocal(sub.Contributor(), edit)
	if err != nil {
		return nil, err
	}
	a.accept(op, changes, "", prometheus.SourceEdit)
	a.retryDeferred()

	return op, nil
}

// writable returns why local edits are rejected, if they are.
func (a *Actor) writable() error {
	if a.info.IsDeactivated() {
		return fmt.Errorf("%s: %w", a.token, ErrTokenDeactivated)
	}
	if a.degraded {
		return fmt.Errorf("%s: %w", a.token, ErrDocumentDegraded)
	}
	return nil
}

// applyRemote applies an operation that was not created by the replica of
// this actor. origin is the subscription it came from, empty when relayed.
func (a *Actor) applyRemote(op *operation.Operation, origin, source string) error {
	if a.replica.Duplicate(op) {
		return nil
	}

	changes, err := a.replica.ApplyRemote(op)
	if goerrors.Is(err, document.ErrMissingDependency) {
		a.deferOp(op, origin, source)
		return nil
	}
	if err != nil {
		return err
	}

	a.accept(op, changes, origin, source)
	a.retryDeferred()
	return nil
}

// accept propagates an applied operation to the attribution table and the
// connections except exclude. Operations of this instance are also relayed
// to other instances.
func (a *Actor) accept(op *operation.Operation, changes []document.Change, exclude, source string) {
	if err := a.table.Update(op, changes); err != nil {
		a.logger.Warnf("rebuild attribution: %v", err)
		a.table = attribution.Rebuild(a.replica)
	}
	a.dirty = true

	if logging.Enabled(zap.DebugLevel) {
		a.logger.Debugf("applied %s from %s: %d changes", op.ID, source, len(changes))
	}
	a.be.Metrics.AddAppliedOperations(a.be.Config.Hostname, source, 1)

	a.broadcast(types.NewOpMessage(op), exclude)
	if source == prometheus.SourceEdit || source == prometheus.SourceClient {
		select {
		case a.relayOut <- op:
		default:
			a.logger.Warnf("relay queue full, %s not relayed", op.ID)
		}
	}
}

// deferOp buffers an operation until its dependencies arrive or it expires.
func (a *Actor) deferOp(op *operation.Operation, origin, source string) {
	for _, d := range a.deferred {
		if d.op.ID == op.ID {
			return
		}
	}

	if len(a.deferred) >= a.be.Config.ActorQueueSize {
		a.logger.Warnf("deferred buffer full, dropped %s", op.ID)
		a.be.Metrics.AddExpiredOperations(a.be.Config.Hostname, 1)
		if origin != "" {
			a.resync(origin, "deferred")
		} else {
			a.syncStored()
		}
		return
	}

	a.deferred = append(a.deferred, &deferredOp{
		op:       op,
		origin:   origin,
		source:   source,
		deadline: a.now().Add(a.deferTimeout),
	})
	a.be.Metrics.AddDeferredOperations(a.be.Config.Hostname)
}

// retryDeferred applies the deferred operations that became ready, until no
// more progress is made.
func (a *Actor) retryDeferred() {
	for progress := true; progress && len(a.deferred) > 0; {
		progress = false

		remaining := a.deferred[:0]
		for _, d := range a.deferred {
			if a.replica.Duplicate(d.op) {
				continue
			}

			changes, err := a.replica.ApplyRemote(d.op)
			if goerrors.Is(err, document.ErrMissingDependency) {
				remaining = append(remaining, d)
				continue
			}
			if err != nil {
				a.logger.Warnf("drop deferred %s: %v", d.op.ID, err)
				continue
			}

			a.accept(d.op, changes, d.origin, d.source)
			progress = true
		}
		a.deferred = remaining
	}
}

// expireDeferred handles the deferred operations past their deadline. The
// connections they came from are sent a snapshot. Relayed operations wait
// for a few more deadlines while the stored checkpoint, which holds what the
// relay lost, is merged.
func (a *Actor) expireDeferred() {
	if len(a.deferred) == 0 {
		return
	}

	now := a.now()
	expired := 0
	merge := false
	origins := make(map[string]bool)
	remaining := a.deferred[:0]
	for _, d := range a.deferred {
		if now.Before(d.deadline) {
			remaining = append(remaining, d)
			continue
		}
		if d.origin == "" && d.merges < maxStoreMerges {
			d.merges++
			d.deadline = now.Add(a.deferTimeout)
			merge = true
			remaining = append(remaining, d)
			continue
		}
		expired++
		if d.origin != "" {
			origins[d.origin] = true
		}
	}
	a.deferred = remaining

	if merge {
		a.syncStored()
	}
	if expired == 0 {
		return
	}

	a.logger.Warnf("%d deferred operations expired", expired)
	a.be.Metrics.AddExpiredOperations(a.be.Config.Hostname, expired)
	for origin := range origins {
		a.resync(origin, "deferred")
	}
}

// syncStored writes a checkpoint, which merges the operations of the stored
// checkpoint this replica lacks.
func (a *Actor) syncStored() {
	if a.retiring {
		return
	}

	a.logger.Infof("relayed operations missing dependencies, merging stored checkpoint")
	a.be.Metrics.AddResyncs(a.be.Config.Hostname, prometheus.SourceStore)
	a.requestCheckpoint(func(err error) {
		if err != nil {
			a.logger.Warnf("merge stored checkpoint: %v", err)
		}
	})
}

// resync sends a snapshot to the connection and drops the operations it
// still has deferred.
func (a *Actor) resync(subID, reason string) {
	remaining := a.deferred[:0]
	for _, d := range a.deferred {
		if d.origin != subID {
			remaining = append(remaining, d)
		}
	}
	a.deferred = remaining

	sub, ok := a.subs.Get(subID)
	if !ok {
		return
	}

	msg, err := a.snapshotMessage()
	if err != nil {
		a.logger.Errorf("resync %s: %v", subID, err)
		return
	}
	a.logger.Infof("%s %s: %v", reason, subID, ErrRequiresResync)
	a.be.Metrics.AddResyncs(a.be.Config.Hostname, reason)
	if !sub.Publish(msg) && sub.Err() != nil {
		a.detach(subID)
	}
}
