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

	"github.com/cenkalti/backoff/v4"

	"github.com/yorkie-team/sharenote/api/converter"
	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/attribution"
	"github.com/yorkie-team/sharenote/pkg/document"
	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/pkg/errors"
	"github.com/yorkie-team/sharenote/server/backend"
	"github.com/yorkie-team/sharenote/server/backend/database"
	"github.com/yorkie-team/sharenote/server/backend/messagebroker"
	"github.com/yorkie-team/sharenote/server/backend/sink"
	"github.com/yorkie-team/sharenote/server/logging"
	"github.com/yorkie-team/sharenote/server/profiling/prometheus"
)

var errBackgroundClosed = errors.Unavailable("background closed")

// ErrSnapshotDiverged is returned when the stored checkpoint holds
// operations this replica lacks and can no longer merge, because the stored
// history was trimmed past them.
var ErrSnapshotDiverged = errors.Internal("snapshot diverged").WithCode("ErrSnapshotDiverged")

// checkpoint is the encoded state of a document, ready to be written.
type checkpoint struct {
	token       string
	state       *document.State
	replica     []byte
	attribution []byte
	info        *database.DocInfo

	// sink is the snapshot pushed back to note storage, nil when there is
	// nothing new to push.
	sink *sink.Snapshot

	textChanged bool
	final       bool

	// snapshot and merged are the outcome of the last merge with the
	// stored checkpoint.
	snapshot *database.SnapshotInfo
	merged   []*operation.Operation
}

type checkpointResult struct {
	err         error
	seq         int64
	merged      []*operation.Operation
	textChanged bool
	final       bool
}

// prepareCheckpoint encodes the state of the document and clears its dirty
// flags.
func (a *Actor) prepareCheckpoint() (*checkpoint, error) {
	state := a.replica.Export()
	replica, err := converter.ReplicaToBytes(state)
	if err != nil {
		return nil, err
	}
	table, err := converter.AttributionToBytes(a.table)
	if err != nil {
		return nil, err
	}

	now := a.now()
	for _, c := range a.info.Contributors {
		if a.subs.ActiveCount(c.ID) > 0 {
			c.LastSeen = now
		}
	}
	a.info.UpdatedAt = now

	cp := &checkpoint{
		token:       a.token,
		state:       state,
		replica:     replica,
		attribution: table,
		info:        a.info.DeepCopy(),
		textChanged: a.dirty,
		final:       a.pushFinal,
	}

	if a.dirty || a.pushFinal {
		reason := messagebroker.ReasonCheckpoint
		if a.pushFinal {
			reason = messagebroker.ReasonDeactivate
		}

		var contributors []string
		for _, c := range a.info.Contributors {
			contributors = append(contributors, c.ID)
		}
		cp.sink = &sink.Snapshot{
			Token:        a.token,
			SourceKey:    a.info.SourceKey,
			Title:        a.info.Title,
			Reason:       reason,
			Text:         a.replica.Snapshot(),
			Contributors: contributors,
			At:           now,
		}
	}

	a.dirty, a.infoDirty, a.pushFinal = false, false, false
	return cp, nil
}

// merge prepares the snapshot to store on top of the stored checkpoint.
// Operations of the stored checkpoint this state lacks, written by other
// instances, are merged into the snapshot and kept in cp.merged.
func (cp *checkpoint) merge(ctx context.Context, be *backend.Backend) error {
	cp.snapshot = &database.SnapshotInfo{
		Token:       cp.token,
		Replica:     cp.replica,
		Attribution: cp.attribution,
		Checksum:    converter.Checksum(cp.replica),
		Seq:         1,
		CreatedAt:   cp.info.UpdatedAt,
	}
	cp.merged = nil

	stored, err := be.DB.FindSnapshotByToken(ctx, cp.token)
	if goerrors.Is(err, database.ErrSnapshotNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	cp.snapshot.Seq = stored.Seq + 1

	state, err := decodeSnapshot(stored)
	if err != nil {
		logging.From(ctx).Warnf("overwrite stored snapshot of %s: %v", cp.token, err)
		return nil
	}
	if cp.state.VersionVector.Covers(state.VersionVector) {
		return nil
	}

	opts := []document.Option{document.WithHistoryLimit(be.Config.HistoryLimit)}
	storedReplica, err := document.Restore(state, opts...)
	if err != nil {
		logging.From(ctx).Warnf("overwrite stored snapshot of %s: %v", cp.token, err)
		return nil
	}
	ops, ok := storedReplica.Since(cp.state.VersionVector)
	if !ok {
		return fmt.Errorf("%s: history trimmed: %w", cp.token, ErrSnapshotDiverged)
	}

	merged, err := document.Restore(cp.state, opts...)
	if err != nil {
		return err
	}
	for _, op := range ops {
		if _, err := merged.ApplyRemote(op); err != nil {
			return fmt.Errorf("%s: merge %s: %s: %w", cp.token, op.ID, err.Error(), ErrSnapshotDiverged)
		}
	}

	replica, err := converter.ReplicaToBytes(merged.Export())
	if err != nil {
		return err
	}
	table, err := converter.AttributionToBytes(attribution.Rebuild(merged))
	if err != nil {
		return err
	}
	cp.snapshot.Replica = replica
	cp.snapshot.Attribution = table
	cp.snapshot.Checksum = converter.Checksum(replica)
	cp.merged = ops
	if cp.sink != nil {
		cp.sink.Text = merged.Snapshot()
	}
	return nil
}

// decodeSnapshot verifies and decodes the replica state of a stored
// checkpoint.
func decodeSnapshot(snapshot *database.SnapshotInfo) (*document.State, error) {
	if err := converter.VerifyChecksum(snapshot.Replica, snapshot.Checksum); err != nil {
		return nil, fmt.Errorf("%s: %w", snapshot.Token, err)
	}
	state, err := converter.BytesToReplica(snapshot.Replica)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", snapshot.Token, err)
	}
	return state, nil
}

// write merges the checkpoint with the stored one and stores it, retrying
// with exponential backoff, then pushes its snapshot to the sinks. A
// checkpoint stored by another instance in between is merged on the next
// attempt.
func (cp *checkpoint) write(ctx context.Context, be *backend.Backend) error {
	if err := be.CheckpointLimiter.Acquire(ctx, 1); err != nil {
		return err
	}
	defer be.CheckpointLimiter.Release(1)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = be.Config.ParseCheckpointMinWaitInterval()
	policy.MaxInterval = be.Config.ParseCheckpointMaxWaitInterval()
	policy.MaxElapsedTime = 0

	start := gotime.Now()
	err := backoff.Retry(func() error {
		if err := cp.merge(ctx, be); err != nil {
			if goerrors.Is(err, ErrSnapshotDiverged) {
				return backoff.Permanent(err)
			}
			return err
		}
		if err := be.DB.StoreSnapshot(ctx, cp.snapshot); err != nil {
			return err
		}
		if err := be.DB.UpdateDocInfo(ctx, cp.info); err != nil {
			if goerrors.Is(err, database.ErrDocumentNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, be.Config.CheckpointMaxRetries), ctx))
	be.Metrics.ObserveCheckpointSeconds(gotime.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("checkpoint %s: %w", cp.token, err)
	}

	if cp.sink != nil {
		if err := be.Sink.Push(ctx, cp.sink); err != nil {
			logging.From(ctx).Warnf("push snapshot of %s: %v", cp.token, err)
		}
	}

	return nil
}

// startCheckpoint writes a checkpoint on a background goroutine. The
// pending callbacks are called with its result.
func (a *Actor) startCheckpoint() {
	if a.checkpointing {
		return
	}

	callbacks := a.pending
	a.pending = nil

	cp, err := a.prepareCheckpoint()
	if err != nil {
		a.logger.Errorf("prepare checkpoint: %v", err)
		for _, cb := range callbacks {
			cb(err)
		}
		return
	}

	a.checkpointing = true
	a.inflight = callbacks
	logger := a.logger
	if !a.be.Background.AttachGoroutine(func(ctx context.Context) {
		res := checkpointResult{textChanged: cp.textChanged, final: cp.final}
		if res.err = cp.write(logging.With(ctx, logger), a.be); res.err == nil {
			res.seq, res.merged = cp.snapshot.Seq, cp.merged
		}
		a.results <- res
	}, "checkpoint") {
		a.results <- checkpointResult{err: errBackgroundClosed, textChanged: cp.textChanged, final: cp.final}
	}
}

// finishCheckpoint handles the result of a background checkpoint. A failed
// checkpoint marks the document degraded until one succeeds.
func (a *Actor) finishCheckpoint(res checkpointResult) {
	a.checkpointing = false
	callbacks := a.inflight
	a.inflight = nil

	if res.err != nil {
		a.dirty = a.dirty || res.textChanged
		a.pushFinal = a.pushFinal || res.final
		a.infoDirty = true
		if !a.degraded {
			a.logger.Errorf("document degraded: %v", res.err)
		}
		a.degraded = true
		a.be.Metrics.AddCheckpointFailures(a.be.Config.Hostname)
	} else {
		a.seq = res.seq
		a.logger.Debugf("checkpoint %d stored", a.seq)
		if a.degraded {
			a.degraded = false
			a.logger.Infof("document recovered")
		}
		a.mergeStored(res.merged)
	}

	for _, cb := range callbacks {
		cb(res.err)
	}

	if len(a.pending) > 0 && !a.retiring {
		a.startCheckpoint()
	}
}

// mergeStored applies the operations merged from the stored checkpoint,
// which other instances wrote, to the replica of this actor.
func (a *Actor) mergeStored(ops []*operation.Operation) {
	if len(ops) == 0 {
		return
	}

	a.logger.Infof("merging %d operations of the stored checkpoint", len(ops))
	for _, op := range ops {
		if err := a.applyRemote(op, "", prometheus.SourceStore); err != nil {
			a.logger.Warnf("merge stored %s: %v", op.ID, err)
		}
	}
}

// requestCheckpoint asks for a checkpoint and calls cb on the actor
// goroutine with its result.
func (a *Actor) requestCheckpoint(cb func(error)) {
	a.pending = append(a.pending, cb)
	if !a.checkpointing {
		a.startCheckpoint()
	}
}

// Save writes a checkpoint for the connection. Every connection is told
// when it succeeds; the requesting one is told when it fails.
func (a *Actor) Save(ctx context.Context, subID string) error {
	return a.call(ctx, func() {
		a.requestCheckpoint(func(err error) {
			if err != nil {
				a.subs.SendTo(subID, types.NewErrorMessage(errors.CodeOf(err), err.Error()))
				return
			}
			a.broadcast(&types.Message{Type: types.Saved}, "")
		})
	})
}

// Deactivate makes the document read-only and waits for the checkpoint
// that persists it. Deactivating twice is a no-op.
func (a *Actor) Deactivate(ctx context.Context) error {
	done := make(chan error, 1)
	already := false
	if err := a.call(ctx, func() {
		if a.info.IsDeactivated() {
			already = true
			return
		}

		a.info.Status = database.DocStatusDeactivated
		a.info.DeactivatedAt = a.now()
		a.infoDirty = true
		a.pushFinal = true
		a.requestCheckpoint(func(err error) {
			done <- err
		})
	}); err != nil {
		return err
	}
	if already {
		return nil
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
