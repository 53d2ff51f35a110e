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

// Package documents provides the actor of a shared document. An actor owns
// the replica and the attribution table of one document and processes every
// request on it in order, on its own goroutine.
package documents

import (
	"context"
	goerrors "errors"
	"fmt"
	gotime "time"

	"github.com/yorkie-team/sharenote/api/converter"
	"github.com/yorkie-team/sharenote/pkg/attribution"
	"github.com/yorkie-team/sharenote/pkg/document"
	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/pkg/errors"
	"github.com/yorkie-team/sharenote/server/backend"
	"github.com/yorkie-team/sharenote/server/backend/database"
	"github.com/yorkie-team/sharenote/server/backend/pubsub"
	"github.com/yorkie-team/sharenote/server/backend/sync"
	"github.com/yorkie-team/sharenote/server/logging"
	"github.com/yorkie-team/sharenote/server/profiling/prometheus"
)

var (
	// ErrTokenDeactivated is returned when a local edit is made on a
	// deactivated document.
	ErrTokenDeactivated = errors.FailedPrecond("token deactivated").WithCode("ErrTokenDeactivated")

	// ErrDocumentDegraded is returned when a local edit is made on a document
	// whose checkpoints keep failing.
	ErrDocumentDegraded = errors.Unavailable("document degraded").WithCode("ErrDocumentDegraded")

	// ErrActorClosed is returned when the actor was retired. The caller
	// should get the document again.
	ErrActorClosed = errors.Unavailable("actor closed").WithCode("ErrActorClosed")

	// ErrRequiresResync is the reason a connection is sent a snapshot.
	ErrRequiresResync = errors.FailedPrecond("requires resync").WithCode("ErrRequiresResync")

	// ErrSubscriptionNotFound is returned when a request names a connection
	// that is not attached.
	ErrSubscriptionNotFound = errors.NotFound("subscription not found").WithCode("ErrSubscriptionNotFound")
)

const (
	// finalCheckpointTimeout bounds the checkpoint written at retirement.
	finalCheckpointTimeout = 30 * gotime.Second

	// relayTimeout bounds publishing one operation to the relay.
	relayTimeout = 5 * gotime.Second

	// minDeferCheckInterval is the shortest interval between expiry checks
	// of deferred operations.
	minDeferCheckInterval = 10 * gotime.Millisecond

	// maxStoreMerges is the number of times the deadline of a relayed
	// operation is extended while the stored checkpoint is merged for its
	// dependencies.
	maxStoreMerges = 3
)

type request struct {
	fn   func()
	done chan struct{}
}

// Actor is the serialization point of a shared document. Every field below
// the channels is only accessed by the actor goroutine.
type Actor struct {
	token  string
	be     *backend.Backend
	logger logging.Logger
	now    func() gotime.Time

	deferTimeout           gotime.Duration
	contributorGracePeriod gotime.Duration

	requests    chan *request
	results     chan checkpointResult
	relayOut    chan *operation.Operation
	unsubscribe sync.Unsubscribe
	stopped     chan struct{}
	finished    chan struct{}

	info     *database.DocInfo
	replica  *document.Replica
	table    *attribution.Table
	subs     *pubsub.Subscriptions
	deferred []*deferredOp

	seq           int64
	dirty         bool
	infoDirty     bool
	pushFinal     bool
	degraded      bool
	checkpointing bool
	inflight      []func(error)
	pending       []func(error)
	idleSince     gotime.Time
	colorIndex    int
	retiring      bool
}

// Load restores the document of the given info from its last checkpoint, or
// from its seed when it has none, and starts its actor.
func Load(ctx context.Context, be *backend.Backend, info *database.DocInfo) (*Actor, error) {
	replica, table, seq, err := restore(ctx, be, info)
	if err != nil {
		return nil, err
	}

	a := &Actor{
		token:  info.Token,
		be:     be,
		logger: logging.New("DOC", logging.NewField("token", info.Token)),
		now: func() gotime.Time {
			return gotime.Now().UTC()
		},

		deferTimeout:           be.Config.ParseDeferTimeout(),
		contributorGracePeriod: be.Config.ParseContributorGracePeriod(),

		requests: make(chan *request, be.Config.ActorQueueSize),
		results:  make(chan checkpointResult, 1),
		relayOut: make(chan *operation.Operation, be.Config.ActorQueueSize),
		stopped:  make(chan struct{}),
		finished: make(chan struct{}),

		info:    info.DeepCopy(),
		replica: replica,
		table:   table,
		subs:    pubsub.New(),
		seq:     seq,
	}
	a.idleSince = a.now()
	a.colorIndex = len(info.Contributors)

	unsubscribe, err := be.Relay.Subscribe(ctx, info.Token, a.receive)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", info.Token, err)
	}
	a.unsubscribe = unsubscribe

	go a.sendRelay()
	go a.run()

	be.Metrics.AddActiveActors(be.Config.Hostname)
	a.logger.Debugf("actor started: %d lines, seq %d", replica.LineCount(), seq)

	return a, nil
}

// restore builds the replica and the attribution table of the document.
func restore(
	ctx context.Context,
	be *backend.Backend,
	info *database.DocInfo,
) (*document.Replica, *attribution.Table, int64, error) {
	opts := []document.Option{document.WithHistoryLimit(be.Config.HistoryLimit)}

	snapshot, err := be.DB.FindSnapshotByToken(ctx, info.Token)
	if goerrors.Is(err, database.ErrSnapshotNotFound) {
		replica := document.Seed(info.Seed, opts...)
		return replica, attribution.Rebuild(replica), 0, nil
	}
	if err != nil {
		return nil, nil, 0, err
	}

	state, err := decodeSnapshot(snapshot)
	if err != nil {
		return nil, nil, 0, err
	}
	replica, err := document.Restore(state, opts...)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%s: %s: %w", info.Token, err.Error(), converter.ErrStorageCorruption)
	}

	table, err := converter.BytesToAttribution(snapshot.Attribution)
	if err != nil || table.Len() != replica.LineCount() {
		logging.From(ctx).Warnf("rebuild attribution of %s: %v", info.Token, err)
		table = attribution.Rebuild(replica)
	}

	return replica, table, snapshot.Seq, nil
}

// Token returns the share token of the document.
func (a *Actor) Token() string {
	return a.token
}

// Done returns a channel that is closed when the actor has retired and its
// last checkpoint has been written.
func (a *Actor) Done() <-chan struct{} {
	return a.finished
}

// Closed returns whether the actor stopped accepting requests.
func (a *Actor) Closed() bool {
	select {
	case <-a.stopped:
		return true
	default:
		return false
	}
}

// call runs fn on the actor goroutine and waits for it. It returns
// ErrActorClosed when fn did not run because the actor retired.
func (a *Actor) call(ctx context.Context, fn func()) error {
	req := &request{fn: fn, done: make(chan struct{})}
	select {
	case a.requests <- req:
	case <-a.stopped:
		return fmt.Errorf("%s: %w", a.token, ErrActorClosed)
	case <-ctx.Done():
		return ctx.Err()
	}

	// Requests never block the actor, so the wait ignores ctx once queued.
	select {
	case <-req.done:
		return nil
	case <-a.stopped:
		select {
		case <-req.done:
			return nil
		default:
			return fmt.Errorf("%s: %w", a.token, ErrActorClosed)
		}
	}
}

// post queues fn without waiting for it. It returns false when the actor
// retired.
func (a *Actor) post(fn func()) bool {
	select {
	case a.requests <- &request{fn: fn, done: make(chan struct{})}:
		return true
	case <-a.stopped:
		return false
	}
}

func (a *Actor) run() {
	checkpointTicker := gotime.NewTicker(a.be.Config.ParseCheckpointInterval())
	defer checkpointTicker.Stop()

	deferInterval := a.deferTimeout / 4
	if deferInterval < minDeferCheckInterval {
		deferInterval = minDeferCheckInterval
	}
	deferTicker := gotime.NewTicker(deferInterval)
	defer deferTicker.Stop()

	for {
		select {
		case req := <-a.requests:
			req.fn()
			close(req.done)
		case res := <-a.results:
			a.finishCheckpoint(res)
		case <-checkpointTicker.C:
			a.pruneContributors()
			if a.dirty || a.infoDirty {
				a.startCheckpoint()
			}
		case <-deferTicker.C:
			a.expireDeferred()
		}

		if a.retiring {
			close(a.stopped)
			break
		}
	}

	a.shutdown()
}

// shutdown releases the resources of a retiring actor and writes its last
// checkpoint.
func (a *Actor) shutdown() {
	a.unsubscribe()
	close(a.relayOut)

	if a.checkpointing {
		a.finishCheckpoint(<-a.results)
	}
	if a.dirty || a.infoDirty || len(a.pending) > 0 {
		callbacks := a.pending
		a.pending = nil

		cp, err := a.prepareCheckpoint()
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), finalCheckpointTimeout)
			err = cp.write(logging.With(ctx, a.logger), a.be)
			cancel()
		}
		if err != nil {
			a.be.Metrics.AddCheckpointFailures(a.be.Config.Hostname)
			a.logger.Errorf("final checkpoint: %v", err)
		}
		for _, cb := range callbacks {
			cb(err)
		}
	}

	for _, sub := range a.subs.Values() {
		sub.CloseWithError(ErrActorClosed)
		a.be.Metrics.RemoveConnections(a.be.Config.Hostname)
	}
	a.subs.Close()

	a.be.Metrics.RemoveActiveActors(a.be.Config.Hostname)
	a.logger.Debugf("actor retired")
	close(a.finished)
}

// receive is the handler of operations relayed from other instances.
func (a *Actor) receive(op *operation.Operation) {
	a.post(func() {
		if err := a.applyRemote(op, "", prometheus.SourceRelay); err != nil {
			a.logger.Warnf("apply relayed %s: %v", op.ID, err)
		}
	})
}

// sendRelay publishes the accepted operations of this instance. It runs
// apart from the actor so that the actor never waits for the relay.
func (a *Actor) sendRelay() {
	for op := range a.relayOut {
		ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
		if err := a.be.Relay.Publish(ctx, a.token, op); err != nil {
			a.logger.Warnf("relay %s: %v", op.ID, err)
		}
		cancel()
	}
}

// TryRetire retires the actor when it has no connection and has been idle
// for the given period, or is deactivated. It returns whether the actor is
// retired, after its last checkpoint.
func (a *Actor) TryRetire(ctx context.Context, idle gotime.Duration) (bool, error) {
	retiring := false
	err := a.call(ctx, func() {
		if a.subs.Len() > 0 {
			return
		}
		if !a.info.IsDeactivated() && a.now().Sub(a.idleSince) < idle {
			return
		}
		a.retiring = true
		retiring = true
	})
	if err != nil && !goerrors.Is(err, ErrActorClosed) {
		return false, err
	}
	if err == nil && !retiring {
		return false, nil
	}

	select {
	case <-a.finished:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Close retires the actor regardless of its connections, which are closed
// with ErrActorClosed.
func (a *Actor) Close(ctx context.Context) error {
	err := a.call(ctx, func() {
		a.retiring = true
	})
	if err != nil && !goerrors.Is(err, ErrActorClosed) {
		return err
	}

	select {
	case <-a.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
