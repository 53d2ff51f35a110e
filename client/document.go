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
// Package client provides the client of the server of shared documents. It
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yorkie-team/sharenote/api/converter"
	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/attribution"
	"github.com/yorkie-team/sharenote/pkg/document"
	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/pkg/document/time"
)

var (
	// ErrDocumentNotSynced occurs when the document is edited before its
	// first snapshot arrived.
	ErrDocumentNotSynced = errors.New("document is not synced")

	// ErrDocumentClosed occurs when the connection of the document is closed.
	ErrDocumentClosed = errors.New("document is closed")
)

// eventBufferSize is the size of the event channel of a document. Events
// are dropped when nobody reads them.
const eventBufferSize = 256

// EventType is the type of an event of a document.
type EventType string

const (
	// SyncedEvent means the document received a snapshot or a catch-up.
	SyncedEvent EventType = "synced"

	// RemoteChangeEvent means an operation of another replica was applied.
	RemoteChangeEvent EventType = "remote-change"

	// ContributorsChangedEvent means the contributors or peers changed.
	ContributorsChangedEvent EventType = "contributors-changed"

	// SavedEvent means a checkpoint requested by a connection succeeded.
	SavedEvent EventType = "saved"

	// ErrorEvent means the server rejected a request of this connection.
	ErrorEvent EventType = "error"
)

// Event is an event of a document.
type Event struct {
	Type EventType
	Err  error
}

// Document is a local replica of a shared document kept in sync over a
// websocket connection.
type Document struct {
	client      *Client
	token       string
	contributor types.Contributor
	logger      *zap.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu           sync.RWMutex
	replica      *document.Replica
	table        *attribution.Table
	deferred     []*operation.Operation
	contributors []types.Contributor
	peers        int
	lastErr      error

	events   chan Event
	done     chan struct{}
	closeErr error
}

// Connect connects to the document as the given contributor. It returns once
// the document is synced.
func (c *Client) Connect(ctx context.Context, token string, contributor types.Contributor) (*Document, error) {
	d := &Document{
		client:      c,
		token:       token,
		contributor: contributor,
		logger:      c.logger.With(zap.String("token", token), zap.String("contributor", contributor.ID)),
		events:      make(chan Event, eventBufferSize),
	}
	if err := d.dial(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Reconnect closes the connection and connects again with the state vector
// of the local replica, which lets the server send only what is missing.
func (d *Document) Reconnect(ctx context.Context) error {
	if err := d.Close(); err != nil {
		return err
	}
	return d.dial(ctx)
}

func (d *Document) dial(ctx context.Context) error {
	conn, _, err := d.client.dialer.DialContext(ctx, d.client.documentURL(d.token), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", d.token, err)
	}

	d.mu.Lock()
	vector := time.NewVersionVector()
	if d.replica != nil {
		vector = d.replica.VersionVector()
	}
	d.conn = conn
	d.done = make(chan struct{})
	d.closeErr = nil
	done := d.done
	d.mu.Unlock()

	contributor := d.contributor
	if err := d.send(&types.Message{
		Type:        types.SyncRequest,
		StateVector: vector,
		Contributor: &contributor,
	}); err != nil {
		_ = conn.Close()
		return err
	}

	synced := make(chan struct{})
	go d.readLoop(conn, sync.OnceFunc(func() { close(synced) }), done)

	select {
	case <-synced:
		return nil
	case <-done:
		return d.Err()
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	}
}

// Token returns the token of the document.
func (d *Document) Token() string {
	return d.token
}

// Text returns the text of the local replica.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.replica == nil {
		return ""
	}
	return d.replica.Snapshot()
}

// Lines returns the lines of the local replica.
func (d *Document) Lines() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.replica == nil {
		return nil
	}
	return d.replica.Contents()
}

// VersionVector returns the state vector of the local replica.
func (d *Document) VersionVector() time.VersionVector {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.replica == nil {
		return time.NewVersionVector()
	}
	return d.replica.VersionVector()
}

// Attribution returns who last wrote each line of the local replica.
func (d *Document) Attribution() []attribution.Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.table == nil {
		return nil
	}
	return d.table.Entries()
}

// Contributors returns the last known contributors of the document.
func (d *Document) Contributors() []types.Contributor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]types.Contributor(nil), d.contributors...)
}

// Peers returns the last known number of connections to the document.
func (d *Document) Peers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.peers
}

// LastError returns the last error the server sent on this connection.
func (d *Document) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.lastErr
}

// Events returns the events of the document.
func (d *Document) Events() <-chan Event {
	return d.events
}

// Done returns a channel closed when the connection closes.
func (d *Document) Done() <-chan struct{} {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.done
}

// Err returns why the connection closed. A close frame of the server is
// returned as *websocket.CloseError.
func (d *Document) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.closeErr
}

// Edit applies the edit to the local replica and sends the resulting
// operation to the server.
func (d *Document) Edit(edit document.Edit) error {
	return d.edit(func([]string) (document.Edit, bool) {
		return edit, true
	})
}

// EditText replaces the text of the document with the given one, as a
// single edit.
func (d *Document) EditText(text string) error {
	return d.EditLines(document.SplitLines(text))
}

// EditLines replaces the lines of the document with the given ones, as a
// single edit.
func (d *Document) EditLines(lines []string) error {
	return d.edit(func(current []string) (document.Edit, bool) {
		return document.DiffLines(current, lines)
	})
}

// edit builds an edit from the current lines of the local replica, applies
// it and sends the resulting operation.
func (d *Document) edit(build func(lines []string) (document.Edit, bool)) error {
	d.mu.Lock()
	if d.replica == nil {
		d.mu.Unlock()
		return ErrDocumentNotSynced
	}
	edit, ok := build(d.replica.Contents())
	if !ok {
		d.mu.Unlock()
		return nil
	}
	op, changes, err := d.replica.ApplyLocal(d.contributor.ID, edit)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.updateTable(op, changes)
	d.mu.Unlock()

	return d.send(types.NewOpMessage(op))
}

// SendEdit sends the edit for the server to apply. The local replica
// changes when the resulting operation comes back.
func (d *Document) SendEdit(edit document.Edit) error {
	return d.send(&types.Message{Type: types.EditMessage, Edit: &edit})
}

// Identify changes the name and the color of the contributor.
func (d *Document) Identify(name, color string) error {
	d.contributor.Name = name
	d.contributor.Color = color
	contributor := d.contributor
	return d.send(&types.Message{Type: types.Identify, Contributor: &contributor})
}

// Save asks the server to write a checkpoint of the document.
func (d *Document) Save() error {
	return d.send(&types.Message{Type: types.Save})
}

// Close closes the connection to the document. The local replica is kept.
func (d *Document) Close() error {
	d.mu.RLock()
	conn, done := d.conn, d.done
	d.mu.RUnlock()

	select {
	case <-done:
		return nil
	default:
	}

	d.writeMu.Lock()
	err := conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	d.writeMu.Unlock()
	if err != nil {
		_ = conn.Close()
	}

	<-done
	return nil
}

func (d *Document) send(msg *types.Message) error {
	d.mu.RLock()
	conn, done := d.conn, d.done
	d.mu.RUnlock()

	select {
	case <-done:
		return ErrDocumentClosed
	default:
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

func (d *Document) readLoop(conn *websocket.Conn, markSynced func(), done chan struct{}) {
	defer close(done)
	defer func() {
		_ = conn.Close()
	}()

	for {
		msg := &types.Message{}
		if err := conn.ReadJSON(msg); err != nil {
			d.mu.Lock()
			d.closeErr = err
			d.mu.Unlock()
			return
		}

		if err := d.handle(msg, markSynced); err != nil {
			d.logger.Warn("handle message", zap.String("type", string(msg.Type)), zap.Error(err))
		}
	}
}

func (d *Document) handle(msg *types.Message, markSynced func()) error {
	switch msg.Type {
	case types.Snapshot:
		if err := d.restore(msg); err != nil {
			return err
		}
		markSynced()
		d.publish(Event{Type: SyncedEvent})
	case types.CatchUp:
		d.mu.Lock()
		for _, op := range msg.Operations {
			d.applyRemote(op)
		}
		d.mu.Unlock()
		markSynced()
		d.publish(Event{Type: SyncedEvent})
	case types.OpMessage:
		if msg.Op == nil {
			return fmt.Errorf("op without operation")
		}
		d.mu.Lock()
		applied := d.applyRemote(msg.Op)
		d.mu.Unlock()
		if applied {
			d.publish(Event{Type: RemoteChangeEvent})
		}
	case types.ContributorList:
		d.mu.Lock()
		d.contributors = msg.Contributors
		d.mu.Unlock()
		d.publish(Event{Type: ContributorsChangedEvent})
	case types.ContributorJoin:
		d.mu.Lock()
		d.upsertContributor(types.Contributor{ID: msg.ID, Name: msg.Name, Color: msg.Color})
		d.mu.Unlock()
		d.publish(Event{Type: ContributorsChangedEvent})
	case types.ContributorLeave:
		d.publish(Event{Type: ContributorsChangedEvent})
	case types.Peers:
		d.mu.Lock()
		d.peers = msg.Count
		d.mu.Unlock()
		d.publish(Event{Type: ContributorsChangedEvent})
	case types.Saved:
		d.publish(Event{Type: SavedEvent})
	case types.ErrorMessage:
		err := &RemoteError{Code: msg.Code, Message: msg.Description}
		d.mu.Lock()
		d.lastErr = err
		d.mu.Unlock()
		d.publish(Event{Type: ErrorEvent, Err: err})
	}
	return nil
}

// restore replaces the local replica with the snapshot. The restored
// replica gets a new actor.
func (d *Document) restore(msg *types.Message) error {
	state, err := converter.BytesToReplica(msg.Replica)
	if err != nil {
		return err
	}
	replica, err := document.Restore(state, document.WithActor(time.NewActorID()))
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.replica = replica
	d.table = attribution.New(msg.Attribution)
	d.retryDeferred()
	return nil
}

// applyRemote applies the operation, deferring it when its dependencies
// are missing. It reports whether anything was applied.
func (d *Document) applyRemote(op *operation.Operation) bool {
	if d.replica == nil || d.replica.Duplicate(op) {
		return false
	}

	changes, err := d.replica.ApplyRemote(op)
	if errors.Is(err, document.ErrMissingDependency) {
		for _, deferred := range d.deferred {
			if deferred.ID == op.ID {
				return false
			}
		}
		d.deferred = append(d.deferred, op)
		return false
	}
	if err != nil {
		d.logger.Warn("apply operation", zap.Error(err))
		return false
	}

	d.updateTable(op, changes)
	d.retryDeferred()
	return true
}

func (d *Document) retryDeferred() {
	for progress := true; progress && len(d.deferred) > 0; {
		progress = false

		remaining := d.deferred[:0]
		for _, op := range d.deferred {
			if d.replica.Duplicate(op) {
				continue
			}
			changes, err := d.replica.ApplyRemote(op)
			if errors.Is(err, document.ErrMissingDependency) {
				remaining = append(remaining, op)
				continue
			}
			if err != nil {
				d.logger.Warn("apply deferred operation", zap.Error(err))
				continue
			}
			d.updateTable(op, changes)
			progress = true
		}
		d.deferred = remaining
	}
}

func (d *Document) updateTable(op *operation.Operation, changes []document.Change) {
	if err := d.table.Update(op, changes); err != nil {
		d.table = attribution.Rebuild(d.replica)
	}
}

func (d *Document) upsertContributor(contributor types.Contributor) {
	for i, c := range d.contributors {
		if c.ID == contributor.ID {
			d.contributors[i].Name = contributor.Name
			d.contributors[i].Color = contributor.Color
			return
		}
	}
	d.contributors = append(d.contributors, contributor)
}

func (d *Document) publish(event Event) {
	select {
	case d.events <- event:
	default:
	}
}
