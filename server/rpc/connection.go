/*
 * Copyright 2021 The Yorkie Authors. All rights reserved.
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
package rpc

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/errors"
	"github.com/yorkie-team/sharenote/server/backend/pubsub"
	"github.com/yorkie-team/sharenote/server/documents"
	"github.com/yorkie-team/sharenote/server/logging"
	"github.com/yorkie-team/sharenote/server/rpc/httphelper"
)

// ErrInvalidMessage is returned when a message of a document connection
// cannot be handled.
var ErrInvalidMessage = errors.InvalidArgument("invalid message").WithCode("ErrInvalidMessage")

// errServerShutdown is the reason connections are closed on shutdown.
var errServerShutdown = fmt.Errorf("server shutdown: %w", documents.ErrActorClosed)

// connect upgrades the request to a document connection. The first message
// of the client must be a sync-request.
func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	if !s.trackConnection() {
		http.Error(w, "server shutdown", http.StatusServiceUnavailable)
		return
	}
	defer s.connections.Done()

	token := mux.Vars(r)["token"]
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logging.From(r.Context()).Warnf("upgrade %s: %v", token, err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(s.serviceCtx)
	defer cancel()
	logger := logging.From(r.Context()).With("token", token)
	ctx = logging.With(ctx, logger)

	c := &connection{
		server: s,
		conn:   conn,
		ping:   s.conf.ParsePingInterval(),
		write:  s.conf.ParseWriteTimeout(),
	}
	conn.SetReadLimit(s.conf.MaxRequestBytes)
	c.extendReadDeadline()
	conn.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	req, err := c.readSyncRequest()
	if err != nil {
		logger.Debugf("reject connection: %v", err)
		c.close(err)
		return
	}

	actor, sub, err := s.registry.Join(ctx, token, *req.Contributor, req.StateVector)
	if err != nil {
		if !goerrors.Is(err, documents.ErrActorClosed) {
			logger.Warnf("join: %v", err)
		}
		c.close(err)
		return
	}
	logger = logger.With("conn", sub.ID())
	ctx = logging.With(ctx, logger)
	c.actor, c.sub = actor, sub

	readerDone := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop(ctx, readerDone)
	}()

	c.readLoop(ctx)
	close(readerDone)
	<-writerDone

	if err := actor.Leave(context.Background(), sub.ID()); err != nil &&
		!goerrors.Is(err, documents.ErrActorClosed) {
		logger.Warnf("leave: %v", err)
	}
}

// trackConnection adds a document connection unless the server is shutting
// down.
func (s *Server) trackConnection() bool {
	s.closingLock.Lock()
	defer s.closingLock.Unlock()

	if s.closing {
		return false
	}
	s.connections.Add(1)
	return true
}

// connection is a websocket connection to a document.
type connection struct {
	server *Server
	conn   *websocket.Conn
	actor  *documents.Actor
	sub    *pubsub.Subscription

	ping  time.Duration
	write time.Duration
}

func (c *connection) extendReadDeadline() {
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * c.ping))
}

func (c *connection) readSyncRequest() (*types.Message, error) {
	req := &types.Message{}
	if err := c.conn.ReadJSON(req); err != nil {
		return nil, fmt.Errorf("read sync-request: %s: %w", err.Error(), ErrInvalidMessage)
	}
	if req.Type != types.SyncRequest {
		return nil, fmt.Errorf("expected %s, got %s: %w", types.SyncRequest, req.Type, ErrInvalidMessage)
	}
	if req.Contributor == nil {
		return nil, fmt.Errorf("sync-request without contributor: %w", types.ErrInvalidContributor)
	}
	if err := req.Contributor.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// close sends a close frame with the code of the given reason.
func (c *connection) close(reason error) {
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		httphelper.CloseMessage(reason),
		time.Now().Add(c.write),
	)
}

// writeLoop sends the messages of the subscription and pings until the
// subscription closes or the reader is done. The connection is closed on
// return, which stops the reader.
func (c *connection) writeLoop(ctx context.Context, readerDone <-chan struct{}) {
	defer func() {
		_ = c.conn.Close()
	}()

	ticker := time.NewTicker(c.ping)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.sub.Events():
			if err := c.sub.Err(); err != nil || !ok {
				c.close(err)
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.write))
			if err := c.conn.WriteJSON(msg); err != nil {
				logging.From(ctx).Debugf("write: %v", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(
				websocket.PingMessage,
				nil,
				time.Now().Add(c.write),
			); err != nil {
				logging.From(ctx).Debugf("ping: %v", err)
				return
			}
		case <-ctx.Done():
			c.close(errServerShutdown)
			return
		case <-readerDone:
			return
		}
	}
}

// readLoop handles the messages of the client until the connection fails.
// Rejected messages are answered with an error message.
func (c *connection) readLoop(ctx context.Context) {
	limiter := rate.NewLimiter(rate.Limit(c.server.conf.InboundRateLimit), c.server.conf.InboundBurst)

	for {
		msg := &types.Message{}
		if err := c.conn.ReadJSON(msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				logging.Enabled(zap.DebugLevel) {
				logging.From(ctx).Debugf("read: %v", err)
			}
			return
		}
		c.extendReadDeadline()

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		if err := c.handle(ctx, msg); err != nil {
			if goerrors.Is(err, documents.ErrActorClosed) {
				return
			}
			c.sub.Publish(types.NewErrorMessage(errors.CodeOf(err), err.Error()))
		}
	}
}

func (c *connection) handle(ctx context.Context, msg *types.Message) error {
	switch msg.Type {
	case types.OpMessage:
		if msg.Op == nil {
			return fmt.Errorf("op without operation: %w", ErrInvalidMessage)
		}
		return c.actor.Push(ctx, c.sub.ID(), msg.Op)
	case types.EditMessage:
		if msg.Edit == nil {
			return fmt.Errorf("edit without edit: %w", ErrInvalidMessage)
		}
		_, err := c.actor.Edit(ctx, c.sub.ID(), *msg.Edit)
		return err
	case types.Identify:
		if msg.Contributor == nil {
			return fmt.Errorf("identify without contributor: %w", types.ErrInvalidContributor)
		}
		if err := msg.Contributor.Validate(); err != nil {
			return err
		}
		return c.actor.Identify(ctx, c.sub.ID(), *msg.Contributor)
	case types.Save:
		return c.actor.Save(ctx, c.sub.ID())
	default:
		return fmt.Errorf("unexpected %q: %w", msg.Type, ErrInvalidMessage)
	}
}
