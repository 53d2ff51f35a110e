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

// Package sessions provides the registry of the shared documents loaded in
// this instance. Actors are loaded on first use and retired when idle.
package sessions

import (
	"context"
	goerrors "errors"
	"fmt"
	"sync/atomic"
	gotime "time"

	"github.com/google/uuid"
	"github.com/moby/locker"
	"golang.org/x/sync/errgroup"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/cmap"
	"github.com/yorkie-team/sharenote/pkg/document/time"
	"github.com/yorkie-team/sharenote/pkg/errors"
	"github.com/yorkie-team/sharenote/server/backend"
	"github.com/yorkie-team/sharenote/server/backend/database"
	"github.com/yorkie-team/sharenote/server/backend/pubsub"
	"github.com/yorkie-team/sharenote/server/documents"
	"github.com/yorkie-team/sharenote/server/logging"
)

// ErrTokenNotFound is returned when no shared document has the token.
var ErrTokenNotFound = errors.NotFound("token not found").WithCode("ErrTokenNotFound")

// maxAttempts is the number of times a request is tried on actors that
// retire under it.
const maxAttempts = 3

// CreateOptions describes the note a document is shared from.
type CreateOptions struct {
	SourceKey string
	Title     string
}

// Registry maps share tokens to the actors of their documents.
type Registry struct {
	be     *backend.Backend
	actors *cmap.Map[string, *documents.Actor]
	locks  *locker.Locker
	closed atomic.Bool
}

// New creates a new instance of Registry.
func New(be *backend.Backend) *Registry {
	return &Registry{
		be:     be,
		actors: cmap.New[string, *documents.Actor](),
		locks:  locker.New(),
	}
}

// Create creates a shared document seeded with the given text and returns
// its info. The document is loaded on first use.
func (r *Registry) Create(ctx context.Context, seed string, opts CreateOptions) (*database.DocInfo, error) {
	now := gotime.Now().UTC()
	info := &database.DocInfo{
		Token:     uuid.NewString(),
		SourceKey: opts.SourceKey,
		Title:     opts.Title,
		Seed:      seed,
		Status:    database.DocStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.be.DB.CreateDocInfo(ctx, info); err != nil {
		return nil, err
	}

	logging.From(ctx).Infof("document created: %s", info.Token)
	return info, nil
}

// Get returns the actor of the document, loading it if needed. Loading one
// document only locks its own token.
func (r *Registry) Get(ctx context.Context, token string) (*documents.Actor, error) {
	if r.closed.Load() {
		return nil, fmt.Errorf("%s: %w", token, documents.ErrActorClosed)
	}
	if actor, ok := r.actors.Get(token); ok && !actor.Closed() {
		return actor, nil
	}

	r.locks.Lock(token)
	defer func() {
		if err := r.locks.Unlock(token); err != nil {
			logging.From(ctx).Error(err)
		}
	}()

	if actor, ok := r.actors.Get(token); ok {
		if !actor.Closed() {
			return actor, nil
		}

		// The retiring actor writes its last checkpoint before the document
		// can be loaded again.
		select {
		case <-actor.Done():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		r.actors.DeleteIf(token, func(a *documents.Actor) bool {
			return a == actor
		})
	}

	info, err := r.be.DB.FindDocInfoByToken(ctx, token)
	if goerrors.Is(err, database.ErrDocumentNotFound) {
		return nil, fmt.Errorf("%s: %w", token, ErrTokenNotFound)
	}
	if err != nil {
		return nil, err
	}

	actor, err := documents.Load(ctx, r.be, info)
	if err != nil {
		return nil, err
	}
	if r.closed.Load() {
		if err := actor.Close(ctx); err != nil {
			logging.From(ctx).Warnf("close %s: %v", token, err)
		}
		return nil, fmt.Errorf("%s: %w", token, documents.ErrActorClosed)
	}
	r.actors.Set(token, actor)

	return actor, nil
}

// do runs fn on the actor of the document, again on a fresh actor when the
// one it got retired in between.
func (r *Registry) do(ctx context.Context, token string, fn func(actor *documents.Actor) error) error {
	var err error
	for i := 0; i < maxAttempts; i++ {
		var actor *documents.Actor
		if actor, err = r.Get(ctx, token); err != nil {
			return err
		}
		if err = fn(actor); !goerrors.Is(err, documents.ErrActorClosed) || r.closed.Load() {
			return err
		}
	}
	return err
}

// Join attaches a connection to the document. See documents.Actor.Join.
func (r *Registry) Join(
	ctx context.Context,
	token string,
	contributor types.Contributor,
	vector time.VersionVector,
) (*documents.Actor, *pubsub.Subscription, error) {
	var actor *documents.Actor
	var sub *pubsub.Subscription
	if err := r.do(ctx, token, func(a *documents.Actor) error {
		s, err := a.Join(ctx, contributor, vector)
		if err != nil {
			return err
		}
		actor, sub = a, s
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return actor, sub, nil
}

// Deactivate makes the document read-only. It is idempotent.
func (r *Registry) Deactivate(ctx context.Context, token string) error {
	return r.do(ctx, token, func(a *documents.Actor) error {
		return a.Deactivate(ctx)
	})
}

// Info returns the info of the document and its current text.
func (r *Registry) Info(ctx context.Context, token string) (*database.DocInfo, string, error) {
	var info *database.DocInfo
	var text string
	if err := r.do(ctx, token, func(a *documents.Actor) error {
		var err error
		if info, err = a.Info(ctx); err != nil {
			return err
		}
		text, _, err = a.Snapshot(ctx)
		return err
	}); err != nil {
		return nil, "", err
	}
	return info, text, nil
}

// Snapshot returns the text of the document.
func (r *Registry) Snapshot(ctx context.Context, token string) (string, error) {
	var text string
	if err := r.do(ctx, token, func(a *documents.Actor) error {
		var err error
		text, _, err = a.Snapshot(ctx)
		return err
	}); err != nil {
		return "", err
	}
	return text, nil
}

// Contributors returns the current contributors of the document.
func (r *Registry) Contributors(ctx context.Context, token string) ([]types.Contributor, error) {
	var contributors []types.Contributor
	if err := r.do(ctx, token, func(a *documents.Actor) error {
		var err error
		contributors, err = a.Contributors(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	return contributors, nil
}

// Attribution returns the attribution table of the document.
func (r *Registry) Attribution(ctx context.Context, token string) (*types.AttributionResponse, error) {
	var res *types.AttributionResponse
	if err := r.do(ctx, token, func(a *documents.Actor) error {
		var err error
		res, err = a.Attribution(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Len returns the number of loaded documents.
func (r *Registry) Len() int {
	return r.actors.Len()
}

// RetireIdle retires the documents that have had no connection for the
// idle grace period, and the deactivated ones without connections.
func (r *Registry) RetireIdle(ctx context.Context) error {
	idle := r.be.Config.ParseIdleGracePeriod()

	tasks := make(map[string]*documents.Actor)
	for _, actor := range r.actors.Values() {
		tasks[actor.Token()] = actor
	}

	retired, err := backend.FanOut(ctx, r.be, tasks, func(
		ctx context.Context,
		token string,
		actor *documents.Actor,
	) ([]string, error) {
		ok, err := actor.TryRetire(ctx, idle)
		if err != nil {
			return nil, fmt.Errorf("retire %s: %w", token, err)
		}
		if !ok {
			return nil, nil
		}

		r.actors.DeleteIf(token, func(a *documents.Actor) bool {
			return a == actor
		})
		return []string{token}, nil
	})

	if len(retired) > 0 {
		logging.From(ctx).Infof("HSKP: retired %d documents, %d loaded", len(retired), r.actors.Len())
	}
	return err
}

// Shutdown retires every document. Documents loaded afterwards fail with
// ErrActorClosed.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.closed.Store(true)

	group, ctx := errgroup.WithContext(ctx)
	for _, actor := range r.actors.Values() {
		group.Go(func() error {
			if err := actor.Close(ctx); err != nil {
				return fmt.Errorf("close %s: %w", actor.Token(), err)
			}
			r.actors.DeleteIf(actor.Token(), func(a *documents.Actor) bool {
				return a == actor
			})
			return nil
		})
	}

	return group.Wait()
}
