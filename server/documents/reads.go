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

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/document/time"
	"github.com/yorkie-team/sharenote/server/backend/database"
)

// Info returns a copy of the document info as the actor sees it, which may
// be ahead of the database.
func (a *Actor) Info(ctx context.Context) (*database.DocInfo, error) {
	var info *database.DocInfo
	if err := a.call(ctx, func() {
		info = a.info.DeepCopy()
	}); err != nil {
		return nil, err
	}
	return info, nil
}

// Snapshot returns the plain text of the document and its state vector.
func (a *Actor) Snapshot(ctx context.Context) (string, time.VersionVector, error) {
	var text string
	var vector time.VersionVector
	if err := a.call(ctx, func() {
		text = a.replica.Snapshot()
		vector = a.replica.VersionVector()
	}); err != nil {
		return "", nil, err
	}
	return text, vector, nil
}

// Attribution returns the lines of the document along with who last wrote
// each of them.
func (a *Actor) Attribution(ctx context.Context) (*types.AttributionResponse, error) {
	var res *types.AttributionResponse
	if err := a.call(ctx, func() {
		res = &types.AttributionResponse{
			Lines:   a.replica.Contents(),
			Entries: a.table.Entries(),
		}
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Contributors returns the connected contributors and the ones that left
// within the grace period.
func (a *Actor) Contributors(ctx context.Context) ([]types.Contributor, error) {
	var contributors []types.Contributor
	if err := a.call(ctx, func() {
		contributors = a.contributorList()
	}); err != nil {
		return nil, err
	}
	return contributors, nil
}

// Peers returns the number of attached connections.
func (a *Actor) Peers(ctx context.Context) (int, error) {
	var count int
	if err := a.call(ctx, func() {
		count = a.subs.Len()
	}); err != nil {
		return 0, err
	}
	return count, nil
}

// Degraded returns whether local edits are rejected because checkpoints
// keep failing.
func (a *Actor) Degraded(ctx context.Context) (bool, error) {
	var degraded bool
	if err := a.call(ctx, func() {
		degraded = a.degraded
	}); err != nil {
		return false, err
	}
	return degraded, nil
}
