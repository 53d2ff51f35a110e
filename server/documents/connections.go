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
	"fmt"

	"github.com/yorkie-team/sharenote/api/converter"
	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/document/time"
	"github.com/yorkie-team/sharenote/server/backend/database"
	"github.com/yorkie-team/sharenote/server/backend/pubsub"
)

// Join attaches a connection of the contributor. The first message of the
// returned subscription is a catch-up with the operations the given state
// vector lacks, or a snapshot when catching up is not possible.
func (a *Actor) Join(
	ctx context.Context,
	contributor types.Contributor,
	vector time.VersionVector,
) (*pubsub.Subscription, error) {
	var sub *pubsub.Subscription
	var err error
	if callErr := a.call(ctx, func() {
		sub, err = a.join(contributor, vector)
	}); callErr != nil {
		return nil, callErr
	}
	return sub, err
}

func (a *Actor) join(contributor types.Contributor, vector time.VersionVector) (*pubsub.Subscription, error) {
	msg, err := a.syncMessage(vector)
	if err != nil {
		return nil, err
	}

	info := a.upsertContributor(contributor)
	sub := pubsub.NewSubscription(info.ID, a.be.Config.OutboundQueueSize)
	first := a.subs.ActiveCount(info.ID) == 0
	a.subs.Add(sub)
	a.be.Metrics.AddConnections(a.be.Config.Hostname)

	sub.Publish(msg)
	sub.Publish(a.contributorsMessage())
	if first {
		a.broadcast(&types.Message{
			Type:  types.ContributorJoin,
			ID:    info.ID,
			Name:  info.Name,
			Color: info.Color,
		}, sub.ID())
	}
	a.broadcast(a.peersMessage(), "")

	return sub, nil
}

// upsertContributor records the contributor, keeping the known name and
// color when the given ones are empty. A contributor without any color is
// assigned one from the palette.
func (a *Actor) upsertContributor(contributor types.Contributor) database.ContributorInfo {
	info := database.ContributorInfo{
		ID:       contributor.ID,
		Name:     contributor.Name,
		Color:    contributor.Color,
		LastSeen: a.now(),
	}
	if known := a.contributor(contributor.ID); known != nil {
		if info.Name == "" {
			info.Name = known.Name
		}
		if info.Color == "" {
			info.Color = known.Color
		}
	}
	if info.Name == "" {
		info.Name = info.ID
	}
	if info.Color == "" {
		info.Color = types.Palette[a.colorIndex%len(types.Palette)]
		a.colorIndex++
	}

	a.info.UpsertContributor(info)
	a.infoDirty = true
	a.idleSince = a.now()
	return info
}

func (a *Actor) contributor(id string) *database.ContributorInfo {
	for _, c := range a.info.Contributors {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// syncMessage returns what a connection at the given state vector needs.
// An empty vector means the connection has nothing, not even the seed.
func (a *Actor) syncMessage(vector time.VersionVector) (*types.Message, error) {
	if len(vector) > 0 {
		ops, ok := a.replica.MissingFrom(vector)
		if ok && len(ops) <= a.be.Config.SnapshotThreshold {
			return &types.Message{
				Type:        types.CatchUp,
				Operations:  ops,
				StateVector: a.replica.VersionVector(),
			}, nil
		}
		a.be.Metrics.AddResyncs(a.be.Config.Hostname, "join")
	}

	return a.snapshotMessage()
}

func (a *Actor) snapshotMessage() (*types.Message, error) {
	replica, err := converter.ReplicaToBytes(a.replica.Export())
	if err != nil {
		return nil, err
	}

	return &types.Message{
		Type:        types.Snapshot,
		Text:        a.replica.Snapshot(),
		Attribution: a.table.Entries(),
		StateVector: a.replica.VersionVector(),
		Replica:     replica,
	}, nil
}

func (a *Actor) contributorsMessage() *types.Message {
	return &types.Message{
		Type:         types.ContributorList,
		Contributors: a.contributorList(),
	}
}

func (a *Actor) peersMessage() *types.Message {
	return &types.Message{
		Type:  types.Peers,
		Count: a.subs.Len(),
	}
}

// contributorList returns the connected contributors and the ones seen
// within the grace period.
func (a *Actor) contributorList() []types.Contributor {
	now := a.now()

	var contributors []types.Contributor
	for _, c := range a.info.Contributors {
		lastSeen := c.LastSeen
		if a.subs.ActiveCount(c.ID) > 0 {
			lastSeen = now
		} else if now.Sub(c.LastSeen) > a.contributorGracePeriod {
			continue
		}

		contributors = append(contributors, types.Contributor{
			ID:       c.ID,
			Name:     c.Name,
			Color:    c.Color,
			LastSeen: lastSeen,
		})
	}
	return contributors
}

// pruneContributors forgets the contributors that have been disconnected
// for longer than the grace period.
func (a *Actor) pruneContributors() {
	now := a.now()
	before := len(a.info.Contributors)

	kept := a.info.Contributors[:0]
	for _, c := range a.info.Contributors {
		if a.subs.ActiveCount(c.ID) == 0 && now.Sub(c.LastSeen) > a.contributorGracePeriod {
			continue
		}
		kept = append(kept, c)
	}
	a.info.Contributors = kept

	if len(kept) != before {
		a.infoDirty = true
		a.logger.Debugf("pruned %d contributors", before-len(kept))
	}
}

// Leave detaches the connection. Leaving twice is a no-op.
func (a *Actor) Leave(ctx context.Context, subID string) error {
	return a.call(ctx, func() {
		a.detach(subID)
	})
}

// detach removes the subscription and tells the remaining connections.
func (a *Actor) detach(subID string) {
	sub, ok := a.subs.Remove(subID)
	if !ok {
		return
	}
	a.be.Metrics.RemoveConnections(a.be.Config.Hostname)
	if sub.Err() != nil {
		a.be.Metrics.AddOverloadedDisconnects(a.be.Config.Hostname)
		a.logger.Warnf("connection %s of %s dropped: %v", subID, sub.Contributor(), sub.Err())
	}

	for _, d := range a.deferred {
		if d.origin == subID {
			d.origin = ""
		}
	}

	now := a.now()
	if c := a.contributor(sub.Contributor()); c != nil {
		c.LastSeen = now
		a.infoDirty = true
	}
	if a.subs.ActiveCount(sub.Contributor()) == 0 {
		a.broadcast(&types.Message{Type: types.ContributorLeave, ID: sub.Contributor()}, "")
	}
	a.broadcast(a.peersMessage(), "")

	if a.subs.Len() == 0 {
		a.idleSince = now
	}
}

// broadcast sends the message to every connection except exclude. The
// connections that cannot keep up are detached.
func (a *Actor) broadcast(msg *types.Message, exclude string) {
	for _, sub := range a.subs.Publish(msg, exclude) {
		a.detach(sub.ID())
	}
}

// Identify changes the name or the color of the contributor of the
// connection and sends the new list of contributors to every connection.
func (a *Actor) Identify(ctx context.Context, subID string, contributor types.Contributor) error {
	var err error
	if callErr := a.call(ctx, func() {
		err = a.identify(subID, contributor)
	}); callErr != nil {
		return callErr
	}
	return err
}

func (a *Actor) identify(subID string, contributor types.Contributor) error {
	sub, ok := a.subs.Get(subID)
	if !ok {
		return fmt.Errorf("%s: %w", subID, ErrSubscriptionNotFound)
	}
	if contributor.ID != sub.Contributor() {
		return fmt.Errorf(
			"identify %s as %s: %w",
			sub.Contributor(),
			contributor.ID,
			types.ErrInvalidContributor,
		)
	}

	a.upsertContributor(contributor)
	a.broadcast(a.contributorsMessage(), "")
	return nil
}
