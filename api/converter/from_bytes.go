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

package converter

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/yorkie-team/sharenote/pkg/attribution"
	"github.com/yorkie-team/sharenote/pkg/document"
	"github.com/yorkie-team/sharenote/pkg/document/crdt"
	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/pkg/document/time"
)

// VerifyChecksum checks the given bytes against the checksum they were
// stored with.
func VerifyChecksum(data []byte, checksum string) error {
	if Checksum(data) != checksum {
		return fmt.Errorf("checksum mismatch: %w", ErrStorageCorruption)
	}
	return nil
}

// BytesToReplica decodes a replica state encoded by ReplicaToBytes.
func BytesToReplica(data []byte) (*document.State, error) {
	var doc replicaDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal replica: %s: %w", err.Error(), ErrStorageCorruption)
	}
	if doc.Version != encodingVersion {
		return nil, fmt.Errorf("replica version %d: %s: %w", doc.Version, errUnsupportedVersion, ErrStorageCorruption)
	}

	state := &document.State{Lamport: doc.Lamport}
	var err error
	if state.VersionVector, err = fromVectorDoc(doc.VersionVector); err != nil {
		return nil, err
	}
	if state.Floor, err = fromVectorDoc(doc.Floor); err != nil {
		return nil, err
	}

	for _, e := range doc.Elements {
		id, err := fromTicketDoc(e.ID)
		if err != nil {
			return nil, err
		}
		opID, err := fromOpIDDoc(e.OpID)
		if err != nil {
			return nil, err
		}
		state.Elements = append(state.Elements, document.Element{
			ID:      id,
			Content: e.Content,
			Removed: e.Removed,
			Writer:  crdt.Writer{Contributor: e.Contributor, OpID: opID, At: e.At},
		})
	}

	for _, o := range doc.History {
		op, err := fromOperationDoc(o)
		if err != nil {
			return nil, err
		}
		state.History = append(state.History, op)
	}

	return state, nil
}

// BytesToAttribution decodes a table encoded by AttributionToBytes.
func BytesToAttribution(data []byte) (*attribution.Table, error) {
	var doc attributionDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal attribution: %s: %w", err.Error(), ErrStorageCorruption)
	}
	if doc.Version != encodingVersion {
		return nil, fmt.Errorf("attribution version %d: %s: %w", doc.Version, errUnsupportedVersion, ErrStorageCorruption)
	}

	entries := make([]attribution.Entry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		opID, err := fromOpIDDoc(e.OpID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, attribution.Entry{Contributor: e.Contributor, OpID: opID, At: e.At})
	}
	return attribution.New(entries), nil
}

func fromActor(b []byte) (time.ActorID, error) {
	actor, err := time.ActorIDFromBytes(b)
	if err != nil {
		return actor, fmt.Errorf("%s: %w", err.Error(), ErrStorageCorruption)
	}
	return actor, nil
}

func fromVectorDoc(doc map[string]int64) (time.VersionVector, error) {
	vector := time.NewVersionVector()
	for hex, seq := range doc {
		actor, err := time.ActorIDFromHex(hex)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", err.Error(), ErrStorageCorruption)
		}
		vector.Set(actor, seq)
	}
	return vector, nil
}

func fromTicketDoc(doc ticketDoc) (time.Ticket, error) {
	actor, err := fromActor(doc.Actor)
	if err != nil {
		return time.InitialTicket, err
	}
	return time.NewTicket(doc.Lamport, uint32(doc.Delimiter), actor), nil
}

func fromOpIDDoc(doc opIDDoc) (operation.ID, error) {
	actor, err := fromActor(doc.Actor)
	if err != nil {
		return operation.ID{}, err
	}
	return operation.ID{Actor: actor, Seq: doc.Seq, Lamport: doc.Lamport}, nil
}

func fromOperationDoc(doc operationDoc) (*operation.Operation, error) {
	id, err := fromOpIDDoc(doc.ID)
	if err != nil {
		return nil, err
	}
	deps, err := fromVectorDoc(doc.Deps)
	if err != nil {
		return nil, err
	}
	after, err := fromTicketDoc(doc.After)
	if err != nil {
		return nil, err
	}

	op := &operation.Operation{
		ID:          id,
		Contributor: doc.Contributor,
		Deps:        deps,
		CreatedAt:   doc.CreatedAt,
		After:       after,
		Lines:       doc.Lines,
	}
	for _, r := range doc.Removes {
		removed, err := fromTicketDoc(r)
		if err != nil {
			return nil, err
		}
		op.Removes = append(op.Removes, removed)
	}
	return op, nil
}
