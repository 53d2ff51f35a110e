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
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/yorkie-team/sharenote/pkg/attribution"
	"github.com/yorkie-team/sharenote/pkg/document"
	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/pkg/document/time"
)

// ReplicaToBytes encodes the state of the given replica.
func ReplicaToBytes(state *document.State) ([]byte, error) {
	doc := replicaDoc{
		Version:       encodingVersion,
		Lamport:       state.Lamport,
		VersionVector: toVectorDoc(state.VersionVector),
		Floor:         toVectorDoc(state.Floor),
	}
	for _, elem := range state.Elements {
		doc.Elements = append(doc.Elements, elementDoc{
			ID:          toTicketDoc(elem.ID),
			Content:     elem.Content,
			Removed:     elem.Removed,
			Contributor: elem.Writer.Contributor,
			OpID:        toOpIDDoc(elem.Writer.OpID),
			At:          elem.Writer.At,
		})
	}
	for _, op := range state.History {
		doc.History = append(doc.History, toOperationDoc(op))
	}

	bytes, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal replica: %w", err)
	}
	return bytes, nil
}

// AttributionToBytes encodes the given attribution table.
func AttributionToBytes(table *attribution.Table) ([]byte, error) {
	doc := attributionDoc{Version: encodingVersion}
	for _, e := range table.Entries() {
		doc.Entries = append(doc.Entries, entryDoc{
			Contributor: e.Contributor,
			OpID:        toOpIDDoc(e.OpID),
			At:          e.At,
		})
	}

	bytes, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal attribution: %w", err)
	}
	return bytes, nil
}

// Checksum returns the checksum stored next to persisted bytes.
func Checksum(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

func toVectorDoc(vector time.VersionVector) map[string]int64 {
	if len(vector) == 0 {
		return nil
	}

	doc := make(map[string]int64, len(vector))
	for actor, seq := range vector {
		doc[actor.String()] = seq
	}
	return doc
}

func toTicketDoc(t time.Ticket) ticketDoc {
	return ticketDoc{
		Lamport:   t.Lamport,
		Delimiter: int64(t.Delimiter),
		Actor:     t.Actor.Bytes(),
	}
}

func toOpIDDoc(id operation.ID) opIDDoc {
	return opIDDoc{
		Actor:   id.Actor.Bytes(),
		Seq:     id.Seq,
		Lamport: id.Lamport,
	}
}

func toOperationDoc(op *operation.Operation) operationDoc {
	doc := operationDoc{
		ID:          toOpIDDoc(op.ID),
		Contributor: op.Contributor,
		Deps:        toVectorDoc(op.Deps),
		CreatedAt:   op.CreatedAt,
		After:       toTicketDoc(op.After),
		Lines:       op.Lines,
	}
	for _, id := range op.Removes {
		doc.Removes = append(doc.Removes, toTicketDoc(id))
	}
	return doc
}
