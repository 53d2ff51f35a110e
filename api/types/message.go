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

// Package types provides the types exchanged between the server and the
// clients of shared documents.
package types

import (
	"github.com/yorkie-team/sharenote/pkg/attribution"
	"github.com/yorkie-team/sharenote/pkg/document"
	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/pkg/document/time"
)

// MessageType is the type of a message on a document connection.
type MessageType string

// Messages sent by clients.
const (
	// SyncRequest is sent on connect with the last known state vector.
	SyncRequest MessageType = "sync-request"

	// OpMessage carries a single operation. Servers send it too.
	OpMessage MessageType = "op"

	// EditMessage carries an edit for clients without a local replica.
	EditMessage MessageType = "edit"

	// Identify changes the name or color of the contributor.
	Identify MessageType = "identify"

	// Save asks for a checkpoint.
	Save MessageType = "save"
)

// Messages sent by servers.
const (
	// CatchUp carries the operations the client is missing.
	CatchUp MessageType = "catch-up"

	// Snapshot carries the whole document.
	Snapshot MessageType = "snapshot"

	// ContributorJoin tells that a contributor connected.
	ContributorJoin MessageType = "contributor-join"

	// ContributorLeave tells that the last connection of a contributor closed.
	ContributorLeave MessageType = "contributor-leave"

	// ContributorList carries every known contributor.
	ContributorList MessageType = "contributors"

	// Peers carries the number of open connections.
	Peers MessageType = "peers"

	// Saved tells that a checkpoint requested by Save succeeded.
	Saved MessageType = "saved"

	// ErrorMessage reports a rejected request.
	ErrorMessage MessageType = "error"
)

// Close codes of document connections.
const (
	// CloseConnectionOverloaded means the connection fell behind. The client
	// should reconnect with an empty state vector.
	CloseConnectionOverloaded = 4001

	// CloseTokenNotFound means the token is unknown.
	CloseTokenNotFound = 4004

	// CloseStorageCorruption means the document could not be loaded.
	CloseStorageCorruption = 4010
)

// Message is the envelope of everything sent over a document connection.
// Only the fields of its Type are set.
type Message struct {
	Type MessageType `json:"type"`

	// sync-request
	StateVector time.VersionVector `json:"state_vector,omitempty"`
	Contributor *Contributor       `json:"contributor,omitempty"`

	// op, edit, catch-up
	Op         *operation.Operation   `json:"op,omitempty"`
	Edit       *document.Edit         `json:"edit,omitempty"`
	Operations []*operation.Operation `json:"operations,omitempty"`

	// snapshot
	Text        string              `json:"text,omitempty"`
	Attribution []attribution.Entry `json:"attribution,omitempty"`
	Replica     []byte              `json:"replica,omitempty"`

	// contributor-join, contributor-leave
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`

	// contributors, peers
	Contributors []Contributor `json:"contributors,omitempty"`
	Count        int           `json:"count,omitempty"`

	// error
	Code        string `json:"code,omitempty"`
	Description string `json:"message,omitempty"`
}

// NewOpMessage creates an op message.
func NewOpMessage(op *operation.Operation) *Message {
	return &Message{Type: OpMessage, Op: op}
}

// NewErrorMessage creates an error message.
func NewErrorMessage(code, description string) *Message {
	return &Message{Type: ErrorMessage, Code: code, Description: description}
}
