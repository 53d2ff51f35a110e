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

// Package time provides the logical clocks of a replica: actor IDs, tickets
// that order line elements, and version vectors that track causality.
package time

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/xid"
)

const actorIDSize = 12

var (
	// InitialActorID is the actor of the seed content. Every replica seeded
	// from the same text shares it.
	InitialActorID = ActorID{}

	// ErrInvalidHexString is returned when the given string is not valid hex.
	ErrInvalidHexString = errors.New("invalid hex string")

	// ErrInvalidActorID is returned when the given ID is not valid.
	ErrInvalidActorID = errors.New("invalid actor id")
)

// ActorID identifies a replica. It is composed of 12 bytes, which is the
// size of an xid.
type ActorID [actorIDSize]byte

// NewActorID creates a new unique ActorID.
func NewActorID() ActorID {
	return ActorID(xid.New())
}

// ActorIDFromHex returns the ActorID represented by the hexadecimal string str.
func ActorIDFromHex(str string) (ActorID, error) {
	var id ActorID
	if str == "" {
		return id, fmt.Errorf("%s: %w", str, ErrInvalidHexString)
	}

	decoded, err := hex.DecodeString(str)
	if err != nil {
		return id, fmt.Errorf("%s: %w", str, ErrInvalidHexString)
	}
	if len(decoded) != actorIDSize {
		return id, fmt.Errorf("decoded length %d: %w", len(decoded), ErrInvalidHexString)
	}

	copy(id[:], decoded)
	return id, nil
}

// ActorIDFromBytes returns the ActorID of the given raw bytes.
func ActorIDFromBytes(b []byte) (ActorID, error) {
	var id ActorID
	if len(b) != actorIDSize {
		return id, fmt.Errorf("bytes length %d: %w", len(b), ErrInvalidActorID)
	}

	copy(id[:], b)
	return id, nil
}

// String returns the hexadecimal encoding of ActorID.
func (id ActorID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns a copy of the bytes of ActorID.
func (id ActorID) Bytes() []byte {
	b := make([]byte, actorIDSize)
	copy(b, id[:])
	return b
}

// Compare returns an integer comparing two ActorIDs lexicographically.
func (id ActorID) Compare(other ActorID) int {
	return bytes.Compare(id[:], other[:])
}

// MarshalText encodes the ActorID as hex so it can be used as a JSON key.
func (id ActorID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes the hex form produced by MarshalText.
func (id *ActorID) UnmarshalText(text []byte) error {
	decoded, err := ActorIDFromHex(string(text))
	if err != nil {
		return err
	}

	*id = decoded
	return nil
}
