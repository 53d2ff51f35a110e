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

// Package converter provides the persisted encoding of replicas and
// attribution tables. Both are encoded as BSON documents, which the mongo
// database also stores natively.
package converter

import (
	gotime "time"
)

const encodingVersion = 1

type ticketDoc struct {
	Lamport   int64  `bson:"l"`
	Delimiter int64  `bson:"d"`
	Actor     []byte `bson:"a"`
}

type opIDDoc struct {
	Actor   []byte `bson:"a"`
	Seq     int64  `bson:"s"`
	Lamport int64  `bson:"l"`
}

type elementDoc struct {
	ID          ticketDoc   `bson:"id"`
	Content     string      `bson:"c"`
	Removed     bool        `bson:"r,omitempty"`
	Contributor string      `bson:"w"`
	OpID        opIDDoc     `bson:"o"`
	At          gotime.Time `bson:"t"`
}

type operationDoc struct {
	ID          opIDDoc          `bson:"id"`
	Contributor string           `bson:"contributor"`
	Deps        map[string]int64 `bson:"deps,omitempty"`
	CreatedAt   gotime.Time      `bson:"created_at"`
	Removes     []ticketDoc      `bson:"removes,omitempty"`
	After       ticketDoc        `bson:"after"`
	Lines       []string         `bson:"lines,omitempty"`
}

type replicaDoc struct {
	Version       int              `bson:"v"`
	Lamport       int64            `bson:"lamport"`
	VersionVector map[string]int64 `bson:"version_vector,omitempty"`
	Floor         map[string]int64 `bson:"floor,omitempty"`
	Elements      []elementDoc     `bson:"elements,omitempty"`
	History       []operationDoc   `bson:"history,omitempty"`
}

type entryDoc struct {
	Contributor string      `bson:"w"`
	OpID        opIDDoc     `bson:"o"`
	At          gotime.Time `bson:"t"`
}

type attributionDoc struct {
	Version int        `bson:"v"`
	Entries []entryDoc `bson:"entries,omitempty"`
}
