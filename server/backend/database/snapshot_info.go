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

package database

import (
	"time"
)

// SnapshotInfo is the checkpoint of a shared document.
type SnapshotInfo struct {
	// Token is the share token of the document.
	Token string `bson:"_id"`

	// Replica is the encoded replica state.
	Replica []byte `bson:"replica"`

	// Attribution is the encoded attribution table.
	Attribution []byte `bson:"attribution"`

	// Checksum is the checksum of Replica.
	Checksum string `bson:"checksum"`

	// Seq increases with every checkpoint of the document.
	Seq int64 `bson:"seq"`

	// CreatedAt is the time when the checkpoint is taken.
	CreatedAt time.Time `bson:"created_at"`
}

// DeepCopy returns a deep copy of the SnapshotInfo.
func (info *SnapshotInfo) DeepCopy() *SnapshotInfo {
	if info == nil {
		return nil
	}

	copied := *info
	copied.Replica = append([]byte(nil), info.Replica...)
	copied.Attribution = append([]byte(nil), info.Attribution...)
	return &copied
}
