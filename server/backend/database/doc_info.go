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
	"sort"
	"time"
)

// DocStatus is the activation state of a shared document.
type DocStatus string

const (
	// DocStatusActive means the document accepts edits.
	DocStatusActive DocStatus = "active"

	// DocStatusDeactivated means the document is read-only. It is terminal.
	DocStatusDeactivated DocStatus = "deactivated"
)

// ContributorInfo is a contributor that has joined the document.
type ContributorInfo struct {
	// ID is the identity of the contributor.
	ID string `bson:"id" json:"id"`

	// Name is the display name of the contributor.
	Name string `bson:"name" json:"name"`

	// Color is the display color of the contributor, e.g. "#268bd2".
	Color string `bson:"color" json:"color"`

	// LastSeen is the last time the contributor was connected.
	LastSeen time.Time `bson:"last_seen" json:"last_seen"`
}

// DocInfo is a structure representing information of a shared document.
type DocInfo struct {
	// Token is the share token of the document.
	Token string `bson:"_id"`

	// SourceKey is the key of the note the document was shared from.
	SourceKey string `bson:"source_key"`

	// Title is the title of the shared note.
	Title string `bson:"title"`

	// Seed is the content the document was created with. It is used when
	// the document has no checkpoint yet.
	Seed string `bson:"seed"`

	// Status is the activation state of the document.
	Status DocStatus `bson:"status"`

	// Contributors are the contributors that have joined the document.
	Contributors []*ContributorInfo `bson:"contributors"`

	// CreatedAt is the time when the document is created.
	CreatedAt time.Time `bson:"created_at"`

	// UpdatedAt is the time of the last checkpoint.
	UpdatedAt time.Time `bson:"updated_at"`

	// DeactivatedAt is the time when the document is deactivated.
	DeactivatedAt time.Time `bson:"deactivated_at"`
}

// IsDeactivated returns whether the document is deactivated.
func (info *DocInfo) IsDeactivated() bool {
	return info.Status == DocStatusDeactivated
}

// UpsertContributor adds the contributor or updates the existing one with
// the same ID.
func (info *DocInfo) UpsertContributor(contributor ContributorInfo) {
	for _, c := range info.Contributors {
		if c.ID == contributor.ID {
			*c = contributor
			return
		}
	}

	info.Contributors = append(info.Contributors, &contributor)
	sort.Slice(info.Contributors, func(i, j int) bool {
		return info.Contributors[i].ID < info.Contributors[j].ID
	})
}

// DeepCopy returns a deep copy of the DocInfo.
func (info *DocInfo) DeepCopy() *DocInfo {
	if info == nil {
		return nil
	}

	copied := *info
	copied.Contributors = make([]*ContributorInfo, 0, len(info.Contributors))
	for _, c := range info.Contributors {
		contributor := *c
		copied.Contributors = append(copied.Contributors, &contributor)
	}
	return &copied
}
