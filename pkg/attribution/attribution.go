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

// Package attribution maintains which contributor last wrote each line of a
// document. The table is derived from a replica and updated incrementally
// from the line changes of each applied operation.
package attribution

import (
	"fmt"
	gotime "time"

	"github.com/yorkie-team/sharenote/pkg/document"
	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/pkg/errors"
)

// ErrUnresolvedLines is returned when the changes of an operation do not fit
// the table. The table is left untouched and must be rebuilt.
var ErrUnresolvedLines = errors.FailedPrecond("unresolved lines").WithCode("ErrUnresolvedLines")

// Entry is the attribution of one line.
type Entry struct {
	Contributor string       `json:"contributor"`
	OpID        operation.ID `json:"op_id"`
	At          gotime.Time  `json:"at"`
}

// Table holds one entry per line of a snapshot, in line order.
type Table struct {
	entries []Entry
}

// New creates a table of the given entries.
func New(entries []Entry) *Table {
	return &Table{entries: append([]Entry(nil), entries...)}
}

// Rebuild creates the table of the current lines of a replica from the
// writers recorded on its line elements.
func Rebuild(store document.Store) *Table {
	lines := store.Lines()
	t := &Table{entries: make([]Entry, 0, len(lines))}
	for _, line := range lines {
		t.entries = append(t.entries, Entry{
			Contributor: line.Contributor,
			OpID:        line.OpID,
			At:          line.At,
		})
	}
	return t
}

// Len returns the number of lines in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// At returns the entry of the line at index.
func (t *Table) At(index int) (Entry, bool) {
	if index < 0 || index >= len(t.entries) {
		return Entry{}, false
	}
	return t.entries[index], true
}

// Entries returns a copy of the entries.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Contributors returns the number of lines attributed to each contributor.
func (t *Table) Contributors() map[string]int {
	counts := make(map[string]int)
	for _, e := range t.entries {
		counts[e.Contributor]++
	}
	return counts
}

// Update applies the line changes of an applied operation. Removed lines
// lose their entries and inserted lines get the operation's contributor.
// Every other entry is kept as is. Nothing changes when any change cannot
// be resolved.
func (t *Table) Update(op *operation.Operation, changes []document.Change) error {
	length := len(t.entries)
	for _, c := range changes {
		switch c.Type {
		case document.LineRemoved:
			if c.Index < 0 || c.Index >= length {
				return fmt.Errorf("remove %d of %d by %s: %w", c.Index, length, op.ID, ErrUnresolvedLines)
			}
			length--
		case document.LineInserted:
			if c.Index < 0 || c.Index > length {
				return fmt.Errorf("insert %d of %d by %s: %w", c.Index, length, op.ID, ErrUnresolvedLines)
			}
			length++
		}
	}

	entry := Entry{Contributor: op.Contributor, OpID: op.ID, At: op.CreatedAt}
	for _, c := range changes {
		switch c.Type {
		case document.LineRemoved:
			t.entries = append(t.entries[:c.Index], t.entries[c.Index+1:]...)
		case document.LineInserted:
			t.entries = append(t.entries, Entry{})
			copy(t.entries[c.Index+1:], t.entries[c.Index:])
			t.entries[c.Index] = entry
		}
	}

	return nil
}
