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

// Package crdt provides RGALineList, a replicated growable array whose
// elements are the lines of a document.
package crdt

import (
	"errors"
	"fmt"
	"strings"
	gotime "time"

	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/pkg/document/time"
)

// ErrLineNotFound is returned when a line element cannot be found by its
// ticket.
var ErrLineNotFound = errors.New("line not found")

// Writer records the operation that created a line element.
type Writer struct {
	Contributor string
	OpID        operation.ID
	At          gotime.Time
}

// Line is an element of RGALineList. Removed lines stay in the list as
// tombstones so that concurrent operations can still refer to them.
type Line struct {
	id      time.Ticket
	content string
	writer  Writer
	removed bool

	prev *Line
	next *Line
}

// ID returns the ticket of the line.
func (l *Line) ID() time.Ticket {
	return l.id
}

// Content returns the text of the line without the line break.
func (l *Line) Content() string {
	return l.content
}

// Writer returns the writer of the line.
func (l *Line) Writer() Writer {
	return l.writer
}

// Removed returns whether the line is a tombstone.
func (l *Line) Removed() bool {
	return l.removed
}

// RGALineList is a list of lines ordered by the RGA rule: a line inserted
// after an anchor is placed before every following line whose ticket is
// smaller than its own. Concurrent inserts at the same anchor therefore end
// up in descending ticket order on every replica.
type RGALineList struct {
	head    *Line
	last    *Line
	byID    map[time.Ticket]*Line
	visible int
}

// NewRGALineList creates a new empty list.
func NewRGALineList() *RGALineList {
	head := &Line{id: time.InitialTicket, removed: true}
	return &RGALineList{
		head: head,
		last: head,
		byID: map[time.Ticket]*Line{time.InitialTicket: head},
	}
}

// Len returns the number of visible lines.
func (a *RGALineList) Len() int {
	return a.visible
}

// Has returns whether an element with the given ticket exists, including
// the head and tombstones.
func (a *RGALineList) Has(id time.Ticket) bool {
	_, ok := a.byID[id]
	return ok
}

// InsertAfter inserts a new line after the element prevID following the RGA
// rule and returns the visible index of the new line.
func (a *RGALineList) InsertAfter(prevID, id time.Ticket, content string, writer Writer) (int, error) {
	prev, ok := a.byID[prevID]
	if !ok {
		return 0, fmt.Errorf("insert after %s: %w", prevID, ErrLineNotFound)
	}
	if _, exists := a.byID[id]; exists {
		return 0, fmt.Errorf("insert %s: duplicated ticket", id)
	}

	for prev.next != nil && prev.next.id.After(id) {
		prev = prev.next
	}

	line := &Line{id: id, content: content, writer: writer}
	a.link(prev, line)
	a.visible++

	return a.indexOf(line), nil
}

// Append adds the given element at the end of the list as-is. It is used to
// restore a list from its encoded form, where the order is already decided.
func (a *RGALineList) Append(id time.Ticket, content string, writer Writer, removed bool) error {
	if _, exists := a.byID[id]; exists {
		return fmt.Errorf("append %s: duplicated ticket", id)
	}

	line := &Line{id: id, content: content, writer: writer, removed: removed}
	a.link(a.last, line)
	if !removed {
		a.visible++
	}
	return nil
}

// Remove tombstones the line with the given ticket. It returns the visible
// index the line had, and false if the line was already removed.
func (a *RGALineList) Remove(id time.Ticket) (int, bool, error) {
	line, ok := a.byID[id]
	if !ok || line == a.head {
		return 0, false, fmt.Errorf("remove %s: %w", id, ErrLineNotFound)
	}
	if line.removed {
		return 0, false, nil
	}

	index := a.indexOf(line)
	line.removed = true
	a.visible--
	return index, true, nil
}

// LineAt returns the visible line at the given index.
func (a *RGALineList) LineAt(index int) (*Line, error) {
	if index < 0 || index >= a.visible {
		return nil, fmt.Errorf("line at %d of %d: %w", index, a.visible, ErrLineNotFound)
	}

	i := 0
	for line := a.head.next; line != nil; line = line.next {
		if line.removed {
			continue
		}
		if i == index {
			return line, nil
		}
		i++
	}

	return nil, fmt.Errorf("line at %d: %w", index, ErrLineNotFound)
}

// AnchorBefore returns the ticket of the visible line just before the given
// index, or the head ticket when index is zero.
func (a *RGALineList) AnchorBefore(index int) (time.Ticket, error) {
	if index == 0 {
		return a.head.id, nil
	}

	line, err := a.LineAt(index - 1)
	if err != nil {
		return time.InitialTicket, err
	}
	return line.id, nil
}

// Lines returns the visible lines in order.
func (a *RGALineList) Lines() []*Line {
	lines := make([]*Line, 0, a.visible)
	for line := a.head.next; line != nil; line = line.next {
		if !line.removed {
			lines = append(lines, line)
		}
	}
	return lines
}

// Nodes returns every element after the head in order, tombstones included.
func (a *RGALineList) Nodes() []*Line {
	var nodes []*Line
	for line := a.head.next; line != nil; line = line.next {
		nodes = append(nodes, line)
	}
	return nodes
}

// String returns the visible lines joined by line breaks.
func (a *RGALineList) String() string {
	var builder strings.Builder
	for i, line := range a.Lines() {
		if i > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(line.content)
	}
	return builder.String()
}

// StructureAsString returns a string of every element for debugging,
// tombstones in brackets.
func (a *RGALineList) StructureAsString() string {
	var builder strings.Builder
	for line := a.head.next; line != nil; line = line.next {
		if line.removed {
			builder.WriteString(fmt.Sprintf("[%s:%s]", line.id, line.content))
		} else {
			builder.WriteString(fmt.Sprintf("(%s:%s)", line.id, line.content))
		}
	}
	return builder.String()
}

func (a *RGALineList) link(prev, line *Line) {
	next := prev.next
	prev.next = line
	line.prev = prev
	line.next = next
	if next != nil {
		next.prev = line
	}
	if prev == a.last {
		a.last = line
	}
	a.byID[line.id] = line
}

func (a *RGALineList) indexOf(target *Line) int {
	index := 0
	for line := a.head.next; line != nil && line != target; line = line.next {
		if !line.removed {
			index++
		}
	}
	return index
}
