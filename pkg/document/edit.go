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

package document

import (
	"fmt"
	"strings"
)

// Edit replaces the visible lines [From, To) of a snapshot with Lines.
// Indexes are zero based. An insertion has From == To and a deletion has no
// Lines.
type Edit struct {
	From  int      `json:"from"`
	To    int      `json:"to"`
	Lines []string `json:"lines,omitempty"`
}

// InsertLines returns an edit inserting lines before the line at index.
func InsertLines(index int, lines ...string) Edit {
	return Edit{From: index, To: index, Lines: lines}
}

// DeleteLines returns an edit deleting the lines [from, to).
func DeleteLines(from, to int) Edit {
	return Edit{From: from, To: to}
}

// ReplaceLine returns an edit replacing the line at index with content.
func ReplaceLine(index int, content string) Edit {
	return Edit{From: index, To: index + 1, Lines: []string{content}}
}

// Validate checks the edit against a snapshot of the given number of lines.
func (e Edit) Validate(lineCount int) error {
	if e.From < 0 || e.To < e.From || e.To > lineCount {
		return fmt.Errorf("range [%d, %d) of %d lines: %w", e.From, e.To, lineCount, ErrInvalidEdit)
	}
	if e.From == e.To && len(e.Lines) == 0 {
		return fmt.Errorf("empty edit: %w", ErrInvalidEdit)
	}
	for _, line := range e.Lines {
		if strings.ContainsRune(line, '\n') {
			return fmt.Errorf("line with newline: %w", ErrInvalidEdit)
		}
	}

	return nil
}

// SplitLines splits text into lines. An empty text has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Diff returns the single edit that turns the text before into after. A
// text holding one empty line reads as no lines at all, so callers that have
// the lines at hand should use DiffLines.
func Diff(before, after string) (Edit, bool) {
	return DiffLines(SplitLines(before), SplitLines(after))
}

// DiffLines returns the single edit that turns oldLines into newLines,
// keeping the common leading and trailing lines untouched. The second result
// is false when both are equal.
func DiffLines(oldLines, newLines []string) (Edit, bool) {

	prefix := 0
	for prefix < len(oldLines) && prefix < len(newLines) && oldLines[prefix] == newLines[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(oldLines)-prefix && suffix < len(newLines)-prefix &&
		oldLines[len(oldLines)-1-suffix] == newLines[len(newLines)-1-suffix] {
		suffix++
	}

	edit := Edit{
		From: prefix,
		To:   len(oldLines) - suffix,
	}
	if added := newLines[prefix : len(newLines)-suffix]; len(added) > 0 {
		edit.Lines = append([]string(nil), added...)
	}
	if edit.From == edit.To && len(edit.Lines) == 0 {
		return Edit{}, false
	}
	return edit, true
}
