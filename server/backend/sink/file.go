/*
 * Copyright 2025 The Yorkie Authors. All rights reserved.
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

package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// File writes each snapshot to <dir>/<token>.md, replacing the previous one.
type File struct {
	dir string
}

// NewFile creates a sink writing under dir.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

// Path returns the path of the snapshot file of the token.
func (f *File) Path(token string) string {
	return filepath.Join(f.dir, token+".md")
}

// Push writes the snapshot. Readers never see a partially written file.
func (f *File) Push(_ context.Context, snapshot *Snapshot) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, "."+snapshot.Token+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot of %s: %w", snapshot.Token, err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.WriteString(snapshot.Text); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot of %s: %w", snapshot.Token, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot of %s: %w", snapshot.Token, err)
	}
	if err := os.Rename(tmp.Name(), f.Path(snapshot.Token)); err != nil {
		return fmt.Errorf("rename snapshot of %s: %w", snapshot.Token, err)
	}

	return nil
}
