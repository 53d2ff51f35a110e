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

package sqlite

import "errors"

// ErrEmptyPath is returned when the database path is empty.
var ErrEmptyPath = errors.New("sqlite path cannot be empty")

// Config is the configuration for opening a SQLite database.
type Config struct {
	// Path is the file path of the database.
	Path string `yaml:"Path"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.Path == "" {
		return ErrEmptyPath
	}

	return nil
}
