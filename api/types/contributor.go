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

package types

import (
	"fmt"
	gotime "time"

	"github.com/yorkie-team/sharenote/internal/validation"
	"github.com/yorkie-team/sharenote/pkg/errors"
)

// ErrInvalidContributor is returned when a contributor identity is invalid.
var ErrInvalidContributor = errors.InvalidArgument("invalid contributor").WithCode("ErrInvalidContributor")

// Palette is the set of colors assigned to contributors that do not pick one.
var Palette = []string{
	"#b58900",
	"#cb4b16",
	"#dc322f",
	"#d33682",
	"#6c71c4",
	"#268bd2",
	"#2aa198",
	"#859900",
}

// Contributor is a person editing a shared document.
type Contributor struct {
	ID       string      `json:"id" validate:"required,case_sensitive_slug,max=64"`
	Name     string      `json:"name" validate:"max=128,single_line"`
	Color    string      `json:"color" validate:"omitempty,hexcolor"`
	LastSeen gotime.Time `json:"last_seen,omitzero"`
}

// Validate validates the contributor identity.
func (c *Contributor) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalidContributor)
	}
	return nil
}
