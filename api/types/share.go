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
	"github.com/yorkie-team/sharenote/pkg/attribution"
	"github.com/yorkie-team/sharenote/pkg/errors"
)

// ErrInvalidShareRequest is returned when a share request is invalid.
var ErrInvalidShareRequest = errors.InvalidArgument("invalid share request").WithCode("ErrInvalidShareRequest")

// CreateShareRequest is the body of a request creating a shared document.
type CreateShareRequest struct {
	SeedText  string `json:"seed_text"`
	SourceKey string `json:"source_key" validate:"max=512,single_line"`
	Title     string `json:"title" validate:"max=256,single_line"`
}

// Validate validates the request.
func (r *CreateShareRequest) Validate() error {
	if err := validation.ValidateStruct(r); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalidShareRequest)
	}
	return nil
}

// CreateShareResponse is the response of a created shared document.
type CreateShareResponse struct {
	Token string `json:"token"`
}

// ShareSummary describes a shared document.
type ShareSummary struct {
	Token         string      `json:"token"`
	SourceKey     string      `json:"source_key"`
	Title         string      `json:"title"`
	Status        string      `json:"status"`
	CreatedAt     gotime.Time `json:"created_at"`
	UpdatedAt     gotime.Time `json:"updated_at"`
	DeactivatedAt gotime.Time `json:"deactivated_at,omitzero"`

	// Text is the current snapshot. It is only set for a single document.
	Text string `json:"text,omitempty"`
}

// AttributionResponse is the attribution table of a shared document.
type AttributionResponse struct {
	Lines   []string            `json:"lines"`
	Entries []attribution.Entry `json:"entries"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
