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

package httphelper

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/errors"
	"github.com/yorkie-team/sharenote/server/logging"
)

// WriteJSON writes v as the JSON body of a response with the given status.
func WriteJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(ctx).Warnf("write response: %v", err)
	}
}

// WriteError writes the error as an ErrorResponse. Internal errors are
// logged since the client only sees their code.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	status := ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.From(ctx).Error(err)
	}

	WriteJSON(ctx, w, status, &types.ErrorResponse{
		Code:    errors.CodeOf(err),
		Message: err.Error(),
	})
}
