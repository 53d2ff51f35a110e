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

// Package httphelper provides helper functions for the HTTP and websocket
// handlers of the server.
package httphelper

import (
	"context"
	goerrors "errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/yorkie-team/sharenote/api/converter"
	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/errors"
	"github.com/yorkie-team/sharenote/server/backend/pubsub"
	"github.com/yorkie-team/sharenote/server/documents"
	"github.com/yorkie-team/sharenote/server/sessions"
)

// StatusClientClosedRequest is the status logged when the client went away
// before the response.
const StatusClientClosedRequest = 499

// errorToCloseCode maps an error to the close code of a document connection.
var errorToCloseCode = map[error]int{
	pubsub.ErrConnectionOverloaded: types.CloseConnectionOverloaded,
	sessions.ErrTokenNotFound:      types.CloseTokenNotFound,
	converter.ErrStorageCorruption: types.CloseStorageCorruption,
	documents.ErrActorClosed:       websocket.CloseGoingAway,
}

// ToHTTPStatus returns the HTTP status of the given error.
func ToHTTPStatus(err error) int {
	if goerrors.Is(err, context.Canceled) {
		return StatusClientClosedRequest
	}
	if goerrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	return errors.StatusOf(err).HTTPStatus()
}

// ToCloseCode returns the websocket close code of the given error. A nil
// error is a normal closure and an invalid argument a policy violation.
func ToCloseCode(err error) int {
	if err == nil {
		return websocket.CloseNormalClosure
	}

	for target, code := range errorToCloseCode {
		if goerrors.Is(err, target) {
			return code
		}
	}
	if errors.IsStatus(err, errors.ErrCodeInvalidArgument) {
		return websocket.ClosePolicyViolation
	}
	return websocket.CloseInternalServerErr
}

// CloseMessage returns the close frame payload of the given error.
func CloseMessage(err error) []byte {
	if err == nil {
		return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	}

	// Control frames carry at most 125 bytes, 2 of which are the code.
	reason := errors.CodeOf(err)
	if len(reason) > 123 {
		reason = reason[:123]
	}
	return websocket.FormatCloseMessage(ToCloseCode(err), reason)
}
