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

package httphelper_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/api/converter"
	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/server/backend/pubsub"
	"github.com/yorkie-team/sharenote/server/documents"
	"github.com/yorkie-team/sharenote/server/rpc/httphelper"
	"github.com/yorkie-team/sharenote/server/sessions"
)

func TestStatus(t *testing.T) {
	t.Run("http status test", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, httphelper.ToHTTPStatus(
			fmt.Errorf("abc: %w", sessions.ErrTokenNotFound),
		))
		assert.Equal(t, http.StatusConflict, httphelper.ToHTTPStatus(documents.ErrTokenDeactivated))
		assert.Equal(t, http.StatusServiceUnavailable, httphelper.ToHTTPStatus(documents.ErrDocumentDegraded))
		assert.Equal(t, http.StatusBadRequest, httphelper.ToHTTPStatus(types.ErrInvalidShareRequest))
		assert.Equal(t, http.StatusInternalServerError, httphelper.ToHTTPStatus(fmt.Errorf("unknown")))
		assert.Equal(t, httphelper.StatusClientClosedRequest, httphelper.ToHTTPStatus(context.Canceled))
	})

	t.Run("close code test", func(t *testing.T) {
		assert.Equal(t, websocket.CloseNormalClosure, httphelper.ToCloseCode(nil))
		assert.Equal(t, types.CloseConnectionOverloaded, httphelper.ToCloseCode(pubsub.ErrConnectionOverloaded))
		assert.Equal(t, types.CloseTokenNotFound, httphelper.ToCloseCode(
			fmt.Errorf("abc: %w", sessions.ErrTokenNotFound),
		))
		assert.Equal(t, types.CloseStorageCorruption, httphelper.ToCloseCode(
			fmt.Errorf("abc: %w", converter.ErrStorageCorruption),
		))
		assert.Equal(t, websocket.CloseGoingAway, httphelper.ToCloseCode(documents.ErrActorClosed))
		assert.Equal(t, websocket.ClosePolicyViolation, httphelper.ToCloseCode(types.ErrInvalidContributor))
		assert.Equal(t, websocket.CloseInternalServerErr, httphelper.ToCloseCode(fmt.Errorf("unknown")))
	})
}
