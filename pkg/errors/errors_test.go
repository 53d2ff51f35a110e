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

package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	errs "github.com/yorkie-team/sharenote/pkg/errors"
)

func TestStatusError(t *testing.T) {
	errTokenNotFound := errs.NotFound("token not found").WithCode("ErrTokenNotFound")

	t.Run("wrapped status test", func(t *testing.T) {
		err := fmt.Errorf("abc: %w", errTokenNotFound)

		assert.ErrorIs(t, err, errTokenNotFound)
		assert.True(t, errs.IsStatus(err, errs.ErrCodeNotFound))
		assert.Equal(t, "ErrTokenNotFound", errs.CodeOf(err))
		assert.Equal(t, http.StatusNotFound, errs.StatusOf(err).HTTPStatus())
		assert.Equal(t, "abc: token not found", err.Error())
	})

	t.Run("plain error test", func(t *testing.T) {
		err := errors.New("boom")

		assert.Equal(t, errs.StatusCode(0), errs.StatusOf(err))
		assert.Equal(t, "ErrInternal", errs.CodeOf(err))
		assert.Equal(t, http.StatusInternalServerError, errs.StatusOf(err).HTTPStatus())
	})

	t.Run("with code keeps identity of message test", func(t *testing.T) {
		base := errs.FailedPrecond("document is deactivated")
		coded := base.WithCode("ErrTokenDeactivated")

		assert.Equal(t, base.Error(), coded.Error())
		assert.Equal(t, errs.ErrCodeFailedPrecondition, coded.Status())
		assert.Equal(t, "failed_precondition", coded.Status().String())
	})
}
