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

package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/yorkie-team/sharenote/server/logging"
)

func TestLogging(t *testing.T) {
	t.Run("log level test", func(t *testing.T) {
		assert.NoError(t, logging.SetLogLevel("debug"))
		assert.True(t, logging.Enabled(zap.DebugLevel))

		assert.NoError(t, logging.SetLogLevel("WARN"))
		assert.False(t, logging.Enabled(zap.InfoLevel))
		assert.True(t, logging.Enabled(zap.ErrorLevel))

		assert.Error(t, logging.SetLogLevel("verbose"))
		assert.NoError(t, logging.SetLogLevel("info"))
	})

	t.Run("format test", func(t *testing.T) {
		assert.NoError(t, logging.SetFormat("json"))
		assert.NoError(t, logging.SetFormat("console"))
		assert.Error(t, logging.SetFormat("xml"))
	})

	t.Run("context test", func(t *testing.T) {
		assert.Equal(t, logging.DefaultLogger(), logging.From(context.Background()))

		logger := logging.New("test", logging.NewField("token", "abc"))
		ctx := logging.With(context.Background(), logger)
		assert.Equal(t, logger, logging.From(ctx))
	})
}
