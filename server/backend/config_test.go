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

package backend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/server/backend"
)

func newValidBackendConf() backend.Config {
	return backend.Config{
		ActorQueueSize:            256,
		OutboundQueueSize:         128,
		IdleGracePeriod:           "30s",
		ContributorGracePeriod:    "5m",
		CheckpointInterval:        "10s",
		CheckpointMaxRetries:      5,
		CheckpointMinWaitInterval: "100ms",
		CheckpointMaxWaitInterval: "5s",
		CheckpointConcurrency:     16,
		DeferTimeout:              "10s",
		SnapshotThreshold:         500,
		HistoryLimit:              1000,
	}
}

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		validConf := newValidBackendConf()
		assert.NoError(t, validConf.Validate())

		conf1 := validConf
		conf1.IdleGracePeriod = "s"
		assert.Error(t, conf1.Validate())

		conf2 := validConf
		conf2.DeferTimeout = "10 seconds"
		assert.Error(t, conf2.Validate())

		conf3 := validConf
		conf3.OutboundQueueSize = 0
		assert.Error(t, conf3.Validate())

		conf4 := validConf
		conf4.CheckpointConcurrency = -1
		assert.Error(t, conf4.Validate())
	})

	t.Run("parse test", func(t *testing.T) {
		validConf := newValidBackendConf()

		assert.Equal(t, "30s", validConf.ParseIdleGracePeriod().String())
		assert.Equal(t, "5m0s", validConf.ParseContributorGracePeriod().String())
		assert.Equal(t, "100ms", validConf.ParseCheckpointMinWaitInterval().String())
		assert.Equal(t, "10s", validConf.ParseDeferTimeout().String())
	})
}
