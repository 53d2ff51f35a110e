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

package messagebroker_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/server/backend/messagebroker"
)

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		validConf := messagebroker.Config{
			Addresses:    "localhost:9092",
			Topic:        "sharenote-snapshots",
			WriteTimeout: "1s",
		}
		assert.NoError(t, validConf.Validate())

		conf1 := validConf
		conf1.Addresses = ""
		assert.Error(t, conf1.Validate())

		conf2 := validConf
		conf2.Addresses = "localhost:9092,"
		assert.Error(t, conf2.Validate())
		assert.Contains(t, conf2.Validate().Error(), conf2.Addresses)

		conf3 := validConf
		conf3.Topic = ""
		assert.Error(t, conf3.Validate())

		conf4 := validConf
		conf4.WriteTimeout = "invalid"
		assert.ErrorIs(t, conf4.Validate(), messagebroker.ErrInvalidDuration)
	})

	t.Run("test split addresses", func(t *testing.T) {
		c := &messagebroker.Config{
			Addresses: "localhost:9092,localhost:9093",
		}
		assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, c.SplitAddresses())
	})

	t.Run("test must parse write timeout with invalid duration", func(t *testing.T) {
		c := &messagebroker.Config{
			WriteTimeout: "1",
		}
		assert.PanicsWithError(t, messagebroker.ErrInvalidDuration.Error(), func() {
			c.MustParseWriteTimeout()
		})
	})

	t.Run("ensure without config test", func(t *testing.T) {
		assert.IsType(t, &messagebroker.DummyBroker{}, messagebroker.Ensure(nil))
		assert.IsType(t, &messagebroker.DummyBroker{}, messagebroker.Ensure(&messagebroker.Config{}))
	})
}

func TestSnapshotEventMessage(t *testing.T) {
	t.Run("marshal test", func(t *testing.T) {
		at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		msg := messagebroker.NewSnapshotEventMessage(
			"token", "notes/a.md", "A", messagebroker.ReasonDeactivate, "a\nb", []string{"alice"}, at,
		)
		assert.Len(t, msg.EventID, 26)
		assert.Equal(t, []byte("token"), msg.Key())

		data, err := msg.Marshal()
		assert.NoError(t, err)

		decoded := map[string]any{}
		assert.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "deactivate", decoded["reason"])
		assert.Equal(t, "a\nb", decoded["text"])
		assert.Equal(t, "notes/a.md", decoded["source_key"])
	})
}
