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

package sink_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/server/backend/messagebroker"
	"github.com/yorkie-team/sharenote/server/backend/sink"
)

type recordingBroker struct {
	messages []messagebroker.Message
}

func (b *recordingBroker) Produce(_ context.Context, msg messagebroker.Message) error {
	b.messages = append(b.messages, msg)
	return nil
}

func (b *recordingBroker) Close() error {
	return nil
}

type failingSink struct{}

func (failingSink) Push(context.Context, *sink.Snapshot) error {
	return errors.New("unreachable")
}

func TestSink(t *testing.T) {
	t.Run("file sink test", func(t *testing.T) {
		f := sink.NewFile(t.TempDir())

		assert.NoError(t, f.Push(context.Background(), &sink.Snapshot{Token: "t1", Text: "a\nb"}))
		assert.NoError(t, f.Push(context.Background(), &sink.Snapshot{Token: "t1", Text: "a\nb'"}))

		data, err := os.ReadFile(f.Path("t1"))
		assert.NoError(t, err)
		assert.Equal(t, "a\nb'", string(data))
	})

	t.Run("broker sink test", func(t *testing.T) {
		broker := &recordingBroker{}
		s := sink.NewBroker(broker)

		assert.NoError(t, s.Push(context.Background(), &sink.Snapshot{
			Token:  "t1",
			Reason: messagebroker.ReasonCheckpoint,
			Text:   "a",
		}))
		assert.Len(t, broker.messages, 1)
		assert.Equal(t, []byte("t1"), broker.messages[0].Key())
	})

	t.Run("multi sink test", func(t *testing.T) {
		broker := &recordingBroker{}
		m := sink.Multi{failingSink{}, sink.NewBroker(broker)}

		err := m.Push(context.Background(), &sink.Snapshot{Token: "t1"})
		assert.Error(t, err)
		assert.Len(t, broker.messages, 1)
	})
}
