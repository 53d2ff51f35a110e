/*
 * Copyright 2020 The Yorkie Authors. All rights reserved.
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
package server_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/sharenote/server"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("fail read config file test", func(t *testing.T) {
		conf := server.NewConfig()
		assert.Equal(t, conf.RPCAddr(), "localhost:"+strconv.Itoa(server.DefaultRPCPort))
		_, err := server.NewConfigFromFile("nowhere.yml")
		assert.Error(t, err)
		assert.Equal(t, conf.RPC.Port, server.DefaultRPCPort)
		assert.Equal(t, conf.RPC.CertFile, "")
		assert.Equal(t, conf.RPC.KeyFile, "")

		assert.Equal(t, conf.Backend.SnapshotThreshold, server.DefaultSnapshotThreshold)
		assert.Equal(t, conf.Backend.HistoryLimit, server.DefaultHistoryLimit)
		assert.NoError(t, conf.Validate())
	})

	t.Run("read config file test", func(t *testing.T) {
		filePath := "config.sample.yml"
		conf, err := server.NewConfigFromFile(filePath)
		assert.NoError(t, err)

		assert.Equal(t, conf.RPC.Port, server.DefaultRPCPort)
		assert.Equal(t, conf.RPC.CertFile, "")
		assert.Equal(t, conf.RPC.KeyFile, "")

		connTimeout, err := time.ParseDuration(conf.Mongo.ConnectionTimeout)
		assert.NoError(t, err)
		assert.Equal(t, connTimeout, server.DefaultMongoConnectionTimeout)
		assert.Equal(t, conf.Mongo.ConnectionURI, server.DefaultMongoConnectionURI)
		assert.Equal(t, conf.Mongo.Database, server.DefaultMongoDatabase)

		pingTimeout, err := time.ParseDuration(conf.Mongo.PingTimeout)
		assert.NoError(t, err)
		assert.Equal(t, pingTimeout, server.DefaultMongoPingTimeout)

		deferTimeout, err := time.ParseDuration(conf.Backend.DeferTimeout)
		assert.NoError(t, err)
		assert.Equal(t, deferTimeout, server.DefaultDeferTimeout)
		assert.Equal(t, conf.Backend.CheckpointMaxRetries, uint64(server.DefaultCheckpointMaxRetries))
		assert.Equal(t, conf.Backend.SnapshotThreshold, server.DefaultSnapshotThreshold)

		assert.Nil(t, conf.Redis)
		assert.Nil(t, conf.Kafka)
		assert.NoError(t, conf.Validate())
	})

	t.Run("default value test", func(t *testing.T) {
		filePath := filepath.Join(t.TempDir(), "partial.yml")
		require.NoError(t, os.WriteFile(filePath, []byte(`
RPC:
  Port: 9090
Backend:
  IdleGracePeriod: "1m"
Redis:
  Address: "localhost:6379"
Kafka:
  Addresses: "localhost:29092"
`), 0o600))

		conf, err := server.NewConfigFromFile(filePath)
		require.NoError(t, err)

		assert.Equal(t, 9090, conf.RPC.Port)
		assert.Equal(t, server.DefaultRPCWriteTimeout.String(), conf.RPC.WriteTimeout)
		assert.Equal(t, "1m", conf.Backend.IdleGracePeriod)
		assert.Equal(t, server.DefaultOutboundQueueSize, conf.Backend.OutboundQueueSize)
		assert.Equal(t, server.DefaultRedisPrefix, conf.Redis.Prefix)
		assert.Equal(t, server.DefaultKafkaTopic, conf.Kafka.Topic)
		assert.NoError(t, conf.Validate())
	})

	t.Run("validate test", func(t *testing.T) {
		conf := server.NewConfig()
		conf.RPC.Port = 0
		assert.Error(t, conf.Validate())

		conf = server.NewConfig()
		conf.Backend.OutboundQueueSize = 1
		assert.Error(t, conf.Validate())
	})
}
