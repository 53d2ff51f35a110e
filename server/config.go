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
package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yorkie-team/sharenote/server/backend"
	"github.com/yorkie-team/sharenote/server/backend/database/mongo"
	"github.com/yorkie-team/sharenote/server/backend/database/sqlite"
	"github.com/yorkie-team/sharenote/server/backend/housekeeping"
	"github.com/yorkie-team/sharenote/server/backend/messagebroker"
	"github.com/yorkie-team/sharenote/server/backend/sync/redis"
	"github.com/yorkie-team/sharenote/server/profiling"
	"github.com/yorkie-team/sharenote/server/rpc"
)

// Below are the values of the default values of the server config.
const (
	DefaultRPCPort              = 8080
	DefaultRPCMaxRequestBytes   = 4 * 1024 * 1024
	DefaultRPCPingInterval      = 30 * time.Second
	DefaultRPCWriteTimeout      = 10 * time.Second
	DefaultRPCInboundRateLimit  = 100.0
	DefaultRPCInboundBurst      = 200
	DefaultProfilingPort        = 8081
	DefaultHousekeepingInterval = 30 * time.Second
	DefaultHousekeepingTimeout  = time.Minute

	DefaultActorQueueSize            = 256
	DefaultOutboundQueueSize         = 128
	DefaultIdleGracePeriod           = 30 * time.Second
	DefaultContributorGracePeriod    = 5 * time.Minute
	DefaultCheckpointInterval        = 10 * time.Second
	DefaultCheckpointMaxRetries      = 5
	DefaultCheckpointMinWaitInterval = 100 * time.Millisecond
	DefaultCheckpointMaxWaitInterval = 5 * time.Second
	DefaultCheckpointConcurrency     = 16
	DefaultDeferTimeout              = 10 * time.Second
	DefaultSnapshotThreshold         = 500
	DefaultHistoryLimit              = 1000

	DefaultMongoConnectionURI     = "mongodb://localhost:27017"
	DefaultMongoConnectionTimeout = 5 * time.Second
	DefaultMongoPingTimeout       = 5 * time.Second
	DefaultMongoDatabase          = "sharenote-meta"

	DefaultRedisDialTimeout = 5 * time.Second
	DefaultRedisPrefix      = "sharenote"

	DefaultKafkaTopic        = "sharenote-snapshots"
	DefaultKafkaWriteTimeout = 5 * time.Second

	DefaultHostname = ""
)

// Config is the configuration for creating a server instance.
type Config struct {
	RPC          *rpc.Config           `yaml:"RPC"`
	Profiling    *profiling.Config     `yaml:"Profiling"`
	Housekeeping *housekeeping.Config  `yaml:"Housekeeping"`
	Backend      *backend.Config       `yaml:"Backend"`
	Mongo        *mongo.Config         `yaml:"Mongo"`
	SQLite       *sqlite.Config        `yaml:"SQLite"`
	Redis        *redis.Config         `yaml:"Redis"`
	Kafka        *messagebroker.Config `yaml:"Kafka"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	return newConfig(DefaultRPCPort, DefaultProfilingPort)
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := newConfig(DefaultRPCPort, DefaultProfilingPort)
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// RPCAddr returns the RPC address.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("localhost:%d", c.RPC.Port)
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.RPC.Validate(); err != nil {
		return err
	}

	if err := c.Profiling.Validate(); err != nil {
		return err
	}

	if err := c.Housekeeping.Validate(); err != nil {
		return err
	}

	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if c.Mongo != nil {
		if err := c.Mongo.Validate(); err != nil {
			return err
		}
	}

	if c.SQLite != nil {
		if err := c.SQLite.Validate(); err != nil {
			return err
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}

	if c.Kafka != nil {
		if err := c.Kafka.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	if c.RPC.Port == 0 {
		c.RPC.Port = DefaultRPCPort
	}
	if c.RPC.MaxRequestBytes == 0 {
		c.RPC.MaxRequestBytes = DefaultRPCMaxRequestBytes
	}
	if c.RPC.PingInterval == "" {
		c.RPC.PingInterval = DefaultRPCPingInterval.String()
	}
	if c.RPC.WriteTimeout == "" {
		c.RPC.WriteTimeout = DefaultRPCWriteTimeout.String()
	}
	if c.RPC.InboundRateLimit == 0 {
		c.RPC.InboundRateLimit = DefaultRPCInboundRateLimit
	}
	if c.RPC.InboundBurst == 0 {
		c.RPC.InboundBurst = DefaultRPCInboundBurst
	}

	if c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}

	if c.Housekeeping.Interval == "" {
		c.Housekeeping.Interval = DefaultHousekeepingInterval.String()
	}
	if c.Housekeeping.TaskTimeout == "" {
		c.Housekeeping.TaskTimeout = DefaultHousekeepingTimeout.String()
	}

	if c.Backend.ActorQueueSize == 0 {
		c.Backend.ActorQueueSize = DefaultActorQueueSize
	}
	if c.Backend.OutboundQueueSize == 0 {
		c.Backend.OutboundQueueSize = DefaultOutboundQueueSize
	}
	if c.Backend.IdleGracePeriod == "" {
		c.Backend.IdleGracePeriod = DefaultIdleGracePeriod.String()
	}
	if c.Backend.ContributorGracePeriod == "" {
		c.Backend.ContributorGracePeriod = DefaultContributorGracePeriod.String()
	}
	if c.Backend.CheckpointInterval == "" {
		c.Backend.CheckpointInterval = DefaultCheckpointInterval.String()
	}
	if c.Backend.CheckpointMaxRetries == 0 {
		c.Backend.CheckpointMaxRetries = DefaultCheckpointMaxRetries
	}
	if c.Backend.CheckpointMinWaitInterval == "" {
		c.Backend.CheckpointMinWaitInterval = DefaultCheckpointMinWaitInterval.String()
	}
	if c.Backend.CheckpointMaxWaitInterval == "" {
		c.Backend.CheckpointMaxWaitInterval = DefaultCheckpointMaxWaitInterval.String()
	}
	if c.Backend.CheckpointConcurrency == 0 {
		c.Backend.CheckpointConcurrency = DefaultCheckpointConcurrency
	}
	if c.Backend.DeferTimeout == "" {
		c.Backend.DeferTimeout = DefaultDeferTimeout.String()
	}
	if c.Backend.SnapshotThreshold == 0 {
		c.Backend.SnapshotThreshold = DefaultSnapshotThreshold
	}
	if c.Backend.HistoryLimit == 0 {
		c.Backend.HistoryLimit = DefaultHistoryLimit
	}

	if c.Mongo != nil {
		if c.Mongo.ConnectionURI == "" {
			c.Mongo.ConnectionURI = DefaultMongoConnectionURI
		}
		if c.Mongo.ConnectionTimeout == "" {
			c.Mongo.ConnectionTimeout = DefaultMongoConnectionTimeout.String()
		}
		if c.Mongo.Database == "" {
			c.Mongo.Database = DefaultMongoDatabase
		}
		if c.Mongo.PingTimeout == "" {
			c.Mongo.PingTimeout = DefaultMongoPingTimeout.String()
		}
	}

	if c.Redis != nil && c.Redis.Address != "" {
		if c.Redis.DialTimeout == "" {
			c.Redis.DialTimeout = DefaultRedisDialTimeout.String()
		}
		if c.Redis.Prefix == "" {
			c.Redis.Prefix = DefaultRedisPrefix
		}
	}

	if c.Kafka != nil && c.Kafka.Addresses != "" {
		if c.Kafka.Topic == "" {
			c.Kafka.Topic = DefaultKafkaTopic
		}
		if c.Kafka.WriteTimeout == "" {
			c.Kafka.WriteTimeout = DefaultKafkaWriteTimeout.String()
		}
	}
}

func newConfig(port int, profilingPort int) *Config {
	return &Config{
		RPC: &rpc.Config{
			Port:             port,
			MaxRequestBytes:  DefaultRPCMaxRequestBytes,
			PingInterval:     DefaultRPCPingInterval.String(),
			WriteTimeout:     DefaultRPCWriteTimeout.String(),
			InboundRateLimit: DefaultRPCInboundRateLimit,
			InboundBurst:     DefaultRPCInboundBurst,
		},
		Profiling: &profiling.Config{
			Port: profilingPort,
		},
		Housekeeping: &housekeeping.Config{
			Interval:    DefaultHousekeepingInterval.String(),
			TaskTimeout: DefaultHousekeepingTimeout.String(),
		},
		Backend: &backend.Config{
			Hostname:                  DefaultHostname,
			ActorQueueSize:            DefaultActorQueueSize,
			OutboundQueueSize:         DefaultOutboundQueueSize,
			IdleGracePeriod:           DefaultIdleGracePeriod.String(),
			ContributorGracePeriod:    DefaultContributorGracePeriod.String(),
			CheckpointInterval:        DefaultCheckpointInterval.String(),
			CheckpointMaxRetries:      DefaultCheckpointMaxRetries,
			CheckpointMinWaitInterval: DefaultCheckpointMinWaitInterval.String(),
			CheckpointMaxWaitInterval: DefaultCheckpointMaxWaitInterval.String(),
			CheckpointConcurrency:     DefaultCheckpointConcurrency,
			DeferTimeout:              DefaultDeferTimeout.String(),
			SnapshotThreshold:         DefaultSnapshotThreshold,
			HistoryLimit:              DefaultHistoryLimit,
		},
	}
}
