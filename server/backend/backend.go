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

// Package backend provides the backend implementation of the sharenote
// server. This package is responsible for managing the database, the relay
// between instances and other resources required by document actors.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/semaphore"

	"github.com/yorkie-team/sharenote/server/backend/background"
	"github.com/yorkie-team/sharenote/server/backend/database"
	memdb "github.com/yorkie-team/sharenote/server/backend/database/memory"
	"github.com/yorkie-team/sharenote/server/backend/database/mongo"
	"github.com/yorkie-team/sharenote/server/backend/database/sqlite"
	"github.com/yorkie-team/sharenote/server/backend/housekeeping"
	"github.com/yorkie-team/sharenote/server/backend/messagebroker"
	"github.com/yorkie-team/sharenote/server/backend/sink"
	"github.com/yorkie-team/sharenote/server/backend/sync"
	"github.com/yorkie-team/sharenote/server/backend/sync/memory"
	"github.com/yorkie-team/sharenote/server/backend/sync/redis"
	"github.com/yorkie-team/sharenote/server/logging"
	"github.com/yorkie-team/sharenote/server/profiling/prometheus"
)

// Option overrides a resource of the Backend. It is mostly used by tests
// running several servers in one process.
type Option func(*Backend)

// WithDatabase makes the Backend use the given database.
func WithDatabase(db database.Database) Option {
	return func(b *Backend) {
		b.DB = db
	}
}

// WithRelay makes the Backend use the given relay.
func WithRelay(relay sync.Relay) Option {
	return func(b *Backend) {
		b.Relay = relay
	}
}

// Backend manages the sharenote backend such as the database and the relay
// between instances.
type Backend struct {
	Config *Config

	// DB is the database instance.
	DB database.Database
	// Relay delivers operations between instances.
	Relay sync.Relay
	// MsgBroker is the message producer instance.
	MsgBroker messagebroker.Broker
	// Sink receives the snapshots of documents after checkpoints.
	Sink sink.Sink

	// Background is used to manage background tasks.
	Background *background.Background
	// Housekeeping is used to manage background batch tasks.
	Housekeeping *housekeeping.Housekeeping
	// CheckpointLimiter bounds the number of checkpoints written at once.
	CheckpointLimiter *semaphore.Weighted

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics

	fanOut *fanOut
}

// New creates a new instance of Backend.
func New(
	conf *Config,
	mongoConf *mongo.Config,
	sqliteConf *sqlite.Config,
	redisConf *redis.Config,
	housekeepingConf *housekeeping.Config,
	metrics *prometheus.Metrics,
	kafkaConf *messagebroker.Config,
	opts ...Option,
) (*Backend, error) {
	// 01. Build the server info with the given hostname or the hostname of the
	// current machine.
	if conf.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("os.Hostname: %w", err)
		}
		conf.Hostname = hostname
	}

	b := &Backend{
		Config:            conf,
		Background:        background.New(metrics),
		CheckpointLimiter: semaphore.NewWeighted(conf.CheckpointConcurrency),
		Metrics:           metrics,
		fanOut:            newFanOut(conf.CheckpointConcurrency),
	}
	for _, opt := range opts {
		opt(b)
	}

	// 02. Create the database instance. MongoDB is preferred over SQLite and
	// the memory database is used when neither is configured.
	dbInfo := "memory"
	if b.DB == nil {
		var err error
		switch {
		case mongoConf != nil:
			b.DB, err = mongo.Dial(mongoConf)
			dbInfo = mongoConf.ConnectionURI
		case sqliteConf != nil:
			b.DB, err = sqlite.New(sqliteConf.Path)
			dbInfo = sqliteConf.Path
		default:
			b.DB, err = memdb.New()
		}
		if err != nil {
			return nil, err
		}
	}

	// 03. Create the relay. Without Redis, operations stay in this instance.
	relayInfo := "local"
	if b.Relay == nil {
		if redisConf != nil {
			relay, err := redis.Dial(context.Background(), redisConf, conf.Hostname)
			if err != nil {
				_ = b.DB.Close()
				return nil, err
			}
			b.Relay = relay
			relayInfo = redisConf.Address
		} else {
			b.Relay = memory.NewBus().Relay(conf.Hostname)
		}
	}

	// 04. Create the message broker and the snapshot sinks.
	b.MsgBroker = messagebroker.Ensure(kafkaConf)
	sinks := sink.Multi{sink.NewBroker(b.MsgBroker)}
	if conf.SnapshotDir != "" {
		sinks = append(sinks, sink.NewFile(conf.SnapshotDir))
	}
	b.Sink = sinks

	// 05. Create the housekeeping instance. Tasks are registered by the
	// owners of the resources they clean up.
	housekeeper, err := housekeeping.New(housekeepingConf)
	if err != nil {
		_ = b.Relay.Close()
		_ = b.DB.Close()
		return nil, err
	}
	b.Housekeeping = housekeeper

	logging.DefaultLogger().Infof("backend created: db: %s, relay: %s", dbInfo, relayInfo)

	return b, nil
}

// Start starts the backend.
func (b *Backend) Start() error {
	if err := b.Housekeeping.Start(); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("backend started")
	return nil
}

// Shutdown closes all resources of this instance. Document actors must be
// retired before, so that their last checkpoints reach the database.
func (b *Backend) Shutdown() error {
	var errs []error

	if err := b.Housekeeping.Stop(); err != nil {
		errs = append(errs, err)
	}

	b.Background.Close()

	if err := b.Relay.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := b.MsgBroker.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := b.DB.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}
