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
// Package helper provides helper functions for testing.
package helper

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/pkg/errors"
	"github.com/yorkie-team/sharenote/server"
	"github.com/yorkie-team/sharenote/server/backend"
	"github.com/yorkie-team/sharenote/server/backend/database"
	"github.com/yorkie-team/sharenote/server/backend/housekeeping"
	"github.com/yorkie-team/sharenote/server/profiling"
	"github.com/yorkie-team/sharenote/server/profiling/prometheus"
	"github.com/yorkie-team/sharenote/server/rpc"
)

// Below are the values of the server config used in the test.
var (
	RPCPort = 11101

	ProfilingPort = 11102

	HousekeepingInterval = 10 * gotime.Second

	ActorQueueSize            = 64
	OutboundQueueSize         = 64
	IdleGracePeriod           = 500 * gotime.Millisecond
	ContributorGracePeriod    = 5 * gotime.Second
	CheckpointInterval        = 100 * gotime.Millisecond
	CheckpointMaxRetries      = uint64(2)
	CheckpointMinWaitInterval = 5 * gotime.Millisecond
	CheckpointMaxWaitInterval = 20 * gotime.Millisecond
	DeferTimeout              = 300 * gotime.Millisecond
	SnapshotThreshold         = 10
	HistoryLimit              = 100
)

// ErrInjected is returned by FaultyDatabase while it fails.
var ErrInjected = errors.Unavailable("injected failure").WithCode("ErrInjected")

var portOffset = int32(0)

// TestBackendConfig returns the backend config for testing.
func TestBackendConfig() *backend.Config {
	return &backend.Config{
		Hostname:                  "test",
		ActorQueueSize:            ActorQueueSize,
		OutboundQueueSize:         OutboundQueueSize,
		IdleGracePeriod:           IdleGracePeriod.String(),
		ContributorGracePeriod:    ContributorGracePeriod.String(),
		CheckpointInterval:        CheckpointInterval.String(),
		CheckpointMaxRetries:      CheckpointMaxRetries,
		CheckpointMinWaitInterval: CheckpointMinWaitInterval.String(),
		CheckpointMaxWaitInterval: CheckpointMaxWaitInterval.String(),
		CheckpointConcurrency:     4,
		DeferTimeout:              DeferTimeout.String(),
		SnapshotThreshold:         SnapshotThreshold,
		HistoryLimit:              HistoryLimit,
	}
}

// TestHousekeepingConfig returns the housekeeping config for testing.
func TestHousekeepingConfig() *housekeeping.Config {
	return &housekeeping.Config{
		Interval:    HousekeepingInterval.String(),
		TaskTimeout: "10s",
	}
}

// TestConfig returns the server config for testing. Every call returns
// different ports.
func TestConfig() *server.Config {
	offset := int(atomic.AddInt32(&portOffset, 100))
	return &server.Config{
		RPC: &rpc.Config{
			Port:             RPCPort + offset,
			MaxRequestBytes:  server.DefaultRPCMaxRequestBytes,
			PingInterval:     server.DefaultRPCPingInterval.String(),
			WriteTimeout:     server.DefaultRPCWriteTimeout.String(),
			InboundRateLimit: 1000,
			InboundBurst:     1000,
		},
		Profiling: &profiling.Config{
			Port: ProfilingPort + offset,
		},
		Housekeeping: TestHousekeepingConfig(),
		Backend:      TestBackendConfig(),
	}
}

// TestServer returns a new started server for testing. It is shut down when
// the test ends.
func TestServer(t testing.TB, opts ...backend.Option) *server.Server {
	svr, err := server.New(TestConfig(), opts...)
	require.NoError(t, err)
	require.NoError(t, svr.Start())
	require.NoError(t, WaitForServerToStart(svr.RPCAddr()))

	t.Cleanup(func() {
		if err := svr.Shutdown(true); err != nil {
			log.Println(err)
		}
	})
	return svr
}

// TestBackend returns a new backend with an in-memory database for testing.
// It is shut down when the test ends.
func TestBackend(t testing.TB, conf *backend.Config, opts ...backend.Option) *backend.Backend {
	if conf == nil {
		conf = TestBackendConfig()
	}

	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	be, err := backend.New(conf, nil, nil, nil, TestHousekeepingConfig(), metrics, nil, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := be.Shutdown(); err != nil {
			log.Println(err)
		}
	})
	return be
}

// TestContributor returns a contributor for testing.
func TestContributor(id string) types.Contributor {
	return types.Contributor{ID: id, Name: id}
}

// FaultyDatabase is a database whose writes fail on demand.
type FaultyDatabase struct {
	database.Database
	failing atomic.Bool
	writes  atomic.Int64
}

// NewFaultyDatabase wraps the given database.
func NewFaultyDatabase(db database.Database) *FaultyDatabase {
	return &FaultyDatabase{Database: db}
}

// SetFailing makes the writes of snapshots fail or succeed.
func (d *FaultyDatabase) SetFailing(failing bool) {
	d.failing.Store(failing)
}

// Writes returns the number of snapshots written.
func (d *FaultyDatabase) Writes() int64 {
	return d.writes.Load()
}

// StoreSnapshot stores the snapshot unless the database is failing.
func (d *FaultyDatabase) StoreSnapshot(ctx context.Context, info *database.SnapshotInfo) error {
	if d.failing.Load() {
		return ErrInjected
	}
	if err := d.Database.StoreSnapshot(ctx, info); err != nil {
		return err
	}
	d.writes.Add(1)
	return nil
}

// WaitForServerToStart waits for the server to start.
func WaitForServerToStart(addr string) error {
	maxRetries := 10
	initialDelay := 100 * gotime.Millisecond
	maxDelay := 5 * gotime.Second

	for attempt := range maxRetries {
		delay := initialDelay * gotime.Duration(1<<uint(attempt))
		delay = min(delay, maxDelay)

		conn, err := net.DialTimeout("tcp", addr, 1*gotime.Second)
		if err != nil {
			gotime.Sleep(delay)
			continue
		}

		if err := conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}

		return nil
	}

	return fmt.Errorf("timeout for server to start: %s", addr)
}
