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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yorkie-team/sharenote/server"
	"github.com/yorkie-team/sharenote/server/backend/database/mongo"
	"github.com/yorkie-team/sharenote/server/backend/database/sqlite"
	"github.com/yorkie-team/sharenote/server/backend/messagebroker"
	"github.com/yorkie-team/sharenote/server/backend/sync/redis"
	"github.com/yorkie-team/sharenote/server/logging"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	flagConfPath  string
	flagLogLevel  string
	flagLogFormat string

	rpcPingInterval           time.Duration
	rpcWriteTimeout           time.Duration
	housekeepingInterval      time.Duration
	idleGracePeriod           time.Duration
	contributorGracePeriod    time.Duration
	checkpointInterval        time.Duration
	checkpointMinWaitInterval time.Duration
	checkpointMaxWaitInterval time.Duration
	deferTimeout              time.Duration

	mongoConnectionURI     string
	mongoConnectionTimeout time.Duration
	mongoDatabase          string
	mongoPingTimeout       time.Duration

	sqlitePath string

	redisAddress     string
	redisPassword    string
	redisDB          int
	redisDialTimeout time.Duration
	redisPrefix      string

	kafkaAddresses    string
	kafkaTopic        string
	kafkaWriteTimeout time.Duration

	conf = server.NewConfig()
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [options]",
		Short: "Start sharenote server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf.RPC.PingInterval = rpcPingInterval.String()
			conf.RPC.WriteTimeout = rpcWriteTimeout.String()

			conf.Housekeeping.Interval = housekeepingInterval.String()

			conf.Backend.IdleGracePeriod = idleGracePeriod.String()
			conf.Backend.ContributorGracePeriod = contributorGracePeriod.String()
			conf.Backend.CheckpointInterval = checkpointInterval.String()
			conf.Backend.CheckpointMinWaitInterval = checkpointMinWaitInterval.String()
			conf.Backend.CheckpointMaxWaitInterval = checkpointMaxWaitInterval.String()
			conf.Backend.DeferTimeout = deferTimeout.String()

			if mongoConnectionURI != "" {
				conf.Mongo = &mongo.Config{
					ConnectionURI:     mongoConnectionURI,
					ConnectionTimeout: mongoConnectionTimeout.String(),
					Database:          mongoDatabase,
					PingTimeout:       mongoPingTimeout.String(),
				}
			}
			if sqlitePath != "" {
				conf.SQLite = &sqlite.Config{Path: sqlitePath}
			}
			if redisAddress != "" {
				conf.Redis = &redis.Config{
					Address:     redisAddress,
					Password:    redisPassword,
					DB:          redisDB,
					DialTimeout: redisDialTimeout.String(),
					Prefix:      redisPrefix,
				}
			}
			if kafkaAddresses != "" {
				conf.Kafka = &messagebroker.Config{
					Addresses:    kafkaAddresses,
					Topic:        kafkaTopic,
					WriteTimeout: kafkaWriteTimeout.String(),
				}
			}

			// If config file is given, command-line arguments will be overwritten.
			if flagConfPath != "" {
				parsed, err := server.NewConfigFromFile(flagConfPath)
				if err != nil {
					return err
				}
				conf = parsed
			}

			if err := logging.SetLogLevel(flagLogLevel); err != nil {
				return err
			}
			if err := logging.SetFormat(flagLogFormat); err != nil {
				return err
			}

			s, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := s.Start(); err != nil {
				return err
			}

			if code := handleSignal(s); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func handleSignal(s *server.Server) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case sig = <-sigCh:
	case <-s.ShutdownCh():
		// the server is already shut down
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := s.Shutdown(graceful); err != nil {
			logging.DefaultLogger().Error(err)
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	cmd.Flags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().StringVarP(
		&flagLogLevel,
		"log-level",
		"l",
		"info",
		"Log level: debug, info, warn, error, panic, fatal",
	)
	cmd.Flags().StringVar(
		&flagLogFormat,
		"log-format",
		"console",
		"Log format: json, console",
	)
	cmd.Flags().IntVar(
		&conf.RPC.Port,
		"rpc-port",
		server.DefaultRPCPort,
		"RPC port",
	)
	cmd.Flags().StringVar(
		&conf.RPC.CertFile,
		"rpc-cert-file",
		"",
		"RPC certification file's path",
	)
	cmd.Flags().StringVar(
		&conf.RPC.KeyFile,
		"rpc-key-file",
		"",
		"RPC key file's path",
	)
	cmd.Flags().Int64Var(
		&conf.RPC.MaxRequestBytes,
		"rpc-max-request-bytes",
		server.DefaultRPCMaxRequestBytes,
		"Maximum size in bytes of a request body or a websocket message.",
	)
	cmd.Flags().DurationVar(
		&rpcPingInterval,
		"rpc-ping-interval",
		server.DefaultRPCPingInterval,
		"Interval of the pings sent to websocket connections.",
	)
	cmd.Flags().DurationVar(
		&rpcWriteTimeout,
		"rpc-write-timeout",
		server.DefaultRPCWriteTimeout,
		"Timeout of a write to a websocket connection.",
	)
	cmd.Flags().Float64Var(
		&conf.RPC.InboundRateLimit,
		"rpc-inbound-rate-limit",
		server.DefaultRPCInboundRateLimit,
		"Messages per second a websocket connection may send.",
	)
	cmd.Flags().IntVar(
		&conf.RPC.InboundBurst,
		"rpc-inbound-burst",
		server.DefaultRPCInboundBurst,
		"Burst of messages a websocket connection may send.",
	)
	cmd.Flags().IntVar(
		&conf.Profiling.Port,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().BoolVar(
		&conf.Profiling.EnablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)
	cmd.Flags().DurationVar(
		&housekeepingInterval,
		"housekeeping-interval",
		server.DefaultHousekeepingInterval,
		"housekeeping interval between housekeeping runs",
	)
	cmd.Flags().IntVar(
		&conf.Backend.ActorQueueSize,
		"backend-actor-queue-size",
		server.DefaultActorQueueSize,
		"Size of the request queue of a document.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.OutboundQueueSize,
		"backend-outbound-queue-size",
		server.DefaultOutboundQueueSize,
		"Number of messages a connection may have pending before it is closed.",
	)
	cmd.Flags().DurationVar(
		&idleGracePeriod,
		"backend-idle-grace-period",
		server.DefaultIdleGracePeriod,
		"How long a document without connections stays loaded.",
	)
	cmd.Flags().DurationVar(
		&contributorGracePeriod,
		"backend-contributor-grace-period",
		server.DefaultContributorGracePeriod,
		"How long a disconnected contributor stays listed.",
	)
	cmd.Flags().DurationVar(
		&checkpointInterval,
		"backend-checkpoint-interval",
		server.DefaultCheckpointInterval,
		"Interval of the checkpoints of changed documents.",
	)
	cmd.Flags().Uint64Var(
		&conf.Backend.CheckpointMaxRetries,
		"backend-checkpoint-max-retries",
		server.DefaultCheckpointMaxRetries,
		"Maximum number of retries of a checkpoint.",
	)
	cmd.Flags().DurationVar(
		&checkpointMinWaitInterval,
		"backend-checkpoint-min-wait-interval",
		server.DefaultCheckpointMinWaitInterval,
		"Initial wait between the retries of a checkpoint.",
	)
	cmd.Flags().DurationVar(
		&checkpointMaxWaitInterval,
		"backend-checkpoint-max-wait-interval",
		server.DefaultCheckpointMaxWaitInterval,
		"Maximum wait between the retries of a checkpoint.",
	)
	cmd.Flags().Int64Var(
		&conf.Backend.CheckpointConcurrency,
		"backend-checkpoint-concurrency",
		server.DefaultCheckpointConcurrency,
		"Number of checkpoints written at the same time.",
	)
	cmd.Flags().DurationVar(
		&deferTimeout,
		"backend-defer-timeout",
		server.DefaultDeferTimeout,
		"How long an operation waits for its dependencies.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.SnapshotThreshold,
		"backend-snapshot-threshold",
		server.DefaultSnapshotThreshold,
		"Threshold that determines if a joining connection is sent a snapshot "+
			"when it misses more operations than this value.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.HistoryLimit,
		"backend-history-limit",
		server.DefaultHistoryLimit,
		"Number of operations each document retains for catching up.",
	)
	cmd.Flags().StringVar(
		&conf.Backend.SnapshotDir,
		"backend-snapshot-dir",
		"",
		"Directory the snapshots of the documents are written to.",
	)
	cmd.Flags().StringVar(
		&mongoConnectionURI,
		"mongo-connection-uri",
		"",
		"MongoDB's connection URI",
	)
	cmd.Flags().DurationVar(
		&mongoConnectionTimeout,
		"mongo-connection-timeout",
		server.DefaultMongoConnectionTimeout,
		"Mongo DB's connection timeout",
	)
	cmd.Flags().StringVar(
		&mongoDatabase,
		"mongo-database",
		server.DefaultMongoDatabase,
		"sharenote's database name in MongoDB",
	)
	cmd.Flags().DurationVar(
		&mongoPingTimeout,
		"mongo-ping-timeout",
		server.DefaultMongoPingTimeout,
		"Mongo DB's ping timeout",
	)
	cmd.Flags().StringVar(
		&sqlitePath,
		"sqlite-path",
		"",
		"Path of the SQLite database file",
	)
	cmd.Flags().StringVar(
		&redisAddress,
		"redis-address",
		"",
		"Address of the Redis server relaying operations between instances",
	)
	cmd.Flags().StringVar(
		&redisPassword,
		"redis-password",
		"",
		"Password of the Redis server",
	)
	cmd.Flags().IntVar(
		&redisDB,
		"redis-db",
		0,
		"Database number of the Redis server",
	)
	cmd.Flags().DurationVar(
		&redisDialTimeout,
		"redis-dial-timeout",
		server.DefaultRedisDialTimeout,
		"Redis dial timeout",
	)
	cmd.Flags().StringVar(
		&redisPrefix,
		"redis-prefix",
		server.DefaultRedisPrefix,
		"Prefix of the Redis channels",
	)
	cmd.Flags().StringVar(
		&kafkaAddresses,
		"kafka-addresses",
		"",
		"Comma separated addresses of the Kafka brokers snapshots are published to",
	)
	cmd.Flags().StringVar(
		&kafkaTopic,
		"kafka-topic",
		server.DefaultKafkaTopic,
		"Kafka topic of the snapshots",
	)
	cmd.Flags().DurationVar(
		&kafkaWriteTimeout,
		"kafka-write-timeout",
		server.DefaultKafkaWriteTimeout,
		"Kafka write timeout",
	)
	cmd.Flags().StringVar(
		&conf.Backend.Hostname,
		"hostname",
		server.DefaultHostname,
		"sharenote server hostname",
	)

	rootCmd.AddCommand(cmd)
}
