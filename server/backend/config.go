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

package backend

import (
	"fmt"
	"os"
	"time"
)

// MinOutboundQueueSize is the smallest outbound queue that holds the
// messages a connection is sent when it joins.
const MinOutboundQueueSize = 4

// Config is the configuration for creating a Backend instance.
type Config struct {
	// Hostname is the server hostname. It is used by metrics and as the
	// origin of relayed operations.
	Hostname string `yaml:"Hostname"`

	// ActorQueueSize is the capacity of the request queue of each document
	// actor.
	ActorQueueSize int `yaml:"ActorQueueSize"`

	// OutboundQueueSize is the capacity of the outbound queue of each
	// connection. A connection whose queue is full is disconnected.
	OutboundQueueSize int `yaml:"OutboundQueueSize"`

	// IdleGracePeriod is how long a document without connections stays
	// loaded before it is retired.
	IdleGracePeriod string `yaml:"IdleGracePeriod"`

	// ContributorGracePeriod is how long a contributor is still listed after
	// its last connection closed.
	ContributorGracePeriod string `yaml:"ContributorGracePeriod"`

	// CheckpointInterval is the interval of periodic checkpoints of dirty
	// documents.
	CheckpointInterval string `yaml:"CheckpointInterval"`

	// CheckpointMaxRetries is the max count that retries a failed checkpoint.
	CheckpointMaxRetries uint64 `yaml:"CheckpointMaxRetries"`

	// CheckpointMinWaitInterval is the initial interval between retries.
	CheckpointMinWaitInterval string `yaml:"CheckpointMinWaitInterval"`

	// CheckpointMaxWaitInterval is the max interval between retries.
	CheckpointMaxWaitInterval string `yaml:"CheckpointMaxWaitInterval"`

	// CheckpointConcurrency is the max number of checkpoints written at once.
	CheckpointConcurrency int64 `yaml:"CheckpointConcurrency"`

	// DeferTimeout is how long an operation with missing dependencies is
	// buffered before its origin is resynced.
	DeferTimeout string `yaml:"DeferTimeout"`

	// SnapshotThreshold is the max number of operations sent as catch-up.
	// A larger gap is answered with a snapshot.
	SnapshotThreshold int `yaml:"SnapshotThreshold"`

	// HistoryLimit is the number of operations each replica retains.
	HistoryLimit int `yaml:"HistoryLimit"`

	// SnapshotDir is the directory the file sink writes snapshots to. The
	// file sink is disabled when it is empty.
	SnapshotDir string `yaml:"SnapshotDir"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	durations := []struct {
		flag  string
		value string
	}{
		{"--idle-grace-period", c.IdleGracePeriod},
		{"--contributor-grace-period", c.ContributorGracePeriod},
		{"--checkpoint-interval", c.CheckpointInterval},
		{"--checkpoint-min-wait-interval", c.CheckpointMinWaitInterval},
		{"--checkpoint-max-wait-interval", c.CheckpointMaxWaitInterval},
		{"--defer-timeout", c.DeferTimeout},
	}
	for _, d := range durations {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf(`invalid argument "%s" for "%s" flag: %w`, d.value, d.flag, err)
		}
	}

	if c.ActorQueueSize <= 0 {
		return fmt.Errorf(`invalid argument "%d" for "--actor-queue-size" flag`, c.ActorQueueSize)
	}
	if c.OutboundQueueSize < MinOutboundQueueSize {
		return fmt.Errorf(
			`invalid argument "%d" for "--outbound-queue-size" flag: must be at least %d`,
			c.OutboundQueueSize,
			MinOutboundQueueSize,
		)
	}
	if c.CheckpointConcurrency <= 0 {
		return fmt.Errorf(
			`invalid argument "%d" for "--checkpoint-concurrency" flag`,
			c.CheckpointConcurrency,
		)
	}

	return nil
}

// ParseIdleGracePeriod returns the idle grace period.
func (c *Config) ParseIdleGracePeriod() time.Duration {
	return mustParseDuration("idle grace period", c.IdleGracePeriod)
}

// ParseContributorGracePeriod returns the contributor grace period.
func (c *Config) ParseContributorGracePeriod() time.Duration {
	return mustParseDuration("contributor grace period", c.ContributorGracePeriod)
}

// ParseCheckpointInterval returns the checkpoint interval.
func (c *Config) ParseCheckpointInterval() time.Duration {
	return mustParseDuration("checkpoint interval", c.CheckpointInterval)
}

// ParseCheckpointMinWaitInterval returns the initial retry interval.
func (c *Config) ParseCheckpointMinWaitInterval() time.Duration {
	return mustParseDuration("checkpoint min wait interval", c.CheckpointMinWaitInterval)
}

// ParseCheckpointMaxWaitInterval returns the max retry interval.
func (c *Config) ParseCheckpointMaxWaitInterval() time.Duration {
	return mustParseDuration("checkpoint max wait interval", c.CheckpointMaxWaitInterval)
}

// ParseDeferTimeout returns the defer timeout.
func (c *Config) ParseDeferTimeout() time.Duration {
	return mustParseDuration("defer timeout", c.DeferTimeout)
}

func mustParseDuration(name, value string) time.Duration {
	result, err := time.ParseDuration(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %s\n", name, err)
		os.Exit(1)
	}

	return result
}
