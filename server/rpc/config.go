/*
 * Copyright 2021 The Yorkie Authors. All rights reserved.
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
package rpc

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	// ErrInvalidRPCPort occurs when the port in the config is invalid.
	ErrInvalidRPCPort = errors.New("invalid port number for RPC server")
	// ErrInvalidCertFile occurs when the certificate file is invalid.
	ErrInvalidCertFile = errors.New("invalid cert file for RPC server")
	// ErrInvalidKeyFile occurs when the key file is invalid.
	ErrInvalidKeyFile = errors.New("invalid key file for RPC server")
	// ErrInvalidInboundRateLimit occurs when the inbound rate limit is invalid.
	ErrInvalidInboundRateLimit = errors.New("invalid inbound rate limit for RPC server")
)

// Config is the configuration for creating a Server instance.
type Config struct {
	// Port is the port number for the RPC server.
	Port int `yaml:"Port"`

	// CertFile is the path to the certificate file.
	CertFile string `yaml:"CertFile"`

	// KeyFile is the path to the key file.
	KeyFile string `yaml:"KeyFile"`

	// MaxRequestBytes is the maximum size in bytes of a request body or of a
	// message on a document connection.
	MaxRequestBytes int64 `yaml:"MaxRequestBytes"`

	// PingInterval is the interval of pings on document connections. A
	// connection without a pong for twice the interval is closed.
	PingInterval string `yaml:"PingInterval"`

	// WriteTimeout is the timeout of a single write on a document connection.
	WriteTimeout string `yaml:"WriteTimeout"`

	// InboundRateLimit is the number of messages per second a document
	// connection may send.
	InboundRateLimit float64 `yaml:"InboundRateLimit"`

	// InboundBurst is the number of messages a document connection may send
	// at once.
	InboundBurst int `yaml:"InboundBurst"`
}

// Validate validates the port number and the files for certification.
func (c *Config) Validate() error {
	if c.Port < 1 || 65535 < c.Port {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidRPCPort)
	}

	// when specific cert or key file are configured
	if c.CertFile != "" {
		if _, err := os.Stat(c.CertFile); err != nil {
			return fmt.Errorf("%s: %w", c.CertFile, ErrInvalidCertFile)
		}
	}

	if c.KeyFile != "" {
		if _, err := os.Stat(c.KeyFile); err != nil {
			return fmt.Errorf("%s: %w", c.KeyFile, ErrInvalidKeyFile)
		}
	}

	for _, dur := range []struct {
		name  string
		value string
	}{
		{"rpc-ping-interval", c.PingInterval},
		{"rpc-write-timeout", c.WriteTimeout},
	} {
		d, err := time.ParseDuration(dur.value)
		if err != nil {
			return fmt.Errorf(`invalid argument "%s" for "%s" flag: %w`, dur.value, dur.name, err)
		}
		if d <= 0 {
			return fmt.Errorf(`invalid argument "%s" for "%s" flag: must be positive`, dur.value, dur.name)
		}
	}

	if c.InboundRateLimit <= 0 || c.InboundBurst < 1 {
		return fmt.Errorf(
			"%.2f/s with burst %d: %w",
			c.InboundRateLimit,
			c.InboundBurst,
			ErrInvalidInboundRateLimit,
		)
	}

	return nil
}

// ParsePingInterval returns the interval of pings.
func (c *Config) ParsePingInterval() time.Duration {
	d, err := time.ParseDuration(c.PingInterval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse ping interval: %s\n", err)
		os.Exit(1)
	}
	return d
}

// ParseWriteTimeout returns the timeout of a single write.
func (c *Config) ParseWriteTimeout() time.Duration {
	d, err := time.ParseDuration(c.WriteTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse write timeout: %s\n", err)
		os.Exit(1)
	}
	return d
}
