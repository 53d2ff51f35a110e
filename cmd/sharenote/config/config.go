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

// Package config provides the options shared by the commands of the
// sharenote CLI.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yorkie-team/sharenote/client"
)

// EnvPrefix is the prefix of the environment variables read by the CLI,
// e.g. SHARENOTE_RPC_ADDR.
const EnvPrefix = "SHARENOTE"

// Preload binds the flags of the command to viper, so that every option can
// also be given as an environment variable.
func Preload(cmd *cobra.Command, _ []string) error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	return nil
}

// NewClient creates a client of the server given by --rpc-addr.
func NewClient() (*client.Client, error) {
	rpcAddr := viper.GetString("rpc-addr")
	if rpcAddr == "" {
		return nil, fmt.Errorf("rpc-addr is required")
	}
	return client.New(rpcAddr)
}
