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
	"github.com/spf13/cobra"

	"github.com/yorkie-team/sharenote/cmd/sharenote/document"
)

var rootCmd = &cobra.Command{
	Use:   "sharenote",
	Short: "Live collaboration on shared notes",
}

// Run executes CLI.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}

	return 0
}

func init() {
	rootCmd.AddCommand(document.SubCmd)
	rootCmd.PersistentFlags().String("rpc-addr", "localhost:8080", "Address of the sharenote server")
	rootCmd.PersistentFlags().StringP("output", "o", "", "One of 'yaml' or 'json'.")
}
