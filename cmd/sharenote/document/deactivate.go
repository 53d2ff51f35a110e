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

package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/cmd/sharenote/config"
)

func newDeactivateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "deactivate [token]",
		Short:   "Make a shared document read-only",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("token is required")
			}

			cli, err := config.NewClient()
			if err != nil {
				return err
			}

			ctx := context.Background()
			summary, err := cli.Deactivate(ctx, args[0])
			if err != nil {
				return fmt.Errorf("deactivate document: %w", err)
			}

			return printSummaries(cmd, viper.GetString("output"), []*types.ShareSummary{summary})
		},
	}
}

func init() {
	SubCmd.AddCommand(newDeactivateCommand())
}
