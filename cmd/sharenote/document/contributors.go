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
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yorkie-team/sharenote/cmd/sharenote/config"
)

func newContributorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "contributors [token]",
		Short:   "List the contributors of a shared document",
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
			contributors, err := cli.Contributors(ctx, args[0])
			if err != nil {
				return err
			}

			return printOutput(cmd, viper.GetString("output"), contributors, func() {
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "NAME", "COLOR", "LAST SEEN"})
				for _, c := range contributors {
					tw.AppendRow(table.Row{
						c.ID,
						c.Name,
						c.Color,
						humanDuration(time.Now().UTC().Sub(c.LastSeen)),
					})
				}
				cmd.Printf("%s\n", tw.Render())
			})
		},
	}
}

func newAttributionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "blame [token]",
		Short:   "Show the contributor of every line of a shared document",
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
			res, err := cli.Attribution(ctx, args[0])
			if err != nil {
				return err
			}

			return printOutput(cmd, viper.GetString("output"), res, func() {
				tw := newTable()
				tw.AppendHeader(table.Row{"LINE", "CONTRIBUTOR", "AT", "CONTENT"})
				for i, line := range res.Lines {
					contributor, at := "", ""
					if i < len(res.Entries) {
						contributor = res.Entries[i].Contributor
						at = res.Entries[i].At.Format(time.RFC3339)
					}
					tw.AppendRow(table.Row{i + 1, contributor, at, line})
				}
				cmd.Printf("%s\n", tw.Render())
			})
		},
	}
}

func init() {
	SubCmd.AddCommand(newContributorsCommand())
	SubCmd.AddCommand(newAttributionCommand())
}
