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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/cmd/sharenote/config"
)

var (
	sourceKey string
	title     string
	seedFile  string
)

func newCreateDocumentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [seed text]",
		Short: "Share a note as a new document",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return errors.New("requires at most one seed text")
			}
			if len(args) == 1 && seedFile != "" {
				return errors.New("seed text and --file cannot be used together")
			}
			return nil
		},
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := ""
			if len(args) == 1 {
				seed = args[0]
			}
			if seedFile != "" {
				content, err := os.ReadFile(filepath.Clean(seedFile))
				if err != nil {
					return fmt.Errorf("read seed file: %w", err)
				}
				seed = string(content)
			}

			cli, err := config.NewClient()
			if err != nil {
				return err
			}

			ctx := context.Background()
			token, err := cli.CreateShare(ctx, &types.CreateShareRequest{
				SeedText:  seed,
				SourceKey: sourceKey,
				Title:     title,
			})
			if err != nil {
				return fmt.Errorf("create document: %w", err)
			}

			return printOutput(cmd, viper.GetString("output"), &types.CreateShareResponse{Token: token}, func() {
				cmd.Println(token)
			})
		},
	}
}

func init() {
	cmd := newCreateDocumentCmd()
	cmd.Flags().StringVar(
		&sourceKey,
		"source-key",
		"",
		"The key of the note the document is shared from",
	)
	cmd.Flags().StringVar(
		&title,
		"title",
		"",
		"The title of the document",
	)
	cmd.Flags().StringVarP(
		&seedFile,
		"file",
		"f",
		"",
		"The file the seed text is read from",
	)
	SubCmd.AddCommand(cmd)
}
