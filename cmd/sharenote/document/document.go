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

// Package document provides the commands on shared documents.
package document

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yorkie-team/sharenote/api/types"
)

var (
	// SubCmd represents the document command
	SubCmd = &cobra.Command{
		Use:     "document",
		Short:   "Manage shared documents",
		Aliases: []string{"doc", "docs", "documents"},
	}
)

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	return tw
}

// printOutput prints v as json or yaml, or calls printTable for the default
// output.
func printOutput(cmd *cobra.Command, output string, v any, printTable func()) error {
	switch output {
	case "":
		printTable()
	case "json":
		jsonOutput, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		cmd.Println(string(jsonOutput))
	case "yaml":
		yamlOutput, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		cmd.Println(string(yamlOutput))
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}

	return nil
}

func printSummaries(cmd *cobra.Command, output string, summaries []*types.ShareSummary) error {
	return printOutput(cmd, output, summaries, func() {
		tw := newTable()
		tw.AppendHeader(table.Row{
			"TOKEN",
			"SOURCE KEY",
			"TITLE",
			"STATUS",
			"CREATED AT",
			"UPDATED AT",
		})
		for _, summary := range summaries {
			tw.AppendRow(table.Row{
				summary.Token,
				summary.SourceKey,
				summary.Title,
				summary.Status,
				humanDuration(time.Now().UTC().Sub(summary.CreatedAt)),
				humanDuration(time.Now().UTC().Sub(summary.UpdatedAt)),
			})
		}
		cmd.Printf("%s\n", tw.Render())
	})
}

// humanDuration returns a short description of how long ago something
// happened, e.g. "3 minutes".
func humanDuration(d time.Duration) string {
	switch seconds := int(d.Seconds()); {
	case seconds < 1:
		return "Less than a second"
	case seconds == 1:
		return "1 second"
	case seconds < 60:
		return fmt.Sprintf("%d seconds", seconds)
	}

	switch minutes := int(d.Minutes()); {
	case minutes == 1:
		return "About a minute"
	case minutes < 60:
		return fmt.Sprintf("%d minutes", minutes)
	}

	switch hours := int(d.Hours() + 0.5); {
	case hours == 1:
		return "About an hour"
	case hours < 48:
		return fmt.Sprintf("%d hours", hours)
	default:
		return fmt.Sprintf("%d days", hours/24)
	}
}
