//go:build integration

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

package integration

import (
	"context"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/sharenote/client"
	"github.com/yorkie-team/sharenote/pkg/attribution"
	"github.com/yorkie-team/sharenote/pkg/document"
)

const waitInterval = 10 * gotime.Millisecond

func contributorsOf(entries []attribution.Entry) []string {
	var contributors []string
	for _, e := range entries {
		contributors = append(contributors, e.Contributor)
	}
	return contributors
}

func TestDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("concurrent inserts at the same line test", func(t *testing.T) {
		cli := newClient(t)
		token := createShare(t, cli, "hello")

		x := connect(t, cli, token, "x")
		y := connect(t, cli, token, "y")

		require.NoError(t, x.Edit(document.InsertLines(1, "X-edit")))
		require.NoError(t, y.Edit(document.InsertLines(1, "Y-edit")))

		assert.Eventually(t, func() bool {
			return x.Text() == y.Text() && len(document.SplitLines(x.Text())) == 3
		}, waitTimeout, waitInterval)

		lines := document.SplitLines(x.Text())
		assert.Equal(t, "hello", lines[0])
		assert.ElementsMatch(t, []string{"X-edit", "Y-edit"}, lines[1:])

		attr := x.Attribution()
		require.Len(t, attr, 3)
		for i, line := range lines[1:] {
			assert.Equal(t, map[string]string{"X-edit": "x", "Y-edit": "y"}[line], attr[i+1].Contributor)
		}
		assert.Equal(t, contributorsOf(attr), contributorsOf(y.Attribution()))

		summary, err := cli.GetShare(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, x.Text(), summary.Text)
	})

	t.Run("concurrent edits of different lines test", func(t *testing.T) {
		cli := newClient(t)
		token := createShare(t, cli, "a\nb\nc")

		x := connect(t, cli, token, "x")
		y := connect(t, cli, token, "y")

		require.NoError(t, x.Edit(document.ReplaceLine(0, "a'")))
		require.NoError(t, y.Edit(document.ReplaceLine(2, "c'")))
		assertConverged(t, "a'\nb\nc'", x, y)

		for _, doc := range []*client.Document{x, y} {
			attr := contributorsOf(doc.Attribution())
			assert.Equal(t, []string{"x", document.OwnerContributor, "y"}, attr)
		}
	})

	t.Run("thin edit test", func(t *testing.T) {
		cli := newClient(t)
		token := createShare(t, cli, "a")

		x := connect(t, cli, token, "x")
		y := connect(t, cli, token, "y")

		require.NoError(t, x.SendEdit(document.InsertLines(1, "b")))
		waitForEvent(t, x, client.RemoteChangeEvent)
		assertConverged(t, "a\nb", x, y)
	})

	t.Run("reconnect catches up test", func(t *testing.T) {
		cli := newClient(t)
		token := createShare(t, cli, "a")

		x := connect(t, cli, token, "x")
		y := connect(t, cli, token, "y")

		require.NoError(t, y.Close())
		require.NoError(t, x.Edit(document.InsertLines(1, "b")))
		require.NoError(t, x.EditText("a\nb\nc"))
		assertConverged(t, "a\nb\nc", x)
		assert.Eventually(t, func() bool {
			text, err := cli.GetShare(ctx, token)
			return err == nil && text.Text == "a\nb\nc"
		}, waitTimeout, waitInterval)

		require.NoError(t, y.Reconnect(ctx))
		assertConverged(t, "a\nb\nc", y)

		require.NoError(t, y.Edit(document.DeleteLines(0, 1)))
		assertConverged(t, "b\nc", x, y)
	})

	t.Run("edit text of single empty line test", func(t *testing.T) {
		cli := newClient(t)
		token := createShare(t, cli, "a")

		x := connect(t, cli, token, "x")
		y := connect(t, cli, token, "y")

		require.NoError(t, x.EditLines([]string{""}))
		assert.Equal(t, []string{""}, x.Lines())
		assertConverged(t, "", x, y)
		assert.Eventually(t, func() bool {
			return len(y.Lines()) == 1
		}, waitTimeout, waitInterval)

		require.NoError(t, y.EditText("hello"))
		assertConverged(t, "hello", x, y)
		assert.Equal(t, []string{"hello"}, x.Lines())

		res, err := cli.Attribution(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, []string{"hello"}, res.Lines)
		require.Len(t, res.Entries, 1)
		assert.Equal(t, "y", res.Entries[0].Contributor)
	})

	t.Run("identify and peers test", func(t *testing.T) {
		cli := newClient(t)
		token := createShare(t, cli, "a")

		x := connect(t, cli, token, "x")
		y := connect(t, cli, token, "y")
		assert.Eventually(t, func() bool {
			return x.Peers() == 2 && y.Peers() == 2
		}, waitTimeout, waitInterval)

		require.NoError(t, x.Identify("Xavier", "#ff0000"))
		assert.Eventually(t, func() bool {
			for _, c := range y.Contributors() {
				if c.ID == "x" {
					return c.Name == "Xavier" && c.Color == "#ff0000"
				}
			}
			return false
		}, waitTimeout, waitInterval)

		require.NoError(t, y.Close())
		assert.Eventually(t, func() bool {
			return x.Peers() == 1
		}, waitTimeout, waitInterval)
	})

	t.Run("save test", func(t *testing.T) {
		cli := newClient(t)
		token := createShare(t, cli, "a")

		x := connect(t, cli, token, "x")
		y := connect(t, cli, token, "y")

		require.NoError(t, x.Edit(document.ReplaceLine(0, "b")))
		require.NoError(t, x.Save())
		waitForEvent(t, x, client.SavedEvent)
		waitForEvent(t, y, client.SavedEvent)
	})
}
