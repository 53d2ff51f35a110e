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
	"os"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/client"
	"github.com/yorkie-team/sharenote/server"
	"github.com/yorkie-team/sharenote/server/logging"
	"github.com/yorkie-team/sharenote/test/helper"
)

const waitTimeout = 5 * gotime.Second

var defaultServer *server.Server

func TestMain(m *testing.M) {
	svr, err := server.New(helper.TestConfig())
	if err != nil {
		logging.DefaultLogger().Fatal(err)
	}
	if err := svr.Start(); err != nil {
		logging.DefaultLogger().Fatal(err)
	}
	if err := helper.WaitForServerToStart(svr.RPCAddr()); err != nil {
		logging.DefaultLogger().Fatal(err)
	}
	defaultServer = svr

	code := m.Run()
	if err := defaultServer.Shutdown(true); err != nil {
		logging.DefaultLogger().Error(err)
	}
	os.Exit(code)
}

// newClient returns a client of the default server.
func newClient(t *testing.T) *client.Client {
	cli, err := client.New(defaultServer.RPCAddr())
	require.NoError(t, err)
	return cli
}

// createShare shares a document seeded with the given text.
func createShare(t *testing.T, cli *client.Client, seed string) string {
	token, err := cli.CreateShare(context.Background(), &types.CreateShareRequest{
		SeedText:  seed,
		SourceKey: t.Name(),
		Title:     t.Name(),
	})
	require.NoError(t, err)
	return token
}

// connect connects to the document as the given contributor. The
// connection is closed when the test ends.
func connect(t *testing.T, cli *client.Client, token, contributor string) *client.Document {
	doc, err := cli.Connect(context.Background(), token, helper.TestContributor(contributor))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, doc.Close())
	})
	return doc
}

// waitForEvent waits for an event of the given type on the document.
func waitForEvent(t *testing.T, doc *client.Document, typ client.EventType) client.Event {
	t.Helper()

	timer := gotime.NewTimer(waitTimeout)
	defer timer.Stop()
	for {
		select {
		case event := <-doc.Events():
			if event.Type == typ {
				return event
			}
		case <-doc.Done():
			require.Failf(t, "closed", "connection closed while waiting for %s: %v", typ, doc.Err())
			return client.Event{}
		case <-timer.C:
			require.Failf(t, "timeout", "no %s event", typ)
			return client.Event{}
		}
	}
}

// assertConverged waits until every document has the given text.
func assertConverged(t *testing.T, expected string, docs ...*client.Document) {
	t.Helper()

	assert.Eventually(t, func() bool {
		for _, doc := range docs {
			if doc.Text() != expected {
				return false
			}
		}
		return true
	}, waitTimeout, 10*gotime.Millisecond)
}
