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

package prometheus_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/server/profiling/prometheus"
)

func TestMetrics(t *testing.T) {
	t.Run("document metrics test", func(t *testing.T) {
		metrics, err := prometheus.NewMetrics()
		assert.NoError(t, err)

		metrics.AddActiveActors("h1")
		metrics.AddActiveActors("h1")
		metrics.RemoveActiveActors("h1")
		metrics.AddAppliedOperations("h1", prometheus.SourceEdit, 3)
		metrics.AddOverloadedDisconnects("h1")

		expected := `
# HELP sharenote_documents_active_actors The number of documents loaded in memory.
# TYPE sharenote_documents_active_actors gauge
sharenote_documents_active_actors{hostname="h1"} 1
# HELP sharenote_documents_applied_operations_total The total count of operations applied to documents.
# TYPE sharenote_documents_applied_operations_total counter
sharenote_documents_applied_operations_total{hostname="h1",source="edit"} 3
# HELP sharenote_documents_overloaded_disconnects_total The total count of connections closed because their queue was full.
# TYPE sharenote_documents_overloaded_disconnects_total counter
sharenote_documents_overloaded_disconnects_total{hostname="h1"} 1
`
		assert.NoError(t, testutil.GatherAndCompare(
			metrics.Registry(),
			strings.NewReader(expected),
			"sharenote_documents_active_actors",
			"sharenote_documents_applied_operations_total",
			"sharenote_documents_overloaded_disconnects_total",
		))
	})
}
