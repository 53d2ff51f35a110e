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

package httphelper

import (
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/yorkie-team/sharenote/server/logging"
	"github.com/yorkie-team/sharenote/server/profiling/prometheus"
)

type reqID int32

func (c *reqID) next() string {
	next := atomic.AddInt32((*int32)(c), 1)
	return "r" + strconv.Itoa(int(next))
}

// LoggingMiddleware attaches a request logger to the context of every
// request and records the handled requests.
type LoggingMiddleware struct {
	reqID   reqID
	metrics *prometheus.Metrics
}

// NewLoggingMiddleware creates a new instance of LoggingMiddleware.
func NewLoggingMiddleware(metrics *prometheus.Metrics) *LoggingMiddleware {
	return &LoggingMiddleware{metrics: metrics}
}

// Wrap returns the handler wrapped by this middleware.
func (m *LoggingMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logging.New(m.reqID.next())
		r = r.WithContext(logging.With(r.Context(), reqLogger))

		captured := httpsnoop.CaptureMetrics(next, w, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		m.metrics.AddServerHandledCounter(route, r.Method, captured.Code)
		reqLogger.Debugf("%s %s %d %s", r.Method, route, captured.Code, captured.Duration)
	})
}
