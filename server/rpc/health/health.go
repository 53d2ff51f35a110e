/*
 * Copyright 2021 The Yorkie Authors. All rights reserved.
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
// Package health serves the health of the server over HTTP GET.
package health

import (
	"encoding/json"
	"net/http"

	"connectrpc.com/grpchealth"
)

// Path is the path the health check is served on.
const Path = "/healthz"

// Names of the services whose health can be checked with the service query
// parameter.
const (
	ShareService    = "sharenote.ShareService"
	DocumentService = "sharenote.DocumentService"
)

// CheckResponse represents the response structure for health checks.
type CheckResponse struct {
	Status string `json:"status"`
}

// NewChecker creates a checker reporting every service as serving.
func NewChecker() *grpchealth.StaticChecker {
	return grpchealth.NewStaticChecker(ShareService, DocumentService)
}

// NewHandler creates a handler for health checks. An unknown service is
// answered with 404 and a service that is not serving with 503.
func NewHandler(checker grpchealth.Checker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		checkResponse, err := checker.Check(r.Context(), &grpchealth.CheckRequest{
			Service: r.URL.Query().Get("service"),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		resp, err := json.Marshal(CheckResponse{checkResponse.Status.String()})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		status := http.StatusOK
		if checkResponse.Status != grpchealth.StatusServing {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(resp)
	})
}
