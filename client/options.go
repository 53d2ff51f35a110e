/*
 * Copyright 2020 The Yorkie Authors. All rights reserved.
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
package client

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Option configures Options.
type Option func(*Options)

// Options configures how we set up the client.
type Options struct {
	// HTTPClient is the client of the HTTP API.
	HTTPClient *http.Client

	// Dialer is the dialer of document connections.
	Dialer *websocket.Dialer

	// Logger is the Logger of the client.
	Logger *zap.Logger
}

// WithHTTPClient configures the client of the HTTP API.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *Options) { o.HTTPClient = httpClient }
}

// WithDialer configures the dialer of document connections.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(o *Options) { o.Dialer = dialer }
}

// WithLogger configures the Logger of the client.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}
