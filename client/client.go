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
// Package client provides the client of the server of shared documents. It
// calls the HTTP API and keeps local replicas of documents in sync over
// websocket connections.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yorkie-team/sharenote/api/types"
)

// RemoteError is an error returned by the server.
type RemoteError struct {
	// HTTPStatus is the status of the response, zero for errors of document
	// connections.
	HTTPStatus int

	// Code is the code of the error, e.g. "ErrTokenNotFound".
	Code string

	Message string
}

// Error returns the error message.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client is a normal client that can communicate with the server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *zap.Logger
}

// New creates an instance of Client. rpcAddr is the address of the server,
// with or without the http or https scheme.
func New(rpcAddr string, opts ...Option) (*Client, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	if !strings.HasPrefix(rpcAddr, "http://") && !strings.HasPrefix(rpcAddr, "https://") {
		rpcAddr = "http://" + rpcAddr
	}
	baseURL, err := url.Parse(rpcAddr)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rpcAddr, err)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	dialer := options.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		dialer:     dialer,
		logger:     logger,
	}, nil
}

// CreateShare creates a shared document and returns its token.
func (c *Client) CreateShare(ctx context.Context, req *types.CreateShareRequest) (string, error) {
	res := &types.CreateShareResponse{}
	if err := c.do(ctx, http.MethodPost, "/api/shared", nil, req, res); err != nil {
		return "", err
	}
	return res.Token, nil
}

// ListShares lists the documents shared from the given note.
func (c *Client) ListShares(ctx context.Context, sourceKey string) ([]*types.ShareSummary, error) {
	var res []*types.ShareSummary
	query := url.Values{"source_key": []string{sourceKey}}
	if err := c.do(ctx, http.MethodGet, "/api/shared", query, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetShare returns the summary of the document along with its text.
func (c *Client) GetShare(ctx context.Context, token string) (*types.ShareSummary, error) {
	res := &types.ShareSummary{}
	if err := c.do(ctx, http.MethodGet, "/api/shared/"+token, nil, nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Deactivate makes the document read-only.
func (c *Client) Deactivate(ctx context.Context, token string) (*types.ShareSummary, error) {
	res := &types.ShareSummary{}
	path := "/api/shared/" + token + "/deactivate"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Contributors returns the contributors of the document.
func (c *Client) Contributors(ctx context.Context, token string) ([]types.Contributor, error) {
	var res []types.Contributor
	path := "/api/shared/" + token + "/contributors"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Attribution returns the attribution table of the document.
func (c *Client) Attribution(ctx context.Context, token string) (*types.AttributionResponse, error) {
	res := &types.AttributionResponse{}
	path := "/api/shared/" + token + "/attribution"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body any,
	res any,
) error {
	u := c.baseURL.JoinPath(path)
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		errRes := &types.ErrorResponse{}
		if err := json.NewDecoder(resp.Body).Decode(errRes); err != nil {
			return &RemoteError{HTTPStatus: resp.StatusCode, Code: "ErrUnknown", Message: resp.Status}
		}
		return &RemoteError{HTTPStatus: resp.StatusCode, Code: errRes.Code, Message: errRes.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// documentURL returns the websocket url of the document.
func (c *Client) documentURL(token string) string {
	u := c.baseURL.JoinPath("/api/shared", token, "ws")
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}
