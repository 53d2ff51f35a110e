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
package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/server/documents"
	"github.com/yorkie-team/sharenote/server/rpc/httphelper"
	"github.com/yorkie-team/sharenote/server/sessions"
)

// createShare creates a shared document from the text of a note.
func (s *Server) createShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := &types.CreateShareRequest{}
	body := http.MaxBytesReader(w, r.Body, s.conf.MaxRequestBytes)
	if err := json.NewDecoder(body).Decode(req); err != nil {
		httphelper.WriteError(ctx, w, fmt.Errorf("decode: %s: %w", err.Error(), types.ErrInvalidShareRequest))
		return
	}
	if err := req.Validate(); err != nil {
		httphelper.WriteError(ctx, w, err)
		return
	}

	info, err := s.registry.Create(ctx, req.SeedText, sessions.CreateOptions{
		SourceKey: req.SourceKey,
		Title:     req.Title,
	})
	if err != nil {
		httphelper.WriteError(ctx, w, err)
		return
	}

	httphelper.WriteJSON(ctx, w, http.StatusCreated, &types.CreateShareResponse{Token: info.Token})
}

// listShares lists the documents shared from the note of the source_key
// query parameter.
func (s *Server) listShares(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sourceKey := r.URL.Query().Get("source_key")
	if sourceKey == "" {
		httphelper.WriteError(ctx, w, fmt.Errorf("source_key is required: %w", types.ErrInvalidShareRequest))
		return
	}

	summaries, err := documents.ListShareSummaries(ctx, s.be, sourceKey)
	if err != nil {
		httphelper.WriteError(ctx, w, err)
		return
	}

	httphelper.WriteJSON(ctx, w, http.StatusOK, summaries)
}

func (s *Server) getShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	info, text, err := s.registry.Info(ctx, mux.Vars(r)["token"])
	if err != nil {
		httphelper.WriteError(ctx, w, err)
		return
	}

	httphelper.WriteJSON(ctx, w, http.StatusOK, documents.ToShareSummary(info, text))
}

func (s *Server) deactivateShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := mux.Vars(r)["token"]
	if err := s.registry.Deactivate(ctx, token); err != nil {
		httphelper.WriteError(ctx, w, err)
		return
	}

	info, text, err := s.registry.Info(ctx, token)
	if err != nil {
		httphelper.WriteError(ctx, w, err)
		return
	}

	httphelper.WriteJSON(ctx, w, http.StatusOK, documents.ToShareSummary(info, text))
}

func (s *Server) getContributors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contributors, err := s.registry.Contributors(ctx, mux.Vars(r)["token"])
	if err != nil {
		httphelper.WriteError(ctx, w, err)
		return
	}
	if contributors == nil {
		contributors = []types.Contributor{}
	}

	httphelper.WriteJSON(ctx, w, http.StatusOK, contributors)
}

func (s *Server) getAttribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := s.registry.Attribution(ctx, mux.Vars(r)["token"])
	if err != nil {
		httphelper.WriteError(ctx, w, err)
		return
	}

	httphelper.WriteJSON(ctx, w, http.StatusOK, res)
}
