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
// Package rpc provides the HTTP control surface and the websocket document
// connections of the server.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"connectrpc.com/grpchealth"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/yorkie-team/sharenote/server/backend"
	"github.com/yorkie-team/sharenote/server/logging"
	"github.com/yorkie-team/sharenote/server/rpc/health"
	"github.com/yorkie-team/sharenote/server/rpc/httphelper"
	"github.com/yorkie-team/sharenote/server/sessions"
)

// Server is a normal server that processes the logic requested by the client.
type Server struct {
	conf       *Config
	be         *backend.Backend
	registry   *sessions.Registry
	checker    *grpchealth.StaticChecker
	upgrader   websocket.Upgrader
	httpServer *http.Server

	// serviceCtx is canceled on shutdown, closing document connections.
	serviceCtx    context.Context
	serviceCancel context.CancelFunc
	connections   sync.WaitGroup
	closing       bool
	closingLock   sync.Mutex

	addr     net.Addr
	addrLock sync.RWMutex
}

// NewServer creates a new instance of Server.
func NewServer(conf *Config, be *backend.Backend, registry *sessions.Registry) *Server {
	serviceCtx, serviceCancel := context.WithCancel(context.Background())

	s := &Server{
		conf:     conf,
		be:       be,
		registry: registry,
		checker:  health.NewChecker(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}

	s.httpServer = &http.Server{Handler: s.newRouter()}
	return s
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(httphelper.NewLoggingMiddleware(s.be.Metrics).Wrap)

	r.Methods(http.MethodGet).Path(health.Path).Handler(health.NewHandler(s.checker))

	api := r.PathPrefix("/api/shared").Subrouter()
	api.Methods(http.MethodPost).Path("").HandlerFunc(s.createShare)
	api.Methods(http.MethodGet).Path("").HandlerFunc(s.listShares)
	api.Methods(http.MethodGet).Path("/{token}").HandlerFunc(s.getShare)
	api.Methods(http.MethodPost).Path("/{token}/deactivate").HandlerFunc(s.deactivateShare)
	api.Methods(http.MethodGet).Path("/{token}/contributors").HandlerFunc(s.getContributors)
	api.Methods(http.MethodGet).Path("/{token}/attribution").HandlerFunc(s.getAttribution)
	api.Methods(http.MethodGet).Path("/{token}/ws").HandlerFunc(s.connect)

	return r
}

// Handler returns the handler of this server, for serving it elsewhere.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts this server by opening the rpc port.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.conf.Port))
	if err != nil {
		logging.DefaultLogger().Error(err)
		return err
	}

	s.addrLock.Lock()
	s.addr = lis.Addr()
	s.addrLock.Unlock()

	go func() {
		logging.DefaultLogger().Infof("serving RPC on %d", s.conf.Port)

		var err error
		if s.conf.CertFile != "" && s.conf.KeyFile != "" {
			err = s.httpServer.ServeTLS(lis, s.conf.CertFile, s.conf.KeyFile)
		} else {
			err = s.httpServer.Serve(lis)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.DefaultLogger().Error(err)
		}
	}()

	return nil
}

// Addr returns the address the server listens on, nil before Start.
func (s *Server) Addr() net.Addr {
	s.addrLock.RLock()
	defer s.addrLock.RUnlock()
	return s.addr
}

// Shutdown shuts down this server. Document connections are closed with
// going away, after which the graceful shutdown waits for the pending
// requests.
func (s *Server) Shutdown(graceful bool) {
	s.checker.SetStatus(health.ShareService, grpchealth.StatusNotServing)
	s.checker.SetStatus(health.DocumentService, grpchealth.StatusNotServing)

	s.closingLock.Lock()
	s.closing = true
	s.closingLock.Unlock()
	s.serviceCancel()

	if !graceful {
		if err := s.httpServer.Close(); err != nil {
			logging.DefaultLogger().Error(err)
		}
		return
	}

	if err := s.httpServer.Shutdown(context.Background()); err != nil {
		logging.DefaultLogger().Error(err)
	}
	s.connections.Wait()
}
