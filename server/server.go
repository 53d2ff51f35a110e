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
// Package server provides the server of shared documents, which is the main
// entry point of the system. The server is responsible for starting the RPC
// server, the profiling server and the housekeeping of documents.
package server

import (
	"context"
	gosync "sync"

	"github.com/yorkie-team/sharenote/server/backend"
	"github.com/yorkie-team/sharenote/server/logging"
	"github.com/yorkie-team/sharenote/server/profiling"
	"github.com/yorkie-team/sharenote/server/profiling/prometheus"
	"github.com/yorkie-team/sharenote/server/rpc"
	"github.com/yorkie-team/sharenote/server/sessions"
)

// Server is a server of shared documents. It receives operations from the
// connections of a document, stores the document, and propagates the
// operations to the other connections.
type Server struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	registry        *sessions.Registry
	rpcServer       *rpc.Server
	profilingServer *profiling.Server

	shutdown   bool
	shutdownCh chan struct{}
}

// New creates a new instance of Server.
func New(conf *Config, opts ...backend.Option) (*Server, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	be, err := backend.New(
		conf.Backend,
		conf.Mongo,
		conf.SQLite,
		conf.Redis,
		conf.Housekeeping,
		metrics,
		conf.Kafka,
		opts...,
	)
	if err != nil {
		return nil, err
	}

	registry := sessions.New(be)
	rpcServer := rpc.NewServer(conf.RPC, be, registry)

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &Server{
		conf:            conf,
		backend:         be,
		registry:        registry,
		rpcServer:       rpcServer,
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// Start starts the server by opening the rpc port.
func (s *Server) Start() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.RegisterHousekeepingTasks(s.backend); err != nil {
		return err
	}

	if err := s.backend.Start(); err != nil {
		return err
	}

	if s.profilingServer != nil {
		if err := s.profilingServer.Start(); err != nil {
			return err
		}
	}

	return s.rpcServer.Start()
}

// Shutdown shuts down this server. Connections are closed first, then every
// loaded document writes its last checkpoint before the backend closes.
func (s *Server) Shutdown(graceful bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.shutdown {
		return nil
	}

	s.rpcServer.Shutdown(graceful)
	if s.profilingServer != nil {
		s.profilingServer.Shutdown(graceful)
	}

	if err := s.registry.Shutdown(context.Background()); err != nil {
		logging.DefaultLogger().Errorf("shutdown registry: %v", err)
	}

	if err := s.backend.Shutdown(); err != nil {
		return err
	}

	close(s.shutdownCh)
	s.shutdown = true
	return nil
}

// ShutdownCh returns the shutdown channel.
func (s *Server) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

// RPCAddr returns the address of the RPC.
func (s *Server) RPCAddr() string {
	return s.conf.RPCAddr()
}

// Registry returns the registry of the loaded documents. It is used for
// testing.
func (s *Server) Registry() *sessions.Registry {
	return s.registry
}

// RunHousekeeping runs every housekeeping task once. It is used for testing.
func (s *Server) RunHousekeeping(ctx context.Context) {
	s.backend.Housekeeping.RunOnce(ctx)
}

// RegisterHousekeepingTasks registers housekeeping tasks.
func (s *Server) RegisterHousekeepingTasks(be *backend.Backend) error {
	return be.Housekeeping.RegisterTask("retire-idle-documents", s.registry.RetireIdle)
}
