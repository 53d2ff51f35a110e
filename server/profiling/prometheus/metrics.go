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

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yorkie-team/sharenote/internal/version"
)

const (
	namespace     = "sharenote"
	hostnameLabel = "hostname"
	taskTypeLabel = "task_type"
	sourceLabel   = "source"
	reasonLabel   = "reason"
	routeLabel    = "route"
	methodLabel   = "method"
	codeLabel     = "code"
)

// Sources of applied operations.
const (
	// SourceEdit is an edit message of a connection.
	SourceEdit = "edit"
	// SourceClient is an operation created by a client replica.
	SourceClient = "client"
	// SourceRelay is an operation relayed from another server.
	SourceRelay = "relay"
	// SourceStore is an operation merged from the stored checkpoint.
	SourceStore = "store"
)

// Metrics manages the metric information that sharenote is trying to measure.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion        *prometheus.GaugeVec
	serverHandledCounter *prometheus.CounterVec

	activeActors      *prometheus.GaugeVec
	connections       *prometheus.GaugeVec
	appliedOperations *prometheus.CounterVec
	deferredOps       *prometheus.CounterVec
	expiredOps        *prometheus.CounterVec
	resyncs           *prometheus.CounterVec
	overloaded        *prometheus.CounterVec

	checkpointSeconds  prometheus.Histogram
	checkpointFailures *prometheus.CounterVec

	backgroundGoroutinesTotal *prometheus.GaugeVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		serverHandledCounter: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "server_handled_total",
			Help:      "Total number of HTTP requests completed on the server, regardless of success or failure.",
		}, []string{routeLabel, methodLabel, codeLabel}),
		activeActors: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "active_actors",
			Help:      "The number of documents loaded in memory.",
		}, []string{hostnameLabel}),
		connections: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "connections",
			Help:      "The number of open document connections.",
		}, []string{hostnameLabel}),
		appliedOperations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "applied_operations_total",
			Help:      "The total count of operations applied to documents.",
		}, []string{hostnameLabel, sourceLabel}),
		deferredOps: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "deferred_operations_total",
			Help:      "The total count of operations buffered for missing dependencies.",
		}, []string{hostnameLabel}),
		expiredOps: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "expired_operations_total",
			Help:      "The total count of buffered operations whose dependencies never arrived.",
		}, []string{hostnameLabel}),
		resyncs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "resyncs_total",
			Help:      "The total count of full snapshots sent to connections.",
		}, []string{hostnameLabel, reasonLabel}),
		overloaded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "overloaded_disconnects_total",
			Help:      "The total count of connections closed because their queue was full.",
		}, []string{hostnameLabel}),
		checkpointSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "checkpoint_seconds",
			Help:      "The time taken to write a checkpoint, including retries.",
		}),
		checkpointFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "checkpoint_failures_total",
			Help:      "The total count of checkpoints that failed after every retry.",
		}, []string{hostnameLabel}),
		backgroundGoroutinesTotal: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "background",
			Name:      "goroutines_total",
			Help:      "The total number of goroutines attached by a particular background task.",
		}, []string{taskTypeLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// AddServerHandledCounter adds the number of HTTP requests completed on the
// server.
func (m *Metrics) AddServerHandledCounter(route, method string, code int) {
	m.serverHandledCounter.With(prometheus.Labels{
		routeLabel:  route,
		methodLabel: method,
		codeLabel:   strconv.Itoa(code),
	}).Inc()
}

// AddActiveActors adds the number of documents loaded in memory.
func (m *Metrics) AddActiveActors(hostname string) {
	m.activeActors.WithLabelValues(hostname).Inc()
}

// RemoveActiveActors removes the number of documents loaded in memory.
func (m *Metrics) RemoveActiveActors(hostname string) {
	m.activeActors.WithLabelValues(hostname).Dec()
}

// AddConnections adds the number of open document connections.
func (m *Metrics) AddConnections(hostname string) {
	m.connections.WithLabelValues(hostname).Inc()
}

// RemoveConnections removes the number of open document connections.
func (m *Metrics) RemoveConnections(hostname string) {
	m.connections.WithLabelValues(hostname).Dec()
}

// AddAppliedOperations adds the number of applied operations of the source.
func (m *Metrics) AddAppliedOperations(hostname, source string, count int) {
	m.appliedOperations.WithLabelValues(hostname, source).Add(float64(count))
}

// AddDeferredOperations adds the number of buffered operations.
func (m *Metrics) AddDeferredOperations(hostname string) {
	m.deferredOps.WithLabelValues(hostname).Inc()
}

// AddExpiredOperations adds the number of expired buffered operations.
func (m *Metrics) AddExpiredOperations(hostname string, count int) {
	m.expiredOps.WithLabelValues(hostname).Add(float64(count))
}

// AddResyncs adds the number of full snapshots sent for the reason.
func (m *Metrics) AddResyncs(hostname, reason string) {
	m.resyncs.WithLabelValues(hostname, reason).Inc()
}

// AddOverloadedDisconnects adds the number of overloaded connections.
func (m *Metrics) AddOverloadedDisconnects(hostname string) {
	m.overloaded.WithLabelValues(hostname).Inc()
}

// ObserveCheckpointSeconds records the time taken by a checkpoint.
func (m *Metrics) ObserveCheckpointSeconds(seconds float64) {
	m.checkpointSeconds.Observe(seconds)
}

// AddCheckpointFailures adds the number of failed checkpoints.
func (m *Metrics) AddCheckpointFailures(hostname string) {
	m.checkpointFailures.WithLabelValues(hostname).Inc()
}

// AddBackgroundGoroutines adds the number of goroutines attached by a
// particular background task.
func (m *Metrics) AddBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Inc()
}

// RemoveBackgroundGoroutines removes the number of goroutines attached by a
// particular background task.
func (m *Metrics) RemoveBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Dec()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
