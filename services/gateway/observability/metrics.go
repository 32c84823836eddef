// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the workspace gateway.
//
// # Description
//
// Metrics cover the update hub (sessions, pushed updates, dropped frames,
// validation outcomes), the telemetry sampler and validation latency. They
// are exposed on /metrics.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
// Every method is safe to call on a nil *Metrics, which records nothing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "workspace"

const (
	hubSubsystem        = "hub"
	samplerSubsystem    = "sampler"
	validationSubsystem = "validation"
)

// Validation outcomes.
const (
	OutcomeValid     = "valid"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
	OutcomeAbandoned = "abandoned"
)

// Metrics holds the gateway's Prometheus collectors.
//
// # Fields
//
//   - ActiveSessions: Connected websocket sessions.
//   - UpdatesTotal: Updates fanned out, by update type.
//   - DroppedTotal: Frames dropped because a session queue was full, by event.
//   - ValidationsTotal: Validation requests, by outcome.
//   - SamplerTicksTotal: Sampler ticks, by status (ok, error).
//   - ValidationDurationSeconds: Engine latency per validation.
type Metrics struct {
	ActiveSessions            prometheus.Gauge
	UpdatesTotal              *prometheus.CounterVec
	DroppedTotal              *prometheus.CounterVec
	ValidationsTotal          *prometheus.CounterVec
	SamplerTicksTotal         *prometheus.CounterVec
	ValidationDurationSeconds prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: hubSubsystem,
			Name:      "active_sessions",
			Help:      "Number of connected workspace sessions",
		}),
		UpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: hubSubsystem,
			Name:      "updates_total",
			Help:      "Updates fanned out to sessions by update type",
		}, []string{"type"}),
		DroppedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: hubSubsystem,
			Name:      "dropped_total",
			Help:      "Outbound frames dropped because a session queue was full",
		}, []string{"event"}),
		ValidationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: hubSubsystem,
			Name:      "validations_total",
			Help:      "Validation requests by outcome",
		}, []string{"outcome"}),
		SamplerTicksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: samplerSubsystem,
			Name:      "ticks_total",
			Help:      "Telemetry sampler ticks by status",
		}, []string{"status"}),
		ValidationDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: validationSubsystem,
			Name:      "duration_seconds",
			Help:      "Time spent validating one component descriptor",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// =============================================================================
// Recording
// =============================================================================

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// UpdatePushed counts one fanned-out update.
func (m *Metrics) UpdatePushed(updateType string) {
	if m == nil {
		return
	}
	m.UpdatesTotal.WithLabelValues(updateType).Inc()
}

// FrameDropped counts a frame a session could not accept.
func (m *Metrics) FrameDropped(event string) {
	if m == nil {
		return
	}
	m.DroppedTotal.WithLabelValues(event).Inc()
}

// ValidationCompleted counts a validation request by outcome.
func (m *Metrics) ValidationCompleted(outcome string) {
	if m == nil {
		return
	}
	m.ValidationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSamplerTick counts a sampler tick.
func (m *Metrics) ObserveSamplerTick(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.SamplerTicksTotal.WithLabelValues(status).Inc()
}

// ObserveValidationDuration records engine latency.
func (m *Metrics) ObserveValidationDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.ValidationDurationSeconds.Observe(d.Seconds())
}
