// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/WorkspaceGateway/services/gateway/datatypes"
)

// DefaultInterval is the sampling period.
const DefaultInterval = 5000 * time.Millisecond

// Publisher receives the updates the sampler produces.
type Publisher interface {
	PushUpdate(update datatypes.Update)
}

// TickObserver is told whether each tick produced a sample.
type TickObserver interface {
	ObserveSamplerTick(ok bool)
}

// SamplerConfig configures a Sampler.
type SamplerConfig struct {
	// Interval between samples. The first sample is taken one interval
	// after Start. Default: DefaultInterval.
	Interval time.Duration
}

// Sampler takes a snapshot every interval and publishes it.
//
// # Description
//
// At most one sampling job runs at a time. Start while a job is running
// stops that job before arming the new one, so calling Start repeatedly
// never leaves more than one ticker behind. Stop is idempotent.
//
// A failed sample is logged and the tick is skipped; the job keeps running.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type Sampler struct {
	source    Source
	publisher Publisher
	observer  TickObserver
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// loops counts running sampling goroutines.
	loops atomic.Int32
}

// NewSampler creates a stopped sampler.
func NewSampler(source Source, publisher Publisher, config SamplerConfig) *Sampler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Sampler{
		source:    source,
		publisher: publisher,
		interval:  config.Interval,
	}
}

// SetTickObserver registers an observer for tick outcomes. Call before Start.
func (s *Sampler) SetTickObserver(o TickObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = o
}

// Interval returns the sampling period.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Start arms the sampling job, replacing any job already running. The job
// ends when ctx is done or Stop is called.
func (s *Sampler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	jobCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	slog.Info("Telemetry sampler starting", "interval", s.interval.String())
	s.loops.Add(1)
	go s.runLoop(jobCtx, done, s.observer)
}

// Stop cancels the running job and waits for it to exit.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Running reports whether a sampling job is active. A job whose parent
// context ended is not running.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *Sampler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	slog.Info("Telemetry sampler stopped")
}

func (s *Sampler) runLoop(ctx context.Context, done chan struct{}, observer TickObserver) {
	defer close(done)
	defer s.loops.Add(-1)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, observer)
		}
	}
}

// tick takes one sample and publishes it.
func (s *Sampler) tick(ctx context.Context, observer TickObserver) {
	snapshot, err := s.source.Sample(ctx)
	if observer != nil {
		observer.ObserveSamplerTick(err == nil)
	}
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Telemetry sample failed, skipping tick", "error", err)
		}
		return
	}
	s.publisher.PushUpdate(datatypes.NewServerMetrics(snapshot))
}
