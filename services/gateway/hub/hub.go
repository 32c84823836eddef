// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package hub fans heartbeat and telemetry updates out to connected
// workspace clients and answers their validation requests.
//
// # Description
//
// The hub keeps a table of sessions. Updates pushed into the hub are
// encoded once and offered to every session's bounded queue; a session
// whose queue is full misses that frame while the others are unaffected.
// Replies to a request go to the requesting session only.
//
//	Sampler ──PushUpdate──▶ Hub ──▶ session queue ──▶ writer ──▶ client
//	client ──▶ reader ──▶ dispatch ──▶ Engine (own goroutine) ──▶ requester
//
// # Thread Safety
//
// Hub is safe for concurrent use. The session table is guarded by a
// RWMutex; fan-out works on a snapshot taken under the read lock.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/WorkspaceGateway/services/gateway/datatypes"
)

var (
	// ErrHubClosed is returned by Connect after Close.
	ErrHubClosed = errors.New("hub is closed")

	// ErrSessionClosed is returned when sending to a closed session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrUnknownEvent is reported to clients that send an unsupported event.
	ErrUnknownEvent = errors.New("unknown event")
)

// Engine is the validation engine the hub delegates to.
type Engine interface {
	Validate(ctx context.Context, d datatypes.ComponentDescriptor) (datatypes.ValidationResult, error)
	EnforcePatterns(code string) []string
	Document() any
}

// Metrics receives hub counters. *observability.Metrics implements it.
type Metrics interface {
	SessionOpened()
	SessionClosed()
	UpdatePushed(updateType string)
	FrameDropped(event string)
	ValidationCompleted(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) SessionOpened()             {}
func (noopMetrics) SessionClosed()             {}
func (noopMetrics) UpdatePushed(string)        {}
func (noopMetrics) FrameDropped(string)        {}
func (noopMetrics) ValidationCompleted(string) {}

// =============================================================================
// Configuration
// =============================================================================

// Config configures a Hub. Zero fields take the defaults below.
type Config struct {
	// HeartbeatInterval between heartbeat updates. Default: 30s.
	HeartbeatInterval time.Duration

	// QueueSize is the per-session outbound buffer, in frames. Default: 64.
	QueueSize int

	// WriteTimeout bounds a single frame write. Default: 10s.
	WriteTimeout time.Duration

	// InboundRate is the sustained inbound frames per second allowed per
	// session. Default: 20.
	InboundRate float64

	// InboundBurst is the inbound burst size. Default: 40.
	InboundBurst int
}

// DefaultConfig returns the default hub configuration.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 30 * time.Second,
		QueueSize:         64,
		WriteTimeout:      10 * time.Second,
		InboundRate:       20,
		InboundBurst:      40,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.InboundRate <= 0 {
		c.InboundRate = d.InboundRate
	}
	if c.InboundBurst <= 0 {
		c.InboundBurst = d.InboundBurst
	}
	return c
}

// =============================================================================
// Hub
// =============================================================================

// Hub owns the session table and the heartbeat stream.
type Hub struct {
	cfg     Config
	engine  Engine
	metrics Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithMetrics records hub counters.
func WithMetrics(m Metrics) Option {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) { h.logger = logger }
}

// New creates a hub. Call Run to start the heartbeat.
func New(engine Engine, cfg Config, opts ...Option) *Hub {
	h := &Hub{
		cfg:      cfg.withDefaults(),
		engine:   engine,
		metrics:  noopMetrics{},
		logger:   slog.Default(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run emits a heartbeat immediately and then every HeartbeatInterval,
// whether or not any client is connected. When ctx ends every session is
// closed and Run returns.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.cfg.HeartbeatInterval)
	defer ticker.Stop()

	h.logger.Info("Update hub started", "heartbeat_interval", h.cfg.HeartbeatInterval.String())
	h.PushUpdate(datatypes.NewHeartbeat(h.now()))

	for {
		select {
		case <-ctx.Done():
			h.Close()
			h.logger.Info("Update hub stopped")
			return nil
		case <-ticker.C:
			h.PushUpdate(datatypes.NewHeartbeat(h.now()))
		}
	}
}

// Connect registers a session for conn and starts its writer. The session
// lives until Disconnect, Close, a write failure, or ctx ending.
func (h *Hub) Connect(ctx context.Context, conn Conn) (*Session, error) {
	s := newSession(ctx, uuid.NewString(), conn, h.cfg)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.cancel()
		return nil, ErrHubClosed
	}
	h.sessions[s.id] = s
	count := len(h.sessions)
	h.mu.Unlock()

	h.metrics.SessionOpened()
	h.logger.Info("Client connected", "session_id", s.id, "sessions", count)

	go h.writeLoop(s)
	go func() {
		<-s.ctx.Done()
		h.Disconnect(s.id)
	}()
	return s, nil
}

// Serve connects conn and processes its inbound frames until the transport
// fails or the session is closed. The session is always disconnected when
// Serve returns.
func (h *Hub) Serve(ctx context.Context, conn Conn) error {
	s, err := h.Connect(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer h.Disconnect(s.id)

	h.readLoop(s)
	return nil
}

// Disconnect closes and unregisters a session. It reports whether the
// session was registered; a second call is a no-op returning false.
func (h *Hub) Disconnect(id string) bool {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	count := len(h.sessions)
	h.mu.Unlock()

	if !ok {
		return false
	}

	s.close()
	h.metrics.SessionClosed()
	h.logger.Info("Client disconnected", "session_id", id, "sessions", count)
	return true
}

// Close disconnects every session and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		h.Disconnect(id)
	}
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// PushUpdate delivers one update to every connected session as an update
// event. It never blocks on a slow client.
func (h *Hub) PushUpdate(update datatypes.Update) {
	h.metrics.UpdatePushed(update.Type)
	h.Broadcast(datatypes.Message{Event: datatypes.EventUpdate, Data: update})
}

// Broadcast encodes msg once and offers the frame to every session.
func (h *Hub) Broadcast(msg datatypes.Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode broadcast", "event", msg.Event, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		h.offer(s, msg.Event, frame)
	}
}

// send encodes msg and offers it to a single session.
func (h *Hub) send(s *Session, msg datatypes.Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", "session_id", s.id, "event", msg.Event, "error", err)
		return
	}
	h.offer(s, msg.Event, frame)
}

func (h *Hub) offer(s *Session, event string, frame []byte) {
	if err := s.enqueue(frame); errors.Is(err, errQueueFull) {
		h.metrics.FrameDropped(event)
		h.logger.Debug("Session queue full, dropping frame", "session_id", s.id, "event", event)
	}
}

func (h *Hub) writeLoop(s *Session) {
	defer close(s.writerDone)
	for {
		select {
		case <-s.ctx.Done():
			return
		case frame := <-s.out:
			_ = s.conn.SetWriteDeadline(h.now().Add(h.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if s.ctx.Err() == nil {
					h.logger.Debug("Write failed, disconnecting", "session_id", s.id, "error", err)
				}
				h.Disconnect(s.id)
				return
			}
		}
	}
}
