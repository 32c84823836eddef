// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var errQueueFull = errors.New("session queue full")

// Conn is the transport a session writes to and reads from. It matches the
// subset of *websocket.Conn the hub uses.
//
// One goroutine reads and one goroutine writes; Close may be called from
// any goroutine.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is one connected client.
//
// # Description
//
// A session owns a bounded queue of encoded frames drained by its writer
// goroutine, and a context that is cancelled exactly once when the session
// closes. Work started on behalf of the client (validations) is bound to
// that context and is dropped when it ends.
type Session struct {
	id      string
	conn    Conn
	ctx     context.Context
	cancel  context.CancelFunc
	out     chan []byte
	limiter *rate.Limiter

	closeOnce  sync.Once
	writerDone chan struct{}
}

func newSession(ctx context.Context, id string, conn Conn, cfg Config) *Session {
	sctx, cancel := context.WithCancel(ctx)
	return &Session{
		id:         id,
		conn:       conn,
		ctx:        sctx,
		cancel:     cancel,
		out:        make(chan []byte, cfg.QueueSize),
		limiter:    rate.NewLimiter(rate.Limit(cfg.InboundRate), cfg.InboundBurst),
		writerDone: make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	return s.ctx.Err() != nil
}

// enqueue offers an encoded frame without blocking.
func (s *Session) enqueue(frame []byte) error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	select {
	case s.out <- frame:
		return nil
	default:
		return errQueueFull
	}
}

// close cancels the session and closes the transport. Safe to call more
// than once.
func (s *Session) close() bool {
	closed := false
	s.closeOnce.Do(func() {
		s.cancel()
		_ = s.conn.Close()
		closed = true
	})
	return closed
}
