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
	"bytes"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/AleutianAI/WorkspaceGateway/services/gateway/datatypes"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/observability"
)

// readLoop decodes inbound frames until the transport fails. A read error
// means the client is gone.
func (h *Hub) readLoop(s *Session) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil {
				h.logger.Debug("Read failed, disconnecting", "session_id", s.id, "error", err)
			}
			return
		}

		if !s.limiter.Allow() {
			h.sendError(s, "", "", "rate limit exceeded")
			continue
		}

		var env datatypes.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			h.sendError(s, "", "", "malformed frame")
			continue
		}
		h.dispatch(s, env)
	}
}

// dispatch routes one inbound frame.
func (h *Hub) dispatch(s *Session, env datatypes.Envelope) {
	defer h.recoverPanic(s, env.Event)

	switch env.Event {
	case datatypes.EventValidateComponent:
		h.handleValidate(s, env)

	case datatypes.EventEnforceStandards:
		var req datatypes.EnforceRequest
		if err := decodeData(env.Data, &req); err != nil {
			h.sendError(s, env.Event, env.ID, fmt.Sprintf("invalid payload: %v", err))
			return
		}
		if err := req.Validate(); err != nil {
			h.sendError(s, env.Event, env.ID, fmt.Sprintf("invalid payload: %v", err))
			return
		}
		h.send(s, datatypes.Message{
			Event: datatypes.EventEnforceStandards,
			ID:    env.ID,
			Data:  h.engine.EnforcePatterns(req.Code),
		})

	case datatypes.EventGetStandards:
		h.send(s, datatypes.Message{
			Event: datatypes.EventGetStandards,
			ID:    env.ID,
			Data:  h.engine.Document(),
		})

	case datatypes.EventMessage:
		h.Broadcast(datatypes.Message{Event: datatypes.EventMessage, Data: env.Data})

	default:
		h.sendError(s, env.Event, env.ID, fmt.Sprintf("%v: %s", ErrUnknownEvent, env.Event))
	}
}

// handleValidate runs the engine on its own goroutine so a slow validation
// never blocks the session's reader. The reply goes to s only and is
// dropped if s closes first.
func (h *Hub) handleValidate(s *Session, env datatypes.Envelope) {
	var d datatypes.ComponentDescriptor
	err := decodeData(env.Data, &d)
	if err == nil {
		err = d.Validate()
	}
	if err != nil {
		h.metrics.ValidationCompleted(observability.OutcomeError)
		h.send(s, datatypes.Message{
			Event: datatypes.EventValidationError,
			ID:    env.ID,
			Data:  datatypes.NewValidationError(fmt.Errorf("invalid component descriptor: %w", err)),
		})
		return
	}

	go func() {
		defer h.recoverPanic(s, env.Event)

		result, err := h.engine.Validate(s.ctx, d)
		if s.ctx.Err() != nil {
			h.metrics.ValidationCompleted(observability.OutcomeAbandoned)
			return
		}
		if err != nil {
			h.logger.Warn("Validation failed", "session_id", s.id, "error", err)
			h.metrics.ValidationCompleted(observability.OutcomeError)
			h.send(s, datatypes.Message{
				Event: datatypes.EventValidationError,
				ID:    env.ID,
				Data:  datatypes.NewValidationError(err),
			})
			return
		}

		outcome := observability.OutcomeValid
		if !result.IsValid {
			outcome = observability.OutcomeInvalid
		}
		h.metrics.ValidationCompleted(outcome)
		h.send(s, datatypes.Message{
			Event: datatypes.EventValidationResult,
			ID:    env.ID,
			Data:  result,
		})
	}()
}

func (h *Hub) sendError(s *Session, event, id, message string) {
	h.send(s, datatypes.Message{
		Event: datatypes.EventError,
		ID:    id,
		Data:  datatypes.ErrorPayload{Message: message, Event: event},
	})
}

// recoverPanic keeps a failing handler from taking the process down.
func (h *Hub) recoverPanic(s *Session, event string) {
	if r := recover(); r != nil {
		h.logger.Error("Session handler panicked",
			"session_id", s.id,
			"event", event,
			"panic", r,
			"stack", string(debug.Stack()),
		)
	}
}

// decodeData decodes an optional payload. Absent or null leaves v untouched.
func decodeData(data json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, v)
}
