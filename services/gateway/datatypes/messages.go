// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides the wire types shared by the workspace gateway.
//
// Every frame on the workspace socket is a JSON text message shaped as an
// Envelope (client to server) or a Message (server to client):
//
//	{"event": "validateComponent", "id": "42", "data": {...}}
//
// The id is optional and echoed back on replies so a client can correlate
// overlapping requests.
package datatypes

import (
	"encoding/json"
	"time"
)

// =============================================================================
// Event Names
// =============================================================================

const (
	// EventValidateComponent asks the server to validate a component descriptor.
	EventValidateComponent = "validateComponent"

	// EventEnforceStandards asks for the banned-pattern scan of a code string.
	EventEnforceStandards = "enforceStandards"

	// EventGetStandards asks for the active standards document.
	EventGetStandards = "getStandards"

	// EventMessage is relayed verbatim to every connected client.
	EventMessage = "message"

	// EventUpdate carries heartbeat and telemetry updates.
	EventUpdate = "update"

	// EventValidationResult answers a validateComponent request.
	EventValidationResult = "validationResult"

	// EventValidationError reports a validation that could not run.
	EventValidationError = "validationError"

	// EventError reports a malformed frame or an unknown event.
	EventError = "error"
)

// Update types carried by EventUpdate.
const (
	UpdateTypeHeartbeat     = "heartbeat"
	UpdateTypeServerMetrics = "serverMetrics"
)

// =============================================================================
// Frames
// =============================================================================

// Envelope is an inbound frame. Data is kept raw until the event is known.
type Envelope struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Message is an outbound frame.
type Message struct {
	Event string `json:"event"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// ErrorPayload is the body of an EventError frame.
type ErrorPayload struct {
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

// Update is a push notification delivered to every session.
//
// Timestamp is milliseconds since the Unix epoch. Payload is nil for
// heartbeats and a TelemetrySnapshot for server metrics.
type Update struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// NewHeartbeat builds a heartbeat update stamped with now.
func NewHeartbeat(now time.Time) Update {
	return Update{
		Type:      UpdateTypeHeartbeat,
		Timestamp: now.UnixMilli(),
	}
}

// NewServerMetrics wraps a telemetry snapshot as an update.
func NewServerMetrics(snapshot TelemetrySnapshot) Update {
	return Update{
		Type:    UpdateTypeServerMetrics,
		Payload: snapshot,
	}
}
