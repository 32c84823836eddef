// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP and WebSocket handlers of the
// workspace gateway.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/AleutianAI/WorkspaceGateway/services/gateway/datatypes"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/hub"
	"github.com/gin-gonic/gin"
)

// Engine is the validation engine behind the REST routes. It is the same
// contract the hub uses.
type Engine = hub.Engine

// SessionCounter reports connected sessions for the health check.
type SessionCounter interface {
	SessionCount() int
}

// HealthCheck reports liveness and the number of connected sessions.
func HealthCheck(sessions SessionCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		count := 0
		if sessions != nil {
			count = sessions.SessionCount()
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": count})
	}
}

// HandleGetStandards returns the active standards document.
func HandleGetStandards(engine Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, engine.Document())
	}
}

// HandleValidate runs the validation engine over a JSON component
// descriptor.
//
// # Description
//
// The body is a ComponentDescriptor in any of its accepted shapes. A body
// that cannot be decoded or fails the size limits is answered with 400. An
// engine failure (for example an unreadable style file) is answered with
// 500 and a ValidationError body. Otherwise the ValidationResult is
// returned with 200, whether or not the component is valid.
func HandleValidate(engine Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFrameBytes)

		var d datatypes.ComponentDescriptor
		if err := c.ShouldBindJSON(&d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid component descriptor: %v", err)})
			return
		}
		if err := d.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid component descriptor: %v", err)})
			return
		}

		result, err := engine.Validate(c.Request.Context(), d)
		if err != nil {
			slog.Warn("Validation failed", "remote", c.ClientIP(), "error", err)
			c.JSON(http.StatusInternalServerError, datatypes.NewValidationError(err))
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// HandleEnforce scans source code for disallowed RxJS patterns and returns
// the violation messages as a JSON array.
func HandleEnforce(engine Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFrameBytes)

		var req datatypes.EnforceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
			return
		}
		c.JSON(http.StatusOK, engine.EnforcePatterns(req.Code))
	}
}
