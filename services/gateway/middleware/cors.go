// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the workspace gateway.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowedMethods = "GET, POST, OPTIONS"
	allowedHeaders = "Content-Type, Authorization, X-Request-ID"
)

// OriginAllowed reports whether a browser origin may call the gateway.
//
// # Description
//
// An empty origin (non-browser client) is always allowed. A "*" entry in
// origins allows every origin. Otherwise the origin must match an entry
// exactly, ignoring case and a trailing slash.
func OriginAllowed(origins []string, origin string) bool {
	if origin == "" {
		return true
	}
	origin = strings.TrimSuffix(origin, "/")
	for _, allowed := range origins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

// CORS returns middleware that answers preflight requests and sets the
// Access-Control headers for allowed origins.
//
// # Description
//
// Requests from an allowed origin get the origin echoed back with
// credentials enabled. Preflight (OPTIONS) requests are answered with 204
// when the origin is allowed and 403 otherwise. Non-preflight requests from
// a disallowed origin pass through without CORS headers, so the browser
// blocks the response.
//
// # Inputs
//
//   - origins: Allowed origins, as configured by CORS_ORIGIN.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware to install with router.Use.
func CORS(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := origin != "" && OriginAllowed(origins, origin)

		if allowed {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		if origin != "" && !allowed {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Methods", allowedMethods)
		h.Set("Access-Control-Allow-Headers", allowedHeaders)
		h.Set("Access-Control-Max-Age", "600")
		c.AbortWithStatus(http.StatusNoContent)
	}
}
