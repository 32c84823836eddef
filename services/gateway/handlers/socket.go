// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AleutianAI/WorkspaceGateway/services/gateway/datatypes"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/hub"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// maxFrameBytes bounds one inbound frame: a descriptor carries up to three
// sources plus the envelope.
const maxFrameBytes = 4 * datatypes.MaxSourceBytes

// SocketServer is the part of the hub the socket handler needs.
type SocketServer interface {
	Serve(ctx context.Context, conn hub.Conn) error
}

// NewUpgrader returns a WebSocket upgrader whose origin check follows the
// configured CORS origins.
func NewUpgrader(origins []string) *websocket.Upgrader {
	allowed := append([]string(nil), origins...)
	return &websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			return middleware.OriginAllowed(allowed, r.Header.Get("Origin"))
		},
	}
}

// HandleWorkspaceSocket upgrades the request and hands the connection to
// the hub for the lifetime of the session.
//
// # Description
//
// The handler blocks until the session ends. A failed upgrade has already
// been answered by the upgrader (400 or 403) and is only logged.
//
// # Inputs
//
//   - server: The update hub.
//   - upgrader: Built by NewUpgrader.
//
// # Outputs
//
//   - gin.HandlerFunc: Handler for GET /<prefix>/socket.io.
func HandleWorkspaceSocket(server SocketServer, upgrader *websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("Failed to upgrade the websocket",
				"remote", c.ClientIP(),
				"origin", c.GetHeader("Origin"),
				"error", err,
			)
			return
		}
		ws.SetReadLimit(maxFrameBytes)

		if err := server.Serve(c.Request.Context(), ws); err != nil {
			if errors.Is(err, hub.ErrHubClosed) {
				slog.Info("Rejected websocket during shutdown", "remote", c.ClientIP())
				return
			}
			slog.Warn("Websocket session ended with error", "remote", c.ClientIP(), "error", err)
		}
	}
}
