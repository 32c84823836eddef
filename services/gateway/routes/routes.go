// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"

	"github.com/AleutianAI/WorkspaceGateway/services/gateway/handlers"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/hub"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Dependencies are the components the routes are bound to.
//
// # Fields
//
//   - Prefix: Global route prefix without slashes, e.g. "api".
//   - Hub: The update hub serving the socket.
//   - Engine: The validation engine behind the REST mirror.
//   - Upgrader: WebSocket upgrader, see handlers.NewUpgrader.
//   - Metrics: Prometheus handler; nil leaves /metrics unregistered.
type Dependencies struct {
	Prefix   string
	Hub      *hub.Hub
	Engine   handlers.Engine
	Upgrader *websocket.Upgrader
	Metrics  http.Handler
}

// SetupRoutes registers the gateway routes:
//
//	GET  /health
//	GET  /metrics
//	GET  /<prefix>/socket.io
//	GET  /<prefix>/standards
//	POST /<prefix>/validate
//	POST /<prefix>/enforce
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", handlers.HealthCheck(deps.Hub))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	api := router.Group("/" + deps.Prefix)
	{
		api.GET("/socket.io", handlers.HandleWorkspaceSocket(deps.Hub, deps.Upgrader))
		api.GET("/standards", handlers.HandleGetStandards(deps.Engine))
		api.POST("/validate", handlers.HandleValidate(deps.Engine))
		api.POST("/enforce", handlers.HandleEnforce(deps.Engine))
	}
}
