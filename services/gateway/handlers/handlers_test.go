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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/WorkspaceGateway/services/gateway/datatypes"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/hub"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/standards"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Setup
// =============================================================================

const testOrigin = "http://localhost:4200"

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(t *testing.T) *standards.Engine {
	t.Helper()
	engine, err := standards.NewEngine(nil, standards.WithLoader(standards.NewFileLoader(t.TempDir())))
	require.NoError(t, err)
	return engine
}

func newRESTRouter(t *testing.T) *gin.Engine {
	t.Helper()
	engine := newEngine(t)
	router := gin.New()
	router.GET("/health", HealthCheck(nil))
	router.GET("/api/standards", HandleGetStandards(engine))
	router.POST("/api/validate", HandleValidate(engine))
	router.POST("/api/enforce", HandleEnforce(engine))
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

const validDescriptorJSON = `{
	"selector": "md3-card",
	"standalone": false,
	"template": "<div class=\"md3-card\"></div>",
	"styles": ":host { display: block; }",
	"className": "CardComponent"
}`

// =============================================================================
// REST Tests
// =============================================================================

func TestHealthCheck(t *testing.T) {
	router := newRESTRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, w.Body.String())
}

func TestHandleGetStandards(t *testing.T) {
	router := newRESTRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/standards", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	for _, section := range []string{"rxjs", "material", "architecture", "testing", "linting", "utilities", "ci"} {
		assert.Contains(t, doc, section)
	}
}

func TestHandleValidate_Valid(t *testing.T) {
	router := newRESTRouter(t)

	w := postJSON(router, "/api/validate", validDescriptorJSON)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"isValid":true,"violations":[]}`, w.Body.String())
}

func TestHandleValidate_EmptyDescriptor(t *testing.T) {
	router := newRESTRouter(t)

	w := postJSON(router, "/api/validate", `{}`)

	require.Equal(t, http.StatusOK, w.Code)
	var result datatypes.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.IsValid)
	assert.Len(t, result.Violations, 3)
}

func TestHandleValidate_MalformedBody(t *testing.T) {
	router := newRESTRouter(t)

	w := postJSON(router, "/api/validate", `{"selector":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid component descriptor")
}

func TestHandleValidate_UnreadableStyleFile(t *testing.T) {
	router := newRESTRouter(t)

	w := postJSON(router, "/api/validate", `{"selector":"md3-card","template":"<div></div>","styleUrls":["missing.scss"]}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var verr datatypes.ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verr))
	assert.Equal(t, datatypes.ValidationFailedMessage, verr.Message)
	assert.Contains(t, verr.Error, "missing.scss")
}

func TestHandleEnforce(t *testing.T) {
	router := newRESTRouter(t)

	w := postJSON(router, "/api/enforce", `{"code":"load().then(render)"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var violations []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &violations))
	assert.Equal(t, []string{"Avoid using Promise.then(). Use RxJS pipe() with appropriate operators instead."}, violations)
}

func TestHandleEnforce_CleanCodeReturnsEmptyArray(t *testing.T) {
	router := newRESTRouter(t)

	w := postJSON(router, "/api/enforce", `{"code":"source$.pipe(switchMap(load))"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

// =============================================================================
// WebSocket End-to-End Tests
// =============================================================================

func newSocketServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()
	h := hub.New(newEngine(t), hub.Config{})
	router := gin.New()
	router.GET("/api/socket.io", HandleWorkspaceSocket(h, NewUpgrader([]string{testOrigin})))

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return srv, h
}

func socketURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/socket.io"
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ws, resp, err := websocket.DefaultDialer.Dial(socketURL(srv), http.Header{"Origin": {testOrigin}})
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

// readEvent reads frames until one with the given event arrives.
func readEvent(t *testing.T, ws *websocket.Conn, event string) datatypes.Envelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var env datatypes.Envelope
		require.NoError(t, ws.ReadJSON(&env))
		if env.Event == event {
			return env
		}
	}
}

func TestWorkspaceSocket_ValidateComponent(t *testing.T) {
	srv, h := newSocketServer(t)
	ws := dial(t, srv)

	require.Eventually(t, func() bool { return h.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	frame := `{"event":"validateComponent","id":"req-1","data":` + validDescriptorJSON + `}`
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(frame)))

	env := readEvent(t, ws, datatypes.EventValidationResult)
	assert.Equal(t, "req-1", env.ID)

	var result datatypes.ValidationResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Violations)
}

func TestWorkspaceSocket_GetStandards(t *testing.T) {
	srv, _ := newSocketServer(t)
	ws := dial(t, srv)

	require.NoError(t, ws.WriteJSON(map[string]string{"event": datatypes.EventGetStandards, "id": "s-1"}))

	env := readEvent(t, ws, datatypes.EventGetStandards)
	assert.Equal(t, "s-1", env.ID)
	assert.Contains(t, string(env.Data), `"rxjs"`)
}

func TestWorkspaceSocket_ReceivesBroadcast(t *testing.T) {
	srv, h := newSocketServer(t)
	ws := dial(t, srv)

	require.Eventually(t, func() bool { return h.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	h.PushUpdate(datatypes.NewHeartbeat(time.UnixMilli(1700000000000)))

	env := readEvent(t, ws, datatypes.EventUpdate)
	var update struct {
		Type      string `json:"type"`
		Timestamp int64  `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &update))
	assert.Equal(t, datatypes.UpdateTypeHeartbeat, update.Type)
	assert.Equal(t, int64(1700000000000), update.Timestamp)
}

func TestWorkspaceSocket_DisallowedOrigin(t *testing.T) {
	srv, h := newSocketServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(socketURL(srv), http.Header{"Origin": {"https://evil.example.com"}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, h.SessionCount())
}

func TestWorkspaceSocket_ClientCloseUnregisters(t *testing.T) {
	srv, h := newSocketServer(t)
	ws := dial(t, srv)

	require.Eventually(t, func() bool { return h.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, ws.Close())

	assert.Eventually(t, func() bool { return h.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
