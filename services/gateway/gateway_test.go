// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gateway

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/WorkspaceGateway/services/gateway/datatypes"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway/standards"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	gin.SetMode(gin.TestMode)
}

type staticSource struct{}

func (staticSource) Sample(context.Context) (datatypes.TelemetrySnapshot, error) {
	return datatypes.TelemetrySnapshot{
		Timestamp:     time.Now(),
		CPUFraction:   0.25,
		MemoryUsedMB:  512,
		MemoryTotalMB: 2048,
	}, nil
}

func testConfig() Config {
	return Config{
		GinMode:         "test",
		SamplerInterval: 20 * time.Millisecond,
		EnableMetrics:   true,
	}
}

func newTestService(t *testing.T, cfg Config, listener net.Listener) Service {
	t.Helper()
	svc, err := New(cfg, &Options{TelemetrySource: staticSource{}, Listener: listener})
	require.NoError(t, err)
	return svc
}

// runService starts svc.Run and returns a stop function that cancels it and
// waits for it to return.
func runService(t *testing.T, svc Service) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	var once bool
	var result error
	stop := func() error {
		if once {
			return result
		}
		once = true
		cancel()
		select {
		case result = <-errCh:
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
		return result
	}
	t.Cleanup(func() { _ = stop() })
	return stop
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return l
}

// ============================================================================
// Config Tests
// ============================================================================

func TestApplyConfigDefaults(t *testing.T) {
	cfg := Config{}
	applyConfigDefaults(&cfg)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "api", cfg.GlobalPrefix)
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.CORSOrigins)
	assert.Equal(t, 5000*time.Millisecond, cfg.SamplerInterval)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, TraceExporterNone, cfg.TraceExporter)
	assert.Empty(t, cfg.OTelEndpoint)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestApplyConfigDefaults_OTLPEndpoint(t *testing.T) {
	cfg := Config{TraceExporter: TraceExporterOTLP}
	applyConfigDefaults(&cfg)

	assert.Equal(t, DefaultOTelEndpoint, cfg.OTelEndpoint)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"prefix with slash", func(c *Config) { c.GlobalPrefix = "api/v1" }, true},
		{"empty origin", func(c *Config) { c.CORSOrigins = []string{""} }, true},
		{"unknown exporter", func(c *Config) { c.TraceExporter = "jaeger" }, true},
		{"unknown gin mode", func(c *Config) { c.GinMode = "verbose" }, true},
		{"missing standards file", func(c *Config) { c.StandardsFile = "/does/not/exist.yaml" }, true},
		{"sampler interval too small", func(c *Config) { c.SamplerInterval = time.Millisecond }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ============================================================================
// New Tests
// ============================================================================

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Port: -1}, nil)
	assert.Error(t, err)
}

func TestNew_RegistersRoutes(t *testing.T) {
	svc := newTestService(t, testConfig(), nil)

	routes := make(map[string]bool)
	for _, r := range svc.Router().Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	assert.True(t, routes["GET /api/socket.io"])
	assert.True(t, routes["GET /api/standards"])
	assert.True(t, routes["POST /api/validate"])
	assert.True(t, routes["POST /api/enforce"])
	assert.True(t, routes["GET /health"])
	assert.True(t, routes["GET /metrics"])
}

func TestNew_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableMetrics = false
	svc := newTestService(t, cfg, nil)

	w := httptest.NewRecorder()
	svc.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNew_MetricsEndpoint(t *testing.T) {
	svc := newTestService(t, testConfig(), nil)

	w := httptest.NewRecorder()
	svc.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "workspace_hub_active_sessions")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNew_LoadsStandardsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standards.yaml")
	doc := strings.ReplaceAll(string(standards.DefaultDocument()), "md3-", "app-")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg := testConfig()
	cfg.StandardsFile = path
	svc := newTestService(t, cfg, nil)
	t.Cleanup(func() { svc.(*service).cleanup() })

	assert.Equal(t, "app-", svc.Engine().Standards().Material.Components.Naming.Prefix)
}

func TestNew_InvalidStandardsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standards.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rxjs: ["), 0o644))

	cfg := testConfig()
	cfg.StandardsFile = path
	_, err := New(cfg, &Options{TelemetrySource: staticSource{}})
	assert.Error(t, err)
}

// ============================================================================
// Run Tests
// ============================================================================

func TestRun_ServesSocketAndShutsDown(t *testing.T) {
	l := listen(t)
	svc := newTestService(t, testConfig(), l)
	stop := runService(t, svc)

	url := "ws://" + l.Addr().String() + "/api/socket.io"
	var ws *websocket.Conn
	require.Eventually(t, func() bool {
		conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://localhost:4200"}})
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			return false
		}
		ws = conn
		return true
	}, 5*time.Second, 20*time.Millisecond)
	defer ws.Close()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var env datatypes.Envelope
		require.NoError(t, ws.ReadJSON(&env))
		if env.Event != datatypes.EventUpdate {
			continue
		}
		var update struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &update))
		if update.Type != datatypes.UpdateTypeServerMetrics {
			continue
		}
		assert.JSONEq(t, `{"used":512,"total":2048}`, string(mustField(t, update.Payload, "memory")))
		break
	}
	assert.True(t, svc.Sampler().Running())

	require.NoError(t, stop())
	assert.False(t, svc.Sampler().Running())
	assert.Equal(t, 0, svc.Hub().SessionCount())
}

func TestRun_ListenFailure(t *testing.T) {
	l := listen(t)
	require.NoError(t, l.Close())

	svc := newTestService(t, testConfig(), l)
	err := svc.Run(context.Background())
	assert.Error(t, err)
	assert.False(t, svc.Sampler().Running())
}

func TestRun_ReloadsStandards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standards.yaml")
	require.NoError(t, os.WriteFile(path, standards.DefaultDocument(), 0o644))

	cfg := testConfig()
	cfg.StandardsFile = path
	svc := newTestService(t, cfg, listen(t))
	runService(t, svc)

	require.Eventually(t, svc.Sampler().Running, 2*time.Second, 10*time.Millisecond)

	doc := strings.ReplaceAll(string(standards.DefaultDocument()), "md3-", "app-")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	assert.Eventually(t, func() bool {
		return svc.Engine().Standards().Material.Components.Naming.Prefix == "app-"
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, svc.Sampler().Running())
}

func mustField(t *testing.T, raw json.RawMessage, field string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	require.Contains(t, m, field)
	return m[field]
}
