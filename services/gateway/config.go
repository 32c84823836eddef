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
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Trace exporters accepted by Config.TraceExporter.
const (
	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
	TraceExporterOTLP   = "otlp"
)

// Defaults applied by applyConfigDefaults.
const (
	DefaultPort              = 3000
	DefaultGlobalPrefix      = "api"
	DefaultCORSOrigin        = "http://localhost:4200"
	DefaultSamplerInterval   = 5000 * time.Millisecond
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultOTelEndpoint      = "aleutian-otel-collector:4317"
	DefaultShutdownTimeout   = 10 * time.Second
)

var configValidate = validator.New()

// Config holds the gateway service configuration.
//
// # Description
//
// Config is populated by the caller (usually from environment variables in
// cmd/gateway). Zero values are replaced by the defaults above before the
// struct is validated.
//
// # Fields
//
//   - Port: HTTP listen port.
//   - GlobalPrefix: Path prefix for the socket and REST routes.
//   - CORSOrigins: Allowed browser origins for HTTP and the WebSocket handshake.
//   - SamplerInterval: Telemetry sampling period.
//   - HeartbeatInterval: Hub heartbeat period.
//   - StandardsFile: Optional YAML standards document, hot-reloaded on change.
//   - StyleRoot: Directory styleUrls are resolved against. Defaults to ".".
//   - TraceExporter: none, stdout or otlp.
//   - OTelEndpoint: OTLP gRPC collector address when TraceExporter is otlp.
//   - GinMode: debug, release or test.
//   - ShutdownTimeout: Grace period for in-flight HTTP requests.
//   - EnableMetrics: Serve Prometheus metrics on /metrics.
type Config struct {
	Port              int           `validate:"min=1,max=65535"`
	GlobalPrefix      string        `validate:"required,excludesall=/"`
	CORSOrigins       []string      `validate:"min=1,dive,required"`
	SamplerInterval   time.Duration `validate:"min=10ms"`
	HeartbeatInterval time.Duration `validate:"min=10ms"`
	StandardsFile     string        `validate:"omitempty,file"`
	StyleRoot         string        `validate:"omitempty,dir"`
	TraceExporter     string        `validate:"oneof=none stdout otlp"`
	OTelEndpoint      string        `validate:"required_if=TraceExporter otlp"`
	GinMode           string        `validate:"oneof=debug release test"`
	ShutdownTimeout   time.Duration `validate:"min=0"`
	EnableMetrics     bool
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() Config {
	cfg := Config{EnableMetrics: true}
	applyConfigDefaults(&cfg)
	return cfg
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid gateway config: %w", err)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func applyConfigDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.GlobalPrefix == "" {
		cfg.GlobalPrefix = DefaultGlobalPrefix
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{DefaultCORSOrigin}
	}
	if cfg.SamplerInterval == 0 {
		cfg.SamplerInterval = DefaultSamplerInterval
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.StyleRoot == "" {
		cfg.StyleRoot = "."
	}
	if cfg.TraceExporter == "" {
		cfg.TraceExporter = TraceExporterNone
	}
	if cfg.TraceExporter == TraceExporterOTLP && cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = DefaultOTelEndpoint
	}
	if cfg.GinMode == "" {
		cfg.GinMode = "release"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
}
