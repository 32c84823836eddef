// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/WorkspaceGateway/pkg/logging"
	"github.com/AleutianAI/WorkspaceGateway/services/gateway"
	"github.com/spf13/cobra"
)

// configFromEnv builds the gateway configuration from the environment.
func configFromEnv() gateway.Config {
	return gateway.Config{
		Port:              getEnvInt("PORT", gateway.DefaultPort),
		GlobalPrefix:      getEnvString("GLOBAL_PREFIX", gateway.DefaultGlobalPrefix),
		CORSOrigins:       getEnvList("CORS_ORIGIN", []string{gateway.DefaultCORSOrigin}),
		SamplerInterval:   getEnvDuration("SAMPLER_INTERVAL_MS", gateway.DefaultSamplerInterval),
		HeartbeatInterval: getEnvDuration("HEARTBEAT_INTERVAL_MS", gateway.DefaultHeartbeatInterval),
		StandardsFile:     os.Getenv("STANDARDS_FILE"),
		StyleRoot:         getEnvString("STYLE_ROOT", "."),
		TraceExporter:     getEnvString("OTEL_TRACES_EXPORTER", gateway.TraceExporterNone),
		OTelEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		GinMode:           getEnvString("GIN_MODE", "release"),
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT_MS", gateway.DefaultShutdownTimeout),
		EnableMetrics:     getEnvBool("ENABLE_METRICS", true),
	}
}

// loggingFromEnv builds the logger configuration from LOG_LEVEL, LOG_FORMAT
// and LOG_DIR.
func loggingFromEnv() (logging.Config, error) {
	level, err := logging.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return logging.Config{}, err
	}
	return logging.Config{
		Level:   level,
		Service: "gateway",
		Format:  getEnvString("LOG_FORMAT", logging.FormatAuto),
		LogDir:  os.Getenv("LOG_DIR"),
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	logCfg, err := loggingFromEnv()
	if err != nil {
		return err
	}
	logger := logging.New(logCfg)
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cfg := configFromEnv()
	slog.Info("Starting workspace gateway",
		"port", cfg.Port,
		"prefix", cfg.GlobalPrefix,
		"cors_origins", cfg.CORSOrigins,
		"sampler_interval", cfg.SamplerInterval.String(),
		"standards_file", cfg.StandardsFile,
	)

	svc, err := gateway.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil {
		return fmt.Errorf("gateway error: %w", err)
	}
	slog.Info("Workspace gateway stopped")
	return nil
}
