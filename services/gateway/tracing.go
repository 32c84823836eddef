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
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// serviceName identifies the gateway in traces.
const serviceName = "workspace-gateway"

// initTracer initializes OpenTelemetry distributed tracing.
//
// # Description
//
// Installs a global tracer provider that exports spans with the configured
// exporter:
//
//   - otlp: OTLP over gRPC to OTelEndpoint.
//   - stdout: Pretty-printed spans on standard output.
//   - none: No provider is installed; spans are no-ops.
//
// The W3C trace-context and baggage propagators are installed in every case
// so inbound trace headers are honoured by otelgin.
//
// # Outputs
//
//   - func(context.Context): Flushes and shuts down the exporter. Never nil.
//   - error: Non-nil if the exporter cannot be created.
//
// # Limitations
//
//   - Uses an insecure gRPC connection (appropriate for internal networks).
func initTracer(ctx context.Context, cfg Config) (func(context.Context), error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	var exporter sdktrace.SpanExporter
	switch cfg.TraceExporter {
	case TraceExporterNone:
		return func(context.Context) {}, nil

	case TraceExporterOTLP:
		conn, err := grpc.NewClient(cfg.OTelEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
		}
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

	case TraceExporterStdout:
		var err error
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

	default:
		return nil, fmt.Errorf("unknown trace exporter: %s", cfg.TraceExporter)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	slog.Info("Tracing enabled", "exporter", cfg.TraceExporter, "endpoint", cfg.OTelEndpoint)

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown tracer provider", "error", err)
		}
	}, nil
}
