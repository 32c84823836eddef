// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry samples host resource usage and publishes it as
// serverMetrics updates.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/AleutianAI/WorkspaceGateway/services/gateway/datatypes"
)

const bytesPerMB = 1024 * 1024

// Source produces one telemetry snapshot per call.
type Source interface {
	Sample(ctx context.Context) (datatypes.TelemetrySnapshot, error)
}

// HostSource reads CPU and memory figures of the machine the gateway runs on.
//
// # Description
//
// CPU usage is measured against the previous call, so the first sample
// after start reflects usage since boot. Memory used is the host's used
// memory, not this process's footprint.
type HostSource struct {
	now func() time.Time
}

// NewHostSource creates a source backed by gopsutil.
func NewHostSource() *HostSource {
	return &HostSource{now: time.Now}
}

// Sample reads the current CPU fraction and memory usage.
func (s *HostSource) Sample(ctx context.Context) (datatypes.TelemetrySnapshot, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return datatypes.TelemetrySnapshot{}, fmt.Errorf("read cpu usage: %w", err)
	}
	if len(percents) == 0 {
		return datatypes.TelemetrySnapshot{}, fmt.Errorf("read cpu usage: no data")
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return datatypes.TelemetrySnapshot{}, fmt.Errorf("read memory usage: %w", err)
	}

	return datatypes.TelemetrySnapshot{
		Timestamp:     s.now(),
		CPUFraction:   clampFraction(percents[0] / 100),
		MemoryUsedMB:  vm.Used / bytesPerMB,
		MemoryTotalMB: vm.Total / bytesPerMB,
	}, nil
}

func clampFraction(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
