// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"fmt"
	"time"
)

// TelemetrySnapshot is one host resource sample.
//
// # Description
//
// CPUFraction is the busy fraction of all CPUs in [0, 1]. Memory figures are
// in megabytes. MemoryUsedMB <= MemoryTotalMB is expected but not enforced;
// the values are reported as the host returned them.
//
// On the wire the snapshot is the shape the dashboard charts consume:
//
//	{"timestamp": 1718000000000, "cpu": 0.42, "memory": {"used": 5120, "total": 16384}}
type TelemetrySnapshot struct {
	Timestamp     time.Time
	CPUFraction   float64
	MemoryUsedMB  uint64
	MemoryTotalMB uint64
}

type memoryJSON struct {
	Used  uint64 `json:"used"`
	Total uint64 `json:"total"`
}

type snapshotJSON struct {
	Timestamp int64      `json:"timestamp"`
	CPU       float64    `json:"cpu"`
	Memory    memoryJSON `json:"memory"`
}

// MarshalJSON encodes the snapshot with a millisecond timestamp.
func (s TelemetrySnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Timestamp: s.Timestamp.UnixMilli(),
		CPU:       s.CPUFraction,
		Memory: memoryJSON{
			Used:  s.MemoryUsedMB,
			Total: s.MemoryTotalMB,
		},
	})
}

// UnmarshalJSON decodes the dashboard shape.
func (s *TelemetrySnapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode telemetry snapshot: %w", err)
	}
	s.Timestamp = time.UnixMilli(raw.Timestamp)
	s.CPUFraction = raw.CPU
	s.MemoryUsedMB = raw.Memory.Used
	s.MemoryTotalMB = raw.Memory.Total
	return nil
}
