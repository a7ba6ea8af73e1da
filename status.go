package main

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStatus is returned by /api/status
type SystemStatus struct {
	Version           string  `json:"version"`
	GoVersion         string  `json:"go_version"`
	Uptime            string  `json:"uptime"`
	CPUCores          int     `json:"cpu_cores"`
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	ActiveJobs        int     `json:"active_jobs"`
}

// getSystemStatus collects process and host statistics for the status
// endpoint. Collection failures leave the affected fields at zero
// rather than failing the request.
func getSystemStatus(started time.Time, activeJobs int) SystemStatus {
	status := SystemStatus{
		Version:    Version,
		GoVersion:  runtime.Version(),
		Uptime:     time.Since(started).Round(time.Second).String(),
		ActiveJobs: activeJobs,
	}

	if counts, err := cpu.Counts(true); err == nil {
		status.CPUCores = counts
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		status.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status.MemoryUsedPercent = vm.UsedPercent
	}

	return status
}
