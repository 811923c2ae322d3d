package tools

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// SystemInfo is the system_info tool output.
type SystemInfo struct {
	Platform        string        `json:"platform"`
	PlatformVersion string        `json:"platform_version"`
	KernelVersion   string        `json:"kernel_version"`
	Hostname        string        `json:"hostname"`
	Architecture    string        `json:"architecture"`
	GoVersion       string        `json:"go_version"`
	NumCPU          int           `json:"num_cpu"`
	NumGoroutine    int           `json:"num_goroutine"`
	UptimeSeconds   float64       `json:"uptime_seconds"`
	Memory          MemoryInfo    `json:"memory"`
	ProcessMemory   ProcessMemory `json:"process_memory"`
}

// MemoryInfo reports host memory in bytes.
type MemoryInfo struct {
	Total       uint64  `json:"total"`
	Available   uint64  `json:"available"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

// ProcessMemory reports the server process's memory in bytes.
type ProcessMemory struct {
	RSS uint64 `json:"rss"`
	VMS uint64 `json:"vms"`
}

// SystemProbe reads the current host state.
type SystemProbe func(ctx context.Context) (SystemInfo, error)

// HostProbe returns a SystemProbe backed by gopsutil. Uptime is measured
// from started.
func HostProbe(started time.Time) SystemProbe {
	return func(ctx context.Context) (SystemInfo, error) {
		hi, err := host.InfoWithContext(ctx)
		if err != nil {
			return SystemInfo{}, fmt.Errorf("reading host info: %w", err)
		}
		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return SystemInfo{}, fmt.Errorf("reading memory stats: %w", err)
		}
		proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
		if err != nil {
			return SystemInfo{}, fmt.Errorf("opening own process: %w", err)
		}
		pm, err := proc.MemoryInfoWithContext(ctx)
		if err != nil {
			return SystemInfo{}, fmt.Errorf("reading process memory: %w", err)
		}

		return SystemInfo{
			Platform:        hi.OS,
			PlatformVersion: hi.PlatformVersion,
			KernelVersion:   hi.KernelVersion,
			Hostname:        hi.Hostname,
			Architecture:    runtime.GOARCH,
			GoVersion:       runtime.Version(),
			NumCPU:          runtime.NumCPU(),
			NumGoroutine:    runtime.NumGoroutine(),
			UptimeSeconds:   time.Since(started).Seconds(),
			Memory: MemoryInfo{
				Total:       vm.Total,
				Available:   vm.Available,
				Used:        vm.Used,
				UsedPercent: vm.UsedPercent,
			},
			ProcessMemory: ProcessMemory{RSS: pm.RSS, VMS: pm.VMS},
		}, nil
	}
}

func registerSystemInfo(r *Registry, probe SystemProbe) error {
	return addTool(r, "system_info",
		"Get system information including platform, architecture, Go version, and memory usage",
		func(ctx context.Context, _ struct{}) (any, error) {
			return probe(ctx)
		}, nil)
}
