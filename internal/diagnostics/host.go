package diagnostics

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostInfo describes the machine a suite runs on. Every field is best-effort
// and left zero when it cannot be read.
type HostInfo struct {
	OS   string `json:"os" yaml:"os"`
	Arch string `json:"arch" yaml:"arch"`

	CPUModel   string `json:"cpu_model" yaml:"cpu_model"`
	CPUCores   int    `json:"cpu_cores" yaml:"cpu_cores"`
	CPUThreads int    `json:"cpu_threads" yaml:"cpu_threads"`

	MemTotalMB float64 `json:"mem_total_mb" yaml:"mem_total_mb"`
	MemPercent float64 `json:"mem_percent" yaml:"mem_percent"`

	// Usage of the filesystem holding os.TempDir, where temp files land.
	TempDir         string  `json:"temp_dir" yaml:"temp_dir"`
	TempDiskTotalGB float64 `json:"temp_disk_total_gb" yaml:"temp_disk_total_gb"`
	TempDiskPercent float64 `json:"temp_disk_percent" yaml:"temp_disk_percent"`

	LoadAvg1 float64 `json:"load_avg_1" yaml:"load_avg_1"`

	OpenFDs    int   `json:"open_fds" yaml:"open_fds"`
	MaxFDs     int   `json:"max_fds" yaml:"max_fds"`
	OSThreads  int32 `json:"os_threads" yaml:"os_threads"`
	Goroutines int   `json:"goroutines" yaml:"goroutines"`
}

// CollectHostInfo gathers HostInfo for the current process and machine.
func CollectHostInfo(ctx context.Context) HostInfo {
	info := HostInfo{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		TempDir:    os.TempDir(),
		Goroutines: runtime.NumGoroutine(),
	}
	info.OpenFDs, info.MaxFDs = CountFDs()

	collectCPUInfo(ctx, &info)
	collectMemoryInfo(ctx, &info)
	collectDiskInfo(ctx, &info)
	collectLoadAvg(ctx, &info)
	collectThreadCount(ctx, &info)

	return info
}

func collectCPUInfo(ctx context.Context, info *HostInfo) {
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		info.CPUModel = strings.TrimSpace(infos[0].ModelName)
	}
	if cores, err := cpu.CountsWithContext(ctx, false); err == nil && cores > 0 {
		info.CPUCores = cores
	}
	if threads, err := cpu.CountsWithContext(ctx, true); err == nil && threads > 0 {
		info.CPUThreads = threads
	}
}

func collectMemoryInfo(ctx context.Context, info *HostInfo) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return
	}
	info.MemTotalMB = float64(vm.Total) / 1024 / 1024
	info.MemPercent = vm.UsedPercent
}

func collectDiskInfo(ctx context.Context, info *HostInfo) {
	usage, err := disk.UsageWithContext(ctx, info.TempDir)
	if err != nil {
		return
	}
	info.TempDiskTotalGB = float64(usage.Total) / 1024 / 1024 / 1024
	info.TempDiskPercent = usage.UsedPercent
}

func collectLoadAvg(ctx context.Context, info *HostInfo) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return
	}
	info.LoadAvg1 = avg.Load1
}

func collectThreadCount(ctx context.Context, info *HostInfo) {
	// #nosec G115 -- pids fit in int32 on every supported platform
	self, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return
	}
	if n, err := self.NumThreadsWithContext(ctx); err == nil {
		info.OSThreads = n
	}
}
