// Package sysinfo reports process and host facts for the status endpoints.
package sysinfo

import (
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/load"
	"github.com/shirou/gopsutil/process"
	"golang.org/x/sys/cpu"
)

// MemoryUsage is a process memory snapshot in bytes.
type MemoryUsage struct {
	RSS       uint64 `json:"rss"`
	HeapTotal uint64 `json:"heapTotal"`
	HeapUsed  uint64 `json:"heapUsed"`
	Sys       uint64 `json:"sys"`
}

// Probe reads process and host state on demand.
type Probe interface {
	Memory() (MemoryUsage, error)
	LoadAverage() ([3]float64, error)
}

// SystemProbe is the gopsutil backed Probe.
type SystemProbe struct {
	proc *process.Process
}

// NewProbe returns a probe for the process with the given pid.
func NewProbe(pid int) (*SystemProbe, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, errors.Wrapf(err, "open process %d", pid)
	}
	return &SystemProbe{proc: proc}, nil
}

// Memory combines the resident set size with Go heap statistics.
func (p *SystemProbe) Memory() (MemoryUsage, error) {
	info, err := p.proc.MemoryInfo()
	if err != nil {
		return MemoryUsage{}, errors.Wrap(err, "read process memory")
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return MemoryUsage{
		RSS:       info.RSS,
		HeapTotal: ms.HeapSys,
		HeapUsed:  ms.HeapAlloc,
		Sys:       ms.Sys,
	}, nil
}

// LoadAverage returns the 1, 5 and 15 minute load averages. Platforms
// without a load average report zeros.
func (p *SystemProbe) LoadAverage() ([3]float64, error) {
	if runtime.GOOS == "windows" {
		return [3]float64{}, nil
	}
	avg, err := load.Avg()
	if err != nil {
		return [3]float64{}, errors.Wrap(err, "read load average")
	}
	return [3]float64{avg.Load1, avg.Load5, avg.Load15}, nil
}

// Platform names the host platform, e.g. "linux" or "ubuntu 24.04" when the
// distribution is known.
func Platform() string {
	info, err := host.Info()
	if err != nil || info.Platform == "" {
		return runtime.GOOS
	}
	return strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
}

// Hostname returns the host name or "" when unavailable.
func Hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}

// CPUFeatures lists notable SIMD features of the running CPU.
func CPUFeatures() []string {
	features := make([]string, 0, 8)
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}

	add(cpu.X86.HasSSE42, "sse4.2")
	add(cpu.X86.HasAVX, "avx")
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasAVX512F, "avx512f")
	add(cpu.X86.HasAES, "aes")
	add(cpu.ARM64.HasASIMD, "asimd")
	add(cpu.ARM64.HasAES, "aes")
	add(cpu.ARM64.HasSVE, "sve")

	return features
}
