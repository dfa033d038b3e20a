// Package handlers implements the demo and load-test endpoints.
//
// Every handler is stateless: it reads only its request and the process
// facts captured in Env when the worker started.
package handlers

import (
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/searchktools/cluster-server/core"
	"github.com/searchktools/cluster-server/core/sysinfo"
)

// Query parameter defaults
const (
	DefaultDelayMS    = 1000
	DefaultIterations = 1_000_000
	DefaultArraySize  = 1_000_000
	DefaultErrorCode  = 500

	// MaxDelayMS is the longest delay /api/slow honors (2^31-1 ms)
	MaxDelayMS = 1<<31 - 1
	// MaxArraySize bounds /api/memory-intensive to 1 GiB of float64s
	MaxArraySize = 1 << 27

	sumLimit  = 100_000
	dataItems = 10
)

// Env holds the process facts handlers report. It is built once per
// worker and never modified.
type Env struct {
	PID         int
	WorkerID    int // -1 outside cluster mode
	Started     time.Time
	CPUs        int
	Platform    string
	OS          string
	Arch        string
	GoVersion   string
	Hostname    string
	CPUFeatures []string

	Probe sysinfo.Probe

	// Now and Rand default to the wall clock and a per-process source
	Now  func() time.Time
	Rand *rand.Rand
}

// NewEnv captures the current process facts.
func NewEnv(workerID int) (*Env, error) {
	pid := os.Getpid()
	probe, err := sysinfo.NewProbe(pid)
	if err != nil {
		return nil, err
	}
	return &Env{
		PID:         pid,
		WorkerID:    workerID,
		Started:     time.Now(),
		CPUs:        runtime.NumCPU(),
		Platform:    runtime.GOOS,
		OS:          sysinfo.Platform(),
		Arch:        runtime.GOARCH,
		GoVersion:   runtime.Version(),
		Hostname:    sysinfo.Hostname(),
		CPUFeatures: sysinfo.CPUFeatures(),
		Probe:       probe,
	}, nil
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) rand() *rand.Rand {
	if e.Rand != nil {
		return e.Rand
	}
	return globalRand
}

// uptime in seconds since the worker started
func (e *Env) uptime() float64 {
	return e.now().Sub(e.Started).Seconds()
}

func (e *Env) timestamp() string {
	return e.now().UTC().Format(time.RFC3339Nano)
}

// A rand.Rand over its own source is not safe for concurrent use; this one
// draws from the runtime's concurrent-safe generator.
var globalRand = rand.New(runtimeSource{})

type runtimeSource struct{}

func (runtimeSource) Uint64() uint64 { return rand.Uint64() }

// Register adds every route to engine.
func Register(engine *core.Engine, env *Env) {
	h := &table{env: env}

	engine.GET("/", h.sum)
	engine.GET("/health", h.health)
	engine.GET("/api/data", h.data)
	engine.GET("/api/slow", h.slow)
	engine.POST("/api/echo", h.echo)
	engine.GET("/api/error", h.simulatedError)
	engine.GET("/api/cpu-intensive", h.cpuIntensive)
	engine.GET("/api/memory-intensive", h.memoryIntensive)
	engine.GET("/api/stats", h.stats)
}

type table struct {
	env *Env
}
