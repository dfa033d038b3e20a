package handlers

import (
	"github.com/searchktools/cluster-server/core/http"
	"github.com/searchktools/cluster-server/core/sysinfo"
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status    string              `json:"status"`
	PID       int                 `json:"pid"`
	Uptime    float64             `json:"uptime"`
	Memory    sysinfo.MemoryUsage `json:"memory"`
	CPUs      int                 `json:"cpus"`
	Timestamp string              `json:"timestamp"`
}

// StatsResponse is returned by GET /api/stats
type StatsResponse struct {
	PID         int                 `json:"pid"`
	WorkerID    int                 `json:"workerId"`
	Uptime      float64             `json:"uptime"`
	Memory      sysinfo.MemoryUsage `json:"memory"`
	CPUs        int                 `json:"cpus"`
	LoadAverage [3]float64          `json:"loadAverage"`
	Platform    string              `json:"platform"`
	OS          string              `json:"os"`
	Arch        string              `json:"arch"`
	GoVersion   string              `json:"goVersion"`
	Hostname    string              `json:"hostname"`
	CPUFeatures []string            `json:"cpuFeatures"`
	Timestamp   string              `json:"timestamp"`
}

func (t *table) health(ctx http.Context) error {
	mem, err := t.env.Probe.Memory()
	if err != nil {
		return err
	}

	ctx.Render(200, HealthResponse{
		Status:    "healthy",
		PID:       t.env.PID,
		Uptime:    t.env.uptime(),
		Memory:    mem,
		CPUs:      t.env.CPUs,
		Timestamp: t.env.timestamp(),
	})
	return nil
}

func (t *table) stats(ctx http.Context) error {
	mem, err := t.env.Probe.Memory()
	if err != nil {
		return err
	}
	loadAvg, err := t.env.Probe.LoadAverage()
	if err != nil {
		return err
	}

	features := t.env.CPUFeatures
	if features == nil {
		features = []string{}
	}

	ctx.Render(200, StatsResponse{
		PID:         t.env.PID,
		WorkerID:    t.env.WorkerID,
		Uptime:      t.env.uptime(),
		Memory:      mem,
		CPUs:        t.env.CPUs,
		LoadAverage: loadAvg,
		Platform:    t.env.Platform,
		OS:          t.env.OS,
		Arch:        t.env.Arch,
		GoVersion:   t.env.GoVersion,
		Hostname:    t.env.Hostname,
		CPUFeatures: features,
		Timestamp:   t.env.timestamp(),
	})
	return nil
}
