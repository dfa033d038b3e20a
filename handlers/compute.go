package handlers

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/searchktools/cluster-server/core/http"
)

// SumResponse is returned by GET /
type SumResponse struct {
	Sum int64 `json:"sum"`
}

// CPUResponse is returned by GET /api/cpu-intensive
type CPUResponse struct {
	Result     float64 `json:"result"`
	Iterations int     `json:"iterations"`
	Duration   float64 `json:"duration"` // milliseconds
	PID        int     `json:"pid"`
}

// MemoryResponse is returned by GET /api/memory-intensive
type MemoryResponse struct {
	ArraySize   int     `json:"arraySize"`
	SampleValue float64 `json:"sampleValue"`
	MemoryUsed  uint64  `json:"memoryUsed"`
	PID         int     `json:"pid"`
}

// Sum adds the integers in [0, n).
func Sum(n int) int64 {
	var sum int64
	for i := 0; i < n; i++ {
		sum += int64(i)
	}
	return sum
}

// Spin runs a floating point loop of n iterations.
func Spin(n int) float64 {
	var result float64
	for i := 0; i < n; i++ {
		f := float64(i)
		result += math.Sqrt(f) * math.Sin(f)
	}
	return result
}

func (t *table) sum(ctx http.Context) error {
	ctx.Render(200, SumResponse{Sum: Sum(sumLimit)})
	return nil
}

func (t *table) cpuIntensive(ctx http.Context) error {
	iterations := ctx.QueryInt("iterations", DefaultIterations)
	if iterations == 0 {
		iterations = DefaultIterations
	}

	start := time.Now()
	result := Spin(iterations)
	elapsed := time.Since(start)

	ctx.Render(200, CPUResponse{
		Result:     result,
		Iterations: iterations,
		Duration:   float64(elapsed.Microseconds()) / 1000,
		PID:        t.env.PID,
	})
	return nil
}

func (t *table) memoryIntensive(ctx http.Context) error {
	size := ctx.QueryInt("size", DefaultArraySize)
	if size == 0 {
		size = DefaultArraySize
	}

	if size > MaxArraySize {
		return errors.Errorf("array size %d exceeds limit %d", size, MaxArraySize)
	}

	r := t.env.rand()
	values := make([]float64, size)
	for i := range values {
		values[i] = r.Float64()
	}
	sample := values[r.IntN(size)]

	mem, err := t.env.Probe.Memory()
	if err != nil {
		return err
	}

	ctx.Render(200, MemoryResponse{
		ArraySize:   len(values),
		SampleValue: sample,
		MemoryUsed:  mem.HeapUsed,
		PID:         t.env.PID,
	})
	return nil
}
