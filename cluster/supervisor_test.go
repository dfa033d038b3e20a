package cluster

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	pid  int
	exit chan error

	mu      sync.Mutex
	signals []os.Signal
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{pid: pid, exit: make(chan error, 1)}
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Wait() error { return <-p.exit }

func (p *fakeProcess) Signal(sig os.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signals = append(p.signals, sig)
	return nil
}

func (p *fakeProcess) received() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]os.Signal(nil), p.signals...)
}

type fakeSpawner struct {
	failAt    int
	processes []*fakeProcess
}

func (s *fakeSpawner) Spawn(id int) (Process, error) {
	if s.failAt >= 0 && id == s.failAt {
		return nil, errors.New("fork refused")
	}
	p := newFakeProcess(1000 + id)
	s.processes = append(s.processes, p)
	return p, nil
}

func TestSupervisorDefaultSize(t *testing.T) {
	s := NewSupervisor(&fakeSpawner{failAt: -1}, 0)
	assert.Equal(t, runtime.NumCPU(), s.Size())

	s = NewSupervisor(&fakeSpawner{failAt: -1}, 3)
	assert.Equal(t, 3, s.Size())
}

func TestSupervisorStartForksAll(t *testing.T) {
	spawner := &fakeSpawner{failAt: -1}
	s := NewSupervisor(spawner, 4)

	require.NoError(t, s.Start())
	assert.Equal(t, []int{1000, 1001, 1002, 1003}, s.Pids())
	assert.Equal(t, 4, s.Alive())

	assert.Error(t, s.Start(), "second Start must fail")
}

func TestSupervisorForkFailureStopsStarted(t *testing.T) {
	spawner := &fakeSpawner{failAt: 2}
	s := NewSupervisor(spawner, 4)

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fork worker 2")

	require.Len(t, spawner.processes, 2)
	for _, p := range spawner.processes {
		assert.Equal(t, []os.Signal{syscall.SIGTERM}, p.received())
	}
}

func TestSupervisorWaitAllExited(t *testing.T) {
	spawner := &fakeSpawner{failAt: -1}
	s := NewSupervisor(spawner, 3)
	require.NoError(t, s.Start())

	spawner.processes[0].exit <- nil
	spawner.processes[1].exit <- errors.New("exit status 2")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded, "one worker is still alive")

	spawner.processes[2].exit <- nil

	ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), ErrAllWorkersExited)
	assert.Equal(t, 0, s.Alive())
}

func TestSupervisorSignalForwarded(t *testing.T) {
	spawner := &fakeSpawner{failAt: -1}
	s := NewSupervisor(spawner, 2)
	require.NoError(t, s.Start())

	s.Signal(syscall.SIGTERM)
	for _, p := range spawner.processes {
		assert.Equal(t, []os.Signal{syscall.SIGTERM}, p.received())
	}
}

func TestExecSpawnerWorkerEnv(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no shell available")
	}

	var out bytes.Buffer
	spawner := &ExecSpawner{
		Path:   sh,
		Args:   []string{"-c", "echo $" + WorkerIDEnv + " $GOMAXPROCS"},
		Env:    []string{"GOMAXPROCS=8"},
		Stdout: &out,
		Stderr: &out,
	}

	p, err := spawner.Spawn(5)
	require.NoError(t, err)
	assert.Positive(t, p.Pid())
	require.NoError(t, p.Wait())

	assert.Equal(t, "5 1", strings.TrimSpace(out.String()))
}

func TestExecSpawnerMissingBinary(t *testing.T) {
	spawner := &ExecSpawner{Path: "/nonexistent/cluster-worker"}
	_, err := spawner.Spawn(0)
	assert.Error(t, err)
}

func TestWorkerID(t *testing.T) {
	t.Setenv(WorkerIDEnv, "3")
	id, ok := WorkerID()
	assert.True(t, ok)
	assert.Equal(t, 3, id)
	assert.False(t, IsPrimary())

	t.Setenv(WorkerIDEnv, "nope")
	_, ok = WorkerID()
	assert.False(t, ok)
	assert.True(t, IsPrimary())
}
