package app

import (
	"net"
	"net/http/httptest"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchktools/cluster-server/cluster"
	"github.com/searchktools/cluster-server/config"
	"github.com/searchktools/cluster-server/handlers"
)

type stubProcess struct {
	pid  int
	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	got []os.Signal
}

func (p *stubProcess) Pid() int { return p.pid }

func (p *stubProcess) Wait() error {
	<-p.done
	return nil
}

func (p *stubProcess) Signal(sig os.Signal) error {
	p.mu.Lock()
	p.got = append(p.got, sig)
	p.mu.Unlock()
	p.once.Do(func() { close(p.done) })
	return nil
}

func (p *stubProcess) signals() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]os.Signal(nil), p.got...)
}

type stubSpawner struct {
	exitAtOnce bool
	err        error

	mu    sync.Mutex
	procs []*stubProcess
}

func (s *stubSpawner) Spawn(id int) (cluster.Process, error) {
	if s.err != nil {
		return nil, s.err
	}
	p := &stubProcess{pid: 100 + id, done: make(chan struct{})}
	if s.exitAtOnce {
		p.once.Do(func() { close(p.done) })
	}
	s.mu.Lock()
	s.procs = append(s.procs, p)
	s.mu.Unlock()
	return p, nil
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func testConfig(t *testing.T, workers int) *config.Config {
	return &config.Config{
		Port:    freePort(t),
		Workers: workers,
		Mode:    config.ModeCluster,
		Env:     "test",
		NoColor: true,
	}
}

func TestPrimaryReturnsWhenAllWorkersExit(t *testing.T) {
	spawner := &stubSpawner{exitAtOnce: true}
	a := New(testConfig(t, 3)).WithSpawner(spawner)

	err := a.runPrimary()
	assert.ErrorIs(t, err, cluster.ErrAllWorkersExited)
	assert.Len(t, spawner.procs, 3)
}

func TestPrimaryForkFailure(t *testing.T) {
	a := New(testConfig(t, 2)).WithSpawner(&stubSpawner{err: errors.New("no more processes")})

	err := a.runPrimary()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no more processes")
}

func TestPrimaryBusyPortIsFatal(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig(t, 2)
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	spawner := &stubSpawner{}

	err = New(cfg).WithSpawner(spawner).runPrimary()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
	assert.Empty(t, spawner.procs, "no worker may start on a busy port")
}

func TestSingleModeBusyPortIsFatal(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig(t, 1)
	cfg.Mode = config.ModeSingle
	cfg.Port = ln.Addr().(*net.TCPAddr).Port

	err = New(cfg).serve(-1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
}

func TestReadinessLine(t *testing.T) {
	cfg := testConfig(t, 1)
	cfg.Port = 3000
	a := New(cfg)

	assert.Equal(t, "Worker 77 started [test]", a.readiness(0, 77))
	assert.Equal(t, "Server is running on port 3000 [test]", a.readiness(-1, 77))
}

func TestPrimarySignalForwardsAndExitsZero(t *testing.T) {
	spawner := &stubSpawner{}
	a := New(testConfig(t, 2)).WithSpawner(spawner)

	exited := make(chan int, 1)
	a.exit = func(code int) { exited <- code }

	go a.runPrimary()

	require.Eventually(t, func() bool {
		spawner.mu.Lock()
		defer spawner.mu.Unlock()
		return len(spawner.procs) == 2
	}, 2*time.Second, 10*time.Millisecond)

	a.quit <- syscall.SIGTERM

	select {
	case code := <-exited:
		assert.Equal(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("primary did not exit after SIGTERM")
	}

	spawner.mu.Lock()
	defer spawner.mu.Unlock()
	for _, p := range spawner.procs {
		assert.Equal(t, []os.Signal{syscall.SIGTERM}, p.signals())
	}
}

func TestAwaitSignalInterrupt(t *testing.T) {
	a := New(testConfig(t, 1))
	exited := make(chan int, 1)
	a.exit = func(code int) { exited <- code }

	called := false
	a.quit <- syscall.SIGINT
	a.awaitSignal(func() { called = true })

	assert.True(t, called)
	assert.Equal(t, 0, <-exited)
}

func TestNewEngineRegistersRoutes(t *testing.T) {
	a := New(testConfig(t, 1))
	env := &handlers.Env{PID: 1, WorkerID: 0, Started: time.Now()}

	engine := a.NewEngine(env)
	assert.Len(t, engine.Routes(), 9)
}

func TestNewEngineRecordsRequests(t *testing.T) {
	a := New(testConfig(t, 1))
	env := &handlers.Env{PID: 1, WorkerID: 0, Started: time.Now()}
	engine := a.NewEngine(env)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, uint64(1), a.monitor.Total())
}
