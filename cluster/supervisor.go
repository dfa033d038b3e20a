package cluster

import (
	"context"
	"log"
	"os"
	"runtime"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ErrAllWorkersExited is returned by Wait once no worker is left.
var ErrAllWorkersExited = errors.New("all workers exited")

// Process is a started worker process
type Process interface {
	Pid() int
	Wait() error
	Signal(sig os.Signal) error
}

// Spawner starts worker processes
type Spawner interface {
	Spawn(id int) (Process, error)
}

// Supervisor forks a fixed set of workers and watches them exit. Workers
// are never restarted.
type Supervisor struct {
	spawner Spawner
	size    int

	mu      sync.Mutex
	workers []Process
	started bool

	alive *atomic.Int32
	done  chan struct{}
}

// NewSupervisor creates a supervisor for size workers; size <= 0 means one
// per available CPU.
func NewSupervisor(spawner Spawner, size int) *Supervisor {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Supervisor{
		spawner: spawner,
		size:    size,
		alive:   atomic.NewInt32(0),
		done:    make(chan struct{}),
	}
}

// Size returns the number of workers Start forks
func (s *Supervisor) Size() int {
	return s.size
}

// Start forks every worker. If any fork fails the workers already started
// are sent SIGTERM and the error is returned.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("supervisor already started")
	}
	s.started = true

	log.Printf("Primary %d is running", os.Getpid())

	for i := 0; i < s.size; i++ {
		p, err := s.spawner.Spawn(i)
		if err != nil {
			s.signalLocked(syscall.SIGTERM)
			return errors.Wrapf(err, "fork worker %d", i)
		}
		s.workers = append(s.workers, p)
		s.alive.Inc()
		log.Printf("Worker %d forked with pid %d", i, p.Pid())
	}

	for i, p := range s.workers {
		go s.watch(i, p)
	}

	log.Printf("Forked %d workers", len(s.workers))
	return nil
}

func (s *Supervisor) watch(id int, p Process) {
	if err := p.Wait(); err != nil {
		log.Printf("Worker %d (pid %d) died: %v", id, p.Pid(), err)
	} else {
		log.Printf("Worker %d (pid %d) exited", id, p.Pid())
	}
	if s.alive.Dec() == 0 {
		close(s.done)
	}
}

// Pids returns the worker process ids in fork order
func (s *Supervisor) Pids() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pids := make([]int, len(s.workers))
	for i, p := range s.workers {
		pids[i] = p.Pid()
	}
	return pids
}

// Alive returns how many workers have not exited yet
func (s *Supervisor) Alive() int {
	return int(s.alive.Load())
}

// Signal forwards sig to every worker. Delivery is best effort; failures
// are logged.
func (s *Supervisor) Signal(sig os.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signalLocked(sig)
}

func (s *Supervisor) signalLocked(sig os.Signal) {
	for _, p := range s.workers {
		if err := p.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
			log.Printf("Signal %v to worker pid %d failed: %v", sig, p.Pid(), err)
		}
	}
}

// Wait blocks until every worker has exited, returning ErrAllWorkersExited,
// or until ctx is done.
func (s *Supervisor) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return ErrAllWorkersExited
	case <-ctx.Done():
		return ctx.Err()
	}
}
