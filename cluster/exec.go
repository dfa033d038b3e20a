package cluster

import (
	"io"
	"os"
	"os/exec"
	"slices"
	"strconv"

	"github.com/pkg/errors"
)

// ExecSpawner starts workers by re-executing a binary with the worker id
// in its environment. Each worker runs a single scheduler thread.
type ExecSpawner struct {
	Path   string
	Args   []string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecSpawner re-executes the running binary with its own arguments
// and environment.
func NewExecSpawner() (*ExecSpawner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "locate executable")
	}
	return &ExecSpawner{
		Path:   exe,
		Args:   os.Args[1:],
		Env:    os.Environ(),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, nil
}

// Spawn starts worker id
func (s *ExecSpawner) Spawn(id int) (Process, error) {
	cmd := exec.Command(s.Path, s.Args...)
	// later entries win over inherited ones
	cmd.Env = append(slices.Clone(s.Env),
		WorkerIDEnv+"="+strconv.Itoa(id),
		"GOMAXPROCS=1",
	)
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	cmd.SysProcAttr = workerProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "start %s", s.Path)
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Wait() error { return p.cmd.Wait() }

func (p *execProcess) Signal(sig os.Signal) error { return p.cmd.Process.Signal(sig) }
