package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/searchktools/cluster-server/cluster"
	"github.com/searchktools/cluster-server/config"
	"github.com/searchktools/cluster-server/core"
	"github.com/searchktools/cluster-server/core/observability"
	"github.com/searchktools/cluster-server/core/server"
	"github.com/searchktools/cluster-server/handlers"
)

// App is the application instance. Depending on configuration and
// environment it runs as the cluster primary, as one of its workers, or as
// a single serving process.
type App struct {
	cfg *config.Config

	spawner cluster.Spawner
	monitor *observability.Monitor
	quit    chan os.Signal
	exit    func(code int)
}

// New creates an application instance
func New(cfg *config.Config) *App {
	return &App{
		cfg:     cfg,
		monitor: observability.NewMonitor(),
		quit:    make(chan os.Signal, 1),
		exit:    os.Exit,
	}
}

// WithSpawner replaces the worker spawner used in the primary role.
func (a *App) WithSpawner(s cluster.Spawner) *App {
	a.spawner = s
	return a
}

// Run starts the application and blocks until it stops. A signal ends the
// process with status 0 without returning.
func (a *App) Run() error {
	signal.Notify(a.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.quit)

	if a.cfg.Mode == config.ModeSingle {
		return a.serve(-1)
	}
	if id, ok := cluster.WorkerID(); ok {
		return a.serve(id)
	}
	return a.runPrimary()
}

func (a *App) runPrimary() error {
	// workers share the port, so a busy port must be caught before forking
	if err := server.CheckAddr(a.cfg.Addr()); err != nil {
		return errors.Wrapf(err, "port %d unavailable", a.cfg.Port)
	}

	spawner := a.spawner
	if spawner == nil {
		exec, err := cluster.NewExecSpawner()
		if err != nil {
			return err
		}
		spawner = exec
	}

	sup := cluster.NewSupervisor(spawner, a.cfg.Workers)
	if err := sup.Start(); err != nil {
		return err
	}

	go a.awaitSignal(func() { sup.Signal(syscall.SIGTERM) })

	return sup.Wait(context.Background())
}

// NewEngine builds the engine with every route registered.
func (a *App) NewEngine(env *handlers.Env) *core.Engine {
	engine := core.NewEngine(
		core.WithColor(!a.cfg.NoColor && core.StderrIsTerminal()),
		core.WithMonitor(a.monitor),
	)
	handlers.Register(engine, env)
	return engine
}

func (a *App) serve(workerID int) error {
	env, err := handlers.NewEnv(workerID)
	if err != nil {
		return errors.Wrap(err, "capture process facts")
	}

	srv := server.New(server.Config{
		Addr:              a.cfg.Addr(),
		Handler:           a.NewEngine(env),
		H2C:               a.cfg.H2C,
		ReusePort:         workerID >= 0,
		ReadHeaderTimeout: a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
	})
	if _, err := srv.Listen(); err != nil {
		return errors.Wrapf(err, "listen on %s", a.cfg.Addr())
	}

	log.Print(a.readiness(workerID, env.PID))

	go a.awaitSignal(func() {
		a.monitor.LogSummary(log.Default())
		srv.Close()
	})

	return srv.Serve()
}

func (a *App) readiness(workerID, pid int) string {
	if workerID >= 0 {
		return fmt.Sprintf("Worker %d started [%s]", pid, a.cfg.Env)
	}
	return fmt.Sprintf("Server is running on port %d [%s]", a.cfg.Port, a.cfg.Env)
}

func (a *App) awaitSignal(onSignal func()) {
	sig := <-a.quit
	log.Printf("Signal received: %v. Shutting down...", sig)

	if onSignal != nil {
		onSignal()
	}
	a.exit(0)
}
