package core

import (
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"sync"
	"time"

	"github.com/searchktools/cluster-server/core/http"
	"github.com/searchktools/cluster-server/core/observability"
	"github.com/searchktools/cluster-server/core/router"
)

// HandlerFunc defines the handler function type. A returned error is turned
// into a 500 response carrying the error text.
type HandlerFunc func(ctx http.Context) error

// Engine routes requests to handlers over net/http. It implements
// net/http.Handler.
type Engine struct {
	router     *router.Table
	freezeOnce sync.Once

	accessLog *log.Logger
	colors    *ColorScheme
	monitor   *observability.Monitor
	now       func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithAccessLog sets the access logger; nil disables access logging.
func WithAccessLog(l *log.Logger) Option {
	return func(e *Engine) {
		e.accessLog = l
	}
}

// WithColor toggles colored access log output.
func WithColor(enabled bool) Option {
	return func(e *Engine) {
		if enabled {
			e.colors = DefaultColorScheme()
		} else {
			e.colors = NoColorScheme()
		}
	}
}

// WithMonitor records every request's route, status and latency in m.
func WithMonitor(m *observability.Monitor) Option {
	return func(e *Engine) {
		e.monitor = m
	}
}

// NewEngine creates a new engine instance
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		router:    router.NewTable(),
		accessLog: log.New(os.Stderr, "", 0),
		colors:    NoColorScheme(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GET registers a GET route
func (e *Engine) GET(path string, handler HandlerFunc) {
	e.handle("GET", path, handler)
}

// POST registers a POST route
func (e *Engine) POST(path string, handler HandlerFunc) {
	e.handle("POST", path, handler)
}


func (e *Engine) handle(method, path string, handler HandlerFunc) {
	e.router.Add(method, path, func(ctx any) error {
		return handler(ctx.(http.Context))
	})
}

// Freeze fixes the route table. Serving freezes it implicitly.
func (e *Engine) Freeze() {
	e.freezeOnce.Do(e.router.Freeze)
}

// Routes lists the registered routes
func (e *Engine) Routes() []router.Route {
	return e.router.Routes()
}

// ServeHTTP dispatches one request.
func (e *Engine) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	e.Freeze()

	start := e.now()
	ctx := http.AcquireContext(w, r)
	defer http.ReleaseContext(ctx)

	h := e.router.Find(r.Method, r.URL.Path)
	if h == nil {
		ctx.Error(404, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path))
	} else if err := e.invoke(h, ctx); err != nil {
		e.fault(ctx, err)
	} else if !ctx.Written() {
		// a handler that wrote nothing still answers
		ctx.Data(204, "text/plain", nil)
	}

	e.logAccess(start, ctx)

	if e.monitor != nil {
		route := "unmatched"
		if h != nil {
			route = r.Method + " " + r.URL.Path
		}
		e.monitor.Record(route, e.now().Sub(start), ctx.Status())
	}
}

// invoke runs h, converting a panic into an error.
func (e *Engine) invoke(h router.HandlerFunc, ctx *http.StandardContext) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == nethttp.ErrAbortHandler {
				panic(rec)
			}
			if recErr, ok := rec.(error); ok {
				err = recErr
			} else {
				err = fmt.Errorf("%v", rec)
			}
			log.Printf("Panic recovered in %s %s: %v", ctx.Method(), ctx.Path(), rec)
		}
	}()
	return h(ctx)
}

// fault maps a handler failure to a 500 response.
func (e *Engine) fault(ctx *http.StandardContext, err error) {
	if ctx.Written() {
		log.Printf("Handler error after response was sent for %s %s: %v", ctx.Method(), ctx.Path(), err)
		return
	}
	ctx.JSON(500, map[string]any{
		"error":   "Internal Server Error",
		"message": err.Error(),
	})
}

func (e *Engine) logAccess(start time.Time, ctx *http.StandardContext) {
	if e.accessLog == nil {
		return
	}
	e.accessLog.Printf("%s %s %s %s %s %s",
		start.UTC().Format(time.RFC3339Nano),
		e.colors.Method.Sprint(ctx.Method()),
		ctx.Path(),
		ctx.RemoteAddr(),
		e.colors.ForStatus(ctx.Status()).Sprint(ctx.Status()),
		e.now().Sub(start).Round(time.Microsecond),
	)
}
