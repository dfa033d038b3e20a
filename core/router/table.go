package router

import (
	"fmt"
	"sort"
)

// HandlerFunc defines the handler function type
type HandlerFunc func(ctx any) error

// Route is one (method, path) -> handler binding.
type Route struct {
	Method  string
	Path    string
	Handler HandlerFunc
}

// Table is a static route table: path -> method -> handler.
// Routes may only be added before Freeze; lookups are safe for concurrent
// use once the table is frozen.
type Table struct {
	routes map[string]map[string]HandlerFunc
	frozen bool
}

// NewTable creates an empty route table
func NewTable() *Table {
	return &Table{
		routes: make(map[string]map[string]HandlerFunc, 16),
	}
}

// Add registers a route. It panics on a frozen table, a path without a
// leading slash, or a duplicate (method, path).
func (t *Table) Add(method, path string, handler HandlerFunc) {
	if t.frozen {
		panic(fmt.Sprintf("router: add %s %s after freeze", method, path))
	}
	if path == "" || path[0] != '/' {
		panic("path must begin with '/'")
	}
	if handler == nil {
		panic("router: nil handler for " + method + " " + path)
	}

	methods, ok := t.routes[path]
	if !ok {
		methods = make(map[string]HandlerFunc, 2)
		t.routes[path] = methods
	}
	if _, dup := methods[method]; dup {
		panic(fmt.Sprintf("router: duplicate route %s %s", method, path))
	}
	methods[method] = handler
}

// Freeze makes the table immutable.
func (t *Table) Freeze() {
	t.frozen = true
}

// Find returns the handler for method and path, or nil. HEAD falls back to
// the GET handler of the same path.
func (t *Table) Find(method, path string) HandlerFunc {
	methods, ok := t.routes[path]
	if !ok {
		return nil
	}
	if h := methods[method]; h != nil {
		return h
	}
	if method == "HEAD" {
		return methods["GET"]
	}
	return nil
}

// Routes lists the registered routes sorted by path, then method.
func (t *Table) Routes() []Route {
	out := make([]Route, 0, len(t.routes))
	for path, methods := range t.routes {
		for method, h := range methods {
			out = append(out, Route{Method: method, Path: path, Handler: h})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}
