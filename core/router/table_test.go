package router

import (
	"testing"
)

func noop(ctx any) error { return nil }

// TestTableBasic tests basic static routing
func TestTableBasic(t *testing.T) {
	table := NewTable()
	table.Add("GET", "/", noop)
	table.Add("GET", "/api/data", noop)
	table.Add("POST", "/api/echo", noop)
	table.Freeze()

	tests := []struct {
		method      string
		path        string
		shouldMatch bool
	}{
		{"GET", "/", true},
		{"GET", "/api/data", true},
		{"POST", "/api/echo", true},
		{"GET", "/api/echo", false},
		{"POST", "/api/data", false},
		{"GET", "/api/data/", false},
		{"GET", "/notfound", false},
		{"HEAD", "/api/data", true},
		{"HEAD", "/api/echo", false},
	}

	for _, tt := range tests {
		matched := table.Find(tt.method, tt.path) != nil
		if matched != tt.shouldMatch {
			t.Errorf("%s %s: expected match=%v, got match=%v", tt.method, tt.path, tt.shouldMatch, matched)
		}
	}
}

func TestTableAddAfterFreezePanics(t *testing.T) {
	table := NewTable()
	table.Freeze()

	defer func() {
		if recover() == nil {
			t.Error("expected panic when adding to a frozen table")
		}
	}()
	table.Add("GET", "/late", noop)
}

func TestTableRejectsDuplicates(t *testing.T) {
	table := NewTable()
	table.Add("GET", "/", noop)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate route")
		}
	}()
	table.Add("GET", "/", noop)
}

func TestTableRoutesSorted(t *testing.T) {
	table := NewTable()
	table.Add("POST", "/b", noop)
	table.Add("GET", "/b", noop)
	table.Add("GET", "/a", noop)

	routes := table.Routes()
	want := []string{"GET /a", "GET /b", "POST /b"}
	if len(routes) != len(want) {
		t.Fatalf("expected %d routes, got %d", len(want), len(routes))
	}
	for i, r := range routes {
		if got := r.Method + " " + r.Path; got != want[i] {
			t.Errorf("route %d: expected %q, got %q", i, want[i], got)
		}
	}
}

func BenchmarkTableFind(b *testing.B) {
	table := NewTable()
	table.Add("GET", "/api/cpu-intensive", noop)
	table.Freeze()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		table.Find("GET", "/api/cpu-intensive")
	}
}
