/*
Package clusterserver is a multi-process HTTP demo and load-test server.

A primary process forks one worker per CPU. Every worker re-executes the
same binary with CLUSTER_WORKER_ID set and GOMAXPROCS=1, binds the shared
port with SO_REUSEPORT and serves the full route table. The kernel spreads
incoming connections across the workers.

Routes

  - GET  /                      sum of 0..99999
  - GET  /health                status, pid, uptime, memory, cpu count
  - GET  /api/data              random record with 10 synthetic items
  - GET  /api/slow?delay=ms     delayed response (default 1000ms)
  - POST /api/echo              echoes the JSON body
  - GET  /api/error?type=code   responds with the given 4xx/5xx status
  - GET  /api/cpu-intensive     floating point loop (?iterations=n)
  - GET  /api/memory-intensive  allocates n random floats (?size=n)
  - GET  /api/stats             process and platform statistics

Quick Start

	cluster-server --port 3000
	MODE=single PORT=8080 cluster-server

Modules

  - app: role selection and signal handling
  - cluster: primary process and worker spawning
  - config: flags and environment configuration
  - core: engine, access log and fault mapping
  - core/http: request context over net/http
  - core/router: static route table
  - core/codec: JSON, protobuf and YAML response encodings
  - core/server: reuse-port listener with optional h2c
  - core/sysinfo: process memory, load average and platform facts
  - core/observability: per-route request statistics
  - handlers: the demo endpoints
*/
package clusterserver
