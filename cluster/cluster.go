// Package cluster runs a primary process that forks one worker process per
// CPU. Every worker serves the full route table on the shared port.
package cluster

import (
	"os"
	"strconv"
)

// WorkerIDEnv marks a process as a worker and carries its index.
const WorkerIDEnv = "CLUSTER_WORKER_ID"

// WorkerID returns this process's worker index and true when it was started
// by a supervisor.
func WorkerID() (int, bool) {
	v, ok := os.LookupEnv(WorkerIDEnv)
	if !ok {
		return -1, false
	}
	id, err := strconv.Atoi(v)
	if err != nil || id < 0 {
		return -1, false
	}
	return id, true
}

// IsPrimary reports whether this process should act as the supervisor.
func IsPrimary() bool {
	_, worker := WorkerID()
	return !worker
}
