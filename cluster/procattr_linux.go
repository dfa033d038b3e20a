//go:build linux

package cluster

import "syscall"

// Workers get SIGTERM when the primary dies without forwarding a signal.
func workerProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}
}
