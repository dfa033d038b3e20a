//go:build !linux

package cluster

import "syscall"

func workerProcAttr() *syscall.SysProcAttr {
	return nil
}
