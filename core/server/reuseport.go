//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package server

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// ReusePortSupported reports whether listeners set SO_REUSEPORT.
const ReusePortSupported = true

var listenConfig = net.ListenConfig{
	Control: func(network, address string, c syscall.RawConn) error {
		var opErr error
		if err := c.Control(func(fd uintptr) {
			opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		}); err != nil {
			return err
		}
		return opErr
	},
}

// ListenReusePort opens a listener with SO_REUSEPORT set, letting several
// processes bind the same address while the kernel spreads connections.
func ListenReusePort(ctx context.Context, network, address string) (net.Listener, error) {
	return listenConfig.Listen(ctx, network, address)
}
