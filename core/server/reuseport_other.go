//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package server

import (
	"context"
	"net"
)

// ReusePortSupported reports whether listeners set SO_REUSEPORT.
const ReusePortSupported = false

// ListenReusePort falls back to a plain listener; only one process can
// bind the address on this platform.
func ListenReusePort(ctx context.Context, network, address string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, network, address)
}
