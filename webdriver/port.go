package webdriver

import (
	"fmt"
	"net"
)

// pickUnusedPort asks the kernel for a free local port. The port is released
// before returning, so the driver process can bind it right after.
func pickUnusedPort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("listening on a random port: %w", err)
	}
	defer l.Close() //nolint:errcheck

	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected listener address %s", l.Addr())
	}
	return addr.Port, nil
}
