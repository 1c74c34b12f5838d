//go:build !unix

package artnet

import "syscall"

// controlReuseAddr is a no-op on non-unix platforms (notably Windows):
// golang.org/x/sys/unix does not build there, and SO_REUSEPORT has no
// equivalent. SO_REUSEADDR-like sharing is Windows' default socket behavior.
func controlReuseAddr(_, _ string, _ syscall.RawConn) error {
	return nil
}

func enableBroadcast(fd uintptr) error {
	return syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
}
