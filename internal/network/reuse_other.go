//go:build !unix

package network

import "syscall"

func reuseControl(network, address string, c syscall.RawConn) error {
	return nil
}
