//go:build !unix

package chat

import "syscall"

func reuseAddrControl(_, _ string, _ syscall.RawConn) error { return nil }
