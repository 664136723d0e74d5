//go:build !windows

package engine

import "syscall"

// detachedProcAttr puts the launched engine in its own session so it survives
// the gateway exiting.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
