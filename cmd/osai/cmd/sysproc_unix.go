//go:build !windows

package cmd

import "syscall"

// detachedProcAttr starts the daemon in its own session so it outlives
// the terminal.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
