// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package runbatch

import (
	"errors"
	"os"
	"syscall"
)

func defaultShell() (string, string) {
	return "/bin/sh", "-c"
}

// sysProcAttr places the child in a new process group led by itself.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to every process in the group of ps.
func killProcessGroup(ps *os.Process) error {
	err := syscall.Kill(-ps.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}

	return err //nolint:wrapcheck
}
