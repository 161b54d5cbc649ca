// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package runbatch

import (
	"os"
	"syscall"
)

func defaultShell() (string, string) {
	return "cmd.exe", "/C"
}

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// killProcessGroup terminates ps. Grandchildren are not reached on Windows.
func killProcessGroup(ps *os.Process) error {
	return ps.Kill() //nolint:wrapcheck
}
