// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI escape codes for terminal output.
//
// Colour is enabled when stdout is a terminal, unless NO_COLOR is set.
// FORCE_COLOR enables colour for non-terminal output (e.g. CI logs).
package color
