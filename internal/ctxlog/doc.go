// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The default logger writes a human-readable line per record using PrettyHandler.
// The level is read once from <EXECUTABLE>_LOG_LEVEL (e.g. FANRUN_LOG_LEVEL) and
// defaults to WARN.
package ctxlog
