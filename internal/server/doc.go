// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package server exposes the engine over HTTP.
//
// POST /api/execute streams one newline-delimited JSON record per profile as
// results arrive, followed by a record of type "complete". A client that goes
// away cancels its batch.
package server
