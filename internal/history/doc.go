// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package history keeps a bounded, in-memory record of completed batches.
package history
