// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a live terminal view of one fan-out batch. Each profile
// gets a row, grouped by tier, that changes from pending to running to its final
// status as results arrive on the batch's result stream.
package tui
