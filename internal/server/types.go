// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package server

import (
	"github.com/matt-FFFFFF/fanrun/internal/history"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
)

// ExecuteRequest is the body of POST /api/execute.
type ExecuteRequest struct {
	Command       string   `json:"command"`
	Profiles      []string `json:"profiles"`
	Timeout       *float64 `json:"timeout,omitempty"` // seconds
	StopOnFailure *bool    `json:"stop_on_failure,omitempty"`
}

// CompleteRecord ends an execute stream.
type CompleteRecord struct {
	Type         string `json:"type"`
	BatchID      string `json:"batch_id"`
	SuccessCount int    `json:"success_count"`
	TotalCount   int    `json:"total_count"`
}

// CompleteRecordType is the Type of a CompleteRecord.
const CompleteRecordType = "complete"

// HistoryResponse is the body of GET /api/history.
type HistoryResponse struct {
	History []history.Entry `json:"history"`
}

// ProfilesResponse is the body of GET /api/profiles.
type ProfilesResponse struct {
	Profiles []profile.Profile   `json:"profiles"`
	Tiers    map[string][]string `json:"tiers"`
	Order    []string            `json:"order"`
}

// HealthzResponse is the body of GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Profiles      int    `json:"profiles"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
