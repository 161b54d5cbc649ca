// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/matt-FFFFFF/fanrun/internal/export"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
)

const maxRequestBody = 1 << 20

// maxTimeout bounds the per-profile timeout a request may ask for.
const maxTimeout = 24 * time.Hour

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	n := 0
	if s.registry != nil {
		n = len(s.registry.Names())
	}

	s.writeJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Profiles:      n,
	})
}

// handleProfiles handles GET /api/profiles.
func (s *Server) handleProfiles(w http.ResponseWriter, _ *http.Request) {
	profiles := profile.All(s.registry)
	if profiles == nil {
		profiles = []profile.Profile{}
	}

	p := runbatch.NewPartitioner(s.config.TierOrder...)
	tiers := make(map[string][]string)

	for _, t := range p.Partition(profiles) {
		tiers[t.Name] = t.Names()
	}

	s.writeJSON(w, http.StatusOK, ProfilesResponse{
		Profiles: profiles,
		Tiers:    tiers,
		Order:    p.Order(),
	})
}

// handleGetHistory handles GET /api/history.
func (s *Server) handleGetHistory(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, HistoryResponse{History: s.engine.History()})
}

// handleClearHistory handles DELETE /api/history.
func (s *Server) handleClearHistory(w http.ResponseWriter, _ *http.Request) {
	s.engine.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

// handleExecute handles POST /api/execute. Without a format query parameter the
// results are streamed as NDJSON; with ?format=json|csv|txt the batch is collected
// and returned as an export document.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var body ExecuteRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req := runbatch.Request{
		Command:       body.Command,
		Profiles:      body.Profiles,
		Timeout:       s.config.DefaultTimeout,
		StopOnFailure: s.config.StopOnFailure,
	}

	if body.Timeout != nil {
		if *body.Timeout <= 0 {
			s.writeError(w, http.StatusBadRequest, "timeout must be positive")
			return
		}

		if *body.Timeout > maxTimeout.Seconds() {
			s.writeError(w, http.StatusBadRequest, "timeout must not exceed "+maxTimeout.String())
			return
		}

		req.Timeout = time.Duration(*body.Timeout * float64(time.Second))
	}

	if body.StopOnFailure != nil {
		req.StopOnFailure = *body.StopOnFailure
	}

	if f := r.URL.Query().Get("format"); f != "" {
		format, err := export.ParseFormat(f)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		includeTimestamps := true
		if v := r.URL.Query().Get("include_timestamps"); v != "" {
			includeTimestamps, err = strconv.ParseBool(v)
			if err != nil {
				s.writeError(w, http.StatusBadRequest, "include_timestamps must be a boolean")
				return
			}
		}

		s.executeExport(w, r, req, export.Options{Format: format, IncludeTimestamps: includeTimestamps})

		return
	}

	s.executeStream(w, r, req)
}

func (s *Server) executeStream(w http.ResponseWriter, r *http.Request, req runbatch.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	stream := s.engine.ExecuteRequest(ctx, req)

	defer stream.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Batch-ID", stream.BatchID())
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	complete := CompleteRecord{Type: CompleteRecordType, BatchID: stream.BatchID()}

	for {
		select {
		case <-ctx.Done():
			ctxlog.Info(ctx, "client went away, cancelling batch", "batch", stream.BatchID())
			return
		case res, ok := <-stream.Results():
			if !ok {
				if err := enc.Encode(complete); err == nil {
					flusher.Flush()
				}

				return
			}

			complete.TotalCount++
			if res.Success() {
				complete.SuccessCount++
			}

			if err := enc.Encode(export.FromResult(stream.BatchID(), res)); err != nil {
				ctxlog.Warn(ctx, "failed to write result, cancelling batch", "error", err)
				return
			}

			flusher.Flush()
		}
	}
}

func (s *Server) executeExport(w http.ResponseWriter, r *http.Request, req runbatch.Request, opts export.Options) {
	stream := s.engine.ExecuteRequest(r.Context(), req)
	defer stream.Close()

	results := stream.Collect()

	w.Header().Set("Content-Type", contentType(opts.Format))
	w.Header().Set("X-Batch-ID", stream.BatchID())
	w.WriteHeader(http.StatusOK)

	batch := export.Batch{ID: stream.BatchID(), Command: req.Command, Results: results}
	if err := export.Write(w, batch, opts); err != nil {
		ctxlog.Warn(r.Context(), "failed to write export", "error", err)
	}
}

func contentType(f export.Format) string {
	switch f {
	case export.FormatCSV:
		return "text/csv"
	case export.FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}
