// Rookery - Social Feed Ranking and Discovery Engine
// Copyright 2026 Rookery Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rookery-social/rookery

package api

import (
	"net/http"
)

// healthStatus is the payload of the health endpoints.
type healthStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// HealthLive serves GET /api/v1/health/live. It answers as long as the
// process is serving requests.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(http.StatusOK, healthStatus{Status: "ok"})
}

// HealthReady serves GET /api/v1/health/ready. It runs the installed
// readiness check, so orchestrators hold traffic until the stores are open.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.readiness != nil {
		if err := h.readiness(r.Context()); err != nil {
			rw.writeJSON(http.StatusServiceUnavailable, &APIResponse{
				Success: false,
				Data:    healthStatus{Status: "unavailable", Reason: err.Error()},
				Meta:    rw.meta(),
			})
			return
		}
	}

	rw.Success(http.StatusOK, healthStatus{Status: "ready"})
}
