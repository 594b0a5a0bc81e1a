package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/bitswitch-core/internal/audit"
)

type manualTriggerResponse struct {
	SessionsReached int `json:"sessions_reached"`
}

type switchStatusResponse struct {
	Sessions int `json:"sessions"`

	// LastTrigger is the most recent trigger payload broadcast to the
	// device, observational only. Null until the first trigger.
	LastTrigger json.RawMessage `json:"last_trigger"`
}

// handleSwitchStatus reports live delivery state for a switch: how many
// sessions are connected and what the last pushed trigger looked like.
func (s *Server) handleSwitchStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.registry.Get(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, switchStatusResponse{
		Sessions:    s.sessions.Count(id),
		LastTrigger: s.sessions.LastSent(id),
	})
}

// handleManualTrigger fires a pin by operator or device-owner action.
// The same disabled and disposable gates apply as for a settled payment,
// including the durable consumption mark on disposable pins.
func (s *Server) handleManualTrigger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pin, err := strconv.Atoi(chi.URLParam(r, "pin"))
	if err != nil {
		writeBadRequest(w, "invalid pin")
		return
	}

	reached, err := s.correlator.Manual(r.Context(), id, pin)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionTrigger, id, map[string]any{"pin": pin, "sessions_reached": reached})

	writeJSON(w, http.StatusOK, manualTriggerResponse{SessionsReached: reached})
}
