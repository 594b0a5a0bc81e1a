package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/bitswitch-core/internal/audit"
	"github.com/nerrad567/bitswitch-core/internal/auth"
)

// recordAudit writes an action trail entry. The trail is optional and
// best effort: a write failure is logged, never surfaced to the caller.
func (s *Server) recordAudit(r *http.Request, action, switchID string, details map[string]any) {
	if s.audit == nil {
		return
	}

	actor := "device-key"
	if _, ok := r.Context().Value(ctxKeyClaims).(*auth.Claims); ok {
		actor = "operator"
	}

	entry := &audit.Entry{
		Action:   action,
		SwitchID: switchID,
		Actor:    actor,
		Details:  details,
	}
	if err := s.audit.Create(r.Context(), entry); err != nil {
		s.logger.Error("audit write failed", "action", action, "switch_id", switchID, "error", err)
	}
}

// handleListAudit returns the action trail, most recent first. Filterable
// by action and switch id, paginated via limit/offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w, "audit trail not enabled")
		return
	}

	filter := audit.Filter{
		Action:   r.URL.Query().Get("action"),
		SwitchID: r.URL.Query().Get("switch_id"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid offset")
			return
		}
		filter.Offset = n
	}

	res, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit trail failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
