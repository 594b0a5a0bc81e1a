package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/bitswitch-core/internal/audit"
	"github.com/nerrad567/bitswitch-core/internal/device"
)

// switchRequest is the create/update payload. Fields are enumerated
// explicitly; unknown fields are rejected rather than passed through.
type switchRequest struct {
	Title      string       `json:"title"`
	WalletID   string       `json:"wallet_id"`
	Currency   string       `json:"currency"`
	Disabled   bool         `json:"disabled"`
	Disposable bool         `json:"disposable"`
	Pins       []device.Pin `json:"pins"`
}

func decodeSwitchRequest(r *http.Request) (*switchRequest, error) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var req switchRequest
	if err := dec.Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// handleCreateSwitch creates a switch device. The id and admin key are
// minted server-side and returned in the response.
func (s *Server) handleCreateSwitch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSwitchRequest(r)
	if err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	sw := &device.Switch{
		Title:      req.Title,
		WalletID:   req.WalletID,
		Currency:   req.Currency,
		Disabled:   req.Disabled,
		Disposable: req.Disposable,
		Pins:       req.Pins,
	}
	if sw.Currency == "" {
		sw.Currency = device.NativeCurrency
	}

	if err := s.registry.Create(r.Context(), sw); err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionCreate, sw.ID, map[string]any{"title": sw.Title})
	writeJSON(w, http.StatusCreated, sw)
}

// handleListSwitches returns all switch devices, admin keys included.
func (s *Server) handleListSwitches(w http.ResponseWriter, r *http.Request) {
	switches, err := s.registry.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, switches)
}

// handleGetSwitch returns one switch device, admin key included.
func (s *Server) handleGetSwitch(w http.ResponseWriter, r *http.Request) {
	sw, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sw)
}

// handleUpdateSwitch replaces a switch's mutable fields. The pin list is
// replaced wholesale; there is no per-pin patching.
func (s *Server) handleUpdateSwitch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.registry.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	req, err := decodeSwitchRequest(r)
	if err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	existing.Title = req.Title
	existing.WalletID = req.WalletID
	existing.Disabled = req.Disabled
	existing.Disposable = req.Disposable
	existing.Pins = req.Pins
	if req.Currency != "" {
		existing.Currency = req.Currency
	}

	if err := s.registry.Update(r.Context(), existing); err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionUpdate, existing.ID, nil)
	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteSwitch removes a switch device.
func (s *Server) handleDeleteSwitch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	s.recordAudit(r, audit.ActionDelete, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleListPayments returns the payment bookkeeping rows for a switch,
// newest first.
func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// 404 for unknown switches rather than an empty list.
	if _, err := s.registry.Get(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	payments, err := s.payments.ListBySwitch(r.Context(), id)
	if err != nil {
		s.logger.Error("listing payments failed", "switch_id", id, "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// handlePublicDevice returns the payer-facing device view. Never exposes
// the admin key or wallet reference.
func (s *Server) handlePublicDevice(w http.ResponseWriter, r *http.Request) {
	sw, err := s.registry.Get(r.Context(), chi.URLParam(r, "deviceID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sw.Public())
}
