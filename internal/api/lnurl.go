package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleLNURLParams serves the LNURL-pay metadata step.
//
// GET /api/v1/lnurl/{deviceID}?pin=N
//
// Failures use the LNURL wire error shape so wallets show the reason
// instead of a generic network error.
func (s *Server) handleLNURLParams(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	pin, err := strconv.Atoi(r.URL.Query().Get("pin"))
	if err != nil {
		writeLNURLError(w, "missing or invalid pin")
		return
	}

	params, err := s.builder.PayParams(r.Context(), deviceID, pin)
	if err != nil {
		s.logger.Debug("lnurl params rejected", "device_id", deviceID, "pin", pin, "error", err)
		writeLNURLError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, params)
}

// handleLNURLCallback serves the LNURL-pay invoice step.
//
// GET /api/v1/lnurl/cb/{deviceID}/{pin}?amount=msat&comment=...&asset=...
func (s *Server) handleLNURLCallback(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	pin, err := strconv.Atoi(chi.URLParam(r, "pin"))
	if err != nil {
		writeLNURLError(w, "invalid pin")
		return
	}
	amountMsat, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		writeLNURLError(w, "missing or invalid amount")
		return
	}
	comment := r.URL.Query().Get("comment")
	assetID := r.URL.Query().Get("asset")

	resp, err := s.builder.Invoice(r.Context(), deviceID, pin, amountMsat, comment, assetID)
	if err != nil {
		s.logger.Debug("lnurl invoice rejected",
			"device_id", deviceID, "pin", pin, "amount_msat", amountMsat, "error", err)
		writeLNURLError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
