package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/bitswitch-core/internal/audit"
	"github.com/nerrad567/bitswitch-core/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// handleLogin exchanges the operator password for a JWT access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, s.secCfg.AdminPassword)
	if err != nil {
		s.logger.Error("password verification failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if !ok || req.Username != "admin" {
		s.logger.Warn("failed login attempt", "username", req.Username)
		writeUnauthorized(w, "invalid credentials")
		return
	}

	token, err := auth.GenerateAccessToken(req.Username, auth.RoleOperator, s.secCfg.JWT.Secret, s.secCfg.JWT.AccessTokenTTL)
	if err != nil {
		s.logger.Error("token generation failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	if s.audit != nil {
		entry := &audit.Entry{Action: audit.ActionLogin, Actor: "operator"}
		if auditErr := s.audit.Create(r.Context(), entry); auditErr != nil {
			s.logger.Error("audit write failed", "action", audit.ActionLogin, "error", auditErr)
		}
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.secCfg.JWT.AccessTokenTTL * 60,
	})
}
