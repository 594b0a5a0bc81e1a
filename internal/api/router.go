package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface: payer wallets and device firmware hit these.
		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)

		r.Get("/lnurl/{deviceID}", s.handleLNURLParams)
		r.Get("/lnurl/cb/{deviceID}/{pin}", s.handleLNURLCallback)
		r.Get("/public/{deviceID}", s.handlePublicDevice)
		r.Get("/ws/{deviceID}", s.handleDeviceWS)

		// Operator action trail.
		r.Group(func(r chi.Router) {
			r.Use(s.operatorAuthMiddleware)
			r.Get("/audit", s.handleListAudit)
		})

		// Switch admin API.
		r.Route("/switches", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(s.operatorAuthMiddleware)
				r.Get("/", s.handleListSwitches)
				r.Post("/", s.handleCreateSwitch)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Use(s.deviceAuthMiddleware)
				r.Get("/", s.handleGetSwitch)
				r.Put("/", s.handleUpdateSwitch)
				r.Delete("/", s.handleDeleteSwitch)
				r.Get("/payments", s.handleListPayments)
				r.Get("/status", s.handleSwitchStatus)
				r.Put("/trigger/{pin}", s.handleManualTrigger)
			})
		})
	})

	return r
}
