package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/bitswitch-core/internal/audit"
	"github.com/nerrad567/bitswitch-core/internal/device"
	"github.com/nerrad567/bitswitch-core/internal/infrastructure/config"
	"github.com/nerrad567/bitswitch-core/internal/infrastructure/logging"
	"github.com/nerrad567/bitswitch-core/internal/lnurl"
	"github.com/nerrad567/bitswitch-core/internal/payment"
	"github.com/nerrad567/bitswitch-core/internal/session"
	"github.com/nerrad567/bitswitch-core/internal/trigger"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Security   config.SecurityConfig
	Logger     *logging.Logger
	Registry   *device.Registry
	Payments   payment.Repository
	Builder    *lnurl.Builder
	Correlator *trigger.Correlator
	Sessions   *session.Registry
	Audit      audit.Repository // optional
	Version    string
}

// Server is the HTTP API and device WebSocket server.
//
// It serves the public LNURL-pay endpoints, the device WebSocket, and
// the authenticated switch admin API. Created with New(), started with
// Start(), stopped with Close().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	secCfg     config.SecurityConfig
	logger     *logging.Logger
	registry   *device.Registry
	payments   payment.Repository
	builder    *lnurl.Builder
	correlator *trigger.Correlator
	sessions   *session.Registry
	audit      audit.Repository
	version    string
	server     *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Builder == nil {
		return nil, fmt.Errorf("payment request builder is required")
	}
	if deps.Correlator == nil {
		return nil, fmt.Errorf("trigger correlator is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session registry is required")
	}

	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		secCfg:     deps.Security,
		logger:     deps.Logger,
		registry:   deps.Registry,
		payments:   deps.Payments,
		builder:    deps.Builder,
		correlator: deps.Correlator,
		sessions:   deps.Sessions,
		audit:      deps.Audit,
		version:    deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server. Device sessions are
// detached so their pumps exit; in-flight requests get up to the
// shutdown timeout to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	s.sessions.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
