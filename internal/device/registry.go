package device

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// adminKeyBytes is the entropy of a device admin key.
const adminKeyBytes = 32

// Registry provides switch management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups on
// the hot path (every LNURL request and settlement reads a switch).
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Switch
	cacheMu sync.RWMutex
	logger  Logger
}

// NewRegistry creates a new switch registry.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Switch),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all switches from the repository into the cache.
// Called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	switches, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading switches: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Switch, len(switches))
	for i := range switches {
		s := switches[i]
		r.cache[s.ID] = s.Clone()
	}

	r.logger.Info("switch cache refreshed", "count", len(switches))
	return nil
}

// Get retrieves a switch by id.
// Returns ErrNotFound if the switch does not exist.
// The returned switch is a copy; callers can safely modify it.
func (r *Registry) Get(ctx context.Context, id string) (*Switch, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.Clone(), nil
	}

	s, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = s.Clone()
	r.cacheMu.Unlock()

	return s, nil
}

// List retrieves all switches as independent copies.
func (r *Registry) List(ctx context.Context) ([]Switch, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		switches := make([]Switch, 0, len(r.cache))
		for _, s := range r.cache {
			switches = append(switches, *s.Clone())
		}
		r.cacheMu.RUnlock()
		return switches, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.List(ctx)
}

// Create validates and inserts a new switch.
// The id and admin key are minted here; timestamps are set to now.
func (r *Registry) Create(ctx context.Context, s *Switch) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.AdminKey == "" {
		key, err := newAdminKey()
		if err != nil {
			return fmt.Errorf("minting admin key: %w", err)
		}
		s.AdminKey = key
	}
	if s.Currency == "" {
		s.Currency = NativeCurrency
	}

	if err := Validate(s); err != nil {
		return err
	}

	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	if err := r.repo.Create(ctx, s); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[s.ID] = s.Clone()
	r.cacheMu.Unlock()

	r.logger.Info("switch created", "switch_id", s.ID, "title", s.Title, "pins", len(s.Pins))
	return nil
}

// Update validates and persists a switch, replacing its pin list wholesale.
func (r *Registry) Update(ctx context.Context, s *Switch) error {
	if err := Validate(s); err != nil {
		return err
	}

	s.UpdatedAt = time.Now().UTC()

	if err := r.repo.Update(ctx, s); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[s.ID] = s.Clone()
	r.cacheMu.Unlock()

	r.logger.Info("switch updated", "switch_id", s.ID, "pins", len(s.Pins))
	return nil
}

// Delete removes a switch by id.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("switch deleted", "switch_id", id)
	return nil
}

// Count returns the number of cached switches.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// newAdminKey mints a cryptographically random device admin key.
func newAdminKey() (string, error) {
	buf := make([]byte, adminKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
