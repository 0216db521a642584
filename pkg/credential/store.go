// Package credential owns the lifecycle of the single API credential:
// loading it from durable storage at startup, falling back to a
// configured value, and persisting user updates.
package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/ports"
)

// DefaultKey is injected at build time:
//
//	go build -ldflags "-X github.com/aretw0/deepstock/pkg/credential.DefaultKey=..."
var DefaultKey string

// FallbackEnvVars are consulted in order when no build-time key is set.
var FallbackEnvVars = []string{"DEEPSTOCK_API_KEY", "GEMINI_API_KEY"}

// ResolveFallback returns the startup fallback credential value, if any.
func ResolveFallback() string {
	if DefaultKey != "" {
		return DefaultKey
	}
	for _, name := range FallbackEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Store keeps the active credential in memory and mirrors it to a SecretStore.
type Store struct {
	backend  ports.SecretStore
	fallback string
	logger   *slog.Logger

	mu      sync.RWMutex
	current domain.Credential
}

// Option configures a Store.
type Option func(*Store)

// WithFallback sets the read-only value used when storage holds no credential.
func WithFallback(value string) Option {
	return func(s *Store) {
		s.fallback = value
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store over the given backend.
func New(backend ports.SecretStore, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted credential and makes it current.
// A missing key selects the fallback. Read errors are logged and treated as missing.
func (s *Store) Load(ctx context.Context) domain.Credential {
	value, err := s.backend.Get(ctx, domain.CredentialKey)
	switch {
	case err == nil:
		// Present, possibly empty: an explicit clear overrides the fallback.
	case errors.Is(err, domain.ErrSecretNotFound):
		value = s.fallback
	default:
		s.logger.Warn("Credential read failed, using fallback", "error", err)
		value = s.fallback
	}

	cred := domain.NewCredential(value)

	s.mu.Lock()
	s.current = cred
	s.mu.Unlock()

	s.logger.Debug("Credential loaded", "credential", cred, "set", cred.IsSet())
	return cred
}

// Save replaces the in-memory credential and persists it.
// The in-memory value is updated even when persistence fails.
func (s *Store) Save(ctx context.Context, value string) error {
	cred := domain.NewCredential(value)

	s.mu.Lock()
	s.current = cred
	s.mu.Unlock()

	if err := s.backend.Set(ctx, domain.CredentialKey, value); err != nil {
		s.logger.Error("Credential persist failed", "error", err, "credential", cred)
		return fmt.Errorf("persist credential: %w", err)
	}
	s.logger.Info("Credential saved", "credential", cred)
	return nil
}

// Current returns the in-memory credential.
func (s *Store) Current() domain.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
