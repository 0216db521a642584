// Package testutils holds fixtures shared by the package tests.
package testutils

import (
	"context"
	"testing"

	"github.com/aretw0/deepstock/pkg/adapters/memory"
	"github.com/aretw0/deepstock/pkg/credential"
	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/orchestrator"
	"github.com/aretw0/deepstock/pkg/ports"
)

// NewCredentials returns a loaded credential store over a fresh memory backend.
// key becomes the fallback value; "" leaves the credential unset.
func NewCredentials(t *testing.T, key string) (*credential.Store, *memory.Store) {
	t.Helper()
	backend := memory.NewStore()
	creds := credential.New(backend, credential.WithFallback(key))
	creds.Load(context.Background())
	return creds, backend
}

// NewOrchestrator builds an orchestrator that is closed when the test ends.
func NewOrchestrator(t *testing.T, key string, gen ports.Generator, opts ...orchestrator.Option) (*orchestrator.Orchestrator, *memory.Store) {
	t.Helper()
	creds, backend := NewCredentials(t, key)
	o := orchestrator.New(creds, gen, opts...)
	t.Cleanup(func() { _ = o.Close() })
	return o, backend
}

// StaticGenerator always answers text.
func StaticGenerator(text string) ports.Generator {
	return ports.GeneratorFunc(func(ctx context.Context, prompt string, cred domain.Credential) (string, error) {
		return text, nil
	})
}

// FailingGenerator always fails with err.
func FailingGenerator(err *domain.GenerationError) ports.Generator {
	return ports.GeneratorFunc(func(ctx context.Context, prompt string, cred domain.Credential) (string, error) {
		return "", err
	})
}

// GatedGenerator blocks every call until release is closed, then answers text.
// A cancelled request context fails the call as a transport error.
func GatedGenerator(release <-chan struct{}, text string) ports.Generator {
	return ports.GeneratorFunc(func(ctx context.Context, prompt string, cred domain.Credential) (string, error) {
		select {
		case <-release:
			return text, nil
		case <-ctx.Done():
			return "", domain.TransportError(ctx.Err())
		}
	})
}
