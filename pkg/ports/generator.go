package ports

import (
	"context"

	"github.com/aretw0/deepstock/pkg/domain"
)

// Generator is the adapter boundary to the external text-generation capability.
type Generator interface {
	// Generate performs exactly one backend call and returns the complete response text.
	// A non-nil error is always a *domain.GenerationError.
	Generate(ctx context.Context, prompt string, credential domain.Credential) (string, error)
}

// GeneratorFunc adapts an ordinary function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, credential domain.Credential) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, credential domain.Credential) (string, error) {
	return f(ctx, prompt, credential)
}
