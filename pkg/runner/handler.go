package runner

import (
	"context"

	"github.com/aretw0/deepstock/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI) and JSON (Structured) modes.
type IOHandler interface {
	// Input reads the next line from the user.
	Input(ctx context.Context) (string, error)

	// Output presents a request state.
	Output(ctx context.Context, state domain.RequestState) error

	// SystemOutput presents a meta-message (command feedback, hints).
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms memo blocks into display text.
// This allows terminal styling without coupling the runner to a presentation library.
type ContentRenderer func([]domain.ContentBlock) (string, error)
