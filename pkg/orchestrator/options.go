package orchestrator

import (
	"log/slog"
	"time"

	"github.com/aretw0/deepstock/pkg/domain"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPromptBuilder replaces the built-in memo prompt.
func WithPromptBuilder(b PromptBuilder) Option {
	return func(o *Orchestrator) {
		o.prompts = b
	}
}

// WithRenderer replaces the function that turns generated text into blocks.
func WithRenderer(fn func(string) []domain.ContentBlock) Option {
	return func(o *Orchestrator) {
		o.render = fn
	}
}

// WithLifecycleHooks registers observability hooks.
// Hooks run synchronously on the goroutine that caused the event and must not call back into the Orchestrator's mutating methods.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithRequestTimeout bounds each generator call. Zero means no bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithSubscriberBuffer sets the channel capacity handed out by Subscribe.
func WithSubscriberBuffer(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.subBuffer = n
		}
	}
}
