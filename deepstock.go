package deepstock

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/deepstock/pkg/credential"
	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/generation"
	"github.com/aretw0/deepstock/pkg/orchestrator"
	"github.com/aretw0/deepstock/pkg/ports"
	"github.com/aretw0/deepstock/pkg/prompt"
)

// Engine is the high-level entry point for the deepstock library.
// It wires the credential store, the prompt builder and the generator into an orchestrator.
type Engine struct {
	*orchestrator.Orchestrator

	credentials *credential.Store
	generator   ports.Generator
	gemini      *generation.Client

	hooks          domain.LifecycleHooks
	logger         *slog.Logger
	model          string
	baseURL        string
	template       string
	fallback       *string
	requestTimeout time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithGenerator injects a custom Generator, bypassing the default Gemini client.
func WithGenerator(g ports.Generator) Option {
	return func(e *Engine) {
		e.generator = g
	}
}

// WithModel selects the Gemini model (default: gemini-1.5-pro).
func WithModel(model string) Option {
	return func(e *Engine) {
		e.model = model
	}
}

// WithBaseURL points the Gemini client at an alternative endpoint.
func WithBaseURL(url string) Option {
	return func(e *Engine) {
		e.baseURL = url
	}
}

// WithPromptTemplate replaces the built-in memo template.
// The template must contain at least one {{SUBJECT}} placeholder.
func WithPromptTemplate(template string) Option {
	return func(e *Engine) {
		e.template = template
	}
}

// WithFallbackCredential overrides the fallback resolved from the build and environment.
func WithFallbackCredential(value string) Option {
	return func(e *Engine) {
		e.fallback = &value
	}
}

// WithRequestTimeout bounds each generator call.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.requestTimeout = d
	}
}

// New initializes a new Engine over the given secret store and loads the credential.
func New(ctx context.Context, store ports.SecretStore, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("secret store is required")
	}

	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized so components never receive nil.
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	builder := prompt.Default()
	if eng.template != "" {
		b, err := prompt.New(eng.template)
		if err != nil {
			return nil, fmt.Errorf("invalid prompt template: %w", err)
		}
		builder = b
	}

	fallback := credential.ResolveFallback()
	if eng.fallback != nil {
		fallback = *eng.fallback
	}
	eng.credentials = credential.New(store,
		credential.WithFallback(fallback),
		credential.WithLogger(eng.logger.With("component", "credential")),
	)
	eng.credentials.Load(ctx)

	if eng.generator == nil {
		eng.gemini = generation.New(
			generation.WithModel(eng.model),
			generation.WithBaseURL(eng.baseURL),
			generation.WithLogger(eng.logger.With("component", "generation")),
		)
		eng.generator = eng.gemini
	}

	eng.Orchestrator = orchestrator.New(eng.credentials, eng.generator,
		orchestrator.WithPromptBuilder(builder),
		orchestrator.WithLifecycleHooks(eng.hooks),
		orchestrator.WithLogger(eng.logger.With("component", "orchestrator")),
		orchestrator.WithRequestTimeout(eng.requestTimeout),
	)

	return eng, nil
}

// Research submits subject and blocks until its memo is ready.
// A failed request is returned as a *domain.GenerationError.
func (e *Engine) Research(ctx context.Context, subject string) (domain.RequestState, error) {
	ticket, ok := e.Submit(subject)
	if !ok {
		return domain.RequestState{}, domain.ErrEmptySubject
	}
	st, err := e.Wait(ctx, ticket)
	if err != nil {
		return st, err
	}
	if st.Phase == domain.PhaseFailed {
		return st, &domain.GenerationError{Kind: st.ErrorKind, Message: st.Message}
	}
	return st, nil
}

// Credentials returns the credential store backing the engine.
func (e *Engine) Credentials() *credential.Store {
	return e.credentials
}

// Gemini returns the Gemini client, or nil if a custom generator was injected.
func (e *Engine) Gemini() *generation.Client {
	return e.gemini
}
