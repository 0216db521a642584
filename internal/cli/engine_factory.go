package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/deepstock"
	"github.com/aretw0/deepstock/internal/config"
	"github.com/aretw0/deepstock/internal/logging"
	"github.com/aretw0/deepstock/internal/metrics"
	"github.com/aretw0/deepstock/pkg/domain"
)

// EngineOptions carries the per-command overrides on top of the loaded config.
type EngineOptions struct {
	Logger *slog.Logger

	// Registerer receives the deepstock metrics. Nil disables metrics.
	Registerer prometheus.Registerer

	// Extra options appended last, mainly for tests.
	Extra []deepstock.Option
}

// NewEngine initializes a deepstock engine with standard CLI conventions:
// configured store backend, optional encryption, debug hooks and metrics.
// The returned cleanup closes the engine before the store.
func NewEngine(ctx context.Context, cfg *config.Config, opts EngineOptions) (*deepstock.Engine, func() error, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening secret store: %w", err)
	}

	hooks := []domain.LifecycleHooks{logging.Hooks(logger)}
	if opts.Registerer != nil {
		m := metrics.New(opts.Registerer)
		hooks = append(hooks, m.Hooks())
	}

	engineOpts := []deepstock.Option{
		deepstock.WithLogger(logger),
		deepstock.WithLifecycleHooks(domain.ChainHooks(hooks...)),
		deepstock.WithModel(cfg.Model),
		deepstock.WithRequestTimeout(cfg.RequestTimeout),
	}

	if cfg.PromptTemplateFile != "" {
		tmpl, err := os.ReadFile(cfg.PromptTemplateFile)
		if err != nil {
			_ = closeStore()
			return nil, nil, fmt.Errorf("error reading prompt template: %w", err)
		}
		engineOpts = append(engineOpts, deepstock.WithPromptTemplate(string(tmpl)))
	}

	engineOpts = append(engineOpts, opts.Extra...)

	engine, err := deepstock.New(ctx, store, engineOpts...)
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}

	logger.Debug("Engine ready",
		"store", cfg.Store.Backend,
		"model", cfg.Model,
		"credential_set", engine.Credential().IsSet(),
	)

	cleanup := func() error {
		return errors.Join(engine.Close(), closeStore())
	}
	return engine, cleanup, nil
}
