package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/orchestrator"
)

// Engine is the orchestrator surface the runner drives.
type Engine interface {
	Submit(raw string) (uint64, bool)
	Wait(ctx context.Context, ticket uint64) (domain.RequestState, error)
	Snapshot() orchestrator.Snapshot
	SetCredential(ctx context.Context, value string) error
}

// Runner handles the interactive loop using an IOHandler strategy.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler on Stdin/Stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Signals interrupts waits on Ctrl+C. If nil, one is created per Run.
	Signals *SignalManager
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const helpText = `Commands:
  <subject>      research a ticker or company name
  :key <value>   store a new Gemini API key
  :clear-key     clear the stored key
  :state         show the current request
  :quit          exit`

// Run reads lines until EOF, :quit, ctx cancellation or an interrupt at the prompt.
func (r *Runner) Run(ctx context.Context, engine Engine) error {
	handler := r.resolveHandler()

	signals := r.Signals
	if signals == nil {
		signals = NewSignalManager()
		defer signals.Stop()
	}

	if !engine.Snapshot().CredentialSet {
		_ = handler.SystemOutput(ctx, "No Gemini API key configured. Set one with :key <value>.")
	}

	for {
		inputCtx, cancel := mergeContexts(ctx, signals.Context())
		line, err := handler.Input(inputCtx)
		cancel()

		if err != nil {
			signals.CheckRace()
			if ctx.Err() != nil || signals.Interrupted() {
				r.Logger.Debug("Runner input: interrupted")
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		quit, err := r.dispatch(ctx, engine, handler, signals, line)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, engine Engine, handler IOHandler, signals *SignalManager, line string) (bool, error) {
	line = strings.TrimSpace(line)
	cmd, arg, _ := strings.Cut(line, " ")

	switch cmd {
	case "":
		return false, nil
	case ":quit", ":q", "exit", "quit":
		return true, nil
	case ":help":
		return false, handler.SystemOutput(ctx, helpText)
	case ":state":
		return false, handler.Output(ctx, engine.Snapshot().State)
	case ":key":
		value := strings.TrimSpace(arg)
		if value == "" {
			return false, handler.SystemOutput(ctx, "Usage: :key <value>")
		}
		if err := engine.SetCredential(ctx, value); err != nil {
			return false, handler.SystemOutput(ctx, fmt.Sprintf("Key active for this session but not saved: %v", err))
		}
		return false, handler.SystemOutput(ctx, "Key saved.")
	case ":clear-key":
		if err := engine.SetCredential(ctx, ""); err != nil {
			return false, handler.SystemOutput(ctx, fmt.Sprintf("Key cleared for this session but not saved: %v", err))
		}
		return false, handler.SystemOutput(ctx, "Key cleared.")
	}

	if strings.HasPrefix(cmd, ":") {
		return false, handler.SystemOutput(ctx, fmt.Sprintf("Unknown command %s. Type :help.", cmd))
	}

	return false, r.research(ctx, engine, handler, signals, line)
}

func (r *Runner) research(ctx context.Context, engine Engine, handler IOHandler, signals *SignalManager, subject string) error {
	ticket, ok := engine.Submit(subject)
	if !ok {
		return nil
	}
	if err := handler.Output(ctx, engine.Snapshot().State); err != nil {
		return fmt.Errorf("output error: %w", err)
	}

	waitCtx, cancel := mergeContexts(ctx, signals.Context())
	st, err := engine.Wait(waitCtx, ticket)
	cancel()

	switch {
	case err == nil:
	case signals.Interrupted():
		signals.Reset()
		return handler.SystemOutput(ctx, "Stopped waiting. The request continues in the background until you submit another subject.")
	case ctx.Err() != nil:
		return nil
	default:
		return handler.SystemOutput(ctx, fmt.Sprintf("Request ended: %v", err))
	}

	if err := handler.Output(ctx, st); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	if st.ErrorKind == domain.ErrorMissingCredential {
		return handler.SystemOutput(ctx, "Set a key with :key <value> and submit again.")
	}
	return nil
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		// Memoize to prevent creating new pumps on subsequent Run() calls
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r.Handler
}

// mergeContexts returns a context cancelled when either parent is done.
func mergeContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
