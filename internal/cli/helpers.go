package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/deepstock/internal/config"
	"github.com/aretw0/deepstock/internal/logging"
)

// SignalContext is a context cancelled by SIGINT or SIGTERM that remembers
// which signal arrived, so commands can log why they stopped.
type SignalContext struct {
	context.Context
	Cancel context.CancelFunc

	mu     sync.Mutex
	signal os.Signal
}

// NewSignalContext derives a SignalContext from parent. Call Cancel to release the listener.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{Context: ctx, Cancel: cancel}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			sc.mu.Lock()
			sc.signal = sig
			sc.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()
	return sc
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.signal
}

// CreateLogger configures the application logger.
// Debug forces debug level; otherwise the configured level applies.
// Logs go to Stderr to keep Stdout for memo output.
func CreateLogger(cfg *config.Config, debug bool) *slog.Logger {
	level := logging.ParseLevel(cfg.Log.Level)
	if debug {
		level = slog.LevelDebug
	}
	return logging.New(level, cfg.Log.Format)
}

// PrintSystemMessage prints a standardized system message.
func PrintSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// IsInterrupted reports whether err stems from user cancellation or end of input.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// HandleExecutionError maps interruptions to a clean exit.
func HandleExecutionError(err error) error {
	if err == nil || IsInterrupted(err) {
		return nil
	}
	return err
}
