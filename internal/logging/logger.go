package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/deepstock/pkg/domain"
)

// New creates a configured application logger.
// It writes to Stderr (to separate from Stdout report output and JSON-RPC).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Standardize 'error' key to 'err'
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a config string to a level. Unknown values mean Info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Hooks logs every orchestrator lifecycle event at debug level.
func Hooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.DebugContext(ctx, "transition",
				"request_id", e.RequestID,
				"ticket", e.Ticket,
				"from", e.From,
				"to", e.To.Phase,
			)
		},
		OnGenerate: func(ctx context.Context, e *domain.GenerateEvent) {
			logger.DebugContext(ctx, "generate",
				"request_id", e.RequestID,
				"ticket", e.Ticket,
				"subject", e.Subject,
				"duration", e.Duration,
				"error_kind", e.Kind,
			)
		},
		OnDiscard: func(ctx context.Context, e *domain.DiscardEvent) {
			logger.DebugContext(ctx, "discard",
				"request_id", e.RequestID,
				"ticket", e.Ticket,
				"current_ticket", e.CurrentTicket,
			)
		},
	}
}
