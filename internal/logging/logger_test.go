package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/deepstock/pkg/domain"
)

func TestNewWithWriter_JSONRenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")
	logger.Error("failed", "error", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["err"])
	assert.NotContains(t, entry, "error")
}

func TestNewWithWriter_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelWarn, "text")
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestHooks_LogTransitions(t *testing.T) {
	var buf bytes.Buffer
	hooks := Hooks(NewWithWriter(&buf, slog.LevelDebug, "text"))

	hooks.OnTransition(context.Background(), &domain.TransitionEvent{
		EventBase: domain.EventBase{RequestID: "r-1", Ticket: 3},
		From:      domain.PhaseValidating,
		To:        domain.RequestState{Phase: domain.PhaseInFlight},
	})

	assert.Contains(t, buf.String(), "request_id=r-1")
	assert.Contains(t, buf.String(), "to=in_flight")
}
