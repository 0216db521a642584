package runner_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/deepstock/internal/testutils"
	"github.com/aretw0/deepstock/pkg/adapters/memory"
	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/orchestrator"
	"github.com/aretw0/deepstock/pkg/ports"
	"github.com/aretw0/deepstock/pkg/runner"
)

func newEngine(t *testing.T, key string, gen ports.Generator) (*orchestrator.Orchestrator, *memory.Store) {
	t.Helper()
	return testutils.NewOrchestrator(t, key, gen)
}

var memo = testutils.StaticGenerator

func runLines(t *testing.T, engine runner.Engine, input string) string {
	t.Helper()
	var out bytes.Buffer
	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(input), &out)))
	require.NoError(t, r.Run(context.Background(), engine))
	return out.String()
}

func TestRunner_ResearchSubject(t *testing.T) {
	engine, _ := newEngine(t, "k", memo("# Apple\n- **Moat**: brand"))

	out := runLines(t, engine, "AAPL\n:quit\n")

	assert.Contains(t, out, "Researching AAPL...")
	assert.Contains(t, out, "Apple")
	assert.Contains(t, out, "Moat: brand")
	assert.Equal(t, domain.PhaseSucceeded, engine.Snapshot().State.Phase)
}

func TestRunner_MissingCredentialHint(t *testing.T) {
	engine, _ := newEngine(t, "", memo("unused"))

	out := runLines(t, engine, "AAPL\n")

	assert.Contains(t, out, "No Gemini API key configured")
	assert.Contains(t, out, "Error (missing_credential)")
	assert.Contains(t, out, "Set a key with :key <value>")
}

func TestRunner_KeyCommands(t *testing.T) {
	engine, store := newEngine(t, "", memo("ok"))

	out := runLines(t, engine, ":key   sk-test  \nAAPL\n:clear-key\n")

	assert.Contains(t, out, "[System] Key saved.")
	assert.Contains(t, out, "[System] Key cleared.")
	assert.Contains(t, out, "ok")
	assert.False(t, engine.Credential().IsSet())

	raw, err := store.Get(context.Background(), domain.CredentialKey)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestRunner_KeyUsage(t *testing.T) {
	engine, _ := newEngine(t, "k", memo("ok"))

	out := runLines(t, engine, ":key\n:bogus\n:help\n")

	assert.Contains(t, out, "Usage: :key <value>")
	assert.Contains(t, out, "Unknown command :bogus")
	assert.Contains(t, out, ":clear-key")
}

func TestRunner_StateCommand(t *testing.T) {
	engine, _ := newEngine(t, "k", memo("ok"))

	out := runLines(t, engine, ":state\n")

	assert.Contains(t, out, "No request yet.")
}

func TestRunner_QuitAliases(t *testing.T) {
	for _, word := range []string{":quit", ":q", "exit", "quit"} {
		t.Run(word, func(t *testing.T) {
			engine, _ := newEngine(t, "k", memo("ok"))
			out := runLines(t, engine, word+"\nAAPL\n")
			assert.NotContains(t, out, "Researching")
		})
	}
}

func TestRunner_BlankLinesIgnored(t *testing.T) {
	var calls int
	engine, _ := newEngine(t, "k", ports.GeneratorFunc(func(ctx context.Context, prompt string, cred domain.Credential) (string, error) {
		calls++
		return "ok", nil
	}))

	runLines(t, engine, "\n   \n\n")

	assert.Zero(t, calls)
	assert.Equal(t, domain.PhaseIdle, engine.Snapshot().State.Phase)
}

func TestRunner_FailureShown(t *testing.T) {
	engine, _ := newEngine(t, "k", testutils.FailingGenerator(domain.RejectedError(403, "API key not valid", errors.New("403"))))

	out := runLines(t, engine, "AAPL\n")

	assert.Contains(t, out, "Error (rejected_by_service): API key not valid")
}

func TestRunner_ContextCancelled(t *testing.T) {
	engine, _ := newEngine(t, "k", memo("ok"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("AAPL\n"), &out)))

	require.NoError(t, r.Run(ctx, engine))
	assert.Equal(t, domain.PhaseIdle, engine.Snapshot().State.Phase)
}

func TestRunner_JSONHandler(t *testing.T) {
	engine, _ := newEngine(t, "k", memo("# Title"))
	var out bytes.Buffer
	r := runner.NewRunner(runner.WithInputHandler(runner.NewJSONHandler(strings.NewReader(`{"subject":"AAPL"}`+"\n"), &out)))

	require.NoError(t, r.Run(context.Background(), engine))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Contains(t, lines[len(lines)-1], `"phase":"succeeded"`)
	assert.Contains(t, lines[len(lines)-1], `"subject":"AAPL"`)
}

func TestRunner_InterruptDetachesWait(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	engine, _ := newEngine(t, "k", testutils.GatedGenerator(release, "late"))

	in, feed := io.Pipe()
	t.Cleanup(func() { _ = feed.Close() })

	signals := runner.NewSignalManager(syscall.SIGUSR2)
	var out bytes.Buffer
	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(in, &out)),
		runner.WithSignalManager(signals),
	)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), engine) }()

	_, err := io.WriteString(feed, "AAPL\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return engine.Snapshot().State.Phase == domain.PhaseInFlight
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR2))

	_, err = io.WriteString(feed, ":quit\n")
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not return after :quit")
	}
	signals.Stop()

	assert.Contains(t, out.String(), "Stopped waiting")
	assert.Equal(t, domain.PhaseInFlight, engine.Snapshot().State.Phase)
}
