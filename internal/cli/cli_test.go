package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/deepstock"
	"github.com/aretw0/deepstock/internal/config"
	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/ports"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Store.Backend = backend
	cfg.Store.Path = t.TempDir()
	return cfg
}

func TestOpenStore_Backends(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendSQLite, config.BackendRedis} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			cfg.Store.Redis.Addr = mr.Addr()
			ctx := context.Background()

			store, closeFn, err := OpenStore(ctx, cfg)
			require.NoError(t, err)
			defer func() { assert.NoError(t, closeFn()) }()

			_, err = store.Get(ctx, domain.CredentialKey)
			assert.ErrorIs(t, err, domain.ErrSecretNotFound)

			require.NoError(t, store.Set(ctx, domain.CredentialKey, "sk-1"))
			got, err := store.Get(ctx, domain.CredentialKey)
			require.NoError(t, err)
			assert.Equal(t, "sk-1", got)
		})
	}
}

func TestOpenStore_SQLiteFileLocation(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)

	_, closeFn, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, closeFn())

	assert.FileExists(t, filepath.Join(cfg.Store.Path, SQLiteFile))
}

func TestOpenStore_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t, config.BackendRedis)
	cfg.Store.Redis.Addr = "127.0.0.1:1"

	_, closeFn, err := OpenStore(context.Background(), cfg)
	assert.ErrorContains(t, err, "redis unreachable")
	assert.NotNil(t, closeFn)
}

func TestOpenStore_Encryption(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	ctx := context.Background()

	store, _, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, domain.CredentialKey, "sk-plain"))

	got, err := store.Get(ctx, domain.CredentialKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-plain", got)

	cfg.Store.EncryptionKey = ""
	raw, _, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	stored, err := raw.Get(ctx, domain.CredentialKey)
	require.NoError(t, err)
	assert.NotContains(t, stored, "sk-plain")
	assert.True(t, strings.HasPrefix(stored, "enc:v1:"))
}

func TestOpenStore_BadEncryptionKey(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.Store.EncryptionKey = "not base64!"

	_, _, err := OpenStore(context.Background(), cfg)
	assert.Error(t, err)
}

func stubGenerator(text string) deepstock.Option {
	return deepstock.WithGenerator(ports.GeneratorFunc(func(ctx context.Context, prompt string, cred domain.Credential) (string, error) {
		return text, nil
	}))
}

func TestNewEngine(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	reg := prometheus.NewRegistry()

	engine, cleanup, err := NewEngine(context.Background(), cfg, EngineOptions{
		Registerer: reg,
		Extra:      []deepstock.Option{deepstock.WithFallbackCredential("k"), stubGenerator("# Memo")},
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, cleanup()) }()

	st, err := engine.Research(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseSucceeded, st.Phase)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewEngine_PromptTemplateFile(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	path := filepath.Join(t.TempDir(), "memo.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("Analyze {{SUBJECT}} briefly."), 0o600))
	cfg.PromptTemplateFile = path

	var seen string
	gen := deepstock.WithGenerator(ports.GeneratorFunc(func(ctx context.Context, prompt string, cred domain.Credential) (string, error) {
		seen = prompt
		return "ok", nil
	}))

	engine, cleanup, err := NewEngine(context.Background(), cfg, EngineOptions{
		Extra: []deepstock.Option{deepstock.WithFallbackCredential("k"), gen},
	})
	require.NoError(t, err)
	defer cleanup()

	_, err = engine.Research(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "Analyze MSFT briefly.", seen)
}

func TestNewEngine_TemplateErrors(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.PromptTemplateFile = filepath.Join(t.TempDir(), "missing.tmpl")

	_, _, err := NewEngine(context.Background(), cfg, EngineOptions{})
	assert.ErrorContains(t, err, "error reading prompt template")

	path := filepath.Join(t.TempDir(), "bad.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("no placeholder"), 0o600))
	cfg.PromptTemplateFile = path

	_, _, err = NewEngine(context.Background(), cfg, EngineOptions{})
	assert.ErrorContains(t, err, "invalid prompt template")
}

func TestHandleExecutionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"wrapped eof", fmt.Errorf("input error: %w", io.EOF), false},
		{"real failure", errors.New("boom"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleExecutionError(tt.err)
			assert.Equal(t, tt.want, err != nil)
		})
	}
}

func TestPrintSystemMessage(t *testing.T) {
	var b strings.Builder
	PrintSystemMessage(&b, "Key %s.", "saved")
	assert.Equal(t, ">>> Key saved.\n", b.String())
}

func TestSignalContext(t *testing.T) {
	sc := NewSignalContext(context.Background())
	defer sc.Cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	assert.Eventually(t, func() bool { return sc.Err() != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, syscall.SIGTERM, sc.Signal())
}

func TestSignalContext_CancelWithoutSignal(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()

	assert.ErrorIs(t, sc.Err(), context.Canceled)
	assert.Nil(t, sc.Signal())
}
