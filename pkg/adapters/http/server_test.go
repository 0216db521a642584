package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/deepstock/internal/metrics"
	"github.com/aretw0/deepstock/internal/testutils"
	httpapi "github.com/aretw0/deepstock/pkg/adapters/http"
	"github.com/aretw0/deepstock/pkg/adapters/memory"
	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/orchestrator"
	"github.com/aretw0/deepstock/pkg/ports"
)

const memo = "# Apple Inc.\n## 1. Business\n- **Moat**: ecosystem"

type fixture struct {
	engine  *orchestrator.Orchestrator
	store   *memory.Store
	handler http.Handler
}

func newFixture(t *testing.T, key string, gen ports.Generator, opts ...httpapi.Option) *fixture {
	t.Helper()
	engine, store := testutils.NewOrchestrator(t, key, gen)
	return &fixture{engine: engine, store: store, handler: httpapi.NewHandler(engine, opts...)}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

var static = testutils.StaticGenerator

func gated(release <-chan struct{}) ports.Generator {
	return testutils.GatedGenerator(release, memo)
}

func TestResearch_WaitReturnsMemo(t *testing.T) {
	f := newFixture(t, "k", static(memo))

	rec := f.do(t, http.MethodPost, "/research?wait=true", `{"subject":"  AAPL "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpapi.ResearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.Ticket)
	assert.Equal(t, domain.PhaseSucceeded, resp.State.Phase)
	assert.Equal(t, domain.Subject("AAPL"), resp.State.Subject)
	require.Len(t, resp.State.Blocks, 3)
	assert.Equal(t, domain.Heading(1, "Apple Inc."), resp.State.Blocks[0])
}

func TestResearch_Accepted(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, "k", gated(release))
	defer close(release)

	rec := f.do(t, http.MethodPost, "/research", `{"subject":"AAPL"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp httpapi.ResearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.Ticket)
	assert.False(t, resp.State.Phase.IsTerminal())
}

func TestResearch_BadInput(t *testing.T) {
	f := newFixture(t, "k", static(memo))

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"subject":`},
		{"empty subject", `{"subject":""}`},
		{"whitespace subject", `{"subject":"   "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/research", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Equal(t, domain.PhaseIdle, f.engine.Snapshot().State.Phase)
}

func TestResearch_MissingCredential(t *testing.T) {
	f := newFixture(t, "", static(memo))

	rec := f.do(t, http.MethodPost, "/research?wait=true", `{"subject":"AAPL"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpapi.ResearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.PhaseFailed, resp.State.Phase)
	assert.Equal(t, domain.ErrorMissingCredential, resp.State.ErrorKind)

	var cred httpapi.CredentialResponse
	rec = f.do(t, http.MethodGet, "/credential", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cred))
	assert.True(t, cred.Required)
	assert.False(t, cred.Set)
}

func TestResearch_SupersededWaiterGetsConflict(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, "k", gated(release))
	defer close(release)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- f.do(t, http.MethodPost, "/research?wait=true", `{"subject":"AAPL"}`)
	}()

	require.Eventually(t, func() bool {
		return f.engine.Snapshot().State.Phase == domain.PhaseInFlight
	}, time.Second, 5*time.Millisecond)

	rec := f.do(t, http.MethodPost, "/research", `{"subject":"MSFT"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case res := <-first:
		assert.Equal(t, http.StatusConflict, res.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded waiter did not return")
	}
}

func TestGetReport(t *testing.T) {
	f := newFixture(t, "k", static(memo))

	rec := f.do(t, http.MethodGet, "/report", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.do(t, http.MethodPost, "/research?wait=true", `{"subject":"AAPL"}`)

	rec = f.do(t, http.MethodGet, "/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "# Apple Inc.")
	assert.Contains(t, rec.Body.String(), "**Moat**")
}

func TestGetState(t *testing.T) {
	f := newFixture(t, "k", static(memo))

	rec := f.do(t, http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap orchestrator.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, domain.PhaseIdle, snap.State.Phase)
	assert.True(t, snap.CredentialSet)
}

func TestCredentialLifecycle(t *testing.T) {
	f := newFixture(t, "", static(memo))

	rec := f.do(t, http.MethodPut, "/credential", `{"value":"  sk-abcdef123456 "}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := f.store.Get(context.Background(), domain.CredentialKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-abcdef123456", stored)

	rec = f.do(t, http.MethodGet, "/credential", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk-abcdef123456")

	var cred httpapi.CredentialResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cred))
	assert.True(t, cred.Set)
	assert.NotEmpty(t, cred.Masked)

	rec = f.do(t, http.MethodDelete, "/credential", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, f.engine.Credential().IsSet())

	rec = f.do(t, http.MethodPut, "/credential", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t, "k", static(memo))

	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "deepstock-http", info["app"])
	assert.NotEmpty(t, info["version"])
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, "k", static(memo))

	rec := f.do(t, http.MethodOptions, "/research", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	engine, _ := testutils.NewOrchestrator(t, "k", static(memo), orchestrator.WithLifecycleHooks(m.Hooks()))
	handler := httpapi.NewHandler(engine, httpapi.WithMetrics(reg))

	req := httptest.NewRequest(http.MethodPost, "/research?wait=true", strings.NewReader(`{"subject":"AAPL"}`))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deepstock_submissions_total 1")
}

func TestMetricsDisabledByDefault(t *testing.T) {
	f := newFixture(t, "k", static(memo))
	rec := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t, "k", static(memo))
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	next := func() (string, string) {
		t.Helper()
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "":
				return event, data
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
	}

	event, data := next()
	assert.Equal(t, "ping", event)
	assert.Equal(t, "connected", data)

	event, data = next()
	require.Equal(t, "state", event)
	var st domain.RequestState
	require.NoError(t, json.Unmarshal([]byte(data), &st))
	assert.Equal(t, domain.PhaseIdle, st.Phase)

	f.engine.Submit("AAPL")

	var phases []domain.Phase
	for len(phases) == 0 || !phases[len(phases)-1].IsTerminal() {
		event, data = next()
		require.Equal(t, "state", event)
		require.NoError(t, json.Unmarshal([]byte(data), &st))
		phases = append(phases, st.Phase)
	}
	assert.Equal(t, []domain.Phase{domain.PhaseValidating, domain.PhaseInFlight, domain.PhaseSucceeded}, phases)
}
