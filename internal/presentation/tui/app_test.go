package tui

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/orchestrator"
)

type fakeEngine struct {
	mu        sync.Mutex
	submitted []string
	key       string
	snap      orchestrator.Snapshot
}

func (f *fakeEngine) Submit(raw string) (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(raw) == "" {
		return 0, false
	}
	f.submitted = append(f.submitted, raw)
	return uint64(len(f.submitted)), true
}

func (f *fakeEngine) Snapshot() orchestrator.Snapshot { return f.snap }

func (f *fakeEngine) Subscribe() (<-chan domain.RequestState, func()) {
	ch := make(chan domain.RequestState)
	return ch, func() { close(ch) }
}

func (f *fakeEngine) SetCredential(ctx context.Context, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.key = value
	return nil
}

func newTestModel(t *testing.T, withKey bool) (Model, *fakeEngine) {
	t.Helper()
	engine := &fakeEngine{snap: orchestrator.Snapshot{State: domain.IdleState(), CredentialSet: withKey}}
	return NewModel(engine, make(chan domain.RequestState), nil), engine
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestModel_StartsInCredentialModeWithoutKey(t *testing.T) {
	m, _ := newTestModel(t, false)
	assert.Equal(t, modeCredential, m.mode)

	m, _ = newTestModel(t, true)
	assert.Equal(t, modeSubject, m.mode)
}

func TestModel_EnterSubmitsSubject(t *testing.T) {
	m, engine := newTestModel(t, true)
	m.subject.SetValue("AAPL")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"AAPL"}, engine.submitted)
	assert.Empty(t, m.subject.Value())
}

func TestModel_EnterIgnoresBlankSubject(t *testing.T) {
	m, engine := newTestModel(t, true)
	m.subject.SetValue("   ")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, engine.submitted)
	assert.Equal(t, "   ", m.subject.Value())
}

func TestModel_CredentialEntry(t *testing.T) {
	m, engine := newTestModel(t, false)
	m.key.SetValue("  sk-secret ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, modeSubject, m.mode)

	m, _ = update(t, m, cmd())
	assert.Equal(t, "sk-secret", engine.key)
	assert.Equal(t, "Key saved.", m.notice)
	assert.NotContains(t, m.View(), "sk-secret")
}

func TestModel_ToggleCredentialMode(t *testing.T) {
	m, _ := newTestModel(t, true)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.Equal(t, modeCredential, m.mode)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.Equal(t, modeSubject, m.mode)
}

func TestModel_StateMessages(t *testing.T) {
	m, _ := newTestModel(t, true)
	start := domain.ValidatingState(1, "r", "AAPL", time.Now())

	m, cmd := update(t, m, stateMsg(start.InFlight()))
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Researching AAPL...")

	blocks := []domain.ContentBlock{domain.Heading(1, "Apple Inc."), domain.Paragraph(domain.Text("Solid moat."))}
	m, _ = update(t, m, stateMsg(start.Succeeded("raw", blocks, time.Now())))
	view := m.View()
	assert.Contains(t, view, "Apple Inc.")
	assert.Contains(t, view, "Solid moat.")
}

func TestModel_MissingCredentialFocusesKey(t *testing.T) {
	m, _ := newTestModel(t, true)
	st := domain.ValidatingState(1, "r", "AAPL", time.Now()).Failed(domain.ErrorMissingCredential, "no API key configured", time.Now())

	m, _ = update(t, m, stateMsg(st))

	assert.Equal(t, modeCredential, m.mode)
	assert.Contains(t, m.View(), "Error (missing_credential)")
}

func TestModel_QuitKeysAndClosedStream(t *testing.T) {
	m, _ := newTestModel(t, true)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = update(t, m, streamClosedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_WindowResize(t *testing.T) {
	m, _ := newTestModel(t, true)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.True(t, m.ready)
	assert.Equal(t, 100, m.viewport.Width)
	assert.Equal(t, 32, m.viewport.Height)
}

func TestStyledText_Ascii(t *testing.T) {
	blocks := []domain.ContentBlock{
		domain.Heading(1, "Apple"),
		domain.Paragraph(domain.Strong("Buy"), domain.Text(" now")),
		domain.UnorderedList([]domain.InlineRun{domain.Text("a")}),
	}

	got := StyledText(blocks, termenv.Ascii)

	assert.Equal(t, "Apple\n\nBuy now\n\n  • a\n", got)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), `|_|`)
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer("notty", 80)
	require.NoError(t, err)

	out, err := r([]domain.ContentBlock{domain.Heading(1, "Apple"), domain.Paragraph(domain.Text("Body text."))})
	require.NoError(t, err)
	assert.Contains(t, out, "Apple")
	assert.Contains(t, out, "Body text.")
}
