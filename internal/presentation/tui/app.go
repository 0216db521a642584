package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/orchestrator"
	"github.com/aretw0/deepstock/pkg/render"
)

// Engine is the orchestrator surface the TUI drives.
type Engine interface {
	Submit(raw string) (uint64, bool)
	Snapshot() orchestrator.Snapshot
	Subscribe() (<-chan domain.RequestState, func())
	SetCredential(ctx context.Context, value string) error
}

type inputMode int

const (
	modeSubject inputMode = iota
	modeCredential
)

type stateMsg domain.RequestState

type streamClosedMsg struct{}

type credentialSavedMsg struct {
	err error
}

// Model is the bubbletea model of the interactive research screen.
type Model struct {
	engine   Engine
	states   <-chan domain.RequestState
	renderer func([]domain.ContentBlock) (string, error)

	subject  textinput.Model
	key      textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	mode   inputMode
	state  domain.RequestState
	notice string
	width  int
	ready  bool
}

// NewModel builds the model. states is normally the channel from engine.Subscribe.
func NewModel(engine Engine, states <-chan domain.RequestState, renderer func([]domain.ContentBlock) (string, error)) Model {
	subject := textinput.New()
	subject.Placeholder = "Ticker or company name, e.g. AAPL"
	subject.Prompt = "› "
	subject.CharLimit = 256
	subject.Focus()

	key := textinput.New()
	key.Placeholder = "Gemini API key"
	key.Prompt = "key › "
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = statusStyle

	m := Model{
		engine:   engine,
		states:   states,
		renderer: renderer,
		subject:  subject,
		key:      key,
		spinner:  spin,
		viewport: viewport.New(80, 20),
		state:    domain.IdleState(),
	}
	if engine.Snapshot().CredentialRequired || !engine.Snapshot().CredentialSet {
		m = m.focusCredential()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForState(m.states))
}

func waitForState(states <-chan domain.RequestState) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-states
		if !ok {
			return streamClosedMsg{}
		}
		return stateMsg(st)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-8, 3)
		m.subject.Width = max(msg.Width-4, 10)
		m.key.Width = max(msg.Width-8, 10)
		m.ready = true
		m.refreshContent()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+k":
			if m.mode == modeCredential {
				return m.focusSubject(), nil
			}
			return m.focusCredential(), nil
		case "enter":
			return m.submit()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case stateMsg:
		m.state = domain.RequestState(msg)
		if m.state.Phase == domain.PhaseFailed && m.state.ErrorKind == domain.ErrorMissingCredential {
			m = m.focusCredential()
		}
		m.refreshContent()
		return m, waitForState(m.states)

	case streamClosedMsg:
		return m, tea.Quit

	case credentialSavedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Key active for this session but not saved: %v", msg.err)
		} else {
			m.notice = "Key saved."
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.mode == modeCredential {
		m.key, cmd = m.key.Update(msg)
	} else {
		m.subject, cmd = m.subject.Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.mode == modeCredential {
		value := strings.TrimSpace(m.key.Value())
		if value == "" {
			return m, nil
		}
		m.key.Reset()
		m = m.focusSubject()
		engine := m.engine
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return credentialSavedMsg{err: engine.SetCredential(ctx, value)}
		}
	}

	if _, ok := m.engine.Submit(m.subject.Value()); ok {
		m.notice = ""
		m.subject.Reset()
	}
	return m, nil
}

func (m Model) focusCredential() Model {
	m.mode = modeCredential
	m.subject.Blur()
	m.key.Focus()
	return m
}

func (m Model) focusSubject() Model {
	m.mode = modeSubject
	m.key.Blur()
	m.subject.Focus()
	return m
}

func (m *Model) refreshContent() {
	if m.state.Phase != domain.PhaseSucceeded {
		m.viewport.SetContent("")
		return
	}
	content := render.PlainText(m.state.Blocks)
	if m.renderer != nil {
		if rendered, err := m.renderer(m.state.Blocks); err == nil {
			content = rendered
		}
	}
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

func (m Model) status() string {
	switch m.state.Phase {
	case domain.PhaseValidating, domain.PhaseInFlight:
		return fmt.Sprintf("%s Researching %s...", m.spinner.View(), m.state.Subject)
	case domain.PhaseFailed:
		return errorStyle.Render(fmt.Sprintf("Error (%s): %s", m.state.ErrorKind, m.state.Message))
	case domain.PhaseSucceeded:
		return helpStyle.Render(fmt.Sprintf("%s · %s", m.state.Subject, m.state.Duration().Round(time.Millisecond)))
	}
	return helpStyle.Render("Enter a subject to start.")
}

func (m Model) View() string {
	var sections []string
	sections = append(sections, titleStyle.Render("deepstock"))

	if m.mode == modeCredential {
		sections = append(sections, panelStyle.Render(m.key.View()))
	} else {
		sections = append(sections, panelStyle.Render(m.subject.View()))
	}

	sections = append(sections, m.status())
	if m.notice != "" {
		sections = append(sections, helpStyle.Render(m.notice))
	}
	if m.state.Phase == domain.PhaseSucceeded {
		sections = append(sections, m.viewport.View())
	}
	sections = append(sections, helpStyle.Render("enter submit · ctrl+k api key · pgup/pgdown scroll · esc quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, engine Engine, renderer func([]domain.ContentBlock) (string, error)) error {
	states, cancel := engine.Subscribe()
	defer cancel()

	p := tea.NewProgram(NewModel(engine, states, renderer), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
