// Package tui is the interactive terminal client for a debate session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate"
	"github.com/lorenzotomasdiez/debate-coach/internal/debate/persona"
	"github.com/lorenzotomasdiez/debate-coach/internal/debate/reply"
)

const (
	argumentPlaceholder = "Type your argument and press enter"
	topicPlaceholder    = "New debate topic"
	helpLine            = "enter send • tab mode • ctrl+t topic • ctrl+v voice • ctrl+x cancel • esc quit"
)

// Session is the engine surface the TUI drives.
type Session interface {
	Submit(ctx context.Context, text string) (<-chan debate.Turn, error)
	Cancel() bool
	SetTopic(topic string)
	SetMode(mode persona.Mode) error
	SetVoice(on bool)
	Snapshot() debate.Snapshot
	AverageScore() float64
}

// replyMsg carries the channel it was read from so a reply to a cancelled
// submission cannot settle a newer one.
type replyMsg struct {
	ch   <-chan debate.Turn
	turn debate.Turn
	ok   bool
}

// Model is the bubbletea model for one session.
type Model struct {
	ctx     context.Context
	session Session

	input      textinput.Model
	transcript viewport.Model
	spinner    spinner.Model
	theme      theme

	width  int
	height int

	waiting      bool
	pending      <-chan debate.Turn
	editingTopic bool
	draft        string
	notice       string
}

// New creates the model. ctx bounds every submitted turn.
func New(ctx context.Context, session Session) Model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 2000
	input.Placeholder = argumentPlaceholder
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	transcript := viewport.New(80, 20)
	transcript.MouseWheelEnabled = true

	m := Model{
		ctx:        ctx,
		session:    session,
		input:      input,
		transcript: transcript,
		spinner:    sp,
		theme:      newTheme(),
		width:      80,
		height:     24,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func waitForReply(ch <-chan debate.Turn) tea.Cmd {
	return func() tea.Msg {
		turn, ok := <-ch
		return replyMsg{ch: ch, turn: turn, ok: ok}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case replyMsg:
		if msg.ch != m.pending {
			return m, nil
		}
		m.waiting = false
		m.pending = nil
		if !msg.ok {
			m.notice = "reply cancelled"
		} else {
			m.notice = ""
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.session.Cancel()
		return m, tea.Quit

	case "esc":
		if m.editingTopic {
			m.endTopicEdit()
			return m, nil
		}
		m.session.Cancel()
		return m, tea.Quit

	case "enter":
		if m.editingTopic {
			if topic := strings.TrimSpace(m.input.Value()); topic != "" {
				m.session.SetTopic(topic)
				m.notice = "topic changed"
			}
			m.endTopicEdit()
			return m, nil
		}
		return m.submit()

	case "tab":
		if m.editingTopic {
			return m, nil
		}
		next := m.session.Snapshot().Mode.Next()
		if err := m.session.SetMode(next); err != nil {
			m.notice = err.Error()
		} else {
			m.notice = "mode: " + next.String()
		}
		m.refresh()
		return m, nil

	case "ctrl+t":
		if !m.editingTopic {
			m.editingTopic = true
			m.draft = m.input.Value()
			m.input.Placeholder = topicPlaceholder
			m.input.SetValue(m.session.Snapshot().Topic)
			m.input.CursorEnd()
		}
		return m, nil

	case "ctrl+v":
		on := !m.session.Snapshot().Voice
		m.session.SetVoice(on)
		m.notice = "voice " + onOff(on)
		m.refresh()
		return m, nil

	case "ctrl+x":
		if m.session.Cancel() {
			m.notice = "reply cancelled"
		}
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	ch, err := m.session.Submit(m.ctx, m.input.Value())
	switch {
	case errors.Is(err, debate.ErrBlankInput):
		m.notice = "enter an argument first"
		return m, nil
	case errors.Is(err, debate.ErrBusy):
		m.notice = "still waiting for the last reply"
		return m, nil
	case err != nil:
		m.notice = err.Error()
		return m, nil
	}

	m.input.Reset()
	m.notice = ""
	m.waiting = true
	m.pending = ch
	m.refresh()
	return m, tea.Batch(waitForReply(ch), m.spinner.Tick)
}

func (m *Model) endTopicEdit() {
	m.editingTopic = false
	m.input.Placeholder = argumentPlaceholder
	m.input.SetValue(m.draft)
	m.input.CursorEnd()
	m.draft = ""
	m.refresh()
}

func (m *Model) layout() {
	m.input.Width = max(m.width-4, 10)
	m.transcript.Width = m.width
	m.transcript.Height = max(m.height-lipgloss.Height(m.headerView())-lipgloss.Height(m.footerView()), 3)
	m.refresh()
}

// refresh re-renders the transcript and keeps the newest turn in view.
func (m *Model) refresh() {
	snap := m.session.Snapshot()
	var sb strings.Builder
	for i, turn := range snap.Turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.renderTurn(turn, snap.Mode))
	}
	m.transcript.SetContent(lipgloss.NewStyle().Width(max(m.width-2, 10)).Render(sb.String()))
	m.transcript.GotoBottom()
}

func (m Model) renderTurn(turn debate.Turn, mode persona.Mode) string {
	switch turn.Role {
	case debate.RoleUser:
		return m.theme.user.Render("You: ") + turn.Text
	case debate.RoleAssistant:
		if turn.Text == debate.FailureMessage {
			return m.theme.failure.Render(turn.Text)
		}
		text := m.theme.assistant.Render(mode.String()+": ") + turn.Text
		if score := reply.ExtractScore(turn.Text); score != nil {
			text += "\n" + m.theme.score.Render(fmt.Sprintf("  scored %g/10", *score))
		}
		return text
	default:
		return m.theme.system.Render(turn.Text)
	}
}

func (m Model) headerView() string {
	snap := m.session.Snapshot()
	title := m.theme.title.Render("Debate: " + snap.Topic)
	info := m.theme.muted.Render(fmt.Sprintf("Mode: %s  Voice: %s  ", snap.Mode, onOff(snap.Voice))) +
		m.theme.score.Render(fmt.Sprintf("Average Score: %.1f/10", m.session.AverageScore()))
	return m.theme.header.Render(title + "\n" + info)
}

func (m Model) footerView() string {
	status := m.theme.muted.Render(helpLine)
	switch {
	case m.waiting:
		status = m.spinner.View() + " thinking…"
	case m.notice != "":
		status = m.theme.notice.Render(m.notice)
	}
	label := ""
	if m.editingTopic {
		label = m.theme.muted.Render("editing topic (enter to save, esc to keep)") + "\n"
	}
	return m.theme.input.Render(label+m.input.View()) + "\n" + status
}

func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.transcript.View(),
		m.footerView(),
	)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
