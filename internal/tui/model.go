package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"faqbot/internal/chat"
	"faqbot/internal/domain"
	"faqbot/internal/session"
)

// Explainer is implemented by responders that can report which question a
// reply came from.
type Explainer interface {
	Answer(query string) (domain.Answer, error)
}

// Model is the Bubble Tea model for the chat transcript.
type Model struct {
	ctx       context.Context
	responder domain.Responder
	session   *session.Session
	logger    *zap.Logger
	input     textinput.Model
	viewport  viewport.Model
	title     string
	tagline   string
	status    string
	ready     bool

	stream  <-chan domain.Fragment
	turn    *chat.Turn
	pending string
	query   string
}

type fragmentMsg struct{ fragment domain.Fragment }

type streamDoneMsg struct{}

// New creates a new TUI model instance bound to one session.
func New(ctx context.Context, responder domain.Responder, sess *session.Session, title, tagline string, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What is your question?"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:       ctx,
		responder: responder,
		session:   sess,
		logger:    logger,
		input:     ti,
		viewport:  vp,
		title:     title,
		tagline:   tagline,
		status:    "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Streaming reports whether a reply is still being received.
func (m Model) Streaming() bool { return m.turn != nil }

// Update handles key, window and stream events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around transcript and input boxes
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header + tagline, status, input box, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.refresh()
		return m, nil
	case fragmentMsg:
		if m.turn == nil {
			return m, nil
		}
		m.pending = m.turn.Apply(msg.fragment)
		m.refresh()
		return m, waitForFragment(m.stream)
	case streamDoneMsg:
		m.finishTurn()
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.turn != nil {
				return m, nil
			}
			m.input.SetValue("")
			return m, m.startTurn(q)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) startTurn(q string) tea.Cmd {
	history := m.session.All()
	m.session.Append(domain.ChatMessage{Role: domain.RoleUser, Content: q})
	m.turn = &chat.Turn{}
	m.pending = ""
	m.query = q
	m.status = "Thinking..."
	m.stream = m.responder.Respond(m.ctx, history, q)
	m.refresh()
	return waitForFragment(m.stream)
}

func (m *Model) finishTurn() {
	if m.turn == nil {
		return
	}
	m.turn.Settle(m.ctx)
	reply := m.turn.Result()
	if err := m.turn.Err(); err != nil {
		m.logger.Warn("reply replaced by fallback", zap.String("session", m.session.ID()), zap.Error(err))
	}
	m.session.Append(domain.ChatMessage{Role: domain.RoleAssistant, Content: reply})
	m.status = "Ready."
	if ex, ok := m.responder.(Explainer); ok {
		if ans, err := ex.Answer(m.query); err == nil && !ans.Fallback {
			m.status = fmt.Sprintf("Matched %q (%.2f)", ans.Question, ans.Confidence)
		}
	}
	m.turn = nil
	m.stream = nil
	m.pending = ""
}

func waitForFragment(ch <-chan domain.Fragment) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return streamDoneMsg{}
		}
		return fragmentMsg{fragment: f}
	}
}

// View renders the header, transcript, input box and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(m.title)
	tagline := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.tagline)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + tagline + "\n" + transcript + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	msgs := m.session.All()
	if len(msgs) == 0 && m.turn == nil {
		return "No messages yet."
	}
	width := m.viewport.Width - 2
	if width < 10 {
		width = 10
	}
	body := lipgloss.NewStyle().Width(width)
	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(renderMessage(msg.Role, msg.Content, body))
	}
	if m.turn != nil {
		text := m.pending
		if text == "" {
			text = "…"
		}
		b.WriteString(renderMessage(domain.RoleAssistant, text, body))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderMessage(role, content string, body lipgloss.Style) string {
	label := userLabelStyle.Render("You")
	if role == domain.RoleAssistant {
		label = botLabelStyle.Render("Bot")
	}
	return label + "\n" + body.Render(content) + "\n\n"
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userLabelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
