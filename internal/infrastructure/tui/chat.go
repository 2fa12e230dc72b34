// Package tui provides the terminal chat front end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
)

// Session is the chat behaviour the view drives.
type Session interface {
	Submit(ctx context.Context, text string) (*entities.ChatResult, error)
	Transcript() *entities.Transcript
}

// answerMsg carries the outcome of one submission.
type answerMsg struct {
	result *entities.ChatResult
	err    error
}

// Styles for transcript rendering.
type Styles struct {
	Title  lipgloss.Style
	User   lipgloss.Style
	System lipgloss.Style
	Error  lipgloss.Style
	Help   lipgloss.Style
}

// DefaultStyles returns the default colour scheme.
func DefaultStyles() *Styles {
	return &Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		User:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		System: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Help:   lipgloss.NewStyle().Faint(true),
	}
}

// Model is the bubbletea model for a chat session.
type Model struct {
	session  Session
	ctx      context.Context
	styles   *Styles
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	waiting bool
	lastErr error
	width   int
	height  int
}

// NewModel creates a chat model bound to session.
func NewModel(ctx context.Context, session Session) *Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a question..."
	ti.CharLimit = 2000
	ti.Prompt = "> "
	ti.Focus()

	m := &Model{
		session:  session,
		ctx:      ctx,
		styles:   DefaultStyles(),
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:    80,
		height:   24,
	}
	m.refresh()
	return m
}

// Init starts the cursor blinking.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case answerMsg:
		m.waiting = false
		m.lastErr = msg.err
		m.input.Focus()
		m.refresh()
		return m, nil
	}

	if m.waiting {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the current input. Blank input and input while a request is
// in flight are ignored.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if m.waiting || text == "" {
		return m, nil
	}

	m.waiting = true
	m.lastErr = nil
	m.input.Reset()
	m.input.Blur()

	session, ctx := m.session, m.ctx
	send := func() tea.Msg {
		result, err := session.Submit(ctx, text)
		return answerMsg{result: result, err: err}
	}

	// Spinner ticks re-render the transcript, so the question and the
	// placeholder show up as soon as Submit appends them.
	return m, tea.Batch(send, m.spinner.Tick)
}

// Waiting reports whether a submission is in flight.
func (m *Model) Waiting() bool { return m.waiting }

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	entries := m.session.Transcript().Entries()
	if len(entries) == 0 {
		return m.styles.Help.Render("No messages yet.")
	}

	var sb strings.Builder
	for _, e := range entries {
		switch e.Author {
		case entities.AuthorUser:
			sb.WriteString(m.styles.User.Render("you: "))
			sb.WriteString(e.Text)
		default:
			sb.WriteString(m.styles.System.Render("kb:  " + e.Text))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// View renders the model.
func (m *Model) View() string {
	status := "enter: send  pgup/pgdn: scroll  esc: quit"
	if m.waiting {
		status = m.spinner.View() + " waiting for answer..."
	}
	if m.lastErr != nil {
		status = m.styles.Error.Render(fmt.Sprintf("error: %v", m.lastErr))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Title.Render("kbchat"),
		m.viewport.View(),
		m.input.View(),
		m.styles.Help.Render(status),
	)
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, session Session) error {
	p := tea.NewProgram(NewModel(ctx, session), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
