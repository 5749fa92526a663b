package cmd

import (
	"context"
	"strings"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/spincoach/internal/session"
)

// repliesMsg carries the trainer's answer to one line of input.
type repliesMsg struct {
	replies []string
	err     error
}

// chatModel is the interactive play screen: a scrolling transcript above
// a single-line input. One message is in flight at a time.
type chatModel struct {
	ctx     context.Context
	trainer *session.Trainer
	userID  string

	input      textinput.Model
	transcript viewport.Model
	blocks     []string
	busy       bool
	width      int
	err        error
}

func newChatModel(ctx context.Context, trainer *session.Trainer, userID string) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ваш вопрос клиенту..."
	ti.Prompt = titleStyle.Render("> ")
	ti.CharLimit = 500
	ti.Focus()

	return chatModel{
		ctx:        ctx,
		trainer:    trainer,
		userID:     userID,
		input:      ti,
		transcript: viewport.New(viewport.WithWidth(80), viewport.WithHeight(20)),
		busy:       true,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(m.input.Focus(), m.send("/start"))
}

// send runs one trainer turn off the UI goroutine.
func (m chatModel) send(text string) tea.Cmd {
	return func() tea.Msg {
		replies, err := m.trainer.Handle(m.ctx, m.userID, text)
		return repliesMsg{replies: replies, err: err}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.transcript.SetWidth(msg.Width)
		m.transcript.SetHeight(max(msg.Height-2, 1))
		m.refresh()
		return m, nil

	case repliesMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		for _, r := range msg.replies {
			m.blocks = append(m.blocks, m.bubble(r))
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		}
		// Letters go to the input only; the transcript's keymap also binds some.
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	var inputCmd, scrollCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.transcript, scrollCmd = m.transcript.Update(msg)
	return m, tea.Batch(inputCmd, scrollCmd)
}

func (m chatModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.busy {
		return m, nil
	}
	if text == "/quit" || text == "/exit" {
		return m, tea.Quit
	}
	m.input.Reset()
	m.blocks = append(m.blocks, mutedStyle.Render("> "+text))
	m.busy = true
	m.refresh()
	return m, m.send(text)
}

func (m chatModel) bubble(text string) string {
	if m.width > 4 {
		return botStyle.Width(m.width - 2).Render(text)
	}
	return botStyle.Render(text)
}

func (m *chatModel) refresh() {
	m.transcript.SetContent(lipgloss.JoinVertical(lipgloss.Left, m.blocks...))
	m.transcript.GotoBottom()
}

func (m chatModel) View() tea.View {
	footer := m.input.View()
	if m.busy {
		footer = mutedStyle.Render("клиент печатает…")
	}
	return tea.NewView(m.transcript.View() + "\n" + rule(max(m.width, 1)) + "\n" + footer)
}
