package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/advocai-go/internal/models"
	"github.com/raphaelgruber/advocai-go/internal/ui"
)

// chatBackend is what the chat screen drives: the generation view or the
// analyzer view.
type chatBackend struct {
	title string
	// intro is shown above the transcript, e.g. the document summary.
	intro string
	send  func(ctx context.Context, text string) error
	turns func() []models.Turn
	// download saves the current document; nil when the screen has none.
	download func(ctx context.Context) (string, error)
}

// sentMsg reports the end of a send.
type sentMsg struct {
	err error
}

// downloadedMsg reports the end of a download.
type downloadedMsg struct {
	path string
	err  error
}

// chatModel is the bubbletea model for an interactive chat.
type chatModel struct {
	ctx      context.Context
	backend  chatBackend
	notices  *ui.Recorder
	input    textinput.Model
	theme    Theme
	width    int
	pending  bool
	quitting bool
}

// newChatModel creates a chat model. notices must be the recorder the
// backend's view notifies into.
func newChatModel(ctx context.Context, backend chatBackend, notices *ui.Recorder) chatModel {
	input := textinput.New()
	input.Placeholder = "Type a message, /pdf to download, /quit to exit"
	input.CharLimit = 4000
	input.Focus()

	return chatModel{
		ctx:     ctx,
		backend: backend,
		notices: notices,
		input:   input,
		theme:   defaultTheme,
		width:   80,
	}
}

// Init returns the initial command.
func (m chatModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			text := m.input.Value()
			m.input.SetValue("")
			return m.submit(text)
		}

	case sentMsg, downloadedMsg:
		// The view has already reported the outcome as a notice.
		m.pending = false
		return m, m.input.Focus()
	}

	if m.pending {
		// Input is disabled while a request is in flight.
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles an entered line: a command or a message to send.
func (m chatModel) submit(text string) (chatModel, tea.Cmd) {
	text = strings.TrimSpace(text)
	if m.pending || text == "" {
		return m, nil
	}

	switch text {
	case "/quit", "/exit":
		m.quitting = true
		return m, tea.Quit
	case "/pdf":
		if m.backend.download == nil {
			m.notices.Notify(ui.Info("Nothing to download here."))
			return m, nil
		}
		m.pending = true
		m.input.Blur()
		download, ctx := m.backend.download, m.ctx
		return m, func() tea.Msg {
			path, err := download(ctx)
			return downloadedMsg{path: path, err: err}
		}
	}

	m.pending = true
	m.input.Blur()
	send, ctx := m.backend.send, m.ctx
	return m, func() tea.Msg {
		return sentMsg{err: send(ctx, text)}
	}
}

// View renders the chat.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m chatModel) renderContent() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.successStyle().Render(m.backend.title) + "\n")
	if m.backend.intro != "" {
		b.WriteString(m.theme.documentStyle().Width(m.textWidth()).Render(m.backend.intro) + "\n")
	}
	b.WriteString("\n")

	for _, t := range m.backend.turns() {
		b.WriteString(m.renderTurn(t))
		b.WriteString("\n")
	}

	if m.pending {
		b.WriteString(m.theme.hintStyle().Render("AdvocAI is thinking...") + "\n")
	}
	if n, ok := m.notices.Last(); ok {
		b.WriteString(m.theme.noticeLine(n) + "\n")
	}
	b.WriteString("\n" + m.input.View() + "\n")
	b.WriteString(m.theme.hintStyle().Render("enter send · /pdf download · /quit exit") + "\n")
	return b.String()
}

func (m chatModel) renderTurn(t models.Turn) string {
	label := m.theme.senderStyle(t.FromUser()).Render(t.Sender.Label() + ":")
	switch t.Kind {
	case models.KindDocument:
		doc := m.theme.documentStyle().Width(m.textWidth()).Render(t.Text)
		return fmt.Sprintf("%s generated a document\n%s\n%s\n", label, doc,
			m.theme.hintStyle().Render("Type /pdf to download it."))
	case models.KindApology:
		return fmt.Sprintf("%s %s\n", label, m.theme.errorStyle().Render(t.Text))
	default:
		body := lipgloss.NewStyle().Width(m.textWidth()).Render(t.Text)
		return fmt.Sprintf("%s %s\n", label, body)
	}
}

func (m chatModel) textWidth() int {
	if m.width <= 10 {
		return 70
	}
	return m.width - 4
}

// runChat runs the interactive chat until the user quits.
func runChat(ctx context.Context, backend chatBackend, notices *ui.Recorder) error {
	p := tea.NewProgram(newChatModel(ctx, backend, notices))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
