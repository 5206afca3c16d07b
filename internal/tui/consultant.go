package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/screener/internal/model"
)

// ConsultFunc returns the consultant's reply to a transcript ending with a
// user message. onFragment receives streamed text as it arrives.
type ConsultFunc func(ctx context.Context, transcript []model.ConsultantMessage, onFragment func(string)) (string, error)

var (
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

type replyFragmentMsg string

type replyDoneMsg struct {
	text string
	err  error
}

type consultantModel struct {
	transcript []model.ConsultantMessage
	consult    ConsultFunc
	onMessage  func(model.ConsultantMessage)
	ref        *programRef

	viewport viewport.Model
	input    textinput.Model
	width    int
	height   int
	ready    bool

	pending string // assistant text streamed so far
	waiting bool
	errText string
}

func newConsultantModel(transcript []model.ConsultantMessage, consult ConsultFunc, onMessage func(model.ConsultantMessage), ref *programRef) consultantModel {
	ti := textinput.New()
	ti.Placeholder = "Ask for advice..."
	ti.CharLimit = 2000
	ti.Focus()

	if onMessage == nil {
		onMessage = func(model.ConsultantMessage) {}
	}
	return consultantModel{
		transcript: transcript,
		consult:    consult,
		onMessage:  onMessage,
		ref:        ref,
		input:      ti,
	}
}

func (m consultantModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m consultantModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Header (1) + border (2) + input (1) = 4 lines overhead.
		if !m.ready {
			m.viewport = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
			m.ready = true
		} else {
			m.viewport.Width = max(m.width-4, 20)
			m.viewport.Height = max(m.height-4, 5)
		}
		m.input.Width = max(m.width-4, 20)
		m.refresh()
		return m, nil

	case replyFragmentMsg:
		m.pending += string(msg)
		m.refresh()
		return m, nil

	case replyDoneMsg:
		m.waiting = false
		m.pending = ""
		if msg.err != nil {
			m.errText = msg.err.Error()
		} else {
			reply := model.ConsultantMessage{Role: model.RoleAssistant, Content: msg.text}
			m.transcript = append(m.transcript, reply)
			m.onMessage(reply)
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
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m consultantModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return m, nil
	}
	m.input.Reset()

	msg := model.ConsultantMessage{Role: model.RoleUser, Content: text}
	m.transcript = append(m.transcript, msg)
	m.onMessage(msg)
	m.waiting = true
	m.errText = ""
	m.refresh()

	return m, m.consultCmd()
}

func (m consultantModel) consultCmd() tea.Cmd {
	consult, ref := m.consult, m.ref
	transcript := append([]model.ConsultantMessage(nil), m.transcript...)
	return func() tea.Msg {
		text, err := consult(context.Background(), transcript, func(s string) {
			ref.send(replyFragmentMsg(s))
		})
		return replyDoneMsg{text: text, err: err}
	}
}

func (m *consultantModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderTranscript(m.transcript, m.pending, m.waiting, m.errText, m.viewport.Width))
	m.viewport.GotoBottom()
}

func renderTranscript(transcript []model.ConsultantMessage, pending string, waiting bool, errText string, width int) string {
	if len(transcript) == 0 && !waiting {
		return hintStyle.Render("  Ask about interview questions or how the candidates compare.")
	}

	var b strings.Builder
	for _, msg := range transcript {
		writeMessage(&b, msg.Role, msg.Content, width)
	}
	if waiting {
		if pending == "" {
			b.WriteString(assistantLabelStyle.Render("Consultant") + "\n")
			b.WriteString(hintStyle.Render("  thinking...") + "\n")
		} else {
			writeMessage(&b, model.RoleAssistant, pending, width)
		}
	}
	if errText != "" {
		b.WriteString(errorStyle.Render("⚠ "+errText) + "\n")
	}
	return b.String()
}

func writeMessage(b *strings.Builder, role model.Role, content string, width int) {
	if role == model.RoleUser {
		b.WriteString(userLabelStyle.Render("You") + "\n")
	} else {
		b.WriteString(assistantLabelStyle.Render("Consultant") + "\n")
	}
	b.WriteString(wrapParagraphs(content, max(width-2, 20)))
	b.WriteString("\n\n")
}

func (m consultantModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	header := headerStyle.Render("AI Consultant")
	if m.waiting {
		header += "  (thinking...)"
	}
	content := activeBorderStyle.Width(m.width - 2).Render(m.viewport.View())
	return header + "\n" + content + "\n" + m.input.View()
}

// RunConsultant runs the consultant chat until the user quits and returns
// the full transcript. onMessage, which may be nil, sees every message as it
// is added.
func RunConsultant(transcript []model.ConsultantMessage, consult ConsultFunc, onMessage func(model.ConsultantMessage)) ([]model.ConsultantMessage, error) {
	ref := &programRef{}
	p := tea.NewProgram(newConsultantModel(transcript, consult, onMessage, ref), tea.WithAltScreen())
	ref.p = p

	result, err := p.Run()
	if err != nil {
		return transcript, err
	}
	return result.(consultantModel).transcript, nil
}
