package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/screener/internal/model"
)

// AskFunc answers a question about one resume. onFragment receives streamed
// text as it arrives.
type AskFunc func(ctx context.Context, resume model.ResumeDocument, question string, onFragment func(string)) (string, error)

// Lines per candidate in the list view (name + subtitle + blank separator).
const candidateItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle    = lipgloss.NewStyle().Bold(true)
	itemSubtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// programRef lets commands running off the update loop send messages back
// into the program that owns them.
type programRef struct {
	p *tea.Program
}

func (r *programRef) send(msg tea.Msg) {
	if r != nil && r.p != nil {
		r.p.Send(msg)
	}
}

type answerFragmentMsg string

type answerDoneMsg struct {
	text string
	err  error
}

type resultsModel struct {
	results []model.ScoredResume
	title   string
	ask     AskFunc
	ref     *programRef

	listViewport viewport.Model
	cursor       int
	width        int
	height       int
	ready        bool

	view           viewState
	detailViewport viewport.Model
	showResume     bool

	input         textinput.Model
	inputActive   bool
	question      string
	answer        string
	answerLoading bool
	answerErr     string
}

func newResultsModel(title string, results []model.ScoredResume, ask AskFunc, ref *programRef) resultsModel {
	ti := textinput.New()
	ti.Placeholder = "Ask a question about this candidate..."
	ti.CharLimit = 500

	return resultsModel{
		results: results,
		title:   title,
		ask:     ask,
		ref:     ref,
		input:   ti,
	}
}

func (m resultsModel) Init() tea.Cmd {
	return nil
}

func (m resultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case answerFragmentMsg:
		m.answer += string(msg)
		m.refreshDetail()
		return m, nil

	case answerDoneMsg:
		m.answerLoading = false
		if msg.err != nil {
			m.answerErr = msg.err.Error()
		} else {
			m.answer = msg.text
		}
		m.refreshDetail()
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m resultsModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.results)-1, 0))
		m.listViewport.SetContent(renderCandidateList(m.results, m.cursor))
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.results)-1, 0))
		m.listViewport.SetContent(renderCandidateList(m.results, m.cursor))
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m resultsModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputActive {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.inputActive = false
			m.input.Blur()
			return m, nil
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.inputActive = false
			m.input.Blur()
			m.input.Reset()
			m.question = q
			m.answer = ""
			m.answerErr = ""
			m.answerLoading = true
			m.refreshDetail()
			return m, m.askCmd(m.results[m.cursor].Resume, q)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "r":
		m.showResume = !m.showResume
		m.refreshDetail()
		m.detailViewport.SetYOffset(0)
		return m, nil
	case "a":
		if m.ask != nil && !m.answerLoading {
			m.inputActive = true
			return m, m.input.Focus()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m resultsModel) askCmd(resume model.ResumeDocument, question string) tea.Cmd {
	ask, ref := m.ask, m.ref
	return func() tea.Msg {
		text, err := ask(context.Background(), resume, question, func(s string) {
			ref.send(answerFragmentMsg(s))
		})
		return answerDoneMsg{text: text, err: err}
	}
}

func (m resultsModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.results) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.showResume = false
	m.question = ""
	m.answer = ""
	m.answerErr = ""
	m.detailViewport = viewport.New(max(m.width-4, 20), max(m.height-5, 5))
	m.refreshDetail()
	return m, nil
}

func (m *resultsModel) recalcLayout() {
	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	w := max(m.width-4, 20)
	h := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(w, h)
		m.ready = true
	} else {
		m.listViewport.Width = w
		m.listViewport.Height = h
	}
	m.listViewport.SetContent(renderCandidateList(m.results, m.cursor))

	if m.view == viewDetail {
		m.detailViewport.Width = w
		m.detailViewport.Height = max(m.height-5, 5)
		m.refreshDetail()
	}
}

func (m *resultsModel) ensureCursorVisible() {
	vp := &m.listViewport
	top := m.cursor * candidateItemHeight
	bottom := top + candidateItemHeight - 1

	if top < vp.YOffset {
		vp.SetYOffset(top)
	} else if bottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(bottom - vp.Height + 1)
	}
}

func (m *resultsModel) refreshDetail() {
	if m.view != viewDetail || len(m.results) == 0 {
		return
	}
	m.detailViewport.SetContent(m.renderDetail())
}

func (m resultsModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}

	header := headerStyle.Render(fmt.Sprintf("%s (%d candidates)", m.title, len(m.results)))
	pane := activeBorderStyle.Width(m.listViewport.Width).Render(m.listViewport.View())
	status := statusBarStyle.Width(m.width).Render(" ↑/↓ cursor  enter detail  q quit")
	return header + "\n" + pane + "\n" + status
}

func (m resultsModel) viewDetail() string {
	r := m.results[m.cursor]
	header := headerStyle.Render(fmt.Sprintf("#%d %s", m.cursor+1, r.Result.Name))
	if m.answerLoading {
		header += "  (thinking...)"
	}

	content := activeBorderStyle.Width(m.width - 2).Render(m.detailViewport.View())

	var footer string
	if m.inputActive {
		footer = m.input.View()
	} else {
		status := " r resume text  esc back  ↑/↓ scroll  q quit"
		if m.ask != nil && !m.answerLoading {
			status = " a ask  r resume text  esc back  ↑/↓ scroll  q quit"
		}
		footer = statusBarStyle.Width(m.width).Render(status)
	}
	return header + "\n" + content + "\n" + footer
}

func (m resultsModel) renderDetail() string {
	r := m.results[m.cursor]
	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return dividerStyle.Render(label + fill)
	}

	var b strings.Builder
	b.WriteString(renderCard(m.cursor+1, r, wrapWidth))
	b.WriteString("\n")

	if m.question != "" {
		b.WriteString("\n" + divider("── Q&A ") + "\n\n")
		b.WriteString(labelStyle.Render("Q: "))
		b.WriteString(wordWrap(m.question, wrapWidth-3) + "\n\n")
		switch {
		case m.answerErr != "":
			b.WriteString(errorStyle.Render("⚠ "+m.answerErr) + "\n")
		case m.answer == "" && m.answerLoading:
			b.WriteString(hintStyle.Render("  thinking...") + "\n")
		default:
			b.WriteString(wrapParagraphs(m.answer, wrapWidth) + "\n")
		}
	} else if m.ask != nil {
		b.WriteString("\n" + hintStyle.Render("  press a to ask a question about this candidate") + "\n")
	}

	b.WriteString("\n")
	if m.showResume {
		b.WriteString(divider("── Resume: "+r.Resume.FileName+" ") + "\n\n")
		b.WriteString(wrapParagraphs(r.Resume.Text, wrapWidth) + "\n")
	} else {
		b.WriteString(hintStyle.Render("  press r to read the resume") + "\n")
	}

	return b.String()
}

func renderCandidateList(results []model.ScoredResume, cursor int) string {
	if len(results) == 0 {
		return "  (no candidates)"
	}

	var b strings.Builder
	for i, r := range results {
		titleSt, subtitleSt, prefix := itemTitleStyle, itemSubtitleStyle, "  "
		if i == cursor {
			titleSt, subtitleSt, prefix = selectedTitleStyle, selectedSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(scoreBadge(r.Result.MatchScore))
		b.WriteString(" ")
		b.WriteString(titleSt.Render(r.Result.Name))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %d skills", r.Resume.FileName, len(r.Result.ExtractedSkills))))
		b.WriteByte('\n')

		if i < len(results)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RunResultsTUI launches the interactive results browser. ask may be nil,
// which hides the question prompt.
func RunResultsTUI(title string, results []model.ScoredResume, ask AskFunc) error {
	ref := &programRef{}
	p := tea.NewProgram(newResultsModel(title, results, ask, ref), tea.WithAltScreen())
	ref.p = p
	_, err := p.Run()
	return err
}
