package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type workDoneMsg struct {
	result any
	err    error
}

type spinnerTickMsg struct{}

type loaderModel struct {
	label  string
	workFn func(ctx context.Context) (any, error)
	ctx    context.Context
	cancel context.CancelFunc
	frame  int
	result any
	err    error
	done   bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doWork(), m.tick())
}

func (m loaderModel) doWork() tea.Cmd {
	workFn, ctx := m.workFn, m.ctx
	return func() tea.Msg {
		result, err := workFn(ctx)
		return workDoneMsg{result: result, err: err}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.done = true
			m.err = fmt.Errorf("cancelled: %w", context.Canceled)
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s %s...\n", spinner, m.label)
}

// RunLoader shows a spinner labelled label while fn runs. It renders inline
// (no alt screen). ctrl+c cancels the context passed to fn.
func RunLoader[T any](ctx context.Context, label string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := loaderModel{
		label: label,
		workFn: func(ctx context.Context) (any, error) {
			return fn(ctx)
		},
		ctx:    ctx,
		cancel: cancel,
	}

	var zero T
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return zero, err
	}
	final := result.(loaderModel)
	if final.err != nil {
		return zero, final.err
	}
	v, _ := final.result.(T)
	return v, nil
}
