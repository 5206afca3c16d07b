package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/screener/internal/model"
)

var (
	scoreHighStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42"))
	scoreMidStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214"))
	scoreLowStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	nameStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	fileStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	skillStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
)

// scoreStyle picks the badge style: green from 8, yellow from 5, red below.
func scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 8:
		return scoreHighStyle
	case score >= 5:
		return scoreMidStyle
	}
	return scoreLowStyle
}

// scoreBadge renders a match score, right-aligned so 9 and 10 line up.
func scoreBadge(score int) string {
	return scoreStyle(score).Render(fmt.Sprintf(" %2d/10 ", score))
}

// RenderCandidates renders results as a column of cards, in the given order.
func RenderCandidates(results []model.ScoredResume, width int) string {
	if len(results) == 0 {
		return "No candidates were scored.\n"
	}
	width = max(width, 40)
	inner := width - 4

	cards := make([]string, 0, len(results))
	for i, r := range results {
		cards = append(cards, cardStyle.Width(width-2).Render(renderCard(i+1, r, inner)))
	}
	return strings.Join(cards, "\n") + "\n"
}

func renderCard(rank int, r model.ScoredResume, width int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("#%d ", rank))
	b.WriteString(scoreBadge(r.Result.MatchScore))
	b.WriteString(" ")
	b.WriteString(nameStyle.Render(r.Result.Name))
	if r.Resume.FileName != "" {
		b.WriteString(fileStyle.Render("  " + r.Resume.FileName))
	}
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Justification"))
	b.WriteString("\n")
	b.WriteString(wordWrap(r.Result.Justification, width))
	b.WriteString("\n\n")

	if len(r.Result.ExtractedSkills) > 0 {
		b.WriteString(labelStyle.Render("Skills"))
		b.WriteString("\n")
		b.WriteString(skillStyle.Render(wordWrap(strings.Join(r.Result.ExtractedSkills, " · "), width)))
		b.WriteString("\n\n")
	}

	b.WriteString(labelStyle.Render("Experience"))
	b.WriteString("\n")
	b.WriteString(wordWrap(r.Result.ExtractedExperienceSummary, width))
	return b.String()
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

// wrapParagraphs word-wraps each line of text on its own, keeping blank lines.
func wrapParagraphs(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		out = append(out, wordWrap(para, width))
	}
	return strings.Join(out, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
