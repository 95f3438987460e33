package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/students/internal/form"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color("245"))
	focusStyle = labelStyle.Foreground(lipgloss.Color("212"))
	gridStyle  = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	statusStyles = map[form.Level]lipgloss.Style{
		form.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		form.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		form.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		form.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

const helpText = "ctrl+n create • ctrl+r read • ctrl+u update • ctrl+d delete • ctrl+l clear • tab focus • enter select • esc quit"

// View renders the form, the grid and the status line.
func (m Model) View() string {
	var fields strings.Builder
	for i, ti := range m.inputs {
		label := labelStyle
		if i == m.focus {
			label = focusStyle
		}
		fields.WriteString(label.Render(inputLabels[i]+":") + " " + ti.View() + "\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Student CRUD Application"),
		fields.String(),
		gridStyle.Render(m.table.View()),
		m.statusLine(),
		helpStyle.Render(helpText),
	)
}

func (m Model) statusLine() string {
	if m.busy {
		return statusStyles[form.LevelInfo].Render("Working...")
	}
	if m.notice.IsZero() {
		return ""
	}

	text := m.notice.Title + ": " + m.notice.Message
	if m.notice.Action != "" {
		text += " " + m.notice.Action + "."
	}
	if m.notice.Code != "" {
		text += fmt.Sprintf(" [%s]", m.notice.Code)
	}

	style, ok := statusStyles[m.notice.Level]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render(text)
}
