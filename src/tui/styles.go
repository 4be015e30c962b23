package tui

import (
	"git.gdb.dev/gdb/board/src/config"
	"git.gdb.dev/gdb/board/src/gateway"
	"github.com/charmbracelet/lipgloss"
)

var (
	accent = lipgloss.Color("#" + config.Config.Board.AccentColor)
	subtle = lipgloss.Color("8")

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(subtle)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	sectionStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1).
			BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(subtle)

	// A comment being replied to gets a left bar; right after activation the
	// whole row is lit up as well.
	targetStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.ThickBorder()).BorderLeft(true).BorderForeground(accent).PaddingLeft(1)
	highlightStyle = targetStyle.Copy().Background(accent).Foreground(lipgloss.Color("15"))

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(1, 2)
)

func renderNotice(n *gateway.Notice) string {
	if n == nil {
		return ""
	}
	if n.Kind == gateway.NoticeSuccess {
		return successStyle.Render(n.Message)
	}
	return failureStyle.Render(n.Message)
}
