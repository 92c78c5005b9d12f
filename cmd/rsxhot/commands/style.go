package commands

import (
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleLabel  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleOK     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	styleError  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	styleInsert = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleDelete = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Strikethrough(true)
)

var titleCaser = cases.Title(language.English)

func label(s string) string {
	return styleLabel.Render(titleCaser.String(s) + ":")
}
