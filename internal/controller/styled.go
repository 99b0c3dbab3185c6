package controller

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// StyledUI is a SimpleUI with coloured headings and tables sized to the terminal.
type StyledUI struct {
	*SimpleUI
}

// NewStyledUI creates a new StyledUI.
func NewStyledUI(cmd *cobra.Command) *StyledUI {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	simple := NewSimpleUI(cmd)
	simple.heading = func(s string) string { return titleStyle.Render(s) }
	simple.width = terminalWidth(cmd.OutOrStdout())

	return &StyledUI{SimpleUI: simple}
}
