// Package ui renders days and weeks for the terminal and hosts the
// interactive punch form and week browser.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/timecalc"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// ProjectStyle colors system projects with their own color; user projects
// use the default foreground.
func ProjectStyle(project string) lipgloss.Style {
	if sp, ok := model.LookupSystemProject(project); ok {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(sp.Color))
	}
	return StyleFg
}

// Project renders a project name prefixed with its icon.
func Project(project string) string {
	return ProjectStyle(project).Render(model.Icon(project) + " " + project)
}

// Balance renders a signed balance, green when on or above target.
func Balance(balance float64) string {
	s := timecalc.FormatBalance(balance)
	if balance < 0 {
		return StyleRed.Render(s)
	}
	return StyleGreen.Render(s)
}

// Header renders a section header with an underline.
func Header(text string) string {
	line := strings.Repeat("─", lipgloss.Width(text))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(text), StyleDim.Render(line))
}

// Dim renders text in the muted color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// HuhTheme is the form theme matching the palette.
func HuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(ColorDim)

	return t
}
