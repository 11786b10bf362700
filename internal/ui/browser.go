package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tiliavir/project-time/internal/model"
)

// KeyMap holds the week browser bindings.
type KeyMap struct {
	Older  key.Binding
	Newer  key.Binding
	Newest key.Binding
	Oldest key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default browser bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Older:  key.NewBinding(key.WithKeys("left", "h", "pgdown"), key.WithHelp("←/h", "older")),
		Newer:  key.NewBinding(key.WithKeys("right", "l", "pgup"), key.WithHelp("→/l", "newer")),
		Newest: key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "this week")),
		Oldest: key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "first week")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Older, k.Newer, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Older, k.Newer},
		{k.Newest, k.Oldest},
		{k.Help, k.Quit},
	}
}

// Browser pages through weeks, most recent first.
type Browser struct {
	weeks    []model.WorkWeek
	total    float64
	index    int
	keys     KeyMap
	help     help.Model
	quitting bool
}

// NewBrowser returns a browser positioned on the most recent week.
func NewBrowser(weeks []model.WorkWeek, total float64) Browser {
	return Browser{
		weeks: weeks,
		total: total,
		keys:  DefaultKeyMap(),
		help:  help.New(),
	}
}

// Index is the position of the shown week; 0 is the most recent.
func (b Browser) Index() int { return b.index }

func (b Browser) Init() tea.Cmd { return nil }

func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keys.Quit):
			b.quitting = true
			return b, tea.Quit
		case key.Matches(msg, b.keys.Older):
			if b.index < len(b.weeks)-1 {
				b.index++
			}
		case key.Matches(msg, b.keys.Newer):
			if b.index > 0 {
				b.index--
			}
		case key.Matches(msg, b.keys.Newest):
			b.index = 0
		case key.Matches(msg, b.keys.Oldest):
			b.index = max(len(b.weeks)-1, 0)
		case key.Matches(msg, b.keys.Help):
			b.help.ShowAll = !b.help.ShowAll
		}
	}
	return b, nil
}

func (b Browser) View() string {
	if b.quitting {
		return ""
	}
	if len(b.weeks) == 0 {
		return Dim("No weeks tracked yet.") + "\n\n" + b.help.View(b.keys) + "\n"
	}
	position := Dim(fmt.Sprintf("week %d of %d", len(b.weeks)-b.index, len(b.weeks)))
	return RenderWeek(b.weeks[b.index]) + "\n" +
		Dim("overall balance ") + Balance(b.total) + "  " + position + "\n\n" +
		b.help.View(b.keys) + "\n"
}

// RunBrowser runs the week browser full screen until the user quits.
func RunBrowser(weeks []model.WorkWeek, total float64) error {
	_, err := tea.NewProgram(NewBrowser(weeks, total), tea.WithAltScreen()).Run()
	return err
}
