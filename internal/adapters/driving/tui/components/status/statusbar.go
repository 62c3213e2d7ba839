// Package status provides the status bar component for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/catsync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/catsync/internal/adapters/driving/tui/styles"
)

// Mode selects which keybinding hints are shown.
type Mode string

const (
	ModeItems  Mode = "items"
	ModeDetail Mode = "detail"
	ModeFilter Mode = "filter"
)

// Counts summarises the item table.
type Counts struct {
	Total   int
	Local   int
	Updates int
}

// Bar displays engine health, item counts and keybinding hints.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	mode       Mode
	counts     Counts
	healthy    bool
	refreshing bool
	spinner    string
	message    string
	isError    bool
	width      int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles:  s,
		keymap:  km,
		mode:    ModeItems,
		healthy: true,
		width:   80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	parts := make([]string, 0, 3)

	if s.healthy {
		parts = append(parts, s.styles.Local.Render("● online"))
	} else {
		parts = append(parts, s.styles.Error.Render("○ offline"))
	}

	if s.refreshing {
		parts = append(parts, s.styles.Busy.Render(strings.TrimSpace(s.spinner+" refreshing")))
	}

	switch {
	case s.message != "" && s.isError:
		parts = append(parts, s.styles.Error.Render(s.message))
	case s.message != "":
		parts = append(parts, s.styles.Normal.Render(s.message))
	default:
		parts = append(parts, s.styles.Muted.Render(fmt.Sprintf(
			"%d items · %d local · %d updates", s.counts.Total, s.counts.Local, s.counts.Updates,
		)))
	}

	return strings.Join(parts, "  ")
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	switch s.mode {
	case ModeDetail:
		bindings = s.keymap.DetailHelp()
	case ModeFilter:
		bindings = []key.Binding{s.keymap.Back}
	default:
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Help.Render(strings.Join(hints, " | "))
}

// SetMode selects the hint set.
func (s *Bar) SetMode(mode Mode) {
	s.mode = mode
}

// Mode returns the current hint set.
func (s *Bar) Mode() Mode {
	return s.mode
}

// SetCounts updates the item summary.
func (s *Bar) SetCounts(c Counts) {
	s.counts = c
}

// Counts returns the current item summary.
func (s *Bar) Counts() Counts {
	return s.counts
}

// SetHealthy records whether the last fetch reached the server.
func (s *Bar) SetHealthy(healthy bool) {
	s.healthy = healthy
}

// SetRefreshing shows or hides the catalogue refresh indicator.
func (s *Bar) SetRefreshing(refreshing bool, spinnerFrame string) {
	s.refreshing = refreshing
	s.spinner = spinnerFrame
}

// SetMessage shows a transient message in place of the counts.
func (s *Bar) SetMessage(message string, isError bool) {
	s.message = message
	s.isError = isError
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// ClearMessage drops the transient message.
func (s *Bar) ClearMessage() {
	s.message = ""
	s.isError = false
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}
