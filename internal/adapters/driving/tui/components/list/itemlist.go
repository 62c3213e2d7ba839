// Package list provides the item list component for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/catsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/catsync/internal/core/domain"
)

// Row is one item as displayed, with its transient download state.
type Row struct {
	Item        domain.Item
	Downloading bool
}

// ItemList displays catalogue items in a navigable, scrolling list.
type ItemList struct {
	rows     []Row
	selected int
	spinner  string
	styles   *styles.Styles
	width    int
	height   int
}

// NewItemList creates a new item list component.
func NewItemList(s *styles.Styles) *ItemList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ItemList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// SetRows replaces the rows, keeping the cursor on the same item when
// it is still present.
func (l *ItemList) SetRows(rows []Row) {
	current := ""
	if row := l.SelectedRow(); row != nil {
		current = row.Item.Name
	}

	l.rows = rows
	l.selected = 0
	for i := range rows {
		if rows[i].Item.Name == current {
			l.selected = i
			break
		}
	}
}

// Rows returns the displayed rows.
func (l *ItemList) Rows() []Row {
	return l.rows
}

// SetSpinner sets the frame drawn next to downloading items.
func (l *ItemList) SetSpinner(frame string) {
	l.spinner = frame
}

// View renders the visible window of rows.
func (l *ItemList) View() string {
	if len(l.rows) == 0 {
		return l.styles.Muted.Render("No items. Press r to refresh the catalogue.")
	}

	visible := l.height
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.rows) {
		end = len(l.rows)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderRow(i, &l.rows[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *ItemList) renderRow(index int, row *Row) string {
	name := row.Item.Name
	maxName := l.width - 16
	if maxName < 10 {
		maxName = 10
	}
	if len(name) > maxName {
		name = name[:maxName-3] + "..."
	}

	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("> %-*s %s", maxName, name, plainMarker(row, l.spinner)))
	}
	return l.styles.Normal.Render(fmt.Sprintf("  %-*s ", maxName, name)) + l.marker(row)
}

func (l *ItemList) marker(row *Row) string {
	switch {
	case row.Downloading:
		return l.styles.Busy.Render(plainMarker(row, l.spinner))
	case row.Item.UpdateAvailable:
		return l.styles.Update.Render(plainMarker(row, l.spinner))
	case row.Item.LocallyPresent:
		return l.styles.Local.Render(plainMarker(row, l.spinner))
	default:
		return l.styles.Muted.Render(plainMarker(row, l.spinner))
	}
}

func plainMarker(row *Row, spinner string) string {
	switch {
	case row.Downloading:
		return strings.TrimSpace(spinner + " downloading")
	case row.Item.UpdateAvailable:
		return "↑ update"
	case row.Item.LocallyPresent:
		return "● local"
	default:
		return "○ remote"
	}
}

// SelectedRow returns the row under the cursor, or nil if empty.
func (l *ItemList) SelectedRow() *Row {
	if l.selected < 0 || l.selected >= len(l.rows) {
		return nil
	}
	return &l.rows[l.selected]
}

// Selected returns the cursor index.
func (l *ItemList) Selected() int {
	return l.selected
}

// MoveUp moves the cursor up.
func (l *ItemList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the cursor down.
func (l *ItemList) MoveDown() {
	if l.selected < len(l.rows)-1 {
		l.selected++
	}
}

// SetDimensions sets the width and the number of visible rows.
func (l *ItemList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of rows.
func (l *ItemList) Count() int {
	return len(l.rows)
}
