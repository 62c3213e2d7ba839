// Package detail provides the item detail view for the TUI.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/catsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/catsync/internal/core/domain"
)

// headerLines is the number of lines drawn above the payload preview.
const headerLines = 9

// View shows an item's metadata and a scrollable preview of its payload.
type View struct {
	styles   *styles.Styles
	viewport viewport.Model

	item        domain.Item
	downloading bool
	hasPayload  bool
	payloadErr  error
	width       int
	height      int
}

// NewView creates a new detail view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		viewport: viewport.New(76, 10),
		width:    80,
		height:   24,
	}
}

// SetItem switches the view to item and clears the previous preview.
func (v *View) SetItem(item domain.Item, downloading bool) {
	if item.Name != v.item.Name {
		v.hasPayload = false
		v.payloadErr = nil
		v.viewport.SetContent("")
		v.viewport.GotoTop()
	}
	v.item = item
	v.downloading = downloading
}

// Item returns the displayed item.
func (v *View) Item() domain.Item {
	return v.item
}

// SetPayload fills the preview. Payloads for other items are ignored.
func (v *View) SetPayload(name, payload string, err error) {
	if name != v.item.Name {
		return
	}
	v.payloadErr = err
	v.hasPayload = err == nil
	v.viewport.SetContent(payload)
	v.viewport.GotoTop()
}

// Update scrolls the preview.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the detail screen.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(domain.NicifyName(v.item.Name)))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(v.item.Name))
	b.WriteString("\n\n")

	v.field(&b, "Source", orDash(v.item.SourceURL))
	v.field(&b, "State", v.state())
	v.field(&b, "Downloaded", formatWhen(v.item.LastDownload))
	v.field(&b, "Checked", formatWhen(v.item.LastUpdateCheck))
	b.WriteString("\n")

	switch {
	case v.payloadErr != nil:
		b.WriteString(v.styles.Error.Render(v.payloadErr.Error()))
	case v.hasPayload:
		b.WriteString(v.styles.Panel.Render(v.viewport.View()))
	case v.item.LocallyPresent:
		b.WriteString(v.styles.Muted.Render("Loading payload..."))
	default:
		b.WriteString(v.styles.Muted.Render("Not downloaded. Press d to fetch it."))
	}

	return b.String()
}

func (v *View) field(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s %s\n", v.styles.Header.Render(fmt.Sprintf("%-11s", label)), v.styles.Normal.Render(value))
}

func (v *View) state() string {
	switch {
	case v.downloading:
		return "downloading"
	case v.item.UpdateAvailable:
		return "update available"
	case v.item.LocallyPresent:
		return "local"
	default:
		return "remote only"
	}
}

// SetDimensions sizes the preview to the space under the header.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height

	v.viewport.Width = width - 4
	h := height - headerLines - 4
	if h < 3 {
		h = 3
	}
	v.viewport.Height = h
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
