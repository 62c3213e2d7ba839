package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/catsync/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/catsync/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/catsync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/catsync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/catsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/catsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/catsync/internal/adapters/driving/tui/views/detail"
	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/services"
)

// App is the main TUI application following the Elm architecture.
// It owns the engine's tick loop while running.
type App struct {
	ports *Ports
	ctx   context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	list      *list.ItemList
	filter    *input.FilterInput
	statusBar *status.Bar
	detail    *detail.View
	spinner   spinner.Model

	currentView messages.ViewType
	localOnly   bool
	interval    time.Duration

	width  int
	height int
	ready  bool
	err    error
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Busy

	interval := ports.TickInterval
	if interval <= 0 {
		interval = domain.DefaultTickInterval
	}

	a := &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		help:        help.New(),
		list:        list.NewItemList(s),
		filter:      input.NewFilterInput(s),
		statusBar:   status.NewBar(s, km),
		detail:      detail.NewView(s),
		spinner:     sp,
		currentView: messages.ViewItems,
		interval:    interval,
	}
	a.refresh()
	return a, nil
}

// WithContext sets the context passed to the engine and actions.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("catsync"),
		a.spinner.Tick,
		a.tickCmd(),
	)
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(a.interval, func(t time.Time) tea.Msg {
		return messages.EngineTick{Time: t}
	})
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case messages.EngineTick:
		return a, a.handleTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.list.SetSpinner(a.spinner.View())
		a.statusBar.SetRefreshing(a.ports.Engine.IsCatalogRefreshing(), a.spinner.View())
		return a, cmd

	case messages.PayloadLoaded:
		a.detail.SetPayload(msg.Name, msg.Payload, msg.Err)
		return a, nil

	case messages.ActionCompleted:
		if msg.Err != nil {
			a.statusBar.SetMessage(fmt.Sprintf("%s: %v", msg.Item, msg.Err), true)
			return a, nil
		}
		a.statusBar.SetMessage(firstLine(msg.Output, msg.Item+": done"), false)
		return a, nil

	case messages.StatusMessage:
		a.statusBar.SetMessage(msg.Text, msg.Error)
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		if msg.Err != nil {
			a.statusBar.SetMessage(msg.Err.Error(), true)
		}
		return a, nil

	case messages.ViewChanged:
		a.setView(msg.View)
		return a, nil

	case messages.ItemSelected:
		return a, a.openDetail(msg.Item)

	case messages.Quit:
		return a, tea.Quit

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}

	return a, nil
}

// handleTick advances the engine once and schedules the next tick.
func (a *App) handleTick() tea.Cmd {
	res := a.ports.Engine.Tick(a.ctx)
	// Started operations flip row markers without setting Changed.
	if res.Changed || res.Started > 0 {
		a.refresh()
	} else {
		a.refreshStatus()
	}

	cmds := []tea.Cmd{a.tickCmd()}
	if res.Changed && a.currentView == messages.ViewDetail {
		cmds = append(cmds, a.syncDetail())
	}
	return tea.Batch(cmds...)
}

// refresh rebuilds the visible rows and status from engine state.
func (a *App) refresh() {
	engine := a.ports.Engine
	all := engine.Items()

	counts := status.Counts{Total: len(all)}
	for i := range all {
		if all[i].LocallyPresent {
			counts.Local++
		}
		if all[i].UpdateAvailable {
			counts.Updates++
		}
	}

	shown := services.FilterItems(all, a.filter.Value())
	rows := make([]list.Row, 0, len(shown))
	for _, item := range shown {
		if a.localOnly && !item.LocallyPresent {
			continue
		}
		rows = append(rows, list.Row{Item: item, Downloading: engine.IsBusyDownloading(item.Name)})
	}

	a.list.SetRows(rows)
	a.statusBar.SetCounts(counts)
	a.refreshStatus()
}

// refreshStatus updates health and the refresh spinner only.
func (a *App) refreshStatus() {
	engine := a.ports.Engine
	a.statusBar.SetHealthy(engine.ConnectionHealthy())
	a.statusBar.SetRefreshing(engine.IsCatalogRefreshing(), a.spinner.View())
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	keyStr := msg.String()
	if keyStr == "ctrl+c" {
		return tea.Quit
	}

	if a.filter.Focused() {
		return a.handleFilterKey(msg)
	}

	switch a.currentView {
	case messages.ViewHelp:
		switch {
		case keymap.Matches(keyStr, a.keymap.Quit):
			return tea.Quit
		case keymap.Matches(keyStr, a.keymap.Back), keymap.Matches(keyStr, a.keymap.Help):
			a.setView(messages.ViewItems)
		}
		return nil

	case messages.ViewDetail:
		return a.handleDetailKey(msg)

	default:
		return a.handleItemsKey(keyStr)
	}
}

func (a *App) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type { //nolint:exhaustive // only keys that leave the filter
	case tea.KeyEnter:
		a.filter.Blur()
		a.statusBar.SetMode(status.ModeItems)
		return nil
	case tea.KeyEsc:
		a.filter.Reset()
		a.filter.Blur()
		a.statusBar.SetMode(status.ModeItems)
		a.refresh()
		return nil
	}

	var cmd tea.Cmd
	a.filter, cmd = a.filter.Update(msg)
	a.refresh()
	return cmd
}

func (a *App) handleItemsKey(keyStr string) tea.Cmd {
	km := a.keymap
	switch {
	case keymap.Matches(keyStr, km.Quit):
		return tea.Quit
	case keymap.Matches(keyStr, km.Help):
		a.setView(messages.ViewHelp)
	case keymap.Matches(keyStr, km.Filter):
		a.statusBar.SetMode(status.ModeFilter)
		return a.filter.Focus()
	case keymap.Matches(keyStr, km.Back):
		if a.filter.Value() != "" {
			a.filter.Reset()
			a.refresh()
		}
	case keymap.Matches(keyStr, km.Up):
		a.list.MoveUp()
	case keymap.Matches(keyStr, km.Down):
		a.list.MoveDown()
	case keymap.Matches(keyStr, km.LocalOnly):
		a.localOnly = !a.localOnly
		a.refresh()
	case keymap.Matches(keyStr, km.Refresh):
		a.ports.Engine.TriggerCatalogRefresh()
		a.statusBar.SetMessage("Refreshing catalogue", false)
	case keymap.Matches(keyStr, km.CheckAll):
		n := a.ports.Engine.TriggerCheckAllForUpdates()
		a.statusBar.SetMessage(fmt.Sprintf("Checking %d items for updates", n), false)
	case keymap.Matches(keyStr, km.Open):
		if row := a.list.SelectedRow(); row != nil {
			return a.openDetail(row.Item)
		}
	default:
		if row := a.list.SelectedRow(); row != nil {
			return a.itemAction(keyStr, row.Item.Name)
		}
	}
	return nil
}

func (a *App) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	keyStr := msg.String()
	km := a.keymap
	switch {
	case keymap.Matches(keyStr, km.Quit):
		return tea.Quit
	case keymap.Matches(keyStr, km.Back):
		a.setView(messages.ViewItems)
		return nil
	case keymap.Matches(keyStr, km.Download),
		keymap.Matches(keyStr, km.Run),
		keymap.Matches(keyStr, km.Remove):
		cmd := a.itemAction(keyStr, a.detail.Item().Name)
		return tea.Batch(cmd, a.syncDetail())
	}

	var cmd tea.Cmd
	a.detail, cmd = a.detail.Update(msg)
	return cmd
}

// itemAction handles the per-item keys shared by the list and detail views.
func (a *App) itemAction(keyStr, name string) tea.Cmd {
	km := a.keymap
	switch {
	case keymap.Matches(keyStr, km.Download):
		a.download(name)
	case keymap.Matches(keyStr, km.Remove):
		a.remove(name)
	case keymap.Matches(keyStr, km.Run):
		return a.run(name)
	}
	return nil
}

func (a *App) download(name string) {
	err := a.ports.Engine.TriggerDownload(name)
	switch {
	case err == nil:
		a.statusBar.SetMessage("Downloading "+name, false)
	case errors.Is(err, domain.ErrAlreadyPending):
		a.statusBar.SetMessage(name+" is already downloading", false)
	case errors.Is(err, domain.ErrNoSource):
		a.statusBar.SetMessage(name+" has no source in the catalogue", true)
	default:
		a.statusBar.SetMessage(err.Error(), true)
	}
	a.refresh()
}

func (a *App) remove(name string) {
	err := a.ports.Engine.RemoveLocal(name)
	switch {
	case err == nil:
		a.statusBar.SetMessage("Removed local copy of "+name, false)
	case errors.Is(err, domain.ErrNotLocal):
		a.statusBar.SetMessage(name+" is not downloaded", true)
	case errors.Is(err, domain.ErrAlreadyPending):
		a.statusBar.SetMessage(name+" is downloading, try again shortly", true)
	default:
		a.statusBar.SetMessage(err.Error(), true)
	}
	a.refresh()
}

func (a *App) run(name string) tea.Cmd {
	actions := a.ports.Actions
	if actions == nil {
		a.statusBar.SetMessage("No actions configured", true)
		return nil
	}
	ctx := a.ctx
	return func() tea.Msg {
		out, err := actions.Run(ctx, name, "")
		return messages.ActionCompleted{Item: name, Output: out, Err: err}
	}
}

func (a *App) openDetail(item domain.Item) tea.Cmd {
	a.detail.SetItem(item, a.ports.Engine.IsBusyDownloading(item.Name))
	a.setView(messages.ViewDetail)
	return a.loadPayload(item)
}

// syncDetail refreshes the detail view from the engine after a change.
func (a *App) syncDetail() tea.Cmd {
	name := a.detail.Item().Name
	item, ok := a.ports.Engine.Item(name)
	if !ok {
		a.setView(messages.ViewItems)
		return nil
	}
	a.detail.SetItem(item, a.ports.Engine.IsBusyDownloading(name))
	return a.loadPayload(item)
}

func (a *App) loadPayload(item domain.Item) tea.Cmd {
	if !item.LocallyPresent {
		return nil
	}
	engine := a.ports.Engine
	return func() tea.Msg {
		data, err := engine.ReadPayload(item.Name)
		return messages.PayloadLoaded{Name: item.Name, Payload: string(data), Err: err}
	}
}

func (a *App) setView(v messages.ViewType) {
	a.currentView = v
	switch v {
	case messages.ViewDetail:
		a.statusBar.SetMode(status.ModeDetail)
	default:
		a.statusBar.SetMode(status.ModeItems)
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewDetail:
		body = a.detail.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.viewItems()
	}

	return body + "\n" + a.statusBar.View()
}

func (a *App) viewItems() string {
	title := a.styles.Title.Render("catsync")
	if a.localOnly {
		title += a.styles.Muted.Render("  (local only)")
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	if a.filter.Focused() || a.filter.Value() != "" {
		b.WriteString(a.filter.View())
	}
	b.WriteString("\n")
	b.WriteString(a.list.View())
	return b.String()
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Keys") + "\n\n" +
		a.help.FullHelpView(a.keymap.FullHelp()) + "\n\n" +
		a.styles.Muted.Render("esc to go back")
}

// Run starts the TUI and blocks until the user quits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && a.ctx.Err() != nil {
		return nil
	}
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has a window size.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.statusBar.SetWidth(width)
	a.filter.SetWidth(width)
	a.help.Width = width
	a.detail.SetDimensions(width, height-1)

	// title, filter line and status bar
	rows := height - 4
	if rows < 1 {
		rows = 1
	}
	a.list.SetDimensions(width, rows)
}

func firstLine(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
