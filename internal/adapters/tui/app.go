package tui

import (
	"context"
	"os"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"trailbook/internal/adapters/tui/views"
	"trailbook/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewEntities ViewState = iota
	ViewBrowser
	ViewReset
	ViewHelp
)

// OpenFunc returns the history of an entity
type OpenFunc func(ctx context.Context, entityID string) (ports.History, error)

// Option configures the App
type Option func(*App)

// WithClipboard replaces the system clipboard writer
func WithClipboard(write func(string) error) Option {
	return func(a *App) {
		a.clip = write
	}
}

// WithEntity opens the history of entityID on start
func WithEntity(entityID string) Option {
	return func(a *App) {
		a.startEntity = entityID
	}
}

// App is the main TUI application model
type App struct {
	open        OpenFunc
	editor      ports.EditorOpener
	clip        func(string) error
	startEntity string

	state    ViewState
	prev     ViewState
	entities *views.EntitiesModel
	browser  *views.BrowserModel
	reset    *views.ResetModel
	help     *views.HelpModel

	width  int
	height int
}

// NewApp creates a new TUI application. ed may be nil to disable the editor.
func NewApp(store ports.MetadataStore, open OpenFunc, ed ports.EditorOpener, opts ...Option) *App {
	a := &App{
		open:     open,
		editor:   ed,
		clip:     clipboard.WriteAll,
		state:    ViewEntities,
		entities: views.NewEntitiesModel(store),
		help:     views.NewHelpModel(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the active view
func (a *App) State() ViewState {
	return a.state
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	if a.startEntity != "" {
		id := a.startEntity
		return tea.Batch(a.entities.Init(), func() tea.Msg { return views.OpenEntityMsg{EntityID: id} })
	}
	return a.entities.Init()
}

type historyOpenedMsg struct {
	history ports.History
}

type openFailedMsg struct {
	err error
}

type editorFinishedMsg struct {
	path string
	err  error
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.entities.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		if a.browser != nil {
			a.browser.SetSize(msg.Width, msg.Height)
		}
		return a, nil

	case views.OpenEntityMsg:
		id := msg.EntityID
		return a, func() tea.Msg {
			h, err := a.open(context.Background(), id)
			if err != nil {
				return openFailedMsg{err}
			}
			return historyOpenedMsg{h}
		}

	case historyOpenedMsg:
		a.browser = views.NewBrowserModel(msg.history, a.clip)
		a.browser.SetSize(a.width, a.height)
		a.state = ViewBrowser
		return a, a.browser.Init()

	case openFailedMsg:
		a.state = ViewEntities
		a.entities.SetError(msg.err)
		return a, nil

	case views.SwitchToEntitiesMsg:
		a.state = ViewEntities
		return a, a.entities.Reload()

	case views.SwitchToHistoryMsg:
		a.state = ViewBrowser
		return a, nil

	case views.SwitchToResetMsg:
		if a.browser == nil {
			return a, nil
		}
		a.reset = views.NewResetModel(a.browser.History())
		a.state = ViewReset
		return a, nil

	case views.ResetDoneMsg:
		a.state = ViewBrowser
		_, cmd := a.browser.Update(msg)
		return a, cmd

	case views.SwitchToHelpMsg:
		a.prev = a.state
		a.state = ViewHelp
		return a, nil

	case views.CloseHelpMsg:
		a.state = a.prev
		return a, nil

	case views.OpenSpecMsg:
		return a, a.openEditor(msg)

	case editorFinishedMsg:
		if msg.path != "" {
			os.Remove(msg.path)
		}
		if msg.err != nil && a.browser != nil {
			a.browser.SetError(msg.err)
		}
		return a, nil
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewEntities:
		_, cmd = a.entities.Update(msg)
	case ViewBrowser:
		_, cmd = a.browser.Update(msg)
	case ViewReset:
		_, cmd = a.reset.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

func (a *App) openEditor(msg views.OpenSpecMsg) tea.Cmd {
	if a.editor == nil {
		return nil
	}

	cmd, path, err := a.editor.CommandForDocument(msg.Name, msg.Doc)
	if err != nil {
		return func() tea.Msg {
			return editorFinishedMsg{err: err}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{path: path, err: err}
	})
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewBrowser:
		return a.browser.View()
	case ViewReset:
		return a.reset.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.entities.View()
	}
}
