package views

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"trailbook/internal/adapters/tui/styles"
	"trailbook/internal/application/commands"
	"trailbook/internal/ports"
)

// EntitiesKeyMap defines key bindings for the entity list
type EntitiesKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Open     key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var EntitiesKeys = EntitiesKeyMap{
	Up:       BrowserKeys.Up,
	Down:     BrowserKeys.Down,
	PageUp:   BrowserKeys.PageUp,
	PageDown: BrowserKeys.PageDown,
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open history"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "refresh"),
	),
	Help: BrowserKeys.Help,
	Quit: BrowserKeys.Quit,
}

const entitiesChrome = 8

// EntitiesModel lists the entities of a metadata store
type EntitiesModel struct {
	ViewState
	store    ports.MetadataStore
	entities []commands.EntitySummary
	loaded   bool
	pager    *Paginator
}

// NewEntitiesModel creates a new entity list
func NewEntitiesModel(store ports.MetadataStore) *EntitiesModel {
	return &EntitiesModel{
		store: store,
		pager: NewPaginator(20),
	}
}

// Init loads the entities
func (m *EntitiesModel) Init() tea.Cmd {
	return m.load
}

type entitiesLoadedMsg struct {
	entities []commands.EntitySummary
}

func (m *EntitiesModel) load() tea.Msg {
	entities, err := commands.NewListEntitiesCommand(m.store).Execute(context.Background())
	if err != nil {
		return errMsg{err}
	}
	return entitiesLoadedMsg{entities}
}

// Update handles messages for the entity list
func (m *EntitiesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case entitiesLoadedMsg:
		m.entities = msg.entities
		m.loaded = true
		m.pager.SetTotal(len(m.entities))
		return m, nil

	case errMsg:
		m.SetError(msg.err)
		return m, nil

	case tea.KeyMsg:
		m.ClearMessage()

		switch {
		case key.Matches(msg, EntitiesKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, EntitiesKeys.Up):
			m.pager.CursorUp()
		case key.Matches(msg, EntitiesKeys.Down):
			m.pager.CursorDown()
		case key.Matches(msg, EntitiesKeys.PageUp):
			m.pager.PrevPage()
		case key.Matches(msg, EntitiesKeys.PageDown):
			m.pager.NextPage()
		case key.Matches(msg, EntitiesKeys.Refresh):
			return m, m.load
		case key.Matches(msg, EntitiesKeys.Open):
			if e, ok := m.Selected(); ok {
				return m, func() tea.Msg { return OpenEntityMsg{EntityID: e.ID} }
			}
		case key.Matches(msg, EntitiesKeys.Help):
			return m, func() tea.Msg { return SwitchToHelpMsg{} }
		}
	}
	return m, nil
}

// Selected returns the entity under the cursor
func (m *EntitiesModel) Selected() (commands.EntitySummary, bool) {
	i := m.pager.Cursor()
	if i >= 0 && i < len(m.entities) {
		return m.entities[i], true
	}
	return commands.EntitySummary{}, false
}

// View renders the entity list
func (m *EntitiesModel) View() string {
	if !m.loaded && m.Message == "" {
		return styles.App.Render("Loading...")
	}

	v := NewViewBuilder().
		Title("trailbook").
		Subtitle(fmt.Sprintf("%d tracked entities", len(m.entities)))

	if len(m.entities) == 0 {
		v.Muted("No entity has a recorded history yet.")
	}
	start, end := m.pager.VisibleRange()
	for i := start; i < end; i++ {
		e := m.entities[i]
		text := e.ID
		if !e.HasBaseline {
			text += " (no baseline)"
		}
		if i == m.pager.Cursor() {
			v.Line(styles.NodeSelected.Render(text))
		} else {
			v.Line(text)
		}
	}
	if info := RenderPageInfo(m.pager); info != "" {
		v.Line(info)
	}

	return v.Message(m.Message, m.MessageErr).
		Help(EntitiesKeys.Open, EntitiesKeys.Refresh, EntitiesKeys.Help, EntitiesKeys.Quit).
		String()
}

// SetSize updates the view dimensions
func (m *EntitiesModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	m.pager.SetPageSize(pageSizeFor(height, entitiesChrome))
}

// Reload refreshes the list from the store
func (m *EntitiesModel) Reload() tea.Cmd {
	return m.load
}
