package views

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trailbook/internal/adapters/tui/styles"
	"trailbook/internal/application"
	"trailbook/internal/application/commands"
	"trailbook/internal/domain"
	"trailbook/internal/ports"
)

// BrowserKeyMap defines key bindings for the history browser
type BrowserKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Goto      key.Binding
	Undo      key.Binding
	Redo      key.Binding
	Reset     key.Binding
	CopyQuery key.Binding
	CopyID    key.Binding
	Edit      key.Binding
	Back      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var BrowserKeys = BrowserKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "collapse"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "expand"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "previous page"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "next page"),
	),
	Goto: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "go to node"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "undo"),
	),
	Redo: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "redo"),
	),
	Reset: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reset"),
	),
	CopyQuery: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy query"),
	),
	CopyID: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy id"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "view spec"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "entities"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// browserChrome is the number of lines around the tree
const browserChrome = 14

// BrowserModel browses and navigates the history tree of one entity
type BrowserModel struct {
	ViewState
	history   ports.History
	clip      func(string) error
	root      *application.TreeNode
	flatNodes []*application.TreeNode
	pager     *Paginator
	collapsed map[string]bool
}

// NewBrowserModel creates a browser over h. clip writes to the clipboard.
func NewBrowserModel(h ports.History, clip func(string) error) *BrowserModel {
	return &BrowserModel{
		history:   h,
		clip:      clip,
		pager:     NewPaginator(20),
		collapsed: make(map[string]bool),
	}
}

// History returns the history being browsed
func (m *BrowserModel) History() ports.History {
	return m.history
}

// Init initializes the browser
func (m *BrowserModel) Init() tea.Cmd {
	return m.loadTree
}

func (m *BrowserModel) loadTree() tea.Msg {
	res, err := commands.NewTreeCommand(m.history).Execute(context.Background())
	if err != nil {
		return errMsg{err}
	}
	return treeLoadedMsg{root: res.Root, current: res.CurrentID}
}

type treeLoadedMsg struct {
	root    *application.TreeNode
	current string
}

// Update handles messages for the browser
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case treeLoadedMsg:
		m.setTree(msg.root, msg.current)
		return m, nil

	case errMsg:
		m.SetError(msg.err)
		return m, nil

	case successMsg:
		m.SetMessage(msg.message, false)
		return m, m.loadTree

	case ResetDoneMsg:
		m.SetMessage(msg.Message, false)
		m.collapsed = make(map[string]bool)
		return m, m.loadTree

	case tea.KeyMsg:
		m.ClearMessage()

		switch {
		case key.Matches(msg, BrowserKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, BrowserKeys.Up):
			m.pager.CursorUp()
			return m, nil

		case key.Matches(msg, BrowserKeys.Down):
			m.pager.CursorDown()
			return m, nil

		case key.Matches(msg, BrowserKeys.PageUp):
			m.pager.PrevPage()
			return m, nil

		case key.Matches(msg, BrowserKeys.PageDown):
			m.pager.NextPage()
			return m, nil

		case key.Matches(msg, BrowserKeys.Left):
			if node := m.selectedNode(); node != nil {
				if node.IsExpanded && len(node.Children) > 0 {
					node.Collapse()
					m.collapsed[node.ID] = true
					m.refreshFlatNodes()
				} else if node.Parent != nil {
					m.selectID(node.Parent.ID)
				}
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Right):
			if node := m.selectedNode(); node != nil && !node.IsExpanded {
				node.Expand()
				delete(m.collapsed, node.ID)
				m.refreshFlatNodes()
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Goto):
			if node := m.selectedNode(); node != nil {
				return m, m.gotoNode(node.ID)
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Undo):
			return m, m.run(func(ctx context.Context) (*commands.NavigateResult, error) {
				return commands.NewUndoCommand(m.history).Execute(ctx)
			})

		case key.Matches(msg, BrowserKeys.Redo):
			return m, m.run(func(ctx context.Context) (*commands.NavigateResult, error) {
				return commands.NewRedoCommand(m.history).Execute(ctx)
			})

		case key.Matches(msg, BrowserKeys.Reset):
			return m, func() tea.Msg { return SwitchToResetMsg{} }

		case key.Matches(msg, BrowserKeys.CopyQuery):
			if node := m.selectedNode(); node != nil {
				return m, m.copyQuery(node.ID)
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.CopyID):
			if node := m.selectedNode(); node != nil {
				id := node.ID
				return m, func() tea.Msg {
					if err := m.clip(id); err != nil {
						return errMsg{fmt.Errorf("failed to copy: %w", err)}
					}
					return successMsg{"Copied " + application.ShortID(id)}
				}
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Edit):
			if node := m.selectedNode(); node != nil {
				return m, m.openSpec(node.ID)
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Back):
			return m, func() tea.Msg { return SwitchToEntitiesMsg{} }

		case key.Matches(msg, BrowserKeys.Help):
			return m, func() tea.Msg { return SwitchToHelpMsg{} }
		}
	}

	return m, nil
}

func (m *BrowserModel) run(fn func(context.Context) (*commands.NavigateResult, error)) tea.Cmd {
	return func() tea.Msg {
		res, err := fn(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return successMsg{res.Message}
	}
}

func (m *BrowserModel) gotoNode(id string) tea.Cmd {
	return m.run(func(ctx context.Context) (*commands.NavigateResult, error) {
		return commands.NewNavigateCommand(m.history, id).Execute(ctx)
	})
}

func (m *BrowserModel) copyQuery(id string) tea.Cmd {
	return func() tea.Msg {
		res, err := commands.NewQueryCommand(m.history, id).Execute(context.Background())
		if err != nil {
			return errMsg{err}
		}
		if res.Query == "" {
			return errMsg{fmt.Errorf("no brush at %s", application.ShortID(id))}
		}
		if err := m.clip(res.Query); err != nil {
			return errMsg{fmt.Errorf("failed to copy: %w", err)}
		}
		return successMsg{"Copied " + res.Query}
	}
}

func (m *BrowserModel) openSpec(id string) tea.Cmd {
	entity := m.history.EntityID()
	return func() tea.Msg {
		spec, err := commands.SpecAt(context.Background(), m.history, id)
		if err != nil {
			return errMsg{err}
		}
		doc, err := json.MarshalIndent(spec, "", "  ")
		if err != nil {
			return errMsg{err}
		}
		return OpenSpecMsg{
			Name: fmt.Sprintf("%s-%s.json", entity, application.ShortID(id)),
			Doc:  doc,
		}
	}
}

func (m *BrowserModel) setTree(root *application.TreeNode, current string) {
	selected := ""
	if node := m.selectedNode(); node != nil {
		selected = node.ID
	}
	m.root = root
	for id := range m.collapsed {
		if n := root.Find(id); n != nil {
			n.Collapse()
		}
	}
	// the current node is always visible
	if n := root.Find(current); n != nil {
		for p := n.Parent; p != nil; p = p.Parent {
			p.Expand()
			delete(m.collapsed, p.ID)
		}
	}
	m.refreshFlatNodes()
	if selected == "" || !m.selectID(selected) {
		m.selectID(current)
	}
}

func (m *BrowserModel) selectID(id string) bool {
	for i, n := range m.flatNodes {
		if n.ID == id {
			m.pager.SetCursor(i)
			return true
		}
	}
	return false
}

func (m *BrowserModel) selectedNode() *application.TreeNode {
	i := m.pager.Cursor()
	if i >= 0 && i < len(m.flatNodes) {
		return m.flatNodes[i]
	}
	return nil
}

func (m *BrowserModel) refreshFlatNodes() {
	if m.root == nil {
		return
	}
	m.flatNodes = m.root.Flatten()
	m.pager.SetTotal(len(m.flatNodes))
}

// View renders the browser
func (m *BrowserModel) View() string {
	if m.root == nil {
		return styles.App.Render("Loading...")
	}

	v := NewViewBuilder().
		Title("trailbook").
		Subtitle(fmt.Sprintf("%s · %d nodes", m.history.EntityID(), len(m.root.Flatten())))

	start, end := m.pager.VisibleRange()
	for i := start; i < end; i++ {
		v.Line(m.renderNode(m.flatNodes[i], i == m.pager.Cursor()))
	}
	if info := RenderPageInfo(m.pager); info != "" {
		v.Line(info)
	}

	if node := m.selectedNode(); node != nil {
		v.BlankLine().Line(m.renderDetail(node))
	}

	return v.Message(m.Message, m.MessageErr).
		Help(BrowserKeys.Goto, BrowserKeys.Undo, BrowserKeys.Redo, BrowserKeys.CopyQuery,
			BrowserKeys.Edit, BrowserKeys.Help, BrowserKeys.Quit).
		String()
}

func (m *BrowserModel) renderNode(node *application.TreeNode, selected bool) string {
	indent := strings.Repeat("  ", node.Depth())

	var prefix string
	switch {
	case len(node.Children) == 0:
		prefix = styles.TreeLeaf
	case node.IsExpanded:
		prefix = styles.TreeExpanded
	default:
		prefix = styles.TreeCollapsed
	}

	marker := "  "
	if node.IsCurrent {
		marker = styles.CurrentMarker.String()
	}

	text := fmt.Sprintf("%s %s", application.ShortID(node.ID), node.Label)

	var style lipgloss.Style
	if node.Parent == nil {
		style = styles.NodeRoot
	} else {
		style = styles.NodeInteraction.Foreground(styles.KindColor(node.Kind))
	}
	styled := style.Render(text)
	if selected {
		styled = styles.NodeSelected.Render(text)
	}

	when := styles.NodeTime.Render(node.CreatedAt.Format("15:04:05"))
	return fmt.Sprintf("%s%s%s%s %s", indent, styles.TreeBranch.Render(prefix), marker, styled, when)
}

func (m *BrowserModel) renderDetail(node *application.TreeNode) string {
	lines := []string{
		RenderLabelValue("Node", node.ID),
		RenderLabelValue("Created", node.CreatedAt.Format("2006-01-02 15:04:05")),
	}
	if rec, ok := m.history.Interaction(node.ID); ok {
		lines = append(lines, RenderLabelValue("Kind", rec.Kind.Label()))
		if rec.Name != "" {
			lines = append(lines, RenderLabelValue("Name", rec.Name))
		}
		if rec.Params != nil {
			lines = append(lines, RenderLabelValue("Query", styles.Query.Render(domain.QueryString(rec.Params.Selection))))
		}
	} else {
		lines = append(lines, RenderLabelValue("Kind", "root"))
	}
	return styles.Detail.Render(strings.Join(lines, "\n"))
}

// SetSize updates the view dimensions
func (m *BrowserModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	m.pager.SetPageSize(pageSizeFor(height, browserChrome))
}

// Reload rebuilds the tree from the history
func (m *BrowserModel) Reload() tea.Cmd {
	return m.loadTree
}
