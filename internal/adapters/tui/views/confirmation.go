package views

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"trailbook/internal/adapters/tui/styles"
	"trailbook/internal/application/commands"
	"trailbook/internal/ports"
)

// ConfirmKeyMap defines key bindings for confirmation views
type ConfirmKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultConfirmKeys returns the default confirmation key bindings
var DefaultConfirmKeys = ConfirmKeyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}

// ConfirmationModel provides a base for confirmation-style views
type ConfirmationModel struct {
	ViewState
	Keys ConfirmKeyMap
}

// NewConfirmationModel creates a new confirmation model with default keys
func NewConfirmationModel() ConfirmationModel {
	return ConfirmationModel{
		Keys: DefaultConfirmKeys,
	}
}

// HandleKeyMsg processes key messages for confirmation views.
// Returns (handled, cmd) where handled is true if the key was processed.
func (m *ConfirmationModel) HandleKeyMsg(msg tea.KeyMsg, onConfirm, onCancel func() tea.Msg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Cancel):
		return true, func() tea.Msg { return onCancel() }
	case key.Matches(msg, m.Keys.Confirm):
		return true, func() tea.Msg { return onConfirm() }
	}
	return false, nil
}

// RenderConfirmPrompt renders the standard confirmation prompt
func RenderConfirmPrompt(question string) string {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString(" ")
	b.WriteString(styles.HelpKey.Render("y"))
	b.WriteString(styles.HelpDesc.Render(" to confirm, "))
	b.WriteString(styles.HelpKey.Render("n"))
	b.WriteString(styles.HelpDesc.Render(" to cancel"))
	return b.String()
}

// ResetModel asks before discarding a history
type ResetModel struct {
	ConfirmationModel
	history ports.History
}

// NewResetModel creates a reset confirmation for h
func NewResetModel(h ports.History) *ResetModel {
	return &ResetModel{
		ConfirmationModel: NewConfirmationModel(),
		history:           h,
	}
}

// Init initializes the view
func (m *ResetModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the reset confirmation
func (m *ResetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case errMsg:
		m.SetError(msg.err)
		return m, nil
	case tea.KeyMsg:
		_, cmd := m.HandleKeyMsg(msg, m.reset, func() tea.Msg { return SwitchToHistoryMsg{} })
		return m, cmd
	}
	return m, nil
}

func (m *ResetModel) reset() tea.Msg {
	res, err := commands.NewResetCommand(m.history, false).Execute(context.Background())
	if err != nil {
		return errMsg{err}
	}
	return ResetDoneMsg{Message: res.Message}
}

// View renders the confirmation
func (m *ResetModel) View() string {
	return NewViewBuilder().
		Title("Reset history").
		Line(RenderLabelValue("Entity", m.history.EntityID())).
		Line(RenderLabelValue("Nodes", strconv.Itoa(len(m.history.Nodes())))).
		BlankLine().
		Muted("Every recorded interaction is discarded and the saved history is overwritten.").
		BlankLine().
		Line(RenderConfirmPrompt("Reset?")).
		Message(m.Message, m.MessageErr).
		String()
}
