package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")

	// Interaction kind colors
	KindBrush   = lipgloss.Color("#60A5FA") // Blue
	KindFilter  = lipgloss.Color("#F97316") // Orange
	KindSelect  = lipgloss.Color("#EC4899") // Pink
	KindMessage = lipgloss.Color("#8B5CF6") // Violet

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// History node styles
	NodeRoot = lipgloss.NewStyle().
			Foreground(Muted).
			Bold(true)

	NodeInteraction = lipgloss.NewStyle()

	NodeSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	CurrentMarker = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true).
			SetString("● ")

	NodeTime = lipgloss.NewStyle().
			Foreground(Muted)

	// Tree indicators
	TreeBranch    = lipgloss.NewStyle().Foreground(Muted)
	TreeExpanded  = "▼ "
	TreeCollapsed = "▶ "
	TreeLeaf      = "  "

	// Detail panel
	Detail = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)

	Query = lipgloss.NewStyle().
		Foreground(Warning)

	// Labels
	InputLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	// Muted text style (for using Muted color as a style)
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// KindColor returns the color for an interaction kind tag
func KindColor(kind string) lipgloss.Color {
	switch kind {
	case "selection-interval":
		return KindBrush
	case "filter":
		return KindFilter
	case "selection-add":
		return KindSelect
	case "test":
		return KindMessage
	default:
		return Primary
	}
}
