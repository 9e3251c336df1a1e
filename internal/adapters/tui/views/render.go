package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"trailbook/internal/adapters/tui/styles"
)

// RenderKeyHelp formats one key binding as "key description"
func RenderKeyHelp(b key.Binding) string {
	h := b.Help()
	return styles.HelpKey.Render(h.Key) + " " + styles.HelpDesc.Render(h.Desc)
}

// RenderHelpLine joins the help of several bindings on one line
func RenderHelpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.Enabled() {
			parts = append(parts, RenderKeyHelp(b))
		}
	}
	return strings.Join(parts, styles.HelpSeparator.String())
}

// RenderMessage styles a status message; empty messages render as nothing
func RenderMessage(message string, isError bool) string {
	switch {
	case message == "":
		return ""
	case isError:
		return styles.ErrorMsg.Render(message)
	default:
		return styles.Success.Render(message)
	}
}

// RenderLabelValue renders "label: value"
func RenderLabelValue(label, value string) string {
	return styles.InputLabel.Render(label+":") + " " + value
}

// RenderPageInfo renders "page x/y" when a list spans several pages
func RenderPageInfo(p *Paginator) string {
	if p.TotalPages() <= 1 {
		return ""
	}
	return styles.MutedText.Render(fmt.Sprintf("page %d/%d", p.CurrentPage(), p.TotalPages()))
}

// ViewBuilder collects the rows of a screen
type ViewBuilder struct {
	rows []string
}

// NewViewBuilder creates an empty view builder
func NewViewBuilder() *ViewBuilder {
	return &ViewBuilder{}
}

// Title adds the screen title
func (v *ViewBuilder) Title(title string) *ViewBuilder {
	return v.Line(styles.Title.Render(title))
}

// Subtitle adds a subtitle followed by a blank row
func (v *ViewBuilder) Subtitle(subtitle string) *ViewBuilder {
	return v.Line(styles.Subtitle.Render(subtitle)).BlankLine()
}

// Line adds one row of text
func (v *ViewBuilder) Line(text string) *ViewBuilder {
	v.rows = append(v.rows, text)
	return v
}

// BlankLine adds an empty row
func (v *ViewBuilder) BlankLine() *ViewBuilder {
	return v.Line("")
}

// Muted adds a row of muted text
func (v *ViewBuilder) Muted(text string) *ViewBuilder {
	return v.Line(styles.MutedText.Render(text))
}

// Message adds a status message after a blank row; empty messages are skipped
func (v *ViewBuilder) Message(message string, isError bool) *ViewBuilder {
	if message == "" {
		return v
	}
	return v.BlankLine().Line(RenderMessage(message, isError))
}

// Help adds the key help line after a blank row
func (v *ViewBuilder) Help(bindings ...key.Binding) *ViewBuilder {
	return v.BlankLine().Line(RenderHelpLine(bindings...))
}

// String renders the rows inside the app frame
func (v *ViewBuilder) String() string {
	return styles.App.Render(strings.Join(v.rows, "\n"))
}
