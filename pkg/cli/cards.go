package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the terminal colors.
type Theme struct {
	Primary lipgloss.Color // accent
	Dim     lipgloss.Color // secondary text
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	Card   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),
	}
}

// DefaultCardWidth is the outer width of a rendered card.
const DefaultCardWidth = 80

// Card is one boxed block of output.
type Card struct {
	Title string
	Meta  []string // dimmed, joined with " · "
	Body  string
}

// RenderCards renders cards stacked vertically. Body text is wrapped to
// fit width.
func RenderCards(s Styles, width int, cards []Card) string {
	if width <= 4 {
		width = DefaultCardWidth
	}
	blocks := make([]string, 0, len(cards))
	for _, c := range cards {
		var sb strings.Builder
		sb.WriteString(s.Title.Render(c.Title))
		if meta := joinNonEmpty(c.Meta, " · "); meta != "" {
			sb.WriteString("\n")
			sb.WriteString(s.Help.Render(meta))
		}
		if c.Body != "" {
			sb.WriteString("\n\n")
			sb.WriteString(c.Body)
		}
		// Width excludes the border.
		blocks = append(blocks, s.Card.Width(width-2).Render(sb.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func joinNonEmpty(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// Truncate shortens s to at most width cells, ending with "…" when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	w := 0
	for i, r := range runes {
		rw := lipgloss.Width(string(r))
		if w+rw > width-1 {
			return string(runes[:i]) + "…"
		}
		w += rw
	}
	return s
}
