package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles used for console output.
type Theme struct {
	Brand   lipgloss.Style
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Step    lipgloss.Style
	Hint    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	DiffAdd lipgloss.Style
	DiffDel lipgloss.Style
	DiffHdr lipgloss.Style
}

// NewTheme builds the palette against r so colors follow r's profile.
func NewTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Brand: r.NewStyle().
			Foreground(lipgloss.Color("#1A1020")).
			Background(lipgloss.Color("#FBC859")).
			Bold(true).
			Padding(0, 1),
		Title:   r.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
		Label:   r.NewStyle().Foreground(lipgloss.Color("#867CC1")).Bold(true),
		Value:   r.NewStyle().Foreground(lipgloss.Color("#D1CFF6")),
		Step:    r.NewStyle().Foreground(lipgloss.Color("#15AABF")).Bold(true),
		Hint:    r.NewStyle().Foreground(lipgloss.Color("#A6A1BB")),
		Success: r.NewStyle().Foreground(lipgloss.Color("#6EF17E")).Bold(true),
		Warning: r.NewStyle().Foreground(lipgloss.Color("#FFB61E")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("#FF6E6E")).Bold(true),
		DiffAdd: r.NewStyle().Foreground(lipgloss.Color("#33C481")),
		DiffDel: r.NewStyle().Foreground(lipgloss.Color("#FF6E6E")),
		DiffHdr: r.NewStyle().Foreground(lipgloss.Color("#A58CFF")),
	}
}
