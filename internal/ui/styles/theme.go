// Package styles holds the terminal palette and gradient helpers.
package styles

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette and the styles built from it.
type Theme struct {
	Primary   lipgloss.Color // title, playing state
	Secondary lipgloss.Color // liked marker, accents

	FgBase   lipgloss.Color
	FgMuted  lipgloss.Color
	FgSubtle lipgloss.Color

	// Spectrum gradient, low to high frequencies.
	SpectrumLow  lipgloss.Color
	SpectrumHigh lipgloss.Color

	Border  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color

	styles *Styles
}

// Styles are pre-built lipgloss styles for the player screen.
type Styles struct {
	Base    lipgloss.Style
	Muted   lipgloss.Style
	Subtle  lipgloss.Style
	Title   lipgloss.Style
	Artist  lipgloss.Style
	Liked   lipgloss.Style
	Panel   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
}

var defaultTheme = Theme{
	Primary:   lipgloss.Color("#a78bfa"),
	Secondary: lipgloss.Color("#f1a208"),

	FgBase:   lipgloss.Color("#c0c0c0"),
	FgMuted:  lipgloss.Color("#808080"),
	FgSubtle: lipgloss.Color("#585858"),

	SpectrumLow:  lipgloss.Color("#5eead4"),
	SpectrumHigh: lipgloss.Color("#a78bfa"),

	Border:  lipgloss.Color("#585858"),
	Success: lipgloss.Color("#42b883"),
	Error:   lipgloss.Color("#ff5555"),
	Warning: lipgloss.Color("#f1a208"),
}

// T returns the default theme.
func T() *Theme {
	return &defaultTheme
}

// S returns the pre-built styles for this theme.
func (t *Theme) S() *Styles {
	if t.styles == nil {
		t.styles = t.buildStyles()
	}
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	base := lipgloss.NewStyle().Foreground(t.FgBase)
	return &Styles{
		Base:   base,
		Muted:  lipgloss.NewStyle().Foreground(t.FgMuted),
		Subtle: lipgloss.NewStyle().Foreground(t.FgSubtle),
		Title:  lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		Artist: base,
		Liked:  lipgloss.NewStyle().Foreground(t.Secondary),
		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Success: lipgloss.NewStyle().Foreground(t.Success),
		Error:   lipgloss.NewStyle().Foreground(t.Error),
		Warning: lipgloss.NewStyle().Foreground(t.Warning),
	}
}
