package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mlechner/polier/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StatusColor returns the style matching an insight status.
func StatusColor(status domain.InsightStatus) lipgloss.Style {
	switch status {
	case domain.StatusCritical:
		return StyleRed
	case domain.StatusBehind:
		return StyleRed
	case domain.StatusAtRisk:
		return StyleYellow
	case domain.StatusOnTrack:
		return StyleGreen
	case domain.StatusCompleted:
		return StyleBlue
	default:
		return StyleDim
	}
}

// StatusIndicator returns a colored indicator such as "● AT RISK".
func StatusIndicator(status domain.InsightStatus) string {
	label := strings.ToUpper(strings.ReplaceAll(string(status), "_", " "))
	return StatusColor(status).Render("● " + label)
}

// Dim renders text in the muted style.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Header renders a section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}
