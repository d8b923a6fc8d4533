package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen      = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow     = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleYellowBold = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleRed        = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue       = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple     = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim        = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg         = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader     = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold       = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// ScoreStyle colors a 0..10 score: red below 4, yellow below 7, green above.
func ScoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 7:
		return StyleGreen
	case score >= 4:
		return StyleYellow
	case score > 0:
		return StyleRed
	default:
		return StyleDim
	}
}

// ScoreBadge renders a score as "6/10".
func ScoreBadge(score int) string {
	return ScoreStyle(score).Render(fmt.Sprintf("%d/%d", score, domain.ScoreMax))
}

// RolePill returns a colored role label.
func RolePill(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return StyleRed.Render("● admin")
	case domain.RoleManager:
		return StylePurple.Render("● manager")
	case domain.RoleMember:
		return StyleBlue.Render("○ member")
	default:
		return StyleDim.Render(string(role))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
