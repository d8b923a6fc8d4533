package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// HumanDate returns "Today", "Yesterday" or a date like "Jan 2, 2006",
// relative to now.
func HumanDate(t, now time.Time) string {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "Today"
	}
	y3, m3, d3 := now.AddDate(0, 0, -1).Date()
	if y2 == y3 && m2 == m3 && d2 == d3 {
		return "Yesterday"
	}
	return t.Format("Jan 2, 2006")
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// FormatTreeList renders the tree list table.
func FormatTreeList(trees []*domain.SkillTree, now time.Time) string {
	rows := make([][]string, 0, len(trees))
	for _, t := range trees {
		desc := t.Description
		if desc == "" {
			desc = Dim("--")
		}
		rows = append(rows, []string{TruncID(t.ID), Bold(t.Name), desc, HumanDate(t.CreatedAt, now)})
	}
	return RenderTable([]string{"ID", "NAME", "DESCRIPTION", "CREATED"}, rows)
}

// FormatTreeHeader renders the title block of "tree show".
func FormatTreeHeader(t *domain.SkillTree, assigned int) string {
	var b strings.Builder
	b.WriteString(Header(t.Name) + "\n")
	if t.Description != "" {
		b.WriteString(t.Description + "\n")
	}
	b.WriteString(Dim(fmt.Sprintf("id %s · created by %s · %d assigned", t.ID, t.CreatedBy, assigned)) + "\n")
	return b.String()
}

// FormatUserList renders the user table.
func FormatUserList(users []*domain.User) string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{TruncID(u.ID), u.Email, domain.CoalesceStr(u.DisplayName, Dim("--")), RolePill(u.Role), TruncID(domain.StrFromPtr(u.TeamID))})
	}
	return RenderTable([]string{"ID", "EMAIL", "NAME", "ROLE", "TEAM"}, rows)
}

// FormatTeamList renders the team table.
func FormatTeamList(teams []*domain.Team, now time.Time) string {
	rows := make([][]string, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, []string{TruncID(t.ID), Bold(t.Name), HumanDate(t.CreatedAt, now)})
	}
	return RenderTable([]string{"ID", "NAME", "CREATED"}, rows)
}

// FormatNodeList renders a flat node table with each node's score.
func FormatNodeList(nodes []*domain.SkillNode, progress domain.ProgressMap) string {
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []string{TruncID(n.ID), n.Title, fmt.Sprintf("%d", n.OrderIndex), ScoreBadge(progress[n.ID])})
	}
	return RenderTable([]string{"ID", "TITLE", "ORDER", "SCORE"}, rows)
}
