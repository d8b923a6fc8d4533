package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/skilltree/internal/skilltree"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem represents a single node in a tree display.
type TreeItem struct {
	Title  string
	ID     string // shown truncated when set
	Level  int
	IsLast bool
	// Ancestors records, per level above this item, whether that ancestor
	// was the last of its siblings. It decides where pipes continue.
	Ancestors []bool
	Completed bool
	Detail    string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// SkillTreeItems flattens an assembled forest into display rows in pre-order.
// Each row's detail is the node's score, or its subtree completion when it
// has children.
func SkillTreeItems(roots []*skilltree.Node) []TreeItem {
	var items []TreeItem
	var visit func(nodes []*skilltree.Node, level int, ancestors []bool)
	visit = func(nodes []*skilltree.Node, level int, ancestors []bool) {
		for i, n := range nodes {
			last := i == len(nodes)-1
			detail := ""
			switch {
			case len(n.Children) > 0:
				detail = fmt.Sprintf("%d/%d", n.Done, n.Total)
			case n.Score > 0 && !n.Completed:
				detail = fmt.Sprintf("%d/10", n.Score)
			}
			items = append(items, TreeItem{
				Title:     n.Title,
				ID:        n.ID,
				Level:     level,
				IsLast:    last,
				Ancestors: ancestors,
				Completed: n.Completed,
				Detail:    detail,
			})
			next := append(append([]bool(nil), ancestors...), last)
			visit(n.Children, level+1, next)
		}
	}
	visit(roots, 0, nil)
	return items
}

// RenderTree renders TreeItems as an indented tree using box-drawing
// connectors. Completed items get a green ✔ prefix and detail badges are
// right-aligned.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type lineInfo struct {
		content string
		badge   string
	}

	lines := make([]lineInfo, len(items))
	maxContentWidth := 0

	for idx, item := range items {
		var prefix strings.Builder
		if item.Level > 0 {
			// Ancestors[0] is the root level, which draws no connector.
			for lvl := 1; lvl < item.Level; lvl++ {
				if lvl < len(item.Ancestors) && item.Ancestors[lvl] {
					prefix.WriteString(treeBlank)
				} else {
					prefix.WriteString(treePipe)
				}
			}
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}

		title := item.Title
		if item.ID != "" {
			title = TruncID(item.ID) + " " + title
		}
		status := StyleDim.Render("○ ")
		if item.Completed {
			status = StyleGreen.Render("✔ ")
			title = Dim(title)
		}

		content := prefix.String() + status + title
		lines[idx].content = content
		if item.Detail != "" {
			lines[idx].badge = StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail))
		}
		maxContentWidth = max(maxContentWidth, lipgloss.Width(content))
	}

	var b strings.Builder
	for _, li := range lines {
		if li.badge == "" {
			b.WriteString(li.content + "\n")
			continue
		}
		pad := max(maxContentWidth-lipgloss.Width(li.content), 0)
		b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + li.badge + "\n")
	}
	return b.String()
}

// FormatForest renders the assembled tree followed by warnings for nodes
// that could not be placed.
func FormatForest(f skilltree.Forest) string {
	if len(f.Roots) == 0 && f.Healthy() {
		return Dim("No skills yet.") + "\n"
	}
	var b strings.Builder
	b.WriteString(RenderTree(SkillTreeItems(f.Roots)))
	for _, n := range f.Orphans {
		b.WriteString(StyleYellow.Render(fmt.Sprintf("! %s %q references missing parent %s", TruncID(n.ID), n.Title, *n.ParentID)) + "\n")
	}
	for _, n := range f.Unreachable {
		b.WriteString(StyleRed.Render(fmt.Sprintf("! %s %q is on a parent cycle", TruncID(n.ID), n.Title)) + "\n")
	}
	return b.String()
}
