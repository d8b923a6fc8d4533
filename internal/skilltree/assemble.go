// Package skilltree rebuilds the hierarchy of a skill tree from the flat node
// records the backend returns, and derives completion figures from it.
//
// Everything here is a pure function of its inputs. Results are rebuilt on
// every call and never share state with the caller's node slice beyond the
// *domain.SkillNode pointers themselves.
package skilltree

import (
	"cmp"
	"slices"

	"github.com/alexanderramin/skilltree/internal/domain"
)

// Node is one assembled tree node: the record, its ordered children and the
// viewing user's progress on it.
type Node struct {
	*domain.SkillNode
	Children  []*Node
	Completed bool
	Score     int

	// Done and Total count completed and total nodes in the subtree rooted
	// here, including the node itself.
	Done  int
	Total int
}

// Percent is the completed share of the subtree, 0..100.
func (n *Node) Percent() float64 {
	if n.Total == 0 {
		return 0
	}
	return float64(n.Done) / float64(n.Total) * 100
}

// Forest is the result of Build.
type Forest struct {
	Roots []*Node

	// Orphans reference a parent that is not in the input.
	Orphans []*domain.SkillNode

	// Unreachable have a parent in the input but no path to a root, which
	// only happens when parent links form a cycle.
	Unreachable []*domain.SkillNode
}

// Healthy reports whether every input node made it into the forest.
func (f Forest) Healthy() bool {
	return len(f.Orphans) == 0 && len(f.Unreachable) == 0
}

// Assemble converts the flat node list of one tree into a rooted forest and
// marks each node with completed[id]. Nodes missing from completed are not
// completed. Nodes whose parent is absent are left out silently; use Build to
// see them.
func Assemble(nodes []*domain.SkillNode, completed map[string]bool) []*Node {
	scores := make(domain.ProgressMap, len(completed))
	for id, done := range completed {
		scores[id] = domain.ScoreFor(done)
	}
	return Build(nodes, scores).Roots
}

// Build assembles the forest from per-node scores and reports the nodes that
// could not be placed in it.
//
// Siblings are ordered by OrderIndex; equal keys keep their input order.
// Runs in O(n log n): one pass indexes nodes by parent, then a traversal from
// the roots attaches children.
func Build(nodes []*domain.SkillNode, scores domain.ProgressMap) Forest {
	byID := make(map[string]*domain.SkillNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	roots, children := childIndex(nodes)

	var f Forest
	placed := make(map[string]bool, len(nodes))
	for _, root := range roots {
		if placed[root.ID] {
			continue
		}
		f.Roots = append(f.Roots, attach(root, children, scores, placed))
	}

	for _, n := range nodes {
		if placed[n.ID] {
			continue
		}
		if _, ok := byID[*n.ParentID]; ok {
			f.Unreachable = append(f.Unreachable, n)
		} else {
			f.Orphans = append(f.Orphans, n)
		}
	}
	return f
}

// childIndex splits nodes into roots and a parent ID -> children index, with
// every sibling group sorted stably by OrderIndex.
func childIndex(nodes []*domain.SkillNode) ([]*domain.SkillNode, map[string][]*domain.SkillNode) {
	var roots []*domain.SkillNode
	idx := make(map[string][]*domain.SkillNode)
	for _, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		idx[*n.ParentID] = append(idx[*n.ParentID], n)
	}
	sortSiblings(roots)
	for _, group := range idx {
		sortSiblings(group)
	}
	return roots, idx
}

func sortSiblings(nodes []*domain.SkillNode) {
	slices.SortStableFunc(nodes, func(a, b *domain.SkillNode) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
}

func attach(n *domain.SkillNode, children map[string][]*domain.SkillNode, scores domain.ProgressMap, placed map[string]bool) *Node {
	placed[n.ID] = true
	score := scores[n.ID]
	out := &Node{
		SkillNode: n,
		Score:     score,
		Completed: score >= domain.ScoreMax,
		Total:     1,
	}
	if out.Completed {
		out.Done = 1
	}
	for _, c := range children[n.ID] {
		// A node reachable from a root cannot be on a cycle, so placed only
		// guards against duplicate IDs in the input.
		if placed[c.ID] {
			continue
		}
		child := attach(c, children, scores, placed)
		out.Children = append(out.Children, child)
		out.Done += child.Done
		out.Total += child.Total
	}
	return out
}

// Children returns the nodes whose parent is parentID (nil for roots),
// sorted the same way Build orders siblings. The input is not modified.
func Children(nodes []*domain.SkillNode, parentID *string) []*domain.SkillNode {
	var out []*domain.SkillNode
	for _, n := range nodes {
		switch {
		case parentID == nil && n.ParentID == nil:
			out = append(out, n)
		case parentID != nil && n.HasParent(*parentID):
			out = append(out, n)
		}
	}
	sortSiblings(out)
	return out
}
