package skilltree

import "github.com/alexanderramin/skilltree/internal/domain"

// Walk visits nodes in pre-order, passing each node's depth (roots are 0).
// Returning false from fn skips that node's children.
func Walk(roots []*Node, fn func(n *Node, depth int) bool) {
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				visit(n.Children, depth+1)
			}
		}
	}
	visit(roots, 0)
}

// Count returns the number of nodes in the forest.
func Count(roots []*Node) int {
	total := 0
	for _, r := range roots {
		total += r.Total
	}
	return total
}

// Stats summarizes completion across a forest.
type Stats struct {
	Total     int
	Completed int
}

// Percent is the completed share of Total, 0..100. An empty forest is 0.
func (s Stats) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total) * 100
}

// StatsOf sums the root rollups.
func StatsOf(roots []*Node) Stats {
	var s Stats
	for _, r := range roots {
		s.Total += r.Total
		s.Completed += r.Done
	}
	return s
}

// ProgressStats computes completion straight from the flat node list, without
// assembling. Nodes of other trees in progress are ignored.
func ProgressStats(nodes []*domain.SkillNode, progress domain.ProgressMap) Stats {
	s := Stats{Total: len(nodes)}
	for _, n := range nodes {
		if progress.Completed(n.ID) {
			s.Completed++
		}
	}
	return s
}

// Find returns the assembled node with the given ID, or nil.
func Find(roots []*Node, id string) *Node {
	var found *Node
	Walk(roots, func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}
