package skilltree

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/skilltree/internal/domain"
)

var (
	// ErrCycle means the proposed parent is the node itself or one of its
	// descendants.
	ErrCycle = errors.New("parent would create a cycle")

	// ErrForeignParent means the proposed parent belongs to another tree or
	// is not known at all.
	ErrForeignParent = errors.New("parent is not a node of the same tree")
)

// Descendants returns the IDs of every node below id, following parent links
// in nodes. id itself is not included.
func Descendants(nodes []*domain.SkillNode, id string) map[string]bool {
	_, children := childIndex(nodes)
	out := make(map[string]bool)
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range children[cur] {
			if out[c.ID] || c.ID == id {
				continue
			}
			out[c.ID] = true
			stack = append(stack, c.ID)
		}
	}
	return out
}

// ParentCandidates lists the nodes that nodeID may be moved under: nodes of
// the same tree that are neither nodeID nor below it. An empty nodeID (a node
// not created yet) may go under any node of the tree. Input order is kept.
func ParentCandidates(nodes []*domain.SkillNode, treeID, nodeID string) []*domain.SkillNode {
	var excluded map[string]bool
	if nodeID != "" {
		excluded = Descendants(nodes, nodeID)
	}
	var out []*domain.SkillNode
	for _, n := range nodes {
		if n.TreeID != treeID || n.ID == nodeID || excluded[n.ID] {
			continue
		}
		out = append(out, n)
	}
	return out
}

// ValidateParent checks that moving nodeID (in treeID) under parentID keeps
// the tree acyclic and single-tree. A nil parentID is always valid.
func ValidateParent(nodes []*domain.SkillNode, treeID, nodeID string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == nodeID {
		return fmt.Errorf("node %s: %w", nodeID, ErrCycle)
	}
	var parent *domain.SkillNode
	for _, n := range nodes {
		if n.ID == *parentID {
			parent = n
			break
		}
	}
	if parent == nil || parent.TreeID != treeID {
		return fmt.Errorf("parent %s: %w", *parentID, ErrForeignParent)
	}
	if nodeID != "" && Descendants(nodes, nodeID)[*parentID] {
		return fmt.Errorf("node %s under %s: %w", nodeID, *parentID, ErrCycle)
	}
	return nil
}
