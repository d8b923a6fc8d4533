package skilltree

import (
	"testing"

	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/alexanderramin/skilltree/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func sampleTree() []*domain.SkillNode {
	other := testutil.Node("O", "", 0)
	other.TreeID = "other-tree"
	return []*domain.SkillNode{
		testutil.Node("A", "", 0),
		testutil.Node("B", "A", 0),
		testutil.Node("C", "B", 0),
		testutil.Node("D", "", 1),
		other,
	}
}

func TestDescendants(t *testing.T) {
	assert.Equal(t, map[string]bool{"B": true, "C": true}, Descendants(sampleTree(), "A"))
	assert.Empty(t, Descendants(sampleTree(), "C"))
}

func TestDescendants_TerminatesOnCycle(t *testing.T) {
	nodes := []*domain.SkillNode{
		testutil.Node("P", "Q", 0),
		testutil.Node("Q", "P", 0),
	}
	assert.Equal(t, map[string]bool{"Q": true}, Descendants(nodes, "P"))
}

func TestParentCandidates(t *testing.T) {
	nodes := sampleTree()

	assert.Equal(t, []string{"A", "D"}, nodeIDs(ParentCandidates(nodes, "tree", "B")))
	assert.Equal(t, []string{"D"}, nodeIDs(ParentCandidates(nodes, "tree", "A")))
	assert.Equal(t, []string{"A", "B", "C", "D"}, nodeIDs(ParentCandidates(nodes, "tree", "")))
}

func TestValidateParent(t *testing.T) {
	nodes := sampleTree()
	ptr := func(s string) *string { return &s }

	assert.NoError(t, ValidateParent(nodes, "tree", "C", nil))
	assert.NoError(t, ValidateParent(nodes, "tree", "C", ptr("D")))
	assert.NoError(t, ValidateParent(nodes, "tree", "", ptr("A")))

	assert.ErrorIs(t, ValidateParent(nodes, "tree", "A", ptr("A")), ErrCycle)
	assert.ErrorIs(t, ValidateParent(nodes, "tree", "A", ptr("C")), ErrCycle)
	assert.ErrorIs(t, ValidateParent(nodes, "tree", "A", ptr("O")), ErrForeignParent)
	assert.ErrorIs(t, ValidateParent(nodes, "tree", "A", ptr("ghost")), ErrForeignParent)
}
