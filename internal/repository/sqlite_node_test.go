package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/skilltree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeRepo_CreateAndGetByID(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	tree := testutil.NewTestTree("Host", "u")
	require.NoError(t, r.trees.Create(ctx, tree))

	parent := testutil.NewTestNode(tree.ID, "Parent")
	require.NoError(t, r.nodes.Create(ctx, parent))

	node := testutil.NewTestNode(tree.ID, "Child",
		testutil.WithParentID(parent.ID),
		testutil.WithOrderIndex(3),
		testutil.WithDescription("plain"),
	)
	node.RichDescription = "<p>rich</p>"
	require.NoError(t, r.nodes.Create(ctx, node))

	got, err := r.nodes.GetByID(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, tree.ID, got.TreeID)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, parent.ID, *got.ParentID)
	assert.Equal(t, "Child", got.Title)
	assert.Equal(t, "plain", got.Description)
	assert.Equal(t, "<p>rich</p>", got.RichDescription)
	assert.Equal(t, 3, got.OrderIndex)

	root, err := r.nodes.GetByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)
}

func TestNodeRepo_GetByID_NotFound(t *testing.T) {
	r := setupRepos(t)
	_, err := r.nodes.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestNodeRepo_CreateRejectsUnknownTree(t *testing.T) {
	r := setupRepos(t)
	err := r.nodes.Create(context.Background(), testutil.NewTestNode("no-such-tree", "Lost"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestNodeRepo_ListByTree_InsertionOrderAndScope(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	tree := testutil.NewTestTree("Mine", "u")
	other := testutil.NewTestTree("Other", "u")
	require.NoError(t, r.trees.Create(ctx, tree))
	require.NoError(t, r.trees.Create(ctx, other))

	first := testutil.NewTestNode(tree.ID, "First", testutil.WithOrderIndex(9))
	second := testutil.NewTestNode(tree.ID, "Second", testutil.WithOrderIndex(1))
	require.NoError(t, r.nodes.Create(ctx, first))
	require.NoError(t, r.nodes.Create(ctx, second))
	require.NoError(t, r.nodes.Create(ctx, testutil.NewTestNode(other.ID, "Elsewhere")))

	nodes, err := r.nodes.ListByTree(ctx, tree.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, first.ID, nodes[0].ID)
	assert.Equal(t, second.ID, nodes[1].ID)
}

func TestNodeRepo_UpdateMovesParent(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	tree := testutil.NewTestTree("Host", "u")
	require.NoError(t, r.trees.Create(ctx, tree))
	a := testutil.NewTestNode(tree.ID, "A")
	b := testutil.NewTestNode(tree.ID, "B", testutil.WithParentID(a.ID))
	require.NoError(t, r.nodes.Create(ctx, a))
	require.NoError(t, r.nodes.Create(ctx, b))

	b.ParentID = nil
	b.Title = "B moved"
	b.OrderIndex = 4
	require.NoError(t, r.nodes.Update(ctx, b))

	got, err := r.nodes.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, "B moved", got.Title)
	assert.Equal(t, 4, got.OrderIndex)
}

func TestNodeRepo_DeleteCascadesSubtreeAndProgress(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	tree := testutil.NewTestTree("Host", "u")
	require.NoError(t, r.trees.Create(ctx, tree))
	a := testutil.NewTestNode(tree.ID, "A")
	b := testutil.NewTestNode(tree.ID, "B", testutil.WithParentID(a.ID))
	c := testutil.NewTestNode(tree.ID, "C", testutil.WithParentID(b.ID))
	keep := testutil.NewTestNode(tree.ID, "Keep")
	require.NoError(t, r.nodes.Create(ctx, a))
	require.NoError(t, r.nodes.Create(ctx, b))
	require.NoError(t, r.nodes.Create(ctx, c))
	require.NoError(t, r.nodes.Create(ctx, keep))
	require.NoError(t, r.progress.Upsert(ctx, progressFor("u1", c.ID, 10)))

	require.NoError(t, r.nodes.Delete(ctx, a.ID))

	nodes, err := r.nodes.ListByTree(ctx, tree.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, keep.ID, nodes[0].ID)

	rows, err := r.progress.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
