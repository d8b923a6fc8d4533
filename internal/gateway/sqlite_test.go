package gateway

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/alexanderramin/skilltree/internal/skilltree"
	"github.com/alexanderramin/skilltree/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGateway(t *testing.T) (*SQLGateway, *sql.DB) {
	t.Helper()
	conn := testutil.NewDB(t)
	return NewSQLGateway(conn, Options{}), conn
}

func mustTree(t *testing.T, g *SQLGateway, name string) *domain.SkillTree {
	t.Helper()
	tree, err := g.InsertTree(context.Background(), domain.NewTree{Name: name, CreatedBy: "mgr"})
	require.NoError(t, err)
	return tree
}

func mustNode(t *testing.T, g *SQLGateway, treeID, title string, parent *string, order int) *domain.SkillNode {
	t.Helper()
	n, err := g.InsertNode(context.Background(), &domain.SkillNode{TreeID: treeID, ParentID: parent, Title: title, OrderIndex: order})
	require.NoError(t, err)
	return n
}

func TestGateway_TreeLifecycle(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()

	tree, err := g.InsertTree(ctx, domain.NewTree{Name: "Go", Description: "basics", CreatedBy: "mgr"})
	require.NoError(t, err)
	assert.NotEmpty(t, tree.ID)
	assert.False(t, tree.CreatedAt.IsZero())

	got, err := g.GetTree(ctx, tree.ID)
	require.NoError(t, err)
	assert.Equal(t, "basics", got.Description)

	got.Name = "Go, revised"
	updated, err := g.UpdateTree(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Go, revised", updated.Name)

	trees, err := g.ListTrees(ctx)
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, "Go, revised", trees[0].Name)
}

func TestGateway_UpdateTree_ReturnsStoredRow(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()
	tree := mustTree(t, g, "Go")
	before, err := g.GetTree(ctx, tree.ID)
	require.NoError(t, err)

	updated, err := g.UpdateTree(ctx, &domain.SkillTree{
		ID:        tree.ID,
		Name:      "Go, revised",
		CreatedBy: "someone-else",
	})
	require.NoError(t, err)

	assert.Equal(t, "Go, revised", updated.Name)
	assert.Equal(t, "mgr", updated.CreatedBy)
	assert.Equal(t, before.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.IsZero())

	stored, err := g.GetTree(ctx, tree.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, updated)
}

func TestGateway_UpdateTree_Invalid(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()
	tree := mustTree(t, g, "Go")

	_, err := g.UpdateTree(ctx, &domain.SkillTree{ID: tree.ID, Name: ""})
	assert.ErrorIs(t, err, ErrInvalid)

	stored, err := g.GetTree(ctx, tree.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", stored.Name)
}

func TestGateway_InsertTree_Invalid(t *testing.T) {
	g, _ := setupGateway(t)

	_, err := g.InsertTree(context.Background(), domain.NewTree{CreatedBy: "mgr"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, KindInvalid, KindOf(err))
}

func TestGateway_NotFound(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()

	_, err := g.GetTree(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = g.UpdateTree(ctx, &domain.SkillTree{ID: "missing", Name: "x", CreatedBy: "mgr"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, g.DeleteNode(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, g.UnassignTree(ctx, "missing", "u1"), ErrNotFound)

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "update-tree", ge.Op)
}

func TestGateway_DeleteTree_Cascades(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()
	tree := mustTree(t, g, "Go")
	root := mustNode(t, g, tree.ID, "root", nil, 0)
	mustNode(t, g, tree.ID, "child", &root.ID, 0)
	_, err := g.UpsertProgress(ctx, Completion("u1", root.ID, true))
	require.NoError(t, err)
	require.NoError(t, g.AssignTree(ctx, tree.ID, "u1", "mgr"))

	require.NoError(t, g.DeleteTree(ctx, tree.ID))

	_, err = g.GetTree(ctx, tree.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	nodes, err := g.ListNodes(ctx, tree.ID)
	require.NoError(t, err)
	assert.Empty(t, nodes)
	assignments, err := g.ListAssignments(ctx, tree.ID)
	require.NoError(t, err)
	assert.Empty(t, assignments)
	progress, err := g.ScoresForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, progress)
}

func TestGateway_DeleteTree_RollsBackOnFailure(t *testing.T) {
	conn := testutil.NewDB(t)
	injected := errors.New("disk gone")
	g := NewSQLGateway(conn, Options{
		UnitOfWork: &testutil.ExecFault{DB: conn, Nth: 2, Err: injected},
	})
	ctx := context.Background()
	tree := mustTree(t, g, "Go")
	require.NoError(t, g.AssignTree(ctx, tree.ID, "u1", "mgr"))

	err := g.DeleteTree(ctx, tree.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, injected)
	assert.Equal(t, KindBackend, KindOf(err))

	_, err = g.GetTree(ctx, tree.ID)
	require.NoError(t, err)
	assignments, err := g.ListAssignments(ctx, tree.ID)
	require.NoError(t, err)
	assert.Len(t, assignments, 1, "assignment delete must roll back with the tree delete")
}

func TestGateway_InsertNode_ParentChecks(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()
	goTree := mustTree(t, g, "Go")
	rustTree := mustTree(t, g, "Rust")
	rustRoot := mustNode(t, g, rustTree.ID, "ownership", nil, 0)

	_, err := g.InsertNode(ctx, &domain.SkillNode{TreeID: goTree.ID, ParentID: &rustRoot.ID, Title: "x"})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, skilltree.ErrForeignParent)

	ghost := "ghost"
	_, err = g.InsertNode(ctx, &domain.SkillNode{TreeID: goTree.ID, ParentID: &ghost, Title: "x"})
	assert.ErrorIs(t, err, skilltree.ErrForeignParent)

	_, err = g.InsertNode(ctx, &domain.SkillNode{TreeID: goTree.ID})
	assert.ErrorIs(t, err, ErrInvalid)

	nodes, err := g.ListNodes(ctx, goTree.ID)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestGateway_UpdateNode(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()
	tree := mustTree(t, g, "Go")
	a := mustNode(t, g, tree.ID, "a", nil, 0)
	b := mustNode(t, g, tree.ID, "b", &a.ID, 0)
	c := mustNode(t, g, tree.ID, "c", nil, 1)

	title := "b, renamed"
	order := 4
	moved, err := g.UpdateNode(ctx, domain.NodePatch{ID: b.ID, Title: &title, ParentID: &c.ID, OrderIndex: &order})
	require.NoError(t, err)
	assert.Equal(t, title, moved.Title)
	assert.True(t, moved.HasParent(c.ID))
	assert.Equal(t, 4, moved.OrderIndex)

	_, err = g.UpdateNode(ctx, domain.NodePatch{ID: c.ID, ParentID: &b.ID})
	assert.ErrorIs(t, err, skilltree.ErrCycle)
	assert.ErrorIs(t, err, ErrInvalid)

	rooted, err := g.UpdateNode(ctx, domain.NodePatch{ID: b.ID, ClearParent: true})
	require.NoError(t, err)
	assert.True(t, rooted.IsRoot())

	empty := ""
	_, err = g.UpdateNode(ctx, domain.NodePatch{ID: b.ID, Title: &empty})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = g.UpdateNode(ctx, domain.NodePatch{ID: "missing", Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGateway_DeleteNode_RemovesSubtree(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()
	tree := mustTree(t, g, "Go")
	a := mustNode(t, g, tree.ID, "a", nil, 0)
	b := mustNode(t, g, tree.ID, "b", &a.ID, 0)
	mustNode(t, g, tree.ID, "c", &b.ID, 0)
	keep := mustNode(t, g, tree.ID, "keep", nil, 1)

	require.NoError(t, g.DeleteNode(ctx, a.ID))

	nodes, err := g.ListNodes(ctx, tree.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, keep.ID, nodes[0].ID)
}

func TestGateway_Progress(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()
	goTree := mustTree(t, g, "Go")
	rustTree := mustTree(t, g, "Rust")
	a := mustNode(t, g, goTree.ID, "a", nil, 0)
	b := mustNode(t, g, goTree.ID, "b", nil, 1)
	r := mustNode(t, g, rustTree.ID, "r", nil, 0)

	p, err := g.UpsertProgress(ctx, Completion("u1", a.ID, true))
	require.NoError(t, err)
	assert.Equal(t, domain.ScoreMax, p.Score)
	_, err = g.UpsertProgress(ctx, Score("u1", b.ID, 6))
	require.NoError(t, err)
	_, err = g.UpsertProgress(ctx, Score("u1", r.ID, 10))
	require.NoError(t, err)
	_, err = g.UpsertProgress(ctx, Completion("u2", a.ID, true))
	require.NoError(t, err)

	done, err := g.ProgressForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{a.ID: true, b.ID: false, r.ID: true}, done)

	scoped, err := g.ProgressForUserAndTree(ctx, "u1", goTree.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgressMap{a.ID: 10, b.ID: 6}, scoped)

	_, err = g.UpsertProgress(ctx, Completion("u1", a.ID, false))
	require.NoError(t, err)
	scores, err := g.ScoresForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, scores[a.ID])
}

func TestGateway_UpsertProgress_Rejects(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()

	tests := []struct {
		name string
		w    ProgressWrite
		kind Kind
	}{
		{"score above max", Score("u1", "n1", 11), KindInvalid},
		{"negative score", Score("u1", "n1", -1), KindInvalid},
		{"nothing to write", ProgressWrite{UserID: "u1", NodeID: "n1"}, KindInvalid},
		{"missing user", Completion("", "n1", true), KindInvalid},
		{"unknown node", Completion("u1", "n1", true), KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.UpsertProgress(ctx, tt.w)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestGateway_ListTreesForUser(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()
	team, err := g.InsertTeam(ctx, &domain.Team{Name: "Platform"})
	require.NoError(t, err)
	user, err := g.InsertUser(ctx, &domain.User{Email: "ana@example.com", Role: domain.RoleMember, TeamID: &team.ID})
	require.NoError(t, err)

	assigned := mustTree(t, g, "assigned")
	teamTree, err := g.InsertTree(ctx, domain.NewTree{Name: "team", CreatedBy: "mgr", TeamID: &team.ID})
	require.NoError(t, err)
	mustTree(t, g, "unrelated")
	require.NoError(t, g.AssignTree(ctx, assigned.ID, user.ID, "mgr"))

	trees, err := g.ListTreesForUser(ctx, user.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(trees))
	for _, tr := range trees {
		names = append(names, tr.Name)
	}
	assert.ElementsMatch(t, []string{assigned.Name, teamTree.Name}, names)

	require.NoError(t, g.UnassignTree(ctx, assigned.ID, user.ID))
	trees, err = g.ListTreesForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, "team", trees[0].Name)
}

func TestGateway_UsersAndTeams(t *testing.T) {
	g, _ := setupGateway(t)
	ctx := context.Background()

	_, err := g.InsertUser(ctx, &domain.User{Email: "not-an-email", Role: domain.RoleMember})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = g.InsertUser(ctx, &domain.User{Email: "a@example.com", Role: "owner"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = g.InsertUser(ctx, &domain.User{Email: "a@example.com", Role: domain.RoleManager})
	require.NoError(t, err)
	_, err = g.InsertUser(ctx, &domain.User{Email: "a@example.com", Role: domain.RoleMember})
	assert.ErrorIs(t, err, ErrConflict)

	users, err := g.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, domain.RoleManager, users[0].Role)

	_, err = g.InsertTeam(ctx, &domain.Team{Name: "Data"})
	require.NoError(t, err)
	teams, err := g.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Data", teams[0].Name)
}

func TestGateway_ExpiredDeadlineIsTimeout(t *testing.T) {
	g, _ := setupGateway(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := g.ListTrees(ctx)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = g.DeleteTree(ctx, "any")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGateway_Metrics(t *testing.T) {
	conn := testutil.NewDB(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	g := NewSQLGateway(conn, Options{Metrics: m})
	ctx := context.Background()

	tree := mustTree(t, g, "Go")
	node := mustNode(t, g, tree.ID, "a", nil, 0)
	_, err := g.ListNodes(ctx, tree.ID)
	require.NoError(t, err)
	_, err = g.GetTree(ctx, "missing")
	require.Error(t, err)
	_, err = g.UpsertProgress(ctx, Completion("u1", node.ID, true))
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.CallsTotal.WithLabelValues("insert-tree", "ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.CallsTotal.WithLabelValues("get-tree", "not_found")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.ProgressWrites))
	assert.Equal(t, 5, promtest.CollectAndCount(m.CallsTotal))
}

type recordingObserver struct {
	mu     sync.Mutex
	events []CallEvent
}

func (r *recordingObserver) ObserveCall(_ context.Context, e CallEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestGateway_ObserverSeesEveryCall(t *testing.T) {
	conn := testutil.NewDB(t)
	obs := &recordingObserver{}
	g := NewSQLGateway(conn, Options{Observer: obs})
	ctx := context.Background()

	tree := mustTree(t, g, "Go")
	_, err := g.GetTree(ctx, "missing")
	require.Error(t, err)

	require.Len(t, obs.events, 2)
	assert.Equal(t, "insert-tree", obs.events[0].Op)
	assert.NoError(t, obs.events[0].Err)
	assert.Equal(t, tree.ID, obs.events[0].Fields["tree_id"])
	assert.Equal(t, "get-tree", obs.events[1].Op)
	assert.ErrorIs(t, obs.events[1].Err, ErrNotFound)
}
