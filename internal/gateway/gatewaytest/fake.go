// Package gatewaytest provides an in-memory gateway.Gateway with failure
// injection and call hooks for tests of code that consumes a gateway.
package gatewaytest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/alexanderramin/skilltree/internal/gateway"
	"github.com/google/uuid"
)

// Fake keeps records in insertion order. Op names match the SQL gateway's
// (list-trees, update-tree, upsert-progress, ...).
type Fake struct {
	mu          sync.Mutex
	trees       []*domain.SkillTree
	nodes       []*domain.SkillNode
	progress    map[string]domain.ProgressMap // user -> node -> score
	assignments []*domain.TreeAssignment
	users       []*domain.User
	teams       []*domain.Team

	failures map[string]error
	hooks    map[string]func(ctx context.Context)
	calls    []string
}

var _ gateway.Gateway = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		progress: make(map[string]domain.ProgressMap),
		failures: make(map[string]error),
		hooks:    make(map[string]func(ctx context.Context)),
	}
}

// FailOn makes every call to op fail with err until FailOn(op, nil).
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// Before runs fn at the start of every call to op, before the call touches
// any state. fn may block.
func (f *Fake) Before(op string, fn func(ctx context.Context)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[op] = fn
}

// Calls returns the ops invoked so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *Fake) SeedTree(t *domain.SkillTree) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *t
	f.trees = append(f.trees, &c)
}

func (f *Fake) SeedNode(n *domain.SkillNode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes = append(f.nodes, n.Clone())
}

func (f *Fake) SeedProgress(userID, nodeID string, score int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setScore(userID, nodeID, score)
}

// Assignments returns the stored assignment rows for treeID.
func (f *Fake) Assignments(treeID string) []domain.TreeAssignment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TreeAssignment
	for _, a := range f.assignments {
		if a.TreeID == treeID {
			out = append(out, *a)
		}
	}
	return out
}

// enter records the call, runs its hook and returns any injected failure.
// On success the caller holds f.mu and must call f.mu.Unlock.
func (f *Fake) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	hook := f.hooks[op]
	f.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err := ctx.Err(); err != nil {
		kind := gateway.KindBackend
		if errors.Is(err, context.DeadlineExceeded) {
			kind = gateway.KindTimeout
		}
		return &gateway.Error{Op: op, Kind: kind, Err: err}
	}

	f.mu.Lock()
	if err := f.failures[op]; err != nil {
		f.mu.Unlock()
		var ge *gateway.Error
		if errors.As(err, &ge) {
			return err
		}
		return &gateway.Error{Op: op, Kind: gateway.KindBackend, Err: err}
	}
	return nil
}

func notFound(op, entity, id string) error {
	return &gateway.Error{Op: op, Kind: gateway.KindNotFound, Err: fmt.Errorf("%s %s: not found", entity, id)}
}

func (f *Fake) ListTrees(ctx context.Context) ([]*domain.SkillTree, error) {
	if err := f.enter(ctx, "list-trees"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return cloneTrees(f.trees), nil
}

func (f *Fake) ListTreesForUser(ctx context.Context, userID string) ([]*domain.SkillTree, error) {
	if err := f.enter(ctx, "list-trees-for-user"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	var teamID *string
	for _, u := range f.users {
		if u.ID == userID {
			teamID = u.TeamID
		}
	}
	var out []*domain.SkillTree
	for _, t := range f.trees {
		assigned := slices.ContainsFunc(f.assignments, func(a *domain.TreeAssignment) bool {
			return a.TreeID == t.ID && a.UserID == userID
		})
		sameTeam := teamID != nil && t.TeamID != nil && *teamID == *t.TeamID
		if assigned || sameTeam {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *Fake) GetTree(ctx context.Context, id string) (*domain.SkillTree, error) {
	const op = "get-tree"
	if err := f.enter(ctx, op); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	for _, t := range f.trees {
		if t.ID == id {
			c := *t
			return &c, nil
		}
	}
	return nil, notFound(op, "skill tree", id)
}

func (f *Fake) InsertTree(ctx context.Context, in domain.NewTree) (*domain.SkillTree, error) {
	const op = "insert-tree"
	if err := domain.Validate(&in); err != nil {
		return nil, &gateway.Error{Op: op, Kind: gateway.KindInvalid, Err: err}
	}
	if err := f.enter(ctx, op); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	now := time.Now().UTC()
	t := &domain.SkillTree{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   in.CreatedBy,
		TeamID:      in.TeamID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.trees = append(f.trees, t)
	c := *t
	return &c, nil
}

func (f *Fake) UpdateTree(ctx context.Context, t *domain.SkillTree) (*domain.SkillTree, error) {
	const op = "update-tree"
	if err := f.enter(ctx, op); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	for _, cur := range f.trees {
		if cur.ID == t.ID {
			c := *cur
			c.Name, c.Description, c.TeamID = t.Name, t.Description, t.TeamID
			c.UpdatedAt = time.Now().UTC()
			if err := domain.Validate(&c); err != nil {
				return nil, &gateway.Error{Op: op, Kind: gateway.KindInvalid, Err: err}
			}
			*cur = c
			return &c, nil
		}
	}
	return nil, notFound(op, "skill tree", t.ID)
}

func (f *Fake) DeleteTree(ctx context.Context, id string) error {
	const op = "delete-tree"
	if err := f.enter(ctx, op); err != nil {
		return err
	}
	defer f.mu.Unlock()
	idx := slices.IndexFunc(f.trees, func(t *domain.SkillTree) bool { return t.ID == id })
	if idx < 0 {
		return notFound(op, "skill tree", id)
	}
	f.trees = slices.Delete(f.trees, idx, idx+1)
	f.assignments = slices.DeleteFunc(f.assignments, func(a *domain.TreeAssignment) bool { return a.TreeID == id })
	removed := make(map[string]bool)
	f.nodes = slices.DeleteFunc(f.nodes, func(n *domain.SkillNode) bool {
		if n.TreeID == id {
			removed[n.ID] = true
			return true
		}
		return false
	})
	f.dropProgress(removed)
	return nil
}

func (f *Fake) ListNodes(ctx context.Context, treeID string) ([]*domain.SkillNode, error) {
	if err := f.enter(ctx, "list-nodes"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	var out []*domain.SkillNode
	for _, n := range f.nodes {
		if n.TreeID == treeID {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

func (f *Fake) InsertNode(ctx context.Context, n *domain.SkillNode) (*domain.SkillNode, error) {
	const op = "insert-node"
	node := n.Clone()
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	node.CreatedAt, node.UpdatedAt = now, now
	if err := domain.Validate(node); err != nil {
		return nil, &gateway.Error{Op: op, Kind: gateway.KindInvalid, Err: err}
	}
	if err := f.enter(ctx, op); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	f.nodes = append(f.nodes, node)
	return node.Clone(), nil
}

func (f *Fake) UpdateNode(ctx context.Context, patch domain.NodePatch) (*domain.SkillNode, error) {
	const op = "update-node"
	if err := f.enter(ctx, op); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	for _, n := range f.nodes {
		if n.ID == patch.ID {
			patch.Apply(n)
			n.UpdatedAt = time.Now().UTC()
			return n.Clone(), nil
		}
	}
	return nil, notFound(op, "skill node", patch.ID)
}

func (f *Fake) DeleteNode(ctx context.Context, id string) error {
	const op = "delete-node"
	if err := f.enter(ctx, op); err != nil {
		return err
	}
	defer f.mu.Unlock()
	if !slices.ContainsFunc(f.nodes, func(n *domain.SkillNode) bool { return n.ID == id }) {
		return notFound(op, "skill node", id)
	}
	removed := map[string]bool{id: true}
	for grew := true; grew; {
		grew = false
		for _, n := range f.nodes {
			if !removed[n.ID] && n.ParentID != nil && removed[*n.ParentID] {
				removed[n.ID] = true
				grew = true
			}
		}
	}
	f.nodes = slices.DeleteFunc(f.nodes, func(n *domain.SkillNode) bool { return removed[n.ID] })
	f.dropProgress(removed)
	return nil
}

func (f *Fake) ProgressForUser(ctx context.Context, userID string) (map[string]bool, error) {
	if err := f.enter(ctx, "progress-for-user"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return f.progress[userID].CompletionMap(), nil
}

func (f *Fake) ProgressForUserAndTree(ctx context.Context, userID, treeID string) (domain.ProgressMap, error) {
	if err := f.enter(ctx, "progress-for-user-and-tree"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	out := make(domain.ProgressMap)
	for _, n := range f.nodes {
		if n.TreeID != treeID {
			continue
		}
		if score, ok := f.progress[userID][n.ID]; ok {
			out[n.ID] = score
		}
	}
	return out, nil
}

func (f *Fake) ScoresForUser(ctx context.Context, userID string) (domain.ProgressMap, error) {
	if err := f.enter(ctx, "scores-for-user"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return f.progress[userID].Clone(), nil
}

func (f *Fake) UpsertProgress(ctx context.Context, w gateway.ProgressWrite) (*domain.Progress, error) {
	const op = "upsert-progress"
	score, ok := w.ResolvedScore()
	if !ok || score < 0 || score > domain.ScoreMax {
		return nil, &gateway.Error{Op: op, Kind: gateway.KindInvalid, Err: errors.New("bad progress write")}
	}
	if err := f.enter(ctx, op); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	f.setScore(w.UserID, w.NodeID, score)
	return &domain.Progress{UserID: w.UserID, NodeID: w.NodeID, Score: score, UpdatedAt: time.Now().UTC()}, nil
}

func (f *Fake) AssignTree(ctx context.Context, treeID, userID, assignedBy string) error {
	if err := f.enter(ctx, "assign-tree"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	f.assignments = slices.DeleteFunc(f.assignments, func(a *domain.TreeAssignment) bool {
		return a.TreeID == treeID && a.UserID == userID
	})
	f.assignments = append(f.assignments, &domain.TreeAssignment{
		TreeID: treeID, UserID: userID, AssignedBy: assignedBy, AssignedAt: time.Now().UTC(),
	})
	return nil
}

func (f *Fake) UnassignTree(ctx context.Context, treeID, userID string) error {
	const op = "unassign-tree"
	if err := f.enter(ctx, op); err != nil {
		return err
	}
	defer f.mu.Unlock()
	before := len(f.assignments)
	f.assignments = slices.DeleteFunc(f.assignments, func(a *domain.TreeAssignment) bool {
		return a.TreeID == treeID && a.UserID == userID
	})
	if len(f.assignments) == before {
		return notFound(op, "tree assignment", treeID+"/"+userID)
	}
	return nil
}

func (f *Fake) ListAssignments(ctx context.Context, treeID string) ([]*domain.TreeAssignment, error) {
	if err := f.enter(ctx, "list-assignments"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	var out []*domain.TreeAssignment
	for _, a := range f.assignments {
		if a.TreeID == treeID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *Fake) InsertUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	if err := f.enter(ctx, "insert-user"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	c := *u
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()
	f.users = append(f.users, &c)
	out := c
	return &out, nil
}

func (f *Fake) ListUsers(ctx context.Context) ([]*domain.User, error) {
	if err := f.enter(ctx, "list-users"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	out := make([]*domain.User, 0, len(f.users))
	for _, u := range f.users {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func (f *Fake) InsertTeam(ctx context.Context, t *domain.Team) (*domain.Team, error) {
	if err := f.enter(ctx, "insert-team"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	c := *t
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()
	f.teams = append(f.teams, &c)
	out := c
	return &out, nil
}

func (f *Fake) ListTeams(ctx context.Context) ([]*domain.Team, error) {
	if err := f.enter(ctx, "list-teams"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	out := make([]*domain.Team, 0, len(f.teams))
	for _, t := range f.teams {
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

// setScore must be called with f.mu held.
func (f *Fake) setScore(userID, nodeID string, score int) {
	if f.progress[userID] == nil {
		f.progress[userID] = make(domain.ProgressMap)
	}
	f.progress[userID][nodeID] = score
}

// dropProgress must be called with f.mu held.
func (f *Fake) dropProgress(nodeIDs map[string]bool) {
	for _, scores := range f.progress {
		for id := range nodeIDs {
			delete(scores, id)
		}
	}
}

func cloneTrees(in []*domain.SkillTree) []*domain.SkillTree {
	out := make([]*domain.SkillTree, 0, len(in))
	for _, t := range in {
		c := *t
		out = append(out, &c)
	}
	return out
}
