package gateway

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/alexanderramin/skilltree/internal/db"
	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/alexanderramin/skilltree/internal/repository"
	"github.com/alexanderramin/skilltree/internal/skilltree"
	"github.com/google/uuid"
)

// DefaultTimeout bounds a gateway call when Options.Timeout is not set.
const DefaultTimeout = 10 * time.Second

type Options struct {
	// Timeout bounds every call. Zero means DefaultTimeout.
	Timeout  time.Duration
	Observer CallObserver
	Metrics  *Metrics
	// UnitOfWork overrides the transaction runner, for tests.
	UnitOfWork db.UnitOfWork
	Now        func() time.Time
}

// SQLGateway implements Gateway over the SQLite repositories.
type SQLGateway struct {
	trees       repository.TreeRepo
	nodes       repository.NodeRepo
	progress    repository.ProgressRepo
	assignments repository.AssignmentRepo
	users       repository.UserRepo
	teams       repository.TeamRepo
	uow         db.UnitOfWork

	timeout  time.Duration
	observer CallObserver
	metrics  *Metrics
	now      func() time.Time
}

var _ Gateway = (*SQLGateway)(nil)

func NewSQLGateway(conn *sql.DB, opts Options) *SQLGateway {
	g := &SQLGateway{
		trees:       repository.NewSQLiteTreeRepo(conn),
		nodes:       repository.NewSQLiteNodeRepo(conn),
		progress:    repository.NewSQLiteProgressRepo(conn),
		assignments: repository.NewSQLiteAssignmentRepo(conn),
		users:       repository.NewSQLiteUserRepo(conn),
		teams:       repository.NewSQLiteTeamRepo(conn),
		uow:         opts.UnitOfWork,
		timeout:     opts.Timeout,
		observer:    opts.Observer,
		metrics:     opts.Metrics,
		now:         opts.Now,
	}
	if g.uow == nil {
		g.uow = db.NewTxRunner(conn)
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.observer == nil {
		g.observer = NoopCallObserver{}
	}
	if g.now == nil {
		g.now = func() time.Time { return time.Now().UTC() }
	}
	return g
}

// call runs fn under the per-call timeout and reports the outcome.
func (g *SQLGateway) call(ctx context.Context, op string, fields map[string]any, fn func(ctx context.Context) error) error {
	startedAt := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	err := classify(callCtx, op, fn(callCtx))

	elapsed := time.Since(startedAt)
	g.metrics.observeCall(op, err, elapsed)
	g.observer.ObserveCall(ctx, CallEvent{
		Op:        op,
		StartedAt: startedAt,
		Duration:  elapsed,
		Err:       err,
		Fields:    fields,
	})
	return err
}

func (g *SQLGateway) ListTrees(ctx context.Context) (trees []*domain.SkillTree, err error) {
	err = g.call(ctx, "list-trees", nil, func(ctx context.Context) error {
		trees, err = g.trees.List(ctx)
		return err
	})
	return trees, err
}

func (g *SQLGateway) ListTreesForUser(ctx context.Context, userID string) (trees []*domain.SkillTree, err error) {
	err = g.call(ctx, "list-trees-for-user", map[string]any{"user_id": userID}, func(ctx context.Context) error {
		trees, err = g.trees.ListAssignedTo(ctx, userID)
		return err
	})
	return trees, err
}

func (g *SQLGateway) GetTree(ctx context.Context, id string) (tree *domain.SkillTree, err error) {
	err = g.call(ctx, "get-tree", map[string]any{"tree_id": id}, func(ctx context.Context) error {
		tree, err = g.trees.GetByID(ctx, id)
		return err
	})
	return tree, err
}

func (g *SQLGateway) InsertTree(ctx context.Context, in domain.NewTree) (*domain.SkillTree, error) {
	const op = "insert-tree"
	if err := domain.Validate(&in); err != nil {
		return nil, invalid(op, err)
	}
	now := g.now()
	tree := &domain.SkillTree{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   in.CreatedBy,
		TeamID:      in.TeamID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := g.call(ctx, op, map[string]any{"tree_id": tree.ID}, func(ctx context.Context) error {
		return g.trees.Create(ctx, tree)
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func (g *SQLGateway) UpdateTree(ctx context.Context, t *domain.SkillTree) (*domain.SkillTree, error) {
	const op = "update-tree"
	if t == nil {
		return nil, invalid(op, errors.New("nil tree"))
	}

	// Only name, description and team are writable; the stored row supplies
	// the rest of the returned record.
	var stored *domain.SkillTree
	err := g.call(ctx, op, map[string]any{"tree_id": t.ID}, func(ctx context.Context) error {
		return g.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			txTrees := repository.NewSQLiteTreeRepo(tx)
			current, err := txTrees.GetByID(ctx, t.ID)
			if err != nil {
				return err
			}
			current.Name = t.Name
			current.Description = t.Description
			current.TeamID = t.TeamID
			current.UpdatedAt = g.now()
			if err := domain.Validate(current); err != nil {
				return invalid(op, err)
			}
			if err := txTrees.Update(ctx, current); err != nil {
				return err
			}
			stored, err = txTrees.GetByID(ctx, t.ID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (g *SQLGateway) DeleteTree(ctx context.Context, id string) error {
	return g.call(ctx, "delete-tree", map[string]any{"tree_id": id}, func(ctx context.Context) error {
		return g.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			if err := repository.NewSQLiteAssignmentRepo(tx).DeleteByTree(ctx, id); err != nil {
				return err
			}
			return repository.NewSQLiteTreeRepo(tx).Delete(ctx, id)
		})
	})
}

func (g *SQLGateway) ListNodes(ctx context.Context, treeID string) (nodes []*domain.SkillNode, err error) {
	err = g.call(ctx, "list-nodes", map[string]any{"tree_id": treeID}, func(ctx context.Context) error {
		nodes, err = g.nodes.ListByTree(ctx, treeID)
		return err
	})
	if err == nil {
		g.metrics.observeNodes(len(nodes))
	}
	return nodes, err
}

func (g *SQLGateway) InsertNode(ctx context.Context, n *domain.SkillNode) (*domain.SkillNode, error) {
	const op = "insert-node"
	if n == nil {
		return nil, invalid(op, errors.New("nil node"))
	}
	node := n.Clone()
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	now := g.now()
	node.CreatedAt = now
	node.UpdatedAt = now
	if err := domain.Validate(node); err != nil {
		return nil, invalid(op, err)
	}

	err := g.call(ctx, op, map[string]any{"tree_id": node.TreeID, "node_id": node.ID}, func(ctx context.Context) error {
		return g.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			txNodes := repository.NewSQLiteNodeRepo(tx)
			if node.ParentID != nil {
				siblings, err := txNodes.ListByTree(ctx, node.TreeID)
				if err != nil {
					return err
				}
				if err := skilltree.ValidateParent(siblings, node.TreeID, "", node.ParentID); err != nil {
					return invalid(op, err)
				}
			}
			return txNodes.Create(ctx, node)
		})
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (g *SQLGateway) UpdateNode(ctx context.Context, patch domain.NodePatch) (*domain.SkillNode, error) {
	const op = "update-node"
	if err := domain.Validate(&patch); err != nil {
		return nil, invalid(op, err)
	}

	var node *domain.SkillNode
	err := g.call(ctx, op, map[string]any{"node_id": patch.ID}, func(ctx context.Context) error {
		return g.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			txNodes := repository.NewSQLiteNodeRepo(tx)
			current, err := txNodes.GetByID(ctx, patch.ID)
			if err != nil {
				return err
			}
			if patch.MovesParent() && !patch.ClearParent {
				treeNodes, err := txNodes.ListByTree(ctx, current.TreeID)
				if err != nil {
					return err
				}
				if err := skilltree.ValidateParent(treeNodes, current.TreeID, current.ID, patch.ParentID); err != nil {
					return invalid(op, err)
				}
			}
			patch.Apply(current)
			current.UpdatedAt = g.now()
			if err := domain.Validate(current); err != nil {
				return invalid(op, err)
			}
			if err := txNodes.Update(ctx, current); err != nil {
				return err
			}
			node = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (g *SQLGateway) DeleteNode(ctx context.Context, id string) error {
	return g.call(ctx, "delete-node", map[string]any{"node_id": id}, func(ctx context.Context) error {
		return g.nodes.Delete(ctx, id)
	})
}

func (g *SQLGateway) ProgressForUser(ctx context.Context, userID string) (map[string]bool, error) {
	scores, err := g.scores(ctx, "progress-for-user", userID, "")
	if err != nil {
		return nil, err
	}
	return scores.CompletionMap(), nil
}

func (g *SQLGateway) ProgressForUserAndTree(ctx context.Context, userID, treeID string) (domain.ProgressMap, error) {
	return g.scores(ctx, "progress-for-user-and-tree", userID, treeID)
}

func (g *SQLGateway) ScoresForUser(ctx context.Context, userID string) (domain.ProgressMap, error) {
	return g.scores(ctx, "scores-for-user", userID, "")
}

// scores loads a user's progress, scoped to treeID when it is not empty.
func (g *SQLGateway) scores(ctx context.Context, op, userID, treeID string) (domain.ProgressMap, error) {
	fields := map[string]any{"user_id": userID}
	if treeID != "" {
		fields["tree_id"] = treeID
	}
	out := make(domain.ProgressMap)
	err := g.call(ctx, op, fields, func(ctx context.Context) error {
		var rows []*domain.Progress
		var err error
		if treeID == "" {
			rows, err = g.progress.ListByUser(ctx, userID)
		} else {
			rows, err = g.progress.ListByUserAndTree(ctx, userID, treeID)
		}
		if err != nil {
			return err
		}
		for _, p := range rows {
			out[p.NodeID] = p.Score
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *SQLGateway) UpsertProgress(ctx context.Context, w ProgressWrite) (*domain.Progress, error) {
	const op = "upsert-progress"
	if err := domain.Validate(&w); err != nil {
		return nil, invalid(op, err)
	}
	score, ok := w.ResolvedScore()
	if !ok {
		return nil, invalid(op, errors.New("progress write sets neither completed nor score"))
	}
	p := &domain.Progress{UserID: w.UserID, NodeID: w.NodeID, Score: score, UpdatedAt: g.now()}

	err := g.call(ctx, op, map[string]any{"user_id": w.UserID, "node_id": w.NodeID, "score": score}, func(ctx context.Context) error {
		return g.progress.Upsert(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	g.metrics.observeProgressWrite()
	return p, nil
}

func (g *SQLGateway) AssignTree(ctx context.Context, treeID, userID, assignedBy string) error {
	const op = "assign-tree"
	a := &domain.TreeAssignment{TreeID: treeID, UserID: userID, AssignedBy: assignedBy, AssignedAt: g.now()}
	if err := domain.Validate(a); err != nil {
		return invalid(op, err)
	}
	return g.call(ctx, op, map[string]any{"tree_id": treeID, "user_id": userID}, func(ctx context.Context) error {
		return g.assignments.Create(ctx, a)
	})
}

func (g *SQLGateway) UnassignTree(ctx context.Context, treeID, userID string) error {
	return g.call(ctx, "unassign-tree", map[string]any{"tree_id": treeID, "user_id": userID}, func(ctx context.Context) error {
		return g.assignments.Delete(ctx, treeID, userID)
	})
}

func (g *SQLGateway) ListAssignments(ctx context.Context, treeID string) (out []*domain.TreeAssignment, err error) {
	err = g.call(ctx, "list-assignments", map[string]any{"tree_id": treeID}, func(ctx context.Context) error {
		out, err = g.assignments.ListByTree(ctx, treeID)
		return err
	})
	return out, err
}

func (g *SQLGateway) InsertUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	const op = "insert-user"
	if u == nil {
		return nil, invalid(op, errors.New("nil user"))
	}
	user := *u
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = g.now()
	if err := domain.Validate(&user); err != nil {
		return nil, invalid(op, err)
	}
	err := g.call(ctx, op, map[string]any{"user_id": user.ID}, func(ctx context.Context) error {
		return g.users.Create(ctx, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (g *SQLGateway) ListUsers(ctx context.Context) (out []*domain.User, err error) {
	err = g.call(ctx, "list-users", nil, func(ctx context.Context) error {
		out, err = g.users.List(ctx)
		return err
	})
	return out, err
}

func (g *SQLGateway) InsertTeam(ctx context.Context, t *domain.Team) (*domain.Team, error) {
	const op = "insert-team"
	if t == nil {
		return nil, invalid(op, errors.New("nil team"))
	}
	team := *t
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	team.CreatedAt = g.now()
	if err := domain.Validate(&team); err != nil {
		return nil, invalid(op, err)
	}
	err := g.call(ctx, op, map[string]any{"team_id": team.ID}, func(ctx context.Context) error {
		return g.teams.Create(ctx, &team)
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (g *SQLGateway) ListTeams(ctx context.Context) (out []*domain.Team, err error) {
	err = g.call(ctx, "list-teams", nil, func(ctx context.Context) error {
		out, err = g.teams.List(ctx)
		return err
	})
	return out, err
}
