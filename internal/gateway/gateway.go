// Package gateway is the record-level boundary between the progress cache and
// the store that persists trees, nodes, progress, assignments, users and
// teams. It returns flat records and never builds hierarchy.
package gateway

import (
	"context"

	"github.com/alexanderramin/skilltree/internal/domain"
)

// Gateway is the backend contract consumed by the progress cache. Every
// failure it returns is a *Error.
type Gateway interface {
	ListTrees(ctx context.Context) ([]*domain.SkillTree, error)
	ListTreesForUser(ctx context.Context, userID string) ([]*domain.SkillTree, error)
	GetTree(ctx context.Context, id string) (*domain.SkillTree, error)
	// InsertTree writes the tree row only. AssignedUserIDs are linked by
	// separate AssignTree calls.
	InsertTree(ctx context.Context, in domain.NewTree) (*domain.SkillTree, error)
	UpdateTree(ctx context.Context, t *domain.SkillTree) (*domain.SkillTree, error)
	// DeleteTree removes the tree with its assignments. Nodes and progress
	// go with it.
	DeleteTree(ctx context.Context, id string) error

	ListNodes(ctx context.Context, treeID string) ([]*domain.SkillNode, error)
	InsertNode(ctx context.Context, n *domain.SkillNode) (*domain.SkillNode, error)
	UpdateNode(ctx context.Context, patch domain.NodePatch) (*domain.SkillNode, error)
	// DeleteNode removes the node and its whole subtree.
	DeleteNode(ctx context.Context, id string) error

	ProgressForUser(ctx context.Context, userID string) (map[string]bool, error)
	ProgressForUserAndTree(ctx context.Context, userID, treeID string) (domain.ProgressMap, error)
	ScoresForUser(ctx context.Context, userID string) (domain.ProgressMap, error)
	UpsertProgress(ctx context.Context, w ProgressWrite) (*domain.Progress, error)

	AssignTree(ctx context.Context, treeID, userID, assignedBy string) error
	UnassignTree(ctx context.Context, treeID, userID string) error
	ListAssignments(ctx context.Context, treeID string) ([]*domain.TreeAssignment, error)

	InsertUser(ctx context.Context, u *domain.User) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	InsertTeam(ctx context.Context, t *domain.Team) (*domain.Team, error)
	ListTeams(ctx context.Context) ([]*domain.Team, error)
}

// ProgressWrite sets one user's progress on one node. Score wins when both
// fields are set; Completed alone writes 0 or domain.ScoreMax.
type ProgressWrite struct {
	UserID    string `validate:"required"`
	NodeID    string `validate:"required"`
	Completed *bool
	Score     *int `validate:"omitempty,min=0,max=10"`
}

// ResolvedScore returns the score the write stores and whether it names one.
func (w ProgressWrite) ResolvedScore() (int, bool) {
	switch {
	case w.Score != nil:
		return *w.Score, true
	case w.Completed != nil:
		return domain.ScoreFor(*w.Completed), true
	default:
		return 0, false
	}
}

// Completion returns a write that marks nodeID completed or not.
func Completion(userID, nodeID string, completed bool) ProgressWrite {
	return ProgressWrite{UserID: userID, NodeID: nodeID, Completed: &completed}
}

// Score returns a write that sets nodeID's score.
func Score(userID, nodeID string, score int) ProgressWrite {
	return ProgressWrite{UserID: userID, NodeID: nodeID, Score: &score}
}
