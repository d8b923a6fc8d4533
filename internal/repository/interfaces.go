package repository

import (
	"context"

	"github.com/alexanderramin/skilltree/internal/domain"
)

type TreeRepo interface {
	Create(ctx context.Context, t *domain.SkillTree) error
	GetByID(ctx context.Context, id string) (*domain.SkillTree, error)
	List(ctx context.Context) ([]*domain.SkillTree, error)
	ListAssignedTo(ctx context.Context, userID string) ([]*domain.SkillTree, error)
	Update(ctx context.Context, t *domain.SkillTree) error
	Delete(ctx context.Context, id string) error
}

type NodeRepo interface {
	Create(ctx context.Context, n *domain.SkillNode) error
	GetByID(ctx context.Context, id string) (*domain.SkillNode, error)
	ListByTree(ctx context.Context, treeID string) ([]*domain.SkillNode, error)
	Update(ctx context.Context, n *domain.SkillNode) error
	Delete(ctx context.Context, id string) error
}

type ProgressRepo interface {
	Upsert(ctx context.Context, p *domain.Progress) error
	Get(ctx context.Context, userID, nodeID string) (*domain.Progress, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Progress, error)
	ListByUserAndTree(ctx context.Context, userID, treeID string) ([]*domain.Progress, error)
}

type AssignmentRepo interface {
	Create(ctx context.Context, a *domain.TreeAssignment) error
	Delete(ctx context.Context, treeID, userID string) error
	DeleteByTree(ctx context.Context, treeID string) error
	ListByTree(ctx context.Context, treeID string) ([]*domain.TreeAssignment, error)
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

type TeamRepo interface {
	Create(ctx context.Context, t *domain.Team) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	List(ctx context.Context) ([]*domain.Team, error)
}
