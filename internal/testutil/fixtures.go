package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/google/uuid"
)

var testEmailCounter atomic.Int64

// Tree options
type TreeOption func(*domain.SkillTree)

func WithTreeTeam(teamID string) TreeOption {
	return func(t *domain.SkillTree) {
		t.TeamID = &teamID
	}
}

func WithTreeDescription(d string) TreeOption {
	return func(t *domain.SkillTree) {
		t.Description = d
	}
}

func NewTestTree(name, createdBy string, opts ...TreeOption) *domain.SkillTree {
	now := time.Now().UTC()
	t := &domain.SkillTree{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SkillNode options
type NodeOption func(*domain.SkillNode)

func WithParentID(id string) NodeOption {
	return func(n *domain.SkillNode) {
		n.ParentID = &id
	}
}

func WithOrderIndex(i int) NodeOption {
	return func(n *domain.SkillNode) {
		n.OrderIndex = i
	}
}

func WithNodeID(id string) NodeOption {
	return func(n *domain.SkillNode) {
		n.ID = id
	}
}

func WithDescription(d string) NodeOption {
	return func(n *domain.SkillNode) {
		n.Description = d
	}
}

func NewTestNode(treeID, title string, opts ...NodeOption) *domain.SkillNode {
	now := time.Now().UTC()
	n := &domain.SkillNode{
		ID:        uuid.New().String(),
		TreeID:    treeID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// User options
type UserOption func(*domain.User)

func WithRole(r domain.Role) UserOption {
	return func(u *domain.User) {
		u.Role = r
	}
}

func WithUserTeam(teamID string) UserOption {
	return func(u *domain.User) {
		u.TeamID = &teamID
	}
}

func NewTestUser(name string, opts ...UserOption) *domain.User {
	u := &domain.User{
		ID:          uuid.New().String(),
		Email:       fmt.Sprintf("user%d@example.com", testEmailCounter.Add(1)),
		DisplayName: name,
		Role:        domain.RoleMember,
		CreatedAt:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func NewTestTeam(name string) *domain.Team {
	return &domain.Team{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// Node builds a bare node for assembler tests: id, parent ("" for root)
// and order key only.
func Node(id, parent string, order int) *domain.SkillNode {
	n := &domain.SkillNode{ID: id, TreeID: "tree", Title: id, OrderIndex: order}
	if parent != "" {
		n.ParentID = &parent
	}
	return n
}
