package domain

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// CanManageTrees reports whether the role may create, edit and assign trees.
func (r Role) CanManageTrees() bool {
	return r == RoleAdmin || r == RoleManager
}

type User struct {
	ID          string `validate:"required"`
	Email       string `validate:"required,email"`
	DisplayName string `validate:"max=200"`
	Role        Role   `validate:"required,oneof=admin manager member"`
	TeamID      *string
	CreatedAt   time.Time
}

type Team struct {
	ID        string `validate:"required"`
	Name      string `validate:"required,max=200"`
	CreatedBy string
	CreatedAt time.Time
}
