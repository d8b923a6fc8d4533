package domain

import "time"

type SkillTree struct {
	ID          string    `validate:"required"`
	Name        string    `validate:"required,max=200"`
	Description string    `validate:"max=4000"`
	CreatedBy   string    `validate:"required"`
	TeamID      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTree is the input for creating a tree. AssignedUserIDs are linked to the
// tree after it has been inserted.
type NewTree struct {
	Name            string `validate:"required,max=200"`
	Description     string `validate:"max=4000"`
	CreatedBy       string `validate:"required"`
	TeamID          *string
	AssignedUserIDs []string `validate:"dive,required"`
}

type TreeAssignment struct {
	TreeID     string `validate:"required"`
	UserID     string `validate:"required"`
	AssignedBy string `validate:"required"`
	AssignedAt time.Time
}
