package domain

import "time"

type SkillNode struct {
	ID              string  `validate:"required"`
	TreeID          string  `validate:"required"`
	ParentID        *string // nil means root
	Title           string  `validate:"required,max=200"`
	Description     string
	RichDescription string // HTML produced by the editor; plain Description is kept alongside
	OrderIndex      int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsRoot reports whether the node has no parent.
func (n *SkillNode) IsRoot() bool {
	return n.ParentID == nil
}

// HasParent reports whether the node's parent is id.
func (n *SkillNode) HasParent(id string) bool {
	return n.ParentID != nil && *n.ParentID == id
}

// Clone returns a copy of n that shares no pointers with it.
func (n *SkillNode) Clone() *SkillNode {
	c := *n
	if n.ParentID != nil {
		p := *n.ParentID
		c.ParentID = &p
	}
	return &c
}

// NodePatch is a partial update of a SkillNode. Nil fields are left unchanged.
// ClearParent moves the node to the root level and takes precedence over ParentID.
type NodePatch struct {
	ID              string `validate:"required"`
	Title           *string `validate:"omitempty,min=1,max=200"`
	Description     *string
	RichDescription *string
	ParentID        *string
	ClearParent     bool
	OrderIndex      *int
}

// MovesParent reports whether the patch changes the node's parent.
func (p NodePatch) MovesParent() bool {
	return p.ClearParent || p.ParentID != nil
}

// Apply writes the patch onto n.
func (p NodePatch) Apply(n *SkillNode) {
	n.Title = CoalesceStr(StrFromPtr(p.Title), n.Title)
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.RichDescription != nil {
		n.RichDescription = *p.RichDescription
	}
	switch {
	case p.ClearParent:
		n.ParentID = nil
	case p.ParentID != nil:
		parent := *p.ParentID
		n.ParentID = &parent
	}
	n.OrderIndex = IntFromPtrWithDefault(n.OrderIndex, p.OrderIndex)
}
