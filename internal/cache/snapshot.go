package cache

import "github.com/alexanderramin/skilltree/internal/domain"

// Snapshot is a consistent, detached copy of the cache state.
type Snapshot struct {
	Trees    []*domain.SkillTree
	Selected *domain.SkillTree
	Nodes    []*domain.SkillNode
	Progress domain.ProgressMap
	UserID   string
	Phase    Phase
	Loading  bool
	Err      error
}

// Snapshot copies the whole state under one lock, so no half-applied
// update is ever visible in it.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	trees := make([]*domain.SkillTree, len(c.trees))
	for i, t := range c.trees {
		cp := *t
		trees[i] = &cp
	}
	var selected *domain.SkillTree
	if c.selected != nil {
		cp := *c.selected
		selected = &cp
	}
	return Snapshot{
		Trees:    trees,
		Selected: selected,
		Nodes:    cloneNodes(c.nodes),
		Progress: c.progress.Clone(),
		UserID:   c.userID,
		Phase:    c.phase(),
		Loading:  c.inFlight > 0,
		Err:      c.lastErr,
	}
}

// Tree returns the cached tree with the given ID.
func (s Snapshot) Tree(id string) (*domain.SkillTree, bool) {
	for _, t := range s.Trees {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}
