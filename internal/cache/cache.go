// Package cache holds the client-side state for the skill tree being viewed:
// the visible trees, the selected tree's nodes and one user's progress on
// them. All reads and writes go through the gateway; local state changes only
// after the gateway confirms a write.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/alexanderramin/skilltree/internal/gateway"
	"github.com/alexanderramin/skilltree/internal/skilltree"
)

var (
	// ErrSuperseded is returned by a LoadTreeData call whose result was
	// dropped because a later load was started before it finished.
	ErrSuperseded = errors.New("tree load superseded by a newer load")

	// ErrChurn is returned by a LoadTreeData call that saw a confirmed write
	// land during each of its fetches.
	ErrChurn = errors.New("tree kept changing while loading")
)

// maxLoadAttempts bounds the fetches of one LoadTreeData call.
const maxLoadAttempts = 3

// Phase is the coarse state of the cache.
type Phase int

const (
	// PhaseIdle means no call is in flight and no tree is loaded.
	PhaseIdle Phase = iota
	// PhaseLoading means at least one gateway call is in flight.
	PhaseLoading
	// PhaseReady means a tree is loaded and nothing is in flight.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "idle"
	}
}

// Options configures a Cache.
type Options struct {
	// Logger receives best-effort failures such as tree assignments.
	// Nil discards them.
	Logger *slog.Logger
}

// Cache is safe for concurrent use. Every exported method that calls the
// gateway returns its error and also records it for Err.
//
// Calls interleave: a write and a load of the same tree may both be in
// flight. The write is reflected when it is confirmed, and the load refetches
// if a write was confirmed while it was fetching, so a load never rolls back
// a confirmed write.
type Cache struct {
	gw     gateway.Gateway
	logger *slog.Logger

	mu       sync.Mutex
	trees    []*domain.SkillTree
	selected *domain.SkillTree
	nodes    []*domain.SkillNode
	index    map[string]*domain.SkillNode // same set of nodes as the nodes slice
	progress domain.ProgressMap
	userID   string
	ready    bool
	inFlight int
	lastErr  error
	loadGen  uint64
	// writeGen counts confirmed writes. A load that sees it move refetches.
	writeGen uint64
}

// New returns an idle cache reading and writing through gw.
func New(gw gateway.Gateway, opts Options) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		gw:       gw,
		logger:   logger,
		index:    make(map[string]*domain.SkillNode),
		progress: make(domain.ProgressMap),
	}
}

func (c *Cache) begin() {
	c.mu.Lock()
	c.inFlight++
	c.mu.Unlock()
}

// end closes a call started with begin and records its outcome. c.mu must be held.
func (c *Cache) end(err error) error {
	c.inFlight--
	c.lastErr = err
	return err
}

// confirmed closes a successful write. c.mu must be held.
func (c *Cache) confirmed() error {
	c.writeGen++
	return c.end(nil)
}

// fail records err for a call that never reached the gateway.
func (c *Cache) fail(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	return err
}

// LoadTrees replaces the tree list with every tree in the backend.
func (c *Cache) LoadTrees(ctx context.Context) error {
	c.begin()
	trees, err := c.gw.ListTrees(ctx)
	return c.replaceTrees(trees, err)
}

// LoadTreesForUser replaces the tree list with the trees assigned to userID
// directly or through the user's team.
func (c *Cache) LoadTreesForUser(ctx context.Context, userID string) error {
	c.begin()
	trees, err := c.gw.ListTreesForUser(ctx, userID)
	return c.replaceTrees(trees, err)
}

func (c *Cache) replaceTrees(trees []*domain.SkillTree, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return c.end(fmt.Errorf("loading trees: %w", err))
	}
	c.trees = trees
	return c.end(nil)
}

// LoadTreeData selects treeID and loads its nodes and userID's progress on
// them. Nothing is committed unless every fetch succeeds, and only the most
// recently started load commits; earlier ones return ErrSuperseded.
//
// A write confirmed while the fetch is in flight may not be in the fetched
// data, so the load fetches again, up to maxLoadAttempts times, and fails
// with ErrChurn if writes keep landing.
func (c *Cache) LoadTreeData(ctx context.Context, treeID, userID string) error {
	c.mu.Lock()
	c.loadGen++
	gen := c.loadGen
	c.inFlight++
	var cached *domain.SkillTree
	if i := c.treeIndex(treeID); i >= 0 {
		t := *c.trees[i]
		cached = &t
	}
	c.mu.Unlock()

	for attempt := 1; ; attempt++ {
		c.mu.Lock()
		writes := c.writeGen
		c.mu.Unlock()

		tree, nodes, progress, err := c.fetchTreeData(ctx, cached, treeID, userID)

		c.mu.Lock()
		if gen != c.loadGen {
			c.inFlight--
			c.mu.Unlock()
			return ErrSuperseded
		}
		if err == nil && writes != c.writeGen {
			if attempt < maxLoadAttempts {
				c.mu.Unlock()
				cached = nil
				continue
			}
			err = ErrChurn
		}
		if err != nil {
			err = c.end(fmt.Errorf("loading tree %s: %w", treeID, err))
		} else {
			c.commitTreeData(tree, nodes, progress, userID)
			c.end(nil)
		}
		c.mu.Unlock()
		return err
	}
}

// commitTreeData replaces the selected tree state. c.mu must be held.
func (c *Cache) commitTreeData(tree *domain.SkillTree, nodes []*domain.SkillNode, progress domain.ProgressMap, userID string) {
	index := make(map[string]*domain.SkillNode, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n
	}
	c.selected = tree
	c.nodes = nodes
	c.index = index
	c.progress = progress
	c.userID = userID
	c.ready = true
}

func (c *Cache) fetchTreeData(ctx context.Context, tree *domain.SkillTree, treeID, userID string) (*domain.SkillTree, []*domain.SkillNode, domain.ProgressMap, error) {
	if tree == nil {
		var err error
		if tree, err = c.gw.GetTree(ctx, treeID); err != nil {
			return nil, nil, nil, err
		}
	}
	nodes, err := c.gw.ListNodes(ctx, treeID)
	if err != nil {
		return nil, nil, nil, err
	}
	progress := make(domain.ProgressMap)
	if userID != "" {
		if progress, err = c.gw.ProgressForUserAndTree(ctx, userID, treeID); err != nil {
			return nil, nil, nil, err
		}
	}
	return tree, nodes, progress, nil
}

// CreateTree inserts the tree and then assigns it to in.AssignedUserIDs.
// Assignment failures are logged and do not fail the call.
func (c *Cache) CreateTree(ctx context.Context, in domain.NewTree) (*domain.SkillTree, error) {
	c.begin()
	tree, err := c.gw.InsertTree(ctx, in)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		return nil, c.end(fmt.Errorf("creating tree: %w", err))
	}

	for _, userID := range in.AssignedUserIDs {
		if err := c.gw.AssignTree(ctx, tree.ID, userID, in.CreatedBy); err != nil {
			c.logger.WarnContext(ctx, "tree assignment failed",
				"tree_id", tree.ID,
				"user_id", userID,
				"error", err.Error(),
			)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees = append(c.trees, tree)
	out := *tree
	return &out, c.end(nil)
}

// UpdateTree writes t and replaces the cached copy, including the selected
// tree when it is the one updated.
func (c *Cache) UpdateTree(ctx context.Context, t *domain.SkillTree) error {
	if t == nil {
		return c.fail(errors.New("updating tree: nil tree"))
	}
	c.begin()
	updated, err := c.gw.UpdateTree(ctx, t)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return c.end(fmt.Errorf("updating tree %s: %w", t.ID, err))
	}
	if i := c.treeIndex(updated.ID); i >= 0 {
		c.trees[i] = updated
	}
	if c.selected != nil && c.selected.ID == updated.ID {
		sel := *updated
		c.selected = &sel
	}
	return c.confirmed()
}

// DeleteTree removes the tree. Deleting the selected tree clears the
// selection along with its nodes and progress.
func (c *Cache) DeleteTree(ctx context.Context, id string) error {
	c.begin()
	err := c.gw.DeleteTree(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return c.end(fmt.Errorf("deleting tree %s: %w", id, err))
	}
	if i := c.treeIndex(id); i >= 0 {
		c.trees = slices.Delete(c.trees, i, i+1)
	}
	if c.selected != nil && c.selected.ID == id {
		c.selected = nil
		c.nodes = nil
		c.index = make(map[string]*domain.SkillNode)
		c.progress = make(domain.ProgressMap)
		c.ready = false
	}
	return c.confirmed()
}

// AddNode inserts n and, when it belongs to the selected tree, adds it to the
// node list. A parent in the selected tree is checked locally first.
func (c *Cache) AddNode(ctx context.Context, n *domain.SkillNode) (*domain.SkillNode, error) {
	if n == nil {
		return nil, c.fail(errors.New("adding node: nil node"))
	}
	c.mu.Lock()
	var checkErr error
	if c.holdsTree(n.TreeID) {
		checkErr = skilltree.ValidateParent(c.nodes, n.TreeID, "", n.ParentID)
	}
	c.mu.Unlock()
	if checkErr != nil {
		return nil, c.fail(fmt.Errorf("adding node: %w", checkErr))
	}

	c.begin()
	created, err := c.gw.InsertNode(ctx, n)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return nil, c.end(fmt.Errorf("adding node: %w", err))
	}
	if c.holdsTree(created.TreeID) {
		c.nodes = append(c.nodes, created)
		c.index[created.ID] = created
	}
	return created.Clone(), c.confirmed()
}

// UpdateNode applies patch and replaces the cached node with the stored one.
func (c *Cache) UpdateNode(ctx context.Context, patch domain.NodePatch) (*domain.SkillNode, error) {
	c.mu.Lock()
	var checkErr error
	if cur, ok := c.index[patch.ID]; ok && patch.ParentID != nil && !patch.ClearParent {
		checkErr = skilltree.ValidateParent(c.nodes, cur.TreeID, cur.ID, patch.ParentID)
	}
	c.mu.Unlock()
	if checkErr != nil {
		return nil, c.fail(fmt.Errorf("updating node %s: %w", patch.ID, checkErr))
	}

	c.begin()
	updated, err := c.gw.UpdateNode(ctx, patch)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return nil, c.end(fmt.Errorf("updating node %s: %w", patch.ID, err))
	}
	if _, ok := c.index[updated.ID]; ok {
		i := slices.IndexFunc(c.nodes, func(n *domain.SkillNode) bool { return n.ID == updated.ID })
		c.nodes[i] = updated
		c.index[updated.ID] = updated
	}
	return updated.Clone(), c.confirmed()
}

// RemoveNode deletes the node. The backend removes the whole subtree, so the
// cache drops the node, its descendants and their progress.
func (c *Cache) RemoveNode(ctx context.Context, id string) error {
	c.begin()
	err := c.gw.DeleteNode(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return c.end(fmt.Errorf("removing node %s: %w", id, err))
	}
	if _, ok := c.index[id]; ok {
		gone := skilltree.Descendants(c.nodes, id)
		gone[id] = true
		c.nodes = slices.DeleteFunc(c.nodes, func(n *domain.SkillNode) bool { return gone[n.ID] })
		for nodeID := range gone {
			delete(c.index, nodeID)
			delete(c.progress, nodeID)
		}
	}
	return c.confirmed()
}

// MarkNodeCompleted stores userID's completion of nodeID. The local progress
// map changes only after the gateway confirms the write, and only when it
// holds userID's progress.
func (c *Cache) MarkNodeCompleted(ctx context.Context, userID, nodeID string, completed bool) error {
	return c.writeProgress(ctx, gateway.Completion(userID, nodeID, completed))
}

// SetNodeScore stores userID's 0..10 score on nodeID. A score of
// domain.ScoreMax marks the node completed.
func (c *Cache) SetNodeScore(ctx context.Context, userID, nodeID string, score int) error {
	return c.writeProgress(ctx, gateway.Score(userID, nodeID, score))
}

func (c *Cache) writeProgress(ctx context.Context, w gateway.ProgressWrite) error {
	c.begin()
	p, err := c.gw.UpsertProgress(ctx, w)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return c.end(fmt.Errorf("writing progress on %s: %w", w.NodeID, err))
	}
	if c.userID != "" && c.userID == p.UserID {
		c.progress[p.NodeID] = p.Score
	}
	return c.confirmed()
}

// GetNodeChildren returns copies of the loaded nodes under parentID (nil for
// roots), ordered by OrderIndex.
func (c *Cache) GetNodeChildren(parentID *string) []*domain.SkillNode {
	c.mu.Lock()
	children := skilltree.Children(c.nodes, parentID)
	c.mu.Unlock()
	for i, n := range children {
		children[i] = n.Clone()
	}
	return children
}

// BuildTreeStructure assembles the loaded nodes with the loaded progress.
// The result shares nothing with the cache.
func (c *Cache) BuildTreeStructure() skilltree.Forest {
	c.mu.Lock()
	nodes := cloneNodes(c.nodes)
	progress := c.progress.Clone()
	c.mu.Unlock()
	return skilltree.Build(nodes, progress)
}

// ParentCandidates lists the loaded nodes that nodeID may be moved under.
func (c *Cache) ParentCandidates(nodeID string) []*domain.SkillNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return nil
	}
	return cloneNodes(skilltree.ParentCandidates(c.nodes, c.selected.ID, nodeID))
}

// Node returns a copy of the loaded node with the given ID.
func (c *Cache) Node(id string) (*domain.SkillNode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Stats summarizes the loaded user's completion of the loaded tree.
func (c *Cache) Stats() skilltree.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return skilltree.ProgressStats(c.nodes, c.progress)
}

// Err returns the error recorded by the last call, or nil.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError dismisses the recorded error.
func (c *Cache) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil
}

// Loading reports whether any gateway call is in flight.
func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

// Phase reports the coarse state of the cache.
func (c *Cache) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase()
}

func (c *Cache) phase() Phase {
	switch {
	case c.inFlight > 0:
		return PhaseLoading
	case c.ready:
		return PhaseReady
	default:
		return PhaseIdle
	}
}

// treeIndex returns the position of id in c.trees or -1. c.mu must be held.
func (c *Cache) treeIndex(id string) int {
	return slices.IndexFunc(c.trees, func(t *domain.SkillTree) bool { return t.ID == id })
}

// holdsTree reports whether treeID is the selected tree. c.mu must be held.
func (c *Cache) holdsTree(treeID string) bool {
	return c.selected != nil && c.selected.ID == treeID
}

func cloneNodes(nodes []*domain.SkillNode) []*domain.SkillNode {
	out := make([]*domain.SkillNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
