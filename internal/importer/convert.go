package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/alexanderramin/skilltree/internal/gateway"
	"github.com/google/uuid"
)

// Converted is an import schema turned into records ready for the gateway.
// Nodes are ordered parents first and carry final IDs; TreeID is filled in
// once the tree exists.
type Converted struct {
	Tree  domain.NewTree
	Nodes []*domain.SkillNode
}

// Convert transforms a validated ImportSchema into domain objects.
// Call ValidateImportSchema first; Convert assumes the schema is valid.
func Convert(schema *ImportSchema, createdBy string) (*Converted, error) {
	out := &Converted{
		Tree: domain.NewTree{
			Name:        strings.TrimSpace(schema.Tree.Name),
			Description: schema.Tree.Description,
			CreatedBy:   createdBy,
			TeamID:      schema.Tree.TeamID,
		},
		Nodes: make([]*domain.SkillNode, 0, len(schema.Nodes)),
	}

	refMap := make(map[string]string, len(schema.Nodes)) // ref -> UUID
	for _, n := range schema.Nodes {
		realID := uuid.New().String()
		refMap[n.Ref] = realID

		var parentID *string
		if n.ParentRef != nil && *n.ParentRef != "" {
			pid, ok := refMap[*n.ParentRef]
			if !ok {
				return nil, fmt.Errorf("parent_ref %q not found for node %q", *n.ParentRef, n.Ref)
			}
			parentID = &pid
		}

		out.Nodes = append(out.Nodes, &domain.SkillNode{
			ID:          realID,
			ParentID:    parentID,
			Title:       strings.TrimSpace(n.Title),
			Description: n.Description,
			OrderIndex:  n.Order,
		})
	}

	return out, nil
}

// Result reports what an import created.
type Result struct {
	Tree     *domain.SkillTree
	Nodes    int
	Assigned int
}

// Import validates, converts and writes schema through gw. The import is all
// or nothing: when a write after the tree insert fails, the tree is deleted
// again, which cascades to whatever was written under it.
func Import(ctx context.Context, gw gateway.Gateway, schema *ImportSchema, createdBy string) (*Result, error) {
	if errs := ValidateImportSchema(schema); len(errs) > 0 {
		return nil, fmt.Errorf("invalid import: %w", errors.Join(errs...))
	}
	conv, err := Convert(schema, createdBy)
	if err != nil {
		return nil, err
	}

	tree, err := gw.InsertTree(ctx, conv.Tree)
	if err != nil {
		return nil, fmt.Errorf("creating tree: %w", err)
	}

	if err := writeContents(ctx, gw, tree.ID, conv, schema.Assign, createdBy); err != nil {
		if delErr := gw.DeleteTree(context.WithoutCancel(ctx), tree.ID); delErr != nil {
			return nil, errors.Join(err, fmt.Errorf("rolling back tree %s: %w", tree.ID, delErr))
		}
		return nil, err
	}

	return &Result{Tree: tree, Nodes: len(conv.Nodes), Assigned: len(schema.Assign)}, nil
}

func writeContents(ctx context.Context, gw gateway.Gateway, treeID string, conv *Converted, assign []string, assignedBy string) error {
	for _, n := range conv.Nodes {
		n.TreeID = treeID
		if _, err := gw.InsertNode(ctx, n); err != nil {
			return fmt.Errorf("creating skill %q: %w", n.Title, err)
		}
	}
	for _, userID := range assign {
		if err := gw.AssignTree(ctx, treeID, userID, assignedBy); err != nil {
			return fmt.Errorf("assigning tree to %s: %w", userID, err)
		}
	}
	return nil
}
