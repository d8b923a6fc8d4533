package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/skilltree/internal/cli/formatter"
	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/spf13/cobra"
)

func newNodeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "node",
		Aliases: []string{"skill"},
		Short:   "Manage the skills of a tree",
	}

	cmd.AddCommand(
		newNodeAddCmd(app),
		newNodeUpdateCmd(app),
		newNodeRemoveCmd(app),
		newNodeChildrenCmd(app),
		newNodeCandidatesCmd(app),
	)

	return cmd
}

// parentFlag resolves a --parent value; empty means top level.
func parentFlag(app *App, input string) (*string, error) {
	if input == "" {
		return nil, nil
	}
	id, err := resolveNodeID(app, input)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// nextOrder places a new node after its last sibling.
func nextOrder(app *App, parentID *string) int {
	siblings := app.Cache.GetNodeChildren(parentID)
	if len(siblings) == 0 {
		return 0
	}
	return siblings[len(siblings)-1].OrderIndex + 1
}

func newNodeAddCmd(app *App) *cobra.Command {
	var (
		tree        string
		title       string
		parent      string
		order       int
		description string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a skill to a tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := requireManager(ctx, app); err != nil {
				return err
			}
			treeID, err := loadTree(ctx, app, tree)
			if err != nil {
				return err
			}
			parentID, err := parentFlag(app, parent)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("order") {
				order = nextOrder(app, parentID)
			}

			node, err := app.Cache.AddNode(ctx, &domain.SkillNode{
				TreeID:      treeID,
				ParentID:    parentID,
				Title:       strings.TrimSpace(title),
				Description: description,
				OrderIndex:  order,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added skill %s (%s)\n",
				formatter.Bold(node.Title), formatter.TruncID(node.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&tree, "tree", "", "Tree ID or name")
	cmd.Flags().StringVar(&title, "title", "", "Skill title")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent skill ID or title")
	cmd.Flags().IntVar(&order, "order", 0, "Position among siblings (default: last)")
	cmd.Flags().StringVar(&description, "description", "", "Skill description")
	_ = cmd.MarkFlagRequired("tree")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newNodeUpdateCmd(app *App) *cobra.Command {
	var (
		tree        string
		title       string
		parent      string
		root        bool
		order       int
		description string
	)

	cmd := &cobra.Command{
		Use:   "update SKILL",
		Short: "Edit or move a skill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := requireManager(ctx, app); err != nil {
				return err
			}
			if _, err := loadTree(ctx, app, tree); err != nil {
				return err
			}
			nodeID, err := resolveNodeID(app, args[0])
			if err != nil {
				return err
			}

			patch := domain.NodePatch{ID: nodeID}
			if cmd.Flags().Changed("title") {
				t := strings.TrimSpace(title)
				patch.Title = &t
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("order") {
				patch.OrderIndex = &order
			}
			switch {
			case root && parent != "":
				return fmt.Errorf("--root and --parent are mutually exclusive")
			case root:
				patch.ClearParent = true
			case parent != "":
				if patch.ParentID, err = parentFlag(app, parent); err != nil {
					return err
				}
			}

			node, err := app.Cache.UpdateNode(ctx, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated skill %s\n", formatter.Bold(node.Title))
			return nil
		},
	}

	cmd.Flags().StringVar(&tree, "tree", "", "Tree ID or name")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&parent, "parent", "", "Move under this skill")
	cmd.Flags().BoolVar(&root, "root", false, "Move to the top level")
	cmd.Flags().IntVar(&order, "order", 0, "New position among siblings")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	_ = cmd.MarkFlagRequired("tree")

	return cmd
}

func newNodeRemoveCmd(app *App) *cobra.Command {
	var tree string

	cmd := &cobra.Command{
		Use:   "remove SKILL",
		Short: "Remove a skill and everything below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := requireManager(ctx, app); err != nil {
				return err
			}
			if _, err := loadTree(ctx, app, tree); err != nil {
				return err
			}
			nodeID, err := resolveNodeID(app, args[0])
			if err != nil {
				return err
			}
			node, _ := app.Cache.Node(nodeID)

			if err := app.Cache.RemoveNode(ctx, nodeID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed skill %s\n", formatter.Bold(node.Title))
			return nil
		},
	}

	cmd.Flags().StringVar(&tree, "tree", "", "Tree ID or name")
	_ = cmd.MarkFlagRequired("tree")
	return cmd
}

func newNodeChildrenCmd(app *App) *cobra.Command {
	var tree, parent string

	cmd := &cobra.Command{
		Use:   "children",
		Short: "List the direct children of a skill, or the top-level skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := loadTree(ctx, app, tree); err != nil {
				return err
			}
			parentID, err := parentFlag(app, parent)
			if err != nil {
				return err
			}

			children := app.Cache.GetNodeChildren(parentID)
			if len(children) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No skills."))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNodeList(children, app.Cache.Snapshot().Progress))
			return nil
		},
	}

	cmd.Flags().StringVar(&tree, "tree", "", "Tree ID or name")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent skill ID or title")
	_ = cmd.MarkFlagRequired("tree")
	return cmd
}

func newNodeCandidatesCmd(app *App) *cobra.Command {
	var tree string

	cmd := &cobra.Command{
		Use:   "candidates SKILL",
		Short: "List the skills a skill can be moved under",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := loadTree(ctx, app, tree); err != nil {
				return err
			}
			nodeID, err := resolveNodeID(app, args[0])
			if err != nil {
				return err
			}

			candidates := app.Cache.ParentCandidates(nodeID)
			if len(candidates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No candidates."))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNodeList(candidates, app.Cache.Snapshot().Progress))
			return nil
		},
	}

	cmd.Flags().StringVar(&tree, "tree", "", "Tree ID or name")
	_ = cmd.MarkFlagRequired("tree")
	return cmd
}
