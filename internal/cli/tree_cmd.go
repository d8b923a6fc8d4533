package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/skilltree/internal/cli/formatter"
	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/alexanderramin/skilltree/internal/importer"
	"github.com/spf13/cobra"
)

func newTreeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Manage skill trees",
	}

	cmd.AddCommand(
		newTreeListCmd(app),
		newTreeCreateCmd(app),
		newTreeImportCmd(app),
		newTreeShowCmd(app),
		newTreeUpdateCmd(app),
		newTreeDeleteCmd(app),
		newTreeAssignCmd(app),
		newTreeUnassignCmd(app),
	)

	return cmd
}

func newTreeListCmd(app *App) *cobra.Command {
	var mine bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List skill trees",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if mine {
				userID, err := requireUser(app)
				if err != nil {
					return err
				}
				if err := app.Cache.LoadTreesForUser(ctx, userID); err != nil {
					return err
				}
			} else if err := app.Cache.LoadTrees(ctx); err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTreeList(app.Cache.Snapshot().Trees, app.now()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&mine, "mine", false, "Only trees assigned to the acting user or their team")
	return cmd
}

func newTreeCreateCmd(app *App) *cobra.Command {
	var (
		name        string
		description string
		teamID      string
		assign      []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a skill tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			manager, err := requireManager(ctx, app)
			if err != nil {
				return err
			}

			in := domain.NewTree{
				Name:            strings.TrimSpace(name),
				Description:     description,
				CreatedBy:       manager.ID,
				AssignedUserIDs: assign,
			}
			if teamID != "" {
				in.TeamID = &teamID
			}

			tree, err := app.Cache.CreateTree(ctx, in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created tree %s (%s)\n",
				formatter.Bold(tree.Name), formatter.TruncID(tree.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Tree name")
	cmd.Flags().StringVar(&description, "description", "", "Tree description")
	cmd.Flags().StringVar(&teamID, "team", "", "Owning team ID")
	cmd.Flags().StringSliceVar(&assign, "assign", nil, "User IDs to assign the tree to")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newTreeImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create a tree with its skills from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			manager, err := requireManager(ctx, app)
			if err != nil {
				return err
			}
			schema, err := importer.LoadImportSchema(args[0])
			if err != nil {
				return err
			}

			res, err := importer.Import(ctx, app.Gateway, schema, manager.ID)
			if err != nil {
				return err
			}
			if err := app.Cache.LoadTrees(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported tree %s (%s): %d skills, %d assigned\n",
				formatter.Bold(res.Tree.Name), formatter.TruncID(res.Tree.ID), res.Nodes, res.Assigned)
			return nil
		},
	}
}

func newTreeShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show TREE",
		Short: "Show a tree with the acting user's progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			treeID, err := loadTree(ctx, app, args[0])
			if err != nil {
				return err
			}

			assignments, err := app.Gateway.ListAssignments(ctx, treeID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatTreeHeader(app.Cache.Snapshot().Selected, len(assignments)))
			if app.UserID != "" {
				fmt.Fprintln(out, formatter.RenderStats(app.Cache.Stats(), 20))
			}
			fmt.Fprint(out, formatter.FormatForest(app.Cache.BuildTreeStructure()))
			return nil
		},
	}
}

func newTreeUpdateCmd(app *App) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "update TREE",
		Short: "Rename a tree or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := requireManager(ctx, app); err != nil {
				return err
			}
			treeID, err := resolveTreeID(ctx, app, args[0])
			if err != nil {
				return err
			}

			tree, _ := app.Cache.Snapshot().Tree(treeID)
			if cmd.Flags().Changed("name") {
				tree.Name = strings.TrimSpace(name)
			}
			if cmd.Flags().Changed("description") {
				tree.Description = description
			}

			if err := app.Cache.UpdateTree(ctx, tree); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated tree %s\n", formatter.Bold(tree.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	return cmd
}

func newTreeDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete TREE",
		Short: "Delete a tree with its skills, progress and assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := requireManager(ctx, app); err != nil {
				return err
			}
			treeID, err := resolveTreeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			tree, _ := app.Cache.Snapshot().Tree(treeID)

			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to delete %q without --yes", tree.Name)
				}
				ok, err := app.confirm(fmt.Sprintf("Delete %q and everything in it?", tree.Name))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			if err := app.Cache.DeleteTree(ctx, treeID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tree %s\n", formatter.Bold(tree.Name))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newTreeAssignCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "assign TREE USER",
		Short: "Assign a tree to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			manager, err := requireManager(ctx, app)
			if err != nil {
				return err
			}
			treeID, err := resolveTreeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Gateway.AssignTree(ctx, treeID, args[1], manager.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s\n", formatter.TruncID(treeID), args[1])
			return nil
		},
	}
}

func newTreeUnassignCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign TREE USER",
		Short: "Remove a tree assignment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := requireManager(ctx, app); err != nil {
				return err
			}
			treeID, err := resolveTreeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Gateway.UnassignTree(ctx, treeID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unassigned %s from %s\n", formatter.TruncID(treeID), args[1])
			return nil
		},
	}
}
