package cli

import (
	"fmt"
	"strconv"

	"github.com/alexanderramin/skilltree/internal/cli/formatter"
	"github.com/alexanderramin/skilltree/internal/skilltree"
	"github.com/spf13/cobra"
)

func newProgressCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Record and review skill progress",
	}

	cmd.AddCommand(
		newProgressMarkCmd(app),
		newProgressScoreCmd(app),
		newProgressSummaryCmd(app),
	)

	return cmd
}

func newProgressMarkCmd(app *App) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "mark TREE SKILL",
		Short: "Mark a skill completed, or reopen it with --undo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := requireUser(app)
			if err != nil {
				return err
			}
			if _, err := loadTree(ctx, app, args[0]); err != nil {
				return err
			}
			nodeID, err := resolveNodeID(app, args[1])
			if err != nil {
				return err
			}

			if err := app.Cache.MarkNodeCompleted(ctx, userID, nodeID, !undo); err != nil {
				return err
			}

			node, _ := app.Cache.Node(nodeID)
			out := cmd.OutOrStdout()
			if undo {
				fmt.Fprintf(out, "Reopened %s\n", formatter.Bold(node.Title))
			} else {
				fmt.Fprintf(out, "%s Completed %s\n", formatter.StyleGreen.Render("✔"), formatter.Bold(node.Title))
			}
			fmt.Fprintln(out, formatter.RenderStats(app.Cache.Stats(), 20))
			return nil
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Reopen a completed skill")
	return cmd
}

func newProgressScoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "score TREE SKILL SCORE",
		Short: "Set a skill score from 0 to 10",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := requireUser(app)
			if err != nil {
				return err
			}
			score, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid score %q: must be a whole number", args[2])
			}
			if _, err := loadTree(ctx, app, args[0]); err != nil {
				return err
			}
			nodeID, err := resolveNodeID(app, args[1])
			if err != nil {
				return err
			}

			if err := app.Cache.SetNodeScore(ctx, userID, nodeID, score); err != nil {
				return err
			}

			node, _ := app.Cache.Node(nodeID)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s scored %s\n", formatter.Bold(node.Title), formatter.ScoreBadge(score))
			fmt.Fprintln(out, formatter.RenderStats(app.Cache.Stats(), 20))
			return nil
		},
	}
}

func newProgressSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Completion across every tree assigned to the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := requireUser(app)
			if err != nil {
				return err
			}
			if err := app.Cache.LoadTreesForUser(ctx, userID); err != nil {
				return err
			}
			scores, err := app.Gateway.ScoresForUser(ctx, userID)
			if err != nil {
				return err
			}

			trees := app.Cache.Snapshot().Trees
			if len(trees) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No trees assigned."))
				return nil
			}

			rows := make([][]string, 0, len(trees))
			for _, t := range trees {
				nodes, err := app.Gateway.ListNodes(ctx, t.ID)
				if err != nil {
					return err
				}
				s := skilltree.ProgressStats(nodes, scores)
				rows = append(rows, []string{formatter.Bold(t.Name), formatter.RenderStats(s, 20)})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"TREE", "PROGRESS"}, rows))
			return nil
		},
	}
}
