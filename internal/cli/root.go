package cli

import (
	"context"
	"time"

	"github.com/alexanderramin/skilltree/internal/cache"
	"github.com/alexanderramin/skilltree/internal/gateway"
	"github.com/spf13/cobra"
)

// App holds what CLI commands need.
type App struct {
	Cache   *cache.Cache
	Gateway gateway.Gateway
	// UserID is the acting user. --user overrides it.
	UserID string

	// Open, when set, wires Cache, Gateway and UserID from the global flags
	// before any command runs.
	Open func(ctx context.Context, g Globals) error

	IsInteractive func() bool
	// Confirm asks a yes/no question. Nil means confirmPrompt.
	Confirm func(title string) (bool, error)
	Now     func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "skilltree" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var g Globals

	root := &cobra.Command{
		Use:           "skilltree",
		Short:         "Skill trees, assignments and progress tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Open != nil {
				if err := app.Open(cmd.Context(), g); err != nil {
					return err
				}
			}
			if g.UserID != "" {
				app.UserID = g.UserID
			}
			return nil
		},
	}
	bindGlobalFlags(root.PersistentFlags(), &g)

	root.AddCommand(
		newTreeCmd(app),
		newNodeCmd(app),
		newProgressCmd(app),
		newUserCmd(app),
		newTeamCmd(app),
	)

	return root
}
