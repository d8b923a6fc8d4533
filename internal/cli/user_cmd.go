package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/skilltree/internal/cli/formatter"
	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/spf13/cobra"
)

func newUserCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCmd(app), newUserListCmd(app))
	return cmd
}

func newUserAddCmd(app *App) *cobra.Command {
	var (
		email  string
		name   string
		teamID string
	)
	role := roleValue(domain.RoleMember)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u := &domain.User{
				Email:       strings.TrimSpace(email),
				DisplayName: name,
				Role:        domain.Role(role),
			}
			if teamID != "" {
				u.TeamID = &teamID
			}

			created, err := app.Gateway.InsertUser(cmd.Context(), u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s)\n",
				formatter.RolePill(created.Role), created.Email, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().Var(&role, "role", "admin, manager or member")
	cmd.Flags().StringVar(&teamID, "team", "", "Team ID")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUserListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.Gateway.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No users."))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatUserList(users))
			return nil
		},
	}
}

func newTeamCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage teams",
	}
	cmd.AddCommand(newTeamAddCmd(app), newTeamListCmd(app))
	return cmd
}

func newTeamAddCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a team",
		RunE: func(cmd *cobra.Command, args []string) error {
			team, err := app.Gateway.InsertTeam(cmd.Context(), &domain.Team{
				Name:      strings.TrimSpace(name),
				CreatedBy: app.UserID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added team %s (%s)\n", formatter.Bold(team.Name), team.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Team name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTeamListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List teams",
		RunE: func(cmd *cobra.Command, args []string) error {
			teams, err := app.Gateway.ListTeams(cmd.Context())
			if err != nil {
				return err
			}
			if len(teams) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No teams."))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTeamList(teams, app.now()))
			return nil
		},
	}
}
