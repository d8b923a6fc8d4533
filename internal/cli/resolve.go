package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/skilltree/internal/domain"
)

var errNoUser = errors.New("no acting user: pass --user or set SKILLTREE_USER")

func requireUser(app *App) (string, error) {
	if app.UserID == "" {
		return "", errNoUser
	}
	return app.UserID, nil
}

// requireManager returns the acting user if their role may change trees.
func requireManager(ctx context.Context, app *App) (*domain.User, error) {
	userID, err := requireUser(app)
	if err != nil {
		return nil, err
	}
	users, err := app.Gateway.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == userID {
			if !u.Role.CanManageTrees() {
				return nil, fmt.Errorf("user %s is a %s; managing trees needs manager or admin", u.Email, u.Role)
			}
			return u, nil
		}
	}
	return nil, fmt.Errorf("unknown user %q", userID)
}

// match resolves input against candidates by exact ID, then unique ID
// prefix, then case-insensitive name.
func match(kind, input string, ids, names []string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("%s ID is required", kind)
	}
	for _, id := range ids {
		if id == input {
			return id, nil
		}
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, input) {
			matches = append(matches, id)
		}
	}
	if len(matches) == 0 {
		for i, name := range names {
			if strings.EqualFold(name, input) {
				matches = append(matches, ids[i])
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s not found: %q", kind, input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s %q is ambiguous (%d matches)", kind, input, len(matches))
	}
}

// resolveTreeID refreshes the tree list and resolves input against it.
func resolveTreeID(ctx context.Context, app *App, input string) (string, error) {
	if err := app.Cache.LoadTrees(ctx); err != nil {
		return "", err
	}
	trees := app.Cache.Snapshot().Trees
	ids := make([]string, len(trees))
	names := make([]string, len(trees))
	for i, t := range trees {
		ids[i], names[i] = t.ID, t.Name
	}
	return match("tree", input, ids, names)
}

// loadTree resolves input and loads the tree with the acting user's progress.
func loadTree(ctx context.Context, app *App, input string) (string, error) {
	treeID, err := resolveTreeID(ctx, app, input)
	if err != nil {
		return "", err
	}
	if err := app.Cache.LoadTreeData(ctx, treeID, app.UserID); err != nil {
		return "", err
	}
	return treeID, nil
}

// resolveNodeID resolves input against the nodes of the loaded tree.
func resolveNodeID(app *App, input string) (string, error) {
	nodes := app.Cache.Snapshot().Nodes
	ids := make([]string, len(nodes))
	titles := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i], titles[i] = n.ID, n.Title
	}
	return match("skill", input, ids, titles)
}
