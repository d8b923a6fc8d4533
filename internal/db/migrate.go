package db

import (
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations. Every statement is idempotent so the
// full list is replayed on each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		email        TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		role         TEXT NOT NULL DEFAULT 'member'
		             CHECK(role IN ('admin','manager','member')),
		team_id      TEXT REFERENCES teams(id) ON DELETE SET NULL,
		created_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_team ON users(team_id)`,

	`CREATE TABLE IF NOT EXISTS skill_trees (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_by  TEXT NOT NULL,
		team_id     TEXT REFERENCES teams(id) ON DELETE SET NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_skill_trees_team ON skill_trees(team_id)`,

	`CREATE TABLE IF NOT EXISTS skill_nodes (
		id               TEXT PRIMARY KEY,
		tree_id          TEXT NOT NULL REFERENCES skill_trees(id) ON DELETE CASCADE,
		parent_id        TEXT REFERENCES skill_nodes(id) ON DELETE CASCADE,
		title            TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		rich_description TEXT NOT NULL DEFAULT '',
		order_index      INTEGER NOT NULL DEFAULT 0,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_skill_nodes_tree ON skill_nodes(tree_id)`,
	`CREATE INDEX IF NOT EXISTS idx_skill_nodes_parent ON skill_nodes(parent_id)`,

	`CREATE TABLE IF NOT EXISTS progress (
		user_id    TEXT NOT NULL,
		node_id    TEXT NOT NULL REFERENCES skill_nodes(id) ON DELETE CASCADE,
		score      INTEGER NOT NULL DEFAULT 0 CHECK(score BETWEEN 0 AND 10),
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, node_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_progress_node ON progress(node_id)`,

	`CREATE TABLE IF NOT EXISTS tree_assignments (
		tree_id     TEXT NOT NULL REFERENCES skill_trees(id) ON DELETE CASCADE,
		user_id     TEXT NOT NULL,
		assigned_by TEXT NOT NULL,
		assigned_at TEXT NOT NULL,
		PRIMARY KEY (tree_id, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tree_assignments_user ON tree_assignments(user_id)`,
}
