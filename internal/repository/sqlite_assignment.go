package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/skilltree/internal/db"
	"github.com/alexanderramin/skilltree/internal/domain"
)

// SQLiteAssignmentRepo implements AssignmentRepo using a SQLite database.
type SQLiteAssignmentRepo struct {
	db db.DBTX
}

// NewSQLiteAssignmentRepo creates a new SQLiteAssignmentRepo.
func NewSQLiteAssignmentRepo(conn db.DBTX) *SQLiteAssignmentRepo {
	return &SQLiteAssignmentRepo{db: conn}
}

// Create links a user to a tree. Re-assigning an existing pair refreshes
// assigned_by and assigned_at.
func (r *SQLiteAssignmentRepo) Create(ctx context.Context, a *domain.TreeAssignment) error {
	query := `INSERT INTO tree_assignments (tree_id, user_id, assigned_by, assigned_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tree_id, user_id) DO UPDATE
		SET assigned_by = excluded.assigned_by, assigned_at = excluded.assigned_at`
	_, err := r.db.ExecContext(ctx, query, a.TreeID, a.UserID, a.AssignedBy, formatTime(a.AssignedAt))
	if err != nil {
		return fmt.Errorf("inserting tree assignment: %w", classify(err))
	}
	return nil
}

func (r *SQLiteAssignmentRepo) Delete(ctx context.Context, treeID, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tree_assignments WHERE tree_id = ? AND user_id = ?`, treeID, userID)
	if err != nil {
		return fmt.Errorf("deleting tree assignment: %w", err)
	}
	return requireAffected(res, "tree assignment", treeID+"/"+userID)
}

func (r *SQLiteAssignmentRepo) DeleteByTree(ctx context.Context, treeID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tree_assignments WHERE tree_id = ?`, treeID); err != nil {
		return fmt.Errorf("deleting tree assignments: %w", err)
	}
	return nil
}

func (r *SQLiteAssignmentRepo) ListByTree(ctx context.Context, treeID string) ([]*domain.TreeAssignment, error) {
	query := `SELECT tree_id, user_id, assigned_by, assigned_at FROM tree_assignments
		WHERE tree_id = ? ORDER BY assigned_at, user_id`
	rows, err := r.db.QueryContext(ctx, query, treeID)
	if err != nil {
		return nil, fmt.Errorf("listing tree assignments: %w", err)
	}
	defer rows.Close()

	var out []*domain.TreeAssignment
	for rows.Next() {
		var a domain.TreeAssignment
		var assignedAt string
		if err := rows.Scan(&a.TreeID, &a.UserID, &a.AssignedBy, &assignedAt); err != nil {
			return nil, fmt.Errorf("scanning tree assignment: %w", err)
		}
		if a.AssignedAt, err = parseTime("assigned_at", assignedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tree assignments: %w", err)
	}
	return out, nil
}
