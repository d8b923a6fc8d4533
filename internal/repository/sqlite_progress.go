package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/skilltree/internal/db"
	"github.com/alexanderramin/skilltree/internal/domain"
)

// SQLiteProgressRepo implements ProgressRepo using a SQLite database.
type SQLiteProgressRepo struct {
	db db.DBTX
}

// NewSQLiteProgressRepo creates a new SQLiteProgressRepo.
func NewSQLiteProgressRepo(conn db.DBTX) *SQLiteProgressRepo {
	return &SQLiteProgressRepo{db: conn}
}

func (r *SQLiteProgressRepo) Upsert(ctx context.Context, p *domain.Progress) error {
	updatedAt := nowUTC()
	if !p.UpdatedAt.IsZero() {
		updatedAt = formatTime(p.UpdatedAt)
	}
	query := `INSERT INTO progress (user_id, node_id, score, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, node_id) DO UPDATE
		SET score = excluded.score, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, p.UserID, p.NodeID, p.Score, updatedAt)
	if err != nil {
		return fmt.Errorf("upserting progress: %w", classify(err))
	}
	return nil
}

func (r *SQLiteProgressRepo) Get(ctx context.Context, userID, nodeID string) (*domain.Progress, error) {
	query := `SELECT user_id, node_id, score, updated_at FROM progress WHERE user_id = ? AND node_id = ?`
	p, err := scanProgress(r.db.QueryRowContext(ctx, query, userID, nodeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("progress %s/%s: %w", userID, nodeID, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (r *SQLiteProgressRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Progress, error) {
	query := `SELECT user_id, node_id, score, updated_at FROM progress WHERE user_id = ? ORDER BY node_id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing progress by user: %w", err)
	}
	defer rows.Close()
	return scanProgressRows(rows)
}

func (r *SQLiteProgressRepo) ListByUserAndTree(ctx context.Context, userID, treeID string) ([]*domain.Progress, error) {
	query := `SELECT p.user_id, p.node_id, p.score, p.updated_at
		FROM progress p
		JOIN skill_nodes n ON n.id = p.node_id
		WHERE p.user_id = ? AND n.tree_id = ?
		ORDER BY p.node_id`
	rows, err := r.db.QueryContext(ctx, query, userID, treeID)
	if err != nil {
		return nil, fmt.Errorf("listing progress by user and tree: %w", err)
	}
	defer rows.Close()
	return scanProgressRows(rows)
}

func scanProgress(row rowScanner) (*domain.Progress, error) {
	var p domain.Progress
	var updatedAt string
	if err := row.Scan(&p.UserID, &p.NodeID, &p.Score, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning progress: %w", err)
	}
	var err error
	if p.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProgressRows(rows *sql.Rows) ([]*domain.Progress, error) {
	var out []*domain.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating progress: %w", err)
	}
	return out, nil
}
