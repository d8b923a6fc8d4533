package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/skilltree/internal/db"
	"github.com/alexanderramin/skilltree/internal/domain"
)

// nodeColumns is the canonical SELECT column list for skill_nodes.
const nodeColumns = `id, tree_id, parent_id, title, description, rich_description,
		order_index, created_at, updated_at`

// SQLiteNodeRepo implements NodeRepo using a SQLite database.
type SQLiteNodeRepo struct {
	db db.DBTX
}

// NewSQLiteNodeRepo creates a new SQLiteNodeRepo.
func NewSQLiteNodeRepo(conn db.DBTX) *SQLiteNodeRepo {
	return &SQLiteNodeRepo{db: conn}
}

func (r *SQLiteNodeRepo) Create(ctx context.Context, n *domain.SkillNode) error {
	query := `INSERT INTO skill_nodes (id, tree_id, parent_id, title, description, rich_description,
		order_index, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.TreeID,
		nullableString(n.ParentID), // nil becomes SQL NULL
		n.Title,
		n.Description,
		n.RichDescription,
		n.OrderIndex,
		formatTime(n.CreatedAt),
		formatTime(n.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting skill node: %w", classify(err))
	}
	return nil
}

func (r *SQLiteNodeRepo) GetByID(ctx context.Context, id string) (*domain.SkillNode, error) {
	query := `SELECT ` + nodeColumns + ` FROM skill_nodes WHERE id = ?`
	n, err := scanNode(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("skill node %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return n, nil
}

// ListByTree returns the tree's nodes as a flat list. Rows come back in
// insertion order so that sibling ties on order_index stay stable.
func (r *SQLiteNodeRepo) ListByTree(ctx context.Context, treeID string) ([]*domain.SkillNode, error) {
	query := `SELECT ` + nodeColumns + ` FROM skill_nodes WHERE tree_id = ? ORDER BY rowid`
	rows, err := r.db.QueryContext(ctx, query, treeID)
	if err != nil {
		return nil, fmt.Errorf("listing skill nodes by tree: %w", err)
	}
	defer rows.Close()

	var nodes []*domain.SkillNode
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating skill nodes: %w", err)
	}
	return nodes, nil
}

func (r *SQLiteNodeRepo) Update(ctx context.Context, n *domain.SkillNode) error {
	query := `UPDATE skill_nodes SET parent_id = ?, title = ?, description = ?, rich_description = ?,
		order_index = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(n.ParentID),
		n.Title,
		n.Description,
		n.RichDescription,
		n.OrderIndex,
		formatTime(n.UpdatedAt),
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("updating skill node: %w", classify(err))
	}
	return requireAffected(res, "skill node", n.ID)
}

// Delete removes the node; descendants and their progress rows go with it
// through ON DELETE CASCADE.
func (r *SQLiteNodeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM skill_nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting skill node: %w", err)
	}
	return requireAffected(res, "skill node", id)
}

func scanNode(row rowScanner) (*domain.SkillNode, error) {
	var n domain.SkillNode
	var parentID sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(
		&n.ID, &n.TreeID, &parentID, &n.Title, &n.Description, &n.RichDescription,
		&n.OrderIndex, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning skill node: %w", err)
	}
	n.ParentID = stringPtr(parentID)

	if n.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}
