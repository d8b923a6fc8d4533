package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/skilltree/internal/db"
	"github.com/alexanderramin/skilltree/internal/domain"
)

// treeColumns is the canonical SELECT column list for skill_trees.
const treeColumns = `t.id, t.name, t.description, t.created_by, t.team_id, t.created_at, t.updated_at`

// SQLiteTreeRepo implements TreeRepo using a SQLite database.
type SQLiteTreeRepo struct {
	db db.DBTX
}

// NewSQLiteTreeRepo creates a new SQLiteTreeRepo.
func NewSQLiteTreeRepo(conn db.DBTX) *SQLiteTreeRepo {
	return &SQLiteTreeRepo{db: conn}
}

func (r *SQLiteTreeRepo) Create(ctx context.Context, t *domain.SkillTree) error {
	query := `INSERT INTO skill_trees (id, name, description, created_by, team_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.Name,
		t.Description,
		t.CreatedBy,
		nullableString(t.TeamID),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting skill tree: %w", classify(err))
	}
	return nil
}

func (r *SQLiteTreeRepo) GetByID(ctx context.Context, id string) (*domain.SkillTree, error) {
	query := `SELECT ` + treeColumns + ` FROM skill_trees t WHERE t.id = ?`
	t, err := scanTree(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("skill tree %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return t, nil
}

func (r *SQLiteTreeRepo) List(ctx context.Context) ([]*domain.SkillTree, error) {
	query := `SELECT ` + treeColumns + ` FROM skill_trees t ORDER BY t.rowid`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing skill trees: %w", err)
	}
	defer rows.Close()
	return scanTrees(rows)
}

// ListAssignedTo returns trees with an assignment row for userID, plus trees
// owned by the user's team.
func (r *SQLiteTreeRepo) ListAssignedTo(ctx context.Context, userID string) ([]*domain.SkillTree, error) {
	query := `SELECT ` + treeColumns + ` FROM skill_trees t
		WHERE t.id IN (SELECT tree_id FROM tree_assignments WHERE user_id = ?)
		   OR (t.team_id IS NOT NULL AND t.team_id = (SELECT team_id FROM users WHERE id = ?))
		ORDER BY t.rowid`
	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing skill trees for user: %w", err)
	}
	defer rows.Close()
	return scanTrees(rows)
}

func (r *SQLiteTreeRepo) Update(ctx context.Context, t *domain.SkillTree) error {
	query := `UPDATE skill_trees SET name = ?, description = ?, team_id = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		t.Name,
		t.Description,
		nullableString(t.TeamID),
		formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating skill tree: %w", classify(err))
	}
	return requireAffected(res, "skill tree", t.ID)
}

func (r *SQLiteTreeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM skill_trees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting skill tree: %w", err)
	}
	return requireAffected(res, "skill tree", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTree(row rowScanner) (*domain.SkillTree, error) {
	var t domain.SkillTree
	var teamID sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &teamID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning skill tree: %w", err)
	}
	t.TeamID = stringPtr(teamID)

	var err error
	if t.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTrees(rows *sql.Rows) ([]*domain.SkillTree, error) {
	var trees []*domain.SkillTree
	for rows.Next() {
		t, err := scanTree(rows)
		if err != nil {
			return nil, err
		}
		trees = append(trees, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating skill trees: %w", err)
	}
	return trees, nil
}

// requireAffected turns a zero-row UPDATE or DELETE into ErrNotFound.
func requireAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}
