package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/skilltree/internal/db"
	"github.com/alexanderramin/skilltree/internal/domain"
)

// SQLiteTeamRepo implements TeamRepo using a SQLite database.
type SQLiteTeamRepo struct {
	db db.DBTX
}

func NewSQLiteTeamRepo(conn db.DBTX) *SQLiteTeamRepo {
	return &SQLiteTeamRepo{db: conn}
}

func (r *SQLiteTeamRepo) Create(ctx context.Context, t *domain.Team) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO teams (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, t.CreatedBy, formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting team: %w", classify(err))
	}
	return nil
}

func (r *SQLiteTeamRepo) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_by, created_at FROM teams WHERE id = ?`, id)
	t, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return t, nil
}

func (r *SQLiteTeamRepo) List(ctx context.Context) ([]*domain.Team, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_by, created_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var out []*domain.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating teams: %w", err)
	}
	return out, nil
}

func scanTeam(row rowScanner) (*domain.Team, error) {
	var t domain.Team
	var createdAt string
	if err := row.Scan(&t.ID, &t.Name, &t.CreatedBy, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning team: %w", err)
	}
	var err error
	if t.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}
