package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mhacks/dredd-judging/internal/model"
)

// EntityRepo persists the immutable entity list.
type EntityRepo struct {
	db *sql.DB
}

// NewEntityRepo creates an EntityRepo.
func NewEntityRepo(db *sql.DB) *EntityRepo {
	return &EntityRepo{db: db}
}

// ReplaceAll clears the entity table and inserts entities in one
// transaction, used by session start.
func (r *EntityRepo) ReplaceAll(ctx context.Context, entities []model.Entity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entities`); err != nil {
		return fmt.Errorf("clear entities: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entities (project_id, project_name, devpost_link, table_num, tracks) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert entity: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		if _, err := stmt.ExecContext(ctx, e.ProjectID, e.ProjectName, e.DevpostLink, e.TableNum, e.Tracks); err != nil {
			return fmt.Errorf("insert entity: %w", err)
		}
	}

	return tx.Commit()
}

// All returns every entity ordered by project_id.
func (r *EntityRepo) All(ctx context.Context) ([]model.Entity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT project_id, project_name, devpost_link, table_num, tracks FROM entities ORDER BY project_id`)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []model.Entity
	for rows.Next() {
		var e model.Entity
		if err := rows.Scan(&e.ProjectID, &e.ProjectName, &e.DevpostLink, &e.TableNum, &e.Tracks); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Clear deletes every entity row.
func (r *EntityRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM entities`)
	if err != nil {
		return fmt.Errorf("clear entities: %w", err)
	}
	return nil
}
