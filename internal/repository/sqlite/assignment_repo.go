package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mhacks/dredd-judging/internal/model"
)

// AssignmentRepo persists the judge-ownership ledger. Every assign/release
// is a synchronous write, so the ledger's durable copy never lags behind
// what internal/ledger reports in memory.
type AssignmentRepo struct {
	db *sql.DB
}

// NewAssignmentRepo creates an AssignmentRepo.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

// Assign overwrites any existing row for judgeID.
func (r *AssignmentRepo) Assign(ctx context.Context, judgeID string, a, b int, timestamp int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assignments (judge_id, a, b, timestamp) VALUES (?, ?, ?, ?)
		 ON CONFLICT(judge_id) DO UPDATE SET a = excluded.a, b = excluded.b, timestamp = excluded.timestamp`,
		judgeID, a, b, timestamp,
	)
	if err != nil {
		return fmt.Errorf("assign: %w", err)
	}
	return nil
}

// Release removes judgeID's row.
func (r *AssignmentRepo) Release(ctx context.Context, judgeID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE judge_id = ?`, judgeID)
	if err != nil {
		return fmt.Errorf("release: %w", err)
	}
	return nil
}

// Get returns judgeID's outstanding assignment, if any.
func (r *AssignmentRepo) Get(ctx context.Context, judgeID string) (model.Assignment, bool, error) {
	var a model.Assignment
	a.JudgeID = judgeID
	err := r.db.QueryRowContext(ctx,
		`SELECT a, b, timestamp FROM assignments WHERE judge_id = ?`, judgeID,
	).Scan(&a.A, &a.B, &a.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Assignment{}, false, nil
	}
	if err != nil {
		return model.Assignment{}, false, fmt.Errorf("get assignment: %w", err)
	}
	return a, true, nil
}

// All returns every outstanding assignment, used to rebuild the in-memory
// ledger mirror at startup.
func (r *AssignmentRepo) All(ctx context.Context) ([]model.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT judge_id, a, b, timestamp FROM assignments`)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.JudgeID, &a.A, &a.B, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Clear deletes every assignment row.
func (r *AssignmentRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM assignments`)
	if err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	return nil
}
