package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mhacks/dredd-judging/internal/model"
)

// LogRepo persists the append-only operation log.
type LogRepo struct {
	db *sql.DB
}

// NewLogRepo creates a LogRepo.
func NewLogRepo(db *sql.DB) *LogRepo {
	return &LogRepo{db: db}
}

// Append inserts ev and returns it with its assigned Sequence filled in.
// Sequence comes from SQLite's AUTOINCREMENT rowid, which is already
// strictly increasing per spec.md's contract.
func (r *LogRepo) Append(ctx context.Context, ev model.LogEvent) (model.LogEvent, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO logs (timestamp, kind, judge_id, pair_a, pair_b, winner) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Timestamp, string(ev.Kind), ev.JudgeID, ev.PairA, ev.PairB, ev.Winner,
	)
	if err != nil {
		return model.LogEvent{}, fmt.Errorf("append log event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.LogEvent{}, fmt.Errorf("log event id: %w", err)
	}
	ev.Sequence = id
	return ev, nil
}

// ReplaySince returns events with sequence > sequenceFloor in ascending
// order.
func (r *LogRepo) ReplaySince(ctx context.Context, sequenceFloor int64) ([]model.LogEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sequence, timestamp, kind, judge_id, pair_a, pair_b, winner FROM logs WHERE sequence > ? ORDER BY sequence ASC`,
		sequenceFloor,
	)
	if err != nil {
		return nil, fmt.Errorf("replay since: %w", err)
	}
	defer rows.Close()

	var out []model.LogEvent
	for rows.Next() {
		var ev model.LogEvent
		var kind string
		if err := rows.Scan(&ev.Sequence, &ev.Timestamp, &kind, &ev.JudgeID, &ev.PairA, &ev.PairB, &ev.Winner); err != nil {
			return nil, fmt.Errorf("scan log event: %w", err)
		}
		ev.Kind = model.EventKind(kind)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Clear deletes every log row and resets the sequence counter.
func (r *LogRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM logs`); err != nil {
		return fmt.Errorf("clear logs: %w", err)
	}
	_, _ = r.db.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'logs'`)
	return nil
}
