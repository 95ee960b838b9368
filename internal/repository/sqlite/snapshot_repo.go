package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/mhacks/dredd-judging/internal/model"
)

// SnapshotRepo persists periodic engine-state snapshots. alpha and
// frequency are encoded as fixed-width little-endian IEEE-754/int64
// bytes rather than JSON or text, so deserialize(serialize(s)) is
// guaranteed bit-for-bit identical — spec.md §4.5's round-trip
// requirement, which a text-based float encoding cannot promise for
// every value without extra care.
type SnapshotRepo struct {
	db *sql.DB
}

// NewSnapshotRepo creates a SnapshotRepo.
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

func encodeFloat64s(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeFloat64s(b []byte) []float64 {
	n := len(b) / 8
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}

func encodeInt64s(v []int64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(x))
	}
	return buf
}

func decodeInt64s(b []byte) []int64 {
	n := len(b) / 8
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = int64(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}

// Write serializes snap and evicts rows past maxSnapshots (oldest id
// first) in the same transaction.
func (r *SnapshotRepo) Write(ctx context.Context, snap model.Snapshot, maxSnapshots int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (sequence, timestamp, k, alpha, frequency, rng) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.Sequence, snap.Timestamp, snap.K,
		encodeFloat64s(snap.Alpha), encodeInt64s(snap.Frequency), snap.RNG,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id IN (
			SELECT id FROM snapshots ORDER BY id ASC
			LIMIT MAX(0, (SELECT COUNT(*) FROM snapshots) - ?)
		)`, maxSnapshots,
	)
	if err != nil {
		return fmt.Errorf("evict snapshots: %w", err)
	}

	return tx.Commit()
}

// Latest returns the most recently written snapshot, if any.
func (r *SnapshotRepo) Latest(ctx context.Context) (model.Snapshot, bool, error) {
	var snap model.Snapshot
	var alphaBuf, freqBuf, rngBuf []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT sequence, timestamp, k, alpha, frequency, rng FROM snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&snap.Sequence, &snap.Timestamp, &snap.K, &alphaBuf, &freqBuf, &rngBuf)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("latest snapshot: %w", err)
	}
	snap.Alpha = decodeFloat64s(alphaBuf)
	snap.Frequency = decodeInt64s(freqBuf)
	snap.RNG = rngBuf
	return snap, true, nil
}

// Clear deletes every snapshot row.
func (r *SnapshotRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM snapshots`)
	if err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	return nil
}
