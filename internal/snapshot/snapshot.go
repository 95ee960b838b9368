// Package snapshot periodically captures the strength engine's state so
// crash recovery only has to replay the log tail since the last capture
// instead of from the beginning of time.
package snapshot

import (
	"context"
	"fmt"

	"github.com/mhacks/dredd-judging/internal/engine"
	"github.com/mhacks/dredd-judging/internal/model"
	"github.com/mhacks/dredd-judging/internal/repository"
)

// DefaultMaxSnapshots is the retention cap from spec.md §3/§6.
const DefaultMaxSnapshots = 16

// Store writes and reads engine-state snapshots through repo, evicting
// the oldest row once more than maxSnapshots are retained.
type Store struct {
	repo         repository.SnapshotRepository
	maxSnapshots int
}

// New creates a Store backed by repo with the given retention cap.
func New(repo repository.SnapshotRepository, maxSnapshots int) *Store {
	if maxSnapshots <= 0 {
		maxSnapshots = DefaultMaxSnapshots
	}
	return &Store{repo: repo, maxSnapshots: maxSnapshots}
}

// Write serializes state at the given log sequence horizon and timestamp.
func (s *Store) Write(ctx context.Context, sequence, timestamp int64, state engine.State) error {
	snap := model.Snapshot{
		Sequence:  sequence,
		Timestamp: timestamp,
		K:         state.K,
		Alpha:     state.Alpha,
		Frequency: state.Frequency,
		RNG:       state.RNGBytes,
	}
	if err := s.repo.Write(ctx, snap, s.maxSnapshots); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot's log sequence and engine state,
// or false if none has ever been written.
func (s *Store) Latest(ctx context.Context) (int64, engine.State, bool, error) {
	snap, ok, err := s.repo.Latest(ctx)
	if err != nil {
		return 0, engine.State{}, false, fmt.Errorf("latest snapshot: %w", err)
	}
	if !ok {
		return 0, engine.State{}, false, nil
	}
	state := engine.State{
		K:         snap.K,
		Alpha:     snap.Alpha,
		Frequency: snap.Frequency,
		RNGBytes:  snap.RNG,
	}
	return snap.Sequence, state, true, nil
}

// Clear deletes every snapshot, used when a session (re)starts fresh.
func (s *Store) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
