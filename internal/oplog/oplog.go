// Package oplog implements the append-only, totally ordered operation log
// that makes crash recovery possible: every pair-issue and submission is
// durably recorded before the handler that caused it returns.
package oplog

import (
	"context"
	"fmt"

	"github.com/mhacks/dredd-judging/internal/model"
	"github.com/mhacks/dredd-judging/internal/repository"
)

// Log appends events to and replays them from the durable log repository.
type Log struct {
	repo repository.LogRepository
}

// New creates a Log backed by repo.
func New(repo repository.LogRepository) *Log {
	return &Log{repo: repo}
}

// AppendPairIssued durably records that judgeID was issued a pair at
// timestamp (nanosecond-precision monotonic). Returns the event with its
// assigned Sequence.
func (l *Log) AppendPairIssued(ctx context.Context, judgeID string, timestamp int64) (model.LogEvent, error) {
	ev, err := l.repo.Append(ctx, model.LogEvent{
		Timestamp: timestamp,
		Kind:      model.EventPairIssued,
		JudgeID:   judgeID,
	})
	if err != nil {
		return model.LogEvent{}, fmt.Errorf("append pair-issued: %w", err)
	}
	return ev, nil
}

// AppendSubmitted durably records a judge's verdict.
func (l *Log) AppendSubmitted(ctx context.Context, judgeID string, a, b, winner int, timestamp int64) (model.LogEvent, error) {
	ev, err := l.repo.Append(ctx, model.LogEvent{
		Timestamp: timestamp,
		Kind:      model.EventSubmitted,
		JudgeID:   judgeID,
		PairA:     a,
		PairB:     b,
		Winner:    winner,
	})
	if err != nil {
		return model.LogEvent{}, fmt.Errorf("append submitted: %w", err)
	}
	return ev, nil
}

// ReplaySince returns every event with sequence greater than
// sequenceFloor, in ascending order.
func (l *Log) ReplaySince(ctx context.Context, sequenceFloor int64) ([]model.LogEvent, error) {
	events, err := l.repo.ReplaySince(ctx, sequenceFloor)
	if err != nil {
		return nil, fmt.Errorf("replay since: %w", err)
	}
	return events, nil
}

// Clear deletes every event, used when a session (re)starts fresh.
func (l *Log) Clear(ctx context.Context) error {
	return l.repo.Clear(ctx)
}
