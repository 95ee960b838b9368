// Package repository defines the storage-agnostic contracts the session
// controller depends on. internal/repository/sqlite provides the only
// implementation, but keeping these as interfaces (the teacher's pattern)
// lets engine/session tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/mhacks/dredd-judging/internal/model"
)

// EntityRepository persists the immutable entity list for the current
// session.
type EntityRepository interface {
	ReplaceAll(ctx context.Context, entities []model.Entity) error
	All(ctx context.Context) ([]model.Entity, error)
	Clear(ctx context.Context) error
}

// AssignmentRepository persists the judge -> outstanding-pair ledger.
type AssignmentRepository interface {
	Assign(ctx context.Context, judgeID string, a, b int, timestamp int64) error
	Release(ctx context.Context, judgeID string) error
	Get(ctx context.Context, judgeID string) (model.Assignment, bool, error)
	All(ctx context.Context) ([]model.Assignment, error)
	Clear(ctx context.Context) error
}

// LogRepository persists the append-only operation log.
type LogRepository interface {
	Append(ctx context.Context, ev model.LogEvent) (model.LogEvent, error)
	ReplaySince(ctx context.Context, sequenceFloor int64) ([]model.LogEvent, error)
	Clear(ctx context.Context) error
}

// SnapshotRepository persists periodic engine-state snapshots with a
// retention cap.
type SnapshotRepository interface {
	Write(ctx context.Context, snap model.Snapshot, maxSnapshots int) error
	Latest(ctx context.Context) (model.Snapshot, bool, error)
	Clear(ctx context.Context) error
}
