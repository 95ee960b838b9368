// Package ledger tracks which pair each judge currently owns, enforcing
// at-most-one outstanding assignment per judge.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mhacks/dredd-judging/internal/repository"
)

// ErrNoAssignment is returned by Release when the judge has no
// outstanding pair.
var ErrNoAssignment = errors.New("ledger: judge has no outstanding assignment")

// Ledger mirrors the durable assignment table in memory for fast
// ownership checks, writing through to the repository on every mutation
// so a crash never loses or resurrects an assignment (spec.md §9 Open
// Question (b): persisted per event, not rebuilt purely from replay).
type Ledger struct {
	mu   sync.Mutex
	repo repository.AssignmentRepository
	live map[string][2]int
}

// New creates a Ledger backed by repo.
func New(repo repository.AssignmentRepository) *Ledger {
	return &Ledger{repo: repo, live: make(map[string][2]int)}
}

// Load rebuilds the in-memory mirror from the repository's durable rows,
// used at session start and during boot-time recovery.
func (l *Ledger) Load(ctx context.Context) error {
	rows, err := l.repo.All(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.live = make(map[string][2]int, len(rows))
	for _, a := range rows {
		l.live[a.JudgeID] = [2]int{a.A, a.B}
	}
	return nil
}

// Assign records that judgeID now owns (a, b), overwriting any existing
// entry.
func (l *Ledger) Assign(ctx context.Context, judgeID string, a, b int, timestamp int64) error {
	if err := l.repo.Assign(ctx, judgeID, a, b, timestamp); err != nil {
		return err
	}
	l.mu.Lock()
	l.live[judgeID] = [2]int{a, b}
	l.mu.Unlock()
	return nil
}

// Release removes judgeID's assignment, failing with ErrNoAssignment if
// there is none.
func (l *Ledger) Release(ctx context.Context, judgeID string) error {
	l.mu.Lock()
	_, ok := l.live[judgeID]
	l.mu.Unlock()
	if !ok {
		return ErrNoAssignment
	}

	if err := l.repo.Release(ctx, judgeID); err != nil {
		return err
	}
	l.mu.Lock()
	delete(l.live, judgeID)
	l.mu.Unlock()
	return nil
}

// Clear removes every outstanding assignment, used when a session
// (re)starts fresh.
func (l *Ledger) Clear(ctx context.Context) error {
	if err := l.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	l.mu.Lock()
	l.live = make(map[string][2]int)
	l.mu.Unlock()
	return nil
}

// Get returns judgeID's outstanding pair, if any, without touching the
// repository.
func (l *Ledger) Get(judgeID string) (a, b int, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pair, ok := l.live[judgeID]
	return pair[0], pair[1], ok
}

// Verify reports whether judgeID currently owns the unordered pair {x, y}.
func (l *Ledger) Verify(judgeID string, x, y int) bool {
	a, b, ok := l.Get(judgeID)
	if !ok {
		return false
	}
	return (a == x && b == y) || (a == y && b == x)
}
