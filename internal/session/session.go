// Package session owns the judging session's lifecycle state machine and
// is the single entry point the HTTP handlers call through: start, stop,
// resume, pair issuance, submission, rankings, and boot-time crash
// recovery. It is the one piece of global mutable state in the process,
// threaded through handlers by dependency injection rather than held in
// package-level variables.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mhacks/dredd-judging/internal/engine"
	"github.com/mhacks/dredd-judging/internal/ingest"
	"github.com/mhacks/dredd-judging/internal/ledger"
	"github.com/mhacks/dredd-judging/internal/model"
	"github.com/mhacks/dredd-judging/internal/oplog"
	"github.com/mhacks/dredd-judging/internal/repository"
	"github.com/mhacks/dredd-judging/internal/snapshot"
	"github.com/mhacks/dredd-judging/internal/store"
)

// DefaultTemperature is the softmax temperature used for live pair
// selection (spec.md §4.1's default).
const DefaultTemperature = 1.0

// DefaultSnapshotInterval is how many mutating requests elapse between
// automatic snapshots (spec.md §6).
const DefaultSnapshotInterval = 50

// engineSeed1/engineSeed2 seed every fresh engine identically. Determinism
// only needs to hold from the moment a session starts through its log
// replay, not across independent sessions, so a fixed seed (mirroring the
// original implementation's random.seed(69420)) is sufficient and keeps
// fresh starts reproducible in tests.
const engineSeed1, engineSeed2 = 69420, 1

var (
	// ErrNotStarted is returned by mutating or read calls while the
	// session is not ACTIVE.
	ErrNotStarted = errors.New("session: judging has not started")
	// ErrAlreadyStarted is returned by start/resume while ACTIVE.
	ErrAlreadyStarted = errors.New("session: judging has already started")
	// ErrJudgeDoesNotOwnPair is returned by submit when the caller does
	// not own the pair it is submitting a verdict for.
	ErrJudgeDoesNotOwnPair = errors.New("session: judge does not own this pair")
	// ErrInvalidPair is returned by submit when winner is not one of the
	// two compared entities, or a == b.
	ErrInvalidPair = errors.New("session: invalid pair or winner")
)

// Status is the session's lifecycle state.
type Status int

const (
	// StatusFresh is the initial state: never started, nothing to resume.
	StatusFresh Status = iota
	StatusActive
	StatusStopped
)

// Controller is the single owned session value. All of its exported
// methods are safe for concurrent use.
type Controller struct {
	entityRepo     repository.EntityRepository
	ledger         *ledger.Ledger
	log            *oplog.Log
	snap           *snapshot.Store
	snapshotEvery  int
	logger         zerolog.Logger

	// writeMu serializes every mutating operation end to end: the engine
	// mutation, the ledger write, and the log append happen as one
	// critical section, so the log's sequence order is always the real
	// serial order of engine mutations (spec.md §5).
	writeMu sync.Mutex

	// mu guards the fields below, which change on start/stop/resume/
	// recovery and are read on every request.
	mu       sync.Mutex
	status   Status
	store    *store.Store
	eng      *engine.Engine
	seq      int64
	mutCount int
	lastTS   int64
}

// New creates a Controller backed by the given repositories.
func New(entityRepo repository.EntityRepository, assignmentRepo repository.AssignmentRepository, logRepo repository.LogRepository, snapshotRepo repository.SnapshotRepository, snapshotEvery, maxSnapshots int, logger zerolog.Logger) *Controller {
	if snapshotEvery <= 0 {
		snapshotEvery = DefaultSnapshotInterval
	}
	return &Controller{
		entityRepo:    entityRepo,
		ledger:        ledger.New(assignmentRepo),
		log:           oplog.New(logRepo),
		snap:          snapshot.New(snapshotRepo, maxSnapshots),
		snapshotEvery: snapshotEvery,
		logger:        logger,
		status:        StatusFresh,
	}
}

// Status returns the current lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// nextTimestamp returns a strictly increasing nanosecond timestamp. Must
// be called with writeMu held.
func (c *Controller) nextTimestamp() int64 {
	ts := time.Now().UnixNano()
	c.mu.Lock()
	if ts <= c.lastTS {
		ts = c.lastTS + 1
	}
	c.lastTS = ts
	c.mu.Unlock()
	return ts
}

// Start creates entities from csv and a fresh engine, clearing any prior
// snapshots, logs, and assignments. Fails with ErrAlreadyStarted if the
// session is already ACTIVE.
func (c *Controller) Start(ctx context.Context, csv io.Reader) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.Status() == StatusActive {
		return ErrAlreadyStarted
	}

	entities, err := ingest.LoadCSV(csv)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}

	eng, err := engine.New(len(entities), engineSeed1, engineSeed2)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if err := c.entityRepo.ReplaceAll(ctx, entities); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := c.log.Clear(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := c.snap.Clear(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := c.ledger.Clear(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	c.mu.Lock()
	c.store = store.New(entities)
	c.eng = eng
	c.status = StatusActive
	c.seq = 0
	c.mutCount = 0
	c.lastTS = 0
	c.mu.Unlock()

	c.logger.Info().Int("k", len(entities)).Msg("Session started")
	return nil
}

// Stop disables the session without destroying its state.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusActive {
		return ErrNotStarted
	}
	c.status = StatusStopped
	return nil
}

// Resume re-enables a stopped session.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.status {
	case StatusActive:
		return ErrAlreadyStarted
	case StatusFresh:
		return ErrNotStarted
	default:
		c.status = StatusActive
		return nil
	}
}

// active returns the live engine and store if the session is ACTIVE.
func (c *Controller) active() (*engine.Engine, *store.Store, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng, c.store, c.status == StatusActive
}

// GetPair returns the pair judgeID should compare. If force is false and
// judgeID already has an outstanding assignment, the same pair is
// returned (idempotent refresh). Otherwise a new pair is drawn, assigned,
// and durably logged before being returned.
func (c *Controller) GetPair(ctx context.Context, judgeID string, force bool) (model.Entity, model.Entity, error) {
	eng, st, ok := c.active()
	if !ok {
		return model.Entity{}, model.Entity{}, ErrNotStarted
	}

	if !force {
		if a, b, ok := c.ledger.Get(judgeID); ok {
			ea, _ := st.Get(a)
			eb, _ := st.Get(b)
			return ea, eb, nil
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ts := c.nextTimestamp()
	ev, err := c.log.AppendPairIssued(ctx, judgeID, ts)
	if err != nil {
		return model.Entity{}, model.Entity{}, fmt.Errorf("get pair: %w", err)
	}

	i, j, err := eng.NextPair(DefaultTemperature)
	if err != nil {
		return model.Entity{}, model.Entity{}, fmt.Errorf("get pair: %w", err)
	}
	if err := c.ledger.Assign(ctx, judgeID, i, j, ts); err != nil {
		return model.Entity{}, model.Entity{}, fmt.Errorf("get pair: %w", err)
	}

	c.afterMutation(ctx, eng, ev.Sequence)

	ea, _ := st.Get(i)
	eb, _ := st.Get(j)
	return ea, eb, nil
}

// Submit applies judgeID's verdict for the pair (a, b), failing with
// ErrJudgeDoesNotOwnPair if judgeID does not currently own that pair, or
// ErrInvalidPair if winner is not one of a or b (or a == b).
func (c *Controller) Submit(ctx context.Context, judgeID string, a, b, winner int) error {
	eng, _, ok := c.active()
	if !ok {
		return ErrNotStarted
	}

	if !c.ledger.Verify(judgeID, a, b) {
		return ErrJudgeDoesNotOwnPair
	}
	if a == b || (winner != a && winner != b) {
		return ErrInvalidPair
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ts := c.nextTimestamp()
	ev, err := c.log.AppendSubmitted(ctx, judgeID, a, b, winner, ts)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	applied, err := eng.Submit(a, b, winner)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if !applied {
		c.logger.Warn().Str("judge_id", judgeID).Int("a", a).Int("b", b).Msg("Moment-matching update skipped: numeric guard tripped")
	}
	if err := c.ledger.Release(ctx, judgeID); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	c.afterMutation(ctx, eng, ev.Sequence)
	return nil
}

// Rankings returns the session's entities ordered by strength descending.
func (c *Controller) Rankings() ([]model.Entity, error) {
	eng, st, ok := c.active()
	if !ok {
		return nil, ErrNotStarted
	}

	order := eng.Rankings()
	out := make([]model.Entity, 0, len(order))
	for _, id := range order {
		e, _ := st.Get(id)
		out = append(out, e)
	}
	return out, nil
}

// afterMutation bumps the mutation counter and writes a snapshot once it
// reaches snapshotEvery. Must be called with writeMu held, so no snapshot
// can race a mutation and no two snapshots can be taken concurrently.
func (c *Controller) afterMutation(ctx context.Context, eng *engine.Engine, sequence int64) {
	c.mu.Lock()
	c.seq = sequence
	c.mutCount++
	due := c.mutCount >= c.snapshotEvery
	c.mu.Unlock()

	if !due {
		return
	}

	state, err := eng.Snapshot()
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to capture engine state for snapshot")
		return
	}
	if err := c.snap.Write(ctx, sequence, time.Now().UnixNano(), state); err != nil {
		c.logger.Error().Err(err).Msg("Failed to write snapshot")
		return
	}

	c.mu.Lock()
	c.mutCount = 0
	c.mu.Unlock()
}

// Recover performs boot-time crash recovery: it loads entities, installs
// the most recent snapshot (if any), replays every log event since that
// snapshot's horizon through the same engine entry points a live request
// would have called, and rebuilds the ledger from its durably persisted
// rows. If no snapshot exists, the session remains FRESH.
func (c *Controller) Recover(ctx context.Context) error {
	entities, err := c.entityRepo.All(ctx)
	if err != nil {
		return fmt.Errorf("recover: %w", err)
	}
	if len(entities) == 0 {
		return nil
	}

	seq, state, ok, err := c.snap.Latest(ctx)
	if err != nil {
		return fmt.Errorf("recover: %w", err)
	}
	if !ok {
		return nil
	}

	eng, err := engine.Restore(state)
	if err != nil {
		return fmt.Errorf("recover: %w", err)
	}

	events, err := c.log.ReplaySince(ctx, seq)
	if err != nil {
		return fmt.Errorf("recover: %w", err)
	}

	lastSeq := seq
	for _, ev := range events {
		switch ev.Kind {
		case model.EventPairIssued:
			if _, _, err := eng.NextPair(DefaultTemperature); err != nil {
				return fmt.Errorf("recover: replay pair-issued: %w", err)
			}
		case model.EventSubmitted:
			if _, err := eng.Submit(ev.PairA, ev.PairB, ev.Winner); err != nil {
				return fmt.Errorf("recover: replay submitted: %w", err)
			}
		}
		lastSeq = ev.Sequence
	}

	if err := c.ledger.Load(ctx); err != nil {
		return fmt.Errorf("recover: %w", err)
	}

	c.mu.Lock()
	c.store = store.New(entities)
	c.eng = eng
	c.status = StatusActive
	c.seq = lastSeq
	c.mutCount = 0
	c.mu.Unlock()

	c.logger.Info().Int64("sequence", lastSeq).Int("replayed", len(events)).Msg("Session recovered")
	return nil
}
