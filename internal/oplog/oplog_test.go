package oplog

import (
	"context"
	"testing"

	"github.com/mhacks/dredd-judging/internal/model"
)

type fakeLogRepo struct {
	events []model.LogEvent
}

func (f *fakeLogRepo) Append(ctx context.Context, ev model.LogEvent) (model.LogEvent, error) {
	ev.Sequence = int64(len(f.events) + 1)
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakeLogRepo) ReplaySince(ctx context.Context, sequenceFloor int64) ([]model.LogEvent, error) {
	var out []model.LogEvent
	for _, ev := range f.events {
		if ev.Sequence > sequenceFloor {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeLogRepo) Clear(ctx context.Context) error {
	f.events = nil
	return nil
}

func TestAppendAssignsAscendingSequence(t *testing.T) {
	ctx := context.Background()
	l := New(&fakeLogRepo{})

	first, err := l.AppendPairIssued(ctx, "J1", 100)
	if err != nil {
		t.Fatalf("AppendPairIssued: %v", err)
	}
	second, err := l.AppendSubmitted(ctx, "J1", 0, 1, 1, 200)
	if err != nil {
		t.Fatalf("AppendSubmitted: %v", err)
	}
	if second.Sequence <= first.Sequence {
		t.Fatalf("sequence did not strictly increase: %d then %d", first.Sequence, second.Sequence)
	}
}

func TestReplaySinceExcludesHorizon(t *testing.T) {
	ctx := context.Background()
	l := New(&fakeLogRepo{})
	a, _ := l.AppendPairIssued(ctx, "J1", 1)
	_, _ = l.AppendPairIssued(ctx, "J2", 2)
	_, _ = l.AppendSubmitted(ctx, "J1", 0, 1, 1, 3)

	events, err := l.ReplaySince(ctx, a.Sequence)
	if err != nil {
		t.Fatalf("ReplaySince: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("ReplaySince returned %d events, want 2", len(events))
	}
	for _, ev := range events {
		if ev.Sequence <= a.Sequence {
			t.Fatalf("ReplaySince included event at or before the horizon: %d", ev.Sequence)
		}
	}
}

func TestClearEmptiesTheLog(t *testing.T) {
	ctx := context.Background()
	l := New(&fakeLogRepo{})
	_, _ = l.AppendPairIssued(ctx, "J1", 1)

	if err := l.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	events, err := l.ReplaySince(ctx, 0)
	if err != nil {
		t.Fatalf("ReplaySince: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("log has %d events after Clear, want 0", len(events))
	}
}
