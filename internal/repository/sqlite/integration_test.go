//go:build integration

package sqlite

import (
	"context"
	"testing"

	"github.com/mhacks/dredd-judging/internal/model"
	"github.com/mhacks/dredd-judging/internal/testutil"
)

func setup(t *testing.T) *testutil.Repos {
	t.Helper()
	repos := testutil.SetupDB(t)
	testutil.CleanupDB(t, repos.DB)
	return repos
}

func TestEntityRepoReplaceAllThenAll(t *testing.T) {
	repos := setup(t)
	ctx := context.Background()

	want := []model.Entity{
		{ProjectID: 0, ProjectName: "Alpha", Tracks: "AI"},
		{ProjectID: 1, ProjectName: "Beta", Tracks: "Web"},
	}
	if err := repos.Entities.ReplaceAll(ctx, want); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := repos.Entities.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entities, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ProjectName != want[i].ProjectName {
			t.Errorf("entity %d name = %q, want %q", i, got[i].ProjectName, want[i].ProjectName)
		}
	}

	if err := repos.Entities.ReplaceAll(ctx, want[:1]); err != nil {
		t.Fatalf("second ReplaceAll: %v", err)
	}
	got, err = repos.Entities.All(ctx)
	if err != nil {
		t.Fatalf("All after replace: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entities after replace, want 1", len(got))
	}
}

func TestAssignmentRepoAssignReleaseRoundTrip(t *testing.T) {
	repos := setup(t)
	ctx := context.Background()

	if err := repos.Assignments.Assign(ctx, "judge-1", 0, 1, 100); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	got, ok, err := repos.Assignments.Get(ctx, "judge-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get reported no assignment after Assign")
	}
	if got.A != 0 || got.B != 1 {
		t.Fatalf("assignment = (%d, %d), want (0, 1)", got.A, got.B)
	}

	if err := repos.Assignments.Assign(ctx, "judge-1", 2, 3, 200); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	got, _, _ = repos.Assignments.Get(ctx, "judge-1")
	if got.A != 2 || got.B != 3 {
		t.Fatalf("reassigned pair = (%d, %d), want (2, 3)", got.A, got.B)
	}

	if err := repos.Assignments.Release(ctx, "judge-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	_, ok, err = repos.Assignments.Get(ctx, "judge-1")
	if err != nil {
		t.Fatalf("Get after release: %v", err)
	}
	if ok {
		t.Fatal("Get reported an assignment after Release")
	}
}

func TestLogRepoAppendOrdersBySequence(t *testing.T) {
	repos := setup(t)
	ctx := context.Background()

	first, err := repos.Logs.Append(ctx, model.LogEvent{Kind: model.EventPairIssued, JudgeID: "j1", Timestamp: 1})
	if err != nil {
		t.Fatalf("append 1: %v", err)
	}
	second, err := repos.Logs.Append(ctx, model.LogEvent{Kind: model.EventSubmitted, JudgeID: "j1", PairA: 0, PairB: 1, Winner: 0, Timestamp: 2})
	if err != nil {
		t.Fatalf("append 2: %v", err)
	}
	if second.Sequence <= first.Sequence {
		t.Fatalf("sequence did not increase: %d then %d", first.Sequence, second.Sequence)
	}

	events, err := repos.Logs.ReplaySince(ctx, first.Sequence)
	if err != nil {
		t.Fatalf("ReplaySince: %v", err)
	}
	if len(events) != 1 || events[0].Sequence != second.Sequence {
		t.Fatalf("ReplaySince returned %+v, want only the second event", events)
	}
}

func TestSnapshotRepoWriteEvictsBeyondCap(t *testing.T) {
	repos := setup(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		snap := model.Snapshot{Sequence: i, Timestamp: i, K: 2, Alpha: []float64{1, 1}, Frequency: []int64{0, 0}, RNG: []byte("x")}
		if err := repos.Snapshots.Write(ctx, snap, 2); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	latest, ok, err := repos.Snapshots.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !ok {
		t.Fatal("Latest reported no snapshot")
	}
	if latest.Sequence != 3 {
		t.Fatalf("Latest sequence = %d, want 3", latest.Sequence)
	}

	var count int
	if err := repos.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&count); err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	if count != 2 {
		t.Fatalf("snapshot rows = %d, want 2 after three writes with a cap of 2", count)
	}
}
