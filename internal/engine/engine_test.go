package engine

import "testing"

func TestNewRejectsFewerThanTwoEntities(t *testing.T) {
	if _, err := New(1, 1, 1); err != ErrInvalidState {
		t.Fatalf("New(1, ...) error = %v, want ErrInvalidState", err)
	}
}

func TestFreshEngineInvariants(t *testing.T) {
	eng, err := New(4, 1, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	state, err := eng.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(state.Alpha) != state.K || len(state.Frequency) != state.K {
		t.Fatalf("len(alpha)=%d len(frequency)=%d K=%d, want all equal", len(state.Alpha), len(state.Frequency), state.K)
	}
	for i, a := range state.Alpha {
		if a != 1 {
			t.Errorf("alpha[%d] = %v, want 1 (uniform prior)", i, a)
		}
	}
}

func TestNextPairAdvancesFrequencyBySumTwoPerCall(t *testing.T) {
	eng, err := New(5, 1, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	const n = 20
	for i := 0; i < n; i++ {
		if _, _, err := eng.NextPair(1.0); err != nil {
			t.Fatalf("NextPair: %v", err)
		}
	}
	state, err := eng.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	sum := int64(0)
	for _, f := range state.Frequency {
		sum += f
	}
	if sum != 2*n {
		t.Errorf("sum(frequency) = %d, want %d", sum, 2*n)
	}
}

func TestNextPairNeverReturnsDegenerateOrOutOfRangePair(t *testing.T) {
	eng, err := New(4, 3, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 50; i++ {
		a, b, err := eng.NextPair(1.0)
		if err != nil {
			t.Fatalf("NextPair: %v", err)
		}
		if a == b {
			t.Fatalf("NextPair returned (%d, %d): identical indices", a, b)
		}
		if a < 0 || a >= eng.K() || b < 0 || b >= eng.K() {
			t.Fatalf("NextPair returned (%d, %d) outside [0, %d)", a, b, eng.K())
		}
	}
}

func TestSubmitRejectsInvalidPair(t *testing.T) {
	eng, err := New(3, 5, 6)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := eng.Submit(0, 0, 0); err != ErrInvalidPair {
		t.Errorf("Submit(i == j) error = %v, want ErrInvalidPair", err)
	}
	if _, err := eng.Submit(0, 1, 2); err != ErrInvalidPair {
		t.Errorf("Submit(winner not in pair) error = %v, want ErrInvalidPair", err)
	}
}

func TestSnapshotRestoreMatchesContinuedExecution(t *testing.T) {
	// Invariant 4: running a sequence from a fresh engine vs splitting it
	// around a snapshot/restore boundary must agree. This checks the split
	// after the second operation.
	ops := func(e *Engine) {
		_, _, _ = e.NextPair(1.0)
		_, _ = e.Submit(0, 1, 1)
		_, _, _ = e.NextPair(1.0)
		_, _ = e.Submit(1, 2, 2)
		_, _, _ = e.NextPair(1.0)
	}

	reference, err := New(4, 11, 22)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ops(reference)
	refState, err := reference.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	fresh, err := New(4, 11, 22)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, _, _ = fresh.NextPair(1.0)
	_, _ = fresh.Submit(0, 1, 1)

	mid, err := fresh.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	restored, err := Restore(mid)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	_, _, _ = restored.NextPair(1.0)
	_, _ = restored.Submit(1, 2, 2)
	_, _, _ = restored.NextPair(1.0)

	splitState, err := restored.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	for i := range refState.Alpha {
		if refState.Alpha[i] != splitState.Alpha[i] {
			t.Errorf("alpha[%d] diverged across snapshot boundary: %v vs %v", i, refState.Alpha[i], splitState.Alpha[i])
		}
	}
	for i := range refState.Frequency {
		if refState.Frequency[i] != splitState.Frequency[i] {
			t.Errorf("frequency[%d] diverged across snapshot boundary: %v vs %v", i, refState.Frequency[i], splitState.Frequency[i])
		}
	}
	if string(refState.RNGBytes) != string(splitState.RNGBytes) {
		t.Errorf("rng state diverged across snapshot boundary")
	}
}

func TestRankingsIsPermutationOfEntityIDs(t *testing.T) {
	eng, err := New(6, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	order := eng.Rankings()
	if len(order) != 6 {
		t.Fatalf("Rankings returned %d entries, want 6", len(order))
	}
	seen := make(map[int]bool)
	for _, id := range order {
		seen[id] = true
	}
	if len(seen) != 6 {
		t.Fatalf("Rankings was not a permutation: %v", order)
	}
}

func TestCoverageBiasAtHighAndZeroTemperature(t *testing.T) {
	// S6: K=4, 20 draws at temperature=1.0 keeps max-min frequency spread
	// small; temperature -> 0 should keep it tighter still.
	run := func(temperature float64) int64 {
		eng, err := New(4, 100, 200)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		for i := 0; i < 20; i++ {
			if _, _, err := eng.NextPair(temperature); err != nil {
				t.Fatalf("NextPair: %v", err)
			}
		}
		state, err := eng.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		min, max := state.Frequency[0], state.Frequency[0]
		for _, f := range state.Frequency {
			if f < min {
				min = f
			}
			if f > max {
				max = f
			}
		}
		return max - min
	}

	if spread := run(1.0); spread > 4 {
		t.Errorf("temperature=1.0 spread = %d, want <= 4", spread)
	}
	if spread := run(1e-9); spread > 1 {
		t.Errorf("temperature->0 spread = %d, want <= 1", spread)
	}
}
