// Package engine holds the mutable strength state of the judging session
// and serializes access to it: alpha, per-entity frequency, and the RNG
// counter all live behind one mutex, matching the single-writer model the
// session controller assumes.
package engine

import (
	"errors"
	"sync"

	"github.com/mhacks/dredd-judging/internal/rng"
	"github.com/mhacks/dredd-judging/pkg/ranking"
)

// ErrInvalidState is returned when an operation requires at least two
// entities and the engine has fewer.
var ErrInvalidState = errors.New("engine: at least two entities are required")

// ErrInvalidPair is returned when a submitted comparison names an invalid
// pair: identical indices, an out-of-range index, or a winner that is
// neither of the two compared entities.
var ErrInvalidPair = errors.New("engine: invalid pair or winner")

// State is the serializable snapshot of everything the engine needs to
// resume identically: the Dirichlet concentration vector, per-entity issue
// counts, and the RNG's exact counter bytes.
type State struct {
	K         int
	Alpha     []float64
	Frequency []int64
	RNGBytes  []byte
}

// Engine is the locked, stateful strength engine. All mutation happens
// under mu; Rankings takes a consistent copy of alpha under mu and sorts
// outside it.
type Engine struct {
	mu  sync.Mutex
	k   int
	alp []float64
	frq []int64
	gen *rng.State
}

// New creates a fresh engine for k entities with a uniform Dirichlet prior
// (alpha = 1 for all k) and a generator seeded from seed1/seed2.
func New(k int, seed1, seed2 uint64) (*Engine, error) {
	if k < 2 {
		return nil, ErrInvalidState
	}
	alpha := make([]float64, k)
	freq := make([]int64, k)
	for i := range alpha {
		alpha[i] = 1
	}
	return &Engine{k: k, alp: alpha, frq: freq, gen: rng.New(seed1, seed2)}, nil
}

// Restore rebuilds an engine from a previously captured State.
func Restore(s State) (*Engine, error) {
	if s.K < 2 {
		return nil, ErrInvalidState
	}
	gen, err := rng.Restore(s.RNGBytes)
	if err != nil {
		return nil, err
	}
	alpha := make([]float64, s.K)
	copy(alpha, s.Alpha)
	freq := make([]int64, s.K)
	copy(freq, s.Frequency)
	return &Engine{k: s.K, alp: alpha, frq: freq, gen: gen}, nil
}

// K returns the fixed number of entities.
func (e *Engine) K() int {
	return e.k
}

// NextPair draws the next pair to compare under the frequency-biased
// softmax policy at the given temperature, advances frequency for both
// entities, and returns them in ascending order.
func (e *Engine) NextPair(temperature float64) (int, int, error) {
	if e.k < 2 {
		return 0, 0, ErrInvalidState
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	type pair struct{ a, b int }
	pairs := make([]pair, 0, e.k*(e.k-1)/2)
	negFreq := make([]float64, 0, cap(pairs))
	for a := 0; a < e.k; a++ {
		for b := a + 1; b < e.k; b++ {
			pairs = append(pairs, pair{a, b})
			negFreq = append(negFreq, -float64(e.frq[a]+e.frq[b]))
		}
	}

	dist := ranking.Softmax(negFreq, temperature)
	draw := e.gen.Float64()
	chosen := len(dist) - 1
	cum := 0.0
	for i, p := range dist {
		cum += p
		if draw < cum {
			chosen = i
			break
		}
	}

	i, j := pairs[chosen].a, pairs[chosen].b
	e.frq[i]++
	e.frq[j]++
	return i, j, nil
}

// Submit applies the moment-matching update for a judged comparison
// between i and j, where winner is whichever of the two prevailed. The
// returned bool is false if one of the algorithm's numeric guards tripped
// and alpha was left unchanged (NumericDegenerate, per spec); it is not an
// error.
func (e *Engine) Submit(i, j, winner int) (bool, error) {
	if i == j || i < 0 || j < 0 || i >= e.k || j >= e.k || (winner != i && winner != j) {
		return false, ErrInvalidPair
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	y := -1
	if winner == i {
		y = 1
	}
	next, ok := ranking.MomentMatch(e.alp, i, j, y)
	if ok {
		copy(e.alp, next)
	}
	return ok, nil
}

// Rankings returns entity indices sorted by alpha descending, ties broken
// by ascending index.
func (e *Engine) Rankings() []int {
	e.mu.Lock()
	alphaCopy := make([]float64, e.k)
	copy(alphaCopy, e.alp)
	e.mu.Unlock()

	return ranking.Rankings(alphaCopy)
}

// PairScores returns the read-only diagnostic pair-score (see
// pkg/ranking.PairScore) for every candidate pair, keyed by [i][j] with
// i<j. It is never consulted by NextPair.
func (e *Engine) PairScores() map[[2]int]float64 {
	e.mu.Lock()
	alphaCopy := make([]float64, e.k)
	copy(alphaCopy, e.alp)
	e.mu.Unlock()

	out := make(map[[2]int]float64, e.k*(e.k-1)/2)
	for a := 0; a < e.k; a++ {
		for b := a + 1; b < e.k; b++ {
			out[[2]int{a, b}] = ranking.PairScore(alphaCopy, a, b)
		}
	}
	return out
}

// Snapshot captures the engine's current state for durable storage. The
// returned RNG bytes are an independent copy; continuing to draw from the
// live engine does not mutate them.
func (e *Engine) Snapshot() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	genCopy, err := e.gen.Clone()
	if err != nil {
		return State{}, err
	}
	rngBytes, err := genCopy.Marshal()
	if err != nil {
		return State{}, err
	}

	alpha := make([]float64, e.k)
	copy(alpha, e.alp)
	freq := make([]int64, e.k)
	copy(freq, e.frq)

	return State{K: e.k, Alpha: alpha, Frequency: freq, RNGBytes: rngBytes}, nil
}
