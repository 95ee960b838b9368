// Package ranking implements the pure math behind the pairwise judging
// engine: the Dirichlet moment-matching update and the frequency-biased
// softmax pair-selection policy. Functions here take and return plain
// slices, hold no lock, and touch no RNG or I/O — state, concurrency, and
// randomness are internal/engine's job.
package ranking

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// degenerateEps is the numeric guard threshold from the moment-matching
// update: if |sum(C^2) - D| falls below this, the update is too close to
// a division by zero to trust and is skipped.
const degenerateEps = 1e-14

// MomentMatch applies one Dirichlet moment-matching update to alpha given
// a comparison between items i and j with outcome y (+1 if i won, -1 if j
// won). It returns the updated vector and true, or the input vector
// unchanged and false if one of the numeric guards in the algorithm's
// defensive design tripped (S <= 0, a near-zero denominator, or S' <= 0).
// alpha is never mutated in place.
func MomentMatch(alpha []float64, i, j int, y int) ([]float64, bool) {
	k := len(alpha)
	s := floats.Sum(alpha)
	if s <= 0 {
		return alpha, false
	}

	ai, aj := alpha[i], alpha[j]
	yf := float64(y)

	c := make([]float64, k)
	cDenom := s * (ai + aj + 1.0)
	for idx, a := range alpha {
		switch idx {
		case i:
			c[idx] = (ai + (1.0+yf)/2.0) * (ai + aj) / cDenom
		case j:
			c[idx] = (aj + (1.0-yf)/2.0) * (ai + aj) / cDenom
		default:
			c[idx] = a / s
		}
	}

	dDenom := s * (s + 1.0) * (ai + aj + 2.0)
	di := (ai + (1.0+yf)/2.0) * (ai + (3.0+yf)/2.0) * (ai + aj) / dDenom
	dj := (aj + (1.0-yf)/2.0) * (aj + (3.0-yf)/2.0) * (ai + aj) / dDenom

	restDenom := s * (s + 1.0)
	dAll := 0.0
	for _, a := range alpha {
		dAll += a * (a + 1.0)
	}
	dAll /= restDenom
	dExtra := (ai*(ai+1.0) + aj*(aj+1.0)) / restDenom
	d := di + dj + (dAll - dExtra)

	sumCSq := floats.Dot(c, c)
	denom := sumCSq - d
	if math.Abs(denom) < degenerateEps {
		return alpha, false
	}

	sPrime := (d - 1.0) / denom
	if sPrime <= 0 {
		return alpha, false
	}

	next := make([]float64, k)
	copy(next, c)
	floats.Scale(sPrime, next)
	return next, true
}

// Softmax computes exp(negFreq/temperature) normalized to sum to 1,
// numerically stabilized by subtracting the max before exponentiating. A
// non-positive temperature is treated as the temperature-to-zero limit: a
// uniform distribution over whichever entries attain the maximum negFreq
// (lowest frequency), and zero elsewhere.
func Softmax(negFreq []float64, temperature float64) []float64 {
	n := len(negFreq)
	out := make([]float64, n)
	if temperature <= 0 {
		best := math.Inf(-1)
		for _, v := range negFreq {
			if v > best {
				best = v
			}
		}
		count := 0
		for _, v := range negFreq {
			if v == best {
				count++
			}
		}
		for idx, v := range negFreq {
			if v == best {
				out[idx] = 1.0 / float64(count)
			}
		}
		return out
	}

	scaled := make([]float64, n)
	for idx, v := range negFreq {
		scaled[idx] = v / temperature
	}
	maxV := floats.Max(scaled)
	sum := 0.0
	for idx, v := range scaled {
		e := math.Exp(v - maxV)
		out[idx] = e
		sum += e
	}
	floats.Scale(1.0/sum, out)
	return out
}

// PairScore is a read-only diagnostic proxy for how informative comparing
// i and j would be: the leading factor of the original Bayesian pair-score
// (prob_i_wins weighted by how far the pair's current split is from
// certainty), without the expensive O(K^2) recursive beta-incomplete term
// it was paired with. It is never consulted by pair selection.
func PairScore(alpha []float64, i, j int) float64 {
	denom := alpha[i] + alpha[j]
	if denom <= 0 {
		return 0
	}
	p := alpha[i] / denom
	return p * (1 - p)
}

// Rankings returns entity indices [0, len(alpha)) sorted by alpha
// descending, ties broken by ascending index.
func Rankings(alpha []float64) []int {
	idx := make([]int, len(alpha))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if alpha[idx[a]] != alpha[idx[b]] {
			return alpha[idx[a]] > alpha[idx[b]]
		}
		return idx[a] < idx[b]
	})
	return idx
}
