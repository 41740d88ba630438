// Package update implements the parameter updater (design section
// 4.7): the batch L1-pull/stochastic-rounding/symmetrize pass and
// material reshuffle, plus the online averaged-perceptron bookkeeping.
// Grounded on a texel tuner's optimizer step shape (Adam's per-cell
// loop over params/grads), replacing gradient descent with a
// randomized-rounding integer update.
package update

import (
	"golang.org/x/exp/rand"

	"github.com/sunfish-shogi/learntrain/eval"
	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/search"
)

// Norm is the batch L1 regularization coefficient (section 6).
const Norm = 1e-2

// BatchUpdater applies one weight-update pass to an evaluator's
// integer feature vector from a float32 gradient vector.
type BatchUpdater struct {
	Rand *rand.Rand

	// ClearTranspositionTables toggles whether Apply clears search
	// transposition tables after the update (design's Open
	// Question decision 2: kept as a named toggle, set true by the
	// batch command, rather than silently baked in).
	ClearTranspositionTables bool
}

// Stats summarizes one Apply call.
type Stats struct {
	MaxAbs    int32
	Magnitude int64
}

// Apply symmetrizes grad by summation, then walks every weight cell
// applying an L1 pull followed by a randomized-rounding step of the
// resulting sub-gradient's sign, writing the result into weights. It
// finishes by symmetrizing weights via copy so the evaluator FV is
// exactly mirror-symmetric (section 8's invariant), and clears
// the evaluator's cache.
func (u *BatchUpdater) Apply(grad *fv.FV[float32], weights *fv.FV[int16], evaluator eval.Evaluator, searchers []search.Searcher) Stats {
	grad.Symmetrize(func(a, b float32) float32 { return a + b })

	var stats Stats
	for i := 0; i < grad.KPPLen(); i++ {
		stats.update(u.applyCell(grad.KPPAt(i), weights.KPPAt(i)))
	}
	for i := 0; i < grad.KKPLen(); i++ {
		stats.update(u.applyCell(grad.KKPAt(i), weights.KKPAt(i)))
	}

	weights.Symmetrize(func(_, b int16) int16 { return b })

	evaluator.ClearCache()
	if u.ClearTranspositionTables {
		for _, s := range searchers {
			s.ClearTT()
		}
	}
	return stats
}

func (s *Stats) update(e int16) {
	abs := e
	if abs < 0 {
		abs = -abs
	}
	if int32(abs) > s.MaxAbs {
		s.MaxAbs = int32(abs)
	}
	s.Magnitude += int64(abs)
}

// applyCell mutates one weight cell in place and returns its new value
// for Stats bookkeeping.
func (u *BatchUpdater) applyCell(g *float32, e *int16) int16 {
	sub := *g
	sub += l1Pull(*e)

	switch {
	case sub > 0:
		*e += randRound(u.Rand)
	case sub < 0:
		*e -= randRound(u.Rand)
	}
	return *e
}

// l1Pull returns -Norm*sgn(e), the L1 regularization term added to the
// sub-gradient before the rounding decision.
func l1Pull(e int16) float32 {
	switch {
	case e > 0:
		return -Norm
	case e < 0:
		return Norm
	default:
		return 0
	}
}

// randRound draws a uniform integer in {0, 1, 2} as the sum of two
// independent fair bits, the reference's randomized-rounding step for
// turning a continuous sub-gradient into an integer weight nudge.
func randRound(r *rand.Rand) int16 {
	return int16(r.Intn(2) + r.Intn(2))
}
