package update

import (
	"github.com/sunfish-shogi/learntrain/eval"
	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/search"
)

// OnlineNorm is the online regime's (much smaller) L1-style pull
// coefficient (section 6).
const OnlineNorm = 1e-6

// MiniBatchLength is the number of jobs drained per online update
// (section 6).
const MiniBatchLength = 256

// OnlineUpdater maintains the three feature vectors the averaged-
// perceptron regime needs: raw weights W, the averaging accumulator U,
// and the evaluator's published integer weights E (design section
// 4.7's online mode).
type OnlineUpdater struct {
	W *fv.FV[float32]
	U *fv.FV[float32]
	E *fv.FV[int16]

	// Published receives round(w - u/miniBatchCount), the checkpoint
	// persisted to disk each mini-batch (section 4.7 step 3).
	// E itself is overwritten with round(w) afterward — the "last"
	// weights used by this run's own searches (step 4) — so the two
	// diverge except at t=0.
	Published *fv.FV[int16]

	MiniBatchCount int64
}

// OnlineStats summarizes one mini-batch update.
type OnlineStats struct {
	MaxAbs    float32
	Magnitude float64
}

// Apply consumes the mini-batch's gradient FV grad, folds it into W and
// U, publishes the averaged weights into Published, then overwrites E with the
// unaveraged "last" weights for immediate use by subsequent searches,
// per section 4.7 steps 2-4. Apply zeroes grad cell-by-cell as
// it consumes it, so the caller can reuse the same FV as the deposit
// target for the next mini-batch without a separate reset.
//
// scale normalizes the accumulated gradient before it is folded into w:
// it is NumberOfSiblingNodes times the number of jobs in this mini-batch
// that actually contributed a gradient (passed both the too-few-moves
// and mate-range early-return guards in example.Generator.OnlineExample),
// matching the ported reference's dynamic miniBatchScale_ rather than a
// fixed MiniBatchLength. A mini-batch with no contributing jobs carries
// no gradient mass, so scale of 0 is treated as a no-op divisor.
func (u *OnlineUpdater) Apply(grad *fv.FV[float32], evaluator eval.Evaluator, searchers []search.Searcher, scale float32) OnlineStats {
	var stats OnlineStats
	miniBatchCount := float64(u.MiniBatchCount + 1)
	if scale == 0 {
		scale = 1
	}

	for i := 0; i < grad.KPPLen(); i++ {
		applyOnlineCell(grad.KPPAt(i), u.W.KPPAt(i), u.U.KPPAt(i), u.E.KPPAt(i), u.Published.KPPAt(i), scale, miniBatchCount, &stats)
	}
	for i := 0; i < grad.KKPLen(); i++ {
		applyOnlineCell(grad.KKPAt(i), u.W.KKPAt(i), u.U.KKPAt(i), u.E.KKPAt(i), u.Published.KKPAt(i), scale, miniBatchCount, &stats)
	}

	u.MiniBatchCount++

	evaluator.ClearCache()
	for _, s := range searchers {
		s.ClearTT()
	}
	return stats
}

// applyOnlineCell implements one cell of section 4.7's online
// steps 2-4: fold the gradient into w and u, publish the averaged
// weight into published, then overwrite e with round(w) for immediate use.
func applyOnlineCell(g, w, u *float32, e, published *int16, scale float32, miniBatchCount float64, stats *OnlineStats) {
	f := *g/scale + onlineNormPull(*w)
	*g = 0
	*w += f
	*u += f * float32(miniBatchCount)

	*published = roundToInt16(*w - *u/float32(miniBatchCount))
	*e = roundToInt16(*w)

	abs := f
	if abs < 0 {
		abs = -abs
	}
	if abs > stats.MaxAbs {
		stats.MaxAbs = abs
	}
	stats.Magnitude += float64(abs)
}

func onlineNormPull(w float32) float32 {
	switch {
	case w > 0:
		return -OnlineNorm
	case w < 0:
		return OnlineNorm
	default:
		return 0
	}
}

func roundToInt16(v float32) int16 {
	if v >= 0 {
		return int16(v + 0.5)
	}
	return int16(v - 0.5)
}
