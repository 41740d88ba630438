// Package gradient implements the gradient accumulation pass (design
// section 4.6): stream a training set, evaluate each PV leaf against
// the evaluator, compute a sigmoid loss/gradient per sibling, and
// deposit it into a gradient feature vector (and, optionally, a
// material gradient).
package gradient

import (
	"fmt"
	"io"
	"math"

	"github.com/sunfish-shogi/learntrain/eval"
	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/material"
	"github.com/sunfish-shogi/learntrain/shogi"
	"github.com/sunfish-shogi/learntrain/trainset"
)

// Gain is 7/WINDOW, the corrected sigmoid gain sign design section
// 4.6 calls out as the revised batch variant's fix (design
// DESIGN NOTES: "Two near-duplicate batch-learning files").
const Gain float32 = 7.0 / 256.0

// Sigmoid is the loss curve gradient.Accumulator integrates: a
// logistic function of the score difference scaled by gain.
func Sigmoid(x, gain float32) float32 {
	return 1 / (1 + float32(math.Exp(float64(-gain*x))))
}

// SigmoidDerivative returns s - s^2 scaled by gain, matching Sigmoid's
// analytic derivative (section 8's sigmoid/gradient consistency
// law).
func SigmoidDerivative(x, gain float32) float32 {
	s := Sigmoid(x, gain)
	return (s - s*s) * gain
}

// Options configures one Accumulator.Run pass.
type Options struct {
	Gain float32

	// Material, when non-nil, receives the piece-count-difference
	// material gradient alongside the positional one (batch mode
	// only — section 3's Lifecycles note that online mode
	// never touches material).
	Material *[material.NumKinds]float64
}

// Accumulator deposits gradients into Weights, a float32 FV zeroed at
// the start of every pass by the caller (section 3's FV
// gradient lifecycle: "zeroed at the start of C6").
type Accumulator struct {
	Weights *fv.FV[float32]
}

// Result summarizes one completed pass.
type Result struct {
	Loss float64
}

// Run streams every group from r, accumulating gradients for every
// sibling PV inside the evaluator's window and returning the summed
// sigmoid loss. It terminates cleanly on the reader's io.EOF.
func (a *Accumulator) Run(r *trainset.Reader, evaluator eval.Evaluator, opts Options) (Result, error) {
	var result Result
	for {
		g, err := r.NextGroup()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return result, fmt.Errorf("gradient: %w", err)
		}
		if len(g.ExpertLine) == 0 {
			continue
		}

		rootBoard := shogi.FromCompact(g.Root)
		black := rootBoard.Turn() == shogi.Black

		l0 := pvLeaf(rootBoard, g.ExpertLine)
		v0 := evaluator.Evaluate(&l0)

		for _, sibling := range g.SiblingLines {
			l := pvLeaf(rootBoard, sibling)
			v := evaluator.Evaluate(&l)

			diff := float32(v - v0)
			if !black {
				diff = -diff
			}

			result.Loss += float64(Sigmoid(diff, opts.Gain))
			gr := SigmoidDerivative(diff, opts.Gain)
			if !black {
				gr = -gr
			}

			a.Weights.Extract(&l0, gr)
			a.Weights.Extract(&l, -gr)

			if opts.Material != nil {
				depositMaterialGradient(opts.Material, &l0, &l, gr)
			}
		}
	}
}

func pvLeaf(root shogi.Board, pv []shogi.Move) shogi.Board {
	b := root
	for _, m := range pv {
		b = b.MakeMove(m)
	}
	return b
}

// depositMaterialGradient extracts the material gradient as piece-count
// differences between l0 and l, weighted by gr/-gr the same way the
// positional gradient is (section 4.6 step 3).
func depositMaterialGradient(grad *[material.NumKinds]float64, l0, l *shogi.Board, gr float32) {
	c0 := countPieces(l0)
	c1 := countPieces(l)
	for i := 0; i < material.NumKinds; i++ {
		grad[i] += float64(gr) * float64(c0[i]-c1[i])
	}
}

var trainableKinds = [material.NumKinds]shogi.Kind{
	shogi.Pawn, shogi.Lance, shogi.Knight, shogi.Silver, shogi.Gold,
	shogi.Bishop, shogi.Rook, shogi.Tokin, shogi.ProLance, shogi.ProKnight,
	shogi.ProSilver, shogi.Horse, shogi.Dragon,
}

// countPieces returns, per trainable kind, black's count minus white's
// count across the board and both hands.
func countPieces(b *shogi.Board) [material.NumKinds]int32 {
	var counts [material.NumKinds]int32
	kindSlot := make(map[shogi.Kind]int, material.NumKinds)
	for i, k := range trainableKinds {
		kindSlot[k] = i
	}

	for s := shogi.Square(0); s < shogi.NumSquares; s++ {
		p := b.At(s)
		if p.IsEmpty() || p.Kind() == shogi.King {
			continue
		}
		i, ok := kindSlot[p.Kind()]
		if !ok {
			continue
		}
		if p.Color() == shogi.Black {
			counts[i]++
		} else {
			counts[i]--
		}
	}
	for _, k := range [7]shogi.Kind{shogi.Pawn, shogi.Lance, shogi.Knight, shogi.Silver, shogi.Gold, shogi.Bishop, shogi.Rook} {
		i := kindSlot[k]
		counts[i] += int32(b.HandCount(shogi.Black, shogi.HandIndex(k)))
		counts[i] -= int32(b.HandCount(shogi.White, shogi.HandIndex(k)))
	}
	return counts
}
