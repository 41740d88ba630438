package gradient

import (
	"bytes"
	"io"
	"testing"

	"github.com/sunfish-shogi/learntrain/eval"
	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/material"
	"github.com/sunfish-shogi/learntrain/shogi"
	"github.com/sunfish-shogi/learntrain/trainset"
)

func TestSigmoidDerivativeMatchesAnalyticForm(t *testing.T) {
	for _, x := range []float32{-500, -10, -1, 0, 1, 10, 500} {
		got := SigmoidDerivative(x, Gain)
		s := Sigmoid(x, Gain)
		want := (s - s*s) * Gain
		if diff := got - want; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("SigmoidDerivative(%v) = %v, want %v", x, got, want)
		}
	}
}

func TestRunReturnsZeroLossOnEmptyStream(t *testing.T) {
	a := &Accumulator{Weights: &fv.FV[float32]{}}
	var w fv.FV[int16]
	ev := eval.NewDefault(&w, material.NewDefault())

	r := trainset.NewReader(bytes.NewReader(nil))
	result, err := a.Run(r, ev, Options{Gain: Gain})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Loss != 0 {
		t.Fatalf("expected zero loss on an empty stream, got %v", result.Loss)
	}
}

func TestRunDepositsGradientForOneSiblingGroup(t *testing.T) {
	root := shogi.NewInitialBoard()
	moves := shogi.GenerateMoves(&root)
	expert := []shogi.Move{moves[0]}
	sibling := []shogi.Move{moves[1]}

	var buf bytes.Buffer
	w := trainset.NewWriter(&buf)
	if err := w.AppendGroup(root.ToCompact(), [][]shogi.Move{expert, sibling}); err != nil {
		t.Fatal(err)
	}

	var mw fv.FV[int16]
	ev := eval.NewDefault(&mw, material.NewDefault())
	grad := &fv.FV[float32]{}
	a := &Accumulator{Weights: grad}

	r := trainset.NewReader(&buf)
	if _, err := a.Run(r, ev, Options{Gain: Gain}); err != nil && err != io.EOF {
		t.Fatalf("Run: %v", err)
	}

	var nonZero bool
	for i := 0; i < grad.KPPLen(); i++ {
		if *grad.KPPAt(i) != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected at least one non-zero gradient cell after processing a group with a sibling")
	}
}
