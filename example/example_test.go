package example

import (
	"testing"

	"golang.org/x/exp/rand"

	"github.com/sunfish-shogi/learntrain/eval"
	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/material"
	"github.com/sunfish-shogi/learntrain/search"
	"github.com/sunfish-shogi/learntrain/shogi"
)

func newGenerator(depth int) *Generator {
	var w fv.FV[int16]
	ev := eval.NewDefault(&w, material.NewDefault())
	s := search.NewAlphaBeta(ev, search.Config{MaxDepth: depth, Learning: true})
	return &Generator{Searchers: []search.Searcher{s}, Stats: &Stats{}}
}

func TestBatchExampleProducesExpertPlusAtLeastOneSibling(t *testing.T) {
	g := newGenerator(1)
	board := shogi.NewInitialBoard()
	moves := shogi.GenerateMoves(&board)

	group, ok := g.BatchExample(0, board, moves[0], 1)
	if !ok {
		t.Skip("no sibling fell inside the window at this depth/window — a valid outcome, not a failure")
	}
	if len(group.ExpertLine) == 0 {
		t.Fatal("expert line must be non-empty")
	}
	if group.ExpertLine[0] != moves[0] {
		t.Fatalf("expert line's root move = %v, want %v", group.ExpertLine[0], moves[0])
	}
	if len(group.SiblingLines) == 0 {
		t.Fatal("a produced example must carry at least one sibling line")
	}
}

func TestBatchExampleSkipsWhenFewerThanTwoLegalMoves(t *testing.T) {
	g := newGenerator(1)
	var board shogi.Board // empty board: zero legal moves
	if _, ok := g.BatchExample(0, board, shogi.Move{}, 1); ok {
		t.Fatal("expected no example from a position with fewer than 2 legal moves")
	}
}

func TestOnlineExampleCountsSiblingMoves(t *testing.T) {
	g := newGenerator(1)
	board := shogi.NewInitialBoard()
	moves := shogi.GenerateMoves(&board)

	var weights fv.FV[float32]
	rng := rand.New(rand.NewSource(1))
	g.OnlineExample(0, board, moves[0], 1, 0.0, &weights, rng)

	total, outOfWindow := g.Stats.Snapshot()
	if total == 0 {
		t.Fatal("expected sibling moves to be counted")
	}
	if outOfWindow > total {
		t.Fatalf("outOfWindLoss (%d) must never exceed totalMoves (%d)", outOfWindow, total)
	}
}
