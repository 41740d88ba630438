package eval

import (
	"testing"

	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/material"
	"github.com/sunfish-shogi/learntrain/shogi"
)

func TestEvaluateIsCached(t *testing.T) {
	var w fv.FV[int16]
	e := NewDefault(&w, material.NewDefault())
	board := shogi.NewInitialBoard()

	first := e.Evaluate(&board)
	// Black king on square 4 and Black lance on square 0: a cell this board
	// reads. Mutate it underneath the cache without clearing it.
	w.KPP[4][0][0] = 12345
	second := e.Evaluate(&board)
	if first != second {
		t.Fatalf("Evaluate must be served from cache until ClearCache: %d != %d", first, second)
	}

	e.ClearCache()
	third := e.Evaluate(&board)
	if third == second {
		t.Fatalf("expected a fresh score after ClearCache")
	}
}

func TestInitialBoardIsMaterialBalanced(t *testing.T) {
	var w fv.FV[int16]
	e := NewDefault(&w, material.NewDefault())
	board := shogi.NewInitialBoard()
	if v := e.Evaluate(&board); v != 0 {
		t.Fatalf("symmetric initial position with zero weights should score 0, got %d", v)
	}
}
