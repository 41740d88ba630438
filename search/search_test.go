package search

import (
	"testing"

	"github.com/sunfish-shogi/learntrain/eval"
	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/material"
	"github.com/sunfish-shogi/learntrain/shogi"
)

func newTestSearcher(depth int) *AlphaBeta {
	var w fv.FV[int16]
	ev := eval.NewDefault(&w, material.NewDefault())
	return NewAlphaBeta(ev, Config{MaxDepth: depth, Learning: true})
}

func TestLearningConfigDisablesEngineMachinery(t *testing.T) {
	cfg := Config{MaxDepth: 4, Learning: true, EnableLimit: true, Ponder: true, Logging: true}
	cfg.Normalize()
	if cfg.EnableLimit || cfg.EnableTimeManagement || cfg.Ponder || cfg.Logging {
		t.Fatalf("Learning=true must force off EnableLimit/EnableTimeManagement/Ponder/Logging, got %+v", cfg)
	}
}

func TestSearchReturnsNonEmptyPVAtDepthOne(t *testing.T) {
	s := newTestSearcher(1)
	board := shogi.NewInitialBoard()
	info := s.Search(board, -Mate, Mate)
	if len(info.PV) == 0 {
		t.Fatal("expected a non-empty PV from the initial position")
	}
}

func TestSetDepthOverridesConfiguredDepth(t *testing.T) {
	s := newTestSearcher(4)
	s.SetDepth(1)
	board := shogi.NewInitialBoard()
	info := s.Search(board, -Mate, Mate)
	// A depth-1 search's PV should be exactly one move (no continuation
	// beyond the root ply, since GivesCheck is false from the initial
	// position and no extensions trigger).
	if len(info.PV) != 1 {
		t.Fatalf("expected a 1-move PV at depth 1, got %d moves", len(info.PV))
	}
}
