// Package example implements the expert-PV / sibling-PV example
// generator (section 4.4): for a (board, expert move), search
// the expert line and every other legal move within an evaluation
// window, producing a batch training group or depositing online
// gradients directly.
package example

import (
	"golang.org/x/exp/rand"

	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/search"
	"github.com/sunfish-shogi/learntrain/shogi"
	"github.com/sunfish-shogi/learntrain/trainset"
)

// Batch constants (section 6).
const BatchWindow int32 = 256

// Online constants (section 6).
const (
	MaxHingeMargin      int32   = 256
	MinHingeMargin      int32   = 10
	NumberOfSiblingNodes int    = 16
	Gradient            float32 = 4.0
)

// Generator drives per-worker searchers to produce training examples.
// One Generator is shared by every worker; Searchers is indexed by
// worker index so each worker touches only its own searcher state.
type Generator struct {
	Searchers []search.Searcher

	// Stats are the shared, mutex-protected counters design section
	// 4.4 requires ("Window/out-of-window bookkeeping is counted into
	// totalMoves_ and outOfWindLoss_ under the mutex").
	Stats *Stats
}

// classify is the outcome of comparing a sibling's negated score to the
// expert's window.
type classify int

const (
	belowWindow classify = iota // expert clearly better, no gradient signal
	inWindow                    // sibling recorded
	aboveWindow                 // sibling beats expert: out-of-window loss
)

// searchWindow classifies v against (alpha, beta).
func searchWindow(v, alpha, beta int32) classify {
	switch {
	case v <= alpha:
		return belowWindow
	case v >= beta:
		return aboveWindow
	default:
		return inWindow
	}
}

// searchExpert plays m on board, searches to depth with a full window,
// and returns the position's evaluation from board's side to move (the
// raw search score is from the opponent's perspective after the move,
// hence the negation in section 4.4 step 3).
func searchExpert(searcher search.Searcher, board shogi.Board, m shogi.Move, depth int) (v0 int32, pv []shogi.Move) {
	searcher.SetDepth(depth)
	child := board.MakeMove(m)
	info := searcher.Search(child, -search.Mate, search.Mate)
	return -info.Score, append([]shogi.Move{m}, info.PV...)
}

// searchSibling plays m and searches the negated window (-beta, -alpha).
func searchSibling(searcher search.Searcher, board shogi.Board, m shogi.Move, alpha, beta int32) (v int32, pv []shogi.Move) {
	child := board.MakeMove(m)
	info := searcher.Search(child, -beta, -alpha)
	return -info.Score, append([]shogi.Move{m}, info.PV...)
}

func pvLeaf(root shogi.Board, pv []shogi.Move) shogi.Board {
	b := root
	for _, m := range pv {
		b = b.MakeMove(m)
	}
	return b
}

func without(moves []shogi.Move, expert shogi.Move) []shogi.Move {
	out := make([]shogi.Move, 0, len(moves))
	for _, m := range moves {
		if m != expert {
			out = append(out, m)
		}
	}
	return out
}

// BatchExample implements section 4.4 for the batch regime: on
// success it returns a trainset.Group ready for Writer.AppendGroup.
func (g *Generator) BatchExample(threadIdx int, board shogi.Board, expert shogi.Move, depth int) (trainset.Group, bool) {
	moves := shogi.GenerateMoves(&board)
	if len(moves) < 2 {
		return trainset.Group{}, false
	}

	searcher := g.Searchers[threadIdx]
	searcher.ClearHistory()

	v0, expertPV := searchExpert(searcher, board, expert, depth)
	if abs32(v0) >= search.Mate {
		return trainset.Group{}, false
	}

	alpha, beta := v0-BatchWindow, v0+BatchWindow
	lines := [][]shogi.Move{expertPV}

	for _, m := range without(moves, expert) {
		v, pv := searchSibling(searcher, board, m, alpha, beta)
		g.Stats.recordMove()
		switch searchWindow(v, alpha, beta) {
		case aboveWindow:
			g.Stats.recordOutOfWindow()
		case inWindow:
			lines = append(lines, pv)
		}
	}

	if len(lines) < 2 {
		return trainset.Group{}, false
	}
	return trainset.Group{
		Root:         board.ToCompact(),
		ExpertLine:   lines[0],
		SiblingLines: lines[1:],
	}, true
}

// OnlineExample implements section 4.4 for the online regime:
// it deposits gradients directly into weights rather than returning a
// record. progression is the game-stage fraction in [0, 1] that scales
// the hinge margin between MinHingeMargin and MaxHingeMargin.
func (g *Generator) OnlineExample(threadIdx int, board shogi.Board, expert shogi.Move, depth int, progression float64, weights *fv.FV[float32], rng *rand.Rand) {
	moves := shogi.GenerateMoves(&board)
	if len(moves) < 2 {
		return
	}

	searcher := g.Searchers[threadIdx]
	searcher.ClearHistory()

	expertDepth := depth
	if shogi.GivesCheck(&board, expert) {
		expertDepth++
	}
	v0, expertPV := searchExpert(searcher, board, expert, expertDepth)
	if abs32(v0) >= search.Mate {
		return
	}
	g.Stats.recordContribution()

	hinge := hingeMargin(progression)
	alpha, beta := v0-hinge, v0+MaxHingeMargin

	siblings := without(moves, expert)
	rng.Shuffle(len(siblings), func(i, j int) { siblings[i], siblings[j] = siblings[j], siblings[i] })
	if len(siblings) > NumberOfSiblingNodes {
		siblings = siblings[:NumberOfSiblingNodes]
	}

	root := board
	sideSign := float32(1)
	if root.Turn() == shogi.White {
		sideSign = -1
	}

	var accepted int
	for _, m := range siblings {
		searcher.SetDepth(depth)
		v, pv := searchSibling(searcher, root, m, alpha, beta)
		g.Stats.recordMove()
		g.Stats.RecordError(float64(clip32(v, alpha, beta)-alpha) * float64(Gradient))
		switch searchWindow(v, alpha, beta) {
		case aboveWindow:
			g.Stats.recordOutOfWindow()
		case inWindow:
			accepted++
			leaf := pvLeaf(root, pv)
			g.Stats.depositGradient(func() { weights.Extract(&leaf, -Gradient*sideSign) })
		}
	}

	if accepted > 0 {
		expertLeaf := pvLeaf(root, expertPV)
		n := accepted
		g.Stats.depositGradient(func() { weights.Extract(&expertLeaf, Gradient*sideSign*float32(n)) })
	}
}

func hingeMargin(progression float64) int32 {
	if progression < 0 {
		progression = 0
	}
	if progression > 1 {
		progression = 1
	}
	span := float64(MaxHingeMargin - MinHingeMargin)
	return MinHingeMargin + int32(span*progression)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// clip32 clamps v to [lo, hi], used to bound the per-sibling error
// statistic to the search window the same way OnlineLearning.cpp's
// error() term does.
func clip32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
