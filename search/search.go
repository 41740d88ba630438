package search

import (
	"github.com/sunfish-shogi/learntrain/eval"
	"github.com/sunfish-shogi/learntrain/shogi"
)

// Searcher is what example.Generator and gradient.Accumulator depend
// on. The training core never looks inside a search: it clears history,
// sets a depth, and reads back a PV and a score.
type Searcher interface {
	// ClearHistory resets move-ordering heuristics between unrelated
	// positions, called before every example-generation call in both
	// learning regimes.
	ClearHistory()
	// ClearTT drops any transposition-table entries. Called by the
	// batch parameter updater after every weight update (design
	// section 4.7). AlphaBeta keeps no table of its own; its ClearTT
	// clears the evaluator's score cache instead.
	ClearTT()
	// SetDepth fixes the depth used by the next Search call.
	SetDepth(depth int)
	// Search performs a fixed-depth window search from board and
	// returns its principal variation and score, both from board's
	// side-to-move's perspective.
	Search(board shogi.Board, alpha, beta int32) Info
}

// AlphaBeta is a minimal fixed-depth negamax searcher over an
// eval.Evaluator, sufficient to drive example generation. It carries no
// transposition table or move ordering beyond move-generation order,
// trading search strength for the small footprint this black box is
// allowed (design never asks the training core to bring a strong
// engine — only a consistent one).
type AlphaBeta struct {
	Evaluator eval.Evaluator
	Config    Config

	depth int
}

// NewAlphaBeta returns a searcher over ev using cfg's max depth as its
// default (SetDepth may override this per call).
func NewAlphaBeta(ev eval.Evaluator, cfg Config) *AlphaBeta {
	cfg.Normalize()
	return &AlphaBeta{Evaluator: ev, Config: cfg, depth: cfg.MaxDepth}
}

func (s *AlphaBeta) ClearHistory() {}

func (s *AlphaBeta) ClearTT() { s.Evaluator.ClearCache() }

func (s *AlphaBeta) SetDepth(depth int) { s.depth = depth }

// Search runs a fixed-depth negamax search within window (alpha, beta)
// and returns the best line found. Mate is detected as "no legal move":
// the side to move is either checkmated or stalemated, scored as a loss
// of Mate at this ply (shogi has no stalemate draw rule to model here;
// treating a mover-with-no-moves as mated matches this module's use of
// Mate purely as a decisiveness threshold, not a rules oracle).
// maxCheckExtensions bounds how many times a single search line may
// extend for a checking move, so a string of checks cannot make the
// search run away to unbounded depth.
const maxCheckExtensions = 8

func (s *AlphaBeta) Search(board shogi.Board, alpha, beta int32) Info {
	score, pv := s.negamax(board, alpha, beta, s.depth, maxCheckExtensions)
	return Info{PV: pv, Score: score}
}

func (s *AlphaBeta) negamax(board shogi.Board, alpha, beta int32, depth, extensionsLeft int) (int32, []shogi.Move) {
	moves := shogi.GenerateMoves(&board)
	if len(moves) == 0 {
		return -Mate, nil
	}
	if depth <= 0 {
		v := s.Evaluator.Evaluate(&board)
		if board.Turn() == shogi.White {
			v = -v
		}
		return v, nil
	}

	var bestPV []shogi.Move
	best := -Mate - 1
	for _, m := range moves {
		child := board.MakeMove(m)
		childDepth := depth - 1
		childExtensions := extensionsLeft
		if extensionsLeft > 0 && shogi.GivesCheck(&board, m) {
			childDepth++
			childExtensions--
		}
		score, childPV := s.negamax(child, -beta, -alpha, childDepth, childExtensions)
		score = -score

		if score > best {
			best = score
			bestPV = append([]shogi.Move{m}, childPV...)
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}
	return best, bestPV
}
