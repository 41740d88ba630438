// Package fv implements the feature vector at the heart of the
// evaluator: two dense arrays, kpp and kkp, indexed by king square and
// one or two piece-location feature symbols (section 3, C1).
//
// The exact mapping from a board to feature symbols is deliberately an
// internal implementation detail — this module only requires that Extract
// and an evaluator's read path agree on it. This implementation collapses
// piece kind out of the symbol (a feature marks "some piece of mine/
// theirs sits on square s") to keep the K*P*P arrays a tractable size.
package fv

import "github.com/sunfish-shogi/learntrain/shogi"

// NumKingSquares is K: every square a king could occupy.
const NumKingSquares = shogi.NumSquares

// NumFeatureSymbols is P: one symbol per (ownership, square) pair.
const NumFeatureSymbols = 2 * shogi.NumSquares

// Value is the numeric type stored in a cell: int16 for the evaluator's
// integer weights, float32 for the trainer's gradient accumulator.
type Value interface {
	~int16 | ~float32
}

// FV holds the two dense feature tables. KPP is triangular in its last
// two indices by convention: callers always canonicalize (i, j) so that
// i <= j before touching a cell, and Extract/Symmetrize enforce this.
type FV[T Value] struct {
	KPP [NumKingSquares][NumFeatureSymbols][NumFeatureSymbols]T
	KKP [NumKingSquares][NumKingSquares][NumFeatureSymbols]T
}

// Init zeroes every cell.
func (f *FV[T]) Init() {
	*f = FV[T]{}
}

// symbol packs whether the piece belongs to the side being extracted
// for ("self") and its square into a single feature index.
func symbol(self bool, sq shogi.Square) int {
	if self {
		return int(sq)
	}
	return shogi.NumSquares + int(sq)
}

// mirrorSymbol returns the feature symbol for the same ownership but the
// left-right-and-rank mirrored square — the pairing Symmetrize combines.
func mirrorSymbol(sym int) int {
	self := sym < shogi.NumSquares
	sq := shogi.Square(sym % shogi.NumSquares)
	return symbol(self, shogi.MirrorSquare(sq))
}

func canonical(i, j int) (int, int) {
	if i > j {
		return j, i
	}
	return i, j
}
