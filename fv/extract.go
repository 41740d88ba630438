package fv

import "github.com/sunfish-shogi/learntrain/shogi"

// activeSymbols lists the feature symbol for every non-king piece on an
// already-mirrored-to-black's-view board.
func activeSymbols(b *shogi.Board) []int {
	var syms []int
	for s := shogi.Square(0); s < shogi.NumSquares; s++ {
		p := b.At(s)
		if p.IsEmpty() || p.Kind() == shogi.King {
			continue
		}
		syms = append(syms, symbol(p.Color() == shogi.Black, s))
	}
	return syms
}

// Score sums the weight cells active in board — exactly the cells
// Extract would deposit into — without materializing a second FV. This
// is the read-side half of the "extract and evaluate must be mutually
// consistent" contract: an evaluator scores a board using the same
// active-cell walk the trainer uses to accumulate its gradient.
func Score[T Value](f *FV[T], board *shogi.Board) T {
	b := *board
	if b.Turn() == shogi.White {
		b = b.Mirror()
	}

	blackKing, hasBlackKing := shogi.KingSquare(&b, shogi.Black)
	whiteKing, hasWhiteKing := shogi.KingSquare(&b, shogi.White)
	if !hasBlackKing || !hasWhiteKing {
		return 0
	}

	var total T
	syms := activeSymbols(&b)
	for i, si := range syms {
		if hasWhiteKing {
			total += f.KKP[blackKing][whiteKing][si]
		}
		for _, sj := range syms[i:] {
			a, c := canonical(si, sj)
			total += f.KPP[blackKing][a][c]
		}
	}
	return total
}

// Extract deposits g into every KPP and KKP cell active in board. When
// board is White-to-move it is mirrored first so gradients always land
// in black's frame of reference (section 4.1).
func (f *FV[T]) Extract(board *shogi.Board, g T) {
	b := *board
	if b.Turn() == shogi.White {
		b = b.Mirror()
	}

	blackKing, hasBlackKing := shogi.KingSquare(&b, shogi.Black)
	whiteKing, hasWhiteKing := shogi.KingSquare(&b, shogi.White)
	if !hasBlackKing || !hasWhiteKing {
		return
	}

	syms := activeSymbols(&b)
	for i, si := range syms {
		if hasWhiteKing {
			f.KKP[blackKing][whiteKing][si] += g
		}
		for _, sj := range syms[i:] {
			a, c := canonical(si, sj)
			f.KPP[blackKing][a][c] += g
		}
	}
}
