package fv

import "github.com/sunfish-shogi/learntrain/shogi"

// Symmetrize replaces every mirror-paired cell (a, b) with combine(a, b),
// writing the result to both cells. Two combine modes are used by the
// parameter updater (section 4.1): summation during a gradient
// pass, and "copy one side" to force exact equality after a weight pass.
//
// A cell that mirrors to itself (the board's center files/ranks) is left
// untouched — combining it with itself would double-count it under the
// summation mode, and it is already trivially symmetric.
func (f *FV[T]) Symmetrize(combine func(a, b T) T) {
	for k := 0; k < NumKingSquares; k++ {
		mk := int(shogi.MirrorSquare(shogi.Square(k)))
		for i := 0; i < NumFeatureSymbols; i++ {
			mi := mirrorSymbol(i)
			for j := i; j < NumFeatureSymbols; j++ {
				mj := mirrorSymbol(j)
				ma, mb := canonical(mi, mj)
				if flatKPP(k, i, j) >= flatKPP(mk, ma, mb) {
					continue
				}
				a, b := f.KPP[k][i][j], f.KPP[mk][ma][mb]
				v := combine(a, b)
				f.KPP[k][i][j] = v
				f.KPP[mk][ma][mb] = v
			}
		}
	}

	for k1 := 0; k1 < NumKingSquares; k1++ {
		mk1 := int(shogi.MirrorSquare(shogi.Square(k1)))
		for k2 := 0; k2 < NumKingSquares; k2++ {
			mk2 := int(shogi.MirrorSquare(shogi.Square(k2)))
			for p := 0; p < NumFeatureSymbols; p++ {
				mp := mirrorSymbol(p)
				if flatKKP(k1, k2, p) >= flatKKP(mk1, mk2, mp) {
					continue
				}
				a, b := f.KKP[k1][k2][p], f.KKP[mk1][mk2][mp]
				v := combine(a, b)
				f.KKP[k1][k2][p] = v
				f.KKP[mk1][mk2][mp] = v
			}
		}
	}
}

func flatKPP(k, i, j int) int {
	return (k*NumFeatureSymbols+i)*NumFeatureSymbols + j
}

func flatKKP(k1, k2, p int) int {
	return (k1*NumKingSquares+k2)*NumFeatureSymbols + p
}
