package fv

// KPPLen and KKPLen give the flat length of each table. The updaters in
// package update walk every cell by index rather than casting the array to a flat
// slice with unsafe pointer arithmetic, per the safer indexed-iterator
// design this table's C++ counterpart lacked.
func (f *FV[T]) KPPLen() int { return NumKingSquares * NumFeatureSymbols * NumFeatureSymbols }
func (f *FV[T]) KKPLen() int { return NumKingSquares * NumKingSquares * NumFeatureSymbols }

// KPPAt returns a pointer to the i-th cell of KPP in flat row-major order.
func (f *FV[T]) KPPAt(i int) *T {
	j := i % NumFeatureSymbols
	i /= NumFeatureSymbols
	p := i % NumFeatureSymbols
	k := i / NumFeatureSymbols
	return &f.KPP[k][p][j]
}

// KKPAt returns a pointer to the i-th cell of KKP in flat row-major order.
func (f *FV[T]) KKPAt(i int) *T {
	p := i % NumFeatureSymbols
	i /= NumFeatureSymbols
	k2 := i % NumKingSquares
	k1 := i / NumKingSquares
	return &f.KKP[k1][k2][p]
}
