// Package eval combines the feature-vector weights and the material
// table into the static evaluation search calls at every leaf, plus a
// small position-keyed cache the parameter updater clears whenever
// weights change underneath it.
package eval

import (
	"sync"

	"github.com/sunfish-shogi/learntrain/fv"
	"github.com/sunfish-shogi/learntrain/material"
	"github.com/sunfish-shogi/learntrain/shogi"
)

// Evaluator is the interface search and gradient accumulation depend
// on. Only Evaluate is on the hot path; ClearCache runs between
// iterations while no worker is searching. Evaluate's score is always
// in the fixed black-favors-positive frame, never mover-relative —
// callers that need a side-to-move-relative score (negamax) must
// negate it themselves when board.Turn() is White.
type Evaluator interface {
	Evaluate(board *shogi.Board) int32
	ClearCache()
}

// Default combines an fv.FV[int16] of positional weights with a
// material.Table, matching the reference evaluator's two-term score
// (material.Table sentinel Inf keeps King out of the feature loop).
type Default struct {
	Weights  *fv.FV[int16]
	Material *material.Table

	mu    sync.RWMutex
	cache map[cacheKey]int32
}

type cacheKey [shogi.NumSquares]shogi.Piece

// NewDefault returns an evaluator over the given weights and material
// table, sharing them by reference so update.BatchUpdater/OnlineUpdater
// mutations are immediately visible to future Evaluate calls.
func NewDefault(w *fv.FV[int16], m *material.Table) *Default {
	return &Default{
		Weights:  w,
		Material: m,
		cache:    make(map[cacheKey]int32),
	}
}

// Evaluate returns the static score of board from black's perspective:
// positive favors Black. It is the sum of material and every active
// KPP/KKP weight cell, cached per exact piece placement.
func (e *Default) Evaluate(board *shogi.Board) int32 {
	key := placementKey(board)

	e.mu.RLock()
	if v, ok := e.cache[key]; ok {
		e.mu.RUnlock()
		return v
	}
	e.mu.RUnlock()

	score := e.material(board) + e.positional(board)

	e.mu.Lock()
	e.cache[key] = score
	e.mu.Unlock()
	return score
}

func placementKey(board *shogi.Board) cacheKey {
	var k cacheKey
	for s := shogi.Square(0); s < shogi.NumSquares; s++ {
		k[s] = board.At(s)
	}
	return k
}

func (e *Default) material(board *shogi.Board) int32 {
	var total int32
	for s := shogi.Square(0); s < shogi.NumSquares; s++ {
		p := board.At(s)
		if p.IsEmpty() {
			continue
		}
		v := e.Material.Value(p.Kind())
		if p.Color() == shogi.Black {
			total += v
		} else {
			total -= v
		}
	}
	for _, c := range []shogi.Color{shogi.Black, shogi.White} {
		sign := int32(1)
		if c == shogi.White {
			sign = -1
		}
		for _, k := range [7]shogi.Kind{shogi.Pawn, shogi.Lance, shogi.Knight, shogi.Silver, shogi.Gold, shogi.Bishop, shogi.Rook} {
			total += sign * int32(board.HandCount(c, shogi.HandIndex(k))) * e.Material.Value(k)
		}
	}
	return total
}

// positional sums every active KPP/KKP weight cell via fv.Score, which
// walks the same active-cell set fv.FV.Extract would deposit into.
// Score mirrors a White-to-move board before walking it, so the raw sum
// comes back in the mover's frame; negate it back to the absolute
// black-favors-positive convention this evaluator promises.
func (e *Default) positional(board *shogi.Board) int32 {
	score := int32(fv.Score(e.Weights, board))
	if board.Turn() == shogi.White {
		score = -score
	}
	return score
}

// ClearCache discards every cached score. Called by the parameter
// updater whenever it changes the weight or material table.
func (e *Default) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[cacheKey]int32)
	e.mu.Unlock()
}
