package update

import (
	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"

	"github.com/sunfish-shogi/learntrain/material"
)

// materialSchedule is the fixed multiset of per-slot deltas assigned to
// material gradient slots sorted ascending, after breaking ties among
// equal-gradient slots. Its sum is zero by construction.
var materialSchedule = [material.NumKinds]int32{
	-2, -2, -1, -1, -1, 0, 0, 0, 1, 1, 1, 2, 2,
}

// MaterialUpdater applies the batch material reshuffle: sort gradient
// slots ascending, shuffle within runs of exactly tied slots, then hand
// out materialSchedule's deltas in order.
type MaterialUpdater struct {
	Rand *rand.Rand
}

// slot pairs a material kind index with its gradient value, so sorting
// by gradient carries the index along.
type slot struct {
	index int
	grad  float64
}

// Apply sorts grad ascending, shuffling only within runs of exactly
// equal gradient values, assigns materialSchedule's fixed deltas in
// that order, adds them to table.Base, re-clamps promoted values against
// their unpromoted counterparts, and rebuilds the exchange table from the
// clamped base values.
func (u *MaterialUpdater) Apply(grad [material.NumKinds]float64, table *material.Table) [material.NumKinds]int32 {
	slots := make([]slot, material.NumKinds)
	for i, g := range grad {
		slots[i] = slot{index: i, grad: g}
	}

	slices.SortFunc(slots, func(a, b slot) bool {
		return a.grad < b.grad
	})
	shuffleTies(u.Rand, slots)

	var deltas [material.NumKinds]int32
	for i, s := range slots {
		deltas[s.index] = materialSchedule[i]
		table.Base[s.index] += materialSchedule[i]
	}
	table.ClampPromotions()
	table.Rebuild()
	return deltas
}

// shuffleTies randomizes slots within each contiguous run of equal
// gradient values, so ties are not resolved by their original kind
// index, without disturbing the ascending order the sort established
// between distinct gradient values. Shuffling only within a tie run
// keeps materialSchedule's extreme deltas (-2, 2) pinned to the slots
// with the most extreme gradients rather than letting them drift onto
// a near-zero-gradient slot that merely shares a half with an extreme.
func shuffleTies(r *rand.Rand, slots []slot) {
	for start := 0; start < len(slots); {
		end := start + 1
		for end < len(slots) && slots[end].grad == slots[start].grad {
			end++
		}
		group := slots[start:end]
		r.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		start = end
	}
}
