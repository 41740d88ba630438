// Package material implements the process-wide piece-value table (design
// section 3, C2): 13 trainable base values plus a derived exchange table,
// keyed by a closed set of 14 piece kinds.
package material

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sunfish-shogi/learntrain/shogi"
)

// Inf is the sentinel value returned for King, which is never a
// trainable weight.
const Inf int32 = 1 << 20

// NumKinds is the number of trainable material slots — every Kind
// except NoKind and King.
const NumKinds = 13

// trainableIndex maps a Kind to its slot in Table.Base/Exchange, or -1
// for NoKind/King.
func trainableIndex(k shogi.Kind) int {
	switch k {
	case shogi.Pawn:
		return 0
	case shogi.Lance:
		return 1
	case shogi.Knight:
		return 2
	case shogi.Silver:
		return 3
	case shogi.Gold:
		return 4
	case shogi.Bishop:
		return 5
	case shogi.Rook:
		return 6
	case shogi.Tokin:
		return 7
	case shogi.ProLance:
		return 8
	case shogi.ProKnight:
		return 9
	case shogi.ProSilver:
		return 10
	case shogi.Horse:
		return 11
	case shogi.Dragon:
		return 12
	default:
		return -1
	}
}

var kindOrder = [NumKinds]shogi.Kind{
	shogi.Pawn, shogi.Lance, shogi.Knight, shogi.Silver, shogi.Gold,
	shogi.Bishop, shogi.Rook, shogi.Tokin, shogi.ProLance, shogi.ProKnight,
	shogi.ProSilver, shogi.Horse, shogi.Dragon,
}

// unpromotedOf maps a promoted kind's slot back to its base kind's slot,
// used to enforce that promoted values never fall below their
// unpromoted counterpart (section 3 invariant).
var unpromotedOf = map[shogi.Kind]shogi.Kind{
	shogi.Tokin:     shogi.Pawn,
	shogi.ProLance:  shogi.Lance,
	shogi.ProKnight: shogi.Knight,
	shogi.ProSilver: shogi.Silver,
	shogi.Horse:     shogi.Bishop,
	shogi.Dragon:    shogi.Rook,
}

// Table is the process-wide material table. The evaluator reads it
// during search; only update.MaterialUpdater ever mutates it, and only
// between iterations while no worker is searching (section 5).
type Table struct {
	Base     [NumKinds]int32
	Exchange [NumKinds]int32
}

// DefaultBase are Bonanza-style starting material values in pawn units
// scaled by 100 (100 for a pawn), rounded to multiples of ten.
var DefaultBase = [NumKinds]int32{
	100, 430, 450, 640, 690, 890, 1040, // Pawn..Rook
	1200, 640, 690, 640, 1150, 1550, // Tokin..Dragon
}

// NewDefault returns a Table seeded from DefaultBase with its exchange
// table already built.
func NewDefault() *Table {
	t := &Table{Base: DefaultBase}
	t.Rebuild()
	return t
}

// Value returns the base value of kind, or Inf for King.
func (t *Table) Value(k shogi.Kind) int32 {
	if k == shogi.King {
		return Inf
	}
	i := trainableIndex(k)
	if i < 0 {
		return 0
	}
	return t.Base[i]
}

// ExchangeValue returns the value used when this kind is captured — its own
// base value plus the value it would be worth to the opponent as a
// demoted piece in hand.
func (t *Table) ExchangeValue(k shogi.Kind) int32 {
	if k == shogi.King {
		return Inf
	}
	i := trainableIndex(k)
	if i < 0 {
		return 0
	}
	return t.Exchange[i]
}

// Rebuild regenerates the exchange table from the base table: a piece's
// exchange value is its own base value plus the base value of the
// unpromoted piece it becomes when captured.
func (t *Table) Rebuild() {
	for i, k := range kindOrder {
		demoted := shogi.Demote(k)
		demotedIdx := trainableIndex(demoted)
		var demotedValue int32
		if demotedIdx >= 0 {
			demotedValue = t.Base[demotedIdx]
		}
		t.Exchange[i] = t.Base[i] + demotedValue
	}
}

// ClampPromotions enforces that every promoted kind's value is at least
// its unpromoted counterpart's, nudging violators up in place. Load
// applies it after reading a table from disk; update.MaterialUpdater
// applies it again after every batch reshuffle, since nothing else
// guarantees the invariant survives an arbitrary sequence of per-slot
// deltas.
func (t *Table) ClampPromotions() {
	for promoted, base := range unpromotedOf {
		pi, bi := trainableIndex(promoted), trainableIndex(base)
		if t.Base[pi] < t.Base[bi] {
			t.Base[pi] = t.Base[bi]
		}
	}
}

// Save persists the base table as 13 little-endian int32s.
func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("material: create %s: %w", path, err)
	}
	defer f.Close()
	for _, v := range t.Base {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("material: write %s: %w", path, err)
		}
	}
	return nil
}

// Load reads a table previously written by Save and rebuilds its
// exchange table.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("material: open %s: %w", path, err)
	}
	defer f.Close()

	var t Table
	for i := range t.Base {
		if err := binary.Read(f, binary.LittleEndian, &t.Base[i]); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("material: %s truncated at slot %d", path, i)
			}
			return nil, fmt.Errorf("material: read %s: %w", path, err)
		}
	}
	t.ClampPromotions()
	t.Rebuild()
	return &t, nil
}
