package material

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sunfish-shogi/learntrain/shogi"
)

func TestKingIsSentinelInfinity(t *testing.T) {
	tbl := NewDefault()
	if tbl.Value(shogi.King) != Inf {
		t.Fatalf("King must report the sentinel infinity value")
	}
	if tbl.ExchangeValue(shogi.King) != Inf {
		t.Fatalf("King exchange value must also be the sentinel")
	}
}

func TestRebuildDerivesExchangeFromBase(t *testing.T) {
	tbl := NewDefault()
	tbl.Rebuild()

	pawnIdx := trainableIndex(shogi.Pawn)
	tokinIdx := trainableIndex(shogi.Tokin)
	want := tbl.Base[tokinIdx] + tbl.Base[pawnIdx]
	if got := tbl.Exchange[tokinIdx]; got != want {
		t.Fatalf("Tokin exchange = %d, want %d (own base + demoted Pawn base)", got, want)
	}

	rookIdx := trainableIndex(shogi.Rook)
	if got, want := tbl.Exchange[rookIdx], 2*tbl.Base[rookIdx]; got != want {
		t.Fatalf("Rook exchange = %d, want %d (own base + own base: a captured Rook stays a Rook)", got, want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tbl := NewDefault()
	tbl.Base[trainableIndex(shogi.Bishop)] = 999

	path := filepath.Join(t.TempDir(), "material.bin")
	if err := tbl.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Base != tbl.Base {
		t.Fatalf("loaded base %v != saved base %v", loaded.Base, tbl.Base)
	}
	if loaded.Value(shogi.Bishop) != 999 {
		t.Fatalf("round-tripped Bishop value = %d, want 999", loaded.Value(shogi.Bishop))
	}
}

func TestLoadRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error loading a truncated material file")
	}
}

func TestClampPromotionsNeverDropsBelowUnpromoted(t *testing.T) {
	tbl := NewDefault()
	tbl.Base[trainableIndex(shogi.Pawn)] = 500
	tbl.Base[trainableIndex(shogi.Tokin)] = 10
	tbl.ClampPromotions()
	if tbl.Value(shogi.Tokin) < tbl.Value(shogi.Pawn) {
		t.Fatalf("Tokin (%d) must never fall below Pawn (%d)", tbl.Value(shogi.Tokin), tbl.Value(shogi.Pawn))
	}
}
