package trainset

import (
	"bytes"
	"io"
	"testing"

	"github.com/sunfish-shogi/learntrain/shogi"
)

func TestRoundTripSingleLine(t *testing.T) {
	root := shogi.NewInitialBoard()
	moves := shogi.GenerateMoves(&root)
	expert := []shogi.Move{moves[0]}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.AppendGroup(root.ToCompact(), [][]shogi.Move{expert}); err != nil {
		t.Fatalf("AppendGroup: %v", err)
	}

	r := NewReader(&buf)
	g, err := r.NextGroup()
	if err != nil {
		t.Fatalf("NextGroup: %v", err)
	}
	if g.Root != root.ToCompact() {
		t.Fatal("root board did not round trip")
	}
	if len(g.ExpertLine) != 1 || g.ExpertLine[0] != expert[0] {
		t.Fatalf("expert line = %v, want %v", g.ExpertLine, expert)
	}
	if len(g.SiblingLines) != 0 {
		t.Fatalf("expected no sibling lines, got %d", len(g.SiblingLines))
	}

	if _, err := r.NextGroup(); err != io.EOF {
		t.Fatalf("expected clean EOF after the only group, got %v", err)
	}
}

func TestRoundTripExpertPlusSiblings(t *testing.T) {
	root := shogi.NewInitialBoard()
	moves := shogi.GenerateMoves(&root)
	if len(moves) < 3 {
		t.Fatal("initial position should have at least 3 legal moves")
	}
	expert := moves[0:2]
	afterSib := root.MakeMove(moves[1])
	sib1 := []shogi.Move{moves[1], shogi.GenerateMoves(&afterSib)[0]}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.AppendGroup(root.ToCompact(), [][]shogi.Move{expert, sib1}); err != nil {
		t.Fatalf("AppendGroup: %v", err)
	}

	r := NewReader(&buf)
	g, err := r.NextGroup()
	if err != nil {
		t.Fatalf("NextGroup: %v", err)
	}
	if len(g.ExpertLine) != 2 {
		t.Fatalf("expert line length = %d, want 2", len(g.ExpertLine))
	}
	if len(g.SiblingLines) != 1 || len(g.SiblingLines[0]) != 2 {
		t.Fatalf("sibling lines = %v, want one line of length 2", g.SiblingLines)
	}
}

func TestZeroLengthLineIsRecordedButEmpty(t *testing.T) {
	root := shogi.NewInitialBoard()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	// A line with zero stored moves still counts as a recorded line
	// (section 6's length=1 edge case).
	if err := w.AppendGroup(root.ToCompact(), [][]shogi.Move{{}}); err != nil {
		t.Fatalf("AppendGroup: %v", err)
	}

	r := NewReader(&buf)
	g, err := r.NextGroup()
	if err != nil {
		t.Fatalf("NextGroup: %v", err)
	}
	if g.ExpertLine == nil || len(g.ExpertLine) != 0 {
		t.Fatalf("expected a non-nil, zero-length expert line, got %v", g.ExpertLine)
	}
}

func TestInvalidMoveSkipsLineNotGroup(t *testing.T) {
	root := shogi.NewInitialBoard()
	moves := shogi.GenerateMoves(&root)
	sibling := []shogi.Move{moves[0]}

	var buf bytes.Buffer
	cb := root.ToCompact()
	if _, err := buf.Write(cb[:]); err != nil {
		t.Fatal(err)
	}
	// Hand-write a corrupt expert line: length=2 (one stored move) with a
	// move value that cannot possibly decode against the initial position.
	buf.WriteByte(2)
	buf.Write([]byte{0xff, 0xff})
	// Then a valid sibling line.
	if err := writeLine(&buf, sibling); err != nil {
		t.Fatal(err)
	}
	if err := writeTerminator(&buf); err != nil {
		t.Fatal(err)
	}

	r := NewReader(&buf)
	g, err := r.NextGroup()
	if err != nil {
		t.Fatalf("NextGroup: %v", err)
	}
	if g.ExpertLine != nil {
		t.Fatalf("corrupt expert line should decode to nil, got %v", g.ExpertLine)
	}
	if len(g.SiblingLines) != 1 {
		t.Fatalf("the valid sibling line following a corrupt line must still be read, got %d lines", len(g.SiblingLines))
	}
}

func TestEmptyStreamIsCleanEOF(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	if _, err := r.NextGroup(); err != io.EOF {
		t.Fatalf("expected io.EOF on an empty stream, got %v", err)
	}
}

func TestTruncatedHeaderIsCleanEOF(t *testing.T) {
	b := shogi.NewInitialBoard()
	root := b.ToCompact()
	r := NewReader(bytes.NewReader(root[:len(root)-1]))
	if _, err := r.NextGroup(); err != io.EOF {
		t.Fatalf("expected a short CompactBoard header to end the stream cleanly, got %v", err)
	}
}
