// Package trainset implements the on-disk training record format
// (section 6): a stream of groups, each a root CompactBoard
// followed by an expert PV line and zero or more sibling PV lines,
// terminated by a zero-length marker. Grounded on a texel tuner's
// single-writer/single-reader binary game-record convention, adapted to
// this record's group/line shape.
package trainset

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/sunfish-shogi/learntrain/shogi"
)

// Group is one decoded training record: a root position, its expert
// line, and however many sibling lines survived both encoding-window
// selection and reader-side move validation.
type Group struct {
	Root         shogi.CompactBoard
	ExpertLine   []shogi.Move
	SiblingLines [][]shogi.Move
}

// Writer appends complete groups to a training file. AppendGroup is
// safe for concurrent use: it holds mu for the entire write of one
// group so concurrent writers never interleave partial groups
// (section 5's whole-group-write ordering guarantee).
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// AppendGroup writes root followed by lines (expert first, siblings
// after) and a terminator, atomically with respect to other writers on
// the same Writer.
func (w *Writer) AppendGroup(root shogi.CompactBoard, lines [][]shogi.Move) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.w.Write(root[:]); err != nil {
		return fmt.Errorf("trainset: write root: %w", err)
	}
	for _, line := range lines {
		if err := writeLine(w.w, line); err != nil {
			return err
		}
	}
	return writeTerminator(w.w)
}

func writeLine(w io.Writer, moves []shogi.Move) error {
	length := len(moves) + 1
	if length > 0xff {
		return fmt.Errorf("trainset: line of %d moves exceeds the 1-byte length field", len(moves))
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(length)); err != nil {
		return fmt.Errorf("trainset: write line length: %w", err)
	}
	for _, m := range moves {
		if err := binary.Write(w, binary.LittleEndian, shogi.Serialize16(m)); err != nil {
			return fmt.Errorf("trainset: write move: %w", err)
		}
	}
	return nil
}

func writeTerminator(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, uint8(0))
}

// Reader reads groups sequentially from a training file with no
// internal locking — section 4.3 makes it single-reader by
// contract, opened only after the writer that produced the file has
// closed it.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// NextGroup reads one group. It returns io.EOF, and nothing else, when
// the stream ends cleanly on a compact-board boundary: either no bytes
// remained (io.EOF) or the header was cut short mid-write, e.g. by a
// writer killed partway through the header (io.ReadFull reports that as
// io.ErrUnexpectedEOF). Both end iteration cleanly rather than as a read
// failure. A stream that ends after a complete header but before the
// group's terminator is reported as a read error.
func (r *Reader) NextGroup() (Group, error) {
	var g Group

	if _, err := io.ReadFull(r.r, g.Root[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Group{}, io.EOF
		}
		return Group{}, fmt.Errorf("trainset: read root: %w", err)
	}

	rootBoard := shogi.FromCompact(g.Root)

	first := true
	for {
		var length uint8
		if err := binary.Read(r.r, binary.LittleEndian, &length); err != nil {
			return Group{}, fmt.Errorf("trainset: read line length: %w", err)
		}
		if length == 0 {
			break
		}

		raw := make([]uint16, length-1)
		for i := range raw {
			if err := binary.Read(r.r, binary.LittleEndian, &raw[i]); err != nil {
				return Group{}, fmt.Errorf("trainset: read move: %w", err)
			}
		}

		moves, ok := decodeLine(rootBoard, raw)
		if ok {
			if first {
				g.ExpertLine = moves
			} else {
				g.SiblingLines = append(g.SiblingLines, moves)
			}
		}
		first = false
	}

	return g, nil
}

// decodeLine replays raw against a fresh copy of root, validating each
// move as it is made. An undecodable or illegal move aborts the whole
// line — section 4.3 treats it as skipped, not as a group
// failure.
func decodeLine(root shogi.Board, raw []uint16) ([]shogi.Move, bool) {
	board := root
	moves := make([]shogi.Move, 0, len(raw))
	for _, v := range raw {
		m := shogi.Deserialize16(v, &board)
		if m.IsEmpty() {
			return nil, false
		}
		moves = append(moves, m)
		board = board.MakeMove(m)
	}
	return moves, true
}
