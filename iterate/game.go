// Package iterate implements the outer iteration control loop (design
// section 4.8): batch and online drivers that call the training-set
// codec, example generator, gradient accumulator, and parameter
// updater in order, on a decaying per-iteration update budget.
package iterate

import "github.com/sunfish-shogi/learntrain/shogi"

// Position is one (board, expert move) pair recorded in a game file.
type Position struct {
	Board  shogi.Board
	Expert shogi.Move
}

// Game is a parsed .csa game record: the sequence of positions actually
// reached and the move played at each one. Parsing the .csa format
// itself is out of scope (section 1's "the game-record reader"
// is an external collaborator) — GameReader is the seam a caller wires
// to a real parser.
type Game struct {
	Positions []Position
}

// GameReader loads one game file. Implementations live outside this
// package; the driver only needs the seam.
type GameReader func(path string) (Game, error)
