// Package csa is a minimal reference reader for the CSA game-record
// format, wired as the default iterate.GameReader for the cmd binaries.
// The format itself is out of scope (section 1 names "the
// game-record reader" as an external collaborator) — this package
// exists only so the CLI entry points have something concrete to run
// against; it supports the standard starting position and the plain
// "+7776FU"/"-0034KE" move notation, not handicap setups or comments.
package csa

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sunfish-shogi/learntrain/iterate"
	"github.com/sunfish-shogi/learntrain/shogi"
)

var kindCodes = map[string]shogi.Kind{
	"FU": shogi.Pawn,
	"KY": shogi.Lance,
	"KE": shogi.Knight,
	"GI": shogi.Silver,
	"KI": shogi.Gold,
	"KA": shogi.Bishop,
	"HI": shogi.Rook,
	"OU": shogi.King,
	"TO": shogi.Tokin,
	"NY": shogi.ProLance,
	"NK": shogi.ProKnight,
	"NG": shogi.ProSilver,
	"UM": shogi.Horse,
	"RY": shogi.Dragon,
}

// ReadGame parses one .csa file into an iterate.Game, matching
// iterate.GameReader. Only files starting from the standard position
// are supported; anything else is a parse error, which callers treat
// as a skippable per-game failure (design's Open Question
// decision on malformed games).
func ReadGame(path string) (iterate.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return iterate.Game{}, err
	}
	defer f.Close()

	board := shogi.NewInitialBoard()
	var game iterate.Game

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '\'' || line[0] == 'V' || line[0] == 'N' || line[0] == '$' {
			continue
		}
		if line[0] != '+' && line[0] != '-' {
			continue
		}
		token := strings.SplitN(line, ",", 2)[0]
		if token == "+" || token == "-" {
			continue // resignation/pass marker, no move payload
		}
		m, err := decodeMove(&board, token)
		if err != nil {
			return iterate.Game{}, fmt.Errorf("csa: %s: %w", path, err)
		}
		game.Positions = append(game.Positions, iterate.Position{Board: board, Expert: m})
		board = board.MakeMove(m)
	}
	if err := scanner.Err(); err != nil {
		return iterate.Game{}, err
	}
	if len(game.Positions) == 0 {
		return iterate.Game{}, fmt.Errorf("csa: %s: no moves found", path)
	}
	return game, nil
}

// decodeMove parses a "+7776FU"/"-0034KE" token against board's legal
// moves, disambiguating drops (from square "00") and promotion by the
// piece code recorded after the move rather than a separate flag.
func decodeMove(board *shogi.Board, token string) (shogi.Move, error) {
	if len(token) != 7 {
		return shogi.Move{}, fmt.Errorf("malformed move token %q", token)
	}
	fromDigits, toDigits, code := token[1:3], token[3:5], token[5:7]
	kind, ok := kindCodes[code]
	if !ok {
		return shogi.Move{}, fmt.Errorf("unknown piece code %q", code)
	}
	to, err := decodeSquare(toDigits)
	if err != nil {
		return shogi.Move{}, err
	}
	drop := fromDigits == "00"

	for _, cand := range shogi.GenerateMoves(board) {
		if cand.To != to || cand.Drop != drop {
			continue
		}
		effective := cand.Piece
		if cand.Promote {
			effective = shogi.Promote(cand.Piece)
		}
		if effective != kind {
			continue
		}
		if !drop {
			from, err := decodeSquare(fromDigits)
			if err != nil {
				return shogi.Move{}, err
			}
			if cand.From != from {
				continue
			}
		}
		return cand, nil
	}
	return shogi.Move{}, fmt.Errorf("move %q is not legal in this position", token)
}

// decodeSquare maps CSA's file-then-rank digit pair (file 1 at Black's
// right, rank 1 at Black's far edge) onto the board's rank*9+file
// indexing, where rank 0 is Black's home edge.
func decodeSquare(digits string) (shogi.Square, error) {
	n, err := strconv.Atoi(digits)
	if err != nil || n < 11 || n > 99 {
		return 0, fmt.Errorf("bad square %q", digits)
	}
	file, rank := n/10, n%10
	if file < 1 || file > 9 || rank < 1 || rank > 9 {
		return 0, fmt.Errorf("bad square %q", digits)
	}
	return shogi.MakeSquare(9-rank, 9-file), nil
}
