package shogi

type offset struct{ dr, df int }

func forwardDir(c Color) int {
	if c == Black {
		return 1
	}
	return -1
}

func goldOffsets(f int) []offset {
	return []offset{{f, -1}, {f, 0}, {f, 1}, {0, -1}, {0, 1}, {-f, 0}}
}

func silverOffsets(f int) []offset {
	return []offset{{f, -1}, {f, 0}, {f, 1}, {-f, -1}, {-f, 1}}
}

var kingOffsets = []offset{{1, -1}, {1, 0}, {1, 1}, {0, -1}, {0, 1}, {-1, -1}, {-1, 0}, {-1, 1}}

var bishopDirs = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = []offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// steppingOffsets returns the fixed destination offsets for non-sliding
// piece kinds, or nil if k slides or drops.
func steppingOffsets(k Kind, c Color) []offset {
	f := forwardDir(c)
	switch k {
	case Pawn:
		return []offset{{f, 0}}
	case Knight:
		return []offset{{2 * f, -1}, {2 * f, 1}}
	case Silver:
		return silverOffsets(f)
	case Gold, Tokin, ProLance, ProKnight, ProSilver:
		return goldOffsets(f)
	case King:
		return kingOffsets
	default:
		return nil
	}
}

// slidingDirs returns the ray directions for sliding kinds, or nil.
func slidingDirs(k Kind, c Color) []offset {
	switch k {
	case Lance:
		return []offset{{forwardDir(c), 0}}
	case Bishop:
		return bishopDirs
	case Rook:
		return rookDirs
	case Horse:
		return append(append([]offset{}, bishopDirs...), rookDirs...)
	case Dragon:
		return append(append([]offset{}, rookDirs...), bishopDirs...)
	default:
		return nil
	}
}

// attacksFrom calls visit for every square that a piece of kind k and
// color c standing on from attacks, stopping a ray early if visit
// returns false.
func attacksFrom(b *Board, from Square, k Kind, c Color, visit func(Square) bool) {
	if offs := steppingOffsets(k, c); offs != nil {
		for _, o := range offs {
			r, f := from.Rank()+o.dr, from.File()+o.df
			if r < 0 || r >= BoardSize || f < 0 || f >= BoardSize {
				continue
			}
			if !visit(MakeSquare(r, f)) {
				return
			}
		}
		return
	}
	for _, d := range slidingDirs(k, c) {
		r, f := from.Rank(), from.File()
		for {
			r += d.dr
			f += d.df
			if r < 0 || r >= BoardSize || f < 0 || f >= BoardSize {
				break
			}
			sq := MakeSquare(r, f)
			if !visit(sq) {
				return
			}
			if !b.squares[sq].IsEmpty() {
				break
			}
		}
	}
}

func isAttacked(b *Board, target Square, byColor Color) bool {
	found := false
	for s := Square(0); s < NumSquares; s++ {
		p := b.squares[s]
		if p.IsEmpty() || p.Color() != byColor {
			continue
		}
		attacksFrom(b, s, p.Kind(), byColor, func(sq Square) bool {
			if sq == target {
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

// mustPromote reports whether a piece of kind k belonging to c would
// have no legal destination squares left on rank if it does not
// promote (pawn/lance on the far rank, knight on the far two ranks).
func mustPromote(k Kind, c Color, toRank int) bool {
	last := BoardSize - 1
	if c == White {
		toRank = last - toRank
	}
	switch k {
	case Pawn, Lance:
		return toRank == last
	case Knight:
		return toRank >= last-1
	default:
		return false
	}
}

func inPromotionZone(c Color, rank int) bool {
	if c == Black {
		return rank >= BoardSize-3
	}
	return rank <= 2
}

// GenerateMoves returns every pseudo-legal move (board moves and drops)
// for the side to move, then filters out moves that leave that side's
// own king in check.
func GenerateMoves(b *Board) []Move {
	var pseudo []Move
	c := b.turn

	for s := Square(0); s < NumSquares; s++ {
		p := b.squares[s]
		if p.IsEmpty() || p.Color() != c {
			continue
		}
		k := p.Kind()
		attacksFrom(b, s, k, c, func(to Square) bool {
			target := b.squares[to]
			if !target.IsEmpty() && target.Color() == c {
				return true
			}
			forced := mustPromote(k, c, to.Rank())
			canPromo := CanPromote(k) && (inPromotionZone(c, s.Rank()) || inPromotionZone(c, to.Rank()))
			if canPromo {
				pseudo = append(pseudo, Move{From: s, To: to, Piece: k, Promote: true})
			}
			if !forced {
				pseudo = append(pseudo, Move{From: s, To: to, Piece: k})
			}
			return true
		})
	}

	for handIdx, k := range droppable {
		if b.hand[c][handIdx] == 0 {
			continue
		}
		hasPawnOnFile := make([]bool, BoardSize)
		if k == Pawn {
			for s := Square(0); s < NumSquares; s++ {
				pc := b.squares[s]
				if pc.Kind() == Pawn && pc.Color() == c {
					hasPawnOnFile[s.File()] = true
				}
			}
		}
		for s := Square(0); s < NumSquares; s++ {
			if !b.squares[s].IsEmpty() {
				continue
			}
			if mustPromote(k, c, s.Rank()) {
				continue
			}
			if k == Pawn && hasPawnOnFile[s.File()] {
				continue
			}
			pseudo = append(pseudo, Move{To: s, Piece: k, Drop: true})
		}
	}

	legal := pseudo[:0]
	for _, m := range pseudo {
		next := b.MakeMove(m)
		if !isAttacked(&next, mustFindKing(&next, c), c.Opposite()) {
			legal = append(legal, m)
		}
	}
	return legal
}

func mustFindKing(b *Board, c Color) Square {
	s, _ := kingSquare(b, c)
	return s
}

// MakeMove returns the board resulting from playing m; the receiver is
// left unmodified, matching the copy-into-child pattern search trees use
// to keep sibling searches independent.
func (b Board) MakeMove(m Move) Board {
	out := b
	if m.Drop {
		out.squares[m.To] = NewPiece(b.turn, m.Piece)
		out.hand[b.turn][HandIndex(m.Piece)]--
	} else {
		moving := b.squares[m.From]
		captured := b.squares[m.To]
		if !captured.IsEmpty() {
			demoted := Demote(captured.Kind())
			if idx := HandIndex(demoted); idx >= 0 {
				out.hand[b.turn][idx]++
			}
		}
		out.squares[m.From] = NoPiece
		if m.Promote {
			moving = NewPiece(b.turn, Promote(moving.Kind()))
		}
		out.squares[m.To] = moving
	}
	out.turn = b.turn.Opposite()
	return out
}

// GivesCheck reports whether m, played from board b, would check the
// opponent — used by example.Generator to extend search depth by one
// on checking moves (section 4.4).
func GivesCheck(b *Board, m Move) bool {
	next := b.MakeMove(m)
	opponent := b.turn.Opposite()
	ks, ok := kingSquare(&next, opponent)
	if !ok {
		return false
	}
	return isAttacked(&next, ks, opponent.Opposite())
}
