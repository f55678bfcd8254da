package board

// Offset tables as (file, rank) steps.
var (
	knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}

	rookDirections   = [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	bishopDirections = [4][2]int{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
)

// Pre-computed attack tables for the non-sliding pieces.
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		knightAttacks[sq] = offsetTargets(sq, knightOffsets[:])
		kingAttacks[sq] = offsetTargets(sq, kingOffsets[:])
		pawnAttacks[White][sq] = SquareBB(sq.Offset(-1, 1)) | SquareBB(sq.Offset(1, 1))
		pawnAttacks[Black][sq] = SquareBB(sq.Offset(-1, -1)) | SquareBB(sq.Offset(1, -1))
	}
}

func offsetTargets(sq Square, offsets [][2]int) Bitboard {
	var bb Bitboard
	for _, o := range offsets {
		bb |= SquareBB(sq.Offset(o[0], o[1]))
	}
	return bb
}

// slide scans each ray from sq until it leaves the board or hits an occupied
// square. The blocking square is included so captures fall out naturally.
func slide(sq Square, occupied Bitboard, dirs [4][2]int) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		for to := sq.Offset(d[0], d[1]); to != NoSquare; to = to.Offset(d[0], d[1]) {
			attacks |= SquareBB(to)
			if occupied.IsSet(to) {
				break
			}
		}
	}
	return attacks
}

// KnightAttacks returns the squares a knight on sq attacks.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the squares a king on sq attacks.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns the diagonal squares reachable from sq given the occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, occupied, bishopDirections)
}

// RookAttacks returns the orthogonal squares reachable from sq given the occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, occupied, rookDirections)
}

// QueenAttacks returns the union of bishop and rook attacks from sq.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// AttackersByColor returns the pieces of color c that attack sq.
func (p *Position) AttackersByColor(sq Square, c Color) Bitboard {
	occupied := p.AllOccupied
	return (pawnAttacks[c.Other()][sq] & p.Pieces[c][Pawn]) |
		(knightAttacks[sq] & p.Pieces[c][Knight]) |
		(kingAttacks[sq] & p.Pieces[c][King]) |
		(BishopAttacks(sq, occupied) & (p.Pieces[c][Bishop] | p.Pieces[c][Queen])) |
		(RookAttacks(sq, occupied) & (p.Pieces[c][Rook] | p.Pieces[c][Queen]))
}

// IsSquareAttacked reports whether any piece of byColor attacks sq.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.AttackersByColor(sq, byColor) != 0
}
