package board

// LegalMoves returns every legal move for the side to move.
func (p *Position) LegalMoves() []Move {
	pseudo := p.PseudoLegalMoves()
	legal := pseudo[:0]
	for _, m := range pseudo {
		if p.isLegal(m) {
			legal = append(legal, m)
		}
	}
	return legal
}

// HasLegalMoves reports whether the side to move has at least one legal move.
func (p *Position) HasLegalMoves() bool {
	for _, m := range p.PseudoLegalMoves() {
		if p.isLegal(m) {
			return true
		}
	}
	return false
}

// isLegal plays m on a scratch copy and checks that the mover's king is safe.
func (p *Position) isLegal(m Move) bool {
	us := p.SideToMove
	next := p.Play(m)
	ksq := next.KingSquare[us]
	if ksq == NoSquare {
		return false
	}
	return !next.IsSquareAttacked(ksq, us.Other())
}

// PseudoLegalMoves returns the moves that obey piece movement rules without
// checking whether they leave the mover's own king attacked.
func (p *Position) PseudoLegalMoves() []Move {
	moves := make([]Move, 0, 64)
	us := p.SideToMove
	own := p.Occupied[us]
	enemies := p.Occupied[us.Other()]

	moves = p.appendPawnMoves(moves, us, enemies)

	for pt := Knight; pt <= King; pt++ {
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			targets := p.pieceTargets(pt, from) &^ own
			for targets != 0 {
				to := targets.PopLSB()
				flags := FlagNormal
				if enemies.IsSet(to) {
					flags = FlagCapture
				}
				moves = append(moves, newMove(from, to, flags))
			}
		}
	}

	return p.appendCastlingMoves(moves, us)
}

func (p *Position) pieceTargets(pt PieceType, from Square) Bitboard {
	switch pt {
	case Knight:
		return KnightAttacks(from)
	case Bishop:
		return BishopAttacks(from, p.AllOccupied)
	case Rook:
		return RookAttacks(from, p.AllOccupied)
	case Queen:
		return QueenAttacks(from, p.AllOccupied)
	case King:
		return KingAttacks(from)
	}
	return Empty
}

func (p *Position) appendPawnMoves(moves []Move, us Color, enemies Bitboard) []Move {
	pawns := p.Pieces[us][Pawn]
	empty := ^p.AllOccupied

	var push1, push2, attackL, attackR, promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	for push1 != 0 {
		to := push1.PopLSB()
		from := Square(int(to) - pushDir)
		moves = appendPawnMove(moves, from, to, FlagNormal, promotionRank)
	}

	for push2 != 0 {
		to := push2.PopLSB()
		from := Square(int(to) - 2*pushDir)
		moves = append(moves, newMove(from, to, FlagDoublePush))
	}

	for attackL != 0 {
		to := attackL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		moves = appendPawnMove(moves, from, to, FlagCapture, promotionRank)
	}

	for attackR != 0 {
		to := attackR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		moves = appendPawnMove(moves, from, to, FlagCapture, promotionRank)
	}

	if p.EnPassant != NoSquare {
		attackers := PawnAttacks(p.EnPassant, us.Other()) & pawns
		for attackers != 0 {
			from := attackers.PopLSB()
			moves = append(moves, newMove(from, p.EnPassant, FlagEnPassant))
		}
	}

	return moves
}

// appendPawnMove adds a pawn move, expanding it into the four promotions
// when it lands on the last rank.
func appendPawnMove(moves []Move, from, to Square, flags MoveFlag, promotionRank Bitboard) []Move {
	if !promotionRank.IsSet(to) {
		return append(moves, newMove(from, to, flags))
	}
	for _, pt := range []PieceType{Queen, Rook, Bishop, Knight} {
		m := newMove(from, to, flags)
		m.Promotion = pt
		moves = append(moves, m)
	}
	return moves
}

// castlePath describes the squares involved in one castling move.
type castlePath struct {
	right    CastlingRights
	king     Square
	rook     Square
	to       Square
	empty    []Square // between king and rook
	safe     []Square // king's path, destination included
	flag     MoveFlag
	rookDest Square
}

var castlePaths = [2][2]castlePath{
	White: {
		{WhiteKingSideCastle, E1, H1, G1, []Square{F1, G1}, []Square{F1, G1}, FlagKingCastle, F1},
		{WhiteQueenSideCastle, E1, A1, C1, []Square{B1, C1, D1}, []Square{D1, C1}, FlagQueenCastle, D1},
	},
	Black: {
		{BlackKingSideCastle, E8, H8, G8, []Square{F8, G8}, []Square{F8, G8}, FlagKingCastle, F8},
		{BlackQueenSideCastle, E8, A8, C8, []Square{B8, C8, D8}, []Square{D8, C8}, FlagQueenCastle, D8},
	},
}

func (p *Position) appendCastlingMoves(moves []Move, us Color) []Move {
	them := us.Other()
	for _, cp := range castlePaths[us] {
		if p.CastlingRights&cp.right == 0 {
			continue
		}
		if p.PieceAt(cp.king) != NewPiece(King, us) || p.PieceAt(cp.rook) != NewPiece(Rook, us) {
			continue
		}
		if !p.squaresEmpty(cp.empty) {
			continue
		}
		if p.IsSquareAttacked(cp.king, them) || p.anyAttacked(cp.safe, them) {
			continue
		}
		moves = append(moves, newMove(cp.king, cp.to, cp.flag))
	}
	return moves
}

func (p *Position) squaresEmpty(squares []Square) bool {
	for _, sq := range squares {
		if !p.IsEmpty(sq) {
			return false
		}
	}
	return true
}

func (p *Position) anyAttacked(squares []Square, by Color) bool {
	for _, sq := range squares {
		if p.IsSquareAttacked(sq, by) {
			return true
		}
	}
	return false
}

// Play returns the position after m. The receiver is not modified. m must
// come from this position's move generator; Play does not re-check legality.
func (p *Position) Play(m Move) *Position {
	next := p.Copy()
	next.apply(m)
	return next
}

func (p *Position) apply(m Move) {
	us := p.SideToMove
	pt := p.PieceAt(m.From).Type()

	var captured Piece
	if m.IsEnPassant() {
		captured = p.removePiece(NewSquare(m.To.File(), m.From.Rank()))
	} else {
		captured = p.removePiece(m.To)
	}

	p.movePiece(m.From, m.To)

	if m.IsPromotion() {
		p.removePiece(m.To)
		p.setPiece(NewPiece(m.Promotion, us), m.To)
	}

	if m.IsCastling() {
		for _, cp := range castlePaths[us] {
			if cp.flag&m.Flags != 0 {
				p.movePiece(cp.rook, cp.rookDest)
			}
		}
	}

	if pt == King {
		p.CastlingRights &^= castleRight(us, true) | castleRight(us, false)
	}
	// A move from or to a corner kills the right tied to that rook.
	for _, corner := range []struct {
		sq    Square
		right CastlingRights
	}{{A1, WhiteQueenSideCastle}, {H1, WhiteKingSideCastle}, {A8, BlackQueenSideCastle}, {H8, BlackKingSideCastle}} {
		if m.From == corner.sq || m.To == corner.sq {
			p.CastlingRights &^= corner.right
		}
	}

	p.EnPassant = NoSquare
	if m.IsDoublePush() {
		p.EnPassant = NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
	}

	if pt == Pawn || captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = us.Other()
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) int64 {
	if depth <= 0 {
		return 1
	}
	moves := p.LegalMoves()
	if depth == 1 {
		return int64(len(moves))
	}
	var nodes int64
	for _, m := range moves {
		nodes += p.Play(m).Perft(depth - 1)
	}
	return nodes
}
