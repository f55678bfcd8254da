package board

import "strings"

// MoveFlag marks the special properties of a move. A zero flag set is a
// normal quiet move.
type MoveFlag uint8

const (
	FlagCapture MoveFlag = 1 << iota
	FlagEnPassant
	FlagKingCastle
	FlagQueenCastle
	FlagDoublePush

	FlagNormal MoveFlag = 0
)

// Move is a move relative to the Position it was generated from.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType // NoPieceType unless the move promotes
	Flags     MoveFlag
}

// NoMove is the zero-information move returned alongside errors.
var NoMove = Move{From: NoSquare, To: NoSquare, Promotion: NoPieceType}

func newMove(from, to Square, flags MoveFlag) Move {
	return Move{From: from, To: to, Promotion: NoPieceType, Flags: flags}
}

// IsCapture reports whether the move captures, en passant included.
func (m Move) IsCapture() bool {
	return m.Flags&(FlagCapture|FlagEnPassant) != 0
}

// IsEnPassant reports whether the move is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flags&FlagEnPassant != 0
}

// IsCastling reports whether the move is a castle on either wing.
func (m Move) IsCastling() bool {
	return m.Flags&(FlagKingCastle|FlagQueenCastle) != 0
}

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Promotion != NoPieceType
}

// IsDoublePush reports whether the move is a two-square pawn advance.
func (m Move) IsDoublePush() bool {
	return m.Flags&FlagDoublePush != 0
}

// String returns the UCI form of the move (e.g. "e2e4", "e7e8q").
func (m Move) String() string {
	if m.From >= NoSquare || m.To >= NoSquare {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += strings.ToLower(string(m.Promotion.Letter()))
	}
	return s
}
