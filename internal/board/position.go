package board

import (
	"errors"
	"fmt"
	"strings"
)

// CastlingRights is the set of castling options still available.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// CanCastle reports whether c still has the right to castle on the given wing.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	return cr&castleRight(c, kingSide) != 0
}

func castleRight(c Color, kingSide bool) CastlingRights {
	switch {
	case c == White && kingSide:
		return WhiteKingSideCastle
	case c == White:
		return WhiteQueenSideCastle
	case kingSide:
		return BlackKingSideCastle
	default:
		return BlackQueenSideCastle
	}
}

// Position is a complete chess position. A Position is treated as immutable
// once built: Play returns a new Position and leaves the receiver untouched.
type Position struct {
	// Piece bitboards: [Color][PieceType]
	Pieces [2][6]Bitboard

	Occupied    [2]Bitboard
	AllOccupied Bitboard

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // target square behind a pawn that just double-pushed
	HalfMoveClock  int
	FullMoveNumber int

	KingSquare [2]Square
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic("board: bad start FEN: " + err.Error())
	}
	return pos
}

// emptyPosition returns a board with no pieces, white to move.
func emptyPosition() *Position {
	return &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
		KingSquare:     [2]Square{NoSquare, NoSquare},
	}
}

// Copy returns a deep copy of the position.
func (p *Position) Copy() *Position {
	cp := *p
	return &cp
}

// PieceAt returns the piece on sq, or NoPiece if it is empty.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}
	c := White
	if p.Occupied[Black]&bb != 0 {
		c = Black
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// IsEmpty reports whether sq holds no piece.
func (p *Position) IsEmpty(sq Square) bool {
	return p.AllOccupied&SquareBB(sq) == 0
}

func (p *Position) setPiece(piece Piece, sq Square) {
	if piece == NoPiece {
		return
	}
	c, pt, bb := piece.Color(), piece.Type(), SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	if pt == King {
		p.KingSquare[c] = sq
	}
}

func (p *Position) removePiece(sq Square) Piece {
	piece := p.PieceAt(sq)
	if piece == NoPiece {
		return NoPiece
	}
	c, pt, bb := piece.Color(), piece.Type(), SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	return piece
}

func (p *Position) movePiece(from, to Square) {
	piece := p.removePiece(from)
	p.setPiece(piece, to)
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	ksq := p.KingSquare[p.SideToMove]
	if ksq == NoSquare {
		return false
	}
	return p.IsSquareAttacked(ksq, p.SideToMove.Other())
}

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move has no legal move and is not in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// Validation errors returned by Validate.
var (
	ErrKingCount       = errors.New("each side must have exactly one king")
	ErrPawnOnBackRank  = errors.New("pawns cannot be on rank 1 or 8")
	ErrOpponentInCheck = errors.New("side not to move is in check")
)

// Validate checks the structural invariants of a position.
func (p *Position) Validate() error {
	for _, c := range []Color{White, Black} {
		if p.Pieces[c][King].PopCount() != 1 {
			return fmt.Errorf("%w: %s has %d", ErrKingCount, c, p.Pieces[c][King].PopCount())
		}
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return ErrPawnOnBackRank
	}
	them := p.SideToMove.Other()
	if p.IsSquareAttacked(p.KingSquare[them], p.SideToMove) {
		return ErrOpponentInCheck
	}
	return nil
}

// String returns an ASCII diagram of the position followed by its FEN.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "FEN: %s\n", p.ToFEN())
	return sb.String()
}
