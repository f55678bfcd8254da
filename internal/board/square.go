// Package board implements the chess rules: positions, legal move generation,
// FEN serialization and Standard Algebraic Notation.
package board

import (
	"errors"
	"fmt"
)

// Square is a board coordinate (0-63) in little-endian rank-file order:
// A1=0, H1=7, A8=56, H8=63.
type Square uint8

const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
	NoSquare Square = 64
)

// ErrInvalidSquare is returned when a square name is not of the form [a-h][1-8].
var ErrInvalidSquare = errors.New("invalid square")

// File returns the file of the square, 0 for a through 7 for h.
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns the rank of the square, 0 for rank 1 through 7 for rank 8.
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// String returns the algebraic name of the square (e.g. "e4"), or "-" for NoSquare.
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// NewSquare builds a square from a 0-based file and rank.
// It returns NoSquare when either coordinate is off the board.
func NewSquare(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return Square(rank*8 + file)
}

// ParseSquare parses a lowercase algebraic square name such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'
	sq := NewSquare(file, rank)
	if sq == NoSquare {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return sq, nil
}

// Offset returns the square df files and dr ranks away, or NoSquare
// when that would leave the board.
func (sq Square) Offset(df, dr int) Square {
	return NewSquare(sq.File()+df, sq.Rank()+dr)
}
