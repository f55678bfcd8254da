package board

import (
	"math/bits"
	"strings"
)

// Bitboard is a set of squares, one bit per square (bit 0 = A1, bit 63 = H8).
type Bitboard uint64

// File masks
const (
	FileA Bitboard = 0x0101010101010101
	FileH Bitboard = 0x8080808080808080
)

// Rank masks
const (
	Rank1 Bitboard = 0x00000000000000FF
	Rank3 Bitboard = 0x0000000000FF0000
	Rank6 Bitboard = 0x0000FF0000000000
	Rank8 Bitboard = 0xFF00000000000000
)

const (
	Empty Bitboard = 0

	NotFileA Bitboard = ^FileA
	NotFileH Bitboard = ^FileH
)

// SquareBB returns a bitboard with only the given square set.
func SquareBB(sq Square) Bitboard {
	if sq >= NoSquare {
		return Empty
	}
	return 1 << sq
}

// IsSet reports whether sq is in the set.
func (b Bitboard) IsSet(sq Square) bool {
	return b&SquareBB(sq) != 0
}

// PopCount returns the number of squares in the set.
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(uint64(b))
}

// LSB returns the lowest square in the set, or NoSquare if it is empty.
func (b Bitboard) LSB() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(uint64(b)))
}

// PopLSB removes and returns the lowest square in the set.
func (b *Bitboard) PopLSB() Square {
	sq := b.LSB()
	*b &= *b - 1
	return sq
}

// North shifts the set one rank toward rank 8.
func (b Bitboard) North() Bitboard {
	return b << 8
}

// South shifts the set one rank toward rank 1.
func (b Bitboard) South() Bitboard {
	return b >> 8
}

// NorthEast shifts the set one square toward the h8 corner.
func (b Bitboard) NorthEast() Bitboard {
	return (b << 9) & NotFileA
}

// NorthWest shifts the set one square toward the a8 corner.
func (b Bitboard) NorthWest() Bitboard {
	return (b << 7) & NotFileH
}

// SouthEast shifts the set one square toward the h1 corner.
func (b Bitboard) SouthEast() Bitboard {
	return (b >> 7) & NotFileA
}

// SouthWest shifts the set one square toward the a1 corner.
func (b Bitboard) SouthWest() Bitboard {
	return (b >> 9) & NotFileH
}

// String returns an 8x8 diagram of the set, rank 8 first.
func (b Bitboard) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		sb.WriteByte(' ')
		for file := 0; file < 8; file++ {
			if b.IsSet(NewSquare(file, rank)) {
				sb.WriteString("1 ")
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}
