package board

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Errors returned by DecodeSAN and ParseUCI. Each is wrapped with the
// offending text.
var (
	ErrInvalidNotation = errors.New("invalid notation")
	ErrAmbiguousMove   = errors.New("ambiguous move")
	ErrNoSuchMove      = errors.New("no such move")
)

// sanPattern is [KQRBN]? [a-h]? [1-8]? x? [a-h][1-8] (=?[A-Za-z])?
// The promotion letter is checked after matching so that "e8=K" is reported
// as a bad promotion rather than as unparseable text.
var sanPattern = regexp.MustCompile(`^([KQRBN])?([a-h])?([1-8])?(x)?([a-h][1-8])(=?([A-Za-z]))?$`)

// DecodeSAN resolves text against the legal moves of pos. Check and mate
// suffixes are optional and ignored. A pawn reaching the last rank without a
// promotion suffix promotes to a queen.
func DecodeSAN(text string, pos *Position) (Move, error) {
	s := strings.TrimSpace(text)
	if n := len(s); n > 0 && (s[n-1] == '+' || s[n-1] == '#') {
		s = s[:n-1]
	}
	if s == "" {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidNotation, text)
	}

	switch s {
	case "O-O", "0-0":
		return findCastle(pos, FlagKingCastle, text)
	case "O-O-O", "0-0-0":
		return findCastle(pos, FlagQueenCastle, text)
	}

	sm := sanPattern.FindStringSubmatch(s)
	if sm == nil {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidNotation, text)
	}

	pt := Pawn
	if sm[1] != "" {
		pt = pieceTypeFromLetter(sm[1][0])
	}
	file, rank := -1, -1
	if sm[2] != "" {
		file = int(sm[2][0] - 'a')
	}
	if sm[3] != "" {
		rank = int(sm[3][0] - '1')
	}
	capture := sm[4] != ""
	dest, err := ParseSquare(sm[5])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidNotation, text)
	}

	promo := NoPieceType
	if sm[7] != "" {
		promo = pieceTypeFromLetter(strings.ToUpper(sm[7])[0])
		if pt != Pawn || promo == NoPieceType || promo == King || promo == Pawn {
			return NoMove, fmt.Errorf("%w: bad promotion in %q", ErrInvalidNotation, text)
		}
	}

	var found []Move
	for _, m := range pos.LegalMoves() {
		if m.To != dest || pos.PieceAt(m.From).Type() != pt {
			continue
		}
		if file >= 0 && m.From.File() != file {
			continue
		}
		if rank >= 0 && m.From.Rank() != rank {
			continue
		}
		if capture && !m.IsCapture() {
			continue
		}
		// Pawn captures always name the origin file.
		if pt == Pawn && file < 0 && m.IsCapture() {
			continue
		}
		if m.IsPromotion() {
			want := promo
			if want == NoPieceType {
				want = Queen
			}
			if m.Promotion != want {
				continue
			}
		} else if promo != NoPieceType {
			continue
		}
		found = append(found, m)
	}

	switch len(found) {
	case 0:
		return NoMove, fmt.Errorf("%w: %q", ErrNoSuchMove, text)
	case 1:
		return found[0], nil
	default:
		return NoMove, fmt.Errorf("%w: %q matches %d moves", ErrAmbiguousMove, text, len(found))
	}
}

func findCastle(pos *Position, flag MoveFlag, text string) (Move, error) {
	for _, m := range pos.LegalMoves() {
		if m.Flags&flag != 0 {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %q", ErrNoSuchMove, text)
}

// EncodeSAN returns the canonical SAN of m, which must be legal in pos.
func EncodeSAN(m Move, pos *Position) string {
	return m.SAN(pos)
}

// SAN returns the canonical SAN of m in pos, with minimal disambiguation and
// a check or mate suffix.
func (m Move) SAN(pos *Position) string {
	if m.From >= NoSquare || m.To >= NoSquare {
		return "-"
	}
	piece := pos.PieceAt(m.From)
	if piece == NoPiece {
		return m.String()
	}

	var sb strings.Builder
	switch {
	case m.Flags&FlagKingCastle != 0:
		sb.WriteString("O-O")
	case m.Flags&FlagQueenCastle != 0:
		sb.WriteString("O-O-O")
	default:
		pt := piece.Type()
		if pt != Pawn {
			sb.WriteByte(pt.Letter())
			sb.WriteString(disambiguation(pos, m, pt))
		}
		if m.IsCapture() {
			if pt == Pawn {
				sb.WriteByte(byte('a' + m.From.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte(m.Promotion.Letter())
		}
	}

	next := pos.Play(m)
	if next.InCheck() {
		if next.HasLegalMoves() {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed to tell m
// apart from other legal moves of the same piece type to the same square.
func disambiguation(pos *Position, m Move, pt PieceType) string {
	var others []Square
	for _, o := range pos.LegalMoves() {
		if o.To != m.To || o.From == m.From {
			continue
		}
		if pos.PieceAt(o.From).Type() == pt {
			others = append(others, o.From)
		}
	}
	if len(others) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range others {
		if sq.File() == m.From.File() {
			sameFile = true
		}
		if sq.Rank() == m.From.Rank() {
			sameRank = true
		}
	}
	switch {
	case !sameFile:
		return string(rune('a' + m.From.File()))
	case !sameRank:
		return string(rune('1' + m.From.Rank()))
	default:
		return m.From.String()
	}
}

// ParseUCI resolves a coordinate move such as "e2e4" or "e7e8q" against the
// legal moves of pos.
func ParseUCI(s string, pos *Position) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}
	promo := NoPieceType
	if len(s) == 5 {
		promo = pieceTypeFromLetter(strings.ToUpper(s[4:])[0])
		if promo == NoPieceType || promo == King || promo == Pawn {
			return NoMove, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
		}
	}
	for _, m := range pos.LegalMoves() {
		if m.From == from && m.To == to && m.Promotion == promo {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %q", ErrNoSuchMove, s)
}

// MovesToSAN converts a sequence of moves played from pos into SAN.
func MovesToSAN(pos *Position, moves []Move) []string {
	out := make([]string, len(moves))
	p := pos
	for i, m := range moves {
		out[i] = m.SAN(p)
		p = p.Play(m)
	}
	return out
}
