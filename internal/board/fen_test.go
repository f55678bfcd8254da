package board

import (
	"errors"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2",
		"4k3/8/8/8/8/8/8/4K3 b - - 37 80",
	}
	for _, fen := range fens {
		pos := mustFEN(t, fen)
		if got := pos.ToFEN(); got != fen {
			t.Errorf("ToFEN = %q, want %q", got, fen)
		}
	}
}

func TestParseFENDefaults(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/4K3 w - -")
	if pos.HalfMoveClock != 0 || pos.FullMoveNumber != 1 {
		t.Errorf("clocks = %d/%d, want 0/1", pos.HalfMoveClock, pos.FullMoveNumber)
	}
	if pos.KingSquare[White] != E1 || pos.KingSquare[Black] != E8 {
		t.Errorf("kings = %s/%s, want e1/e8", pos.KingSquare[White], pos.KingSquare[Black])
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"8/8/8/8/8/8/8/8 w - -",
		"4k3/8/8/8/8/8/8/4K3 x - -",
		"4k3/8/8/8/8/8/8/4K3 w X -",
		"4k3/8/8/8/8/8/8/4K3 w - e4",
		"4k3/8/8/8/8/8/8 w - -",
		"4k3/9/8/8/8/8/8/4K3 w - -",
		"4k3/8/8/8/8/8/8/4K2 w - -",
		"P3k3/8/8/8/8/8/8/4K3 w - -",
		"4k3/8/8/8/8/8/8/4K3 w - - -1 1",
		"4k3/8/8/8/8/8/8/4K3 w - - 0 0",
		"4k2R/8/8/8/8/8/8/4K3 w - -",
		"4k3/8/8/8/8/8/8/4KK2 w - -",
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("ParseFEN(%q) err = %v, want ErrInvalidFEN", fen, err)
		}
	}
}

func TestPositionString(t *testing.T) {
	s := NewPosition().String()
	if len(s) == 0 {
		t.Fatal("empty diagram")
	}
	want := "FEN: " + StartFEN + "\n"
	if s[len(s)-len(want):] != want {
		t.Errorf("diagram does not end with FEN line: %q", s)
	}
}
