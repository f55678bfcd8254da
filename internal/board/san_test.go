package board

import (
	"errors"
	"testing"
)

func mustFEN(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestSANRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
		"n1n5/PPPk4/8/8/8/8/4Kppp/5N1N b - - 0 1",
	}

	var walk func(p *Position, depth int)
	walk = func(p *Position, depth int) {
		if depth == 0 {
			return
		}
		for _, m := range p.LegalMoves() {
			san := m.SAN(p)
			got, err := DecodeSAN(san, p)
			if err != nil {
				t.Fatalf("DecodeSAN(%q) in %s: %v", san, p.ToFEN(), err)
			}
			if got != m {
				t.Fatalf("DecodeSAN(%q) = %s, want %s", san, got, m)
			}
			walk(p.Play(m), depth-1)
		}
	}

	for _, fen := range fens {
		walk(mustFEN(t, fen), 2)
	}
}

func TestSANDisambiguation(t *testing.T) {
	pos := mustFEN(t, "rnbqkbnr/pppppppp/8/8/3P4/5N2/PPP1PPPP/RNBQKB1R w KQkq - 0 1")

	if _, err := DecodeSAN("Nd2", pos); !errors.Is(err, ErrAmbiguousMove) {
		t.Errorf("Nd2: err = %v, want ErrAmbiguousMove", err)
	}

	m, err := DecodeSAN("Nbd2", pos)
	if err != nil {
		t.Fatal(err)
	}
	if m.From != B1 || m.To != D2 {
		t.Errorf("Nbd2 = %s, want b1d2", m)
	}
	if got := m.SAN(pos); got != "Nbd2" {
		t.Errorf("SAN = %q, want Nbd2", got)
	}

	m, err = DecodeSAN("Nfd2", pos)
	if err != nil {
		t.Fatal(err)
	}
	if m.From != F3 {
		t.Errorf("Nfd2 = %s, want f3d2", m)
	}
}

func TestSANRankDisambiguation(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/R7/8/8/8/R3K3 w - - 0 1")

	m, err := DecodeSAN("R1a3", pos)
	if err != nil {
		t.Fatal(err)
	}
	if m.From != A1 {
		t.Errorf("R1a3 = %s, want a1a3", m)
	}
	if got := m.SAN(pos); got != "R1a3" {
		t.Errorf("SAN = %q, want R1a3", got)
	}
}

func TestDecodeSANErrors(t *testing.T) {
	pos := NewPosition()

	tests := []struct {
		text string
		want error
	}{
		{"e5", ErrNoSuchMove},
		{"Ke2", ErrNoSuchMove},
		{"exd5", ErrNoSuchMove},
		{"O-O", ErrNoSuchMove},
		{"Nxf3", ErrNoSuchMove},
		{"e4=Q", ErrNoSuchMove},
		{"", ErrInvalidNotation},
		{"xyz", ErrInvalidNotation},
		{"e9", ErrInvalidNotation},
		{"Pe4", ErrInvalidNotation},
		{"e8=K", ErrInvalidNotation},
		{"Nf3=Q", ErrInvalidNotation},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			_, err := DecodeSAN(tc.text, pos)
			if !errors.Is(err, tc.want) {
				t.Errorf("DecodeSAN(%q) err = %v, want %v", tc.text, err, tc.want)
			}
		})
	}
}

func TestDecodeSANAccepts(t *testing.T) {
	pos := NewPosition()
	for _, text := range []string{"e4", "e4+", "e4#", "Nf3", "Ng1f3", "Ngf3", " d4 "} {
		if _, err := DecodeSAN(text, pos); err != nil {
			t.Errorf("DecodeSAN(%q): %v", text, err)
		}
	}

	// A capture written without 'x' still resolves.
	pos = mustFEN(t, "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2")
	m, err := DecodeSAN("ed5", pos)
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsCapture() || m.To != D5 {
		t.Errorf("ed5 = %s, want capture on d5", m)
	}
	if got := m.SAN(pos); got != "exd5" {
		t.Errorf("SAN = %q, want exd5", got)
	}
}

func TestDecodeSANCastlingSpellings(t *testing.T) {
	pos := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	for _, text := range []string{"O-O", "0-0", "O-O-O", "0-0-0"} {
		m, err := DecodeSAN(text, pos)
		if err != nil {
			t.Fatalf("DecodeSAN(%q): %v", text, err)
		}
		if !m.IsCastling() {
			t.Errorf("%s decoded to non-castle %s", text, m)
		}
	}
	m, _ := DecodeSAN("0-0-0", pos)
	if got := m.SAN(pos); got != "O-O-O" {
		t.Errorf("SAN = %q, want O-O-O", got)
	}
}

func TestDecodeSANPromotion(t *testing.T) {
	pos := mustFEN(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")

	tests := []struct {
		text string
		want PieceType
		san  string
	}{
		{"a8", Queen, "a8=Q+"},
		{"a8=Q", Queen, "a8=Q+"},
		{"a8=R", Rook, "a8=R+"},
		{"a8N", Knight, "a8=N"},
		{"a8=b", Bishop, "a8=B"},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			m, err := DecodeSAN(tc.text, pos)
			if err != nil {
				t.Fatal(err)
			}
			if m.Promotion != tc.want {
				t.Errorf("promotion = %s, want %s", m.Promotion, tc.want)
			}
			if got := EncodeSAN(m, pos); got != tc.san {
				t.Errorf("EncodeSAN = %q, want %q", got, tc.san)
			}
		})
	}
}

func TestSANCheckmateSuffix(t *testing.T) {
	pos := NewPosition()
	var moves []Move
	for _, san := range []string{"f3", "e5", "g4", "Qh4"} {
		m, err := DecodeSAN(san, pos)
		if err != nil {
			t.Fatalf("%s: %v", san, err)
		}
		moves = append(moves, m)
		pos = pos.Play(m)
	}
	if !pos.IsCheckmate() {
		t.Fatal("expected fool's mate")
	}

	got := MovesToSAN(NewPosition(), moves)
	want := []string{"f3", "e5", "g4", "Qh4#"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("move %d: %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseUCI(t *testing.T) {
	pos := NewPosition()
	m, err := ParseUCI("g1f3", pos)
	if err != nil {
		t.Fatal(err)
	}
	if m.String() != "g1f3" {
		t.Errorf("got %s", m)
	}
	if _, err := ParseUCI("e2e5", pos); !errors.Is(err, ErrNoSuchMove) {
		t.Errorf("e2e5: err = %v, want ErrNoSuchMove", err)
	}
	if _, err := ParseUCI("e2", pos); !errors.Is(err, ErrInvalidNotation) {
		t.Errorf("e2: err = %v, want ErrInvalidNotation", err)
	}
}
