package replay

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chessaudit/internal/board"
	"github.com/hailam/chessaudit/internal/transcript"
)

// game builds a transcript from plies, two per round.
func game(plies ...string) *transcript.Transcript {
	t := &transcript.Transcript{Player1: "white", Player2: "black"}
	for i, p := range plies {
		t.Entries = append(t.Entries, transcript.Entry{Round: i/2 + 1, Player: i%2 + 1, Raw: p})
	}
	return t
}

func TestFoolsMate(t *testing.T) {
	r := Validate(game("f3", "e5", "g4", "Qh4#", "Kf2"), DefaultOptions())

	assert.Equal(t, Checkmate, r.State)
	assert.Equal(t, 2, r.DecidedBy)
	require.Len(t, r.Records, 5)

	mate := r.Records[3]
	assert.Equal(t, Legal, mate.Verdict)
	assert.Equal(t, ReasonCheckmate, mate.Reason)
	assert.Equal(t, "Qh4#", mate.SAN)
	assert.Equal(t, "d8h4", mate.UCI)
	assert.True(t, mate.ClaimedMate)
	assert.Equal(t, Checkmate, mate.State)

	after := r.Records[4]
	assert.Equal(t, Skipped, after.Verdict)
	assert.Equal(t, ReasonGameEnded, after.Reason)

	assert.Equal(t, PlayerTally{Name: "white", Moves: 3, Legal: 2}, r.Players[0])
	assert.Equal(t, PlayerTally{Name: "black", Moves: 2, Legal: 2}, r.Players[1])
}

func TestIllegalOpening(t *testing.T) {
	v := New(DefaultOptions())
	rec := v.Step(transcript.Entry{Round: 1, Player: 1, Raw: "e5"})

	assert.Equal(t, Illegal, rec.Verdict)
	assert.Equal(t, ReasonIllegal, rec.Reason)
	assert.Equal(t, InProgress, v.State())
	assert.Equal(t, board.StartFEN, v.Position().ToFEN())
}

func TestInvalidNotation(t *testing.T) {
	v := New(DefaultOptions())

	rec := v.Step(transcript.Entry{Round: 1, Player: 1, Raw: "xyz"})
	assert.Equal(t, Illegal, rec.Verdict)
	assert.True(t, strings.HasPrefix(rec.Reason, ReasonInvalidPrefix), rec.Reason)

	rec = v.Step(transcript.Entry{Round: 1, Player: 1, Raw: "Nd2"})
	assert.Equal(t, Illegal, rec.Verdict)
	assert.Equal(t, ReasonIllegal, rec.Reason, "Nd2 has no legal candidate at the start")
}

func TestAmbiguousIsInvalidNotation(t *testing.T) {
	v := New(DefaultOptions())
	for _, raw := range []string{"d4", "d5", "Nf3", "Nf6"} {
		require.Equal(t, Legal, v.Step(transcript.Entry{Round: 1, Player: 1, Raw: raw}).Verdict, raw)
	}
	rec := v.Step(transcript.Entry{Round: 3, Player: 1, Raw: "Nd2"})
	assert.Equal(t, Illegal, rec.Verdict)
	assert.Contains(t, rec.Reason, "ambiguous")
}

func TestNotAMove(t *testing.T) {
	for _, raw := range []string{"Checkmate", "draw", "Stalemate!", "resigns", "#", "   "} {
		v := New(DefaultOptions())
		rec := v.Step(transcript.Entry{Round: 1, Player: 1, Raw: raw})
		assert.Equal(t, NotAMove, rec.Verdict, raw)
		assert.Equal(t, ReasonNotAMove, rec.Reason, raw)
		assert.Equal(t, board.StartFEN, v.Position().ToFEN(), raw)
	}
}

func TestFirstTokenOnly(t *testing.T) {
	v := New(DefaultOptions())
	rec := v.Step(transcript.Entry{Round: 1, Player: 1, Raw: "  e4 because it controls the center"})
	assert.Equal(t, Legal, rec.Verdict)
	assert.Equal(t, "e4", rec.Move)
}

func TestFoldWidth(t *testing.T) {
	v := New(DefaultOptions())
	rec := v.Step(transcript.Entry{Round: 1, Player: 1, Raw: "Ｎｆ３"})
	assert.Equal(t, Legal, rec.Verdict)
	assert.Equal(t, "Nf3", rec.SAN)

	opts := DefaultOptions()
	opts.FoldWidth = false
	v = New(opts)
	rec = v.Step(transcript.Entry{Round: 1, Player: 1, Raw: "Ｎｆ３"})
	assert.Equal(t, Illegal, rec.Verdict)
}

func TestMaxMoveLength(t *testing.T) {
	n, err := Normalize("exd8=Q", DefaultOptions())
	assert.ErrorIs(t, err, ErrNotAMove)
	assert.Equal(t, "exd8=Q", n.Text)

	opts := DefaultOptions()
	opts.MaxMoveLength = 0
	_, err = Normalize("exd8=Q", opts)
	assert.NoError(t, err)
}

func TestNormalizeClaims(t *testing.T) {
	n, err := Normalize("Qxf7#", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Normalized{Text: "Qxf7", ClaimedMate: true}, n)

	n, err = Normalize("Bb5+", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Normalized{Text: "Bb5+", ClaimedCheck: true}, n)
}

func TestAbortOnIllegal(t *testing.T) {
	opts := DefaultOptions()
	opts.AbortOnIllegal = true

	r := Validate(game("e4", "e4", "d4"), opts)
	assert.Equal(t, Aborted, r.State)
	assert.Equal(t, 2, r.DecidedBy)
	assert.Equal(t, Skipped, r.Records[2].Verdict)
}

// shuffle returns n rounds of knights going out and back.
func shuffle(n int) []string {
	cycle := []string{"Nf3", "Nf6", "Ng1", "Ng8"}
	var plies []string
	for i := 0; i < 2*n; i++ {
		plies = append(plies, cycle[i%4])
	}
	return plies
}

func TestRoundLimitExceeded(t *testing.T) {
	r := Validate(game(shuffle(41)...), DefaultOptions())

	assert.Equal(t, RoundLimitDraw, r.State)
	last := r.Records[len(r.Records)-2]
	assert.Equal(t, 41, last.Round)
	assert.Equal(t, Skipped, last.Verdict)
	assert.Equal(t, ReasonRoundLimit, last.Reason)
	assert.Equal(t, ReasonGameEnded, r.Records[len(r.Records)-1].Reason)
	assert.Equal(t, 40, r.LastRound)
}

func TestRoundLimitReachedAtFinish(t *testing.T) {
	r := Validate(game(shuffle(40)...), DefaultOptions())
	assert.Equal(t, RoundLimitDraw, r.State)

	// Only one player moved in the last round.
	plies := shuffle(40)
	r = Validate(game(plies[:len(plies)-1]...), DefaultOptions())
	assert.Equal(t, InProgress, r.State)

	opts := DefaultOptions()
	opts.RoundLimit = 0
	r = Validate(game(shuffle(45)...), opts)
	assert.Equal(t, InProgress, r.State)
}

func TestStalemate(t *testing.T) {
	plies := strings.Fields("e3 a5 Qh5 Ra6 Qxa5 h5 h4 Rah6 Qxc7 f6 Qxd7+ Kf7 Qxb7 Qd3 Qxb8 Qh7 Qxc8 Kg6 Qe6")
	r := Validate(game(plies...), DefaultOptions())

	assert.Equal(t, Stalemate, r.State)
	last := r.Records[len(r.Records)-1]
	assert.Equal(t, ReasonStalemate, last.Reason)
	assert.Equal(t, 0, r.DecidedBy)
}

func TestPositionIsACopy(t *testing.T) {
	v := New(DefaultOptions())
	p := v.Position()
	m, err := board.DecodeSAN("e4", p)
	require.NoError(t, err)
	_ = p.Play(m)
	p.SideToMove = board.Black
	assert.Equal(t, board.StartFEN, v.Position().ToFEN())
}

func TestReportJSON(t *testing.T) {
	r := Validate(game("e4", "e5?!", "Nf3"), DefaultOptions())
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"state":"in-progress"`)
	assert.Contains(t, string(b), `"verdict":"legal"`)

	var back Report
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, r.State, back.State)
	assert.Equal(t, r.Records, back.Records)
}

func TestVerdictText(t *testing.T) {
	for v := Legal; v <= Skipped; v++ {
		b, err := v.MarshalText()
		require.NoError(t, err)
		var got Verdict
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, v, got)
	}
	var s State
	assert.Error(t, s.UnmarshalText([]byte("won")))
	assert.Equal(t, "state(9)", fmt.Sprint(State(9)))
}
