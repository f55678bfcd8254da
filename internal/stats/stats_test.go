package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chessaudit/internal/replay"
	"github.com/hailam/chessaudit/internal/transcript"
)

func validate(t *testing.T, log string, opts replay.Options) *replay.Report {
	t.Helper()
	tr, err := transcript.Parse(log)
	require.NoError(t, err)
	return replay.Validate(tr, opts)
}

func TestSummarizeCheckmate(t *testing.T) {
	r := validate(t, `Player 1 (alpha): white
Player 2 (beta): black
Round 1 - Player 1 (alpha) move: f3
Round 1 - Player 2 (beta) move: e5
Round 2 - Player 1 (alpha) move: g4#
Round 2 - Player 2 (beta) move: Qh4#
Round 3 - Player 1 (alpha) move: resign
`, replay.DefaultOptions())

	s := Summarize(r)
	assert.Equal(t, "Checkmate - beta wins", s.Verdict)
	assert.Equal(t, 2, s.Winner)

	p1 := s.Players[0]
	assert.Equal(t, "alpha", p1.Name)
	assert.Equal(t, 3, p1.Moves)
	assert.Equal(t, 2, p1.Legal)
	assert.Equal(t, 1, p1.Skipped)
	assert.Equal(t, 1, p1.MateClaims)
	assert.Equal(t, 1, p1.FalseMateClaims)
	assert.InDelta(t, 66.666, p1.Accuracy, 0.01)

	p2 := s.Players[1]
	assert.Equal(t, 1, p2.MateClaims)
	assert.Equal(t, 0, p2.FalseMateClaims)
	assert.InDelta(t, 100.0, p2.Accuracy, 0.001)

	assert.Equal(t, 5, s.Total.Moves)
	assert.Equal(t, 4, s.Total.Legal)
	assert.InDelta(t, 80.0, s.Total.Accuracy, 0.001)
}

func TestSummarizeVerdicts(t *testing.T) {
	abort := replay.DefaultOptions()
	abort.AbortOnIllegal = true

	tests := []struct {
		name string
		log  string
		opts replay.Options
		want string
	}{
		{
			name: "in progress",
			log:  "Round 1 - Player 1 move: e4\n",
			opts: replay.DefaultOptions(),
			want: "Game did not end with a clear result",
		},
		{
			name: "aborted",
			log:  "Player 2 (beta): black\nRound 1 - Player 1 move: e4\nRound 1 - Player 2 move: Ke7x\n",
			opts: abort,
			want: "Aborted on illegal move by beta",
		},
		{
			name: "round limit",
			log:  "Round 3 - Player 1 move: e4\n",
			opts: replay.Options{RoundLimit: 2, MaxMoveLength: 5},
			want: "Draw by round limit (2 rounds)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Summarize(validate(t, tc.log, tc.opts))
			assert.Equal(t, tc.want, s.Verdict)
			assert.Equal(t, 0, s.Winner)
		})
	}
}

func TestSummarizeNoMoves(t *testing.T) {
	r := &replay.Report{Players: [2]replay.PlayerTally{{Name: "a"}, {Name: "b"}}}
	s := Summarize(r)
	assert.Zero(t, s.Total.Accuracy)
	assert.Zero(t, s.Players[0].Accuracy)
	assert.Zero(t, s.Players[1].Accuracy)
	assert.Equal(t, "Game did not end with a clear result", s.Verdict)
}

func TestSummarizeIsIdempotent(t *testing.T) {
	r := validate(t, "Round 1 - Player 1 move: e4\nRound 1 - Player 2 move: e4\n", replay.DefaultOptions())
	assert.Equal(t, Summarize(r), Summarize(r))
	assert.Equal(t, 1, Summarize(r).Total.Illegal)
}
