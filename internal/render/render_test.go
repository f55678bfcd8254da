package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chessaudit/internal/board"
	"github.com/hailam/chessaudit/internal/replay"
	"github.com/hailam/chessaudit/internal/transcript"
)

func TestBoardSVG(t *testing.T) {
	svg := string(BoardSVG(board.NewPosition(), Options{SquareSize: 10}))

	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, `width="80"`)
	assert.Equal(t, 64, strings.Count(svg, `fill="`+lightSquare+`"`)+strings.Count(svg, `fill="`+darkSquare+`"`))
	assert.Contains(t, svg, "<polygon")
}

func TestBoardSVGHighlights(t *testing.T) {
	pos, err := board.ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	require.NoError(t, err)

	svg := string(BoardSVG(pos, Options{Highlight: []board.Square{board.D8, board.H4}}))
	assert.Equal(t, 1, strings.Count(svg, checkHighlight), "king in check is marked")
	assert.Equal(t, 2, strings.Count(svg, lightHighlight)+strings.Count(svg, darkHighlight))
}

func TestBoardPNG(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"default", Options{}, 8 * defaultSquarePx},
		{"small", Options{SquareSize: 20}, 160},
		{"coordinates", Options{SquareSize: 20, Coordinates: true, Flip: true}, 192},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, BoardPNG(&buf, board.NewPosition(), tc.opts))

			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, tc.want, img.Bounds().Dx())
			assert.Equal(t, tc.want, img.Bounds().Dy())
		})
	}
}

func TestBoardImageColours(t *testing.T) {
	img, err := BoardImage(board.NewPosition(), Options{SquareSize: 20})
	require.NoError(t, err)

	// e4 is an empty light square: file 4, rank 3 from the top-left is row 4.
	r, g, b, _ := img.At(4*20+2, 4*20+2).RGBA()
	assert.Equal(t, uint32(0xf0), r>>8)
	assert.Equal(t, uint32(0xd9), g>>8)
	assert.Equal(t, uint32(0xb5), b>>8)
}

func TestReportPNG(t *testing.T) {
	tr, err := transcript.Parse("Round 1 - Player 1 move: e4\nRound 1 - Player 2 move: e6\nRound 2 - Player 1 move: d4\n")
	require.NoError(t, err)
	r := replay.Validate(tr, replay.DefaultOptions())

	assert.Equal(t, []board.Square{board.D2, board.D4}, LastMove(r))

	// Records that were not played are passed over.
	tr, err = transcript.Parse("Round 1 - Player 1 move: e4\nRound 1 - Player 2 move: e6?\nRound 2 - Player 1 move: d4\n")
	require.NoError(t, err)
	skipped := replay.Validate(tr, replay.DefaultOptions())
	assert.Equal(t, replay.Illegal, skipped.Records[1].Verdict)
	assert.Equal(t, replay.Illegal, skipped.Records[2].Verdict)
	assert.Equal(t, []board.Square{board.E2, board.E4}, LastMove(skipped))

	var buf bytes.Buffer
	require.NoError(t, ReportPNG(&buf, r, Options{SquareSize: 12}))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 96, img.Bounds().Dx())

	assert.Nil(t, LastMove(&replay.Report{}))
}
