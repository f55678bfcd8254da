// Package render draws positions as SVG and rasterizes them to PNG.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	svg "github.com/ajstarks/svgo"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/hailam/chessaudit/internal/board"
	"github.com/hailam/chessaudit/internal/replay"
)

// Square colours.
const (
	lightSquare     = "#f0d9b5"
	darkSquare      = "#b58863"
	lightHighlight  = "#f7ec74"
	darkHighlight   = "#dac34b"
	checkHighlight  = "#e05555"
	marginColour    = "#312e2b"
	defaultSquarePx = 48
)

var labelColour = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}

// Options control the rendered image.
type Options struct {
	SquareSize  int            // pixels per square, default 48
	Flip        bool           // black at the bottom
	Coordinates bool           // file and rank labels in a margin
	Highlight   []board.Square // squares tinted as the last move
}

func (o Options) squareSize() int {
	if o.SquareSize <= 0 {
		return defaultSquarePx
	}
	return o.SquareSize
}

func (o Options) margin() int {
	if !o.Coordinates {
		return 0
	}
	return 16
}

// Size returns the width (and height) of the image in pixels.
func (o Options) Size() int {
	return 8*o.squareSize() + 2*o.margin()
}

// squareOrigin returns the pixel position of sq's top-left corner.
func (o Options) squareOrigin(sq board.Square) (int, int) {
	file, rank := sq.File(), 7-sq.Rank()
	if o.Flip {
		file, rank = 7-file, 7-rank
	}
	s, m := o.squareSize(), o.margin()
	return m + file*s, m + rank*s
}

// BoardSVG returns the SVG document for pos. Labels are not part of the
// SVG; BoardImage draws them after rasterizing.
func BoardSVG(pos *board.Position, opts Options) []byte {
	size := opts.Size()
	s := opts.squareSize()

	highlighted := make(map[board.Square]bool, len(opts.Highlight))
	for _, sq := range opts.Highlight {
		highlighted[sq] = true
	}
	checked := board.NoSquare
	if pos.InCheck() {
		checked = pos.KingSquare[pos.SideToMove]
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(size, size)
	if opts.margin() > 0 {
		canvas.Rect(0, 0, size, size, fill(marginColour))
	}

	for sq := board.A1; sq <= board.H8; sq++ {
		x, y := opts.squareOrigin(sq)
		light := (sq.File()+sq.Rank())%2 == 1
		colour := darkSquare
		switch {
		case sq == checked:
			colour = checkHighlight
		case highlighted[sq] && light:
			colour = lightHighlight
		case highlighted[sq]:
			colour = darkHighlight
		case light:
			colour = lightSquare
		}
		canvas.Rect(x, y, s, s, fill(colour))
	}

	for sq := board.A1; sq <= board.H8; sq++ {
		p := pos.PieceAt(sq)
		if p == board.NoPiece {
			continue
		}
		x, y := opts.squareOrigin(sq)
		drawPiece(canvas, p, float64(x), float64(y), float64(s))
	}

	canvas.End()
	return buf.Bytes()
}

func fill(colour string) string {
	return `fill="` + colour + `"`
}

// BoardImage rasterizes pos.
func BoardImage(pos *board.Position, opts Options) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(BoardSVG(pos, opts)))
	if err != nil {
		return nil, fmt.Errorf("parse board svg: %w", err)
	}

	size := opts.Size()
	icon.SetTarget(0, 0, float64(size), float64(size))

	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	if opts.Coordinates {
		drawLabels(rgba, opts)
	}
	return rgba, nil
}

// BoardPNG writes pos as a PNG image.
func BoardPNG(w io.Writer, pos *board.Position, opts Options) error {
	img, err := BoardImage(pos, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func drawLabels(dst *image.RGBA, opts Options) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(labelColour), Face: face}
	s, m := opts.squareSize(), opts.margin()
	ascent := face.Metrics().Ascent.Ceil()

	for i := 0; i < 8; i++ {
		file, rank := i, 7-i
		if opts.Flip {
			file, rank = 7-i, i
		}
		fl := string(rune('a' + file))
		rl := string(rune('1' + rank))

		w := d.MeasureString(fl).Ceil()
		x := m + i*s + (s-w)/2
		d.Dot = fixed.P(x, m+8*s+(m+ascent)/2-1)
		d.DrawString(fl)

		w = d.MeasureString(rl).Ceil()
		d.Dot = fixed.P((m-w)/2, m+i*s+(s+ascent)/2)
		d.DrawString(rl)
	}
}

// LastMove returns the squares of the last legal move in r, for use as
// Options.Highlight.
func LastMove(r *replay.Report) []board.Square {
	for i := len(r.Records) - 1; i >= 0; i-- {
		rec := r.Records[i]
		if rec.Verdict != replay.Legal || len(rec.UCI) < 4 {
			continue
		}
		from, err1 := board.ParseSquare(rec.UCI[0:2])
		to, err2 := board.ParseSquare(rec.UCI[2:4])
		if err1 != nil || err2 != nil {
			return nil
		}
		return []board.Square{from, to}
	}
	return nil
}

// ReportPNG renders the final position of r with its last move highlighted.
func ReportPNG(w io.Writer, r *replay.Report, opts Options) error {
	pos, err := board.ParseFEN(r.FinalFEN)
	if err != nil {
		return fmt.Errorf("final position: %w", err)
	}
	if opts.Highlight == nil {
		opts.Highlight = LastMove(r)
	}
	return BoardPNG(w, pos, opts)
}
