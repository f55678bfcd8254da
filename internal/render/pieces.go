package render

import (
	"fmt"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/hailam/chessaudit/internal/board"
)

// Piece glyphs are drawn in a 45x45 box and scaled to the square size.
const glyphSize = 45.0

type shape struct {
	kind   string    // polygon, circle or rect
	points []float64 // polygon: x,y pairs; circle: cx,cy,r; rect: x,y,w,h
}

var glyphs = map[board.PieceType][]shape{
	board.Pawn: {
		{"polygon", []float64{14, 38, 31, 38, 27, 24, 18, 24}},
		{"circle", []float64{22.5, 17, 6.5}},
		{"rect", []float64{12, 36, 21, 4}},
	},
	board.Knight: {
		{"polygon", []float64{12, 38, 34, 38, 32, 28, 31, 16, 26, 9, 22, 10, 20, 7, 18, 11, 10, 20, 12, 25, 17, 23, 21, 21, 15, 30}},
	},
	board.Bishop: {
		{"polygon", []float64{15, 38, 30, 38, 28, 33, 17, 33}},
		{"polygon", []float64{22.5, 9, 28, 15, 29, 24, 27, 31, 18, 31, 16, 24, 17, 15}},
		{"circle", []float64{22.5, 7, 2.5}},
	},
	board.Rook: {
		{"polygon", []float64{11, 38, 34, 38, 34, 34, 31, 34, 30, 18, 33, 18, 33, 10, 29, 10, 29, 13, 25, 13, 25, 10, 20, 10, 20, 13, 16, 13, 16, 10, 12, 10, 12, 18, 15, 18, 14, 34, 11, 34}},
	},
	board.Queen: {
		{"polygon", []float64{11, 38, 34, 38, 32, 31, 37, 14, 29, 25, 27, 10, 22.5, 24, 18, 10, 16, 25, 8, 14, 13, 31}},
		{"circle", []float64{8, 12, 2.5}},
		{"circle", []float64{18, 8.5, 2.5}},
		{"circle", []float64{27, 8.5, 2.5}},
		{"circle", []float64{37, 12, 2.5}},
	},
	board.King: {
		{"polygon", []float64{12, 38, 33, 38, 31, 30, 36, 21, 32, 16, 26, 17, 22.5, 22, 19, 17, 13, 16, 9, 21, 14, 30}},
		{"rect", []float64{21, 5, 3, 13}},
		{"rect", []float64{17.5, 8, 10, 3}},
	},
}

// drawPiece emits the glyph for p with its top-left corner at (x, y).
func drawPiece(canvas *svg.SVG, p board.Piece, x, y, size float64) {
	fillColour, stroke := "#ffffff", "#000000"
	if p.Color() == board.Black {
		fillColour, stroke = "#222222", "#dddddd"
	}
	scale := size / glyphSize
	style := fmt.Sprintf(`fill="%s" stroke="%s" stroke-width="%.2f"`, fillColour, stroke, 1.5*scale)
	at := func(origin, v float64) int {
		return int(math.Round(origin + v*scale))
	}

	for _, s := range glyphs[p.Type()] {
		switch s.kind {
		case "polygon":
			xs := make([]int, 0, len(s.points)/2)
			ys := make([]int, 0, len(s.points)/2)
			for i := 0; i+1 < len(s.points); i += 2 {
				xs = append(xs, at(x, s.points[i]))
				ys = append(ys, at(y, s.points[i+1]))
			}
			canvas.Polygon(xs, ys, style)
		case "circle":
			r := max(1, int(math.Round(s.points[2]*scale)))
			canvas.Circle(at(x, s.points[0]), at(y, s.points[1]), r, style)
		case "rect":
			w := max(1, int(math.Round(s.points[2]*scale)))
			h := max(1, int(math.Round(s.points[3]*scale)))
			canvas.Rect(at(x, s.points[0]), at(y, s.points[1]), w, h, style)
		}
	}
}
