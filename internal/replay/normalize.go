package replay

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// ErrNotAMove is returned by Normalize for text that is not move notation.
var ErrNotAMove = errors.New("not a valid chess move notation")

// Normalized is the cleaned form of a record's raw text.
type Normalized struct {
	Text         string
	ClaimedCheck bool
	ClaimedMate  bool
}

var nonMoves = map[string]bool{
	"checkmate": true,
	"stalemate": true,
	"draw":      true,
}

// Normalize trims the raw text to its first token and removes one trailing
// mate marker. It fails with ErrNotAMove when the token is too long or is
// a game-result word.
func Normalize(raw string, opts Options) (Normalized, error) {
	s := strings.TrimSpace(raw)
	if opts.FoldWidth {
		s = norm.NFKC.String(width.Fold.String(s))
	}

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Normalized{}, ErrNotAMove
	}
	s = fields[0]

	var n Normalized
	if strings.HasSuffix(s, "#") {
		n.ClaimedMate = true
		s = strings.TrimSuffix(s, "#")
	}
	n.ClaimedCheck = strings.HasSuffix(s, "+")
	n.Text = s

	if s == "" {
		return n, ErrNotAMove
	}
	if opts.MaxMoveLength > 0 && utf8.RuneCountInString(s) > opts.MaxMoveLength {
		return n, ErrNotAMove
	}
	if nonMoves[strings.ToLower(s)] {
		return n, ErrNotAMove
	}
	return n, nil
}
