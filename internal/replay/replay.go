// Package replay validates a transcript move by move against the rules in
// package board and records a verdict for every record.
package replay

import (
	"errors"

	"go.uber.org/zap"

	"github.com/hailam/chessaudit/internal/board"
	"github.com/hailam/chessaudit/internal/transcript"
)

// Reason texts attached to records.
const (
	ReasonLegal          = "Legal move"
	ReasonCheckmate      = "Legal move - Checkmate"
	ReasonStalemate      = "Legal move - Stalemate"
	ReasonIllegal        = "Illegal move"
	ReasonInvalidPrefix  = "Invalid notation: "
	ReasonNotAMove       = "Not a valid chess move notation"
	ReasonGameEnded      = "Game already ended"
	ReasonRoundLimit     = "Round limit reached"
	DefaultRoundLimit    = 40
	DefaultMaxMoveLength = 5
)

// Options control a validation run.
type Options struct {
	// RoundLimit ends the game as a draw once a record exceeds it.
	// Zero disables the ceiling.
	RoundLimit int
	// MaxMoveLength rejects longer tokens as prose. Zero disables the check.
	MaxMoveLength int
	// AbortOnIllegal ends the game at the first illegal move.
	AbortOnIllegal bool
	// FoldWidth maps full-width and compatibility characters to ASCII
	// before parsing.
	FoldWidth bool

	Logger *zap.Logger
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		RoundLimit:    DefaultRoundLimit,
		MaxMoveLength: DefaultMaxMoveLength,
		FoldWidth:     true,
	}
}

// MoveRecord is the outcome of one transcript record.
type MoveRecord struct {
	Round        int     `json:"round"`
	Player       int     `json:"player"`
	Raw          string  `json:"raw"`
	Move         string  `json:"move,omitempty"`
	SAN          string  `json:"san,omitempty"`
	UCI          string  `json:"uci,omitempty"`
	FEN          string  `json:"fen,omitempty"`
	Verdict      Verdict `json:"verdict"`
	Reason       string  `json:"reason"`
	State        State   `json:"state"`
	ClaimedCheck bool    `json:"claimed_check,omitempty"`
	ClaimedMate  bool    `json:"claimed_mate,omitempty"`
}

// PlayerTally counts one player's records.
type PlayerTally struct {
	Name  string `json:"name"`
	Moves int    `json:"moves"`
	Legal int    `json:"legal"`
}

// Report is the finished result of a validation run.
type Report struct {
	Players    [2]PlayerTally `json:"players"`
	Records    []MoveRecord   `json:"records"`
	State      State          `json:"state"`
	DecidedBy  int            `json:"decided_by,omitempty"`
	FinalFEN   string         `json:"final_fen"`
	RoundLimit int            `json:"round_limit"`
	LastRound  int            `json:"last_round"`
}

// Name returns the display name of player 1 or 2.
func (r *Report) Name(player int) string {
	if player < 1 || player > 2 {
		return ""
	}
	return r.Players[player-1].Name
}

// Validator replays records one at a time. It owns its Position and is not
// safe for concurrent use.
type Validator struct {
	opts    Options
	log     *zap.Logger
	pos     *board.Position
	state   State
	decided int
	names   [2]string
	records []MoveRecord

	lastRound int
	movedMask uint8 // players seen in lastRound
}

// New returns a Validator at the standard starting position.
func New(opts Options) *Validator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{
		opts:  opts,
		log:   log,
		pos:   board.NewPosition(),
		names: [2]string{transcript.DefaultName(1), transcript.DefaultName(2)},
	}
}

// SetNames sets the player display names used in the report.
func (v *Validator) SetNames(p1, p2 string) {
	v.names = [2]string{p1, p2}
}

// State returns the current game state.
func (v *Validator) State() State {
	return v.state
}

// Position returns a copy of the current position.
func (v *Validator) Position() *board.Position {
	return v.pos.Copy()
}

// Records returns the records produced so far.
func (v *Validator) Records() []MoveRecord {
	out := make([]MoveRecord, len(v.records))
	copy(out, v.records)
	return out
}

// Step validates one record and applies it when legal.
func (v *Validator) Step(e transcript.Entry) MoveRecord {
	rec := MoveRecord{Round: e.Round, Player: e.Player, Raw: e.Raw}

	switch {
	case v.state.Terminal():
		rec.Verdict, rec.Reason = Skipped, ReasonGameEnded
	case v.opts.RoundLimit > 0 && e.Round > v.opts.RoundLimit:
		v.state = RoundLimitDraw
		rec.Verdict, rec.Reason = Skipped, ReasonRoundLimit
	default:
		v.track(e)
		v.play(&rec)
	}

	rec.State = v.state
	v.records = append(v.records, rec)

	v.log.Debug("record",
		zap.Int("round", rec.Round),
		zap.Int("player", rec.Player),
		zap.String("raw", rec.Raw),
		zap.Stringer("verdict", rec.Verdict),
		zap.String("reason", rec.Reason),
	)
	return rec
}

func (v *Validator) track(e transcript.Entry) {
	if e.Round != v.lastRound {
		v.lastRound = e.Round
		v.movedMask = 0
	}
	if e.Player == 1 || e.Player == 2 {
		v.movedMask |= 1 << (e.Player - 1)
	}
}

func (v *Validator) play(rec *MoveRecord) {
	n, err := Normalize(rec.Raw, v.opts)
	rec.Move = n.Text
	rec.ClaimedCheck = n.ClaimedCheck
	rec.ClaimedMate = n.ClaimedMate
	if err != nil {
		rec.Verdict, rec.Reason = NotAMove, ReasonNotAMove
		return
	}

	m, err := board.DecodeSAN(n.Text, v.pos)
	if err != nil {
		rec.Verdict = Illegal
		if errors.Is(err, board.ErrNoSuchMove) {
			rec.Reason = ReasonIllegal
		} else {
			rec.Reason = ReasonInvalidPrefix + err.Error()
		}
		if v.opts.AbortOnIllegal {
			v.state = Aborted
			v.decided = rec.Player
		}
		return
	}

	rec.SAN = m.SAN(v.pos)
	rec.UCI = m.String()
	v.pos = v.pos.Play(m)
	rec.FEN = v.pos.ToFEN()
	rec.Verdict = Legal

	switch {
	case v.pos.IsCheckmate():
		rec.Reason = ReasonCheckmate
		v.state = Checkmate
		v.decided = rec.Player
	case v.pos.IsStalemate():
		rec.Reason = ReasonStalemate
		v.state = Stalemate
	default:
		rec.Reason = ReasonLegal
	}
}

// Finish closes the run and returns its report. A game still in progress
// whose last round reached the limit with both players moving is scored as
// a round-limit draw.
func (v *Validator) Finish() *Report {
	if v.state == InProgress && v.opts.RoundLimit > 0 &&
		v.lastRound == v.opts.RoundLimit && v.movedMask == 3 {
		v.state = RoundLimitDraw
	}

	r := &Report{
		Records:    v.Records(),
		State:      v.state,
		DecidedBy:  v.decided,
		FinalFEN:   v.pos.ToFEN(),
		RoundLimit: v.opts.RoundLimit,
		LastRound:  v.lastRound,
	}
	for i := range r.Players {
		r.Players[i].Name = v.names[i]
	}
	for _, rec := range r.Records {
		if rec.Player < 1 || rec.Player > 2 {
			continue
		}
		t := &r.Players[rec.Player-1]
		t.Moves++
		if rec.Verdict == Legal {
			t.Legal++
		}
	}
	return r
}

// Validate replays a whole transcript from the starting position.
func Validate(t *transcript.Transcript, opts Options) *Report {
	v := New(opts)
	v.SetNames(t.Player1, t.Player2)
	for _, e := range t.Entries {
		v.Step(e)
	}
	return v.Finish()
}
