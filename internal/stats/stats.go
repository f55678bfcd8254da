// Package stats derives per-player accuracy figures and a result line from
// a replay report.
package stats

import (
	"fmt"

	"github.com/hailam/chessaudit/internal/replay"
)

// PlayerStats counts one player's records, or every record for the total.
type PlayerStats struct {
	Player          int     `json:"player,omitempty"`
	Name            string  `json:"name,omitempty"`
	Moves           int     `json:"moves"`
	Legal           int     `json:"legal"`
	Illegal         int     `json:"illegal"`
	NotAMove        int     `json:"not_a_move"`
	Skipped         int     `json:"skipped"`
	Accuracy        float64 `json:"accuracy"`
	MateClaims      int     `json:"mate_claims"`
	FalseMateClaims int     `json:"false_mate_claims"`
}

func (ps *PlayerStats) add(rec replay.MoveRecord) {
	ps.Moves++
	switch rec.Verdict {
	case replay.Legal:
		ps.Legal++
	case replay.Illegal:
		ps.Illegal++
	case replay.NotAMove:
		ps.NotAMove++
	case replay.Skipped:
		ps.Skipped++
	}
	if rec.ClaimedMate {
		ps.MateClaims++
		if rec.Reason != replay.ReasonCheckmate {
			ps.FalseMateClaims++
		}
	}
}

func (ps *PlayerStats) finish() {
	if ps.Moves > 0 {
		ps.Accuracy = float64(ps.Legal) / float64(ps.Moves) * 100
	}
}

// Summary is the statistical view of a report.
type Summary struct {
	Players [2]PlayerStats `json:"players"`
	Total   PlayerStats    `json:"total"`
	State   replay.State   `json:"state"`
	Winner  int            `json:"winner"`
	Verdict string         `json:"verdict"`
}

// Summarize computes the summary of r. It does not modify r.
func Summarize(r *replay.Report) Summary {
	var s Summary
	for i := range s.Players {
		s.Players[i].Player = i + 1
		s.Players[i].Name = r.Name(i + 1)
	}
	for _, rec := range r.Records {
		s.Total.add(rec)
		if rec.Player == 1 || rec.Player == 2 {
			s.Players[rec.Player-1].add(rec)
		}
	}
	for i := range s.Players {
		s.Players[i].finish()
	}
	s.Total.finish()

	s.State = r.State
	switch r.State {
	case replay.Checkmate:
		s.Winner = r.DecidedBy
		s.Verdict = fmt.Sprintf("Checkmate - %s wins", r.Name(r.DecidedBy))
	case replay.Stalemate:
		s.Verdict = "Stalemate"
	case replay.RoundLimitDraw:
		s.Verdict = fmt.Sprintf("Draw by round limit (%d rounds)", r.RoundLimit)
	case replay.Aborted:
		s.Verdict = fmt.Sprintf("Aborted on illegal move by %s", r.Name(r.DecidedBy))
	default:
		s.Verdict = "Game did not end with a clear result"
	}
	return s
}
