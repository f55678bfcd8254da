package storage

import (
	"sort"

	"github.com/hailam/chessaudit/internal/replay"
	"github.com/hailam/chessaudit/internal/stats"
)

// PlayerRecord accumulates one player's results across stored games.
type PlayerRecord struct {
	Name           string `json:"name"`
	GamesPlayed    int    `json:"games_played"`
	Wins           int    `json:"wins"`
	Losses         int    `json:"losses"`
	Draws          int    `json:"draws"`
	Moves          int    `json:"moves"`
	Legal          int    `json:"legal"`
	LongestWinStrk int    `json:"longest_win_streak"`
	CurrentStreak  int    `json:"current_streak"`
}

// Apply folds the outcome of one game, seen from player 1 or 2, into r.
func (r *PlayerRecord) Apply(player int, s stats.Summary) {
	ps := s.Players[player-1]
	r.GamesPlayed++
	r.Moves += ps.Moves
	r.Legal += ps.Legal

	switch {
	case s.State == replay.Stalemate || s.State == replay.RoundLimitDraw:
		r.Draws++
		r.CurrentStreak = 0
	case s.Winner == player:
		r.Wins++
		r.CurrentStreak++
		if r.CurrentStreak > r.LongestWinStrk {
			r.LongestWinStrk = r.CurrentStreak
		}
	case s.Winner != 0:
		r.Losses++
		r.CurrentStreak = 0
	}
}

// WinRate returns the win rate as a percentage (0-100)
func (r *PlayerRecord) WinRate() float64 {
	if r.GamesPlayed == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.GamesPlayed) * 100
}

// Accuracy returns the share of legal moves as a percentage (0-100).
func (r *PlayerRecord) Accuracy() float64 {
	if r.Moves == 0 {
		return 0
	}
	return float64(r.Legal) / float64(r.Moves) * 100
}

// SortStandings orders records by games played, then name.
func SortStandings(recs []*PlayerRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].GamesPlayed != recs[j].GamesPlayed {
			return recs[i].GamesPlayed > recs[j].GamesPlayed
		}
		return recs[i].Name < recs[j].Name
	})
}
