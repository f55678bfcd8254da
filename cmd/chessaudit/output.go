package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hailam/chessaudit/internal/board"
	"github.com/hailam/chessaudit/internal/replay"
	"github.com/hailam/chessaudit/internal/server"
	"github.com/hailam/chessaudit/internal/storage"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printEntry(w io.Writer, e *storage.Entry, withID bool) {
	if withID {
		fmt.Fprintf(w, "report %s (%s)\n\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	r := e.Report
	tw := newTable(w)
	fmt.Fprintln(tw, "ROUND\tPLAYER\tRAW\tSAN\tVERDICT\tREASON")
	for _, rec := range r.Records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			rec.Round, r.Name(rec.Player), rec.Raw, dash(rec.SAN), rec.Verdict, rec.Reason)
	}
	tw.Flush()
	fmt.Fprintln(w)
	printSummary(w, e)
}

func printRecord(w io.Writer, rec replay.MoveRecord) {
	fmt.Fprintf(w, "%3d  P%d  %-8s %-8s %-10s %s\n",
		rec.Round, rec.Player, rec.Raw, dash(rec.SAN), rec.Verdict, rec.Reason)
}

func printSummary(w io.Writer, e *storage.Entry) {
	s := e.Summary
	tw := newTable(w)
	fmt.Fprintln(tw, "PLAYER\tMOVES\tLEGAL\tILLEGAL\tNOT-A-MOVE\tSKIPPED\tACCURACY")
	for _, ps := range s.Players {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.1f%%\n",
			ps.Name, ps.Moves, ps.Legal, ps.Illegal, ps.NotAMove, ps.Skipped, ps.Accuracy)
	}
	t := s.Total
	fmt.Fprintf(tw, "total\t%d\t%d\t%d\t%d\t%d\t%.1f%%\n",
		t.Moves, t.Legal, t.Illegal, t.NotAMove, t.Skipped, t.Accuracy)
	tw.Flush()
	fmt.Fprintf(w, "\nresult: %s\nfinal position: %s\n", s.Verdict, e.Report.FinalFEN)
}

func printStandings(w io.Writer, recs []*storage.PlayerRecord) {
	tw := newTable(w)
	fmt.Fprintln(tw, "PLAYER\tGAMES\tW\tL\tD\tWIN%\tACCURACY\tBEST STREAK")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.1f\t%.1f\t%d\n",
			r.Name, r.GamesPlayed, r.Wins, r.Losses, r.Draws, r.WinRate(), r.Accuracy(), r.LongestWinStrk)
	}
	tw.Flush()
}

func printMoves(w io.Writer, pos *board.Position, lm server.LegalMovesResponse) {
	fmt.Fprint(w, pos)
	status := "in play"
	switch {
	case lm.Checkmate:
		status = "checkmate"
	case lm.Stalemate:
		status = "stalemate"
	case lm.InCheck:
		status = "check"
	}
	fmt.Fprintf(w, "%s to move, %s, %d legal moves\n", lm.SideToMove, status, len(lm.Moves))
	if len(lm.Moves) > 0 {
		fmt.Fprintln(w, strings.Join(lm.Moves, " "))
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
