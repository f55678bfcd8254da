package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hailam/chessaudit/internal/board"
	"github.com/hailam/chessaudit/internal/config"
	"github.com/hailam/chessaudit/internal/export"
	"github.com/hailam/chessaudit/internal/feed"
	"github.com/hailam/chessaudit/internal/render"
	"github.com/hailam/chessaudit/internal/replay"
	"github.com/hailam/chessaudit/internal/server"
	"github.com/hailam/chessaudit/internal/storage"
	"github.com/hailam/chessaudit/internal/transcript"
)

// shutdownGrace bounds how long serve waits when no period is configured.
const shutdownGrace = 5 * time.Second

func (a *app) flags(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "usage: chessaudit %s [flags] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// replayFlags registers the per-run overrides of the replay section.
func (a *app) replayFlags(fs *flag.FlagSet) *config.ReplayConfig {
	rc := a.cfg.Replay
	fs.IntVar(&rc.RoundLimit, "round-limit", rc.RoundLimit, "rounds before the game is drawn (0 disables)")
	fs.BoolVar(&rc.AbortOnIllegal, "abort", rc.AbortOnIllegal, "stop at the first illegal move")
	return &rc
}

// openStore opens the configured store. It fails when storage is disabled.
func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	s, err := storage.Open(ctx, a.cfg.Storage, a.log)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("storage is disabled (storage.backend is none)")
	}
	return s, nil
}

func readTranscript(path string, stdin io.Reader) (*transcript.Transcript, error) {
	if path == "-" {
		return transcript.Read(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := transcript.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func writePNG(path string, r *replay.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.ReportPNG(f, r, render.Options{Coordinates: true}); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

func runValidate(ctx context.Context, a *app, args []string) error {
	fs := a.flags("validate", "<file|->")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	store := fs.Bool("store", false, "save the report to the configured store")
	pngPath := fs.String("png", "", "write the final board to this PNG file")
	rc := a.replayFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("%w: validate takes one file", errUsage)
	}

	t, err := readTranscript(fs.Arg(0), a.stdin)
	if err != nil {
		return err
	}
	opts := rc.Options()
	opts.Logger = a.log
	entry := storage.NewEntry(fs.Arg(0), replay.Validate(t, opts))

	if *store {
		s, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Put(ctx, entry); err != nil {
			return fmt.Errorf("store report: %w", err)
		}
		a.log.Info("report stored", zap.String("id", entry.ID))
	}
	if *pngPath != "" {
		if err := writePNG(*pngPath, entry.Report); err != nil {
			return err
		}
	}

	if *asJSON {
		return writeJSON(a.stdout, entry)
	}
	printEntry(a.stdout, entry, *store)
	return nil
}

func runServe(ctx context.Context, a *app, args []string) error {
	fs := a.flags("serve", "")
	addr := fs.String("addr", a.cfg.Server.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg := a.cfg.Server
	cfg.Addr = *addr

	store, err := storage.Open(ctx, a.cfg.Storage, a.log)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	} else {
		a.log.Warn("report storage disabled; report routes reply 503")
	}

	srv := server.New(cfg, a.cfg.Replay.Options(), store, a.log)
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	grace := cfg.ShutdownPeriod
	if grace <= 0 {
		grace = shutdownGrace
	}
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := a.flags("watch", "")
	url := fs.String("url", a.cfg.Feed.URL, "websocket URL of the game feed")
	store := fs.Bool("store", false, "save the report to the configured store")
	rc := a.replayFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *url == "" {
		fs.Usage()
		return fmt.Errorf("%w: watch needs -url or feed.url", errUsage)
	}

	w := feed.New(*url, rc.Options(), a.log)
	w.OnRecord = func(rec replay.MoveRecord) { printRecord(a.stdout, rec) }
	report, runErr := w.Run(ctx)
	if report == nil {
		return runErr
	}
	entry := storage.NewEntry(*url, report)
	if *store && len(report.Records) > 0 {
		s, err := a.openStore(context.WithoutCancel(ctx))
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Put(context.WithoutCancel(ctx), entry); err != nil {
			return fmt.Errorf("store report: %w", err)
		}
	}
	fmt.Fprintln(a.stdout)
	printSummary(a.stdout, entry)
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := a.flags("export", "<files...>")
	out := fs.String("out", "", "Parquet file to write")
	parallel := fs.Int64("parallel", 4, "parquet writer goroutines")
	rc := a.replayFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" || fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("%w: export needs -out and at least one file", errUsage)
	}

	opts := rc.Options()
	opts.Logger = a.log
	var all []export.MoveRow
	for _, path := range fs.Args() {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := readTranscript(path, a.stdin)
		if err != nil {
			return err
		}
		entry := storage.NewEntry(filepath.Base(path), replay.Validate(t, opts))
		all = append(all, export.Rows(entry.ID, entry.Source, entry.Report)...)
	}

	rows := make(chan export.MoveRow, 256)
	go func() {
		defer close(rows)
		for _, r := range all {
			rows <- r
		}
	}()
	if err := export.WriteParquet(*out, rows, *parallel); err != nil {
		for range rows {
		}
		return fmt.Errorf("write %s: %w", *out, err)
	}
	a.log.Info("export written", zap.String("path", *out), zap.Int("rows", len(all)), zap.Int("games", fs.NArg()))
	fmt.Fprintf(a.stdout, "wrote %d rows from %d games to %s\n", len(all), fs.NArg(), *out)
	return nil
}

func runShow(ctx context.Context, a *app, args []string) error {
	fs := a.flags("show", "<id>")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	pngPath := fs.String("png", "", "write the final board to this PNG file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("%w: show takes one id", errUsage)
	}

	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	entry, err := s.Get(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if *pngPath != "" {
		if err := writePNG(*pngPath, entry.Report); err != nil {
			return err
		}
	}
	if *asJSON {
		return writeJSON(a.stdout, entry)
	}
	printEntry(a.stdout, entry, true)
	return nil
}

func runStandings(ctx context.Context, a *app, args []string) error {
	fs := a.flags("standings", "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ss, ok := s.(server.StandingsStore)
	if !ok {
		return fmt.Errorf("the %s store does not keep standings", a.cfg.Storage.Backend)
	}
	recs, err := ss.Standings(ctx)
	if err != nil {
		return err
	}
	printStandings(a.stdout, recs)
	return nil
}

func runMoves(_ context.Context, a *app, args []string) error {
	fs := a.flags("moves", "")
	fen := fs.String("fen", board.StartFEN, "position to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos, err := board.ParseFEN(*fen)
	if err != nil {
		return err
	}
	printMoves(a.stdout, pos, server.LegalMoves(pos))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
