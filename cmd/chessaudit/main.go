// Command chessaudit replays chess game logs and reports which moves were
// legal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hailam/chessaudit/internal/config"
	"github.com/hailam/chessaudit/internal/obslog"
)

// errUsage marks a command line the user has to fix.
var errUsage = errors.New("usage")

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"validate", "validate a transcript file (or - for stdin)", runValidate},
	{"serve", "serve the HTTP API", runServe},
	{"watch", "validate a live game from a websocket feed", runWatch},
	{"export", "write validated transcripts to a Parquet file", runExport},
	{"show", "print a stored report", runShow},
	{"standings", "print per-player results from the report store", runStandings},
	{"moves", "list the legal moves of a position", runMoves},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("chessaudit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", os.Getenv("CHESSAUDIT_CONFIG"), "path to a YAML config file")
	logLevel := fs.String("log-level", "", "override the configured log level")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		usage(fs)
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, "chessaudit:", err)
		return 1
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := obslog.Init(cfg.Log); err != nil {
		fmt.Fprintln(stderr, "chessaudit: init logging:", err)
		return 1
	}
	log := obslog.L()
	defer func() { _ = log.Sync() }()

	name := fs.Arg(0)
	for _, c := range commands {
		if c.name != name {
			continue
		}
		a := &app{cfg: cfg, log: log.Named(name), stdin: stdin, stdout: stdout, stderr: stderr}
		err := c.run(ctx, a, fs.Args()[1:])
		switch {
		case err == nil:
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.Is(err, errUsage):
			fmt.Fprintln(stderr, "chessaudit:", err)
			return 2
		default:
			log.Error("command failed", zap.String("command", name), zap.Error(err))
			fmt.Fprintln(stderr, "chessaudit:", err)
			return 1
		}
	}

	fmt.Fprintf(stderr, "chessaudit: unknown command %q\n", name)
	usage(fs)
	return 2
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w, "usage: chessaudit [-config file] [-log-level level] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fs.PrintDefaults()
}
