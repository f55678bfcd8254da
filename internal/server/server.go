// Package server exposes validation over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/hailam/chessaudit/internal/board"
	"github.com/hailam/chessaudit/internal/config"
	"github.com/hailam/chessaudit/internal/render"
	"github.com/hailam/chessaudit/internal/replay"
	"github.com/hailam/chessaudit/internal/stats"
	"github.com/hailam/chessaudit/internal/storage"
	"github.com/hailam/chessaudit/internal/transcript"
)

const reportsPrefix = "/v1/reports/"

// StandingsStore is implemented by stores that keep per-player totals.
type StandingsStore interface {
	Standings(ctx context.Context) ([]*storage.PlayerRecord, error)
}

// Server routes requests to the validation core and the report store.
// The store may be nil, in which case report routes reply 503.
type Server struct {
	cfg   config.ServerConfig
	opts  replay.Options
	store storage.Store
	log   *zap.Logger
	srv   *fasthttp.Server
}

// New builds a Server. opts are the defaults for /v1/validate.
func New(cfg config.ServerConfig, opts replay.Options, store storage.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{cfg: cfg, opts: opts, store: store, log: log}
	s.srv = &fasthttp.Server{
		Handler:            s.Handler,
		Name:               "chessaudit",
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		MaxRequestBodySize: cfg.MaxBodyBytes,
	}
	return s
}

// ListenAndServe serves on the configured address until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", zap.String("addr", s.cfg.Addr))
	return s.srv.ListenAndServe(s.cfg.Addr)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

// Shutdown stops accepting connections and waits for open requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handler is the fasthttp entry point.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := string(ctx.Path())

	switch {
	case path == "/healthz":
		s.handleHealth(ctx)
	case path == "/v1/validate":
		s.handleValidate(ctx)
	case path == "/v1/legal-moves":
		s.handleLegalMoves(ctx)
	case path == "/v1/reports":
		s.handleListReports(ctx)
	case path == "/v1/standings":
		s.handleStandings(ctx)
	case strings.HasPrefix(path, reportsPrefix):
		rest := strings.TrimPrefix(path, reportsPrefix)
		if id, ok := strings.CutSuffix(rest, "/board.png"); ok {
			s.handleBoardPNG(ctx, id)
		} else {
			s.handleGetReport(ctx, rest)
		}
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
	}

	s.log.Debug("http request",
		zap.ByteString("method", ctx.Method()),
		zap.String("path", path),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Server) storeContext() (context.Context, context.CancelFunc) {
	timeout := s.cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	if !allow(ctx, fasthttp.MethodGet) {
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

type validateResponse struct {
	ID      string         `json:"id"`
	Report  *replay.Report `json:"report"`
	Summary stats.Summary  `json:"summary"`
}

func (s *Server) handleValidate(ctx *fasthttp.RequestCtx) {
	if !allow(ctx, fasthttp.MethodPost) {
		return
	}

	opts := s.opts
	opts.Logger = s.log
	args := ctx.QueryArgs()
	if v := args.Peek("round_limit"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil || n < 0 {
			writeError(ctx, fasthttp.StatusBadRequest, "round_limit must be a non-negative integer")
			return
		}
		opts.RoundLimit = n
	}
	if args.Has("abort_on_illegal") {
		opts.AbortOnIllegal = args.GetBool("abort_on_illegal")
	}

	t, err := transcript.Read(bytes.NewReader(ctx.PostBody()))
	if errors.Is(err, transcript.ErrEmptyTranscript) {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "read transcript: "+err.Error())
		return
	}

	entry := storage.NewEntry(string(ctx.QueryArgs().Peek("source")), replay.Validate(t, opts))
	if s.store != nil {
		sctx, cancel := s.storeContext()
		defer cancel()
		if err := s.store.Put(sctx, entry); err != nil {
			s.log.Error("store report", zap.String("id", entry.ID), zap.Error(err))
			writeError(ctx, fasthttp.StatusInternalServerError, "store report")
			return
		}
	}

	s.log.Info("validated transcript",
		zap.String("id", entry.ID),
		zap.Int("records", len(entry.Report.Records)),
		zap.Stringer("state", entry.Report.State),
	)
	writeJSON(ctx, fasthttp.StatusOK, validateResponse{ID: entry.ID, Report: entry.Report, Summary: entry.Summary})
}

// LegalMovesResponse is the body of /v1/legal-moves.
type LegalMovesResponse struct {
	FEN        string   `json:"fen"`
	SideToMove string   `json:"side_to_move"`
	Moves      []string `json:"moves"`
	InCheck    bool     `json:"in_check"`
	Checkmate  bool     `json:"checkmate"`
	Stalemate  bool     `json:"stalemate"`
}

func (s *Server) handleLegalMoves(ctx *fasthttp.RequestCtx) {
	if !allow(ctx, fasthttp.MethodPost) {
		return
	}
	fen := strings.TrimSpace(string(ctx.PostBody()))
	if fen == "" {
		fen = board.StartFEN
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	resp := LegalMoves(pos)
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

// LegalMoves describes pos and lists its legal moves in SAN.
func LegalMoves(pos *board.Position) LegalMovesResponse {
	moves := pos.LegalMoves()
	resp := LegalMovesResponse{
		FEN:        pos.ToFEN(),
		SideToMove: strings.ToLower(pos.SideToMove.String()),
		Moves:      make([]string, 0, len(moves)),
		InCheck:    pos.InCheck(),
	}
	for _, m := range moves {
		resp.Moves = append(resp.Moves, m.SAN(pos))
	}
	resp.Checkmate = resp.InCheck && len(moves) == 0
	resp.Stalemate = !resp.InCheck && len(moves) == 0
	return resp
}

func (s *Server) handleListReports(ctx *fasthttp.RequestCtx) {
	if !allow(ctx, fasthttp.MethodGet) || !s.requireStore(ctx) {
		return
	}
	limit := ctx.QueryArgs().GetUintOrZero("limit")

	sctx, cancel := s.storeContext()
	defer cancel()
	entries, err := s.store.List(sctx, limit)
	if err != nil {
		s.log.Error("list reports", zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "list reports")
		return
	}
	if entries == nil {
		entries = []*storage.Entry{}
	}
	writeJSON(ctx, fasthttp.StatusOK, entries)
}

func (s *Server) handleGetReport(ctx *fasthttp.RequestCtx, id string) {
	if !allow(ctx, fasthttp.MethodGet) || !s.requireStore(ctx) {
		return
	}
	entry, ok := s.loadEntry(ctx, id)
	if !ok {
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, entry)
}

func (s *Server) handleBoardPNG(ctx *fasthttp.RequestCtx, id string) {
	if !allow(ctx, fasthttp.MethodGet) || !s.requireStore(ctx) {
		return
	}
	entry, ok := s.loadEntry(ctx, id)
	if !ok {
		return
	}

	args := ctx.QueryArgs()
	opts := render.Options{
		SquareSize:  args.GetUintOrZero("size"),
		Flip:        args.GetBool("flip"),
		Coordinates: !args.Has("coordinates") || args.GetBool("coordinates"),
	}
	if opts.SquareSize > 128 {
		opts.SquareSize = 128
	}

	var buf bytes.Buffer
	if err := render.ReportPNG(&buf, entry.Report, opts); err != nil {
		s.log.Error("render board", zap.String("id", id), zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "render board")
		return
	}
	ctx.SetContentType("image/png")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(buf.Bytes())
}

func (s *Server) handleStandings(ctx *fasthttp.RequestCtx) {
	if !allow(ctx, fasthttp.MethodGet) || !s.requireStore(ctx) {
		return
	}
	ss, ok := s.store.(StandingsStore)
	if !ok {
		writeError(ctx, fasthttp.StatusNotImplemented, "store does not keep standings")
		return
	}
	sctx, cancel := s.storeContext()
	defer cancel()
	recs, err := ss.Standings(sctx)
	if err != nil {
		s.log.Error("load standings", zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "load standings")
		return
	}
	if recs == nil {
		recs = []*storage.PlayerRecord{}
	}
	writeJSON(ctx, fasthttp.StatusOK, recs)
}

func (s *Server) loadEntry(ctx *fasthttp.RequestCtx, id string) (*storage.Entry, bool) {
	if id == "" || strings.Contains(id, "/") {
		writeError(ctx, fasthttp.StatusNotFound, "not found")
		return nil, false
	}
	sctx, cancel := s.storeContext()
	defer cancel()
	entry, err := s.store.Get(sctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(ctx, fasthttp.StatusNotFound, err.Error())
		return nil, false
	}
	if err != nil {
		s.log.Error("load report", zap.String("id", id), zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "load report")
		return nil, false
	}
	return entry, true
}

func (s *Server) requireStore(ctx *fasthttp.RequestCtx) bool {
	if s.store == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, "report storage is disabled")
		return false
	}
	return true
}

func allow(ctx *fasthttp.RequestCtx, method string) bool {
	if string(ctx.Method()) == method {
		return true
	}
	ctx.Response.Header.Set("Allow", method)
	writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
	return false
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	}
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}
