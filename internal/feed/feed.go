// Package feed follows a live game over a websocket and validates each move
// as it arrives.
package feed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/hailam/chessaudit/internal/replay"
	"github.com/hailam/chessaudit/internal/transcript"
)

const defaultReadLimit = 1 << 20

// Watcher validates the transcript lines sent by a websocket peer.
type Watcher struct {
	URL     string
	Options replay.Options

	// OnRecord, if set, is called for every record in arrival order.
	OnRecord func(replay.MoveRecord)

	// ReadLimit caps a single message. Zero means 1 MiB.
	ReadLimit int64

	Logger *zap.Logger
}

// New returns a Watcher for url.
func New(url string, opts replay.Options, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{URL: url, Options: opts, Logger: log}
}

// Run dials the peer and validates until the game ends, the peer closes the
// connection or ctx is done. The report covers every record seen so far and
// is returned even when err is non-nil.
func (w *Watcher) Run(ctx context.Context) (*replay.Report, error) {
	log := w.Logger
	if log == nil {
		log = zap.NewNop()
	}

	opts := w.Options
	opts.Logger = log
	v := replay.New(opts)
	parser := transcript.NewParser()

	conn, _, err := websocket.Dial(ctx, w.URL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		return v.Finish(), fmt.Errorf("dial %s: %w", w.URL, err)
	}
	defer conn.CloseNow()

	limit := w.ReadLimit
	if limit <= 0 {
		limit = defaultReadLimit
	}
	conn.SetReadLimit(limit)
	log.Info("feed connected", zap.String("url", w.URL))

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			v.SetNames(parser.Names())
			report := v.Finish()
			if isPeerClose(err) {
				log.Info("feed closed by peer", zap.Int("records", len(report.Records)))
				return report, nil
			}
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			return report, fmt.Errorf("read feed: %w", err)
		}
		if typ != websocket.MessageText {
			log.Debug("ignoring binary message", zap.Int("bytes", len(data)))
			continue
		}

		// Lines after the game ends are still stepped and come back skipped.
		for _, line := range strings.Split(string(data), "\n") {
			entry, ok := parser.Feed(line)
			if !ok {
				continue
			}
			v.SetNames(parser.Names())
			rec := v.Step(entry)
			if w.OnRecord != nil {
				w.OnRecord(rec)
			}
		}
		if v.State().Terminal() {
			log.Info("feed game finished", zap.Stringer("state", v.State()))
			_ = conn.Close(websocket.StatusNormalClosure, "game over")
			return v.Finish(), nil
		}
	}
}

func isPeerClose(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
