// Package storage persists validation reports. BadgerDB is the default
// backend; Redis and PostgreSQL are available for shared deployments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hailam/chessaudit/internal/config"
	"github.com/hailam/chessaudit/internal/replay"
	"github.com/hailam/chessaudit/internal/stats"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("report not found")

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 20

// Entry is one stored validation run.
type Entry struct {
	ID        string         `json:"id"`
	Source    string         `json:"source,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Report    *replay.Report `json:"report"`
	Summary   stats.Summary  `json:"summary"`
}

// NewEntry wraps a report with a fresh id and its summary.
func NewEntry(source string, r *replay.Report) *Entry {
	return &Entry{
		ID:        uuid.NewString(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Report:    r,
		Summary:   stats.Summarize(r),
	}
}

// Store saves and loads entries.
type Store interface {
	Put(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	// List returns the newest entries first.
	List(ctx context.Context, limit int) ([]*Entry, error)
	Close() error
}

// Open builds the store selected by cfg. It returns a nil Store for the
// "none" backend.
func Open(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendBadger:
		dir := cfg.BadgerDir
		if dir == "" {
			d, err := GetDatabaseDir()
			if err != nil {
				return nil, fmt.Errorf("database dir: %w", err)
			}
			dir = d
		}
		log.Info("opening report store", zap.String("backend", cfg.Backend), zap.String("dir", dir))
		s, err := OpenBadger(dir)
		if err != nil {
			return nil, fmt.Errorf("open badger: %w", err)
		}
		return s, nil
	case config.BackendRedis:
		log.Info("opening report store", zap.String("backend", cfg.Backend))
		s, err := OpenRedis(ctx, cfg.RedisURL, cfg.RedisTTL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		log.Info("opening report store", zap.String("backend", cfg.Backend))
		s, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
