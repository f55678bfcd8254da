package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "chessaudit:report:"
	redisIndexKey  = "chessaudit:reports"
)

// RedisStore keeps entries as JSON strings with a TTL and indexes them in a
// sorted set scored by creation time.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore wraps an existing client. A zero ttl keeps entries forever.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// OpenRedis connects to url (redis://host:port/db) and pings it.
func OpenRedis(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(rdb, ttl), nil
}

func (s *RedisStore) keyReport(id string) string { return redisKeyPrefix + strings.TrimSpace(id) }

func (s *RedisStore) Put(ctx context.Context, e *Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.keyReport(e.ID), raw, s.ttl)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(e.CreatedAt.UnixNano()), Member: e.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store report %s: %w", e.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Entry, error) {
	raw, err := s.rdb.Get(ctx, s.keyReport(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// List walks the index newest first, paging until limit live entries are
// found or the index runs out. Ids whose entry has expired are dropped
// from the index as they are found.
func (s *RedisStore) List(ctx context.Context, limit int) ([]*Entry, error) {
	limit = clampLimit(limit)
	out := make([]*Entry, 0, limit)
	var start int64
	for len(out) < limit {
		stop := start + int64(limit-len(out)) - 1
		ids, err := s.rdb.ZRevRange(ctx, redisIndexKey, start, stop).Result()
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			break
		}
		var removed int64
		for _, id := range ids {
			e, err := s.Get(ctx, id)
			if err == ErrNotFound {
				n, _ := s.rdb.ZRem(ctx, redisIndexKey, id).Result()
				removed += n
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		start += int64(len(ids)) - removed
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
