package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chessaudit/internal/config"
	"github.com/hailam/chessaudit/internal/replay"
	"github.com/hailam/chessaudit/internal/transcript"
)

func foolsMate(t *testing.T) *replay.Report {
	t.Helper()
	tr, err := transcript.Parse(`Player 1 (alpha): white
Player 2 (beta): black
Round 1 - Player 1 move: f3
Round 1 - Player 2 move: e5
Round 2 - Player 1 move: g4
Round 2 - Player 2 move: Qh4#
`)
	require.NoError(t, err)
	return replay.Validate(tr, replay.DefaultOptions())
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	older := NewEntry("first.log", foolsMate(t))
	older.CreatedAt = time.Now().Add(-time.Minute).UTC()
	newer := NewEntry("second.log", foolsMate(t))
	require.NoError(t, s.Put(ctx, older))
	require.NoError(t, s.Put(ctx, newer))

	got, err := s.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)
	assert.Equal(t, "first.log", got.Source)
	assert.Equal(t, replay.Checkmate, got.Report.State)
	assert.Equal(t, "Checkmate - beta wins", got.Summary.Verdict)
	assert.Equal(t, older.Report.Records, got.Report.Records)

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	list, err = s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBadgerStore(t *testing.T) {
	s, err := OpenBadgerInMemory()
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)

	standings, err := s.Standings(context.Background())
	require.NoError(t, err)
	require.Len(t, standings, 2)

	beta := standings[1]
	assert.Equal(t, "beta", beta.Name)
	assert.Equal(t, 2, beta.GamesPlayed)
	assert.Equal(t, 2, beta.Wins)
	assert.Equal(t, 2, beta.LongestWinStrk)
	assert.InDelta(t, 100.0, beta.WinRate(), 0.001)

	alpha := standings[0]
	assert.Equal(t, "alpha", alpha.Name)
	assert.Equal(t, 2, alpha.Losses)
	assert.InDelta(t, 100.0, alpha.Accuracy(), 0.001)
}

func TestBadgerStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadger(dir)
	require.NoError(t, err)
	e := NewEntry("", foolsMate(t))
	require.NoError(t, s.Put(context.Background(), e))
	require.NoError(t, s.Close())

	s, err = OpenBadger(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(rdb, time.Hour)
	defer s.Close()

	exerciseStore(t, s)

	e := NewEntry("ttl.log", foolsMate(t))
	require.NoError(t, s.Put(context.Background(), e))
	assert.Equal(t, time.Hour, mr.TTL(redisKeyPrefix+e.ID))

	// Expired entries drop out of the index.
	mr.FastForward(2 * time.Hour)
	list, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedisListSkipsExpiredAndFillsLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(rdb, 0)
	defer s.Close()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).UTC()
	var ids []string
	for i := 0; i < 5; i++ {
		e := NewEntry("game.log", foolsMate(t))
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Put(ctx, e))
		ids = append(ids, e.ID)
	}
	// The two newest entries vanish while their ids stay indexed.
	mr.Del(redisKeyPrefix + ids[4])
	mr.Del(redisKeyPrefix + ids[3])

	list, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)

	n, err := rdb.ZCard(ctx, redisIndexKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	list, err = s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestOpenRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := config.StorageConfig{Backend: config.BackendRedis, RedisURL: "redis://" + mr.Addr() + "/0"}
	s, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NoError(t, s.Close())

	_, err = OpenRedis(context.Background(), "", 0)
	assert.Error(t, err)
}

func TestOpenNone(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{Backend: config.BackendNone}, nil)
	assert.NoError(t, err)
	assert.Nil(t, s)

	_, err = Open(context.Background(), config.StorageConfig{Backend: "tape"}, nil)
	assert.Error(t, err)
}

func TestOpenBadgerDir(t *testing.T) {
	cfg := config.StorageConfig{Backend: config.BackendBadger, BadgerDir: t.TempDir()}
	s, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("CHESSAUDIT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CHESSAUDIT_TEST_DATABASE_URL not set")
	}
	s, err := OpenPostgres(context.Background(), url)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.db.Exec(`TRUNCATE audit_reports`)
	require.NoError(t, err)

	exerciseStore(t, s)
}

func TestPlayerRecordApply(t *testing.T) {
	r := foolsMate(t)
	e := NewEntry("", r)

	var rec PlayerRecord
	rec.Apply(1, e.Summary)
	assert.Equal(t, 1, rec.GamesPlayed)
	assert.Equal(t, 1, rec.Losses)
	assert.Zero(t, rec.WinRate())

	var empty PlayerRecord
	assert.Zero(t, empty.WinRate())
	assert.Zero(t, empty.Accuracy())
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir failed: %v", err)
	}
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		t.Errorf("Database directory was not created: %s", dbDir)
	}
}
