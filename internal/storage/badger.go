package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v4"
)

// Storage keys
const (
	keyReportPrefix = "report:"
	keyPlayerPrefix = "player:"
)

// BadgerStore keeps reports and per-player standings in a BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a store in dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return openBadger(opts)
}

// OpenBadgerInMemory opens a store that lives only in memory.
func OpenBadgerInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts)
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

// Close closes the database
func (s *BadgerStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put saves e and folds its result into both players' standings.
func (s *BadgerStore) Put(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyReportPrefix+e.ID), data); err != nil {
			return err
		}
		for player := 1; player <= 2; player++ {
			name := e.Summary.Players[player-1].Name
			rec := &PlayerRecord{Name: name}
			if err := loadJSON(txn, keyPlayerPrefix+name, rec); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			rec.Apply(player, e.Summary)
			raw, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(keyPlayerPrefix+name), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get loads the entry with the given id.
func (s *BadgerStore) Get(ctx context.Context, id string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var e Entry
	err := s.db.View(func(txn *badger.Txn) error {
		return loadJSON(txn, keyReportPrefix+id, &e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns up to limit entries, newest first.
func (s *BadgerStore) List(ctx context.Context, limit int) ([]*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*Entry
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, keyReportPrefix, func(val []byte) error {
			var e Entry
			if err := json.Unmarshal(val, &e); err != nil {
				return err
			}
			out = append(out, &e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Standings returns every player's record, most games first.
func (s *BadgerStore) Standings(ctx context.Context) ([]*PlayerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*PlayerRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, keyPlayerPrefix, func(val []byte) error {
			var rec PlayerRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			out = append(out, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	SortStandings(out)
	return out, nil
}

func loadJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func scanPrefix(txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}
