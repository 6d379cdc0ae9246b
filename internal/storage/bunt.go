package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/buntdb"
)

// BuntStore keeps entries in an append-only buntdb file. Path ":memory:"
// keeps everything in memory.
type BuntStore struct {
	db *buntdb.DB
}

// OpenBunt opens (creating if needed) the buntdb file at path.
func OpenBunt(path string) (*BuntStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open buntdb: %w", err)
	}
	return &BuntStore{db: db}, nil
}

// Get implements KV.
func (s *BuntStore) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		value, found = v, true
		return nil
	})
	if err != nil {
		return "", false, wrapBunt("get", key, err)
	}
	return value, found, nil
}

// Set implements KV.
func (s *BuntStore) Set(_ context.Context, key, value string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, value, nil)
		return err
	})
	return wrapBunt("set", key, err)
}

// Delete implements KV.
func (s *BuntStore) Delete(_ context.Context, keys ...string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		for _, key := range keys {
			if _, err := tx.Delete(key); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	return wrapBunt("delete", "", err)
}

// Close flushes and closes the file.
func (s *BuntStore) Close() error {
	err := s.db.Close()
	if errors.Is(err, buntdb.ErrDatabaseClosed) {
		return nil
	}
	return err
}

func wrapBunt(op, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, buntdb.ErrDatabaseClosed):
		return ErrClosed
	case key != "":
		return fmt.Errorf("%s %q: %w", op, key, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
