package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCache keeps entries in an embedded Badger database. Expiry uses
// Badger's native entry TTL.
type BadgerCache struct {
	db *badger.DB
}

// NewBadgerCache opens a Badger database in dir. An empty dir opens an
// in-memory database.
func NewBadgerCache(dir string) (*BadgerCache, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return &BadgerCache{db: db}, nil
}

func (c *BadgerCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.db.IsClosed() {
		return nil, false, ErrClosed
	}
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *BadgerCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if c.db.IsClosed() {
		return ErrClosed
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (c *BadgerCache) Delete(ctx context.Context, key string) error {
	if c.db.IsClosed() {
		return ErrClosed
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (c *BadgerCache) Clear(ctx context.Context) error {
	if c.db.IsClosed() {
		return ErrClosed
	}
	return c.db.DropAll()
}

func (c *BadgerCache) Close() error {
	if c.db.IsClosed() {
		return nil
	}
	return c.db.Close()
}

var _ Cache = (*BadgerCache)(nil)
