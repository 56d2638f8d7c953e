package cache

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var cacheBuckets = []string{
	NamespaceScheduleEntries,
	NamespaceTeamAggregates,
	NamespaceSummary,
	NamespaceSprintDerived,
	NamespaceCalculations,
}

// BoltCache implements Cache using BoltDB
type BoltCache struct {
	db *bolt.DB
}

// NewBoltCache creates a new BoltDB-backed cache store
func NewBoltCache(dataDir string) (*BoltCache, error) {
	dbPath := filepath.Join(dataDir, "crewsync-cache.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range cacheBuckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltCache{db: db}, nil
}

// Close closes the database
func (c *BoltCache) Close() error {
	return c.db.Close()
}

// Put stores a value under namespace/key
func (c *BoltCache) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(namespace))
		if err != nil {
			return fmt.Errorf("failed to create namespace %s: %w", namespace, err)
		}
		return b.Put([]byte(key), value)
	})
}

// Get returns the value under namespace/key
func (c *BoltCache) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var value []byte
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
			found = true
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// InvalidateEntry removes one cached entry. Absent keys and namespaces
// are a no-op.
func (c *BoltCache) InvalidateEntry(ctx context.Context, namespace, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// ClearByPattern drops every namespace matching the glob pattern
func (c *BoltCache) ClearByPattern(ctx context.Context, pattern string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		var matched [][]byte
		err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			ok, err := path.Match(pattern, string(name))
			if err != nil {
				return fmt.Errorf("bad cache pattern %q: %w", pattern, err)
			}
			if ok {
				matched = append(matched, append([]byte(nil), name...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, name := range matched {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("failed to clear namespace %s: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("failed to recreate namespace %s: %w", name, err)
			}
		}
		return nil
	})
}

// ClearAll drops every cached entry in every namespace
func (c *BoltCache) ClearAll(ctx context.Context) error {
	return c.ClearByPattern(ctx, "*")
}
