// Package bbolt provides the embedded BoltDB-backed voucher store. It is the
// default backend for single-node deployments.
package bbolt

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/voucherbox/internal/storage"
	"github.com/louisbranch/voucherbox/internal/voucher"
	"go.etcd.io/bbolt"
)

const voucherBucket = "voucher"

// Store provides a BoltDB-backed voucher store.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put persists a voucher record keyed by its id.
func (s *Store) Put(ctx context.Context, v voucher.Voucher) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("voucher id is required")
	}

	payload, err := voucher.Encode(v)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(voucherBucket))
		if bucket == nil {
			return fmt.Errorf("voucher bucket is missing")
		}
		return bucket.Put([]byte(v.ID), payload)
	})
}

// Get fetches a voucher record by id.
func (s *Store) Get(ctx context.Context, id string) (voucher.Voucher, error) {
	if err := ctx.Err(); err != nil {
		return voucher.Voucher{}, err
	}
	if s == nil || s.db == nil {
		return voucher.Voucher{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return voucher.Voucher{}, fmt.Errorf("voucher id is required")
	}

	var v voucher.Voucher
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(voucherBucket))
		if bucket == nil {
			return fmt.Errorf("voucher bucket is missing")
		}
		payload := bucket.Get([]byte(id))
		if payload == nil {
			return storage.ErrNotFound
		}
		decoded, err := voucher.Decode(payload)
		if err != nil {
			return err
		}
		v = decoded
		return nil
	})
	if err != nil {
		return voucher.Voucher{}, err
	}

	return v, nil
}

// List returns every stored voucher record. Records that no longer decode
// are logged and skipped so one bad payload cannot hide the rest.
func (s *Store) List(ctx context.Context) ([]voucher.Voucher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var vouchers []voucher.Voucher
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(voucherBucket))
		if bucket == nil {
			return fmt.Errorf("voucher bucket is missing")
		}
		return bucket.ForEach(func(key, payload []byte) error {
			decoded, err := voucher.Decode(payload)
			if err != nil {
				log.Printf("skip undecodable voucher record %q: %v", key, err)
				return nil
			}
			vouchers = append(vouchers, decoded)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return vouchers, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(voucherBucket))
		if err != nil {
			return fmt.Errorf("create voucher bucket: %w", err)
		}
		return nil
	})
}
