package cart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var sessionsBucket = []byte("sessions")

// BoltSlot stores values in a local bbolt file. It suits single-instance
// deployments without Redis.
type BoltSlot struct {
	db *bolt.DB
}

func OpenBoltSlot(path string) (*BoltSlot, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("bolt slot: failed to create dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt slot: failed to open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt slot: failed to create bucket: %w", err)
	}

	return &BoltSlot{db: db}, nil
}

func (s *BoltSlot) Load(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(sessionsBucket).Get([]byte(key))
		if v == nil {
			return ErrSlotEmpty
		}
		// v is only valid inside the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltSlot) Save(_ context.Context, key string, data []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("bolt slot: failed to save %s: %w", key, err)
	}
	return nil
}

func (s *BoltSlot) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bolt slot: failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *BoltSlot) Close() error {
	return s.db.Close()
}
