package archive

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"fairdraw/internal/models"

	bolt "go.etcd.io/bbolt"
)

var roundsBucket = []byte("rounds")

// BoltStore keeps one JSON encoded Record per round, keyed by the
// big-endian round id so cursor order equals round order.
type BoltStore struct {
	db *bolt.DB
}

func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(roundsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func roundKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

func (s *BoltStore) Save(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode round %d: %w", rec.Round.ID, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(roundsBucket)
		key := roundKey(rec.Round.ID)
		if b.Get(key) != nil {
			return fmt.Errorf("%w: %d", ErrDuplicate, rec.Round.ID)
		}
		return b.Put(key, buf)
	})
}

func (s *BoltStore) Load(ctx context.Context, roundID uint64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	var rec Record
	err := s.db.View(func(tx *bolt.Tx) error {
		buf := tx.Bucket(roundsBucket).Get(roundKey(roundID))
		if buf == nil {
			return fmt.Errorf("%w: %d", models.ErrRoundNotFound, roundID)
		}
		return json.Unmarshal(buf, &rec)
	})
	return rec, err
}

func (s *BoltStore) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := make([]Record, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(roundsBucket).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode round %d: %w", binary.BigEndian.Uint64(k), err)
			}
			records = append(records, rec)
			return nil
		})
	})
	return records, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
