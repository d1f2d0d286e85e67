package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketPreferences = []byte("preferences")
	keyPreferences    = []byte("client")
)

// BoltStore keeps preferences in a local bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open preferences file %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPreferences)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create preferences bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Load(ctx context.Context) (Preferences, error) {
	p := Defaults()
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketPreferences).Get(keyPreferences)
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return Defaults(), err
	}
	return p, nil
}

func (s *BoltStore) Save(ctx context.Context, p Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPreferences).Put(keyPreferences, data)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
