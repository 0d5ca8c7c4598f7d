package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore persists guild state in a bbolt file, one bucket per guild,
// one key per configuration entry, values encoded as JSON
type BoltStore struct {
	filename string
	db       *bolt.DB
}

func NewBoltStore(filename string) *BoltStore {
	return &BoltStore{filename: filename}
}

func (s *BoltStore) Open() error {
	opts := &bolt.Options{Timeout: time.Second}
	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return fmt.Errorf("could not open store %s: %w", s.filename, err)
	}
	s.db = db
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Get(guildid string, key string, v interface{}) error {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(guildid))
		if b == nil {
			return ErrNotFound
		}
		bs := b.Get([]byte(key))
		if bs == nil {
			return ErrNotFound
		}
		raw = append(raw, bs...)
		return nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("could not decode %s for guild %s: %w", key, guildid, err)
	}
	return nil
}

func (s *BoltStore) Put(guildid string, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("could not encode %s for guild %s: %w", key, guildid, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(guildid))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), raw)
	})
}

func (s *BoltStore) Delete(guildid string, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(guildid))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}
