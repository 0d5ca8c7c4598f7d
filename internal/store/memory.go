package store

import (
	"encoding/json"
	"sync"
)

// MemoryStore keeps guild state in memory. It satisfies GuildStore and is
// used as a stand-in for the bolt store in tests
type MemoryStore struct {
	mu     sync.RWMutex
	guilds map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{guilds: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Get(guildid string, key string, v interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket, ok := s.guilds[guildid]
	if !ok {
		return ErrNotFound
	}
	raw, ok := bucket[key]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, v)
}

func (s *MemoryStore) Put(guildid string, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.guilds[guildid]
	if !ok {
		bucket = make(map[string][]byte)
		s.guilds[guildid] = bucket
	}
	bucket[key] = raw
	return nil
}

func (s *MemoryStore) Delete(guildid string, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bucket, ok := s.guilds[guildid]; ok {
		delete(bucket, key)
	}
	return nil
}
