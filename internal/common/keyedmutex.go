package common

import "sync"

// KeyedMutex serializes work per key. The bot uses one to serialize
// read-modify-write cycles on the guild store, so that two commands for the
// same guild cannot lose each other's updates
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (km *KeyedMutex) Lock(key string) {
	km.mu.Lock()
	lock, ok := km.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		km.locks[key] = lock
	}
	km.mu.Unlock()
	lock.Lock()
}

func (km *KeyedMutex) Unlock(key string) {
	km.mu.Lock()
	lock := km.locks[key]
	km.mu.Unlock()
	lock.Unlock()
}
