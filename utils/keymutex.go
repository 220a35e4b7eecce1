package utils

import "sync"

// KeyMutex provides mutual exclusion scoped to a string key. One lock exists
// per key; locks for distinct keys never contend. Used to serialize booking
// commits per agent and conversation turns per (provider, phone) pair.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyMutex returns an empty keyed mutex.
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the lock for the given key, creating it on first use.
func (k *KeyMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the lock for the given key.
func (k *KeyMutex) Unlock(key string) {
	k.get(key).Unlock()
}
