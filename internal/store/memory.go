package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/marcogenualdo/cas-switch/internal/auth"
)

// MemoryStore keeps sessions in process memory. Sessions are stored as
// their JSON encoding so Load always hands back a private copy, the same
// isolation the Redis store gives.
type MemoryStore struct {
	sessions map[string]*memoryEntry
	mu       sync.RWMutex
	stopCh   chan struct{}
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		stopCh:   make(chan struct{}),
	}

	go ms.cleanupExpired()

	return ms
}

func (ms *MemoryStore) Load(ctx context.Context, id string) (*auth.Session, error) {
	ms.mu.RLock()
	entry, exists := ms.sessions[id]
	ms.mu.RUnlock()

	if !exists || time.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}

	var session auth.Session
	if err := json.Unmarshal(entry.data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (ms *MemoryStore) Save(ctx context.Context, session *auth.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.sessions[session.ID] = &memoryEntry{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (ms *MemoryStore) Delete(ctx context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.sessions, id)
	return nil
}

func (ms *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (ms *MemoryStore) Close() error {
	close(ms.stopCh)
	return nil
}

func (ms *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.cleanup()
		case <-ms.stopCh:
			return
		}
	}
}

func (ms *MemoryStore) cleanup() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for id, entry := range ms.sessions {
		if now.After(entry.expiresAt) {
			delete(ms.sessions, id)
		}
	}
}
