package memory

import (
	"context"
	"sync"

	"teamvault/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PinStore is an in-memory implementation of store.PinStore.
type PinStore struct {
	mu     sync.RWMutex
	hashes map[bson.ObjectID]string
}

// NewPinStore creates an empty in-memory PinStore.
func NewPinStore() *PinStore {
	return &PinStore{hashes: make(map[bson.ObjectID]string)}
}

func (s *PinStore) GetHash(ctx context.Context, userID bson.ObjectID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.hashes[userID]
	if !ok {
		return "", store.ErrNotFound
	}
	return hash, nil
}

func (s *PinStore) SetHash(ctx context.Context, userID bson.ObjectID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[userID] = hash
	return nil
}
