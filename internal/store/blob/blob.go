package blob

import (
	"context"
	"encoding/base64"
)

// Store persists encrypted payloads and hands back an opaque reference that
// is recorded in the vault item's ciphertext field. Implementations only ever
// see ciphertext; encryption happens before bytes reach a Store.
type Store interface {
	// Put stores the ciphertext under the given key and returns the
	// reference to record on the item.
	Put(ctx context.Context, key string, ciphertext []byte) (ref string, err error)

	// Get resolves a reference produced by Put back into ciphertext bytes.
	Get(ctx context.Context, ref string) ([]byte, error)
}

// InlineStore is the default backend: the reference is the base64-encoded
// ciphertext itself, stored directly on the item document.
type InlineStore struct{}

// NewInlineStore creates an InlineStore.
func NewInlineStore() *InlineStore {
	return &InlineStore{}
}

func (s *InlineStore) Put(ctx context.Context, key string, ciphertext []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *InlineStore) Get(ctx context.Context, ref string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(ref)
}
