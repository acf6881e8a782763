package mongo

import (
	"context"
	"errors"
	"time"

	"teamvault/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const pinCollection = "vault_pins"

// pinDocument is the stored form of a user's vault PIN: only the bcrypt hash,
// never the PIN itself.
type pinDocument struct {
	UserID    bson.ObjectID `bson:"_id"`
	Hash      string        `bson:"hash"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

// PinStore is the MongoDB implementation of the store.PinStore interface.
type PinStore struct {
	db *mongo.Database
}

// NewPinStore creates a new PinStore.
func NewPinStore(db *mongo.Database) *PinStore {
	return &PinStore{db: db}
}

// GetHash returns the stored PIN hash for the user.
func (s *PinStore) GetHash(ctx context.Context, userID bson.ObjectID) (string, error) {
	var doc pinDocument
	err := s.db.Collection(pinCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", store.ErrNotFound
		}
		return "", err
	}
	return doc.Hash, nil
}

// SetHash stores or replaces the user's PIN hash.
func (s *PinStore) SetHash(ctx context.Context, userID bson.ObjectID, hash string) error {
	doc := pinDocument{UserID: userID, Hash: hash, UpdatedAt: time.Now()}
	opts := options.Replace().SetUpsert(true)
	_, err := s.db.Collection(pinCollection).ReplaceOne(ctx, bson.M{"_id": userID}, doc, opts)
	return err
}
