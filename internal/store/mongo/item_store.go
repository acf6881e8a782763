package mongo

import (
	"context"
	"errors"
	"time"

	"teamvault/internal/domain"
	"teamvault/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const itemCollection = "vault_items"

// ItemStore is the MongoDB implementation of the store.ItemStore interface.
// Vault items are single documents carrying ciphertext reference, IV, sharing
// grants and the embedded access log.
type ItemStore struct {
	db *mongo.Database
}

// NewItemStore creates a new ItemStore.
func NewItemStore(db *mongo.Database) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) collection() *mongo.Collection {
	return s.db.Collection(itemCollection)
}

// Create inserts a fully formed vault item document. The upload pipeline is
// the only caller; it always supplies ciphertext and IV together.
func (s *ItemStore) Create(ctx context.Context, item *domain.VaultItem) error {
	res, err := s.collection().InsertOne(ctx, item)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrConflict
		}
		return err
	}
	item.ID = res.InsertedID.(bson.ObjectID)
	return nil
}

// GetByID finds an item by its ID within an organization. Soft-deleted items
// are returned too; visibility is a service-layer concern so that the access
// log of a deleted item stays reachable.
func (s *ItemStore) GetByID(ctx context.Context, orgID, itemID bson.ObjectID) (*domain.VaultItem, error) {
	var item domain.VaultItem
	filter := bson.M{
		"_id":          itemID,
		"organization": orgID,
	}

	err := s.collection().FindOne(ctx, filter).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// List retrieves the owner's non-deleted items directly inside the given folder.
func (s *ItemStore) List(ctx context.Context, orgID, ownerID bson.ObjectID, folderID string, opts store.ListOptions) ([]*domain.VaultItem, error) {
	filter := bson.M{
		"organization": orgID,
		"owner":        ownerID,
		"folder":       folderID,
		"isDeleted":    bson.M{"$ne": true},
	}

	findOptions := options.Find()
	if opts.SortBy != "" {
		findOptions.SetSort(bson.D{{Key: opts.SortBy, Value: opts.SortOrder}})
	}
	if opts.SortBy == "fileName" {
		findOptions.SetCollation(&options.Collation{Locale: "en", Strength: 2})
	}
	if opts.Limit > 0 {
		findOptions.SetLimit(opts.Limit)
	}

	cursor, err := s.collection().Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*domain.VaultItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CountInFolder reports how many non-deleted items sit directly inside the folder.
func (s *ItemStore) CountInFolder(ctx context.Context, orgID bson.ObjectID, folderID string) (int64, error) {
	filter := bson.M{
		"organization": orgID,
		"folder":       folderID,
		"isDeleted":    bson.M{"$ne": true},
	}
	return s.collection().CountDocuments(ctx, filter)
}

// UpsertShare overwrites the grant for entry.User if one exists, otherwise
// appends a new grant. Concurrent calls race with last-write-wins semantics.
func (s *ItemStore) UpsertShare(ctx context.Context, itemID bson.ObjectID, entry domain.SharedEntry) error {
	res, err := s.collection().UpdateOne(ctx,
		bson.M{"_id": itemID, "sharedWith.user": entry.User},
		bson.M{
			"$set": bson.M{
				"sharedWith.$.permission": entry.Permission,
				"sharedWith.$.sharedAt":   entry.SharedAt,
				"updatedAt":               entry.SharedAt,
			},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	res, err = s.collection().UpdateOne(ctx,
		bson.M{"_id": itemID},
		bson.M{
			"$push": bson.M{"sharedWith": entry},
			"$set":  bson.M{"updatedAt": entry.SharedAt},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AppendAccess pushes one entry onto the item's access log.
func (s *ItemStore) AppendAccess(ctx context.Context, itemID bson.ObjectID, entry domain.AccessEntry) error {
	res, err := s.collection().UpdateOne(ctx,
		bson.M{"_id": itemID},
		bson.M{"$push": bson.M{"accessLog": entry}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SoftDelete marks the item deleted without touching its ciphertext or access log.
func (s *ItemStore) SoftDelete(ctx context.Context, itemID bson.ObjectID, when time.Time) error {
	res, err := s.collection().UpdateOne(ctx,
		bson.M{"_id": itemID},
		bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": when}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
