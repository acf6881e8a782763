package mongo

import (
	"context"
	"errors"

	"teamvault/internal/domain"
	"teamvault/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const folderCollection = "vault_folders"

// FolderStore is the MongoDB implementation of the store.FolderStore interface.
type FolderStore struct {
	db *mongo.Database
}

// NewFolderStore creates a new FolderStore.
func NewFolderStore(db *mongo.Database) *FolderStore {
	return &FolderStore{db: db}
}

// Create inserts a new folder document into the folders collection.
func (s *FolderStore) Create(ctx context.Context, folder *domain.Folder) error {
	res, err := s.db.Collection(folderCollection).InsertOne(ctx, folder)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrConflict
		}
		return err
	}
	folder.ID = res.InsertedID.(bson.ObjectID)
	return nil
}

// GetByID finds a folder by its ID, ensuring it belongs to the specified organization.
func (s *FolderStore) GetByID(ctx context.Context, orgID, folderID bson.ObjectID) (*domain.Folder, error) {
	var folder domain.Folder
	filter := bson.M{
		"_id":          folderID,
		"organization": orgID,
	}

	err := s.db.Collection(folderCollection).FindOne(ctx, filter).Decode(&folder)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &folder, nil
}

// List retrieves the direct children of the given parent within an organization.
func (s *FolderStore) List(ctx context.Context, orgID bson.ObjectID, parentID string, opts store.ListOptions) ([]*domain.Folder, error) {
	filter := bson.M{
		"organization": orgID,
		"parent":       parentID,
	}

	findOptions := options.Find()
	if opts.SortBy != "" {
		findOptions.SetSort(bson.D{{Key: opts.SortBy, Value: opts.SortOrder}})
	}
	if opts.SortBy == "name" {
		findOptions.SetCollation(&options.Collation{Locale: "en", Strength: 2})
	}
	if opts.Limit > 0 {
		findOptions.SetLimit(opts.Limit)
	}

	cursor, err := s.db.Collection(folderCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var folders []*domain.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// CountChildren reports how many folders have the given folder as direct parent.
func (s *FolderStore) CountChildren(ctx context.Context, orgID bson.ObjectID, parentID string) (int64, error) {
	filter := bson.M{
		"organization": orgID,
		"parent":       parentID,
	}
	return s.db.Collection(folderCollection).CountDocuments(ctx, filter)
}

// Delete removes a folder document. The service layer decides beforehand
// whether deletion is allowed for non-empty folders.
func (s *FolderStore) Delete(ctx context.Context, orgID, folderID bson.ObjectID) error {
	filter := bson.M{
		"_id":          folderID,
		"organization": orgID,
	}
	res, err := s.db.Collection(folderCollection).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
