package store

import (
	"context"
	"errors"
	"time"

	"teamvault/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Standard errors returned by the store layer. This allows the service layer
// to handle specific database errors without being coupled to the database
// implementation.
var (
	ErrNotFound = errors.New("requested item not found")
	ErrConflict = errors.New("item already exists")
)

// ListOptions contains options for listing items, such as sorting and pagination.
type ListOptions struct {
	SortBy    string
	SortOrder int // 1 for ascending, -1 for descending
	Limit     int64
}

// FolderStore defines the interface for folder data operations. Folders form
// a parent-pointer tree per organization; all lookups are organization-scoped.
type FolderStore interface {
	Create(ctx context.Context, folder *domain.Folder) error

	// GetByID retrieves a folder by ID within the given organization. It
	// returns store.ErrNotFound if no such folder exists.
	GetByID(ctx context.Context, orgID, folderID bson.ObjectID) (*domain.Folder, error)

	// List retrieves the direct children of parentID ("" for the root level),
	// never deeper descendants.
	List(ctx context.Context, orgID bson.ObjectID, parentID string, opts ListOptions) ([]*domain.Folder, error)

	// CountChildren reports how many folders have parentID as their direct parent.
	CountChildren(ctx context.Context, orgID bson.ObjectID, parentID string) (int64, error)

	Delete(ctx context.Context, orgID, folderID bson.ObjectID) error
}

// ItemStore defines the interface for vault item records. Items are created
// fully formed by the upload pipeline and afterwards mutated only by share
// upserts, soft deletes and access-log appends.
type ItemStore interface {
	Create(ctx context.Context, item *domain.VaultItem) error

	// GetByID retrieves an item, deleted or not, within the given organization.
	GetByID(ctx context.Context, orgID, itemID bson.ObjectID) (*domain.VaultItem, error)

	// List retrieves the caller's non-deleted items directly inside folderID
	// ("" for the root level).
	List(ctx context.Context, orgID, ownerID bson.ObjectID, folderID string, opts ListOptions) ([]*domain.VaultItem, error)

	// CountInFolder reports how many non-deleted items any owner has placed
	// directly inside folderID.
	CountInFolder(ctx context.Context, orgID bson.ObjectID, folderID string) (int64, error)

	// UpsertShare records a sharing grant, overwriting any existing grant for
	// the same user. Concurrent upserts race with last-write-wins semantics.
	UpsertShare(ctx context.Context, itemID bson.ObjectID, entry domain.SharedEntry) error

	// AppendAccess appends one entry to the item's access log. The log is
	// append-only: no store operation ever edits or removes entries.
	AppendAccess(ctx context.Context, itemID bson.ObjectID, entry domain.AccessEntry) error

	// SoftDelete marks the item deleted. The record and its access log are retained.
	SoftDelete(ctx context.Context, itemID bson.ObjectID, when time.Time) error
}

// PinStore persists the bcrypt hash of each user's vault PIN. The plaintext
// PIN is never stored.
type PinStore interface {
	// GetHash returns the stored PIN hash for the user, or store.ErrNotFound
	// if the user has not set a PIN.
	GetHash(ctx context.Context, userID bson.ObjectID) (string, error)

	// SetHash stores or replaces the user's PIN hash.
	SetHash(ctx context.Context, userID bson.ObjectID, hash string) error
}
