package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"teamvault/internal/domain"
	"teamvault/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ItemStore is an in-memory implementation of store.ItemStore. It preserves
// the same semantics as the MongoDB implementation: items are never removed,
// the access log is append-only, and share upserts keep at most one grant
// per user.
type ItemStore struct {
	mu    sync.RWMutex
	items map[bson.ObjectID]*domain.VaultItem
}

// NewItemStore creates an empty in-memory ItemStore.
func NewItemStore() *ItemStore {
	return &ItemStore{items: make(map[bson.ObjectID]*domain.VaultItem)}
}

func (s *ItemStore) Create(ctx context.Context, item *domain.VaultItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID.IsZero() {
		item.ID = bson.NewObjectID()
	}
	cp := cloneItem(item)
	s.items[item.ID] = cp
	return nil
}

func (s *ItemStore) GetByID(ctx context.Context, orgID, itemID bson.ObjectID) (*domain.VaultItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[itemID]
	if !ok || it.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	return cloneItem(it), nil
}

func (s *ItemStore) List(ctx context.Context, orgID, ownerID bson.ObjectID, folderID string, opts store.ListOptions) ([]*domain.VaultItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.VaultItem
	for _, it := range s.items {
		if it.OrganizationID == orgID && it.OwnerID == ownerID && it.FolderID == folderID && !it.IsDeleted {
			out = append(out, cloneItem(it))
		}
	}
	sortItems(out, opts)
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *ItemStore) CountInFolder(ctx context.Context, orgID bson.ObjectID, folderID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, it := range s.items {
		if it.OrganizationID == orgID && it.FolderID == folderID && !it.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (s *ItemStore) UpsertShare(ctx context.Context, itemID bson.ObjectID, entry domain.SharedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return store.ErrNotFound
	}
	for i, g := range it.SharedWith {
		if g.User == entry.User {
			it.SharedWith[i] = entry
			it.UpdatedAt = entry.SharedAt
			return nil
		}
	}
	it.SharedWith = append(it.SharedWith, entry)
	it.UpdatedAt = entry.SharedAt
	return nil
}

func (s *ItemStore) AppendAccess(ctx context.Context, itemID bson.ObjectID, entry domain.AccessEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return store.ErrNotFound
	}
	it.AccessLog = append(it.AccessLog, entry)
	return nil
}

func (s *ItemStore) SoftDelete(ctx context.Context, itemID bson.ObjectID, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return store.ErrNotFound
	}
	it.IsDeleted = true
	it.UpdatedAt = when
	return nil
}

func cloneItem(it *domain.VaultItem) *domain.VaultItem {
	cp := *it
	cp.SharedWith = append([]domain.SharedEntry(nil), it.SharedWith...)
	cp.AccessLog = append([]domain.AccessEntry(nil), it.AccessLog...)
	cp.Metadata.Tags = append([]string(nil), it.Metadata.Tags...)
	return &cp
}

func sortItems(items []*domain.VaultItem, opts store.ListOptions) {
	desc := opts.SortOrder < 0
	sort.SliceStable(items, func(i, j int) bool {
		var less bool
		switch opts.SortBy {
		case "fileName":
			less = items[i].FileName < items[j].FileName
		default:
			less = items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
}
