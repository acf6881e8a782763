package memory

import (
	"context"
	"sort"
	"sync"

	"teamvault/internal/domain"
	"teamvault/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// FolderStore is an in-memory implementation of store.FolderStore, used by
// tests and by the "memory" storage mode for local development.
type FolderStore struct {
	mu      sync.RWMutex
	folders map[bson.ObjectID]*domain.Folder
}

// NewFolderStore creates an empty in-memory FolderStore.
func NewFolderStore() *FolderStore {
	return &FolderStore{folders: make(map[bson.ObjectID]*domain.Folder)}
}

func (s *FolderStore) Create(ctx context.Context, folder *domain.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if folder.ID.IsZero() {
		folder.ID = bson.NewObjectID()
	}
	cp := *folder
	s.folders[folder.ID] = &cp
	return nil
}

func (s *FolderStore) GetByID(ctx context.Context, orgID, folderID bson.ObjectID) (*domain.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.folders[folderID]
	if !ok || f.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *FolderStore) List(ctx context.Context, orgID bson.ObjectID, parentID string, opts store.ListOptions) ([]*domain.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Folder
	for _, f := range s.folders {
		if f.OrganizationID == orgID && f.ParentID == parentID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sortFolders(out, opts)
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *FolderStore) CountChildren(ctx context.Context, orgID bson.ObjectID, parentID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, f := range s.folders {
		if f.OrganizationID == orgID && f.ParentID == parentID {
			n++
		}
	}
	return n, nil
}

func (s *FolderStore) Delete(ctx context.Context, orgID, folderID bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[folderID]
	if !ok || f.OrganizationID != orgID {
		return store.ErrNotFound
	}
	delete(s.folders, folderID)
	return nil
}

func sortFolders(folders []*domain.Folder, opts store.ListOptions) {
	desc := opts.SortOrder < 0
	sort.SliceStable(folders, func(i, j int) bool {
		var less bool
		switch opts.SortBy {
		case "name":
			less = folders[i].Name < folders[j].Name
		default:
			less = folders[i].CreatedAt.Before(folders[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
}
