package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teamvault/internal/domain"
	"teamvault/internal/store"
)

// FolderService defines the interface for folder-related business logic.
// We define an interface to allow for mock implementations in tests.
type FolderService interface {
	CreateFolder(ctx context.Context, p domain.Principal, name, parentID string) (*domain.Folder, error)
	ListFolders(ctx context.Context, p domain.Principal, parentID, sortBy string) ([]*domain.Folder, error)
	DeleteFolder(ctx context.Context, p domain.Principal, folderID string) error
}

// folderService is the concrete implementation of the FolderService interface.
type folderService struct {
	folders store.FolderStore
	items   store.ItemStore
}

// NewFolderService creates a new instance of the folder service.
func NewFolderService(folders store.FolderStore, items store.ItemStore) FolderService {
	return &folderService{
		folders: folders,
		items:   items,
	}
}

// parseFolderSort is a helper to convert an API sort string into
// database-compatible fields.
func parseFolderSort(sortBy string) (field string, order int) {
	// Default sort order
	field = "createdAt"
	order = -1 // Descending

	switch sortBy {
	case "date_asc":
		field = "createdAt"
		order = 1
	case "date_desc":
		field = "createdAt"
		order = -1
	case "alp_asc":
		field = "name"
		order = 1
	case "alp_desc":
		field = "name"
		order = -1
	}
	return field, order
}

// ListFolders retrieves the direct children of the given parent folder.
// parentID "" means the organization's root level; descendants further down
// the tree are never included.
func (s *folderService) ListFolders(ctx context.Context, p domain.Principal, parentID, sortBy string) ([]*domain.Folder, error) {
	sortField, sortOrder := parseFolderSort(sortBy)

	opts := store.ListOptions{
		SortBy:    sortField,
		SortOrder: sortOrder,
	}

	folders, err := s.folders.List(ctx, p.OrganizationID, parentID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders from store: %w", err)
	}

	return folders, nil
}

// CreateFolder handles the business logic for creating a new folder. The
// parent, when given, must exist within the caller's organization. Duplicate
// names are allowed.
func (s *folderService) CreateFolder(ctx context.Context, p domain.Principal, name, parentID string) (*domain.Folder, error) {
	if name == "" {
		return nil, errors.New("folder name cannot be empty")
	}

	if parentID != "" {
		pID, err := parseObjectID(parentID)
		if err != nil {
			return nil, fmt.Errorf("could not find parent folder: %w", store.ErrNotFound)
		}
		if _, err := s.folders.GetByID(ctx, p.OrganizationID, pID); err != nil {
			return nil, fmt.Errorf("could not find parent folder: %w", err)
		}
	}

	folder := &domain.Folder{
		Name:           name,
		ParentID:       parentID,
		OwnerID:        p.UserID,
		OrganizationID: p.OrganizationID,
		CreatedAt:      time.Now(),
	}

	if err := s.folders.Create(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to create folder in store: %w", err)
	}

	return folder, nil
}

// DeleteFolder removes a folder. A folder that still contains child folders
// or non-deleted items is rejected with ErrFolderNotEmpty; callers must empty
// it first.
func (s *folderService) DeleteFolder(ctx context.Context, p domain.Principal, folderID string) error {
	fID, err := parseObjectID(folderID)
	if err != nil {
		return store.ErrNotFound
	}

	folder, err := s.folders.GetByID(ctx, p.OrganizationID, fID)
	if err != nil {
		return err
	}

	children, err := s.folders.CountChildren(ctx, p.OrganizationID, folder.ID.Hex())
	if err != nil {
		return fmt.Errorf("failed to count child folders: %w", err)
	}
	if children > 0 {
		return ErrFolderNotEmpty
	}

	items, err := s.items.CountInFolder(ctx, p.OrganizationID, folder.ID.Hex())
	if err != nil {
		return fmt.Errorf("failed to count folder items: %w", err)
	}
	if items > 0 {
		return ErrFolderNotEmpty
	}

	return s.folders.Delete(ctx, p.OrganizationID, fID)
}
