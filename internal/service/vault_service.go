package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	"teamvault/internal/cache"
	"teamvault/internal/domain"
	"teamvault/internal/platform/crypto"
	"teamvault/internal/store"
	"teamvault/internal/store/blob"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// UploadInput carries everything the upload pipeline needs for one file.
type UploadInput struct {
	FileName string
	MimeType string
	FolderID string // "" places the file at the root level
	Content  []byte
	Metadata domain.ItemMetadata
	IP       string
}

// VaultService defines the business logic of the encrypted file store: the
// upload/download pipeline, sharing, soft deletion and the audit trail.
// Every operation authorizes the principal itself; a client-side PIN unlock
// carries no weight here.
type VaultService interface {
	Upload(ctx context.Context, p domain.Principal, in UploadInput) (*domain.VaultItem, error)
	List(ctx context.Context, p domain.Principal, folderID, sortBy string, limit int64) ([]*domain.VaultItem, error)
	Download(ctx context.Context, p domain.Principal, itemID, ip string) ([]byte, *domain.VaultItem, error)
	Delete(ctx context.Context, p domain.Principal, itemID, ip string) error
	Share(ctx context.Context, p domain.Principal, itemID, targetUserID string, permission domain.Permission, ip string) error
	GetAccessLog(ctx context.Context, p domain.Principal, itemID string) ([]domain.AccessEntry, error)
}

// vaultService is the concrete implementation of the VaultService interface.
type vaultService struct {
	items     store.ItemStore
	folders   store.FolderStore
	blobs     blob.Store
	cache     *cache.ItemCache
	masterKey string
	maxUpload int64
	logger    *zap.Logger
}

// NewVaultService creates a new instance of the vault service.
func NewVaultService(
	items store.ItemStore,
	folders store.FolderStore,
	blobs blob.Store,
	itemCache *cache.ItemCache,
	masterKey string,
	maxUpload int64,
	logger *zap.Logger,
) VaultService {
	return &vaultService{
		items:     items,
		folders:   folders,
		blobs:     blobs,
		cache:     itemCache,
		masterKey: masterKey,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// fileKey derives the AES key protecting an owner's files from the vault
// master secret and the owner's ID.
func (s *vaultService) fileKey(ownerID bson.ObjectID) []byte {
	return crypto.DeriveKey(s.masterKey, ownerID.Hex())
}

// Upload runs the encrypt-before-store pipeline: the raw bytes are encrypted
// first, the ciphertext is placed in the blob store, and only then is the
// item record inserted, fully formed, with ciphertext reference, IV and the
// initial "upload" audit entry together. A crash mid-pipeline therefore never
// leaves a record holding one of ciphertext/IV without the other, and
// plaintext never reaches storage.
func (s *vaultService) Upload(ctx context.Context, p domain.Principal, in UploadInput) (*domain.VaultItem, error) {
	if in.FileName == "" {
		return nil, fmt.Errorf("filename cannot be empty")
	}
	if s.maxUpload > 0 && int64(len(in.Content)) > s.maxUpload {
		return nil, ErrTooLarge
	}

	if in.FolderID != "" {
		fID, err := parseObjectID(in.FolderID)
		if err != nil {
			return nil, fmt.Errorf("could not find folder for upload: %w", store.ErrNotFound)
		}
		if _, err := s.folders.GetByID(ctx, p.OrganizationID, fID); err != nil {
			return nil, fmt.Errorf("could not find folder for upload: %w", err)
		}
	}

	ciphertext, iv, err := crypto.Encrypt(in.Content, s.fileKey(p.UserID))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt file: %w", err)
	}

	ref, err := s.blobs.Put(ctx, uuid.NewString(), ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to store ciphertext: %w", err)
	}

	now := time.Now()
	item := &domain.VaultItem{
		OwnerID:        p.UserID,
		OrganizationID: p.OrganizationID,
		FolderID:       in.FolderID,
		FileName:       in.FileName,
		FileSize:       int64(len(in.Content)),
		MimeType:       in.MimeType,
		Ciphertext:     ref,
		EncryptionIV:   base64.StdEncoding.EncodeToString(iv),
		Metadata:       in.Metadata,
		SharedWith:     []domain.SharedEntry{},
		AccessLog: []domain.AccessEntry{
			newAccessEntry(p.UserID, domain.ActionUpload, now, in.IP),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create vault item: %w", err)
	}

	s.logger.Info("vault item uploaded",
		zap.String("item", item.ID.Hex()),
		zap.String("owner", p.UserID.Hex()),
		zap.Int64("size", item.FileSize))
	return item, nil
}

// List retrieves the caller's non-deleted items directly inside the given
// folder ("" for the root level). Content is never decrypted for listings.
func (s *vaultService) List(ctx context.Context, p domain.Principal, folderID, sortBy string, limit int64) ([]*domain.VaultItem, error) {
	sortField, sortOrder := parseItemSort(sortBy)

	opts := store.ListOptions{
		SortBy:    sortField,
		SortOrder: sortOrder,
		Limit:     limit,
	}

	items, err := s.items.List(ctx, p.OrganizationID, p.UserID, folderID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list vault items from store: %w", err)
	}
	return items, nil
}

// Download fetches and decrypts an item for a caller who is its owner or
// holds a read grant, and appends a "download" entry to the access log. A
// decrypt failure is item-scoped: it does not affect other items or the
// caller's session.
func (s *vaultService) Download(ctx context.Context, p domain.Principal, itemID, ip string) ([]byte, *domain.VaultItem, error) {
	item, err := s.getItem(ctx, p.OrganizationID, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item.IsDeleted {
		return nil, nil, store.ErrNotFound
	}
	if err := authorize(p.UserID, item, domain.PermissionRead); err != nil {
		return nil, nil, err
	}

	ciphertext, err := s.blobs.Get(ctx, item.Ciphertext)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch ciphertext: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(item.EncryptionIV)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: stored IV is not valid base64", crypto.ErrDecrypt)
	}

	plaintext, err := crypto.Decrypt(ciphertext, s.fileKey(item.OwnerID), iv)
	if err != nil {
		s.logger.Warn("vault item decrypt failed",
			zap.String("item", item.ID.Hex()),
			zap.Error(err))
		return nil, nil, err
	}

	if err := s.appendAccess(ctx, item.ID, newAccessEntry(p.UserID, domain.ActionDownload, time.Now(), ip)); err != nil {
		return nil, nil, err
	}

	return plaintext, item, nil
}

// Delete soft-deletes an item: only the owner may call it, the record and its
// access log are retained, and a "delete" entry is appended.
func (s *vaultService) Delete(ctx context.Context, p domain.Principal, itemID, ip string) error {
	item, err := s.getItem(ctx, p.OrganizationID, itemID)
	if err != nil {
		return err
	}
	if item.IsDeleted {
		return store.ErrNotFound
	}
	if item.OwnerID != p.UserID {
		return ErrForbidden
	}

	now := time.Now()
	if err := s.items.SoftDelete(ctx, item.ID, now); err != nil {
		return fmt.Errorf("failed to soft-delete vault item: %w", err)
	}
	if err := s.appendAccess(ctx, item.ID, newAccessEntry(p.UserID, domain.ActionDelete, now, ip)); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, item.ID.Hex())

	s.logger.Info("vault item soft-deleted",
		zap.String("item", item.ID.Hex()),
		zap.String("owner", p.UserID.Hex()))
	return nil
}

// Share grants or updates a (user, permission) pair on an item. Only the
// owner may share; an existing grant for the same user is overwritten, so an
// item never carries two grants for one user. Concurrent shares race with
// last-write-wins semantics.
func (s *vaultService) Share(ctx context.Context, p domain.Principal, itemID, targetUserID string, permission domain.Permission, ip string) error {
	if !permission.Valid() {
		return fmt.Errorf("%w: unknown permission %q", ErrInvalidShare, permission)
	}
	target, err := parseObjectID(targetUserID)
	if err != nil {
		return fmt.Errorf("%w: invalid target user id", ErrInvalidShare)
	}

	item, err := s.getItem(ctx, p.OrganizationID, itemID)
	if err != nil {
		return err
	}
	if item.IsDeleted {
		return store.ErrNotFound
	}
	if item.OwnerID != p.UserID {
		return ErrForbidden
	}
	if target == item.OwnerID {
		return fmt.Errorf("%w: cannot share an item with its owner", ErrInvalidShare)
	}

	now := time.Now()
	entry := domain.SharedEntry{User: target, Permission: permission, SharedAt: now}
	if err := s.items.UpsertShare(ctx, item.ID, entry); err != nil {
		return fmt.Errorf("failed to record sharing grant: %w", err)
	}
	if err := s.appendAccess(ctx, item.ID, newAccessEntry(p.UserID, domain.ActionShare, now, ip)); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, item.ID.Hex())

	s.logger.Info("vault item shared",
		zap.String("item", item.ID.Hex()),
		zap.String("target", target.Hex()),
		zap.String("permission", string(permission)))
	return nil
}

// GetAccessLog returns the item's full audit trail ordered by timestamp.
// It works for soft-deleted items too: the trail outlives the listing.
func (s *vaultService) GetAccessLog(ctx context.Context, p domain.Principal, itemID string) ([]domain.AccessEntry, error) {
	item, err := s.getItem(ctx, p.OrganizationID, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != p.UserID {
		return nil, ErrForbidden
	}

	log := append([]domain.AccessEntry(nil), item.AccessLog...)
	sortAccessLog(log)
	return log, nil
}

// getItem is the read-through item fetch: cache first, then the store of
// record, populating the cache on a miss.
func (s *vaultService) getItem(ctx context.Context, orgID bson.ObjectID, itemID string) (*domain.VaultItem, error) {
	id, err := parseObjectID(itemID)
	if err != nil {
		return nil, store.ErrNotFound
	}

	if cached, _ := s.cache.Get(ctx, id.Hex()); cached != nil && cached.OrganizationID == orgID {
		return cached, nil
	}

	item, err := s.items.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, item)
	return item, nil
}

// appendAccess writes one audit entry and drops the cached copy so the next
// read sees the full log.
func (s *vaultService) appendAccess(ctx context.Context, itemID bson.ObjectID, entry domain.AccessEntry) error {
	if err := s.items.AppendAccess(ctx, itemID, entry); err != nil {
		return fmt.Errorf("failed to append access log entry: %w", err)
	}
	s.cache.Invalidate(ctx, itemID.Hex())
	return nil
}

// authorize applies the vault's access rule: the caller is permitted iff they
// own the item or hold a grant whose permission covers the required level.
func authorize(user bson.ObjectID, item *domain.VaultItem, required domain.Permission) error {
	if item.OwnerID == user {
		return nil
	}
	if g, ok := item.GrantFor(user); ok && g.Permission.Allows(required) {
		return nil
	}
	return ErrForbidden
}

func newAccessEntry(user bson.ObjectID, action string, at time.Time, ip string) domain.AccessEntry {
	return domain.AccessEntry{
		ID:        uuid.NewString(),
		User:      user,
		Action:    action,
		Timestamp: at,
		IP:        ip,
	}
}

// parseItemSort is a helper to convert an API sort string into
// database-compatible fields.
func parseItemSort(sortBy string) (field string, order int) {
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
		field = "fileName"
		order = 1
	case "alp_desc":
		field = "fileName"
		order = -1
	}
	return field, order
}

func parseObjectID(hex string) (bson.ObjectID, error) {
	return bson.ObjectIDFromHex(hex)
}

// sortAccessLog orders entries by timestamp. Appends from concurrent writers
// can interleave, and reads promise timestamp order.
func sortAccessLog(entries []domain.AccessEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
}
